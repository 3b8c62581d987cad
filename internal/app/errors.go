package service

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the service.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrIncompleteAnswers = errors.New("submission has unanswered questions")
	ErrEmptyBatch        = errors.New("batch has no submissions")
	ErrBatchTooLarge     = errors.New("batch exceeds the configured size")
)

// IncompleteAnswersError reports the first unanswered question of a
// submission. It matches ErrIncompleteAnswers.
type IncompleteAnswersError struct {
	TestKey string
	Index   int
}

func (e *IncompleteAnswersError) Error() string {
	return fmt.Sprintf("%s: %s: question %d", ErrIncompleteAnswers, e.TestKey, e.Index)
}

func (e *IncompleteAnswersError) Unwrap() error { return ErrIncompleteAnswers }
