package share

import "errors"

// ErrUnreadableShare is returned for any token that cannot be opened. The
// concrete reason is wrapped alongside it.
var ErrUnreadableShare = errors.New("could not open shared result")

// Reasons a token is unreadable.
var (
	ErrMalformedToken     = errors.New("malformed share token")
	ErrUnsupportedVersion = errors.New("unsupported share version")
	ErrInvalidPayload     = errors.New("invalid share payload")
)

// unreadableError matches both ErrUnreadableShare and its reason.
type unreadableError struct {
	reason error
	detail string
}

func unreadable(reason error, detail string) error {
	return &unreadableError{reason: reason, detail: detail}
}

func (e *unreadableError) Error() string {
	msg := ErrUnreadableShare.Error() + ": " + e.reason.Error()
	if e.detail != "" {
		msg += ": " + e.detail
	}
	return msg
}

func (e *unreadableError) Unwrap() []error {
	return []error{ErrUnreadableShare, e.reason}
}

// Reason returns the sentinel explaining why err is unreadable, or nil.
func Reason(err error) error {
	var ue *unreadableError
	if errors.As(err, &ue) {
		return ue.reason
	}
	return nil
}
