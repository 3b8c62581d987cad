// Package service assembles scoring, classification and sharing into the
// operations the HTTP API and the CLI expose.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/assess/internal/adapters/sharecache"
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/classify"
	"github.com/okian/assess/internal/domain/scoring"
	"github.com/okian/assess/internal/domain/share"
	"github.com/okian/assess/pkg/logger"
	"github.com/okian/assess/pkg/metrics"
)

const (
	defaultMaxBatchSize = 500
	defaultShareBaseURL = "/"
)

// Submission is one completed (or partially completed) answer sequence.
type Submission struct {
	TestKey  string `json:"testKey"`
	Nickname string `json:"nickname"`
	Answers  []*int `json:"answers"`
}

// Assessment is a result together with the token and link that reopen it.
type Assessment struct {
	Result  classify.Result `json:"result"`
	Payload share.Payload   `json:"payload"`
	Token   string          `json:"token"`
	Link    string          `json:"link"`
}

// BatchItem is the outcome of one submission in a batch. Exactly one of
// Assessment and Err is set.
type BatchItem struct {
	Index      int         `json:"index"`
	Assessment *Assessment `json:"assessment,omitempty"`
	Err        error       `json:"-"`
	Error      string      `json:"error,omitempty"`
}

// Service implements the assessment operations.
type Service struct {
	mu sync.RWMutex

	// Core components
	registry *catalog.Registry
	cache    *sharecache.Cache
	metrics  *metrics.Manager
	clock    func() time.Time

	// Configuration
	shareBaseURL string
	cacheSize    int
	batchWorkers int
	maxBatchSize int
	allowPartial bool

	// State
	started  bool
	assessed atomic.Int64
	opened   atomic.Int64
	rejected atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRegistry sets the test definitions. The built-in set is used otherwise.
func WithRegistry(r *catalog.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records on m instead of the global manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock sets the time source used for payload timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithShareBaseURL sets the address share links point at.
func WithShareBaseURL(base string) Option {
	return func(s *Service) {
		if base != "" {
			s.shareBaseURL = base
		}
	}
}

// WithShareCache sets a prebuilt share cache.
func WithShareCache(c *sharecache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithShareCacheSize sets the bound of the cache built on Start.
func WithShareCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.cacheSize = size
		}
	}
}

// WithBatchWorkers sets how many submissions of a batch are scored at once.
func WithBatchWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchWorkers = n
		}
	}
}

// WithMaxBatchSize sets the largest accepted batch.
func WithMaxBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithAllowPartial accepts submissions with unanswered questions. They
// contribute nothing to their dimension.
func WithAllowPartial(allow bool) Option {
	return func(s *Service) {
		s.allowPartial = allow
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		metrics:      metrics.Default(),
		clock:        time.Now,
		shareBaseURL: defaultShareBaseURL,
		cacheSize:    sharecache.DefaultSize,
		batchWorkers: runtime.NumCPU(),
		maxBatchSize: defaultMaxBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start resolves the components that were not supplied as options.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.registry == nil {
		reg, err := catalog.Builtin()
		if err != nil {
			return fmt.Errorf("load built-in definitions: %w", err)
		}
		s.registry = reg
	}
	if s.cache == nil {
		c, err := sharecache.New(s.cacheSize, sharecache.WithMetrics(s.metrics))
		if err != nil {
			return err
		}
		s.cache = c
	}

	s.metrics.UpdateCatalogDefinitions(s.registry.Len())
	s.started = true
	s.logger.Info(ctx, "assessment service started",
		logger.Any("tests", s.registry.Keys()),
		logger.Int("batchWorkers", s.batchWorkers),
		logger.Int("maxBatchSize", s.maxBatchSize),
		logger.Bool("allowPartial", s.allowPartial),
	)
	return nil
}

// Stop releases cached shares. The service can be started again.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.cache.Purge()
	s.started = false
	s.logger.Info(context.Background(), "assessment service stopped")
}

func (s *Service) components() (*catalog.Registry, *sharecache.Cache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.registry, s.cache, nil
}

// Tests lists the available tests.
func (s *Service) Tests(_ context.Context) ([]catalog.Summary, error) {
	reg, _, err := s.components()
	if err != nil {
		return nil, err
	}
	return reg.Summaries(), nil
}

// Definition returns the definition for key.
func (s *Service) Definition(_ context.Context, key string) (*catalog.Definition, error) {
	reg, _, err := s.components()
	if err != nil {
		return nil, err
	}
	return reg.Get(key)
}

// Assess scores and classifies a submission and issues its share token.
func (s *Service) Assess(ctx context.Context, sub Submission) (Assessment, error) {
	reg, _, err := s.components()
	if err != nil {
		return Assessment{}, err
	}
	def, err := reg.Get(sub.TestKey)
	if err != nil {
		return Assessment{}, err
	}
	if !s.allowPartial && len(sub.Answers) == len(def.Questions) {
		if idx := scoring.FirstUnanswered(sub.Answers); idx >= 0 {
			s.metrics.RecordIncompleteSubmission(def.Key)
			return Assessment{}, &IncompleteAnswersError{TestKey: def.Key, Index: idx}
		}
	}

	started := time.Now()
	sheet, err := scoring.Score(def, sub.Answers)
	if err != nil {
		return Assessment{}, fmt.Errorf("score %s: %w", def.Key, err)
	}
	res := classify.Classify(def, sheet)
	s.metrics.RecordClassificationLatency(def.Key, float64(time.Since(started).Microseconds())/1000)
	s.metrics.RecordAssessment(def.Key, string(res.Kind))
	for _, f := range res.Fallbacks {
		s.metrics.RecordFallback(def.Key, string(f))
		s.logger.Warn(ctx, "catalog gap bridged",
			logger.String("test", def.Key),
			logger.String("fallback", string(f)),
			logger.String("code", res.Code),
		)
	}

	payload := share.FromResult(res, sub.Nickname, s.clock())
	token, err := share.Encode(payload)
	if err != nil {
		return Assessment{}, err
	}
	s.metrics.RecordShareEncode(def.Key)
	s.assessed.Add(1)

	s.logger.Debug(ctx, "assessment completed",
		logger.String("test", def.Key),
		logger.String("kind", string(res.Kind)),
		logger.String("code", res.Code),
	)
	return Assessment{
		Result:  res,
		Payload: payload,
		Token:   token,
		Link:    share.Link(s.shareBaseURL, token),
	}, nil
}

// AssessBatch assesses submissions for one test in parallel. Per-item
// failures are reported on the item; items keep submission order.
func (s *Service) AssessBatch(ctx context.Context, key string, subs []Submission) ([]BatchItem, error) {
	reg, _, err := s.components()
	if err != nil {
		return nil, err
	}
	if _, err := reg.Get(key); err != nil {
		return nil, err
	}
	switch {
	case len(subs) == 0:
		return nil, ErrEmptyBatch
	case len(subs) > s.maxBatchSize:
		return nil, fmt.Errorf("%w: %d > %d", ErrBatchTooLarge, len(subs), s.maxBatchSize)
	}
	s.metrics.RecordBatchSize(len(subs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWorkers)

	items := make([]BatchItem, len(subs))
	for i, sub := range subs {
		sub.TestKey = key
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := BatchItem{Index: i}
			a, err := s.Assess(ctx, sub)
			if err != nil {
				item.Err, item.Error = err, err.Error()
			} else {
				item.Assessment = &a
			}
			items[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

// Open rebuilds a shared result from a token or link.
func (s *Service) Open(ctx context.Context, tokenOrLink string) (Assessment, error) {
	reg, cache, err := s.components()
	if err != nil {
		return Assessment{}, err
	}
	token, err := share.Token(tokenOrLink)
	if err != nil {
		return Assessment{}, s.rejectShare(ctx, err)
	}
	if e, ok := cache.Get(token); ok {
		s.opened.Add(1)
		return s.assessment(e, token), nil
	}

	p, err := share.Decode(token)
	if err != nil {
		return Assessment{}, s.rejectShare(ctx, err)
	}
	res, err := share.Reconstruct(reg, p)
	if err != nil {
		return Assessment{}, s.rejectShare(ctx, err)
	}

	e := sharecache.Entry{Payload: p, Result: res}
	cache.Add(token, e)
	s.metrics.RecordShareOpen(p.TestKey)
	s.opened.Add(1)
	return s.assessment(e, token), nil
}

func (s *Service) assessment(e sharecache.Entry, token string) Assessment {
	return Assessment{
		Result:  e.Result,
		Payload: e.Payload,
		Token:   token,
		Link:    share.Link(s.shareBaseURL, token),
	}
}

func (s *Service) rejectShare(ctx context.Context, err error) error {
	reason := ShareFailureReason(err)
	s.metrics.RecordShareDecodeFailure(reason)
	s.rejected.Add(1)
	s.logger.Debug(ctx, "share rejected", logger.String("reason", reason), logger.Error(err))
	return err
}

// ShareFailureReason names why a share could not be opened.
func ShareFailureReason(err error) string {
	switch reason := share.Reason(err); {
	case errors.Is(reason, share.ErrMalformedToken):
		return "malformed"
	case errors.Is(reason, share.ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(reason, share.ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(reason, catalog.ErrUnknownTest):
		return "unknown_test"
	default:
		return "other"
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":        s.started,
		"batchWorkers":   s.batchWorkers,
		"maxBatchSize":   s.maxBatchSize,
		"allowPartial":   s.allowPartial,
		"assessed":       s.assessed.Load(),
		"sharesOpened":   s.opened.Load(),
		"sharesRejected": s.rejected.Load(),
	}
	if s.started {
		stats["tests"] = s.registry.Keys()
		stats["shareCacheEntries"] = s.cache.Len()
	}
	return stats
}
