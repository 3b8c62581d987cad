package loadtest

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/okian/assess/pkg/logger"
)

// WorkerChannelMultiplier sizes the job channel per worker.
const WorkerChannelMultiplier = 2

type assessment struct {
	Result struct {
		Kind string `json:"kind"`
		Code string `json:"code"`
	} `json:"result"`
	Token string `json:"token"`
}

// Run executes a complete load run against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Named("loadtest")
	}
	c := newClient(cfg.BaseURL, cfg.Timeout)
	start := time.Now()

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("test", cfg.TestKey),
		logger.Int("submissions", cfg.Submissions),
		logger.Int("workers", cfg.Workers),
		logger.Bool("verify", cfg.Verify),
	)

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if err := c.get(ctx, "/healthz", nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	var def definition
	if err := c.get(ctx, "/tests/"+url.PathEscape(cfg.TestKey), &def); err != nil {
		return nil, fmt.Errorf("fetch definition: %w", err)
	}
	subs := generate(def, cfg.Submissions, cfg.Seed)

	stats := &Stats{Codes: make(map[string]int)}
	var mu sync.Mutex
	record := func(fn func(s *Stats)) {
		mu.Lock()
		fn(stats)
		mu.Unlock()
	}

	jobs := make(chan submission, cfg.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				submit(ctx, log, c, cfg, sub, record)
			}
		}()
	}

	// Send submissions to workers
	go func() {
		defer close(jobs)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case jobs <- sub:
			}
		}
	}()
	wg.Wait()

	stats.Duration = time.Since(start)
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	log.Info(ctx, "load run completed",
		logger.Int("submitted", stats.Submitted),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Int("reopened", stats.Reopened),
		logger.Int("mismatched", stats.Mismatched),
		logger.Duration("duration", stats.Duration),
		logger.Float64("perSecond", stats.PerSecond()),
	)
	return stats, nil
}

// submit posts one submission and, when verifying, reopens its token.
func submit(ctx context.Context, log logger.Logger, c *client, cfg Config, sub submission, record func(func(*Stats))) {
	var a assessment
	err := c.post(ctx, "/tests/"+url.PathEscape(cfg.TestKey)+"/results", sub, &a)
	if err != nil {
		log.Debug(ctx, "submission failed", logger.Error(err))
		record(func(s *Stats) { s.Submitted++; s.Failed++ })
		return
	}
	record(func(s *Stats) {
		s.Submitted++
		s.Succeeded++
		s.Codes[a.Result.Code]++
	})
	if !cfg.Verify {
		return
	}

	var opened assessment
	if err := c.get(ctx, "/share/"+url.PathEscape(a.Token), &opened); err != nil {
		log.Debug(ctx, "reopen failed", logger.Error(err))
		record(func(s *Stats) { s.Mismatched++ })
		return
	}
	same := opened.Result.Code == a.Result.Code && opened.Result.Kind == a.Result.Kind
	record(func(s *Stats) {
		s.Reopened++
		if !same {
			s.Mismatched++
		}
	})
	if !same {
		log.Warn(ctx, "reopened result differs",
			logger.String("issued", a.Result.Code),
			logger.String("reopened", opened.Result.Code),
		)
	}
}
