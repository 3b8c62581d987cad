package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	service "github.com/okian/assess/internal/app"
	"github.com/okian/assess/internal/domain/catalog"
	"github.com/okian/assess/internal/domain/classify"
	"github.com/okian/assess/internal/domain/scoring"
	"github.com/okian/assess/internal/domain/share"
	"github.com/okian/assess/pkg/logger"
	"github.com/okian/assess/pkg/metrics"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithLogger(logger.Nop()),
		service.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithShareBaseURL("https://assess.test/result"),
		service.WithBatchWorkers(3),
	}
	return service.New(append(base, opts...)...)
}

func started(opts ...service.Option) *service.Service {
	svc := newService(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func fill(v, n int) []*int {
	values := make([]int, n)
	for i := range values {
		values[i] = v
	}
	return scoring.Answers(values...)
}

// dominantTime answers the relationship test with TIME clearly ahead.
func dominantTime() []*int {
	answers := fill(3, 18)
	five, one := 5, 1
	answers[0], answers[1], answers[2] = &five, &five, &one
	return answers
}

func TestServiceLifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService()

		Convey("Then operations wait for Start", func() {
			_, err := svc.Assess(context.Background(), service.Submission{TestKey: "relationship"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Tests(context.Background())
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When it is started", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)

			Convey("Then the built-in tests are listed", func() {
				tests, err := svc.Tests(context.Background())
				So(err, ShouldBeNil)
				So(len(tests), ShouldEqual, 2)
				So(svc.GetStats()["tests"], ShouldResemble, []string{"emotional", "relationship"})
			})

			Convey("And a definition is returned by key", func() {
				def, err := svc.Definition(context.Background(), "emotional")
				So(err, ShouldBeNil)
				So(def.Family(), ShouldEqual, catalog.FamilyArchetype)
			})

			Convey("And stopping marks it stopped", func() {
				svc.Stop()
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestAssess(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started()
		ctx := context.Background()

		Convey("When a complete submission is assessed", func() {
			a, err := svc.Assess(ctx, service.Submission{TestKey: "relationship", Nickname: " Mina ", Answers: dominantTime()})

			Convey("Then the result, payload and link are produced", func() {
				So(err, ShouldBeNil)
				So(a.Result.Kind, ShouldEqual, classify.KindSingle)
				So(a.Result.Code, ShouldEqual, "TIME")
				So(a.Payload.Nickname, ShouldEqual, "Mina")
				So(a.Payload.TS, ShouldEqual, "2025-03-01T12:00:00.000Z")
				So(a.Token, ShouldNotBeBlank)
				So(a.Link, ShouldEqual, "https://assess.test/result#share="+a.Token)
				So(svc.GetStats()["assessed"], ShouldEqual, int64(1))
			})

			Convey("And the link reopens the same result", func() {
				opened, err := svc.Open(ctx, a.Link)
				So(err, ShouldBeNil)
				So(opened.Token, ShouldEqual, a.Token)
				So(opened.Result.Code, ShouldEqual, a.Result.Code)
				So(cmp.Diff(a.Result.Content, opened.Result.Content), ShouldBeEmpty)
				So(cmp.Diff(a.Result.Outcome, opened.Result.Outcome), ShouldBeEmpty)
			})

			Convey("And reopening is served from the cache", func() {
				first, err := svc.Open(ctx, a.Token)
				So(err, ShouldBeNil)
				second, err := svc.Open(ctx, "share="+a.Token)
				So(err, ShouldBeNil)
				So(cmp.Diff(first, second), ShouldBeEmpty)
				So(svc.GetStats()["shareCacheEntries"], ShouldEqual, 1)
				So(svc.GetStats()["sharesOpened"], ShouldEqual, int64(2))
			})
		})

		Convey("When an archetype test is assessed", func() {
			a, err := svc.Assess(ctx, service.Submission{TestKey: "emotional", Answers: fill(5, 24)})

			Convey("Then the archetype and its index are returned", func() {
				So(err, ShouldBeNil)
				So(a.Result.Kind, ShouldEqual, classify.KindArchetype)
				So(a.Payload.ELI, ShouldNotBeNil)
				So(*a.Payload.ELI, ShouldEqual, a.Result.Outcome.Index.Index)
			})
		})

		Convey("When a question is left unanswered", func() {
			answers := dominantTime()
			answers[4] = nil
			_, err := svc.Assess(ctx, service.Submission{TestKey: "relationship", Answers: answers})

			Convey("Then the first unanswered index is reported", func() {
				So(errors.Is(err, service.ErrIncompleteAnswers), ShouldBeTrue)
				var incomplete *service.IncompleteAnswersError
				So(errors.As(err, &incomplete), ShouldBeTrue)
				So(incomplete.Index, ShouldEqual, 4)
				So(incomplete.TestKey, ShouldEqual, "relationship")
			})
		})

		Convey("When the test is unknown", func() {
			_, err := svc.Assess(ctx, service.Submission{TestKey: "nope"})
			So(errors.Is(err, catalog.ErrUnknownTest), ShouldBeTrue)
		})

		Convey("When the answer count is wrong", func() {
			_, err := svc.Assess(ctx, service.Submission{TestKey: "relationship", Answers: fill(3, 2)})
			So(errors.Is(err, scoring.ErrAnswerCount), ShouldBeTrue)
		})

		Convey("When a token cannot be opened", func() {
			_, err := svc.Open(ctx, "not a token")

			Convey("Then it is reported as unreadable", func() {
				So(errors.Is(err, share.ErrUnreadableShare), ShouldBeTrue)
				So(service.ShareFailureReason(err), ShouldEqual, "malformed")
				So(svc.GetStats()["sharesRejected"], ShouldEqual, int64(1))
			})
		})
	})

	Convey("Given a service that accepts partial submissions", t, func() {
		svc := started(service.WithAllowPartial(true))
		answers := dominantTime()
		answers[4] = nil

		Convey("Then unanswered questions contribute nothing", func() {
			a, err := svc.Assess(context.Background(), service.Submission{TestKey: "relationship", Answers: answers})
			So(err, ShouldBeNil)
			word, ok := a.Result.Scores.Get("WORD")
			So(ok, ShouldBeTrue)
			So(word.Raw, ShouldEqual, 6)
		})
	})
}

func TestShareFailureReason(t *testing.T) {
	Convey("Failure reasons are named", t, func() {
		_, err := share.Decode("")
		So(service.ShareFailureReason(err), ShouldEqual, "malformed")
		_, err = share.Reconstruct(catalog.MustBuiltin(), share.Payload{V: 1, TestKey: "gone"})
		So(service.ShareFailureReason(err), ShouldEqual, "unknown_test")
		So(service.ShareFailureReason(errors.New("boom")), ShouldEqual, "other")
	})
}

func TestAssessBatch(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started(service.WithMaxBatchSize(10))
		ctx := context.Background()

		Convey("When a batch mixes good and incomplete submissions", func() {
			subs := make([]service.Submission, 6)
			for i := range subs {
				subs[i] = service.Submission{Nickname: strings.Repeat("x", i+1), Answers: dominantTime()}
			}
			subs[2].Answers = fill(3, 18)
			subs[2].Answers[7] = nil
			items, err := svc.AssessBatch(ctx, "relationship", subs)

			Convey("Then every item is reported in submission order", func() {
				So(err, ShouldBeNil)
				So(len(items), ShouldEqual, 6)
				for i, item := range items {
					So(item.Index, ShouldEqual, i)
					if i == 2 {
						So(errors.Is(item.Err, service.ErrIncompleteAnswers), ShouldBeTrue)
						So(item.Error, ShouldNotBeBlank)
						So(item.Assessment, ShouldBeNil)
						continue
					}
					So(item.Err, ShouldBeNil)
					So(item.Assessment.Payload.Nickname, ShouldEqual, strings.Repeat("x", i+1))
					So(item.Assessment.Result.Code, ShouldEqual, "TIME")
				}
			})
		})

		Convey("When the batch is empty or too large", func() {
			_, err := svc.AssessBatch(ctx, "relationship", nil)
			So(errors.Is(err, service.ErrEmptyBatch), ShouldBeTrue)
			_, err = svc.AssessBatch(ctx, "relationship", make([]service.Submission, 11))
			So(errors.Is(err, service.ErrBatchTooLarge), ShouldBeTrue)
		})

		Convey("When the test is unknown", func() {
			_, err := svc.AssessBatch(ctx, "nope", make([]service.Submission, 1))
			So(errors.Is(err, catalog.ErrUnknownTest), ShouldBeTrue)
		})

		Convey("When the context is already canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := svc.AssessBatch(canceled, "relationship", []service.Submission{{Answers: dominantTime()}})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
