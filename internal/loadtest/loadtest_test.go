package loadtest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/assess/internal/adapters/http/api"
	service "github.com/okian/assess/internal/app"
	"github.com/okian/assess/pkg/logger"
	"github.com/okian/assess/pkg/metrics"
)

func newTarget() *httptest.Server {
	svc := service.New(
		service.WithLogger(logger.Nop()),
		service.WithMetrics(metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func testDefinition() definition {
	var def definition
	def.Key = "t"
	def.Meta.Scale.Min, def.Meta.Scale.Max = 1, 5
	for _, code := range []string{"A", "B"} {
		def.Dimensions = append(def.Dimensions, struct {
			Code string `json:"code"`
		}{code})
		for i := 0; i < 3; i++ {
			def.Questions = append(def.Questions, struct {
				Dim string `json:"dim"`
			}{code})
		}
	}
	return def
}

func TestGenerate(t *testing.T) {
	Convey("Given a definition", t, func() {
		def := testDefinition()

		Convey("Then answers are complete, in scale and seeded", func() {
			a := generate(def, 9, 7)
			b := generate(def, 9, 7)
			So(len(a), ShouldEqual, 9)
			for i := range a {
				So(len(a[i].Answers), ShouldEqual, 6)
				So(a[i].Answers, ShouldResemble, b[i].Answers)
				So(len(a[i].Nickname), ShouldEqual, nicknameLen)
				for _, v := range a[i].Answers {
					So(v, ShouldBeBetweenOrEqual, 1, 5)
				}
			}
		})

		Convey("Then flat submissions repeat one value", func() {
			flat := generate(def, 3, 1)[profileFlat].Answers
			for _, v := range flat {
				So(v, ShouldEqual, flat[0])
			}
		})

		Convey("Then lean submissions max out the lead dimension", func() {
			lean := generate(def, 3, 1)[profileLean].Answers
			top := lean[0:3]
			if lean[3] == 5 && lean[4] == 5 && lean[5] == 5 {
				top = lean[3:6]
			}
			So(top, ShouldResemble, []int{5, 5, 5})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given load configurations", t, func() {
		cases := []struct {
			name string
			cfg  Config
		}{
			{"no base url", Config{TestKey: "t", Submissions: 1, Workers: 1}},
			{"no test", Config{BaseURL: "http://x", Submissions: 1, Workers: 1}},
			{"no submissions", Config{BaseURL: "http://x", TestKey: "t", Workers: 1}},
			{"no workers", Config{BaseURL: "http://x", TestKey: "t", Submissions: 1}},
		}
		for _, tc := range cases {
			Convey("Then "+tc.name+" is rejected", func() {
				So(errors.Is(tc.cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
			})
		}
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		srv := newTarget()
		defer srv.Close()

		Convey("When a verified load run completes", func() {
			stats, err := Run(context.Background(), Config{
				BaseURL:     srv.URL,
				TestKey:     "relationship",
				Submissions: 12,
				Workers:     3,
				Seed:        42,
				Verify:      true,
				Logger:      logger.Nop(),
			})

			Convey("Then every submission succeeds and reopens identically", func() {
				So(err, ShouldBeNil)
				So(stats.Submitted, ShouldEqual, 12)
				So(stats.Succeeded, ShouldEqual, 12)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Reopened, ShouldEqual, 12)
				So(stats.Mismatched, ShouldEqual, 0)
				total := 0
				for _, n := range stats.Codes {
					total += n
				}
				So(total, ShouldEqual, 12)
			})
		})

		Convey("When the test does not exist", func() {
			_, err := Run(context.Background(), Config{
				BaseURL: srv.URL, TestKey: "nope", Submissions: 1, Workers: 1, Logger: logger.Nop(),
			})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "status 404")
		})
	})

	Convey("Given no service", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		_, err := Run(context.Background(), Config{
			BaseURL: srv.URL, TestKey: "relationship", Submissions: 1, Workers: 1, Logger: logger.Nop(),
		})
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "health check")
	})
}
