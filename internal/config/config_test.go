package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/assess/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.ShareCacheSize, convey.ShouldEqual, 4096)
			convey.So(cfg.BatchWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MaxBatchSize, convey.ShouldEqual, 500)
			convey.So(cfg.AllowPartialAnswers, convey.ShouldBeFalse)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given configs with invalid fields", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero cache", func(c *config.Config) { c.ShareCacheSize = 0 }},
			{"zero workers", func(c *config.Config) { c.BatchWorkers = 0 }},
			{"negative batch", func(c *config.Config) { c.MaxBatchSize = -1 }},
			{"unknown format", func(c *config.Config) { c.LogFormat = "xml" }},
		}
		for _, c := range cases {
			convey.Convey("Then "+c.name+" is rejected", func() {
				cfg := config.New()
				c.mutate(cfg)
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})
}
