package config_test

import (
	"context"
	"testing"

	"github.com/jfeo/artswipe/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.SupplierURL, convey.ShouldEqual, "https://api.natmus.dk/search/public/raw")
			convey.So(cfg.FetchBatchSize, convey.ShouldEqual, 10)
			convey.So(cfg.FetchTimeoutMS, convey.ShouldEqual, 5000)
			convey.So(cfg.SelectorRetries, convey.ShouldEqual, 10)
			convey.So(cfg.MatchThreshold, convey.ShouldEqual, 3)
			convey.So(cfg.StoreBackend, convey.ShouldEqual, "memory")
			convey.So(cfg.StatePath, convey.ShouldEqual, "dump.json")
		})
	})
}
