package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/okian/counters/internal/config"
	"github.com/okian/counters/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestMainWiring(t *testing.T) {
	convey.Convey("Given a configuration loaded from the environment", t, func() {
		t.Setenv("COUNTERS_SHARD_COUNT", "4")
		t.Setenv("COUNTERS_MAX_NAME_LENGTH", "8")

		cfg, err := config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.ShardCount, convey.ShouldEqual, 4)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(newMux(ctx, svc, logger.Get()))
		defer srv.Close()

		do := func(method, path string) *http.Response {
			req, reqErr := http.NewRequest(method, srv.URL+path, http.NoBody)
			convey.So(reqErr, convey.ShouldBeNil)
			resp, doErr := srv.Client().Do(req)
			convey.So(doErr, convey.ShouldBeNil)
			return resp
		}

		convey.Convey("When the counter routes are exercised", func() {
			resp := do(http.MethodPost, "/counters/visits")
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusCreated)

			resp = do(http.MethodPut, "/counters/visits")
			var body map[string]int64
			convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
			_ = resp.Body.Close()

			convey.Convey("Then the service state is visible over HTTP", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(body["visits"], convey.ShouldEqual, int64(1))
			})
		})

		convey.Convey("When a name exceeds the configured limit", func() {
			resp := do(http.MethodPost, "/counters/much-too-long")
			_ = resp.Body.Close()

			convey.Convey("Then it is rejected", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusBadRequest)
			})
		})

		convey.Convey("When documentation routes are requested", func() {
			resp := do(http.MethodGet, "/openapi.yaml")
			_ = resp.Body.Close()
			docs := do(http.MethodGet, "/api-docs")
			_ = docs.Body.Close()

			convey.Convey("Then both are served", func() {
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
				convey.So(docs.StatusCode, convey.ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestRunShutsDownOnCancel(t *testing.T) {
	convey.Convey("Given a running server on an ephemeral port", t, func() {
		cfg := config.New()
		cfg.Addr = "127.0.0.1:0"
		cfg.ShutdownTimeoutMS = 1000

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg, logger.Get()) }()

		convey.Convey("When the context is cancelled", func() {
			time.Sleep(50 * time.Millisecond)
			cancel()

			convey.Convey("Then run returns without error", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(5 * time.Second):
					t.Fatal("run did not return after cancel")
				}
			})
		})
	})
}

func TestRunFailsOnBadAddress(t *testing.T) {
	convey.Convey("Given an address that cannot be bound", t, func() {
		cfg := config.New()
		cfg.Addr = "256.256.256.256:99999"

		convey.Convey("Then run reports the listen error", func() {
			err := run(context.Background(), cfg, logger.Get())
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the background metric updaters", t, func() {
		cfg := config.New()
		svc := newService(cfg, logger.Get())
		convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
		defer svc.Stop()

		convey.Convey("Then single updates do not panic", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the loops exit when the context ends", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
			convey.So(func() { startServiceMetricsUpdater(ctx, svc, 10*time.Millisecond) }, convey.ShouldNotPanic)
		})
	})
}
