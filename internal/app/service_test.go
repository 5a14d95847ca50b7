package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/counters/internal/adapters/repository"
	service "github.com/okian/counters/internal/app"
	"github.com/okian/counters/internal/domain/counter"
	"github.com/okian/counters/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func startedService(ctx context.Context, opts ...service.Option) *service.Service {
	svc := service.New(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should report defaults before start", func() {
			So(svc, ShouldNotBeNil)
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, false)
			So(stats["shardCount"], ShouldEqual, 16)
			So(stats["maxNameLength"], ShouldEqual, 256)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithShardCount(4),
			service.WithMaxNameLength(8),
			service.WithMetricsUpdateInterval(time.Second),
			service.WithLogger(logger.Get()),
		)

		Convey("Then the options should be applied", func() {
			stats := svc.GetStats()
			So(stats["shardCount"], ShouldEqual, 4)
			So(stats["maxNameLength"], ShouldEqual, 8)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		Convey("When operating before start", func() {
			_, err := svc.Read(ctx, "foo")

			Convey("Then it should return ErrNotStarted", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			})
		})

		Convey("When starting the service twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["totalCounters"], ShouldEqual, 0)
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			_, _ = svc.Create(ctx, "ephemeral")
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
			})

			Convey("And a restart should begin with an empty registry", func() {
				So(svc.Start(ctx), ShouldBeNil)
				defer svc.Stop()
				_, err := svc.Read(ctx, "ephemeral")
				So(errors.Is(err, counter.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestService_CounterOperations(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc := startedService(ctx)
		defer svc.Stop()

		Convey("When creating a new counter", func() {
			c, err := svc.Create(ctx, "foo")

			Convey("Then it should start at zero", func() {
				So(err, ShouldBeNil)
				So(c, ShouldResemble, counter.Counter{Name: "foo", Value: 0})

				read, err := svc.Read(ctx, "foo")
				So(err, ShouldBeNil)
				So(read.Value, ShouldEqual, 0)
			})

			Convey("And creating it again should conflict without changing it", func() {
				_, _ = svc.Update(ctx, "foo")
				_, err := svc.Create(ctx, "foo")
				So(errors.Is(err, counter.ErrConflict), ShouldBeTrue)

				read, _ := svc.Read(ctx, "foo")
				So(read.Value, ShouldEqual, 1)
			})
		})

		Convey("When updating an existing counter", func() {
			_, _ = svc.Create(ctx, "bar_update")
			before, _ := svc.Read(ctx, "bar_update")
			updated, err := svc.Update(ctx, "bar_update")

			Convey("Then the value should grow by exactly one", func() {
				So(err, ShouldBeNil)
				So(updated.Value, ShouldEqual, before.Value+1)
				after, _ := svc.Read(ctx, "bar_update")
				So(after.Value, ShouldEqual, before.Value+1)
			})
		})

		Convey("When updating a missing counter", func() {
			_, err := svc.Update(ctx, "no_result_update")

			Convey("Then it should be not found and not created", func() {
				So(errors.Is(err, counter.ErrNotFound), ShouldBeTrue)
				_, err := svc.Read(ctx, "no_result_update")
				So(errors.Is(err, counter.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When deleting a counter twice", func() {
			_, _ = svc.Create(ctx, "delete")
			first := svc.Delete(ctx, "delete")
			second := svc.Delete(ctx, "delete")

			Convey("Then only the first delete should succeed", func() {
				So(first, ShouldBeNil)
				So(errors.Is(second, counter.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When listing counters", func() {
			_, _ = svc.Create(ctx, "b")
			_, _ = svc.Create(ctx, "a")
			_, _ = svc.Update(ctx, "b")
			list, err := svc.List(ctx)

			Convey("Then they should be ordered by name", func() {
				So(err, ShouldBeNil)
				So(list, ShouldResemble, []counter.Counter{{Name: "a"}, {Name: "b", Value: 1}})
			})
		})

		Convey("When using invalid names", func() {
			Convey("Then every operation should reject them", func() {
				_, err := svc.Create(ctx, "")
				So(errors.Is(err, counter.ErrInvalidName), ShouldBeTrue)
				_, err = svc.Read(ctx, "a/b")
				So(errors.Is(err, counter.ErrInvalidName), ShouldBeTrue)
				_, err = svc.Update(ctx, strings.Repeat("x", 300))
				So(errors.Is(err, counter.ErrInvalidName), ShouldBeTrue)
				err = svc.Delete(ctx, " ")
				So(errors.Is(err, counter.ErrInvalidName), ShouldBeTrue)
			})
		})
	})
}

func TestService_ConcurrentUpdates(t *testing.T) {
	Convey("Given a counter starting at zero", t, func() {
		ctx := context.Background()
		svc := startedService(ctx, service.WithShardCount(2))
		defer svc.Stop()
		_, err := svc.Create(ctx, "contended")
		So(err, ShouldBeNil)

		Convey("When N goroutines update it concurrently", func() {
			const n = 500
			var wg sync.WaitGroup
			errs := make(chan error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := svc.Update(ctx, "contended"); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)

			Convey("Then the final value should be exactly N", func() {
				So(len(errs), ShouldEqual, 0)
				c, err := svc.Read(ctx, "contended")
				So(err, ShouldBeNil)
				So(c.Value, ShouldEqual, n)
			})
		})
	})
}

func TestService_InjectedStore(t *testing.T) {
	Convey("Given a service with an injected store", t, func() {
		ctx := context.Background()
		store := repository.NewShardedStore(ctx, repository.WithShardCount(2))
		defer func() { _ = store.Close() }()
		_, _ = store.Create(ctx, "preloaded")

		svc := startedService(ctx, service.WithStore(store))

		Convey("When the service is stopped", func() {
			svc.Stop()

			Convey("Then the injected store should keep its data", func() {
				c, err := store.Get(ctx, "preloaded")
				So(err, ShouldBeNil)
				So(c.Name, ShouldEqual, "preloaded")
			})
		})

		Convey("When reading through the service", func() {
			defer svc.Stop()
			c, err := svc.Read(ctx, "preloaded")

			Convey("Then it should see the store's counters", func() {
				So(err, ShouldBeNil)
				So(c.Value, ShouldEqual, 0)
				So(svc.GetStats()["totalCounters"], ShouldEqual, 1)
			})
		})
	})
}
