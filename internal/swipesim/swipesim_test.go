package swipesim_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/sparkapply/internal/adapters/http/api"
	"github.com/okian/sparkapply/internal/adapters/http/ws"
	service "github.com/okian/sparkapply/internal/app"
	"github.com/okian/sparkapply/internal/swipesim"
	"github.com/okian/sparkapply/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(os.Stderr)); err != nil {
		panic(err)
	}
}

func baseConfig() *swipesim.Config {
	return &swipesim.Config{
		Sessions:         6,
		SwipesPerSession: 8,
		Workers:          3,
		Seed:             7,
		ApplyRatio:       0.5,
		DragRatio:        0.5,
		TeaseRatio:       0.5,
		RepeatRatio:      0.5,
		Timeout:          5 * time.Second,
		SettleTimeout:    5 * time.Second,
	}
}

func TestGeneratePlans(t *testing.T) {
	Convey("Given a seeded configuration", t, func() {
		config := baseConfig()

		Convey("When generating twice with the same seed", func() {
			a := swipesim.GeneratePlans(config)
			b := swipesim.GeneratePlans(config)

			Convey("Then the plans are identical", func() {
				So(a, ShouldResemble, b)
				So(len(a), ShouldEqual, config.Sessions)
				So(len(a[0].Steps), ShouldEqual, config.SwipesPerSession)
			})
		})

		Convey("When generating with another seed", func() {
			a := swipesim.GeneratePlans(config)
			config.Seed = 8
			b := swipesim.GeneratePlans(config)

			Convey("Then the plans differ", func() {
				So(a, ShouldNotResemble, b)
			})
		})

		Convey("When inspecting the generated steps", func() {
			plans := swipesim.GeneratePlans(config)

			Convey("Then drags resolve past the threshold and teases stay below it", func() {
				for _, p := range plans {
					for _, s := range p.Steps {
						if !s.Drag {
							So(s.RequestID, ShouldNotBeEmpty)
							continue
						}
						So(abs(s.Offset), ShouldBeGreaterThan, 100.0)
						So(abs(s.Offset), ShouldBeLessThanOrEqualTo, 200.0)
						So(abs(s.Tease), ShouldBeLessThan, 100.0)
						if s.Direction == "right" {
							So(s.Offset, ShouldBeGreaterThan, 0.0)
						} else {
							So(s.Offset, ShouldBeLessThan, 0.0)
						}
					}
				}
			})

			Convey("Then the expectation counts every step once", func() {
				e := swipesim.Expect(plans)
				So(e.Applies+e.Passes, ShouldEqual, config.Sessions*config.SwipesPerSession)
			})
		})

		Convey("When every decision is an apply made by button", func() {
			config.ApplyRatio = 1
			config.DragRatio = 0
			config.RepeatRatio = 0
			e := swipesim.Expect(swipesim.GeneratePlans(config))

			Convey("Then only applies are expected", func() {
				So(e.Applies, ShouldEqual, config.Sessions*config.SwipesPerSession)
				So(e.Passes, ShouldEqual, 0)
				So(e.Repeats, ShouldEqual, 0)
				So(e.Teases, ShouldEqual, 0)
			})
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given simulation stats", t, func() {
		stats := &swipesim.Stats{
			Expected:   swipesim.Expectation{Applies: 3, Passes: 2, Repeats: 1, Teases: 1},
			Duplicates: 1,
			Resets:     1,
			Baseline:   swipesim.TrackerStats{Total: 10, Passes: 4},
			Final:      swipesim.TrackerStats{Total: 13, Passes: 6},
		}

		Convey("Then matching deltas verify", func() {
			So(swipesim.Verify(stats), ShouldBeNil)
		})

		Convey("Then a lost application fails", func() {
			stats.Final.Total = 12
			err := swipesim.Verify(stats)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "gained 2 applications, want 3")
		})

		Convey("Then a double-applied repeat fails", func() {
			stats.Duplicates = 0
			So(swipesim.Verify(stats), ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running service", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		hub := ws.NewHub()
		go hub.Run(ctx)
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithTailoringLatencyRange(0, time.Millisecond),
			service.WithNotifier(hub),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() {
			stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = svc.Stop(stopCtx)
		}()

		mux := http.NewServeMux()
		api.NewServer(svc).Register(mux)
		mux.Handle("GET /sessions/{id}/ws", ws.NewGestureHandler(svc))
		server := httptest.NewServer(mux)
		defer server.Close()

		Convey("When the simulator drives it", func() {
			config := baseConfig()
			config.BaseURL = server.URL
			config.OutputFile = filepath.Join(t.TempDir(), "plans.json")
			stats, err := swipesim.Run(ctx, config)

			Convey("Then every decision lands in the tracker exactly once", func() {
				So(err, ShouldBeNil)
				So(stats.SessionsCreated, ShouldEqual, config.Sessions)
				So(stats.Accepted, ShouldEqual, config.Sessions*config.SwipesPerSession)
				So(stats.Final.Total, ShouldEqual, stats.Expected.Applies)
				So(stats.Final.Passes, ShouldEqual, stats.Expected.Passes)
				So(svc.SessionCount(), ShouldEqual, 0)

				_, statErr := os.Stat(config.OutputFile)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When the service is unreachable", func() {
			config := baseConfig()
			config.BaseURL = "http://127.0.0.1:1"
			config.Timeout = 200 * time.Millisecond
			_, err := swipesim.Run(ctx, config)

			Convey("Then the health check fails", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, swipesim.ErrUnexpectedStatus), ShouldBeFalse)
			})
		})
	})
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
