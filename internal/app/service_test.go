package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	service "github.com/okian/sparkapply/internal/app"
	"github.com/okian/sparkapply/internal/domain/job"
	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/internal/domain/swipe"
	"github.com/okian/sparkapply/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// card centered at x=100
var card = swipe.Card{Left: 0, Width: 200}

func startService(opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithWorkerCount(2),
		service.WithTailoringLatencyRange(0, 0),
	}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func stopService(svc *service.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = svc.Stop(ctx)
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(100), service.WithDedupeSize(100))

		Convey("When it was never started", func() {
			_, err := svc.CreateSession(ctx)
			_, jobsErr := svc.Jobs(ctx)
			_, appsErr := svc.Applications(ctx, "")

			Convey("Then every operation reports ErrNotStarted", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(jobsErr, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(appsErr, service.ErrNotStarted), ShouldBeTrue)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})

		Convey("When starting and stopping", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			started := svc.GetStats()
			stopService(svc)

			Convey("Then the stats follow the lifecycle", func() {
				So(started["started"], ShouldEqual, true)
				So(started["jobs"], ShouldEqual, 3)
				So(started["workerCount"], ShouldEqual, 2)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When the catalog file is missing", func() {
			broken := service.New(service.WithCatalogFile("/does/not/exist.yaml"))
			err := broken.Start(ctx)

			Convey("Then Start fails with ErrLoadCatalog", func() {
				So(errors.Is(err, service.ErrLoadCatalog), ShouldBeTrue)
			})
		})

		Convey("When seeded with invalid jobs", func() {
			broken := service.New(service.WithJobs([]job.Job{{ID: "a"}, {ID: "a"}}))
			err := broken.Start(ctx)

			Convey("Then Start fails with ErrLoadCatalog", func() {
				So(errors.Is(err, service.ErrLoadCatalog), ShouldBeTrue)
				So(errors.Is(err, job.ErrDuplicateID), ShouldBeTrue)
			})
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a started service over the built-in postings", t, func() {
		ctx := context.Background()
		svc := startService()
		defer stopService(svc)

		view, err := svc.CreateSession(ctx)
		So(err, ShouldBeNil)
		id := view.SessionID

		Convey("When a session is created", func() {
			Convey("Then it shows the best match with a two-card preview", func() {
				So(id, ShouldNotBeEmpty)
				So(view.Job.ID, ShouldEqual, "1")
				So(view.Cursor, ShouldEqual, 0)
				So(view.Total, ShouldEqual, 3)
				So(view.State, ShouldEqual, "idle")
				So(view.Opacity, ShouldEqual, 1.0)
				So(view.Preview, ShouldHaveLength, 2)
				So(view.Preview[0].ID, ShouldEqual, "3")
				So(svc.SessionCount(), ShouldEqual, 1)
			})
		})

		Convey("When dragging right past the threshold", func() {
			_, _ = svc.Begin(ctx, id)
			moved, _ := svc.Move(ctx, id, 250, card)
			res, err := svc.End(ctx, id)

			Convey("Then the drag feedback follows the offset", func() {
				So(moved.Outcome, ShouldEqual, "ignored")
				So(moved.View.Offset, ShouldEqual, 150.0)
				So(moved.View.State, ShouldEqual, "dragging")
				So(moved.View.Rotation, ShouldAlmostEqual, 15.0, 1e-9)
				So(moved.View.Opacity, ShouldAlmostEqual, 0.7, 1e-9)
			})

			Convey("Then an apply decision resolves and the cursor advances", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, "resolved")
				So(res.Decision.JobID, ShouldEqual, "1")
				So(res.Decision.Direction, ShouldEqual, "right")
				So(res.Decision.Action, ShouldEqual, "apply")
				So(res.View.Cursor, ShouldEqual, 1)
				So(res.View.Job.ID, ShouldEqual, "3")
				So(res.View.Offset, ShouldEqual, 0.0)
				So(res.View.State, ShouldEqual, "idle")
			})

			Convey("Then the pipeline records a sent application", func() {
				So(waitFor(func() bool {
					apps, _ := svc.Applications(ctx, model.StatusSent)
					return len(apps) == 1
				}), ShouldBeTrue)
				apps, _ := svc.Applications(ctx, "")
				So(apps[0].JobID, ShouldEqual, "1")
				So(apps[0].SessionID, ShouldEqual, id)
			})
		})

		Convey("When releasing below the threshold", func() {
			_, _ = svc.Begin(ctx, id)
			_, _ = svc.Move(ctx, id, 160, card)
			res, _ := svc.End(ctx, id)

			Convey("Then the card snaps back without a decision", func() {
				So(res.Outcome, ShouldEqual, "reset")
				So(res.Decision, ShouldBeNil)
				So(res.View.Cursor, ShouldEqual, 0)
				So(res.View.Offset, ShouldEqual, 0.0)
			})
		})

		Convey("When the pointer is released outside the card mid-drag", func() {
			_, _ = svc.Begin(ctx, id)
			_, _ = svc.Move(ctx, id, -100, card)
			res, _ := svc.Release(ctx, id)
			after, _ := svc.End(ctx, id)

			Convey("Then the interaction is abandoned and nothing resolves", func() {
				So(res.Outcome, ShouldEqual, "abandoned")
				So(res.View.Cursor, ShouldEqual, 0)
				So(res.View.Offset, ShouldEqual, 0.0)
				So(after.Outcome, ShouldEqual, "ignored")
				So(svc.GetStats()["decisionsEmitted"], ShouldEqual, int64(0))
			})
		})

		Convey("When a release arrives with no drag in progress", func() {
			res, _ := svc.Release(ctx, id)

			Convey("Then it is ignored", func() {
				So(res.Outcome, ShouldEqual, "ignored")
			})
		})

		Convey("When swiping with the buttons", func() {
			details, _ := svc.ToggleDetails(ctx, id)
			res, dup, err := svc.Swipe(ctx, id, swipe.Left, "req-1")
			again, dupAgain, _ := svc.Swipe(ctx, id, swipe.Left, "req-1")

			Convey("Then the first request resolves and collapses details", func() {
				So(details.Details, ShouldBeTrue)
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(res.Decision.Action, ShouldEqual, "pass")
				So(res.View.Details, ShouldBeFalse)
				So(res.View.Cursor, ShouldEqual, 1)
			})

			Convey("Then the retried request is a duplicate", func() {
				So(dupAgain, ShouldBeTrue)
				So(again.View.Cursor, ShouldEqual, 1)
			})

			Convey("Then the pass is counted", func() {
				So(waitFor(func() bool {
					stats, _ := svc.ApplicationStats(ctx)
					return stats.Passes == 1
				}), ShouldBeTrue)
			})
		})

		Convey("When cycling through every posting", func() {
			for i := 0; i < 3; i++ {
				_, _, _ = svc.Swipe(ctx, id, swipe.Left, "")
			}
			v, _ := svc.View(ctx, id)

			Convey("Then the cursor wraps to the start", func() {
				So(v.Cursor, ShouldEqual, 0)
				So(v.Job.ID, ShouldEqual, "1")
			})
		})

		Convey("When swiping in an invalid direction", func() {
			_, _, err := svc.Swipe(ctx, id, swipe.Direction("up"), "")

			Convey("Then ErrInvalidDirection is returned", func() {
				So(errors.Is(err, service.ErrInvalidDirection), ShouldBeTrue)
			})
		})

		Convey("When addressing an unknown session", func() {
			_, err := svc.View(ctx, "nope")
			_, _, swipeErr := svc.Swipe(ctx, "nope", swipe.Right, "req-x")
			closeErr := svc.CloseSession(ctx, "nope")

			Convey("Then ErrSessionNotFound is returned", func() {
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				So(errors.Is(swipeErr, service.ErrSessionNotFound), ShouldBeTrue)
				So(errors.Is(closeErr, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})

		Convey("When the session is closed", func() {
			So(svc.CloseSession(ctx, id), ShouldBeNil)
			_, err := svc.Begin(ctx, id)

			Convey("Then it is gone", func() {
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				So(svc.SessionCount(), ShouldEqual, 0)
			})
		})
	})
}

func TestService_Tracker(t *testing.T) {
	Convey("Given a service that recorded an application", t, func() {
		ctx := context.Background()
		svc := startService()
		defer stopService(svc)

		view, _ := svc.CreateSession(ctx)
		_, _, _ = svc.Swipe(ctx, view.SessionID, swipe.Right, "")
		So(waitFor(func() bool {
			apps, _ := svc.Applications(ctx, "")
			return len(apps) == 1
		}), ShouldBeTrue)
		apps, _ := svc.Applications(ctx, "")
		appID := apps[0].ID

		Convey("When moving it along the kanban", func() {
			moved, err := svc.AdvanceApplication(ctx, appID, model.StatusInterview)
			_, backErr := svc.AdvanceApplication(ctx, appID, model.StatusSent)
			_, missingErr := svc.AdvanceApplication(ctx, "missing", model.StatusOffer)
			got, _ := svc.Application(ctx, appID)
			stats, _ := svc.ApplicationStats(ctx)

			Convey("Then allowed moves apply and others are rejected", func() {
				So(err, ShouldBeNil)
				So(moved.Status, ShouldEqual, model.StatusInterview)
				So(got.Status, ShouldEqual, model.StatusInterview)
				So(errors.Is(backErr, service.ErrInvalidTransition), ShouldBeTrue)
				So(errors.Is(missingErr, service.ErrApplicationNotFound), ShouldBeTrue)
				So(stats.Total, ShouldEqual, 1)
				So(stats.ByStatus[model.StatusInterview], ShouldEqual, 1)
			})
		})
	})
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given a service with a tiny queue and slow tailoring", t, func() {
		ctx := context.Background()
		svc := startService(
			service.WithQueueSize(1),
			service.WithWorkerCount(1),
			service.WithTailoringLatencyRange(300*time.Millisecond, 300*time.Millisecond),
		)
		defer stopService(svc)
		view, _ := svc.CreateSession(ctx)

		Convey("When swiping faster than the pipeline drains", func() {
			start := time.Now()
			resolved := 0
			for i := 0; i < 6; i++ {
				res, _, _ := svc.Swipe(ctx, view.SessionID, swipe.Right, "")
				if res.Outcome == "resolved" {
					resolved++
				}
			}
			elapsed := time.Since(start)

			Convey("Then the surface never waits and excess decisions are dropped", func() {
				So(resolved, ShouldEqual, 6)
				So(elapsed, ShouldBeLessThan, 250*time.Millisecond)
				So(svc.GetStats()["decisionsDropped"], ShouldBeGreaterThan, int64(0))
			})
		})
	})
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestService_IdleEviction(t *testing.T) {
	Convey("Given a service with a one minute idle timeout", t, func() {
		ctx := context.Background()
		clk := &clock{now: time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)}
		svc := startService(service.WithSessionIdleTimeout(time.Minute), service.WithClock(clk.Now))
		defer stopService(svc)

		idle, _ := svc.CreateSession(ctx)
		busy, _ := svc.CreateSession(ctx)

		Convey("When only one session keeps being used", func() {
			clk.Advance(45 * time.Second)
			_, _ = svc.View(ctx, busy.SessionID)
			clk.Advance(30 * time.Second)
			evicted := svc.EvictIdle(clk.Now())

			Convey("Then only the idle one is closed", func() {
				So(evicted, ShouldEqual, 1)
				_, err := svc.View(ctx, idle.SessionID)
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				_, err = svc.View(ctx, busy.SessionID)
				So(err, ShouldBeNil)
				So(svc.GetStats()["sessionsEvicted"], ShouldEqual, int64(1))
			})
		})
	})
}
