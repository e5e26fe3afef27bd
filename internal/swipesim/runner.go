package swipesim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sparkapply/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	filePermission      = 0600
)

// counters are shared by the session workers.
type counters struct {
	sessionsCreated atomic.Int64
	sessionsFailed  atomic.Int64
	decisions       atomic.Int64
	accepted        atomic.Int64
	duplicates      atomic.Int64
	resets          atomic.Int64
	failed          atomic.Int64
}

// Run executes a complete simulation and returns its statistics.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	log := logger.Get().Named("swipesim")
	stats := &Stats{StartTime: time.Now()}

	log.Info(ctx, "starting swipe simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("sessions", config.Sessions),
		logger.Int("swipesPerSession", config.SwipesPerSession),
		logger.Int("workers", config.Workers),
		logger.Any("seed", config.Seed),
		logger.Duration("timeout", config.Timeout))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate plans
	plans := GeneratePlans(config)
	stats.Expected = Expect(plans)
	log.Info(ctx, "generated swipe plans",
		logger.Int("applies", stats.Expected.Applies),
		logger.Int("passes", stats.Expected.Passes),
		logger.Int("repeats", stats.Expected.Repeats),
		logger.Int("teases", stats.Expected.Teases))

	// Step 3: Record the tracker baseline
	baseline, err := client.TrackerStats(ctx)
	if err != nil {
		return stats, fmt.Errorf("baseline tracker stats: %w", err)
	}
	stats.Baseline = baseline

	// Step 4: Drive sessions concurrently
	c := &counters{}
	driveSessions(ctx, config, client, plans, c)
	stats.SessionsCreated = int(c.sessionsCreated.Load())
	stats.SessionsFailed = int(c.sessionsFailed.Load())
	stats.Decisions = int(c.decisions.Load())
	stats.Accepted = int(c.accepted.Load())
	stats.Duplicates = int(c.duplicates.Load())
	stats.Resets = int(c.resets.Load())
	stats.Failed = int(c.failed.Load())

	// Step 5: Wait for the submission workers to catch up
	final, err := waitForTracker(ctx, config, client, stats)
	stats.Final = final
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	// Step 6: Save plans to file
	if config.OutputFile != "" {
		if serr := savePlans(config.OutputFile, plans); serr != nil {
			log.Warn(ctx, "failed to save plans to file", logger.Error(serr))
		} else {
			log.Info(ctx, "plans saved to file", logger.String("filename", config.OutputFile))
		}
	}

	displayFinalStats(ctx, stats)
	if err != nil {
		return stats, err
	}

	// Step 7: Verify results
	if err := Verify(stats); err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}
	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

func driveSessions(ctx context.Context, config *Config, client *HTTPClient, plans []Plan, c *counters) {
	planChan := make(chan Plan, config.Workers*sessionChanFactor)
	var wg sync.WaitGroup

	workers := max(1, min(config.Workers, len(plans)))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for plan := range planChan {
				if err := runPlan(ctx, config, client, plan, c); err != nil {
					c.sessionsFailed.Add(1)
					logger.Get().Warn(ctx, "session failed", logger.Int("index", plan.Index), logger.Error(err))
				}
			}
		}()
	}

	go func() {
		defer close(planChan)
		for _, plan := range plans {
			select {
			case <-ctx.Done():
				return
			case planChan <- plan:
			}
		}
	}()

	wg.Wait()
}

// runPlan drives one session through its steps.
func runPlan(ctx context.Context, config *Config, client *HTTPClient, plan Plan, c *counters) error {
	view, err := client.CreateSession(ctx)
	if err != nil {
		return err
	}
	c.sessionsCreated.Add(1)
	defer func() {
		if err := client.CloseSession(context.WithoutCancel(ctx), view.SessionID); err != nil {
			logger.Get().Debug(ctx, "close session", logger.Error(err))
		}
	}()

	var stream *GestureClient
	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.decisions.Add(1)

		if step.Drag {
			if stream == nil {
				if stream, err = dialGesture(ctx, config.BaseURL, view.SessionID, config.Timeout); err != nil {
					c.failed.Add(1)
					return err
				}
				defer func() { _ = stream.Close() }()
			}
			if err := runDrag(stream, step, c); err != nil {
				c.failed.Add(1)
				return err
			}
			continue
		}

		if err := runButton(ctx, client, view.SessionID, step, c); err != nil {
			c.failed.Add(1)
			return err
		}
	}
	return nil
}

func runDrag(stream *GestureClient, step Step, c *counters) error {
	if step.Tease != 0 {
		outcome, decided, err := stream.Drag(step.Tease)
		if err != nil {
			return err
		}
		if decided || outcome != "reset" {
			return fmt.Errorf("%w: tease drag %.1f resolved as %q", errVerification, step.Tease, outcome)
		}
		c.resets.Add(1)
	}
	outcome, decided, err := stream.Drag(step.Offset)
	if err != nil {
		return err
	}
	if !decided || outcome != "resolved" {
		return fmt.Errorf("%w: drag %.1f ended as %q", errVerification, step.Offset, outcome)
	}
	c.accepted.Add(1)
	return nil
}

func runButton(ctx context.Context, client *HTTPClient, id string, step Step, c *counters) error {
	_, status, err := client.Swipe(ctx, id, step.Direction, step.RequestID)
	if err != nil {
		return err
	}
	if status != http.StatusAccepted {
		return fmt.Errorf("%w: swipe answered %d", ErrUnexpectedStatus, status)
	}
	c.accepted.Add(1)

	if step.Repeat {
		ack, status, err := client.Swipe(ctx, id, step.Direction, step.RequestID)
		if err != nil {
			return err
		}
		if status != http.StatusOK || !ack.Duplicate {
			return fmt.Errorf("%w: repeated request %s was applied again", errVerification, step.RequestID)
		}
		c.duplicates.Add(1)
	}
	return nil
}

// waitForTracker polls the tracker until it holds the expected totals or
// the settle timeout passes.
func waitForTracker(ctx context.Context, config *Config, client *HTTPClient, stats *Stats) (TrackerStats, error) {
	logger.Get().Info(ctx, "waiting for decisions to be processed")
	deadline := time.Now().Add(config.SettleTimeout)
	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()

	for {
		current, err := client.TrackerStats(ctx)
		if err != nil {
			return current, err
		}
		if settled(stats, current) || time.Now().After(deadline) {
			return current, nil
		}
		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-ticker.C:
		}
	}
}

func settled(stats *Stats, current TrackerStats) bool {
	return current.Total-stats.Baseline.Total >= stats.Expected.Applies &&
		current.Passes-stats.Baseline.Passes >= stats.Expected.Passes
}

// savePlans writes plans as indented JSON.
func savePlans(filename string, plans []Plan) error {
	if len(plans) == 0 {
		return errors.New("no plans to save")
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(plans, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plans: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write plans: %w", err)
	}
	return nil
}

// displayFinalStats logs the final simulation statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, decisionsPerSecond float64
	if stats.Decisions > 0 {
		successRate = float64(stats.Accepted) / float64(stats.Decisions) * percentageMultiplier
	}
	if stats.Duration > 0 {
		decisionsPerSecond = float64(stats.Decisions) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.Int("sessionsCreated", stats.SessionsCreated),
		logger.Int("sessionsFailed", stats.SessionsFailed),
		logger.Int("decisions", stats.Decisions),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("resets", stats.Resets),
		logger.Int("failed", stats.Failed),
		logger.Int("applicationsGained", stats.Final.Total-stats.Baseline.Total),
		logger.Int("passesGained", stats.Final.Passes-stats.Baseline.Passes),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("decisionsPerSecond", decisionsPerSecond))
}
