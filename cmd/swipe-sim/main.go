package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/sparkapply/internal/swipesim"
	"github.com/okian/sparkapply/pkg/logger"
)

// Default configuration constants.
const (
	defaultSessions      = 50
	defaultSwipes        = 20
	defaultWorkers       = 2 // multiplier for runtime.NumCPU()
	defaultApplyRatio    = 0.4
	defaultDragRatio     = 0.5
	defaultTeaseRatio    = 0.2
	defaultRepeatRatio   = 0.1
	defaultTimeout       = 10 * time.Second
	defaultSettleTimeout = 30 * time.Second
	defaultRunTimeout    = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		sessions = flag.Int("sessions", defaultSessions, "Number of swipe sessions")
		swipes   = flag.Int("swipes", defaultSwipes, "Decisions per session")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Sessions driven in parallel")
		seed     = flag.Int64("seed", 1, "Plan seed")
		apply    = flag.Float64("apply", defaultApplyRatio, "Share of right swipes")
		drag     = flag.Float64("drag", defaultDragRatio, "Share of decisions made by dragging")
		tease    = flag.Float64("tease", defaultTeaseRatio, "Share of drags released short first")
		repeat   = flag.Float64("repeat", defaultRepeatRatio, "Share of button swipes re-sent")
		timeout  = flag.Duration("timeout", defaultTimeout, "Request timeout")
		settle   = flag.Duration("settle", defaultSettleTimeout, "Time to wait for the tracker")
		output   = flag.String("output", "", "Write the generated plans to this JSON file")
		logFile  = flag.String("log", "", "Log file (default: swipe_sim_TIMESTAMP.log)")
		verbose  = flag.Bool("verbose", false, "Enable debug logging")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		swipesim.ShowHelp()
		return
	}

	if err := swipesim.SetupLogging(*logFile, *verbose); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &swipesim.Config{
		BaseURL:          *baseURL,
		Sessions:         *sessions,
		SwipesPerSession: *swipes,
		Workers:          *workers,
		Seed:             *seed,
		ApplyRatio:       *apply,
		DragRatio:        *drag,
		TeaseRatio:       *tease,
		RepeatRatio:      *repeat,
		Timeout:          *timeout,
		SettleTimeout:    *settle,
		OutputFile:       *output,
		LogFile:          *logFile,
		Verbose:          *verbose,
	}

	if _, err := swipesim.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		os.Exit(1)
	}
}
