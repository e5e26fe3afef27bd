package swipesim

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/sparkapply/pkg/logger"
)

// SetupLogging initializes the global logger to write to both stdout and
// logFile. An empty logFile gets a timestamped name.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		logFile = "swipe_sim_" + time.Now().Format("20060102_150405") + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the simulator.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`SparkApply Swipe Simulator
==========================

Drives a running service with seeded swipe sessions over both the button
endpoint and the gesture stream, then checks the tracker totals.

Usage:
  go run ./cmd/swipe-sim [options]

Options:
  -url string         Base URL of the service (default "http://localhost:9080")
  -sessions int       Number of swipe sessions (default 50)
  -swipes int         Decisions per session (default 20)
  -workers int        Sessions driven in parallel (default CPU cores * 2)
  -seed int           Plan seed; equal seeds replay equal plans (default 1)
  -apply float        Share of right swipes (default 0.4)
  -drag float         Share of decisions made by dragging (default 0.5)
  -tease float        Share of drags released short first (default 0.2)
  -repeat float       Share of button swipes re-sent (default 0.1)
  -timeout duration   Request timeout (default 10s)
  -settle duration    Time to wait for the tracker (default 30s)
  -output string      Write the generated plans to this JSON file
  -log string         Log file (default: swipe_sim_TIMESTAMP.log)
  -verbose            Enable debug logging
  -help               Show this help message

Examples:
  go run ./cmd/swipe-sim -sessions 200 -swipes 50 -seed 42
  go run ./cmd/swipe-sim -drag 1 -tease 0.5 -verbose
`)
}
