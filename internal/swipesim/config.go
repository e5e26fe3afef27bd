// Package swipesim drives a running SparkApply service with a seeded
// population of swipe sessions and checks that the tracker ends up with
// exactly the decisions that were made.
package swipesim

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL          string        // Base URL of the service
	Sessions         int           // Number of concurrent swipe sessions
	SwipesPerSession int           // Decisions made by every session
	Workers          int           // Sessions driven in parallel
	Seed             int64         // Seed for the swipe plan; equal seeds give equal plans
	ApplyRatio       float64       // Share of decisions that are right swipes
	DragRatio        float64       // Share of decisions made by dragging over the gesture stream
	TeaseRatio       float64       // Share of drags released below the threshold before resolving
	RepeatRatio      float64       // Share of button swipes re-sent with the same request id
	Timeout          time.Duration // HTTP request timeout
	SettleTimeout    time.Duration // How long to wait for the tracker to catch up
	OutputFile       string        // Output file for the generated plan
	LogFile          string        // Log file for simulation output
	Verbose          bool          // Enable verbose logging
}

// Step is one decision a simulated user makes.
type Step struct {
	Direction string  `json:"direction"`
	Drag      bool    `json:"drag"`
	Offset    float64 `json:"offset,omitempty"` // signed pointer offset from the card center
	Tease     float64 `json:"tease,omitempty"`  // sub-threshold offset tried first
	RequestID string  `json:"request_id,omitempty"`
	Repeat    bool    `json:"repeat,omitempty"`
}

// Plan is the scripted behavior of one session.
type Plan struct {
	Index int    `json:"index"`
	Steps []Step `json:"steps"`
}

// CardView is the subset of the server's card view the simulator reads.
type CardView struct {
	SessionID string  `json:"session_id"`
	Cursor    int     `json:"cursor"`
	Total     int     `json:"total"`
	State     string  `json:"state"`
	Offset    float64 `json:"offset"`
}

// SwipeResponse is the server's answer to a button swipe.
type SwipeResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// TrackerStats mirrors GET /applications/stats.
type TrackerStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	Passes   int            `json:"passes"`
}

// Expectation is what the tracker must gain from a plan.
type Expectation struct {
	Applies int
	Passes  int
	Repeats int
	Teases  int
}

// Stats holds simulation statistics.
type Stats struct {
	SessionsCreated int
	SessionsFailed  int
	Decisions       int
	Accepted        int
	Duplicates      int
	Resets          int
	Failed          int
	Expected        Expectation
	Baseline        TrackerStats
	Final           TrackerStats
	StartTime       time.Time
	EndTime         time.Time
	Duration        time.Duration
}
