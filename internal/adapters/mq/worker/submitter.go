package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/sparkapply/internal/domain/job"
	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/internal/domain/swipe"
	"github.com/okian/sparkapply/internal/domain/tailoring"
	"github.com/okian/sparkapply/pkg/logger"
	"github.com/okian/sparkapply/pkg/metrics"
)

// JobIndex resolves the posting a decision refers to.
type JobIndex interface {
	Lookup(id string) (job.Job, bool)
}

// Tracker records the outcome of a decision.
type Tracker interface {
	Apply(ctx context.Context, app model.Application) (model.Application, error)
	Pass(ctx context.Context, jobID string) error
}

// Notifier receives every application the submitter records.
type Notifier interface {
	ApplicationRecorded(app model.Application)
}

// Submitter is the Handler that turns decisions into tracker entries: an
// apply is tailored first and stored as sent, a pass is only counted.
type Submitter struct {
	jobs     JobIndex
	tailor   tailoring.Tailor
	tracker  Tracker
	notifier Notifier
	logger   logger.Logger
}

var _ Handler = (*Submitter)(nil)

// NewSubmitter wires a submitter over its collaborators.
func NewSubmitter(jobs JobIndex, tailor tailoring.Tailor, tracker Tracker, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		jobs:    jobs,
		tailor:  tailor,
		tracker: tracker,
		logger:  logger.Get().Named("submitter"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle implements Handler.
func (s *Submitter) Handle(ctx context.Context, d model.Decision) error {
	switch d.Direction {
	case swipe.Right:
		return s.apply(ctx, d)
	case swipe.Left:
		if err := s.tracker.Pass(ctx, d.JobID); err != nil {
			return fmt.Errorf("record pass for job %s: %w", d.JobID, err)
		}
		s.logger.Debug(ctx, "pass recorded", logger.String("jobID", d.JobID), logger.String("sessionID", d.SessionID))
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDirection, d.Direction)
	}
}

func (s *Submitter) apply(ctx context.Context, d model.Decision) error {
	j, ok := s.jobs.Lookup(d.JobID)
	if !ok {
		metrics.RecordErrorByComponent("submitter", "unknown_job")
		return fmt.Errorf("%w: %s", ErrUnknownJob, d.JobID)
	}

	start := time.Now()
	res, err := s.tailor.Tailor(ctx, j)
	metrics.RecordTailoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordTailoringError()
		metrics.RecordErrorByComponent("submitter", "tailoring_error")
		return fmt.Errorf("tailor job %s: %w", j.ID, err)
	}

	app, err := s.tracker.Apply(ctx, model.Application{
		DecisionID: d.ID,
		SessionID:  d.SessionID,
		JobID:      j.ID,
		JobTitle:   j.Title,
		Company:    j.Company,
		Location:   j.Location,
		Salary:     j.Salary,
		Status:     model.StatusSent,
		MatchScore: res.MatchScore,
		Notes:      res.Headline,
		Highlights: res.Highlights,
		AppliedAt:  d.At,
	})
	if err != nil {
		metrics.RecordErrorByComponent("submitter", "tracker_error")
		return fmt.Errorf("record application for job %s: %w", j.ID, err)
	}

	s.logger.Info(ctx, "application sent",
		logger.String("applicationID", app.ID),
		logger.String("jobID", app.JobID),
		logger.String("sessionID", app.SessionID),
	)
	if s.notifier != nil {
		s.notifier.ApplicationRecorded(app)
	}
	return nil
}
