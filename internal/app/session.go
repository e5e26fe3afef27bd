package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sparkapply/internal/domain/dedupe"
	"github.com/okian/sparkapply/internal/domain/job"
	"github.com/okian/sparkapply/internal/domain/swipe"
	"github.com/okian/sparkapply/internal/domain/types"
	"github.com/okian/sparkapply/pkg/logger"
	"github.com/okian/sparkapply/pkg/metrics"
)

// session is one client's swipe surface with its own release bus. All
// surface access happens under mu.
type session struct {
	mu       sync.Mutex
	id       string
	surface  *swipe.Surface
	bus      *swipe.ReleaseBus
	lastSeen time.Time
	last     swipe.Result
	closed   bool
}

func (sess *session) close() {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return
	}
	sess.surface.Close()
	sess.closed = true
}

func (sess *session) viewLocked(depth int) types.CardView {
	v := types.CardView{
		SessionID: sess.id,
		Cursor:    sess.surface.Cursor(),
		Total:     sess.surface.Len(),
		State:     sess.surface.State().String(),
		Offset:    sess.surface.Offset(),
		Rotation:  sess.surface.Rotation(),
		Opacity:   sess.surface.Opacity(),
		Details:   sess.surface.DetailsExpanded(),
		Preview:   sess.surface.Preview(depth),
	}
	if current, ok := sess.surface.Current(); ok {
		v.Job = &current
	}
	if v.Preview == nil {
		v.Preview = []job.Job{}
	}
	return v
}

// CreateSession opens a new surface positioned on the best-ranked posting.
func (s *Service) CreateSession(ctx context.Context) (types.CardView, error) {
	s.mu.RLock()
	started, jobs := s.started, s.jobs
	s.mu.RUnlock()
	if !started {
		return types.CardView{}, ErrNotStarted
	}

	sess := &session{
		id:       uuid.NewString(),
		bus:      swipe.NewReleaseBus(),
		lastSeen: s.now(),
	}
	opts := append([]swipe.Option{}, s.surfaceOpts...)
	opts = append(opts,
		swipe.WithReleaseBus(sess.bus),
		swipe.WithOutcomeHook(func(r swipe.Result) {
			// runs under sess.mu, inside the surface call that produced r
			sess.last = r
			metrics.RecordGesture(string(r.Outcome))
		}),
	)
	id := sess.id
	sess.surface = swipe.New(jobs, func(jobID string, dir swipe.Direction) {
		s.submit(id, jobID, dir)
	}, opts...)

	s.sessMu.Lock()
	s.sessions[sess.id] = sess
	active := len(s.sessions)
	s.sessMu.Unlock()

	s.sessionsCreated.Add(1)
	metrics.RecordSessionCreated()
	metrics.UpdateSessionsActive(active)
	s.logger.Debug(ctx, "session created", logger.String("sessionID", sess.id))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.viewLocked(s.previewDepth), nil
}

// View returns the current card view of a session.
func (s *Service) View(_ context.Context, id string) (types.CardView, error) {
	var v types.CardView
	err := s.withSession(id, func(sess *session) {
		v = sess.viewLocked(s.previewDepth)
	})
	return v, err
}

// Begin starts a drag.
func (s *Service) Begin(_ context.Context, id string) (types.GestureResult, error) {
	return s.gesture(id, func(sess *session) {
		sess.surface.Begin()
	})
}

// Move reports the pointer position during a drag.
func (s *Service) Move(_ context.Context, id string, pointerX float64, card swipe.Card) (types.GestureResult, error) {
	return s.gesture(id, func(sess *session) {
		sess.surface.Update(pointerX, card)
	})
}

// End releases the pointer on the card: resolve or reset.
func (s *Service) End(_ context.Context, id string) (types.GestureResult, error) {
	return s.gesture(id, func(sess *session) {
		sess.surface.End()
	})
}

// Release publishes a global pointer release for the session, abandoning
// any drag in progress.
func (s *Service) Release(_ context.Context, id string) (types.GestureResult, error) {
	return s.gesture(id, func(sess *session) {
		sess.bus.Release()
	})
}

// Swipe resolves the current card in dir, as the pass/apply buttons do. A
// non-empty requestID already seen for this session is not applied again and
// reports duplicate.
func (s *Service) Swipe(ctx context.Context, id string, dir swipe.Direction, requestID string) (types.GestureResult, bool, error) {
	if !dir.Valid() {
		return types.GestureResult{}, false, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	deduper, err := s.dedupe()
	if err != nil {
		return types.GestureResult{}, false, err
	}

	key := ""
	if requestID != "" {
		key = id + "/" + requestID
		if deduper.SeenAndRecord(ctx, key) {
			metrics.RecordDuplicateRequest()
			v, err := s.View(ctx, id)
			if err != nil {
				deduper.Unrecord(ctx, key)
				return types.GestureResult{}, false, err
			}
			return types.GestureResult{Outcome: string(swipe.OutcomeIgnored), View: v}, true, nil
		}
	}

	res, err := s.gesture(id, func(sess *session) {
		sess.surface.Swipe(dir)
	})
	if err != nil && key != "" {
		deduper.Unrecord(ctx, key)
	}
	return res, false, err
}

// ToggleDetails expands or collapses the detail view of the current card.
func (s *Service) ToggleDetails(_ context.Context, id string) (types.CardView, error) {
	var v types.CardView
	err := s.withSession(id, func(sess *session) {
		sess.surface.ToggleDetails()
		v = sess.viewLocked(s.previewDepth)
	})
	return v, err
}

// CloseSession tears a session down; its surface ignores everything afterwards.
func (s *Service) CloseSession(ctx context.Context, id string) error {
	s.sessMu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	active := len(s.sessions)
	s.sessMu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	sess.close()
	metrics.UpdateSessionsActive(active)
	s.logger.Debug(ctx, "session closed", logger.String("sessionID", id))
	return nil
}

// EvictIdle closes sessions last used before now minus the idle timeout.
func (s *Service) EvictIdle(now time.Time) int {
	if s.idleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTimeout)

	var idle []*session
	s.sessMu.Lock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		stale := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if stale {
			idle = append(idle, sess)
			delete(s.sessions, id)
		}
	}
	active := len(s.sessions)
	s.sessMu.Unlock()

	for _, sess := range idle {
		sess.close()
		s.sessionsEvicted.Add(1)
		metrics.RecordSessionEvicted()
	}
	metrics.UpdateSessionsActive(active)
	return len(idle)
}

// SessionCount returns the number of open sessions.
func (s *Service) SessionCount() int {
	s.sessMu.RLock()
	defer s.sessMu.RUnlock()
	return len(s.sessions)
}

func (s *Service) dedupe() (dedupe.Deduper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.deduper, nil
}

func (s *Service) lookup(id string) (*session, error) {
	s.sessMu.RLock()
	sess, ok := s.sessions[id]
	s.sessMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// withSession runs fn under the session lock and marks the session as used.
func (s *Service) withSession(id string, fn func(sess *session)) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess.lastSeen = s.now()
	fn(sess)
	return nil
}

// gesture runs step and reports the outcome it produced together with the
// resulting view. Steps that do not finish an interaction report "ignored".
func (s *Service) gesture(id string, step func(sess *session)) (types.GestureResult, error) {
	var res types.GestureResult
	err := s.withSession(id, func(sess *session) {
		sess.last = swipe.Result{Outcome: swipe.OutcomeIgnored}
		step(sess)

		res.Outcome = string(sess.last.Outcome)
		if sess.last.Outcome == swipe.OutcomeResolved {
			d := sess.last.Decision
			res.Decision = &types.DecisionView{
				JobID:     d.JobID,
				Direction: string(d.Direction),
				Action:    d.Direction.Action(),
			}
		}
		res.View = sess.viewLocked(s.previewDepth)
	})
	return res, err
}
