package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	service "github.com/okian/sparkapply/internal/app"
	"github.com/okian/sparkapply/internal/domain/swipe"
	"github.com/okian/sparkapply/internal/domain/types"
	"github.com/okian/sparkapply/pkg/logger"
	"github.com/okian/sparkapply/pkg/metrics"
)

// GestureService is the session surface driven by a gesture stream.
type GestureService interface {
	View(ctx context.Context, id string) (types.CardView, error)
	Begin(ctx context.Context, id string) (types.GestureResult, error)
	Move(ctx context.Context, id string, pointerX float64, card swipe.Card) (types.GestureResult, error)
	End(ctx context.Context, id string) (types.GestureResult, error)
	Release(ctx context.Context, id string) (types.GestureResult, error)
	Swipe(ctx context.Context, id string, dir swipe.Direction, requestID string) (types.GestureResult, bool, error)
	ToggleDetails(ctx context.Context, id string) (types.CardView, error)
}

// GestureHandler streams pointer events for one session. Every inbound
// frame is answered with a view frame, preceded by a decision frame when
// the step resolved the card. A dropped connection counts as a release
// outside the card.
type GestureHandler struct {
	svc          GestureService
	logger       logger.Logger
	pingInterval time.Duration
}

// NewGestureHandler creates a gesture handler over svc.
func NewGestureHandler(svc GestureService, opts ...GestureOption) *GestureHandler {
	g := &GestureHandler{
		svc:          svc,
		logger:       logger.Get().Named("ws_gesture"),
		pingInterval: pingPeriod,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ServeHTTP handles GET /sessions/{id}/ws.
func (g *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	view, err := g.svc.View(r.Context(), id)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			status = http.StatusNotFound
		case errors.Is(err, service.ErrNotStarted):
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warn(r.Context(), "gesture upgrade failed", logger.Error(err))
		return
	}
	metrics.AddWSConnections(1)

	// keep request values, drop its cancellation
	ctx := context.WithoutCancel(r.Context())
	g.stream(ctx, conn, id, view)
}

func (g *GestureHandler) stream(ctx context.Context, conn *websocket.Conn, id string, view types.CardView) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	defer func() {
		close(done)
		wg.Wait()
		_ = conn.Close()
		metrics.AddWSConnections(-1)
		if _, err := g.svc.Release(ctx, id); err != nil && !errors.Is(err, service.ErrSessionNotFound) {
			g.logger.Warn(ctx, "release on disconnect", logger.String("session_id", id), logger.Error(err))
		}
	}()

	wait := 2 * g.pingInterval
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(g.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	if err := g.write(conn, frame{Type: frameView, View: &view}); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				g.logger.Debug(ctx, "gesture stream ended", logger.String("session_id", id), logger.Error(err))
			}
			return
		}
		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			if werr := g.write(conn, frame{Type: frameError, Error: "malformed frame: " + err.Error()}); werr != nil {
				return
			}
			continue
		}
		out, err := g.dispatch(ctx, id, in)
		for _, f := range out {
			if werr := g.write(conn, f); werr != nil {
				return
			}
		}
		if errors.Is(err, service.ErrSessionNotFound) {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
				time.Now().Add(writeWait))
			return
		}
	}
}

// dispatch applies one inbound frame. Service errors are reported to the
// peer as an error frame and returned.
func (g *GestureHandler) dispatch(ctx context.Context, id string, in inbound) ([]frame, error) {
	var (
		res       types.GestureResult
		duplicate bool
		err       error
	)
	switch in.Type {
	case frameBegin:
		res, err = g.svc.Begin(ctx, id)
	case frameMove:
		res, err = g.svc.Move(ctx, id, in.X, swipe.Card{Left: in.CardLeft, Width: in.CardWidth})
	case frameEnd:
		res, err = g.svc.End(ctx, id)
	case frameRelease:
		res, err = g.svc.Release(ctx, id)
	case frameSwipe:
		dir, ok := swipe.ParseDirection(in.Direction)
		if !ok {
			return []frame{{Type: frameError, Error: "unknown direction: " + in.Direction}}, nil
		}
		res, duplicate, err = g.svc.Swipe(ctx, id, dir, in.RequestID)
	case frameDetails:
		var view types.CardView
		if view, err = g.svc.ToggleDetails(ctx, id); err == nil {
			return []frame{{Type: frameView, View: &view}}, nil
		}
	default:
		return []frame{{Type: frameError, Error: "unknown frame type: " + in.Type}}, nil
	}
	if err != nil {
		return []frame{{Type: frameError, Error: err.Error()}}, err
	}

	out := make([]frame, 0, 2)
	if res.Decision != nil && !duplicate {
		out = append(out, frame{Type: frameDecision, Decision: res.Decision})
	}
	view := res.View
	out = append(out, frame{Type: frameView, Outcome: res.Outcome, Duplicate: duplicate, View: &view})
	return out, nil
}

func (g *GestureHandler) write(conn *websocket.Conn, f frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(f)
}
