package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/sparkapply/internal/adapters/http/ws"
	service "github.com/okian/sparkapply/internal/app"
	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/internal/domain/types"
	"github.com/okian/sparkapply/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// serverFrame mirrors the frames the server emits.
type serverFrame struct {
	Type        string              `json:"type"`
	Outcome     string              `json:"outcome"`
	Duplicate   bool                `json:"duplicate"`
	Decision    *types.DecisionView `json:"decision"`
	View        *types.CardView     `json:"view"`
	Application *model.Application  `json:"application"`
	Error       string              `json:"error"`
}

type fixture struct {
	svc    *service.Service
	hub    *ws.Hub
	server *httptest.Server
	cancel context.CancelFunc
}

func newFixture() *fixture {
	ctx, cancel := context.WithCancel(context.Background())
	hub := ws.NewHub()
	go hub.Run(ctx)

	svc := service.New(
		service.WithWorkerCount(1),
		service.WithTailoringLatencyRange(0, 0),
		service.WithNotifier(hub),
	)
	So(svc.Start(ctx), ShouldBeNil)

	mux := http.NewServeMux()
	mux.Handle("GET /sessions/{id}/ws", ws.NewGestureHandler(svc, ws.WithPingInterval(time.Second)))
	mux.HandleFunc("GET /applications/ws", hub.ServeFeed)

	return &fixture{svc: svc, hub: hub, server: httptest.NewServer(mux), cancel: cancel}
}

func (f *fixture) close() {
	f.server.Close()
	stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = f.svc.Stop(stopCtx)
	f.cancel()
}

func (f *fixture) dial(path string) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + path
	return websocket.DefaultDialer.Dial(url, nil)
}

func read(conn *websocket.Conn) serverFrame {
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var f serverFrame
	So(conn.ReadJSON(&f), ShouldBeNil)
	return f
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

func TestGestureHandler(t *testing.T) {
	Convey("Given a running service with websocket routes", t, func() {
		f := newFixture()
		defer f.close()
		ctx := context.Background()

		Convey("When dialing an unknown session", func() {
			_, resp, err := f.dial("/sessions/nope/ws")

			Convey("Then the upgrade is refused with 404", func() {
				So(err, ShouldNotBeNil)
				So(resp, ShouldNotBeNil)
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When streaming a drag past the threshold", func() {
			view, err := f.svc.CreateSession(ctx)
			So(err, ShouldBeNil)
			conn, _, err := f.dial("/sessions/" + view.SessionID + "/ws")
			So(err, ShouldBeNil)
			defer conn.Close()

			initial := read(conn)
			So(initial.Type, ShouldEqual, "view")
			So(initial.View.Job.ID, ShouldEqual, "1")

			So(conn.WriteJSON(map[string]any{"type": "begin"}), ShouldBeNil)
			begun := read(conn)
			So(conn.WriteJSON(map[string]any{"type": "move", "x": 400, "card_left": 0, "card_width": 200}), ShouldBeNil)
			moved := read(conn)
			So(conn.WriteJSON(map[string]any{"type": "end"}), ShouldBeNil)
			decision := read(conn)
			after := read(conn)

			Convey("Then the offset is clamped and the card resolves right", func() {
				So(begun.View.State, ShouldEqual, "dragging")
				So(moved.View.Offset, ShouldEqual, 200.0)
				So(moved.View.Rotation, ShouldEqual, 20.0)
				So(moved.View.Opacity, ShouldEqual, 0.7)
				So(decision.Type, ShouldEqual, "decision")
				So(decision.Decision.JobID, ShouldEqual, "1")
				So(decision.Decision.Action, ShouldEqual, "apply")
				So(after.Type, ShouldEqual, "view")
				So(after.Outcome, ShouldEqual, "resolved")
				So(after.View.Cursor, ShouldEqual, 1)
				So(after.View.Offset, ShouldEqual, 0.0)
			})
		})

		Convey("When a drag ends below the threshold", func() {
			view, _ := f.svc.CreateSession(ctx)
			conn, _, err := f.dial("/sessions/" + view.SessionID + "/ws")
			So(err, ShouldBeNil)
			defer conn.Close()
			read(conn)

			So(conn.WriteJSON(map[string]any{"type": "begin"}), ShouldBeNil)
			read(conn)
			So(conn.WriteJSON(map[string]any{"type": "move", "x": 200, "card_left": 0, "card_width": 200}), ShouldBeNil)
			read(conn)
			So(conn.WriteJSON(map[string]any{"type": "end"}), ShouldBeNil)
			reset := read(conn)

			Convey("Then it snaps back without a decision", func() {
				So(reset.Type, ShouldEqual, "view")
				So(reset.Outcome, ShouldEqual, "reset")
				So(reset.View.Cursor, ShouldEqual, 0)
			})
		})

		Convey("When the client sends a release frame mid-drag", func() {
			view, _ := f.svc.CreateSession(ctx)
			conn, _, err := f.dial("/sessions/" + view.SessionID + "/ws")
			So(err, ShouldBeNil)
			defer conn.Close()
			read(conn)

			So(conn.WriteJSON(map[string]any{"type": "begin"}), ShouldBeNil)
			read(conn)
			So(conn.WriteJSON(map[string]any{"type": "move", "x": 350, "card_left": 0, "card_width": 200}), ShouldBeNil)
			read(conn)
			So(conn.WriteJSON(map[string]any{"type": "release"}), ShouldBeNil)
			abandoned := read(conn)

			Convey("Then the drag is abandoned", func() {
				So(abandoned.Outcome, ShouldEqual, "abandoned")
				So(abandoned.View.State, ShouldEqual, "idle")
				So(abandoned.View.Cursor, ShouldEqual, 0)
			})
		})

		Convey("When the client disconnects mid-drag", func() {
			view, _ := f.svc.CreateSession(ctx)
			conn, _, err := f.dial("/sessions/" + view.SessionID + "/ws")
			So(err, ShouldBeNil)
			read(conn)
			So(conn.WriteJSON(map[string]any{"type": "begin"}), ShouldBeNil)
			read(conn)
			So(conn.Close(), ShouldBeNil)

			Convey("Then the server abandons the drag", func() {
				So(waitFor(func() bool {
					v, err := f.svc.View(ctx, view.SessionID)
					return err == nil && v.State == "idle"
				}), ShouldBeTrue)
			})
		})

		Convey("When sending buttons and details over the stream", func() {
			view, _ := f.svc.CreateSession(ctx)
			conn, _, err := f.dial("/sessions/" + view.SessionID + "/ws")
			So(err, ShouldBeNil)
			defer conn.Close()
			read(conn)

			So(conn.WriteJSON(map[string]any{"type": "details"}), ShouldBeNil)
			details := read(conn)
			So(conn.WriteJSON(map[string]any{"type": "swipe", "direction": "left", "request_id": "r1"}), ShouldBeNil)
			decision := read(conn)
			read(conn)
			So(conn.WriteJSON(map[string]any{"type": "swipe", "direction": "left", "request_id": "r1"}), ShouldBeNil)
			dup := read(conn)
			So(conn.WriteJSON(map[string]any{"type": "swipe", "direction": "up"}), ShouldBeNil)
			bad := read(conn)
			So(conn.WriteJSON(map[string]any{"type": "wiggle"}), ShouldBeNil)
			unknown := read(conn)
			So(conn.WriteMessage(websocket.TextMessage, []byte("{")), ShouldBeNil)
			malformed := read(conn)
			So(conn.WriteJSON(map[string]any{"type": "details"}), ShouldBeNil)
			stillOpen := read(conn)

			Convey("Then each frame gets its answer", func() {
				So(details.View.Details, ShouldBeTrue)
				So(decision.Decision.Action, ShouldEqual, "pass")
				So(dup.Type, ShouldEqual, "view")
				So(dup.Duplicate, ShouldBeTrue)
				So(dup.View.Cursor, ShouldEqual, 1)
				So(bad.Type, ShouldEqual, "error")
				So(unknown.Type, ShouldEqual, "error")
				So(malformed.Type, ShouldEqual, "error")
				So(stillOpen.Type, ShouldEqual, "view")
			})
		})

		Convey("When the session is closed while streaming", func() {
			view, _ := f.svc.CreateSession(ctx)
			conn, _, err := f.dial("/sessions/" + view.SessionID + "/ws")
			So(err, ShouldBeNil)
			defer conn.Close()
			read(conn)
			So(f.svc.CloseSession(ctx, view.SessionID), ShouldBeNil)

			So(conn.WriteJSON(map[string]any{"type": "begin"}), ShouldBeNil)
			errFrame := read(conn)

			Convey("Then the server reports it and closes the stream", func() {
				So(errFrame.Type, ShouldEqual, "error")
				_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
				_, _, err := conn.ReadMessage()
				So(websocket.IsCloseError(err, websocket.CloseNormalClosure), ShouldBeTrue)
			})
		})
	})
}

func TestHubFeed(t *testing.T) {
	Convey("Given a feed client connected to the hub", t, func() {
		f := newFixture()
		defer f.close()
		ctx := context.Background()

		feed, _, err := f.dial("/applications/ws")
		So(err, ShouldBeNil)
		defer feed.Close()
		So(waitFor(func() bool { return f.hub.ClientCount() == 1 }), ShouldBeTrue)

		Convey("When a card is swiped right", func() {
			view, _ := f.svc.CreateSession(ctx)
			_, _, err := f.svc.Swipe(ctx, view.SessionID, "right", "")
			So(err, ShouldBeNil)
			msg := read(feed)

			Convey("Then the recorded application is broadcast", func() {
				So(msg.Type, ShouldEqual, "application")
				So(msg.Application, ShouldNotBeNil)
				So(msg.Application.JobID, ShouldEqual, "1")
				So(msg.Application.Status, ShouldEqual, model.StatusSent)
			})
		})

		Convey("When the application is advanced", func() {
			view, _ := f.svc.CreateSession(ctx)
			_, _, _ = f.svc.Swipe(ctx, view.SessionID, "right", "")
			first := read(feed)
			_, err := f.svc.AdvanceApplication(ctx, first.Application.ID, model.StatusInterview)
			So(err, ShouldBeNil)
			next := read(feed)

			Convey("Then the change is broadcast too", func() {
				So(next.Application.ID, ShouldEqual, first.Application.ID)
				So(next.Application.Status, ShouldEqual, model.StatusInterview)
			})
		})

		Convey("When the feed client goes away", func() {
			So(feed.Close(), ShouldBeNil)

			Convey("Then the hub forgets it", func() {
				So(waitFor(func() bool { return f.hub.ClientCount() == 0 }), ShouldBeTrue)
			})
		})
	})
}
