package swipesim

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// gestureFrame mirrors the frames the gesture stream sends back.
type gestureFrame struct {
	Type     string    `json:"type"`
	Outcome  string    `json:"outcome"`
	Decision *struct{} `json:"decision"`
	View     *CardView `json:"view"`
	Error    string    `json:"error"`
}

// GestureClient drives one session's gesture stream.
type GestureClient struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// dialGesture opens GET /sessions/{id}/ws and consumes the initial view.
func dialGesture(ctx context.Context, baseURL, id string, timeout time.Duration) (*GestureClient, error) {
	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/sessions/" + id + "/ws"
	dialer := websocket.Dialer{HandshakeTimeout: timeout}
	conn, resp, err := dialer.DialContext(ctx, url, http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial gesture stream: %w", err)
	}

	g := &GestureClient{conn: conn, timeout: timeout}
	if _, err := g.read(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return g, nil
}

// Close ends the stream politely.
func (g *GestureClient) Close() error {
	_ = g.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(g.timeout))
	return g.conn.Close()
}

func (g *GestureClient) read() (gestureFrame, error) {
	_ = g.conn.SetReadDeadline(time.Now().Add(g.timeout))
	var f gestureFrame
	if err := g.conn.ReadJSON(&f); err != nil {
		return f, fmt.Errorf("read frame: %w", err)
	}
	if f.Type == "error" {
		return f, fmt.Errorf("%w: %s", ErrUnexpectedStatus, f.Error)
	}
	return f, nil
}

// send writes one frame and reads the answer, skipping a leading decision frame.
func (g *GestureClient) send(v map[string]any) (gestureFrame, bool, error) {
	_ = g.conn.SetWriteDeadline(time.Now().Add(g.timeout))
	if err := g.conn.WriteJSON(v); err != nil {
		return gestureFrame{}, false, fmt.Errorf("write frame: %w", err)
	}
	f, err := g.read()
	if err != nil {
		return f, false, err
	}
	if f.Type != "decision" {
		return f, false, nil
	}
	f, err = g.read()
	return f, true, err
}

// Drag performs begin, move to offset from the card center, end. It
// returns the outcome and whether a decision frame was seen.
func (g *GestureClient) Drag(offset float64) (string, bool, error) {
	if _, _, err := g.send(map[string]any{"type": "begin"}); err != nil {
		return "", false, err
	}
	x := cardLeft + cardWidth/2 + offset
	if _, _, err := g.send(map[string]any{"type": "move", "x": x, "card_left": cardLeft, "card_width": cardWidth}); err != nil {
		return "", false, err
	}
	f, decided, err := g.send(map[string]any{"type": "end"})
	if err != nil {
		return "", false, err
	}
	return f.Outcome, decided, nil
}
