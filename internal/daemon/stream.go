package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"quill/internal/api"
	"quill/internal/broadcast"
	"quill/internal/logging"
)

const (
	heartbeatInterval = 15 * time.Second
	wsWriteTimeout    = 10 * time.Second
)

// eventSink writes one event, or a heartbeat when evt is nil.
type eventSink interface {
	send(evt *api.Event) error
	end() error
}

// pump forwards subscription batches to sink until the terminal event has
// been delivered, the client goes away, or ctx ends.
func (s *apiServer) pump(ctx context.Context, sub *broadcast.Subscription, sink eventSink) {
	defer s.daemon.workflow.Unsubscribe(sub)
	logger := logging.WithContext(ctx, s.logger)

	for {
		waitCtx, cancel := context.WithTimeout(ctx, s.keepalive())
		events, err := sub.Next(waitCtx)
		cancel()
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			_ = sink.end()
			return
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			if err := sink.send(nil); err != nil {
				return
			}
			s.daemon.workflow.Touch(sub.SessionID())
			continue
		default:
			if ctx.Err() == nil {
				logger.Debug("stream ended", logging.Error(err))
			}
			return
		}

		for _, evt := range events {
			dto, err := api.FromEvent(evt)
			if err != nil {
				logger.Error("encode stream event", logging.Error(err), logging.Uint64("seq", evt.Sequence))
				return
			}
			if err := sink.send(&dto); err != nil {
				return
			}
		}
	}
}

func (s *apiServer) keepalive() time.Duration {
	if s.heartbeat > 0 {
		return s.heartbeat
	}
	return heartbeatInterval
}

func (s *apiServer) handleStream(w http.ResponseWriter, r *http.Request) {
	sub, err := s.daemon.workflow.Subscribe(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})
	_ = rc.SetReadDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	s.pump(r.Context(), sub, &sseSink{w: w, rc: rc})
}

type sseSink struct {
	w  io.Writer
	rc *http.ResponseController
}

func (s *sseSink) send(evt *api.Event) error {
	if evt == nil {
		if _, err := io.WriteString(s.w, ": keepalive\n\n"); err != nil {
			return err
		}
		return s.rc.Flush()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "id: %d\ndata: %s\n\n", evt.Sequence, data); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *sseSink) end() error {
	if _, err := io.WriteString(s.w, "event: end\ndata: {}\n\n"); err != nil {
		return err
	}
	return s.rc.Flush()
}

func (s *apiServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.ws.allowed(r) {
		s.writeJSON(w, http.StatusForbidden, api.ErrorResponse{Error: "origin not allowed"})
		return
	}
	sub, err := s.daemon.workflow.Subscribe(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	conn, err := s.ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.daemon.workflow.Unsubscribe(sub)
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	defer conn.Close()

	// Inbound frames are ignored; a read error means the client went away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.pump(ctx, sub, &wsSink{conn: conn})
}

type wsSink struct {
	conn *websocket.Conn
}

func (s *wsSink) send(evt *api.Event) error {
	deadline := time.Now().Add(wsWriteTimeout)
	if evt == nil {
		return s.conn.WriteControl(websocket.PingMessage, nil, deadline)
	}
	_ = s.conn.SetWriteDeadline(deadline)
	return s.conn.WriteJSON(evt)
}

func (s *wsSink) end() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished")
	return s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteTimeout))
}

// wsUpgrader applies the configured origin allow-list. With no list, only
// same-host and loopback origins are accepted.
type wsUpgrader struct {
	upgrader     websocket.Upgrader
	allowedHosts map[string]bool
	allowedAll   map[string]bool
}

func newWSUpgrader(origins []string) *wsUpgrader {
	u := &wsUpgrader{allowedHosts: make(map[string]bool), allowedAll: make(map[string]bool)}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		u.allowedAll[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			u.allowedHosts[parsed.Host] = true
		}
	}
	u.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     u.allowed,
	}
	return u
}

func (u *wsUpgrader) allowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if len(u.allowedAll) > 0 {
		if u.allowedAll[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return u.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
