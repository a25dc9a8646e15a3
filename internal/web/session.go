package web

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/FocuswithJustin/ScripturesMapped/core/catalog"
	"github.com/FocuswithJustin/ScripturesMapped/internal/logging"
	"github.com/FocuswithJustin/ScripturesMapped/internal/markers"
	"github.com/FocuswithJustin/ScripturesMapped/internal/render"
	"github.com/FocuswithJustin/ScripturesMapped/internal/router"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 64
	loopBuffer = 32
)

var newline = []byte{'\n'}

// Message types exchanged with the page.
const (
	MessageNavigate = "navigate"
	MessageView     = "view"
	MessageMarkers  = "markers"
)

// InboundMessage is sent by the page whenever its location fragment changes.
type InboundMessage struct {
	Type     string `json:"type"`
	Fragment string `json:"fragment"`
}

// OutboundMessage carries a rendered view or the markers for the chapter on
// screen.
type OutboundMessage struct {
	Type    string           `json:"type"`
	View    *render.Frame    `json:"view,omitempty"`
	Markers []markers.Marker `json:"markers,omitempty"`
}

// Session is one browser tab. Every navigation event, fetch completion and
// catalog delivery for the tab runs on its loop.
type Session struct {
	id      string
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	loop    *router.Loop
	router  *router.Router
	limiter *rate.Limiter

	ctx    context.Context
	cancel context.CancelFunc

	// latest is the most recent fragment the page reported. Loop only.
	latest string
}

func newSession(ctx context.Context, srv *Server, conn *websocket.Conn) (*Session, error) {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(logging.WithSessionID(ctx, id))

	s := &Session{
		id:      id,
		hub:     srv.hub,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		loop:    router.NewLoop(loopBuffer),
		limiter: rate.NewLimiter(rate.Limit(srv.cfg.MessageRate), srv.cfg.MessageBurst),
		ctx:     ctx,
		cancel:  cancel,
	}

	html, err := render.New(s)
	if err != nil {
		cancel()
		return nil, err
	}
	s.router = router.New(srv.fetcher, html, s, s.loop.Executor())
	conn.SetReadLimit(srv.cfg.MaxMessageSize)
	return s, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id
}

// start runs the pumps and the loop. When the loop stops the send channel is
// closed, which ends writePump.
func (s *Session) start() {
	go s.writePump()
	go s.readPump()
	go func() {
		s.loop.Run(s.ctx)
		s.cancel()
		close(s.send)
		s.hub.Unregister(s)
	}()
}

// close stops the loop and the connection. Safe to call more than once.
func (s *Session) close() {
	s.loop.Stop()
	s.conn.Close()
}

// catalogReady is called by the hub. It must not block the hub.
func (s *Session) catalogReady(store *catalog.Store) {
	go s.loop.Post(func() {
		if s.router.Ready() {
			return
		}
		s.router.SetStore(store)
		s.router.Navigate(s.ctx, s.latest)
	})
}

// navigate runs on the loop. Before the catalog is ready the fragment is
// remembered and shown once it arrives.
func (s *Session) navigate(fragment string) {
	s.latest = fragment
	s.router.Navigate(s.ctx, fragment)
}

// Publish implements render.Publisher.
func (s *Session) Publish(frame render.Frame) {
	s.enqueue(OutboundMessage{Type: MessageView, View: &frame})
}

// SetMarkers implements router.MarkerSink. An empty set clears the map.
func (s *Session) SetMarkers(m []markers.Marker) {
	s.enqueue(OutboundMessage{Type: MessageMarkers, Markers: m})
}

func (s *Session) enqueue(msg OutboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logging.ErrorContext(s.ctx, "failed to marshal session message", "type", msg.Type, "error", err)
		return
	}
	select {
	case s.send <- data:
	default:
		logging.WarnContext(s.ctx, "session send buffer full, dropping message", "type", msg.Type)
	}
}

// readPump pumps fragment events from the connection onto the loop.
func (s *Session) readPump() {
	defer s.close()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.WarnContext(s.ctx, "websocket read error", "error", err)
			}
			return
		}

		if !s.limiter.Allow() {
			logging.WarnContext(s.ctx, "websocket rate limit exceeded", "remote_addr", s.conn.RemoteAddr().String())
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Rate limit exceeded"),
				time.Now().Add(writeWait))
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			logging.DebugContext(s.ctx, "ignoring malformed session message", "error", err)
			continue
		}

		switch msg.Type {
		case MessageNavigate:
			fragment := msg.Fragment
			if !s.loop.Post(func() { s.navigate(fragment) }) {
				return
			}
		default:
			logging.DebugContext(s.ctx, "ignoring unknown session message", "type", msg.Type)
		}
	}
}

// writePump pumps messages from the send channel to the connection. Queued
// messages are batched into one frame, separated by newlines.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(s.send)
			for i := 0; i < n; i++ {
				w.Write(newline)
				w.Write(<-s.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
