package session

import (
	"context"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Saplyn/vibe/internal/engine"
	"github.com/Saplyn/vibe/internal/metrics"
	"github.com/Saplyn/vibe/internal/protocol"
	"github.com/Saplyn/vibe/internal/store"
	"github.com/Saplyn/vibe/pkg/logger"
)

// Deps bundles everything a session needs to serve a client
type Deps struct {
	Store        *store.Store
	Ticker       *engine.Ticker
	Controller   *engine.Controller
	Communicator *engine.Communicator
	Hub          *Hub
}

// Config holds per-session connection tuning
type Config struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	SendBuffer   int
}

// Session is one connected editor client. Inbound frames are processed
// strictly in receive order; outbound frames funnel through a single send
// queue so replies and broadcasts stay ordered per client.
type Session struct {
	ID   string
	deps Deps
	cfg  Config
	conn *websocket.Conn
	send chan []byte

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a session for an upgraded connection
func New(id string, deps Deps, cfg Config, conn *websocket.Conn) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:     id,
		deps:   deps,
		cfg:    cfg,
		conn:   conn,
		send:   make(chan []byte, cfg.SendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Run serves the session until the client disconnects
func (s *Session) Run() {
	s.deps.Hub.add(s)
	defer func() {
		s.cancel()
		s.deps.Hub.remove(s)
		s.conn.Close()
	}()

	go s.writePump()
	go s.watchPump()
	s.readPump()
}

// readPump processes inbound frames until the connection closes
func (s *Session) readPump() {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Session read failed",
					logger.String("session_id", s.ID),
					logger.ErrorField(err),
				)
			}
			return
		}

		frame, err := protocol.ParseServerFrame(data)
		if err != nil {
			logger.Warn("Failed to parse client frame",
				logger.String("session_id", s.ID),
				logger.ErrorField(err),
			)
			continue
		}
		s.dispatch(frame)
	}
}

// writePump drains the send queue onto the socket and keeps the client
// alive with pings
func (s *Session) writePump() {
	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debug("Session write failed",
					logger.String("session_id", s.ID),
					logger.ErrorField(err),
				)
				s.cancel()
				return
			}

		case <-ping.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.cancel()
				return
			}
		}
	}
}

// watchPump translates tick and connection-status changes into client frames
func (s *Session) watchPump() {
	tickSub, cancelTick := s.deps.Ticker.Ticks().Subscribe()
	defer cancelTick()
	statusSub, cancelStatus := s.deps.Communicator.Status().Subscribe()
	defer cancelStatus()

	for {
		select {
		case <-s.ctx.Done():
			return

		case state := <-tickSub:
			if state.Stopped() {
				continue
			}
			s.reply(protocol.TickerTick(state.Tick, state.Max))

		case established := <-statusSub:
			s.reply(protocol.CommStatusChanged(established))
		}
	}
}

// queue enqueues an already-encoded broadcast frame, dropping it if the
// session's buffer is full
func (s *Session) queue(data []byte) {
	select {
	case s.send <- data:
	default:
		metrics.BroadcastsDropped.Inc()
		logger.Debug("Dropping broadcast, session buffer full",
			logger.String("session_id", s.ID),
		)
	}
}

// reply sends a frame to this client only, preserving order
func (s *Session) reply(cmd protocol.ClientCommand) {
	data, err := cmd.Encode()
	if err != nil {
		logger.Error("Failed to encode reply",
			logger.String("session_id", s.ID),
			logger.ErrorField(err),
		)
		return
	}
	select {
	case s.send <- data:
	case <-s.ctx.Done():
	}
}

// notifyError reports a client input error to the originating client only
func (s *Session) notifyError(summary, detail string) {
	s.reply(protocol.Notify(protocol.SeverityError, summary, detail))
}
