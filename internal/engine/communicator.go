package engine

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Saplyn/vibe/internal/metrics"
	"github.com/Saplyn/vibe/internal/models"
	"github.com/Saplyn/vibe/internal/store"
	"github.com/Saplyn/vibe/pkg/logger"
)

type communicatorCommandKind int

const (
	commSend communicatorCommandKind = iota
	commChangeAddr
)

type communicatorCommand struct {
	kind communicatorCommandKind
	addr string
	msg  models.OscMessage
}

type dialResult struct {
	conn net.Conn
	err  error
}

// Communicator maintains a single TCP connection to the target, writing
// framed OSC messages on demand and reconnecting transparently. Connection
// status is published on a watch.
type Communicator struct {
	store          *store.Store
	cmd            chan communicatorCommand
	status         *Watch[bool]
	reconnectDelay time.Duration

	mu        sync.RWMutex
	connected bool
}

// NewCommunicator creates a disconnected communicator
func NewCommunicator(st *store.Store, buffer int, reconnectDelay time.Duration) *Communicator {
	return &Communicator{
		store:          st,
		cmd:            make(chan communicatorCommand, buffer),
		status:         NewWatch(false),
		reconnectDelay: reconnectDelay,
	}
}

// SendMessage queues an OSC message for the target. While disconnected the
// message is dropped with a warning.
func (c *Communicator) SendMessage(msg models.OscMessage) {
	c.cmd <- communicatorCommand{kind: commSend, msg: msg}
}

// ChangeTargetAddr points the communicator at a new target address
func (c *Communicator) ChangeTargetAddr(addr string) {
	c.cmd <- communicatorCommand{kind: commChangeAddr, addr: addr}
}

// Connected reports whether a target connection is currently open
func (c *Communicator) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Communicator) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = connected
}

// Status returns the connection-status watch for subscription
func (c *Communicator) Status() *Watch[bool] {
	return c.status
}

// Run drives the connect/process cycle until ctx is cancelled
func (c *Communicator) Run(ctx context.Context) {
	logger.Info("Communicator started")
	for {
		conn := c.connect(ctx)
		if conn == nil {
			logger.Info("Communicator stopped")
			return
		}
		c.process(ctx, conn)
		if ctx.Err() != nil {
			logger.Info("Communicator stopped")
			return
		}
	}
}

// connect dials until a connection is established, returning nil only when
// ctx is cancelled
func (c *Communicator) connect(ctx context.Context) net.Conn {
	for {
		conn, retry := c.attempt(ctx)
		if conn != nil {
			return conn
		}
		if !retry {
			return nil
		}
	}
}

// attempt dials the current target address once. The dial runs in its own
// goroutine so an address change can abandon it mid-flight without losing
// the commands raced against it.
func (c *Communicator) attempt(ctx context.Context) (net.Conn, bool) {
	addr := c.store.TargetAddr()
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan dialResult, 1)
	go func() {
		var d net.Dialer
		conn, err := d.DialContext(attemptCtx, "tcp", addr)
		results <- dialResult{conn: conn, err: err}
	}()

	dialed := false
	var backoff <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil, false

		case cmd := <-c.cmd:
			switch cmd.kind {
			case commChangeAddr:
				c.store.SetTargetAddr(cmd.addr)
				if !dialed {
					cancel()
					go func() {
						if res := <-results; res.conn != nil {
							res.conn.Close()
						}
					}()
				}
				return nil, true
			case commSend:
				logger.Warn("Dropping OSC message, target not connected",
					logger.String("path", cmd.msg.Path),
				)
				metrics.OscMessagesDropped.Inc()
			}

		case res := <-results:
			dialed = true
			if res.err != nil {
				logger.Warn("Failed to connect to target",
					logger.String("addr", addr),
					logger.ErrorField(res.err),
				)
				backoff = time.After(c.reconnectDelay)
				continue
			}
			return res.conn, true

		case <-backoff:
			return nil, true
		}
	}
}

// process serves one established connection until it breaks or the address
// changes
func (c *Communicator) process(ctx context.Context, conn net.Conn) {
	logger.Info("Connected to target",
		logger.String("addr", conn.RemoteAddr().String()),
	)
	c.setConnected(true)
	c.status.Set(true)
	metrics.TargetReconnects.Inc()
	metrics.TargetConnected.Set(1)

	defer func() {
		conn.Close()
		c.setConnected(false)
		c.status.Set(false)
		metrics.TargetConnected.Set(0)
		logger.Info("Disconnected from target")
	}()

	// the target never speaks; reading only detects EOF and dead peers
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 512)
		for {
			if _, err := conn.Read(buf); err != nil {
				readErr <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-readErr:
			if err == io.EOF {
				logger.Info("Target closed connection")
			} else {
				logger.Warn("Target read failed", logger.ErrorField(err))
			}
			return

		case cmd := <-c.cmd:
			switch cmd.kind {
			case commChangeAddr:
				c.store.SetTargetAddr(cmd.addr)
				return
			case commSend:
				frame, err := EncodeFrame(cmd.msg)
				if err != nil {
					logger.Error("Failed to encode OSC message",
						logger.String("path", cmd.msg.Path),
						logger.ErrorField(err),
					)
					continue
				}
				if _, err := conn.Write(frame); err != nil {
					logger.Warn("Target write failed", logger.ErrorField(err))
					metrics.OscMessagesDropped.Inc()
					return
				}
				metrics.OscMessagesSent.Inc()
			}
		}
	}
}

// EncodeFrame renders an OSC packet as space-separated decimal byte values
// terminated by ';', the line format the target hosts parse
func EncodeFrame(msg models.OscMessage) ([]byte, error) {
	pkt, err := msg.Packet()
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for i, by := range pkt {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(int(by)))
	}
	b.WriteByte(';')
	return []byte(b.String()), nil
}
