package net

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var nextSessionID uint64

// SessionConfig bounds a session's queues and rate limits.
type SessionConfig struct {
	InQueueSize       int
	OutQueueSize      int
	CommandsPerSecond int
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// Session is one connected client. The read and write loops run on their own
// goroutines; everything else (outBuf, Send, DrainCommands, FlushOutput) is
// touched only by the game loop.
type Session struct {
	ID       uint64
	ClientID uuid.UUID

	conn *websocket.Conn
	log  *zap.Logger
	cfg  SessionConfig

	// InQueue carries decoded client commands from the read loop to the
	// game loop's input phase.
	InQueue chan Envelope

	// outQueue carries encoded frames from FlushOutput to the write loop.
	outQueue chan []byte

	// outBuf accumulates this tick's outgoing frames. Game loop only.
	outBuf [][]byte

	// Token bucket for the per-session command rate limit. Read loop only.
	tokens     int
	lastRefill time.Time

	closeOnce sync.Once
	closed    atomic.Bool
	// done is closed when the session shuts down; the write loop exits on it.
	done chan struct{}
}

// NewSession wraps an accepted connection. conn may be nil in tests; Send
// and FlushOutput still work, frames just back up in the out queue.
func NewSession(conn *websocket.Conn, cfg SessionConfig, log *zap.Logger) *Session {
	id := atomic.AddUint64(&nextSessionID, 1)
	return &Session{
		ID:         id,
		ClientID:   uuid.New(),
		conn:       conn,
		log:        log.With(zap.Uint64("session", id)),
		cfg:        cfg,
		InQueue:    make(chan Envelope, cfg.InQueueSize),
		outQueue:   make(chan []byte, cfg.OutQueueSize),
		tokens:     cfg.CommandsPerSecond,
		lastRefill: time.Now(),
		done:       make(chan struct{}),
	}
}

// Closed reports whether the session has been shut down.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Close shuts the session down. Safe to call from any goroutine, any number
// of times.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		if s.conn != nil {
			s.conn.Close()
		}
	})
}

// Send queues a typed event for the client. It only appends to the per-tick
// buffer; nothing hits the socket until FlushOutput. Game loop only.
func (s *Session) Send(typ string, payload any) {
	if s.closed.Load() {
		return
	}
	frame, err := Encode(typ, payload)
	if err != nil {
		s.log.Error("encode event", zap.String("type", typ), zap.Error(err))
		return
	}
	s.outBuf = append(s.outBuf, frame)
}

// FlushOutput hands the tick's buffered frames to the write loop. A full out
// queue means the client cannot keep up; the session is disconnected rather
// than letting the buffer grow without bound. Game loop only.
func (s *Session) FlushOutput() {
	if len(s.outBuf) == 0 {
		return
	}
	for i, frame := range s.outBuf {
		select {
		case s.outQueue <- frame:
		default:
			s.log.Warn("out queue full, disconnecting slow client",
				zap.Int("dropped", len(s.outBuf)-i))
			s.Close()
		}
		if s.closed.Load() {
			break
		}
	}
	s.outBuf = s.outBuf[:0]
}

// DrainCommands pulls up to max pending commands without blocking. Game
// loop only.
func (s *Session) DrainCommands(max int) []Envelope {
	var cmds []Envelope
	for len(cmds) < max {
		select {
		case env := <-s.InQueue:
			cmds = append(cmds, env)
		default:
			return cmds
		}
	}
	return cmds
}

// allowCommand refills the token bucket and spends one token. Read loop only.
func (s *Session) allowCommand(now time.Time) bool {
	if s.cfg.CommandsPerSecond <= 0 {
		return true
	}
	elapsed := now.Sub(s.lastRefill)
	if elapsed >= time.Second {
		s.tokens = s.cfg.CommandsPerSecond
		s.lastRefill = now
	}
	if s.tokens <= 0 {
		return false
	}
	s.tokens--
	return true
}

// readLoop decodes client frames into the in queue until the connection
// drops. Runs on its own goroutine.
func (s *Session) readLoop() {
	defer s.Close()
	for {
		if s.cfg.IdleTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout))
		}
		var env Envelope
		if err := s.conn.ReadJSON(&env); err != nil {
			if !s.closed.Load() {
				s.log.Debug("read loop ended", zap.Error(err))
			}
			return
		}
		if !s.allowCommand(time.Now()) {
			s.log.Warn("command rate limit exceeded", zap.String("type", env.Type))
			continue
		}
		select {
		case s.InQueue <- env:
		default:
			// The game loop is behind; dropping the oldest would reorder
			// commands, so drop the new one.
			s.log.Warn("in queue full, dropping command", zap.String("type", env.Type))
		}
	}
}

// writeLoop pushes queued frames to the socket until the session closes.
// Runs on its own goroutine.
func (s *Session) writeLoop() {
	for {
		select {
		case frame := <-s.outQueue:
			if s.cfg.WriteTimeout > 0 {
				s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write loop ended", zap.Error(err))
				}
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// Run starts the session's I/O goroutines.
func (s *Session) Run() {
	go s.readLoop()
	go s.writeLoop()
}
