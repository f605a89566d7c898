package net

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server accepts WebSocket connections and hands fresh sessions to the game
// loop over NewSessions. Session death is reported on DeadSessions so the
// loop can clear the world index synchronously.
type Server struct {
	log       *zap.Logger
	bindAddr  string
	sessCfg   SessionConfig
	httpSrv   *http.Server
	upgrader  websocket.Upgrader
	acceptTmo time.Duration

	NewSessions  chan *Session
	DeadSessions chan *Session
}

func NewServer(bindAddr string, sessCfg SessionConfig, log *zap.Logger) *Server {
	return &Server{
		log:      log,
		bindAddr: bindAddr,
		sessCfg:  sessCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Game clients are not browsers; origin checks add nothing here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		acceptTmo:    5 * time.Second,
		NewSessions:  make(chan *Session, 16),
		DeadSessions: make(chan *Session, 16),
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed",
			zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	sess := NewSession(conn, s.sessCfg, s.log)
	s.log.Info("client connected",
		zap.Uint64("session", sess.ID),
		zap.String("client", sess.ClientID.String()),
		zap.String("remote", r.RemoteAddr))
	sess.Run()
	go s.watchSession(sess)

	select {
	case s.NewSessions <- sess:
	case <-time.After(s.acceptTmo):
		s.log.Warn("game loop not accepting sessions, rejecting client",
			zap.Uint64("session", sess.ID))
		sess.Close()
	}
}

// watchSession reports the session on DeadSessions once it closes.
func (s *Server) watchSession(sess *Session) {
	<-sess.done
	s.DeadSessions <- sess
}

// ListenAndServe blocks until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.httpSrv = &http.Server{Addr: s.bindAddr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()
	s.log.Info("listening", zap.String("addr", s.bindAddr))

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpSrv.Shutdown(shutCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
