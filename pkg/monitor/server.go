package monitor

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/journal"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/jsontime"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/kv"
	"github.com/SwissMontainsBear/DirettaRendererUPnP-X/pkg/render"
)

const (
	defaultInterval = time.Second
	defaultTail     = 16
	writeTimeout    = 5 * time.Second
)

// StatusFunc returns the current engine status. Called once per push
// interval per attached client.
type StatusFunc func() render.Status

// ServerOptions configures a monitor Server.
type ServerOptions struct {
	// Status supplies the snapshot pushed in every frame. Required.
	Status StatusFunc
	// Store, when set, lets frames carry the session's journal events.
	Store kv.Store
	// Interval between pushes. Defaults to one second.
	Interval time.Duration
	// Tail caps the journal events in a single frame. Defaults to 16.
	Tail int
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Server pushes status frames to attached WebSocket clients.
type Server struct {
	status   StatusFunc
	store    kv.Store
	interval time.Duration
	tail     int
	logger   *slog.Logger
	upgrader websocket.Upgrader
	srv      *http.Server

	mu        sync.Mutex
	conns     map[*websocket.Conn]struct{}
	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewServer builds a Server from opts.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Status == nil {
		return nil, errors.New("monitor: ServerOptions.Status is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.Tail <= 0 {
		opts.Tail = defaultTail
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		status:   opts.Status,
		store:    opts.Store,
		interval: opts.Interval,
		tail:     opts.Tail,
		logger:   opts.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns:   make(map[*websocket.Conn]struct{}),
		closeCh: make(chan struct{}),
	}, nil
}

// Handler returns the HTTP handler serving the monitor socket. The
// socket answers on both "/" and "/monitor".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	mux.HandleFunc("/monitor", s.handleWS)
	return mux
}

// ListenAndServe serves the monitor socket on addr until Close.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves the monitor socket on ln until Close.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler()}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Close drops all attached clients and stops the listener.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		s.mu.Lock()
		srv := s.srv
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
		if srv != nil {
			srv.Close()
		}
	})
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("monitor: upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	s.mu.Lock()
	select {
	case <-s.closeCh:
		s.mu.Unlock()
		ws.Close()
		return
	default:
	}
	s.conns[ws] = struct{}{}
	s.mu.Unlock()

	s.logger.Debug("monitor: client attached", "remote", r.RemoteAddr)
	defer func() {
		s.mu.Lock()
		delete(s.conns, ws)
		s.mu.Unlock()
		ws.Close()
		s.logger.Debug("monitor: client detached", "remote", r.RemoteAddr)
	}()

	// The reader pumps control frames and tells us when the peer went
	// away. Data from the client is discarded.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Per-connection journal cursor: each frame carries only events the
	// client has not seen yet.
	var session string
	var lastSeq uint64

	push := func() bool {
		frame := Frame{Time: jsontime.NowEpochMilli(), Status: s.status()}
		if s.store != nil && frame.Status.Session != "" {
			if frame.Status.Session != session {
				session = frame.Status.Session
				lastSeq = 0
			}
			events, err := journal.Tail(r.Context(), s.store, session, s.tail)
			if err != nil {
				s.logger.Debug("monitor: journal tail", "session", session, "error", err)
			}
			for _, ev := range events {
				if ev.Seq > lastSeq {
					frame.Events = append(frame.Events, ev)
					lastSeq = ev.Seq
				}
			}
		}
		ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ws.WriteJSON(frame); err != nil {
			s.logger.Debug("monitor: write frame", "remote", r.RemoteAddr, "error", err)
			return false
		}
		return true
	}

	if !push() {
		return
	}
	for {
		select {
		case <-gone:
			return
		case <-s.closeCh:
			return
		case <-ticker.C:
			if !push() {
				return
			}
		}
	}
}
