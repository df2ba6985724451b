package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jathurchan/lockd/clock"
	"github.com/jathurchan/lockd/lock"
	"github.com/jathurchan/lockd/logger"
)

// Server is the lock service's aggregate root: it owns the TCP listener, the
// lock.Manager dispatcher, the connection tracker, and the optional rate
// limiter, and coordinates their startup and graceful shutdown.
type Server struct {
	config   Config
	manager  *lock.Manager
	tracker  ConnectionTracker
	limiter  RateLimiter
	log      logger.Logger
	metrics  Metrics

	mu       sync.Mutex
	listener net.Listener
	started  bool
	stopped  bool

	connWG   sync.WaitGroup
	done     chan struct{}
	openMu   sync.Mutex
	openConn map[net.Conn]struct{}
}

// New constructs a Server from cfg without starting it. Use Start to begin
// accepting connections.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}

	manager, err := lock.NewManager(cfg.Lock, clock.New(), nil, log)
	if err != nil {
		return nil, fmt.Errorf("server: building lock manager: %w", err)
	}

	var limiter RateLimiter = noOpRateLimiter{}
	if cfg.EnableRateLimit {
		limiter = NewTokenBucketRateLimiter(cfg.RateLimit, cfg.RateLimitBurst, cfg.RateLimitWindow, log)
	}

	return &Server{
		config:  cfg,
		manager: manager,
		tracker: NewConnectionTracker(metrics, log, clock.New()),
		limiter: limiter,
		log:     log.WithComponent("server"),
		metrics:  metrics,
		done:     make(chan struct{}),
		openConn: make(map[net.Conn]struct{}),
	}, nil
}

// Start binds the listener and begins accepting connections in a background
// goroutine. It returns once the listener is bound; it does not block for
// the server's lifetime.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrServerAlreadyStarted
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("server: listen on %s: %w", s.config.ListenAddress, err)
	}
	s.listener = ln
	s.started = true
	s.mu.Unlock()

	s.log.Infow("server listening", "address", ln.Addr().String())
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.log.Warnw("accept failed", "error", err)
				return
			}
		}

		if s.tracker.ActiveConnections() >= s.config.MaxConnections {
			s.log.Warnw("max connections reached, refusing connection", "remote_addr", conn.RemoteAddr().String())
			conn.Close()
			continue
		}

		s.connWG.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.connWG.Done()

	s.openMu.Lock()
	s.openConn[conn] = struct{}{}
	s.openMu.Unlock()
	defer func() {
		s.openMu.Lock()
		delete(s.openConn, conn)
		s.openMu.Unlock()
	}()

	connID := s.tracker.OnConnect(conn.RemoteAddr().String())
	defer s.tracker.OnDisconnect(connID)

	if s.config.EnableRateLimit {
		if !s.limiter.Allow() {
			s.metrics.IncrRateLimited()
			s.log.Debugw("connection rejected by rate limiter", "conn_id", connID)
			conn.Close()
			return
		}
	}

	h := newConnHandler(conn, connID, s.manager, s.tracker, s.metrics, s.log)
	h.serve()
}

// Stop closes the listener, waits for in-flight connections to finish (up
// to ShutdownTimeout), and releases the lock manager's background
// goroutines. A client disconnecting or the server shutting down does not
// release any lock that connection's requests had acquired; see doc.go.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return ErrServerNotStarted
	}
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	close(s.done)
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
	}

	s.openMu.Lock()
	for conn := range s.openConn {
		conn.Close()
	}
	s.openMu.Unlock()

	drained := make(chan struct{})
	go func() {
		s.connWG.Wait()
		close(drained)
	}()

	deadline := s.config.ShutdownTimeout
	select {
	case <-drained:
	case <-time.After(deadline):
		s.manager.Close()
		return ErrShutdownTimeout
	case <-ctx.Done():
		s.manager.Close()
		return ctx.Err()
	}

	s.manager.Close()
	return nil
}

// Addr returns the listener's bound address. It is only meaningful after a
// successful Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}
