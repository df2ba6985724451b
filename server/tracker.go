package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jathurchan/lockd/clock"
	"github.com/jathurchan/lockd/logger"
)

// ConnectionInfo holds metadata about a tracked TCP client connection. It
// has no bearing on lock semantics; it exists for operational visibility
// only.
type ConnectionInfo struct {
	ID           string
	RemoteAddr   string
	ConnectedAt  time.Time
	LastActive   time.Time
	RequestCount int64
}

// ConnectionTracker manages client connection bookkeeping independent of
// the four resolvers' own lock-table state.
type ConnectionTracker interface {
	// OnConnect registers a new connection and returns its assigned ID.
	OnConnect(remoteAddr string) string

	// OnDisconnect unregisters a connection.
	OnDisconnect(id string)

	// OnRequest records activity for a connection.
	OnRequest(id string)

	// ActiveConnections returns the number of currently tracked connections.
	ActiveConnections() int

	// Snapshot returns a copy of all tracked connection info.
	Snapshot() map[string]ConnectionInfo
}

type connectionTracker struct {
	mu          sync.RWMutex
	connections map[string]*ConnectionInfo

	metrics Metrics
	log     logger.Logger
	clock   clock.Clock
}

// NewConnectionTracker returns a ConnectionTracker. A nil clock defaults to
// the standard wall clock.
func NewConnectionTracker(metrics Metrics, log logger.Logger, c clock.Clock) ConnectionTracker {
	if c == nil {
		c = clock.New()
	}
	return &connectionTracker{
		connections: make(map[string]*ConnectionInfo),
		metrics:     metrics,
		log:         log.WithComponent("connection-tracker"),
		clock:       c,
	}
}

func (ct *connectionTracker) OnConnect(remoteAddr string) string {
	id := uuid.Must(uuid.NewV7()).String()

	ct.mu.Lock()
	now := ct.clock.Now()
	ct.connections[id] = &ConnectionInfo{
		ID:          id,
		RemoteAddr:  remoteAddr,
		ConnectedAt: now,
		LastActive:  now,
	}
	total := len(ct.connections)
	ct.mu.Unlock()

	if ct.metrics != nil {
		ct.metrics.SetActiveConnections(total)
		ct.metrics.IncrConnectionAccepted()
	}
	ct.log.Debugw("connection accepted", "conn_id", id, "remote_addr", remoteAddr, "total", total)
	return id
}

func (ct *connectionTracker) OnDisconnect(id string) {
	ct.mu.Lock()
	_, exists := ct.connections[id]
	if exists {
		delete(ct.connections, id)
	}
	total := len(ct.connections)
	ct.mu.Unlock()

	if !exists {
		return
	}
	if ct.metrics != nil {
		ct.metrics.SetActiveConnections(total)
		ct.metrics.IncrConnectionClosed()
	}
	ct.log.Debugw("connection closed", "conn_id", id, "total", total)
}

func (ct *connectionTracker) OnRequest(id string) {
	now := ct.clock.Now()
	ct.mu.Lock()
	defer ct.mu.Unlock()
	conn, exists := ct.connections[id]
	if !exists {
		return
	}
	conn.LastActive = now
	conn.RequestCount++
}

func (ct *connectionTracker) ActiveConnections() int {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return len(ct.connections)
}

func (ct *connectionTracker) Snapshot() map[string]ConnectionInfo {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	out := make(map[string]ConnectionInfo, len(ct.connections))
	for id, info := range ct.connections {
		out[id] = *info
	}
	return out
}
