package server

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/jathurchan/lockd/lock"
	"github.com/jathurchan/lockd/logger"
	"github.com/jathurchan/lockd/wire"
)

// connHandler owns one accepted net.Conn. It reads request frames in a loop
// and, for each one, asks the lock manager to handle it; since a blocking
// lock may not resolve until long after later requests on the same
// connection have already completed, responses are written back as they
// become ready rather than in read order — writeMu serializes those
// concurrent writers onto the one underlying connection.
type connHandler struct {
	conn    net.Conn
	connID  string
	manager *lock.Manager
	tracker ConnectionTracker
	metrics Metrics
	log     logger.Logger

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func newConnHandler(conn net.Conn, connID string, manager *lock.Manager, tracker ConnectionTracker, metrics Metrics, log logger.Logger) *connHandler {
	return &connHandler{
		conn:    conn,
		connID:  connID,
		manager: manager,
		tracker: tracker,
		metrics: metrics,
		log:     log.WithConn(connID),
	}
}

// serve reads requests until the connection is closed or a frame error
// occurs, dispatching each to the lock manager and writing its eventual
// response back as an independent goroutine so a slow blocking lock on one
// key never stalls responses for other requests on the same connection.
func (h *connHandler) serve() {
	defer h.wg.Wait()
	defer h.conn.Close()

	for {
		req, err := wire.ReadRequest(h.conn)
		if err != nil {
			if err != io.EOF {
				h.log.Debugw("connection read failed", "error", err)
			}
			return
		}
		h.tracker.OnRequest(h.connID)

		respCh, err := h.manager.Handle(req)
		if err != nil {
			h.writeResponse(wire.ResponseFor(req, false, err.Error()))
			continue
		}

		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			start := time.Now()
			resp := <-respCh
			if h.metrics != nil {
				h.metrics.ObserveRequestLatency(time.Since(start))
			}
			h.writeResponse(resp)
		}()
	}
}

func (h *connHandler) writeResponse(resp wire.Response) {
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if err := wire.WriteResponse(h.conn, resp); err != nil {
		h.log.Debugw("connection write failed", "error", err)
	}
}
