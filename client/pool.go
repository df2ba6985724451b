package client

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/jathurchan/lockd/logger"
	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// pooledConn wraps one long-lived bidirectional connection to the server.
// Writes are serialized by writeMu; reads run on a single dedicated
// goroutine per connection and are independent of writes on the same
// connection, per spec §4.3.
type pooledConn struct {
	conn    net.Conn
	writeMu sync.Mutex
	closed  atomic.Bool

	inFlightMu sync.Mutex
	inFlight   map[types.Identity]struct{}
}

func (pc *pooledConn) addInFlight(id types.Identity) {
	pc.inFlightMu.Lock()
	pc.inFlight[id] = struct{}{}
	pc.inFlightMu.Unlock()
}

func (pc *pooledConn) removeInFlight(id types.Identity) {
	pc.inFlightMu.Lock()
	delete(pc.inFlight, id)
	pc.inFlightMu.Unlock()
}

func (pc *pooledConn) drainInFlight() []types.Identity {
	pc.inFlightMu.Lock()
	defer pc.inFlightMu.Unlock()
	ids := make([]types.Identity, 0, len(pc.inFlight))
	for id := range pc.inFlight {
		ids = append(ids, id)
	}
	pc.inFlight = make(map[types.Identity]struct{})
	return ids
}

// pool is a fixed-size set of long-lived connections to the server. acquire
// picks any idle (not currently writing) connection and fails fast if none
// is available, rather than blocking beyond the initial dial.
type pool struct {
	cfg        Config
	log        logger.Logger
	correlator *correlator

	mu    sync.Mutex
	conns []*pooledConn
	wg    sync.WaitGroup
}

func newPool(cfg Config, log logger.Logger, c *correlator) *pool {
	return &pool{
		cfg:        cfg,
		log:        log.WithComponent("pool"),
		correlator: c,
	}
}

// dial establishes cfg.PoolSize connections and starts their read loops. It
// returns an error if even one dial fails; a partially-connected pool is
// not a supported state for this client.
func (p *pool) dial(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < p.cfg.PoolSize; i++ {
		dialCtx, cancel := context.WithTimeout(ctx, p.cfg.DialTimeout)
		conn, err := (&net.Dialer{}).DialContext(dialCtx, "tcp", p.cfg.Address())
		cancel()
		if err != nil {
			return fmt.Errorf("client: dial %s: %w", p.cfg.Address(), err)
		}
		pc := &pooledConn{conn: conn, inFlight: make(map[types.Identity]struct{})}
		p.conns = append(p.conns, pc)
		p.wg.Add(1)
		go p.readLoop(pc)
	}
	return nil
}

// readLoop continuously reads responses from pc and routes them to the
// correlator by identity. On any read error it synthesizes a transport
// failure for every identity this connection had in flight, closes the
// connection, and exits; the connection is never returned to rotation
// again.
func (p *pool) readLoop(pc *pooledConn) {
	defer p.wg.Done()
	for {
		resp, err := wire.ReadResponse(pc.conn)
		if err != nil {
			pc.closed.Store(true)
			pc.conn.Close()
			for _, id := range pc.drainInFlight() {
				p.log.Debugw("synthesizing transport failure", "identity", id, "error", err)
				p.correlator.complete(id, transportFailureResponse("", id))
			}
			return
		}
		pc.removeInFlight(resp.Identity)
		p.correlator.complete(resp.Identity, resp)
	}
}

// acquire returns an idle connection, or ErrPoolExhausted if every
// connection is either closed or currently writing.
func (p *pool) acquire() (*pooledConn, error) {
	p.mu.Lock()
	conns := p.conns
	p.mu.Unlock()

	for _, pc := range conns {
		if pc.closed.Load() {
			continue
		}
		if pc.writeMu.TryLock() {
			return pc, nil
		}
	}
	return nil, ErrPoolExhausted
}

// release returns pc to rotation after the caller's write completes.
func (p *pool) release(pc *pooledConn) {
	pc.writeMu.Unlock()
}

// activeConnections reports how many pooled connections are still open.
func (p *pool) activeConnections() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, pc := range p.conns {
		if !pc.closed.Load() {
			n++
		}
	}
	return n
}

// close closes every pooled connection and waits for their read loops to
// exit.
func (p *pool) close() {
	p.mu.Lock()
	conns := p.conns
	p.mu.Unlock()

	for _, pc := range conns {
		pc.closed.Store(true)
		pc.conn.Close()
	}
	p.wg.Wait()
}
