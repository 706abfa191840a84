package pool

import (
	"context"
	"database/sql"

	"github.com/fmidev/obsengine/cmn"
)

// ConnPool is a fixed-size pool of upstream *sql.Conn handles, acquired by
// ingest loops and by readers that fell through to the upstream tier.
// Acquire blocks until a slot frees rather than erroring or growing the
// pool: sizing is expected to exceed worst-case concurrency, so no acquire
// timeout is imposed here, only whatever per-operation timeout the caller's
// context carries once a connection is held.
//
// Grounded on PostgreSQLConnectionPool's fixed worker-slot model (all
// connections opened up front, get/release cycles a connection back into
// the pool); the original's busy-wait spin loop becomes a buffered channel
// of ready connections, Go's native blocking-acquire primitive.
type ConnPool struct {
	db    *sql.DB
	slots chan *sql.Conn
	size  int
}

// NewConnPool opens size connections against db up front and returns a
// pool that hands them out via Acquire.
func NewConnPool(ctx context.Context, db *sql.DB, size int) (*ConnPool, error) {
	if size <= 0 {
		size = 1
	}
	p := &ConnPool{db: db, slots: make(chan *sql.Conn, size), size: size}
	for i := 0; i < size; i++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			p.size = i
			p.Close()
			return nil, cmn.NewError("pool.NewConnPool", cmn.ErrStorageFailure, "opening connection %d/%d: %v", i+1, size, err)
		}
		p.slots <- conn
	}
	return p, nil
}

// Acquire blocks until a connection is available or ctx is cancelled.
// The caller must pass the returned connection to Release when done.
func (p *ConnPool) Acquire(ctx context.Context) (*sql.Conn, error) {
	select {
	case conn := <-p.slots:
		return conn, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a connection acquired via Acquire back to the pool.
func (p *ConnPool) Release(conn *sql.Conn) {
	p.slots <- conn
}

// Close blocks until every connection has been returned via Release, then
// closes each one. Callers currently holding a connection must Release it
// for Close to return.
func (p *ConnPool) Close() error {
	var firstErr error
	for i := 0; i < p.size; i++ {
		conn := <-p.slots
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
