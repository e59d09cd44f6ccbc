// Package dbmock provides an in-memory stand-in for the postgres pool
// interfaces, for tests which assert on issued SQL without a live database.
package dbmock

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	kpool "github.com/foodgram/edge/pkg/db/postgres/pool"
)

type Call struct {
	SQL  string
	Args []interface{}
}

type Pool struct {
	// Version is scanned out by single-row queries (schema version, counts).
	Version    int
	VersionErr error

	PingErr error

	// Calls records every Exec routed through the pool, its conns, or its txs.
	Calls []Call

	// OnExec decides the result of each Exec. Nil means "INSERT 0 1".
	OnExec func(sql string, args []interface{}) (pgconn.CommandTag, error)

	Began      int
	Committed  int
	RolledBack int
}

var _ kpool.Pool = &Pool{}

func (p *Pool) Begin(ctx context.Context) (kpool.Tx, error) {
	p.Began += 1
	return &tx{p: p}, nil
}

func (p *Pool) Acquire(ctx context.Context) (kpool.Conn, error) {
	return &conn{p: p}, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	return p.PingErr
}

func (p *Pool) exec(sql string, args []interface{}) (pgconn.CommandTag, error) {
	p.Calls = append(p.Calls, Call{SQL: sql, Args: args})
	if p.OnExec != nil {
		return p.OnExec(sql, args)
	}
	return pgconn.CommandTag("INSERT 0 1"), nil
}

type conn struct {
	p *Pool
}

var _ kpool.Conn = &conn{}

func (c *conn) Begin(ctx context.Context) (kpool.Tx, error) {
	return c.p.Begin(ctx)
}

func (c *conn) Release() {}

func (c *conn) Ping(ctx context.Context) error {
	return c.p.PingErr
}

func (c *conn) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return c.p.exec(sql, args)
}

func (c *conn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("dbmock: Query is not supported")
}

func (c *conn) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return row{p: c.p}
}

type tx struct {
	p    *Pool
	done bool
}

var _ kpool.Tx = &tx{}

func (t *tx) Begin(ctx context.Context) (kpool.Tx, error) {
	return t.p.Begin(ctx)
}

func (t *tx) Commit(ctx context.Context) error {
	t.done = true
	t.p.Committed += 1
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil // no-op after commit, as pgx does
	}
	t.done = true
	t.p.RolledBack += 1
	return nil
}

func (t *tx) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	return t.p.exec(sql, args)
}

func (t *tx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("dbmock: Query is not supported")
}

func (t *tx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return row{p: t.p}
}

type row struct {
	p *Pool
}

var _ pgx.Row = row{}

func (r row) Scan(dest ...interface{}) error {
	if r.p.VersionErr != nil {
		return r.p.VersionErr
	}
	for _, d := range dest {
		if ip, ok := d.(*int); ok {
			*ip = r.p.Version
		}
	}
	return nil
}
