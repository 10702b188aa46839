package dbfactory

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Masterminds/squirrel"
)

// Connection is a database connection built by a Factory. It owns a write
// (default) handle and, for split topologies, a separate read handle. Both are
// opened lazily on first use.
type Connection interface {
	Name() string
	Driver() Driver
	Database() string
	TablePrefix() string
	Config() Config

	// DB returns the write handle, opening it if needed.
	DB(ctx context.Context) (*sql.DB, error)
	// ReadDB returns the handle used for reads. It is the write handle when no
	// read Producer is attached, or when the connection is sticky and has
	// already written.
	ReadDB(ctx context.Context) (*sql.DB, error)
	SetReadProducer(producer Producer)
	HasReadProducer() bool

	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) (*sql.Row, error)
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
	Close() error

	// Builder returns a statement builder using the driver's placeholders.
	Builder() squirrel.StatementBuilderType
	// Table returns the quoted, prefixed table name.
	Table(name string) string
	QuoteIdentifier(name string) string
}

// lazyHandle caches the first handle a Producer opens. Failures are not
// cached, so a later call tries again.
type lazyHandle struct {
	mu       sync.Mutex
	producer Producer
	db       *sql.DB
}

func (h *lazyHandle) get(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.db != nil {
		return h.db, nil
	}
	db, err := h.producer(ctx)
	if err != nil {
		return nil, err
	}
	h.db = db
	return db, nil
}

// release forgets the cached handle and returns it, or nil if none was opened.
func (h *lazyHandle) release() *sql.DB {
	h.mu.Lock()
	defer h.mu.Unlock()
	db := h.db
	h.db = nil
	return db
}

// BaseConnection implements Connection on top of a Dialect. The built-in
// connections embed it, and so can connections registered as overrides.
type BaseConnection struct {
	driver   Driver
	database string
	prefix   string
	config   Config
	dialect  Dialect

	write *lazyHandle
	read  *lazyHandle

	checker         QueryTypeChecker
	recordsModified atomic.Bool
}

// NewBaseConnection wraps producer as the write handle of a new connection.
func NewBaseConnection(driver Driver, dialect Dialect, producer Producer, database, prefix string, cfg Config) *BaseConnection {
	return &BaseConnection{
		driver:   driver,
		database: database,
		prefix:   prefix,
		config:   cfg,
		dialect:  dialect,
		write:    &lazyHandle{producer: producer},
		checker:  &DefaultQueryTypeChecker{},
	}
}

// Name returns the connection name the config was normalized with.
func (c *BaseConnection) Name() string { return c.config.String(KeyName) }

// Driver returns the driver the connection was built for.
func (c *BaseConnection) Driver() Driver { return c.driver }

// Database returns the configured database name.
func (c *BaseConnection) Database() string { return c.database }

// TablePrefix returns the prefix Table prepends to table names.
func (c *BaseConnection) TablePrefix() string { return c.prefix }

// Config returns a copy of the normalized config.
func (c *BaseConnection) Config() Config { return c.config.Clone() }

// SetQueryTypeChecker replaces the checker deciding which queries must run on
// the write handle.
func (c *BaseConnection) SetQueryTypeChecker(checker QueryTypeChecker) {
	if checker != nil {
		c.checker = checker
	}
}

// SetReadProducer attaches the Producer for the read handle. It is not invoked
// until the first read.
func (c *BaseConnection) SetReadProducer(producer Producer) {
	if producer == nil {
		c.read = nil
		return
	}
	c.read = &lazyHandle{producer: producer}
}

// HasReadProducer reports whether a separate read handle is configured.
func (c *BaseConnection) HasReadProducer() bool {
	return c.read != nil
}

// DB returns the write handle, opening it on first use.
func (c *BaseConnection) DB(ctx context.Context) (*sql.DB, error) {
	return c.write.get(ctx)
}

// ReadDB returns the read handle, falling back to the write handle.
func (c *BaseConnection) ReadDB(ctx context.Context) (*sql.DB, error) {
	if c.read == nil {
		return c.DB(ctx)
	}
	if c.config.Bool(KeySticky) && c.recordsModified.Load() {
		return c.DB(ctx)
	}
	return c.read.get(ctx)
}

// RecordsModified reports whether a write went through this connection.
func (c *BaseConnection) RecordsModified() bool {
	return c.recordsModified.Load()
}

// ExecContext executes a query without returning any rows on the write handle.
func (c *BaseConnection) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	db, err := c.DB(ctx)
	if err != nil {
		return nil, err
	}
	res, err := db.ExecContext(ctx, query, args...)
	if err == nil {
		c.recordsModified.Store(true)
	}
	return res, err
}

// QueryContext executes a query that returns rows, typically a SELECT, on the
// read handle. Queries the checker flags as writes go to the write handle.
func (c *BaseConnection) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	db, write, err := c.handleFor(ctx, query)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err == nil && write {
		c.recordsModified.Store(true)
	}
	return rows, err
}

// QueryRowContext executes a query that is expected to return at most one row.
// The error only reports a failure to open the handle; query errors are
// deferred until Row's Scan method is called.
func (c *BaseConnection) QueryRowContext(ctx context.Context, query string, args ...interface{}) (*sql.Row, error) {
	db, write, err := c.handleFor(ctx, query)
	if err != nil {
		return nil, err
	}
	if write {
		c.recordsModified.Store(true)
	}
	return db.QueryRowContext(ctx, query, args...), nil
}

// BeginTx starts a transaction on the write handle.
func (c *BaseConnection) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	db, err := c.DB(ctx)
	if err != nil {
		return nil, err
	}
	return db.BeginTx(ctx, opts)
}

// PingContext opens every handle of the connection if needed and verifies
// they are alive, concurrently.
func (c *BaseConnection) PingContext(ctx context.Context) error {
	handles := []*lazyHandle{c.write}
	if c.read != nil {
		handles = append(handles, c.read)
	}

	return doParallely(len(handles), func(i int) error {
		db, err := handles[i].get(ctx)
		if err != nil {
			return err
		}
		return db.PingContext(ctx)
	})
}

// Close closes the handles opened so far, concurrently. A closed connection
// opens new handles on next use.
func (c *BaseConnection) Close() error {
	var dbs []*sql.DB
	if db := c.write.release(); db != nil {
		dbs = append(dbs, db)
	}
	if c.read != nil {
		if db := c.read.release(); db != nil {
			dbs = append(dbs, db)
		}
	}
	c.recordsModified.Store(false)

	return doParallely(len(dbs), func(i int) error {
		return dbs[i].Close()
	})
}

// Builder returns a squirrel statement builder using the dialect placeholders.
func (c *BaseConnection) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(c.dialect.Placeholder())
}

// Table prefixes the last segment of name and quotes it, so "audit.users"
// becomes "audit"."app_users".
func (c *BaseConnection) Table(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return c.dialect.QuoteIdentifier(name[:i+1] + c.prefix + name[i+1:])
	}
	return c.dialect.QuoteIdentifier(c.prefix + name)
}

// QuoteIdentifier quotes name with the dialect of the connection.
func (c *BaseConnection) QuoteIdentifier(name string) string {
	return c.dialect.QuoteIdentifier(name)
}

func (c *BaseConnection) handleFor(ctx context.Context, query string) (*sql.DB, bool, error) {
	if c.checker.Check(query) == QueryTypeWrite {
		db, err := c.DB(ctx)
		return db, true, err
	}
	db, err := c.ReadDB(ctx)
	return db, false, err
}
