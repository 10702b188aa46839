package dbfactory

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
)

// Connector turns a resolved configuration into a live database handle.
// Implementations are stateless; a fresh one is created for every attempt.
type Connector interface {
	Connect(ctx context.Context, cfg Config) (*sql.DB, error)
}

// ConnectorFunc adapts a plain function to Connector.
type ConnectorFunc func(ctx context.Context, cfg Config) (*sql.DB, error)

// Connect calls f(ctx, cfg).
func (f ConnectorFunc) Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	return f(ctx, cfg)
}

// establish applies the pool settings of cfg to db and pings it, so that a
// failing endpoint is reported by Connect rather than by the first query.
func establish(ctx context.Context, db *sql.DB, cfg Config) (*sql.DB, error) {
	configurePool(db, cfg)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func configurePool(db *sql.DB, cfg Config) {
	if n, ok := cfg.Int(KeyMaxOpenConns); ok {
		db.SetMaxOpenConns(n)
	}
	if n, ok := cfg.Int(KeyMaxIdleConns); ok {
		db.SetMaxIdleConns(n)
	}
	if d, ok := cfg.Duration(KeyConnMaxLifetime); ok {
		db.SetConnMaxLifetime(d)
	}
	if d, ok := cfg.Duration(KeyConnMaxIdleTime); ok {
		db.SetConnMaxIdleTime(d)
	}
}

// hostPort returns the dial address of cfg. A port carried by the host
// itself ("db:3307") wins over the "port" key.
func hostPort(cfg Config, defaultHost string, defaultPort int) string {
	host := cfg.String(KeyHost)
	if host == "" {
		host = defaultHost
	}
	if h, p, err := net.SplitHostPort(host); err == nil {
		return net.JoinHostPort(h, p)
	}
	port := defaultPort
	if p, ok := cfg.Int(KeyPort); ok {
		port = p
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// extraOptions returns the driver specific "options" of cfg in a stable order.
func extraOptions(cfg Config) [][2]string {
	opts := cfg.Map(KeyOptions)
	out := make([][2]string, 0, len(opts))
	for _, k := range opts.Keys() {
		out = append(out, [2]string{k, fmt.Sprint(opts[k])})
	}
	return out
}
