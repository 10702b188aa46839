package dbfactory

import (
	"context"
	"database/sql"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// PostgresConnector connects to PostgreSQL through pgx.
type PostgresConnector struct{}

// DSN returns a keyword/value connection string for cfg.
func (c *PostgresConnector) DSN(cfg Config) string {
	host, port, _ := net.SplitHostPort(hostPort(cfg, "127.0.0.1", 5432))

	pairs := [][2]string{
		{"host", host},
		{"port", port},
	}
	if db := cfg.String(KeyDatabase); db != "" {
		pairs = append(pairs, [2]string{"dbname", db})
	}
	if user := cfg.String(KeyUsername); user != "" {
		pairs = append(pairs, [2]string{"user", user})
	}
	if pass := cfg.String(KeyPassword); pass != "" {
		pairs = append(pairs, [2]string{"password", pass})
	}
	if mode := cfg.String(KeySSLMode); mode != "" {
		pairs = append(pairs, [2]string{"sslmode", mode})
	}
	if schema := cfg.String(KeySchema); schema != "" {
		pairs = append(pairs, [2]string{"search_path", schema})
	}
	if name := cfg.String(KeyName); name != "" {
		pairs = append(pairs, [2]string{"application_name", name})
	}
	pairs = append(pairs, extraOptions(cfg)...)

	parts := make([]string, 0, len(pairs))
	for _, kv := range pairs {
		parts = append(parts, kv[0]+"="+quotePgValue(kv[1]))
	}
	return strings.Join(parts, " ")
}

// Connect opens and pings a PostgreSQL handle.
func (c *PostgresConnector) Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	connConfig, err := pgx.ParseConfig(c.DSN(cfg))
	if err != nil {
		return nil, err
	}
	return establish(ctx, stdlib.OpenDB(*connConfig), cfg)
}

func quotePgValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}
