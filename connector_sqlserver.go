package dbfactory

import (
	"context"
	"database/sql"
	"net/url"

	mssql "github.com/microsoft/go-mssqldb"
)

// SQLServerConnector connects to Microsoft SQL Server.
type SQLServerConnector struct{}

// DSN returns a sqlserver:// URL for cfg.
func (c *SQLServerConnector) DSN(cfg Config) string {
	u := &url.URL{
		Scheme: "sqlserver",
		Host:   hostPort(cfg, "localhost", 1433),
	}
	if user := cfg.String(KeyUsername); user != "" {
		u.User = url.UserPassword(user, cfg.String(KeyPassword))
	}

	q := url.Values{}
	if db := cfg.String(KeyDatabase); db != "" {
		q.Set("database", db)
	}
	if cfg.Has("encrypt") {
		q.Set("encrypt", cfg.String("encrypt"))
	}
	if cfg.Has("trust_server_certificate") {
		q.Set("TrustServerCertificate", cfg.String("trust_server_certificate"))
	}
	if name := cfg.String(KeyName); name != "" {
		q.Set("app name", name)
	}
	for _, kv := range extraOptions(cfg) {
		q.Set(kv[0], kv[1])
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Connect opens and pings a SQL Server handle.
func (c *SQLServerConnector) Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	connector, err := mssql.NewConnector(c.DSN(cfg))
	if err != nil {
		return nil, err
	}
	return establish(ctx, sql.OpenDB(connector), cfg)
}
