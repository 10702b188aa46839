package dbfactory

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"
)

// MySQLConnector connects to MySQL compatible servers.
type MySQLConnector struct{}

// Config translates cfg into a driver config.
func (c *MySQLConnector) Config(cfg Config) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.String(KeyUsername)
	mc.Passwd = cfg.String(KeyPassword)
	mc.DBName = cfg.String(KeyDatabase)
	mc.ParseTime = true

	if socket := cfg.String(KeyUnixSocket); socket != "" {
		mc.Net = "unix"
		mc.Addr = socket
	} else {
		mc.Net = "tcp"
		mc.Addr = hostPort(cfg, "127.0.0.1", 3306)
	}

	if collation := cfg.String(KeyCollation); collation != "" {
		mc.Collation = collation
	}

	params := map[string]string{}
	if charset := cfg.String(KeyCharset); charset != "" {
		params["charset"] = charset
	}
	for _, kv := range extraOptions(cfg) {
		params[kv[0]] = kv[1]
	}
	if len(params) > 0 {
		mc.Params = params
	}
	return mc
}

// DSN returns the data source name for cfg.
func (c *MySQLConnector) DSN(cfg Config) string {
	return c.Config(cfg).FormatDSN()
}

// Connect opens and pings a MySQL handle.
func (c *MySQLConnector) Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	connector, err := mysql.NewConnector(c.Config(cfg))
	if err != nil {
		return nil, err
	}
	return establish(ctx, sql.OpenDB(connector), cfg)
}
