package dbfactory

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteMemory = ":memory:"

// SQLiteConnector opens SQLite databases through the pure Go modernc driver.
type SQLiteConnector struct{}

// DSN returns the database path followed by the pragmas requested in cfg.
func (c *SQLiteConnector) DSN(cfg Config) string {
	var pragmas []string
	if cfg.Has("foreign_key_constraints") {
		v := 0
		if cfg.Bool("foreign_key_constraints") {
			v = 1
		}
		pragmas = append(pragmas, fmt.Sprintf("foreign_keys(%d)", v))
	}
	if ms, ok := cfg.Int("busy_timeout"); ok {
		pragmas = append(pragmas, fmt.Sprintf("busy_timeout(%d)", ms))
	}
	if mode := cfg.String("journal_mode"); mode != "" {
		pragmas = append(pragmas, fmt.Sprintf("journal_mode(%s)", mode))
	}
	if sync := cfg.String("synchronous"); sync != "" {
		pragmas = append(pragmas, fmt.Sprintf("synchronous(%s)", sync))
	}

	path := cfg.String(KeyDatabase)
	if len(pragmas) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=" + strings.Join(pragmas, "&_pragma=")
}

// Connect opens and pings a SQLite handle. File databases must already exist.
func (c *SQLiteConnector) Connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	path := cfg.String(KeyDatabase)
	if path == "" {
		return nil, &ConfigError{Key: KeyDatabase, Err: ErrInvalidConfig}
	}

	if _, err := cfg.BoolE("foreign_key_constraints"); err != nil {
		return nil, err
	}

	memory := isSQLiteMemory(path)
	if !memory {
		if _, err := os.Stat(sqliteFilePath(path)); err != nil {
			return nil, &ConnectError{Driver: SQLite, Err: fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)}
		}
	}

	db, err := sql.Open("sqlite", c.DSN(cfg))
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a distinct database
	if _, ok := cfg.Int(KeyMaxOpenConns); memory && !ok {
		db.SetMaxOpenConns(1)
	}
	return establish(ctx, db, cfg)
}

// sqliteFilePath strips the "file:" scheme and the URI parameters from path.
func sqliteFilePath(path string) string {
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}

func isSQLiteMemory(path string) bool {
	return strings.Contains(path, sqliteMemory) || strings.Contains(path, "mode=memory")
}
