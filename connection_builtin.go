package dbfactory

var (
	_ Connection = (*MySQLConnection)(nil)
	_ Connection = (*PostgresConnection)(nil)
	_ Connection = (*SQLiteConnection)(nil)
	_ Connection = (*SQLServerConnection)(nil)
)

// MySQLConnection is the built-in connection for the mysql driver.
type MySQLConnection struct {
	*BaseConnection
}

// NewMySQLConnection is the built-in ConnectionBuilder for MySQL.
func NewMySQLConnection(producer Producer, database, prefix string, cfg Config) Connection {
	return &MySQLConnection{NewBaseConnection(MySQL, MySQLDialect{}, producer, database, prefix, cfg)}
}

// PostgresConnection is the built-in connection for the pgsql driver.
type PostgresConnection struct {
	*BaseConnection
}

// NewPostgresConnection is the built-in ConnectionBuilder for PostgreSQL.
func NewPostgresConnection(producer Producer, database, prefix string, cfg Config) Connection {
	return &PostgresConnection{NewBaseConnection(Postgres, PostgresDialect{}, producer, database, prefix, cfg)}
}

// SearchPath returns the configured schema search path, "public" by default.
func (c *PostgresConnection) SearchPath() string {
	if path := c.config.String(KeySchema); path != "" {
		return path
	}
	return "public"
}

// SQLiteConnection is the built-in connection for the sqlite driver.
type SQLiteConnection struct {
	*BaseConnection
}

// NewSQLiteConnection is the built-in ConnectionBuilder for SQLite.
func NewSQLiteConnection(producer Producer, database, prefix string, cfg Config) Connection {
	return &SQLiteConnection{NewBaseConnection(SQLite, SQLiteDialect{}, producer, database, prefix, cfg)}
}

// InMemory reports whether the database lives in memory only.
func (c *SQLiteConnection) InMemory() bool {
	return isSQLiteMemory(c.database)
}

// SQLServerConnection is the built-in connection for the sqlsrv driver.
type SQLServerConnection struct {
	*BaseConnection
}

// NewSQLServerConnection is the built-in ConnectionBuilder for SQL Server.
func NewSQLServerConnection(producer Producer, database, prefix string, cfg Config) Connection {
	return &SQLServerConnection{NewBaseConnection(SQLServer, SQLServerDialect{}, producer, database, prefix, cfg)}
}
