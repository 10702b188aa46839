package dbfactory

import (
	"sync"
)

// Driver identifies the family of database a connection targets.
type Driver string

// Built-in drivers.
const (
	MySQL     Driver = "mysql"
	Postgres  Driver = "pgsql"
	SQLite    Driver = "sqlite"
	SQLServer Driver = "sqlsrv"
)

// BuiltinDrivers lists the drivers supported without any registration.
var BuiltinDrivers = []Driver{MySQL, Postgres, SQLite, SQLServer}

// ConnectorFactory creates a fresh Connector. It is called once per connect
// attempt.
type ConnectorFactory func() Connector

// ConnectionBuilder wraps a write Producer into a Connection.
type ConnectionBuilder func(producer Producer, database, prefix string, cfg Config) Connection

// Registry holds connector and connection overrides. An override registered
// for a driver fully replaces the built-in implementation for that driver, and
// may introduce drivers that have no built-in at all.
//
// The zero value and a nil *Registry are both usable and hold no overrides.
type Registry struct {
	mu          sync.RWMutex
	connectors  map[Driver]ConnectorFactory
	connections map[string]ConnectionBuilder
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterConnector overrides the connector used for driver.
func (r *Registry) RegisterConnector(driver Driver, factory ConnectorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connectors == nil {
		r.connectors = make(map[Driver]ConnectorFactory)
	}
	r.connectors[driver] = factory
}

// RegisterConnection overrides the connection built for driver under the
// given connection name, so named connections of the same driver can be
// overridden independently.
func (r *Registry) RegisterConnection(driver Driver, name string, builder ConnectionBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.connections == nil {
		r.connections = make(map[string]ConnectionBuilder)
	}
	r.connections[connectionKey(driver, name)] = builder
}

// Connector resolves the connector for the driver named in cfg.
func (r *Registry) Connector(cfg Config) (Connector, error) {
	driver, err := driverOf(cfg)
	if err != nil {
		return nil, err
	}

	if factory, ok := r.connectorOverride(driver); ok {
		return factory(), nil
	}

	switch driver {
	case MySQL:
		return &MySQLConnector{}, nil
	case Postgres:
		return &PostgresConnector{}, nil
	case SQLite:
		return &SQLiteConnector{}, nil
	case SQLServer:
		return &SQLServerConnector{}, nil
	}
	return nil, unsupportedDriver(driver)
}

// Connection builds the connection wrapper for driver. Overrides are looked up
// by driver and the connection name held in cfg.
func (r *Registry) Connection(driver Driver, producer Producer, database, prefix string, cfg Config) (Connection, error) {
	if driver == "" {
		return nil, &ConfigError{Key: KeyDriver, Err: ErrMissingDriver}
	}

	if builder, ok := r.connectionOverride(driver, cfg.String(KeyName)); ok {
		return builder(producer, database, prefix, cfg), nil
	}

	switch driver {
	case MySQL:
		return NewMySQLConnection(producer, database, prefix, cfg), nil
	case Postgres:
		return NewPostgresConnection(producer, database, prefix, cfg), nil
	case SQLite:
		return NewSQLiteConnection(producer, database, prefix, cfg), nil
	case SQLServer:
		return NewSQLServerConnection(producer, database, prefix, cfg), nil
	}
	return nil, unsupportedDriver(driver)
}

func (r *Registry) connectorOverride(driver Driver) (ConnectorFactory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.connectors[driver]
	return factory, ok
}

func (r *Registry) connectionOverride(driver Driver, name string) (ConnectionBuilder, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	builder, ok := r.connections[connectionKey(driver, name)]
	return builder, ok
}

func connectionKey(driver Driver, name string) string {
	return string(driver) + "." + name
}

func driverOf(cfg Config) (Driver, error) {
	driver := Driver(cfg.String(KeyDriver))
	if driver == "" {
		return "", &ConfigError{Key: KeyDriver, Err: ErrMissingDriver}
	}
	return driver, nil
}
