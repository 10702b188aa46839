package dbfactory

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestMakeSingleConnection(t *testing.T) {
	rec := &attemptRecorder{}
	factory, _ := newTestFactory(Postgres, rec, func(int, Config) (*sql.DB, error) {
		return &sql.DB{}, nil
	})

	conn, err := factory.Make(Config{"driver": "pgsql", "database": "forge", "prefix": "app_"}, "main")
	if err != nil {
		t.Fatalf("make: %s", err)
	}

	if _, ok := conn.(*PostgresConnection); !ok {
		t.Errorf("want *PostgresConnection, got %T", conn)
	}
	if conn.Name() != "main" {
		t.Errorf("want %v, got %v", "main", conn.Name())
	}
	if conn.Driver() != Postgres {
		t.Errorf("want %v, got %v", Postgres, conn.Driver())
	}
	if conn.Database() != "forge" {
		t.Errorf("want %v, got %v", "forge", conn.Database())
	}
	if conn.TablePrefix() != "app_" {
		t.Errorf("want %v, got %v", "app_", conn.TablePrefix())
	}
	if conn.HasReadProducer() {
		t.Error("single connection must not have a read producer")
	}
}

func TestMakeBuiltinConnections(t *testing.T) {
	factory := New()
	for _, driver := range []string{"mysql", "pgsql", "sqlite", "sqlsrv"} {
		conn, err := factory.Make(Config{"driver": driver, "database": ":memory:"}, "main")
		if err != nil {
			t.Fatalf("make %s: %s", driver, err)
		}
		if string(conn.Driver()) != driver {
			t.Errorf("want %v, got %v", driver, conn.Driver())
		}
	}
}

func TestMakeReadWriteSplit(t *testing.T) {
	rec := &attemptRecorder{}
	writeDB, readDB := &sql.DB{}, &sql.DB{}
	factory, _ := newTestFactory(MySQL, rec, func(_ int, cfg Config) (*sql.DB, error) {
		if cfg.String(KeyHost) == "A" {
			return writeDB, nil
		}
		return readDB, nil
	})

	conn, err := factory.Make(Config{
		"driver":   "mysql",
		"database": "forge",
		"username": "forge",
		"write":    Config{"host": "A"},
		"read":     map[string]interface{}{"host": "B", "username": "reader"},
	}, "main")
	if err != nil {
		t.Fatalf("make: %s", err)
	}
	if rec.count() != 0 {
		t.Fatalf("make must not connect, got %d attempts", rec.count())
	}
	if !conn.HasReadProducer() {
		t.Fatal("want a read producer attached")
	}

	db, err := conn.DB(context.Background())
	if err != nil || db != writeDB {
		t.Fatalf("want the write handle, got %p, %v", db, err)
	}
	if got := rec.hosts(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("want only A contacted, got %v", got)
	}

	db, err = conn.ReadDB(context.Background())
	if err != nil || db != readDB {
		t.Fatalf("want the read handle, got %p, %v", db, err)
	}
	if got := rec.hosts(); len(got) != 2 || got[1] != "B" {
		t.Fatalf("want B contacted for reads, got %v", got)
	}

	writeCfg, readCfg := rec.configs[0], rec.configs[1]
	for _, cfg := range []Config{writeCfg, readCfg} {
		if cfg.Has(KeyRead) || cfg.Has(KeyWrite) {
			t.Errorf("resolved config still holds the split: %v", cfg)
		}
		if cfg.String(KeyDatabase) != "forge" || cfg.String(KeyName) != "main" {
			t.Errorf("resolved config lost base keys: %v", cfg)
		}
	}
	if writeCfg.String(KeyUsername) != "forge" || readCfg.String(KeyUsername) != "reader" {
		t.Errorf("want role keys to win, got write=%s read=%s", writeCfg.String(KeyUsername), readCfg.String(KeyUsername))
	}
}

func TestMakeReadReplicaList(t *testing.T) {
	rec := &attemptRecorder{}
	factory, _ := newTestFactory(Postgres, rec, func(int, Config) (*sql.DB, error) {
		return &sql.DB{}, nil
	})
	replicas := map[string]bool{"r1": true, "r2": true, "r3": true}

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		rec.reset()
		conn, err := factory.Make(Config{
			"driver": "pgsql",
			"host":   "primary",
			"read":   []interface{}{Config{"host": "r1"}, Config{"host": "r2"}, map[string]interface{}{"host": "r3"}},
		}, "main")
		if err != nil {
			t.Fatalf("make: %s", err)
		}
		if _, err := conn.ReadDB(context.Background()); err != nil {
			t.Fatalf("read: %s", err)
		}
		host := rec.hosts()[0]
		if !replicas[host] {
			t.Fatalf("read host %s is not one of the replicas", host)
		}
		seen[host] = true
	}
	if len(seen) < 2 {
		t.Errorf("want reads spread over replicas, only saw %v", seen)
	}
}

func TestMakeRoundRobinReplicas(t *testing.T) {
	rec := &attemptRecorder{}
	factory, _ := newTestFactory(Postgres, rec, func(int, Config) (*sql.DB, error) {
		return &sql.DB{}, nil
	}, WithLoadBalancer(RoundRobinLB))

	cfg := Config{
		"driver": "pgsql",
		"read":   []Config{{"host": "r1"}, {"host": "r2"}},
		"write":  Config{"host": "w"},
	}
	var got []string
	for i := 0; i < 2; i++ {
		rec.reset()
		conn, err := factory.Make(cfg, "main")
		if err != nil {
			t.Fatalf("make: %s", err)
		}
		if _, err := conn.ReadDB(context.Background()); err != nil {
			t.Fatalf("read: %s", err)
		}
		got = append(got, rec.hosts()[0])
	}
	if got[0] == got[1] {
		t.Errorf("want alternating replicas, got %v", got)
	}
}

func TestMakeWriteOnlySplit(t *testing.T) {
	rec := &attemptRecorder{}
	factory, _ := newTestFactory(MySQL, rec, func(int, Config) (*sql.DB, error) {
		return &sql.DB{}, nil
	})

	conn, err := factory.Make(Config{"driver": "mysql", "host": "base", "write": Config{"host": "w"}}, "main")
	if err != nil {
		t.Fatalf("make: %s", err)
	}
	if _, err := conn.ReadDB(context.Background()); err != nil {
		t.Fatalf("read: %s", err)
	}
	if got := rec.hosts(); len(got) != 1 || got[0] != "base" {
		t.Errorf("want reads on the base host, got %v", got)
	}
}

func TestMakeUnsupportedDriver(t *testing.T) {
	factory := New()

	_, err := factory.Make(Config{"driver": "oracle"}, "main")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("want *ConfigError, got %v", err)
	}
	if !errors.Is(err, ErrUnsupportedDriver) || !strings.Contains(err.Error(), "oracle") {
		t.Errorf("want unsupported driver naming oracle, got %v", err)
	}

	_, err = factory.registry.Connector(Config{"driver": "oracle"})
	if !errors.Is(err, ErrUnsupportedDriver) || !strings.Contains(err.Error(), "oracle") {
		t.Errorf("want unsupported driver naming oracle, got %v", err)
	}

	_, err = factory.Make(Config{"driver": "oracle", "read": Config{"host": "r"}}, "main")
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("want %v, got %v", ErrUnsupportedDriver, err)
	}
}

func TestMakeMissingDriver(t *testing.T) {
	_, err := New().Make(Config{"database": "forge"}, "main")
	if !errors.Is(err, ErrMissingDriver) {
		t.Errorf("want %v, got %v", ErrMissingDriver, err)
	}
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("a missing driver is an unsupported one, got %v", err)
	}
}

func TestMakeInvalidRole(t *testing.T) {
	_, err := New().Make(Config{"driver": "mysql", "read": "10.0.0.2"}, "main")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("want %v, got %v", ErrInvalidConfig, err)
	}
	_, err = New().Make(Config{"driver": "mysql", "read": []interface{}{Config{}, 42}}, "main")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("want %v, got %v", ErrInvalidConfig, err)
	}
}

type customConnection struct {
	*BaseConnection
}

func TestConnectionOverridePerName(t *testing.T) {
	registry := NewRegistry()
	var built []string
	registry.RegisterConnection(Postgres, "analytics", func(p Producer, database, prefix string, cfg Config) Connection {
		built = append(built, database)
		return &customConnection{NewBaseConnection(Postgres, PostgresDialect{}, p, database, prefix, cfg)}
	})
	factory := New(WithRegistry(registry))

	conn, err := factory.Make(Config{"driver": "pgsql", "database": "warehouse"}, "analytics")
	if err != nil {
		t.Fatalf("make: %s", err)
	}
	if _, ok := conn.(*customConnection); !ok {
		t.Errorf("want the override, got %T", conn)
	}
	if len(built) != 1 || built[0] != "warehouse" {
		t.Errorf("want builder called with the database, got %v", built)
	}

	conn, err = factory.Make(Config{"driver": "pgsql", "database": "forge"}, "main")
	if err != nil {
		t.Fatalf("make: %s", err)
	}
	if _, ok := conn.(*PostgresConnection); !ok {
		t.Errorf("want the built-in for another name, got %T", conn)
	}
}

func TestConnectionOverrideNewDriver(t *testing.T) {
	registry := NewRegistry()
	registry.RegisterConnection("oracle", "main", func(p Producer, database, prefix string, cfg Config) Connection {
		return &customConnection{NewBaseConnection("oracle", PostgresDialect{}, p, database, prefix, cfg)}
	})
	rec := &attemptRecorder{}
	registry.RegisterConnector("oracle", rec.factory(func(int, Config) (*sql.DB, error) {
		return &sql.DB{}, nil
	}))

	conn, err := New(WithRegistry(registry)).Make(Config{"driver": "oracle"}, "main")
	if err != nil {
		t.Fatalf("make: %s", err)
	}
	if _, err := conn.DB(context.Background()); err != nil {
		t.Fatalf("db: %s", err)
	}
	if rec.count() != 1 {
		t.Errorf("want %v, got %v", 1, rec.count())
	}
}

func TestConnectorOverridePrecedence(t *testing.T) {
	registry := NewRegistry()
	override := ConnectorFunc(func(context.Context, Config) (*sql.DB, error) { return nil, nil })
	registry.RegisterConnector(MySQL, func() Connector { return override })

	got, err := registry.Connector(Config{"driver": "mysql"})
	if err != nil {
		t.Fatalf("connector: %s", err)
	}
	if _, ok := got.(ConnectorFunc); !ok {
		t.Errorf("want the override, got %T", got)
	}

	got, err = registry.Connector(Config{"driver": "sqlite"})
	if err != nil {
		t.Fatalf("connector: %s", err)
	}
	if _, ok := got.(*SQLiteConnector); !ok {
		t.Errorf("want the built-in, got %T", got)
	}
}

func TestMakeNamed(t *testing.T) {
	set, err := DecodeConfig([]byte(`
default = "primary"

[connections.primary]
driver = "sqlite"
database = ":memory:"

[connections.reporting]
driver = "pgsql"
database = "reports"
`))
	if err != nil {
		t.Fatalf("decode: %s", err)
	}

	factory := New()
	conn, err := factory.MakeNamed(set, "")
	if err != nil {
		t.Fatalf("make default: %s", err)
	}
	if conn.Name() != "primary" || conn.Driver() != SQLite {
		t.Errorf("want the default sqlite connection, got %s/%s", conn.Name(), conn.Driver())
	}

	conn, err = factory.MakeNamed(set, "reporting")
	if err != nil {
		t.Fatalf("make reporting: %s", err)
	}
	if conn.Database() != "reports" {
		t.Errorf("want %v, got %v", "reports", conn.Database())
	}

	if _, err := factory.MakeNamed(set, "missing"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("want %v, got %v", ErrInvalidConfig, err)
	}
}
