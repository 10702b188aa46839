package dbfactory

import (
	"github.com/rs/zerolog"
)

// Factory builds Connections from declarative configs.
type Factory struct {
	registry         *Registry
	reporter         ErrorReporter
	logger           zerolog.Logger
	roleLB           LoadBalancer[Config]
	queryTypeChecker QueryTypeChecker
}

// New will return a Factory. Without options only the built-in drivers are
// available, failures are not reported anywhere and nothing is logged.
func New(opts ...OptionFunc) *Factory {
	opt := defaultOption()
	for _, optFunc := range opts {
		optFunc(opt)
	}

	return &Factory{
		registry:         opt.Registry,
		reporter:         opt.Reporter,
		logger:           opt.Logger,
		roleLB:           opt.RoleLB,
		queryTypeChecker: opt.QueryTypeChecker,
	}
}

// Make builds the connection described by cfg under the given name.
//
// When cfg carries a "read" or "write" key the connection is split: its
// default handle is produced from the write side config and a second, read
// only Producer is attached. No handle is opened by Make; a returned
// Connection is always fully wired.
func (f *Factory) Make(cfg Config, name string) (Connection, error) {
	cfg = Normalize(cfg, name)

	if cfg.Has(KeyRead) || cfg.Has(KeyWrite) {
		return f.makeReadWrite(cfg)
	}
	return f.makeSingle(cfg)
}

// MakeNamed builds the named connection of set, or its default connection when
// name is empty.
func (f *Factory) MakeNamed(set *ConfigSet, name string) (Connection, error) {
	cfg, name, err := set.Get(name)
	if err != nil {
		return nil, err
	}
	return f.Make(cfg, name)
}

func (f *Factory) makeSingle(cfg Config) (Connection, error) {
	driver, err := driverOf(cfg)
	if err != nil {
		return nil, err
	}
	return f.build(driver, f.resolver(cfg), cfg)
}

func (f *Factory) makeReadWrite(cfg Config) (Connection, error) {
	write, err := resolveRole(cfg, KeyWrite, f.roleLB)
	if err != nil {
		return nil, err
	}
	read, err := resolveRole(cfg, KeyRead, f.roleLB)
	if err != nil {
		return nil, err
	}

	driver, err := driverOf(write)
	if err != nil {
		return nil, err
	}
	conn, err := f.build(driver, f.resolver(write), write)
	if err != nil {
		return nil, err
	}
	conn.SetReadProducer(f.resolver(read))

	f.logger.Debug().
		Str("connection", cfg.String(KeyName)).
		Str("driver", string(driver)).
		Interface("write_host", write[KeyHost]).
		Interface("read_host", read[KeyHost]).
		Msg("read/write connection configured")
	return conn, nil
}

func (f *Factory) build(driver Driver, producer Producer, cfg Config) (Connection, error) {
	conn, err := f.registry.Connection(driver, producer, cfg.String(KeyDatabase), cfg.String(KeyPrefix), cfg)
	if err != nil {
		return nil, err
	}
	if c, ok := conn.(interface{ SetQueryTypeChecker(QueryTypeChecker) }); ok {
		c.SetQueryTypeChecker(f.queryTypeChecker)
	}
	return conn, nil
}
