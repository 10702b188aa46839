package dbfactory

import (
	"context"
	"database/sql"
)

// Producer opens a database handle when invoked. Building a Producer never
// touches the network; callers decide when, and whether, the link is opened.
//
// A Producer is expected to be called once and its result cached by the
// caller, which is what Connection does.
type Producer func(ctx context.Context) (*sql.DB, error)

// resolver returns the Producer for a fully resolved (non split) config.
func (f *Factory) resolver(cfg Config) Producer {
	return func(ctx context.Context) (*sql.DB, error) {
		if cfg.Has(KeyHost) {
			return f.connectWithHosts(ctx, cfg)
		}
		return f.connect(ctx, cfg)
	}
}

func (f *Factory) connect(ctx context.Context, cfg Config) (*sql.DB, error) {
	connector, err := f.registry.Connector(cfg)
	if err != nil {
		return nil, err
	}
	return connector.Connect(ctx, cfg)
}

// connectWithHosts tries the candidate hosts in random order and returns the
// first handle that connects. Only the failure of the last candidate is
// reported and returned. The loop stops with ctx.Err(), unreported, once ctx
// is done.
func (f *Factory) connectWithHosts(ctx context.Context, cfg Config) (*sql.DB, error) {
	hosts, err := cfg.Hosts()
	if err != nil {
		return nil, err
	}

	driver := Driver(cfg.String(KeyDriver))
	candidates := shuffle(hosts)
	last := len(candidates) - 1

	for i, host := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		attempt := cfg.With(KeyHost, host)
		connector, err := f.registry.Connector(attempt)
		if err != nil {
			return nil, err
		}

		db, err := connector.Connect(ctx, attempt)
		if err == nil {
			return db, nil
		}
		// a cancelled caller is not an outage
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		connErr := &ConnectError{Driver: driver, Host: host, Err: err}
		if i < last {
			f.logger.Debug().
				Err(err).
				Str("connection", cfg.String(KeyName)).
				Str("host", host).
				Int("attempt", i+1).
				Msg("database host unreachable, trying next host")
			continue
		}

		f.logger.Error().
			Err(err).
			Str("connection", cfg.String(KeyName)).
			Int("hosts", len(candidates)).
			Msg("all database hosts failed")
		if f.reporter != nil {
			f.reporter.Report(connErr)
		}
		return nil, connErr
	}

	// unreachable: Hosts never returns an empty list without an error
	return nil, &ConfigError{Err: ErrNoHosts}
}
