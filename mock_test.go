package dbfactory

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/DATA-DOG/go-sqlmock"
)

var errRefused = errors.New("connection refused")

// attemptRecorder records every Connect call made through the connectors it
// hands out.
type attemptRecorder struct {
	mu      sync.Mutex
	configs []Config
}

// factory returns a ConnectorFactory whose connectors delegate to fn, passing
// the 1-indexed attempt number.
func (r *attemptRecorder) factory(fn func(attempt int, cfg Config) (*sql.DB, error)) ConnectorFactory {
	return func() Connector {
		return ConnectorFunc(func(ctx context.Context, cfg Config) (*sql.DB, error) {
			r.mu.Lock()
			r.configs = append(r.configs, cfg)
			n := len(r.configs)
			r.mu.Unlock()
			return fn(n, cfg)
		})
	}
}

func (r *attemptRecorder) hosts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.configs))
	for i, cfg := range r.configs {
		out[i] = cfg.String(KeyHost)
	}
	return out
}

func (r *attemptRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.configs)
}

func (r *attemptRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = nil
}

type countingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *countingReporter) Report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *countingReporter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func alwaysFail(int, Config) (*sql.DB, error) {
	return nil, errRefused
}

// newTestFactory returns a factory whose driver connects through rec.
func newTestFactory(driver Driver, rec *attemptRecorder, fn func(int, Config) (*sql.DB, error), opts ...OptionFunc) (*Factory, *countingReporter) {
	registry := NewRegistry()
	registry.RegisterConnector(driver, rec.factory(fn))
	reporter := &countingReporter{}
	opts = append([]OptionFunc{WithRegistry(registry), WithErrorReporter(reporter)}, opts...)
	return New(opts...), reporter
}

func createMock() (db *sql.DB, mock sqlmock.Sqlmock, err error) {
	db, mock, err = sqlmock.New(sqlmock.MonitorPingsOption(true), sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	return
}
