package dbfactory

import (
	"errors"
	"fmt"
)

// Configuration failures. They are returned wrapped in a *ConfigError.
var (
	ErrUnsupportedDriver = errors.New("unsupported driver")
	ErrMissingDriver     = fmt.Errorf("%w: a database driver must be specified", ErrUnsupportedDriver)
	ErrNoHosts           = errors.New("database hosts array is empty")
	ErrInvalidConfig     = errors.New("invalid database configuration")
)

// ErrDatabaseNotFound is returned by the sqlite connector when the configured
// database file does not exist.
var ErrDatabaseNotFound = errors.New("database file does not exist")

// ConfigError is a fatal configuration problem. It is raised at the point of
// detection and never retried.
type ConfigError struct {
	Driver Driver
	Key    string
	Err    error
}

func (e *ConfigError) Error() string {
	switch {
	case e.Driver != "":
		return fmt.Sprintf("dbfactory: %s [%s]", e.Err, e.Driver)
	case e.Key != "":
		return fmt.Sprintf("dbfactory: %s: %q", e.Err, e.Key)
	}
	return fmt.Sprintf("dbfactory: %s", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ConnectError is a failure returned by a Connector. Host is empty when the
// configuration did not use host based resolution.
type ConnectError struct {
	Driver Driver
	Host   string
	Err    error
}

func (e *ConnectError) Error() string {
	if e.Host == "" {
		return fmt.Sprintf("dbfactory: connect %s: %s", e.Driver, e.Err)
	}
	return fmt.Sprintf("dbfactory: connect %s host %s: %s", e.Driver, e.Host, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// ErrorReporter receives the terminal failure of a host list. It is called at
// most once per Producer invocation.
type ErrorReporter interface {
	Report(err error)
}

// ReporterFunc adapts a plain function to ErrorReporter.
type ReporterFunc func(err error)

// Report calls f(err).
func (f ReporterFunc) Report(err error) {
	f(err)
}

func unsupportedDriver(driver Driver) error {
	return &ConfigError{Driver: driver, Err: ErrUnsupportedDriver}
}
