package dbfactory

import (
	"fmt"
	"os"
	"math"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cast"
)

// Well known configuration keys.
const (
	KeyDriver          = "driver"
	KeyHost            = "host"
	KeyPort            = "port"
	KeyRead            = "read"
	KeyWrite           = "write"
	KeyDatabase        = "database"
	KeyPrefix          = "prefix"
	KeyName            = "name"
	KeyUsername        = "username"
	KeyPassword        = "password"
	KeyCharset         = "charset"
	KeyCollation       = "collation"
	KeySSLMode         = "sslmode"
	KeySchema          = "search_path"
	KeyUnixSocket      = "unix_socket"
	KeySticky          = "sticky"
	KeyMaxOpenConns    = "max_open_conns"
	KeyMaxIdleConns    = "max_idle_conns"
	KeyConnMaxLifetime = "conn_max_lifetime"
	KeyConnMaxIdleTime = "conn_max_idle_time"
	KeyOptions         = "options"
)

// Config is the declarative description of one database connection. Values
// may be nested mappings or sequences, e.g. a list of candidate hosts or a
// list of read replicas.
//
// A Config is treated as immutable input: every transformation in this package
// returns a new Config and leaves its argument untouched.
type Config map[string]interface{}

// Normalize returns a copy of cfg with a "prefix" default and the connection
// name filled in. The name is always overwritten, since it identifies the
// connection rather than being part of the user supplied settings.
func Normalize(cfg Config, name string) Config {
	out := cfg.Clone()
	if _, ok := out[KeyPrefix]; !ok {
		out[KeyPrefix] = ""
	}
	out[KeyName] = name
	return out
}

// Clone returns a shallow copy of the config.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Merge returns a copy of c with every key of over applied on top of it.
func (c Config) Merge(over Config) Config {
	out := c.Clone()
	for k, v := range over {
		out[k] = v
	}
	return out
}

// Except returns a copy of c without the given keys.
func (c Config) Except(keys ...string) Config {
	out := c.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// With returns a copy of c with key set to value.
func (c Config) With(key string, value interface{}) Config {
	out := c.Clone()
	out[key] = value
	return out
}

// Has reports whether key is present, even with a nil value.
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Keys returns the config keys in sorted order.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns the value of key as a string, or "" when absent.
func (c Config) String(key string) string {
	s, err := cast.ToStringE(c[key])
	if err != nil {
		return fmt.Sprint(c[key])
	}
	return s
}

// Int returns the value of key as an int. Absent keys, values that do not
// convert and floats with a fractional part yield (0, false).
func (c Config) Int(key string) (int, bool) {
	v, ok := c[key]
	if !ok || v == nil {
		return 0, false
	}
	switch f := v.(type) {
	case float64:
		if f != math.Trunc(f) {
			return 0, false
		}
	case float32:
		if float64(f) != math.Trunc(float64(f)) {
			return 0, false
		}
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool returns the value of key as a bool. Absent keys and values that do not
// convert yield false.
func (c Config) Bool(key string) bool {
	b, _ := c.BoolE(key)
	return b
}

// BoolE is Bool with the conversion error of a present but invalid value.
func (c Config) BoolE(key string) (bool, error) {
	v, ok := c[key]
	if !ok || v == nil {
		return false, nil
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, &ConfigError{Key: key, Err: fmt.Errorf("%w: %s", ErrInvalidConfig, err)}
	}
	return b, nil
}

// Duration returns the value of key as a time.Duration. Strings are parsed
// as durations ("90s"), bare numbers are seconds.
func (c Config) Duration(key string) (time.Duration, bool) {
	switch v := c[key].(type) {
	case nil:
		return 0, false
	case time.Duration:
		return v, true
	case string:
		d, err := cast.ToDurationE(v)
		if err != nil {
			return 0, false
		}
		return d, true
	}
	n, ok := c.Int(key)
	if !ok {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

// Map returns the nested mapping stored under key.
func (c Config) Map(key string) Config {
	sub, _ := asConfig(c[key])
	return sub
}

// Hosts returns the candidate host list. A scalar host is wrapped into a one
// element list. An empty candidate list is a configuration error.
func (c Config) Hosts() ([]string, error) {
	var hosts []string
	switch v := c[KeyHost].(type) {
	case nil:
	case string:
		hosts = []string{v}
	case Config, map[string]interface{}:
		return nil, &ConfigError{Key: KeyHost, Err: ErrInvalidConfig}
	default:
		list, err := cast.ToStringSliceE(v)
		if err != nil {
			return nil, &ConfigError{Key: KeyHost, Err: fmt.Errorf("%w: %s", ErrInvalidConfig, err)}
		}
		for _, h := range list {
			if h == "" {
				return nil, &ConfigError{Key: KeyHost, Err: ErrInvalidConfig}
			}
		}
		hosts = append([]string(nil), list...)
	}

	if len(hosts) == 0 {
		return nil, &ConfigError{Err: ErrNoHosts}
	}
	return hosts, nil
}

func asConfig(v interface{}) (Config, bool) {
	switch m := v.(type) {
	case Config:
		return m, true
	case map[string]interface{}:
		return Config(m), true
	}
	return nil, false
}

// ConfigSet is a collection of named connection configs, usually decoded from
// a file.
type ConfigSet struct {
	Default     string
	Connections map[string]Config
}

// Get returns the named config, or the default one when name is empty.
func (s *ConfigSet) Get(name string) (Config, string, error) {
	if name == "" {
		name = s.Default
	}
	cfg, ok := s.Connections[name]
	if !ok {
		return nil, name, &ConfigError{Key: name, Err: fmt.Errorf("%w: connection not configured", ErrInvalidConfig)}
	}
	return cfg, name, nil
}

type fileConfig struct {
	Default     string                            `toml:"default"`
	Connections map[string]map[string]interface{} `toml:"connections"`
}

// DecodeConfig decodes a TOML document holding a "connections" table with one
// sub table per named connection, and an optional "default" connection name.
//
//	default = "mysql"
//
//	[connections.mysql]
//	driver = "mysql"
//	database = "forge"
//
//	[[connections.mysql.read]]
//	host = ["10.0.0.2", "10.0.0.3"]
//
//	[connections.mysql.write]
//	host = "10.0.0.1"
func DecodeConfig(data []byte) (*ConfigSet, error) {
	var fc fileConfig
	if _, err := toml.Decode(string(data), &fc); err != nil {
		return nil, fmt.Errorf("dbfactory: decode config: %w", err)
	}

	set := &ConfigSet{
		Default:     fc.Default,
		Connections: make(map[string]Config, len(fc.Connections)),
	}
	for name, m := range fc.Connections {
		set.Connections[name] = Config(m)
	}
	return set, nil
}

// LoadConfigFile reads and decodes a TOML config file.
func LoadConfigFile(path string) (*ConfigSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dbfactory: read config: %w", err)
	}
	return DecodeConfig(data)
}
