//go:build gofuzz

//go:generate go install github.com/dvyukov/go-fuzz/go-fuzz@latest
//go:generate go install github.com/dvyukov/go-fuzz/go-fuzz-build@latest

//go:generate go-fuzz-build
//go:generate go-fuzz

package dbfactory

import (
	"context"
	"database/sql"
	"fmt"

	fuzz "github.com/google/gofuzz"
)

// Fuzz drives a failing host list built from data and checks it is exhausted once.
func Fuzz(data []byte) int {

	var hostCount uint8

	fuzz.NewFromGoFuzz(data).Fuzz(&hostCount)

	if hostCount == 0 || hostCount > 32 {
		return 0
	}

	hosts := make([]string, hostCount)
	for i := range hosts {
		hosts[i] = fmt.Sprintf("10.0.0.%d", i+1)
	}

	attempts := map[string]int{}
	registry := NewRegistry()
	registry.RegisterConnector(MySQL, func() Connector {
		return ConnectorFunc(func(_ context.Context, cfg Config) (*sql.DB, error) {
			attempts[cfg.String(KeyHost)]++
			return nil, fmt.Errorf("refused")
		})
	})

	reports := 0
	factory := New(WithRegistry(registry), WithErrorReporter(ReporterFunc(func(error) { reports++ })))
	producer := factory.resolver(Normalize(Config{"driver": "mysql", "host": hosts}, "fuzz"))

	if _, err := producer(context.Background()); err == nil {
		panic("producer succeeded without a reachable host")
	}
	if len(attempts) != int(hostCount) || reports != 1 {
		panic("host list not exhausted exactly once")
	}
	for _, n := range attempts {
		if n != 1 {
			panic("host tried more than once")
		}
	}

	return 1
}
