package dbfactory

import (
	"context"
	"testing"
)

func TestHostOrderIsRandomized(t *testing.T) {
	hosts := []string{"h1", "h2", "h3", "h4", "h5"}
	trials := 2000

	rec := &attemptRecorder{}
	factory, reporter := newTestFactory(MySQL, rec, alwaysFail)
	producer := factory.resolver(Normalize(Config{"driver": "mysql", "host": hosts}, "main"))

	first := map[string]int{}
	for i := 0; i < trials; i++ {
		rec.reset()
		if _, err := producer(context.Background()); err == nil {
			t.Fatal("want every host to fail")
		}
		attempted := rec.hosts()
		if len(attempted) != len(hosts) {
			t.Fatalf("want %d attempts, got %d", len(hosts), len(attempted))
		}
		first[attempted[0]]++
	}

	for _, h := range hosts {
		if first[h] == 0 {
			t.Errorf("host %s was never tried first in %d trials", h, trials)
		}
	}
	if reporter.count() != trials {
		t.Errorf("want one report per invocation, got %d for %d trials", reporter.count(), trials)
	}
}
