package dbfactory

import (
	"fmt"
	"runtime"
	"testing"

	"go.uber.org/multierr"
)

func TestParallelFunction(t *testing.T) {
	runtime.GOMAXPROCS(runtime.NumCPU())

	seq := []int{1, 2, 3, 4, 5, 6, 7, 8}
	err := doParallely(len(seq), func(i int) error {
		if seq[i]%2 == 1 {
			seq[i] *= seq[i]
			return nil
		}
		return fmt.Errorf("%d is an even number", seq[i])
	})

	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Errorf("want %d combined errors, got %d", 4, n)
	}

	want := []int{1, 2, 9, 4, 25, 6, 49, 8}
	for i := range want {
		if want[i] != seq[i] {
			t.Errorf("Wrong value at position %d. Want: %d, Got: %d", i, want[i], seq[i])
		}
	}
}

func TestParallelFunctionNone(t *testing.T) {
	if err := doParallely(0, func(int) error { return nil }); err != nil {
		t.Errorf("want nil, got %v", err)
	}
}
