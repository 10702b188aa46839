package dbfactory

import (
	"sync"

	"go.uber.org/multierr"
)

// doParallely runs fn for 0..n-1 concurrently and combines the errors.
func doParallely(n int, fn func(i int) error) error {
	errors := make(chan error, n)
	wg := &sync.WaitGroup{}
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			errors <- fn(i)
			wg.Done()
		}(i)
	}

	go func(wg *sync.WaitGroup) {
		wg.Wait()
		close(errors)
	}(wg)

	var err error
	for e := range errors {
		err = multierr.Append(err, e)
	}
	return err
}
