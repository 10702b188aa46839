package dbfactory

import (
	"math/rand"
	"sync/atomic"
)

// LoadBalancer define the load balancer contract used to pick one of several
// read or write sub configurations.
type LoadBalancer[T any] interface {
	Resolve([]T) T
	Name() LoadBalancerPolicy
}

// RandomLoadBalancer represent for Random LB policy
type RandomLoadBalancer[T any] struct {
}

// Name return the LB policy name
func (lb RandomLoadBalancer[T]) Name() LoadBalancerPolicy {
	return RandomLB
}

// Resolve return a uniformly random element of items
func (lb RandomLoadBalancer[T]) Resolve(items []T) T {
	return items[rand.Intn(len(items))]
}

// RoundRobinLoadBalancer represent for RoundRobin LB policy
type RoundRobinLoadBalancer[T any] struct {
	counter uint64 // Monotonically incrementing counter on every call
}

// Name return the LB policy name
func (lb *RoundRobinLoadBalancer[T]) Name() LoadBalancerPolicy {
	return RoundRobinLB
}

// Resolve return the resolved option for RoundRobin LB
func (lb *RoundRobinLoadBalancer[T]) Resolve(items []T) T {
	return items[lb.predict(len(items))]
}

func (lb *RoundRobinLoadBalancer[T]) predict(n int) int {
	if n <= 1 {
		return 0
	}
	return int((atomic.AddUint64(&lb.counter, 1) - 1) % uint64(n))
}

// shuffle returns a random permutation of items, leaving items untouched.
func shuffle[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	rand.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
