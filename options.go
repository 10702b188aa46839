package dbfactory

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoadBalancerPolicy define the loadbalancer policy data type
type LoadBalancerPolicy string

// Supported Loadbalancer policy
const (
	RoundRobinLB LoadBalancerPolicy = "ROUND_ROBIN"
	RandomLB     LoadBalancerPolicy = "RANDOM"
)

// Option define the option property
type Option struct {
	Registry         *Registry
	Reporter         ErrorReporter
	Logger           zerolog.Logger
	RoleLB           LoadBalancer[Config]
	QueryTypeChecker QueryTypeChecker
}

// OptionFunc used for option chaining
type OptionFunc func(opt *Option)

// WithRegistry sets the registry holding connector and connection overrides.
func WithRegistry(registry *Registry) OptionFunc {
	return func(opt *Option) {
		opt.Registry = registry
	}
}

// WithErrorReporter sets the sink that receives the terminal failure once a
// host list is exhausted.
func WithErrorReporter(reporter ErrorReporter) OptionFunc {
	return func(opt *Option) {
		opt.Reporter = reporter
	}
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(logger zerolog.Logger) OptionFunc {
	return func(opt *Option) {
		opt.Logger = logger
	}
}

// WithQueryTypeChecker sets the query type checker instance.
// The default one just checks for the presence of the string "RETURNING" in the uppercase query.
func WithQueryTypeChecker(checker QueryTypeChecker) OptionFunc {
	return func(opt *Option) {
		opt.QueryTypeChecker = checker
	}
}

// WithLoadBalancer configure how one of several read or write sub configs is
// picked. Random is the default.
func WithLoadBalancer(lb LoadBalancerPolicy) OptionFunc {
	return func(opt *Option) {
		switch lb {
		case RoundRobinLB:
			opt.RoleLB = &RoundRobinLoadBalancer[Config]{}
		case RandomLB:
			opt.RoleLB = RandomLoadBalancer[Config]{}
		default:
			panic(fmt.Sprintf("LoadBalancer: %s is not supported", lb))
		}
	}
}

func defaultOption() *Option {
	return &Option{
		Logger:           zerolog.Nop(),
		RoleLB:           RandomLoadBalancer[Config]{},
		QueryTypeChecker: &DefaultQueryTypeChecker{},
	}
}
