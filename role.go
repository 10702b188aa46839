package dbfactory

import "fmt"

// resolveRole returns the config used for one side of a read/write split.
// When the role holds a list of sub configs one of them is picked by lb. The
// pick is merged over cfg, its keys winning, and the raw read/write
// specification is dropped from the result.
func resolveRole(cfg Config, role string, lb LoadBalancer[Config]) (Config, error) {
	candidates, err := roleCandidates(cfg[role])
	if err != nil {
		return nil, &ConfigError{Key: role, Err: err}
	}

	var picked Config
	switch len(candidates) {
	case 0:
	case 1:
		picked = candidates[0]
	default:
		picked = lb.Resolve(candidates)
	}
	return cfg.Merge(picked).Except(KeyRead, KeyWrite), nil
}

func roleCandidates(v interface{}) ([]Config, error) {
	if v == nil {
		return nil, nil
	}
	if sub, ok := asConfig(v); ok {
		return []Config{sub}, nil
	}

	switch list := v.(type) {
	case []Config:
		return list, nil
	case []map[string]interface{}:
		out := make([]Config, len(list))
		for i, m := range list {
			out[i] = Config(m)
		}
		return out, nil
	case []interface{}:
		out := make([]Config, len(list))
		for i, item := range list {
			sub, ok := asConfig(item)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %T, not a mapping", ErrInvalidConfig, i, item)
			}
			out[i] = sub
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %T is not a mapping", ErrInvalidConfig, v)
}
