package estimate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FrequenciesOptions is the validated form of the "categories" option.
// A nil Categories means "use the sorted set of distinct observed values".
type FrequenciesOptions struct {
	Categories []float64
}

// Interpolation selects the tie-break rule for Quantiles.
type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationLower
	InterpolationUpper
)

// QuantileOptions is the validated form of "breaks" and "interpolation".
type QuantileOptions struct {
	Breaks        []float64
	Interpolation Interpolation
}

// RegressionOptions is the validated form of "intercept".
type RegressionOptions struct {
	Intercept bool
}

// ParseOptions validates the raw string->string option map for kind and
// returns the typed bundle Dispatch's Func expects. Unknown keys and
// ill-formed values are reported here, surfaced immediately rather than
// once per replicate call.
func ParseOptions(kind Kind, raw map[string]string) (any, error) {
	switch kind {
	case Mean, Correlation:
		if len(raw) > 0 {
			return nil, fmt.Errorf("replicest: %s takes no options, got %v", kind, keys(raw))
		}
		return nil, nil

	case Frequencies:
		opts := FrequenciesOptions{}
		for k, v := range raw {
			switch k {
			case "categories":
				cats, err := parseFloatList(v)
				if err != nil {
					return nil, fmt.Errorf("replicest: ill-formed categories %q: %w", v, err)
				}
				sort.Float64s(cats)
				opts.Categories = cats
			default:
				return nil, fmt.Errorf("replicest: unknown option %q for frequencies", k)
			}
		}
		return opts, nil

	case Quantiles:
		opts := QuantileOptions{Interpolation: InterpolationLinear}
		for k, v := range raw {
			switch k {
			case "breaks":
				breaks, err := parseFloatList(v)
				if err != nil {
					return nil, fmt.Errorf("replicest: ill-formed breaks %q: %w", v, err)
				}
				for _, p := range breaks {
					if p <= 0 || p >= 1 {
						return nil, fmt.Errorf("replicest: break %v not in (0,1)", p)
					}
				}
				opts.Breaks = breaks
			case "interpolation":
				switch v {
				case "linear":
					opts.Interpolation = InterpolationLinear
				case "lower":
					opts.Interpolation = InterpolationLower
				case "upper":
					opts.Interpolation = InterpolationUpper
				default:
					return nil, fmt.Errorf("replicest: unknown interpolation %q", v)
				}
			default:
				return nil, fmt.Errorf("replicest: unknown option %q for quantiles", k)
			}
		}
		if len(opts.Breaks) == 0 {
			return nil, fmt.Errorf("replicest: quantiles requires a non-empty breaks option")
		}
		return opts, nil

	case LinearRegression:
		opts := RegressionOptions{Intercept: true}
		for k, v := range raw {
			switch k {
			case "intercept":
				switch v {
				case "true":
					opts.Intercept = true
				case "false":
					opts.Intercept = false
				default:
					return nil, fmt.Errorf("replicest: intercept must be \"true\" or \"false\", got %q", v)
				}
			default:
				return nil, fmt.Errorf("replicest: unknown option %q for linreg", k)
			}
		}
		return opts, nil

	default:
		return nil, fmt.Errorf("replicest: unknown estimator kind %v", kind)
	}
}

func parseFloatList(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
