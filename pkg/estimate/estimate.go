// Package estimate implements the five weighted elementary estimators:
// Mean, Frequencies, Quantiles, Correlation, and LinearRegression. Each
// is a pure, deterministic function of a data matrix, a weight vector, a
// column selection, and a validated option bundle; none of them ever
// returns an error — numerical degeneracy is reported as NaN parameters.
// Option validation itself happens once, up front, via ParseOptions, so
// "unknown option" / "ill-formed option value" errors surface before any
// replicate call runs rather than once per call.
package estimate

import (
	"fmt"

	"github.com/replicest/replicest/pkg/core"
)

// Kind selects which elementary estimator to run. It mirrors the
// Estimate enumeration exposed to foreign bindings.
type Kind int

const (
	Mean Kind = iota
	Frequencies
	Quantiles
	Correlation
	LinearRegression
)

// String renders the Kind the way the wire protocol and option errors
// name it.
func (k Kind) String() string {
	switch k {
	case Mean:
		return "mean"
	case Frequencies:
		return "frequencies"
	case Quantiles:
		return "quantiles"
	case Correlation:
		return "correlation"
	case LinearRegression:
		return "linreg"
	default:
		return fmt.Sprintf("estimate.Kind(%d)", int(k))
	}
}

// ParseKind maps a server command name to a Kind. ok is false for unknown
// names.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "mean":
		return Mean, true
	case "frequencies":
		return Frequencies, true
	case "quantiles":
		return Quantiles, true
	case "correlation":
		return Correlation, true
	case "linreg":
		return LinearRegression, true
	default:
		return 0, false
	}
}

// Result is the ordered vector of named parameters an estimator call
// produces. Names must be identical across every (imputation, replicate)
// call within one analysis — the replication engine treats a mismatch as
// a fatal error.
type Result struct {
	Names  []string
	Values []float64
}

// Func is the common shape of all five elementary estimators, taking the
// options already validated by ParseOptions.
type Func func(x *core.Matrix, w []float64, columns []int, opts any) Result

// Dispatch returns the Func implementing kind.
func Dispatch(kind Kind) (Func, error) {
	switch kind {
	case Mean:
		return func(x *core.Matrix, w []float64, columns []int, opts any) Result {
			return EvalMean(x, w, columns)
		}, nil
	case Frequencies:
		return func(x *core.Matrix, w []float64, columns []int, opts any) Result {
			return EvalFrequencies(x, w, columns, opts.(FrequenciesOptions))
		}, nil
	case Quantiles:
		return func(x *core.Matrix, w []float64, columns []int, opts any) Result {
			return EvalQuantiles(x, w, columns, opts.(QuantileOptions))
		}, nil
	case Correlation:
		return func(x *core.Matrix, w []float64, columns []int, opts any) Result {
			return EvalCorrelation(x, w, columns)
		}, nil
	case LinearRegression:
		return func(x *core.Matrix, w []float64, columns []int, opts any) Result {
			return EvalLinearRegression(x, w, columns, opts.(RegressionOptions))
		}, nil
	default:
		return nil, fmt.Errorf("replicest: unknown estimator kind %v", kind)
	}
}
