package estimate

import (
	"fmt"
	"math"
	"sort"

	"github.com/replicest/replicest/pkg/core"
	"github.com/replicest/replicest/pkg/stats"
)

// EvalQuantiles computes, for each selected column and each requested
// probability, the weighted quantile under the chosen interpolation rule.
//
// Active (value, weight) pairs are sorted ascending, and each pair i is
// assigned a position r[i] equal to the share of total active weight
// strictly below it, renormalized so the smallest value sits at r=0 and
// the largest at r=1: r[i] = (sum of weight strictly before i) / (S -
// weight of the last point). This is a deliberate order-statistic
// normalization, not the plain cumulative-mass fraction Σ_{j≤i} w[j]/S;
// it keeps the top pair's interpolation well-defined without a separate
// "probability above attainable mass" branch. For equal weights it
// reduces exactly to the classical (i)/(n-1) order-statistic position, so
// uniform-weight quantiles match the unweighted definition used elsewhere
// in this package (and the weighted median coincides with the plain
// median).
func EvalQuantiles(x *core.Matrix, w []float64, columns []int, opts QuantileOptions) Result {
	var names []string
	var values []float64

	for _, c := range columns {
		pairs := activePairs(x, w, c)
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].Value < pairs[j].Value })
		positions := weightPositions(pairs)

		for _, p := range opts.Breaks {
			names = append(names, fmt.Sprintf("%d_q_%v", c, p))
			values = append(values, weightedQuantile(pairs, positions, p, opts.Interpolation))
		}
	}

	return Result{Names: names, Values: values}
}

func activePairs(x *core.Matrix, w []float64, c int) []stats.WeightedPair {
	mask := core.ActiveMask(x, w, []int{c})
	var pairs []stats.WeightedPair
	for i := 0; i < x.R; i++ {
		if !mask[i] {
			continue
		}
		pairs = append(pairs, stats.WeightedPair{Value: x.At(i, c), Weight: w[i]})
	}
	return pairs
}

// weightPositions computes r[i] as documented on EvalQuantiles. It returns
// nil when there are fewer than two active points (the caller then treats
// the quantile as either NaN or the single point's value).
func weightPositions(pairs []stats.WeightedPair) []float64 {
	n := len(pairs)
	if n < 2 {
		return nil
	}

	sumWgt := 0.0
	for _, p := range pairs {
		sumWgt += p.Weight
	}
	denom := sumWgt - pairs[n-1].Weight

	positions := make([]float64, n)
	running := 0.0
	for i, p := range pairs {
		positions[i] = running / denom
		running += p.Weight
	}
	return positions
}

func weightedQuantile(pairs []stats.WeightedPair, positions []float64, p float64, interp Interpolation) float64 {
	switch len(pairs) {
	case 0:
		return math.NaN()
	case 1:
		return pairs[0].Value
	}

	idx := 0
	for i := 1; i < len(positions) && positions[i] < p; i++ {
		idx = i
	}

	lower, upper := pairs[idx].Value, pairs[idx+1].Value
	switch interp {
	case InterpolationLower:
		return lower
	case InterpolationUpper:
		return upper
	default: // InterpolationLinear
		rLo, rHi := positions[idx], positions[idx+1]
		return lower + (upper-lower)*(p-rLo)/(rHi-rLo+1e-20)
	}
}
