package estimate

import (
	"fmt"
	"math"

	"github.com/replicest/replicest/pkg/core"
	"github.com/replicest/replicest/pkg/stats"
)

// EvalMean computes, per selected column c, the weighted mean, population
// standard deviation, unweighted active count, and sum of active weights.
// Each column's active set is computed independently (a row missing
// column c is excluded from c's statistics even if it is present for
// column d).
func EvalMean(x *core.Matrix, w []float64, columns []int) Result {
	names := make([]string, 0, 4*len(columns))
	values := make([]float64, 0, 4*len(columns))

	for _, c := range columns {
		mask := core.ActiveMask(x, w, []int{c})
		var xs, ws []float64
		n := 0
		for i := 0; i < x.R; i++ {
			if !mask[i] {
				continue
			}
			xs = append(xs, x.At(i, c))
			ws = append(ws, w[i])
			n++
		}

		mean, sumWgt := stats.WeightedMean(xs, ws)
		sd := stats.WeightedVariance(xs, ws, mean, sumWgt)
		if !math.IsNaN(sd) {
			sd = math.Sqrt(sd)
		}

		count := float64(n)
		if n == 0 {
			count = math.NaN()
			sumWgt = math.NaN()
		}

		names = append(names,
			fmt.Sprintf("mean_%d", c),
			fmt.Sprintf("sd_%d", c),
			fmt.Sprintf("N_%d", c),
			fmt.Sprintf("sumwgt_%d", c),
		)
		values = append(values, mean, sd, count, sumWgt)
	}

	return Result{Names: names, Values: values}
}
