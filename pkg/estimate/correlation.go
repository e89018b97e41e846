package estimate

import (
	"fmt"
	"math"

	"github.com/replicest/replicest/pkg/core"
	"github.com/replicest/replicest/pkg/stats"
)

// EvalCorrelation applies listwise deletion across every selected column
// simultaneously, then computes the weighted covariance matrix and the
// correlation matrix derived from it. Parameters are emitted for every
// ordered pair (i, j) with i <= j; diagonal correlations are 1, except
// that cov_<i>_<i> and cor_<i>_<i> are NaN when no row is active.
func EvalCorrelation(x *core.Matrix, w []float64, columns []int) Result {
	k := len(columns)
	if k < 2 {
		return Result{}
	}

	mask := core.ActiveMask(x, w, columns)
	var rows []int
	for i := 0; i < x.R; i++ {
		if !mask[i] {
			continue
		}
		rows = append(rows, i)
	}

	ws := make([]float64, len(rows))
	cols := make([][]float64, k)
	for j, c := range columns {
		cols[j] = make([]float64, len(rows))
		for i, r := range rows {
			cols[j][i] = x.At(r, c)
		}
	}
	for i, r := range rows {
		ws[i] = w[r]
	}

	means := make([]float64, k)
	sumWgt := 0.0
	for j := range columns {
		means[j], sumWgt = stats.WeightedMean(cols[j], ws)
	}

	variances := make([]float64, k)
	for j := range columns {
		variances[j] = stats.WeightedVariance(cols[j], ws, means[j], sumWgt)
	}

	var names []string
	var values []float64
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			cov := stats.WeightedCovariance(cols[i], cols[j], ws, means[i], means[j], sumWgt)
			names = append(names, fmt.Sprintf("cov_%d_%d", columns[i], columns[j]))
			values = append(values, cov)

			var cor float64
			if i == j {
				cor = 1.0
				if sumWgt <= 0 || math.IsNaN(variances[i]) {
					cor = math.NaN()
				}
			} else {
				cor = stats.WeightedCorrelation(cov, variances[i], variances[j])
			}
			names = append(names, fmt.Sprintf("cor_%d_%d", columns[i], columns[j]))
			values = append(values, cor)
		}
	}

	return Result{Names: names, Values: values}
}
