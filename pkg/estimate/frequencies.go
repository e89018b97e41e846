package estimate

import (
	"fmt"
	"math"
	"sort"

	"github.com/replicest/replicest/pkg/core"
)

// EvalFrequencies computes, per selected column and category, the
// weighted share of active rows equal to that category, plus the
// matching unweighted count.
func EvalFrequencies(x *core.Matrix, w []float64, columns []int, opts FrequenciesOptions) Result {
	var names []string
	var values []float64

	for _, c := range columns {
		cats := opts.Categories
		if cats == nil {
			cats = distinctValues(x, c)
		}

		sumWgt := 0.0
		weightByCat := make(map[float64]float64, len(cats))
		countByCat := make(map[float64]float64, len(cats))
		for _, k := range cats {
			weightByCat[k] = 0
			countByCat[k] = 0
		}

		mask := core.ActiveMask(x, w, []int{c})
		for i := 0; i < x.R; i++ {
			if !mask[i] {
				continue
			}
			v := x.At(i, c)
			sumWgt += w[i]
			if _, tracked := weightByCat[v]; tracked {
				weightByCat[v] += w[i]
				countByCat[v]++
			}
		}

		for _, k := range cats {
			names = append(names,
				fmt.Sprintf("freq_%d_%v", c, k),
				fmt.Sprintf("cnt_%d_%v", c, k),
			)
			freq := weightByCat[k] / sumWgt
			if sumWgt <= 0 {
				freq = math.NaN()
			}
			values = append(values, freq, countByCat[k])
		}
	}

	return Result{Names: names, Values: values}
}

// distinctValues returns the sorted set of distinct non-NaN values
// observed in column c across every row, regardless of weight.
func distinctValues(x *core.Matrix, c int) []float64 {
	seen := make(map[float64]struct{})
	for i := 0; i < x.R; i++ {
		v := x.At(i, c)
		if v != v {
			continue
		}
		seen[v] = struct{}{}
	}
	out := make([]float64, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
