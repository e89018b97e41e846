package replicate

import (
	"sort"

	"github.com/replicest/replicest/pkg/core"
)

// GroupKey identifies one group of rows within an analysis. A zero-value
// GroupKey (HasGroup false) means "the whole dataset, no grouping".
type GroupKey struct {
	Column   int
	Value    float64
	HasGroup bool
}

// groupKeys enumerates the groups an analysis must be evaluated over: one
// universal group if no GroupSpec is set, otherwise one key per distinct
// value (either the caller-supplied list, or every value observed across
// every imputation's group column).
func groupKeys(a *core.Analysis) []GroupKey {
	if a.Group == nil {
		return []GroupKey{{}}
	}

	values := a.Group.Values
	if !a.Group.HasSet {
		values = discoverGroupValues(a.X, a.Group.Column)
	}

	keys := make([]GroupKey, len(values))
	for i, v := range values {
		keys[i] = GroupKey{Column: a.Group.Column, Value: v, HasGroup: true}
	}
	return keys
}

func discoverGroupValues(matrices []*core.Matrix, col int) []float64 {
	seen := make(map[float64]struct{})
	for _, m := range matrices {
		for i := 0; i < m.R; i++ {
			v := m.At(i, col)
			if v != v {
				continue
			}
			seen[v] = struct{}{}
		}
	}
	out := make([]float64, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

// maskWeights returns a copy of w with every row outside the group zeroed
// out. A zero-valued (ungrouped) key returns w unchanged. The elementary
// estimators already treat w[i] <= 0 as inactive, so masking weight is
// sufficient to restrict any estimator to the group's rows.
func maskWeights(x *core.Matrix, w []float64, key GroupKey) []float64 {
	if !key.HasGroup {
		return w
	}
	masked := make([]float64, len(w))
	for i := range w {
		if x.At(i, key.Column) == key.Value {
			masked[i] = w[i]
		}
	}
	return masked
}
