// Package facade implements ReplicateEstimates, a single entry point
// that builds an analysis internally from plain matrices and dispatches
// to the replication engine, so that neither foreign bindings nor the
// server ever touch pkg/builder or pkg/core directly.
package facade

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/replicest/replicest/pkg/builder"
	"github.com/replicest/replicest/pkg/core"
	"github.com/replicest/replicest/pkg/estimate"
	"github.com/replicest/replicest/pkg/replicate"
)

// Estimate mirrors the estimator enumeration exposed to foreign
// bindings. It is an alias of estimate.Kind so bindings generated from
// an interface description never need to know the integer encoding.
type Estimate = estimate.Kind

// Re-export the five estimator kinds so callers outside pkg/estimate
// don't need to import it directly.
const (
	Mean             = estimate.Mean
	Frequencies      = estimate.Frequencies
	Quantiles        = estimate.Quantiles
	Correlation      = estimate.Correlation
	LinearRegression = estimate.LinearRegression
)

// ReplicatedEstimates is the flat record returned by ReplicateEstimates,
// one per group. GroupKey is the empty string for an ungrouped
// calculation, or "<column>=<value>" when a group-by is in effect.
type ReplicatedEstimates struct {
	GroupKey            string
	ParameterNames      []string
	FinalEstimates      []float64
	SamplingVariances   []float64
	ImputationVariances []float64
	StandardErrors      []float64
}

// ReplicateEstimates is the native entry point: given nested sequences
// for the imputed data, primary weights, and replicate weights, plus the
// estimator kind, its option map, and the variance factor, it returns
// one ReplicatedEstimates per group, ordered deterministically by group
// key.
//
// x is imputation -> row -> column. w is weight-vector-index -> value
// (length 1 or len(x)). r is imputation-or-shared-index -> row ->
// replicate column; a nil r disables sampling variance. columns selects
// which data columns the estimator reads, in order.
func ReplicateEstimates(
	kind estimate.Kind,
	options map[string]string,
	x [][][]float64,
	w [][]float64,
	r [][][]float64,
	columns []int,
	factor float64,
	groupBy *GroupBy,
) ([]ReplicatedEstimates, error) {
	matrices := make([]*core.Matrix, len(x))
	for i, rows := range x {
		matrices[i] = core.FromRows(rows)
	}

	var replicateMatrices []*core.Matrix
	if r != nil {
		replicateMatrices = make([]*core.Matrix, len(r))
		for i, rows := range r {
			replicateMatrices[i] = core.FromRows(rows)
		}
	}

	b := builder.New().
		WithData(matrices).
		WithWeights(w).
		WithReplicateWeights(replicateMatrices).
		WithVariables(columns).
		WithFactor(factor)

	if groupBy != nil {
		b = b.WithGroupBy(groupBy.Column, groupBy.Values)
	}

	grouped, err := b.Calculate(kind, options)
	if err != nil {
		return nil, fmt.Errorf("replicest: replicate estimates: %w", err)
	}

	return flatten(grouped), nil
}

// GroupBy is the optional grouping argument to ReplicateEstimates.
type GroupBy struct {
	Column int
	Values []float64 // nil means "every observed value"
}

// flatten converts the engine's map[GroupKey]*Estimates into a
// deterministically ordered slice, sorted by group key so repeated calls
// with the same inputs return results in the same order.
func flatten(grouped map[replicate.GroupKey]*replicate.Estimates) []ReplicatedEstimates {
	keys := make([]replicate.GroupKey, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].HasGroup != keys[j].HasGroup {
			return !keys[i].HasGroup
		}
		if keys[i].Column != keys[j].Column {
			return keys[i].Column < keys[j].Column
		}
		return keys[i].Value < keys[j].Value
	})

	out := make([]ReplicatedEstimates, len(keys))
	for i, k := range keys {
		est := grouped[k]
		out[i] = ReplicatedEstimates{
			GroupKey:            keyString(k),
			ParameterNames:      est.ParameterNames,
			FinalEstimates:      est.FinalEstimates,
			SamplingVariances:   est.SamplingVariances,
			ImputationVariances: est.ImputationVariances,
			StandardErrors:      est.StandardErrors,
		}
	}
	return out
}

// keyString renders a GroupKey the way the server's MessagePack response
// flattens it: "<column>=<value>", empty for the ungrouped case.
func keyString(k replicate.GroupKey) string {
	if !k.HasGroup {
		return ""
	}
	return strconv.Itoa(k.Column) + "=" + strconv.FormatFloat(k.Value, 'g', -1, 64)
}
