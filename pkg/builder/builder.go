// Package builder implements the fluent Builder: a chain of With* calls
// that accumulate data, weights, replicate weights, options, and
// grouping into a core.Analysis, checked and dispatched once by
// Calculate.
package builder

import (
	"fmt"

	"github.com/replicest/replicest/pkg/core"
	"github.com/replicest/replicest/pkg/estimate"
	"github.com/replicest/replicest/pkg/replicate"
)

// Builder wraps a core.Analysis header under construction. Every With*
// method returns a new Builder sharing the same underlying matrices as
// its predecessor, cloning the header cheaply rather than mutating the
// receiver.
type Builder struct {
	a core.Analysis
}

// New returns an empty Builder.
func New() Builder {
	return Builder{a: core.Analysis{Factor: 1}}
}

// WithData sets the imputed data matrices. len(x) is M.
func (b Builder) WithData(x []*core.Matrix) Builder {
	b.a = b.a.Clone()
	b.a.X = x
	return b
}

// WithWeights sets the primary weight vectors: either one vector shared
// across imputations, or one per imputation.
func (b Builder) WithWeights(w [][]float64) Builder {
	b.a = b.a.Clone()
	b.a.W = w
	return b
}

// WithReplicateWeights sets the replicate-weight matrices: either one
// shared across imputations, or one per imputation, or none.
func (b Builder) WithReplicateWeights(r []*core.Matrix) Builder {
	b.a = b.a.Clone()
	b.a.R = r
	return b
}

// WithVariables selects the column indices the estimator will read, in
// order. For LinearRegression, columns[0] is the response.
func (b Builder) WithVariables(columns []int) Builder {
	b.a = b.a.Clone()
	b.a.Columns = append([]int(nil), columns...)
	return b
}

// WithGroupBy restricts every downstream Calculate to rows where column
// col equals each of values. A nil values means "every observed value".
func (b Builder) WithGroupBy(col int, values []float64) Builder {
	b.a = b.a.Clone()
	b.a.Group = &core.GroupSpec{
		Column: col,
		Values: values,
		HasSet: values != nil,
	}
	return b
}

// WithFactor sets the variance factor f the replication engine applies
// to every sampling-variance term.
func (b Builder) WithFactor(f float64) Builder {
	b.a = b.a.Clone()
	b.a.Factor = f
	return b
}

// Analysis exposes the builder's current header, mostly for diagnostics
// (core.Analysis.Summary) and server session introspection.
func (b Builder) Analysis() core.Analysis {
	return b.a
}

// Calculate validates preconditions, freezes the analysis with kind and
// opts, and dispatches to the replication engine. Structural violations —
// shape mismatches, missing data, out-of-range columns — are reported
// here, before any numerical work runs.
func (b Builder) Calculate(kind estimate.Kind, opts map[string]string) (map[replicate.GroupKey]*replicate.Estimates, error) {
	a := b.a.Clone()
	a.Kind = kind.String()
	a.Options = opts

	if err := validate(&a); err != nil {
		return nil, err
	}

	parsed, err := estimate.ParseOptions(kind, opts)
	if err != nil {
		return nil, err
	}

	return replicate.Run(&a, kind, parsed)
}

func validate(a *core.Analysis) error {
	if len(a.X) == 0 {
		return fmt.Errorf("replicest: no data: call WithData before Calculate")
	}
	n := a.X[0].R
	k := a.X[0].C
	for i, x := range a.X {
		if x.R != n || x.C != k {
			return fmt.Errorf("replicest: imputation %d has shape (%d,%d), want (%d,%d): %w", i, x.R, x.C, n, k, core.ErrShapeMismatch)
		}
	}

	if len(a.W) == 0 {
		return fmt.Errorf("replicest: no weights: call WithWeights before Calculate")
	}
	if len(a.W) != 1 && len(a.W) != len(a.X) {
		return fmt.Errorf("replicest: %d weight vectors for %d imputations, want 1 or %d: %w", len(a.W), len(a.X), len(a.X), core.ErrShapeMismatch)
	}
	for i, w := range a.W {
		if len(w) != n {
			return fmt.Errorf("replicest: weight vector %d has length %d, want %d: %w", i, len(w), n, core.ErrShapeMismatch)
		}
	}

	if len(a.R) != 0 {
		if len(a.R) != 1 && len(a.R) != len(a.X) {
			return fmt.Errorf("replicest: %d replicate-weight matrices for %d imputations, want 1 or %d: %w", len(a.R), len(a.X), len(a.X), core.ErrShapeMismatch)
		}
		for i, r := range a.R {
			if r.R != n {
				return fmt.Errorf("replicest: replicate weights %d have %d rows, want %d: %w", i, r.R, n, core.ErrShapeMismatch)
			}
		}
	}

	for _, c := range a.Columns {
		if c < 0 || c >= k {
			return fmt.Errorf("replicest: selected column %d out of range [0,%d): %w", c, k, core.ErrShapeMismatch)
		}
	}
	if len(a.Columns) == 0 {
		return fmt.Errorf("replicest: no variables selected: call WithVariables before Calculate")
	}

	if a.Group != nil {
		if a.Group.Column < 0 || a.Group.Column >= k {
			return fmt.Errorf("replicest: group-by column %d out of range [0,%d): %w", a.Group.Column, k, core.ErrShapeMismatch)
		}
	}

	if a.Factor <= 0 {
		return fmt.Errorf("replicest: variance factor must be positive, got %v", a.Factor)
	}

	return nil
}
