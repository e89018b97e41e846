package core

import (
	"fmt"
	"strings"
)

// GroupSpec restricts an analysis to rows where column Column equals one of
// Values. A nil Values means "every observed non-NaN value of Column".
type GroupSpec struct {
	Column int
	Values []float64
	HasSet bool
}

// Analysis is the shared, clone-cheap header holding references to the
// imputed data matrices, the primary weight vectors, and the
// replicate-weight matrices, plus the small mutable builder state
// (selected columns, group spec, estimator kind, options, variance
// factor). Cloning an Analysis copies this header and its small lists
// (matrix pointers, weight-vector slices, columns, options); the Matrix
// values and weight vectors they refer to are shared, never copied.
type Analysis struct {
	X        []*Matrix   // one matrix per imputation, all same shape
	W        [][]float64 // length 1 or len(X)
	R        []*Matrix   // replicate-weight matrices, length 0, 1, or len(X)
	Columns  []int       // selected column indices
	Group    *GroupSpec
	Kind     string
	Options  map[string]string
	Factor   float64
}

// Clone returns a new header sharing the same underlying matrices and
// weight slices. Mutating the returned Analysis's own fields (Columns,
// Group, Kind, Options, Factor) never affects the original.
func (a Analysis) Clone() Analysis {
	clone := a
	clone.X = append([]*Matrix(nil), a.X...)
	clone.W = append([][]float64(nil), a.W...)
	clone.R = append([]*Matrix(nil), a.R...)
	clone.Columns = append([]int(nil), a.Columns...)
	if a.Options != nil {
		clone.Options = make(map[string]string, len(a.Options))
		for k, v := range a.Options {
			clone.Options[k] = v
		}
	}
	return clone
}

// NumImputations returns len(X), the number of imputed datasets.
func (a Analysis) NumImputations() int { return len(a.X) }

// WeightsFor returns the primary weight vector to use for imputation m,
// honoring the "length 1 or one per imputation" convention W follows.
func (a Analysis) WeightsFor(m int) []float64 {
	if len(a.W) == 1 {
		return a.W[0]
	}
	return a.W[m]
}

// ReplicateWeightsFor returns the replicate-weight matrix for imputation m,
// or nil if none were supplied (n_rep = 0).
func (a Analysis) ReplicateWeightsFor(m int) *Matrix {
	if len(a.R) == 0 {
		return nil
	}
	if len(a.R) == 1 {
		return a.R[0]
	}
	return a.R[m]
}

// NumReplicates returns the number of replicate-weight columns.
func (a Analysis) NumReplicates() int {
	if len(a.R) == 0 {
		return 0
	}
	r := a.R[0]
	if r == nil {
		return 0
	}
	return r.C
}

// ActiveMask reports, for the given columns on matrix x with weight vector
// w, which rows are active: w[i] > 0 and none of columns is NaN on row i.
// Estimators call this for their listwise-deletion row filter instead of
// re-deriving row activity themselves; it leaves the shared matrices
// untouched.
func ActiveMask(x *Matrix, w []float64, columns []int) []bool {
	mask := make([]bool, x.R)
	for i := 0; i < x.R; i++ {
		mask[i] = w[i] > 0 && !x.RowHasNaN(i, columns)
	}
	return mask
}

// Summary renders a one-line human-readable description of the analysis's
// shape, e.g. "mean (3 datasets with 4 cases; 6 weights of sum 8.3)", for
// server and CLI diagnostic logging.
func (a Analysis) Summary() string {
	kind := a.Kind
	if kind == "" {
		kind = "none"
	}

	dataInfo := "no data"
	if len(a.X) > 0 {
		dataInfo = fmt.Sprintf("%d datasets with %d cases", len(a.X), a.X[0].R)
	}

	wgtInfo := "wgt missing"
	if len(a.W) > 0 {
		sum := 0.0
		for _, v := range a.W[0] {
			sum += v
		}
		wgtInfo = fmt.Sprintf("%d weights of sum %.10g", len(a.W[0]), sum)
	}

	var b strings.Builder
	b.WriteString(kind)
	b.WriteString(" (")
	b.WriteString(dataInfo)
	b.WriteString("; ")
	b.WriteString(wgtInfo)
	b.WriteString(")")
	return b.String()
}
