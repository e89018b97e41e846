package estimate

import (
	"fmt"
	"math"

	"github.com/replicest/replicest/pkg/core"
	"github.com/replicest/replicest/pkg/stats"
	"gonum.org/v1/gonum/mat"
)

// EvalLinearRegression treats the first of the selected columns as the
// response y and the rest as regressors, fitting GLS with diagonal
// weights: beta = (X'WX)^-1 X'Wy. A singular or underdetermined
// normal-equations matrix is numerical degeneracy, not an error: every
// parameter comes back NaN.
func EvalLinearRegression(x *core.Matrix, w []float64, columns []int, opts RegressionOptions) Result {
	names := regressionNames(columns, opts)
	if len(columns) == 0 {
		return Result{}
	}

	responseCol := columns[0]
	regressorCols := columns[1:]
	p := len(regressorCols)
	if opts.Intercept {
		p++
	}

	if p == 0 {
		return Result{Names: names, Values: allNaN(len(names))}
	}

	mask := core.ActiveMask(x, w, columns)
	var rows []int
	for i := 0; i < x.R; i++ {
		if !mask[i] {
			continue
		}
		rows = append(rows, i)
	}
	n := len(rows)
	if n < p {
		return Result{Names: names, Values: allNaN(len(names))}
	}

	xd := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	wv := make([]float64, n)
	for i, r := range rows {
		col := 0
		if opts.Intercept {
			xd.Set(i, 0, 1)
			col = 1
		}
		for _, c := range regressorCols {
			xd.Set(i, col, x.At(r, c))
			col++
		}
		y.SetVec(i, x.At(r, responseCol))
		wv[i] = w[r]
	}

	sumWgt := stats.SumWeights(wv)
	wMat := mat.NewDiagDense(n, wv)

	var xtw mat.Dense
	xtw.Mul(xd.T(), wMat)

	var xtwx mat.Dense
	xtwx.Mul(&xtw, xd)

	var xtwy mat.VecDense
	xtwy.MulVec(&xtw, y)

	var xtwxInv mat.Dense
	if err := xtwxInv.Inverse(&xtwx); err != nil {
		return Result{Names: names, Values: allNaN(len(names))}
	}

	var beta mat.VecDense
	beta.MulVec(&xtwxInv, &xtwy)

	var fitted mat.VecDense
	fitted.MulVec(xd, &beta)

	sigma2 := 0.0
	yMean, _ := stats.WeightedMean(y.RawVector().Data, wv)
	for i := 0; i < n; i++ {
		resid := y.AtVec(i) - fitted.AtVec(i)
		sigma2 += wv[i] * resid * resid
	}
	sigma2 /= sumWgt
	varY := stats.WeightedVariance(y.RawVector().Data, wv, yMean, sumWgt)
	r2 := 1 - sigma2/varY

	values := make([]float64, 0, len(names))
	for i := 0; i < p; i++ {
		values = append(values, beta.AtVec(i))
	}
	for i := 0; i < p; i++ {
		values = append(values, math.Sqrt(sigma2*xtwxInv.At(i, i)))
	}
	values = append(values, r2, sigma2, float64(n))

	return Result{Names: names, Values: values}
}

func regressionNames(columns []int, opts RegressionOptions) []string {
	if len(columns) == 0 {
		return nil
	}
	regressorCols := columns[1:]
	var labels []string
	if opts.Intercept {
		labels = append(labels, "intercept")
	}
	for _, c := range regressorCols {
		labels = append(labels, fmt.Sprintf("%d", c))
	}

	names := make([]string, 0, 2*len(labels)+3)
	for _, l := range labels {
		names = append(names, "beta_"+l)
	}
	for _, l := range labels {
		names = append(names, "se_"+l)
	}
	names = append(names, "R2", "sigma2", "N")
	return names
}

func allNaN(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
