// Package replicate implements the replication engine: it evaluates an
// elementary estimator across every (imputation, replicate) pair of a
// frozen analysis, then reduces the results into a final point estimate,
// sampling variance, imputation variance, and standard error per
// parameter and per group.
package replicate

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/replicest/replicest/pkg/core"
	"github.com/replicest/replicest/pkg/estimate"
)

// job is one unit of replication work: imputation m, and either the
// primary weight call (r == -1) or replicate-weight column r.
type job struct {
	m, r int
}

// Run evaluates kind over every group of a, using opts already validated
// by estimate.ParseOptions. It fans the (imputation, replicate) grid out
// across goroutines: each worker owns a contiguous slice of the job list
// and writes only into its own output slots — then reduces sequentially
// in canonical (m, r) order so the result never depends on goroutine
// completion order.
func Run(a *core.Analysis, kind estimate.Kind, opts any) (map[GroupKey]*Estimates, error) {
	fn, err := estimate.Dispatch(kind)
	if err != nil {
		return nil, err
	}

	out := make(map[GroupKey]*Estimates)
	for _, key := range groupKeys(a) {
		est, err := runGroup(a, fn, opts, key)
		if err != nil {
			return nil, fmt.Errorf("replicest: group %+v: %w", key, err)
		}
		out[key] = est
	}
	return out, nil
}

func runGroup(a *core.Analysis, fn estimate.Func, opts any, key GroupKey) (*Estimates, error) {
	m := a.NumImputations()
	if m == 0 {
		return &Estimates{}, nil
	}

	nRep := make([]int, m)
	for i := 0; i < m; i++ {
		if rw := a.ReplicateWeightsFor(i); rw != nil {
			nRep[i] = rw.C
		}
	}

	pointOut := make([]estimate.Result, m)
	repOut := make([][]estimate.Result, m)
	for i := range repOut {
		repOut[i] = make([]estimate.Result, nRep[i])
	}

	var jobs []job
	for i := 0; i < m; i++ {
		jobs = append(jobs, job{m: i, r: -1})
		for r := 0; r < nRep[i]; r++ {
			jobs = append(jobs, job{m: i, r: r})
		}
	}

	runJobs(jobs, func(j job) {
		x := a.X[j.m]
		var w []float64
		if j.r == -1 {
			w = a.WeightsFor(j.m)
		} else {
			w = a.ReplicateWeightsFor(j.m).Column(j.r)
		}
		w = maskWeights(x, w, key)
		res := fn(x, w, a.Columns, opts)
		if j.r == -1 {
			pointOut[j.m] = res
		} else {
			repOut[j.m][j.r] = res
		}
	})

	return reduce(pointOut, repOut, a.Factor)
}

// runJobs partitions jobs into runtime.GOMAXPROCS(0) contiguous chunks and
// runs each chunk in its own goroutine, waiting for all of them before
// returning. Each job writes into a slot owned by no other job, so there
// is no need for synchronization inside do.
func runJobs(jobs []job, do func(job)) {
	if len(jobs) == 0 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(jobs) {
		workers = len(jobs)
	}

	var wg sync.WaitGroup
	jobsPerWorker := (len(jobs) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * jobsPerWorker
		end := start + jobsPerWorker
		if end > len(jobs) {
			end = len(jobs)
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				do(jobs[i])
			}
		}(start, end)
	}
	wg.Wait()
}

// reduce combines per-imputation point and replicate results into the
// final Estimates via jackknife/BRR sampling variance and Rubin's rules
// for imputation variance. Floating point summation order is fixed by
// imputation and replicate index, never by completion order, since
// runJobs has already fully materialized pointOut and repOut before this
// function runs.
func reduce(pointOut []estimate.Result, repOut [][]estimate.Result, factor float64) (*Estimates, error) {
	m := len(pointOut)
	names := pointOut[0].Names
	p := len(names)

	for i, res := range pointOut {
		if !sameNames(res.Names, names) {
			return nil, fmt.Errorf("parameter names disagree: imputation 0 has %v, imputation %d has %v", names, i, res.Names)
		}
	}
	for i, reps := range repOut {
		for r, res := range reps {
			if !sameNames(res.Names, names) {
				return nil, fmt.Errorf("parameter names disagree: imputation 0 has %v, imputation %d replicate %d has %v", names, i, r, res.Names)
			}
		}
	}

	samplingVariance := make([][]float64, m) // per imputation
	for i := 0; i < m; i++ {
		v := make([]float64, p)
		for _, rep := range repOut[i] {
			for k := 0; k < p; k++ {
				d := rep.Values[k] - pointOut[i].Values[k]
				v[k] += d * d
			}
		}
		for k := 0; k < p; k++ {
			v[k] *= factor
		}
		samplingVariance[i] = v
	}

	finalEstimate := make([]float64, p)
	for i := 0; i < m; i++ {
		for k := 0; k < p; k++ {
			finalEstimate[k] += pointOut[i].Values[k]
		}
	}
	for k := 0; k < p; k++ {
		finalEstimate[k] /= float64(m)
	}

	withinVariance := make([]float64, p)
	for i := 0; i < m; i++ {
		for k := 0; k < p; k++ {
			withinVariance[k] += samplingVariance[i][k]
		}
	}
	for k := 0; k < p; k++ {
		withinVariance[k] /= float64(m)
	}

	betweenVariance := make([]float64, p)
	if m > 1 {
		for i := 0; i < m; i++ {
			for k := 0; k < p; k++ {
				d := pointOut[i].Values[k] - finalEstimate[k]
				betweenVariance[k] += d * d
			}
		}
		for k := 0; k < p; k++ {
			betweenVariance[k] /= float64(m - 1)
		}
	}

	imputationVariance := make([]float64, p)
	standardError := make([]float64, p)
	for k := 0; k < p; k++ {
		imputationVariance[k] = (1 + 1/float64(m)) * betweenVariance[k]
		standardError[k] = math.Sqrt(withinVariance[k] + imputationVariance[k])
	}

	return &Estimates{
		ParameterNames:      names,
		FinalEstimates:      finalEstimate,
		SamplingVariances:   withinVariance,
		ImputationVariances: imputationVariance,
		StandardErrors:      standardError,
	}, nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
