package discounting

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	apperrors "effortcli/internal/errors"
)

// Bootstrap estimates the covariance of the fitted parameters by resampling
// worker clusters with replacement, refitting each replicate panel, and
// taking the sample covariance of the replicate estimates. Replications run
// on a worker pool bounded by workers. Replicates whose fit fails are
// dropped; the estimate requires at least two successes.
func (e *Estimator) Bootstrap(ctx context.Context, obs []Observation, fit *FitResult, reps, workers int, seed uint64) (*Covariance, error) {
	began := time.Now()

	if reps < 2 {
		return nil, apperrors.Newf(apperrors.CodeEstimation, "bootstrap needs at least 2 replications, got %d", reps)
	}
	if workers < 1 {
		workers = 1
	}

	ids, groups := groupByWorker(obs)
	if len(ids) < MinClustersForVariance {
		return nil, apperrors.Newf(apperrors.CodeEstimation,
			"need at least %d clusters for the bootstrap, got %d",
			MinClustersForVariance, len(ids))
	}

	mask := fit.Mask
	k := mask.FreeCount()

	e.logger.InfoContext(ctx, "starting cluster bootstrap",
		"replications", reps,
		"workers", workers,
		"clusters", len(ids),
	)

	estimates := make([][]float64, reps)
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for rep := 0; rep < reps; rep++ {
		rep := rep
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			resampled := resampleClusters(ids, groups, rand.NewSource(seed+uint64(rep)))
			refit, err := e.fit(gctx, resampled, fit.Start, mask)
			if err != nil || !refit.Converged {
				failed.Add(1)
				return nil
			}
			estimates[rep] = mask.Gather(refit.Params)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEstimation, "bootstrap cancelled")
	}

	ok := make([][]float64, 0, reps)
	for _, est := range estimates {
		if est != nil {
			ok = append(ok, est)
		}
	}
	if len(ok) < 2 {
		return nil, apperrors.Newf(apperrors.CodeEstimation,
			"only %d of %d bootstrap replications converged", len(ok), reps)
	}

	draws := mat.NewDense(len(ok), k, nil)
	for i, est := range ok {
		draws.SetRow(i, est)
	}

	cov := mat.NewSymDense(k, nil)
	stat.CovarianceMatrix(cov, draws, nil)

	e.logger.InfoContext(ctx, "cluster bootstrap completed",
		"duration", time.Since(began),
		"converged", len(ok),
		"failed", failed.Load(),
	)

	return &Covariance{
		Matrix:    cov,
		StdErrors: stdErrorsFromCovariance(cov, mask),
		Method:    "bootstrap",
		Clusters:  len(ids),
	}, nil
}

// resampleClusters draws len(ids) clusters with replacement and concatenates
// their rows into a replicate panel.
func resampleClusters(ids []int, groups map[int][]Observation, src rand.Source) []Observation {
	rng := rand.New(src)

	out := make([]Observation, 0, len(ids)*4)
	for i := 0; i < len(ids); i++ {
		out = append(out, groups[ids[rng.Intn(len(ids))]]...)
	}
	return out
}
