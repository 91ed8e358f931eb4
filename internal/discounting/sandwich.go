package discounting

import (
	"context"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	apperrors "effortcli/internal/errors"
)

// Covariance holds a variance estimate for the free parameters of a fit.
type Covariance struct {
	// Matrix is the covariance of the free parameters, in mask order.
	Matrix *mat.SymDense
	// StdErrors is full parameter length; fixed entries are NaN.
	StdErrors []float64
	// Method is "cluster-robust" or "bootstrap".
	Method string
	// Clusters is the number of worker clusters used.
	Clusters int
	// Adjustment is the finite-sample correction applied (sandwich only).
	Adjustment float64
}

// ClusterRobust computes the cluster-robust sandwich covariance of the fitted
// parameters: V = adj * H^{-1} G H^{-1}, with H the finite-difference Hessian
// of the negative log-likelihood at the optimum and G the sum of outer
// products of per-worker score vectors. The finite-sample adjustment is
// C/(C-1) * (N-1)/(N-k).
func (e *Estimator) ClusterRobust(ctx context.Context, obs []Observation, fit *FitResult) (*Covariance, error) {
	began := time.Now()

	ids, groups := groupByWorker(obs)
	if len(ids) < MinClustersForVariance {
		return nil, apperrors.Newf(apperrors.CodeEstimation,
			"need at least %d clusters for cluster-robust variance, got %d",
			MinClustersForVariance, len(ids))
	}

	mask := fit.Mask
	k := mask.FreeCount()
	xhat := mask.Gather(fit.Params)

	e.logger.InfoContext(ctx, "computing cluster-robust covariance",
		"clusters", len(ids),
		"free_params", k,
		"grad_step", e.cfg.GradStep,
	)

	// Bread: Hessian of the negative log-likelihood at the optimum.
	negll := e.objective(obs, fit.Params, mask)
	hess := mat.NewSymDense(k, nil)
	fd.Hessian(hess, negll, xhat, &fd.Settings{Step: hessianStep(e.cfg.GradStep)})

	var bread mat.Dense
	if err := bread.Inverse(hess); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEstimation,
			"likelihood Hessian is singular at the optimum")
	}

	// Meat: outer products of per-cluster scores of the log-likelihood.
	meat := mat.NewSymDense(k, nil)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeEstimation, "variance computation cancelled")
		}

		score, err := e.clusterScore(groups[id], fit.Params, mask, xhat)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeEstimation,
				fmt.Sprintf("score for worker %d", id))
		}
		meat.SymRankOne(meat, 1, mat.NewVecDense(k, score))
	}

	c := float64(len(ids))
	n := float64(len(obs))
	adj := (c / (c - 1)) * ((n - 1) / (n - float64(k)))

	var tmp, v mat.Dense
	tmp.Mul(&bread, meat)
	v.Mul(&tmp, &bread)
	v.Scale(adj, &v)

	cov := mat.NewSymDense(k, nil)
	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			cov.SetSym(i, j, 0.5*(v.At(i, j)+v.At(j, i)))
		}
	}

	se := stdErrorsFromCovariance(cov, mask)

	e.logger.InfoContext(ctx, "cluster-robust covariance completed",
		"duration", time.Since(began),
		"adjustment", adj,
	)

	return &Covariance{
		Matrix:     cov,
		StdErrors:  se,
		Method:     "cluster-robust",
		Clusters:   len(ids),
		Adjustment: adj,
	}, nil
}

// clusterScore computes the score vector (gradient of the log-likelihood)
// summed over one worker's observations, by central differences.
func (e *Estimator) clusterScore(rows []Observation, base Params, mask Mask, xhat []float64) ([]float64, error) {
	k := len(xhat)
	score := make([]float64, k)
	x := make([]float64, k)

	for j := 0; j < k; j++ {
		h := e.cfg.GradStep * math.Max(1, math.Abs(xhat[j]))

		copy(x, xhat)
		x[j] = xhat[j] + h
		up := TotalLogLikelihood(mask.Apply(base, x), rows, e.bounds)

		x[j] = xhat[j] - h
		down := TotalLogLikelihood(mask.Apply(base, x), rows, e.bounds)

		if math.IsInf(up, 0) || math.IsInf(down, 0) || math.IsNaN(up) || math.IsNaN(down) {
			return nil, fmt.Errorf("log-likelihood not finite at perturbation of parameter %d", j)
		}
		score[j] = (up - down) / (2 * h)
	}

	return score, nil
}

// stdErrorsFromCovariance expands the free-parameter covariance diagonal to a
// full-length standard-error vector, NaN for fixed parameters.
func stdErrorsFromCovariance(cov *mat.SymDense, mask Mask) []float64 {
	se := make([]float64, NumParams)
	for i := range se {
		se[i] = math.NaN()
	}
	for j, i := range mask.FreeIndices() {
		d := cov.At(j, j)
		if d >= 0 {
			se[i] = math.Sqrt(d)
		}
	}
	return se
}

// hessianStep widens the gradient step for second differences, which lose
// roughly half the working precision of first differences.
func hessianStep(gradStep float64) float64 {
	return math.Max(gradStep, 1e-4)
}
