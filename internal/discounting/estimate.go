package discounting

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	apperrors "effortcli/internal/errors"
)

// Estimator orchestrates the maximum-likelihood fit and the variance
// computations for one panel.
type Estimator struct {
	bounds EffortBounds
	cfg    FitConfig
	logger *slog.Logger
}

// NewEstimator creates an estimator for the given task bounds.
func NewEstimator(bounds EffortBounds, cfg FitConfig, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{
		bounds: bounds,
		cfg:    cfg.withDefaults(),
		logger: logger,
	}
}

// Bounds returns the task bounds the estimator censors against.
func (e *Estimator) Bounds() EffortBounds {
	return e.bounds
}

// Fit maximizes the Tobit-corrected log-likelihood over the free parameters
// selected by mask, starting from start. Fixed parameters hold their starting
// values throughout.
func (e *Estimator) Fit(ctx context.Context, obs []Observation, start Params, mask Mask) (*FitResult, error) {
	began := time.Now()

	if err := e.validateInputs(obs, start, mask); err != nil {
		e.logger.ErrorContext(ctx, "fit input validation failed", "error", err)
		return nil, apperrors.Wrap(err, apperrors.CodeEstimation, "validate fit inputs")
	}

	e.logger.InfoContext(ctx, "starting likelihood fit",
		"observations", len(obs),
		"clusters", countClusters(obs),
		"free_params", mask.FreeCount(),
		"max_iterations", e.cfg.MaxIterations,
	)

	fit, err := e.fit(ctx, obs, start, mask)
	if err != nil {
		e.logger.ErrorContext(ctx, "likelihood fit failed", "error", err)
		return nil, err
	}

	e.logger.InfoContext(ctx, "likelihood fit completed",
		"duration", time.Since(began),
		"loglik", fit.LogLik,
		"converged", fit.Converged,
		"status", fit.Status,
		"iterations", fit.Iterations,
	)

	return fit, nil
}

// fit runs the two-stage optimization without logging; Bootstrap reuses it
// for each replication.
func (e *Estimator) fit(ctx context.Context, obs []Observation, start Params, mask Mask) (*FitResult, error) {
	objective := e.objective(obs, start, mask)
	x0 := mask.Gather(start)

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEstimation, "fit cancelled")
	}

	// Stage 1: derivative-free search from the configured start. Nelder-Mead
	// copes with the kinked censored-tail region better than a line search.
	settings := &optimize.Settings{
		MajorIterations: e.cfg.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   e.cfg.Tolerance,
			Iterations: 50,
		},
	}

	problem := optimize.Problem{Func: objective}

	nm, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEstimation, "simplex stage")
	}

	best := nm
	status := nm.Status

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEstimation, "fit cancelled")
	}

	// Stage 2: gradient polish from the simplex optimum. A line-search
	// failure here is not fatal; the simplex result stands.
	gradProblem := optimize.Problem{
		Func: objective,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, objective, x, &fd.Settings{
				Formula: fd.Central,
				Step:    e.cfg.GradStep,
			})
		},
	}

	bfgs, bfgsErr := optimize.Minimize(gradProblem, nm.X, settings, &optimize.BFGS{})
	if bfgsErr == nil && bfgs.F <= nm.F {
		best = bfgs
		status = bfgs.Status
	}

	if math.IsInf(best.F, 0) || math.IsNaN(best.F) {
		return nil, apperrors.Newf(apperrors.CodeEstimation,
			"objective did not attain a finite value (status %v)", status)
	}

	fitted := mask.Apply(start, best.X)
	if err := fitted.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeEstimation, "fitted parameters invalid")
	}

	return &FitResult{
		Params:          fitted,
		LogLik:          -best.F,
		Converged:       status != optimize.NotTerminated && status != optimize.Failure,
		Status:          status.String(),
		Iterations:      best.Stats.MajorIterations,
		FuncEvaluations: best.Stats.FuncEvaluations,
		N:               len(obs),
		Clusters:        countClusters(obs),
		Mask:            mask,
		Start:           start,
		Bounds:          e.bounds,
	}, nil
}

// objective builds the negative total log-likelihood over the free vector.
func (e *Estimator) objective(obs []Observation, base Params, mask Mask) func(x []float64) float64 {
	bounds := e.bounds
	return func(x []float64) float64 {
		p := mask.Apply(base, x)
		ll := TotalLogLikelihood(p, obs, bounds)
		if math.IsInf(ll, -1) || math.IsNaN(ll) {
			return math.Inf(1)
		}
		return -ll
	}
}

// validateInputs validates the panel, start, and mask before a fit.
func (e *Estimator) validateInputs(obs []Observation, start Params, mask Mask) error {
	if len(obs) == 0 {
		return fmt.Errorf("no observations provided")
	}
	if !e.bounds.IsValid() {
		return fmt.Errorf("invalid effort bounds: min=%.3f, max=%.3f", e.bounds.Min, e.bounds.Max)
	}
	if err := start.Validate(); err != nil {
		return fmt.Errorf("starting values: %w", err)
	}
	if mask.FreeCount() == 0 {
		return fmt.Errorf("restriction mask leaves no free parameters")
	}
	for i, o := range obs {
		if !o.IsValid() {
			return fmt.Errorf("observation %d invalid: worker=%d wage=%.3f effort=%.3f",
				i, o.WorkerID, o.Wage, o.Effort)
		}
	}
	return nil
}

// countClusters counts the distinct worker ids in the panel.
func countClusters(obs []Observation) int {
	seen := make(map[int]struct{}, len(obs))
	for _, o := range obs {
		seen[o.WorkerID] = struct{}{}
	}
	return len(seen)
}

// groupByWorker partitions the panel by worker id, with ids in ascending
// order so the variance computation is deterministic.
func groupByWorker(obs []Observation) ([]int, map[int][]Observation) {
	groups := make(map[int][]Observation)
	for _, o := range obs {
		groups[o.WorkerID] = append(groups[o.WorkerID], o)
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids, groups
}
