// Package discounting implements maximum-likelihood estimation of a
// quasi-hyperbolic discounting model of effort choice from real-effort
// experiment panel data.
//
// The model has seven structural parameters: present bias (beta), believed
// future present bias (betahat, naive beliefs), a daily exponential discount
// factor (delta), the curvature (gamma) and scale (phi) of a power cost of
// effort, a projection-bias loading (alpha), and the standard deviation of an
// additive normal implementation error (sigma). Effort decisions are censored
// at the task bounds, so the likelihood carries a Tobit correction, and
// standard errors are cluster-robust at the worker level via a sandwich
// estimator.
//
// # Architecture
//
// The package separates the closed forms from the numerical machinery:
//
//   - types.go: observations, parameter vector, restriction masks, results
//   - effort.go: closed-form optimal effort from the first-order condition
//   - likelihood.go: Tobit-corrected per-observation and total log-likelihood
//   - estimate.go: Estimator orchestration and the two-stage optimization
//   - sandwich.go: cluster-robust covariance (Hessian + per-cluster scores)
//   - inference.go: estimate summaries and likelihood-ratio tests
//   - simulate.go: synthetic panel generation from known parameters
//   - bootstrap.go: cluster-resampling covariance alternative
//
// # Usage Example
//
//	est := discounting.NewEstimator(bounds, cfg, slog.Default())
//
//	fit, err := est.Fit(ctx, observations, start, discounting.FullModel())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cov, err := est.ClusterRobust(ctx, observations, fit)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, row := range discounting.Summarize(fit, cov) {
//	    fmt.Printf("%-8s %8.4f (%6.4f)\n", row.Name, row.Estimate, row.StdErr)
//	}
package discounting
