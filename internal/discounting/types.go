package discounting

import (
	"math"
)

// Observation is a single subject-session effort decision from the experiment.
// One row per decision: the worker chose Effort tasks at piece rate Wage, with
// NetDistance days between the decision date and the work date.
type Observation struct {
	WorkerID    int     `json:"worker_id"`
	NetDistance float64 `json:"net_distance"` // days between decision and work
	Wage        float64 `json:"wage"`         // piece rate per task
	PresentBias bool    `json:"present_bias"` // work happens on the decision date
	Prediction  bool    `json:"prediction"`   // row predicts a future self's choice
	Projection  bool    `json:"projection"`   // decided right after exerting effort
	Effort      float64 `json:"effort"`       // chosen number of tasks
	AtMin       bool    `json:"at_min"`       // effort censored at the lower bound
	AtMax       bool    `json:"at_max"`       // effort censored at the upper bound
}

// IsValid checks if the observation can enter the likelihood.
func (o Observation) IsValid() bool {
	return o.WorkerID > 0 && o.Wage > 0 && o.NetDistance >= 0 &&
		!math.IsNaN(o.Effort) && !math.IsInf(o.Effort, 0) &&
		!(o.AtMin && o.AtMax)
}

// EffortBounds are the task limits the experiment imposes on a decision.
// Efforts at a bound are treated as censored.
type EffortBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// IsValid checks if the bounds describe a non-degenerate choice set.
func (b EffortBounds) IsValid() bool {
	return b.Min >= 0 && b.Max > b.Min
}

// NumParams is the size of the structural parameter vector.
const NumParams = 7

// Parameter vector indices, in reporting order.
const (
	idxBeta = iota
	idxBetaHat
	idxDelta
	idxGamma
	idxPhi
	idxAlpha
	idxSigma
)

// Params is the structural parameter vector of the discounting model.
type Params struct {
	Beta    float64 `json:"beta"`    // present-bias weight on today
	BetaHat float64 `json:"betahat"` // believed future present bias
	Delta   float64 `json:"delta"`   // daily discount factor
	Gamma   float64 `json:"gamma"`   // cost curvature, > 1
	Phi     float64 `json:"phi"`     // cost scale, > 0
	Alpha   float64 `json:"alpha"`   // projection-bias loading, > -1
	Sigma   float64 `json:"sigma"`   // implementation error SD, > 0
}

// ParamNames returns the parameter names in vector order.
func ParamNames() []string {
	return []string{"beta", "betahat", "delta", "gamma", "phi", "alpha", "sigma"}
}

// Vector returns the parameters as a slice in vector order.
func (p Params) Vector() []float64 {
	return []float64{p.Beta, p.BetaHat, p.Delta, p.Gamma, p.Phi, p.Alpha, p.Sigma}
}

// ParamsFromVector builds Params from a full-length slice.
func ParamsFromVector(x []float64) Params {
	return Params{
		Beta:    x[idxBeta],
		BetaHat: x[idxBetaHat],
		Delta:   x[idxDelta],
		Gamma:   x[idxGamma],
		Phi:     x[idxPhi],
		Alpha:   x[idxAlpha],
		Sigma:   x[idxSigma],
	}
}

// Validate reports the first constraint the parameter vector violates.
// The optimizer treats any violation as an infinite objective, which keeps
// the search inside the economically meaningful region.
func (p Params) Validate() error {
	switch {
	case !(p.Beta > 0):
		return &ValidationError{Field: "beta", Message: "present-bias weight must be positive", Value: p.Beta}
	case !(p.BetaHat > 0):
		return &ValidationError{Field: "betahat", Message: "believed present-bias weight must be positive", Value: p.BetaHat}
	case !(p.Delta > 0):
		return &ValidationError{Field: "delta", Message: "discount factor must be positive", Value: p.Delta}
	case !(p.Gamma > 1):
		return &ValidationError{Field: "gamma", Message: "cost curvature must exceed 1", Value: p.Gamma}
	case !(p.Phi > 0):
		return &ValidationError{Field: "phi", Message: "cost scale must be positive", Value: p.Phi}
	case !(p.Alpha > -1):
		return &ValidationError{Field: "alpha", Message: "projection loading must exceed -1", Value: p.Alpha}
	case !(p.Sigma > 0):
		return &ValidationError{Field: "sigma", Message: "error SD must be positive", Value: p.Sigma}
	}
	for i, v := range p.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: ParamNames()[i], Message: "parameter is not finite", Value: v}
		}
	}
	return nil
}

// Mask selects which parameters the optimizer may move. Fixed entries hold
// their starting values; TieBetaHat pins betahat to beta (sophistication).
type Mask struct {
	Fixed      [NumParams]bool
	TieBetaHat bool
}

// FullModel returns the unrestricted mask: all seven parameters free.
func FullModel() Mask {
	return Mask{}
}

// Exponential returns the exponential-discounting restriction:
// beta and betahat held at their starting values (typically 1).
func Exponential() Mask {
	var m Mask
	m.Fixed[idxBeta] = true
	m.Fixed[idxBetaHat] = true
	return m
}

// Sophisticated returns the sophistication restriction: betahat tied to beta,
// so the agent correctly anticipates its own present bias.
func Sophisticated() Mask {
	return Mask{TieBetaHat: true}
}

// NoProjection returns the restriction alpha fixed at its starting value
// (typically 0), shutting down projection bias.
func NoProjection() Mask {
	var m Mask
	m.Fixed[idxAlpha] = true
	return m
}

// free reports whether parameter i is a free coordinate of the search.
func (m Mask) free(i int) bool {
	if m.Fixed[i] {
		return false
	}
	if m.TieBetaHat && i == idxBetaHat {
		return false
	}
	return true
}

// FreeCount returns the number of free parameters.
func (m Mask) FreeCount() int {
	n := 0
	for i := 0; i < NumParams; i++ {
		if m.free(i) {
			n++
		}
	}
	return n
}

// FreeIndices returns the full-vector indices of the free parameters,
// in vector order.
func (m Mask) FreeIndices() []int {
	idx := make([]int, 0, NumParams)
	for i := 0; i < NumParams; i++ {
		if m.free(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Gather extracts the free coordinates of p into a compact slice.
func (m Mask) Gather(p Params) []float64 {
	full := p.Vector()
	free := make([]float64, 0, NumParams)
	for _, i := range m.FreeIndices() {
		free = append(free, full[i])
	}
	return free
}

// Apply scatters the free coordinates over base, keeping fixed entries from
// base and resolving the betahat tie afterwards.
func (m Mask) Apply(base Params, free []float64) Params {
	full := base.Vector()
	for j, i := range m.FreeIndices() {
		full[i] = free[j]
	}
	p := ParamsFromVector(full)
	if m.TieBetaHat {
		p.BetaHat = p.Beta
	}
	return p
}

// FitConfig controls the likelihood optimization and the finite-difference
// machinery used for scores and the Hessian.
type FitConfig struct {
	MaxIterations int
	Tolerance     float64
	GradStep      float64
}

// DefaultFitConfig returns the settings used when the caller passes zeros.
func DefaultFitConfig() FitConfig {
	return FitConfig{
		MaxIterations: 2000,
		Tolerance:     1e-9,
		GradStep:      1e-5,
	}
}

// withDefaults fills zero fields from DefaultFitConfig.
func (c FitConfig) withDefaults() FitConfig {
	d := DefaultFitConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.GradStep <= 0 {
		c.GradStep = d.GradStep
	}
	return c
}

// FitResult holds a converged (or best-effort) maximum-likelihood fit.
type FitResult struct {
	Params          Params       `json:"params"`
	LogLik          float64      `json:"loglik"`
	Converged       bool         `json:"converged"`
	Status          string       `json:"status"`
	Iterations      int          `json:"iterations"`
	FuncEvaluations int          `json:"func_evaluations"`
	N               int          `json:"n"`
	Clusters        int          `json:"clusters"`
	Mask            Mask         `json:"-"`
	Start           Params       `json:"-"`
	Bounds          EffortBounds `json:"bounds"`
}

// ParameterEstimate is one row of the reported estimates table.
type ParameterEstimate struct {
	Name     string  `json:"name"`
	Estimate float64 `json:"estimate"`
	StdErr   float64 `json:"std_err"`
	Z        float64 `json:"z"`
	PValue   float64 `json:"p_value"`
	ConfLow  float64 `json:"conf_low"`
	ConfHigh float64 `json:"conf_high"`
	Fixed    bool    `json:"fixed"`
}

// LRTest is a likelihood-ratio comparison of a restricted fit against the
// unrestricted model.
type LRTest struct {
	Statistic float64 `json:"statistic"`
	DF        int     `json:"df"`
	PValue    float64 `json:"p_value"`
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	return ve.Message
}

// Minimum cluster count for the sandwich estimator to be meaningful.
const MinClustersForVariance = 2
