package discounting

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// logProbFloor bounds censored-tail log-probabilities away from -Inf so a
// single far-out boundary observation cannot destroy the objective.
const logProbFloor = -700.0

// LogLikelihood returns the Tobit-corrected log-likelihood contribution of a
// single observation.
//
// Interior efforts contribute a normal density around the closed-form optimum;
// efforts censored at a task bound contribute the corresponding tail
// probability, since any latent optimum beyond the bound produces the same
// observed choice.
func LogLikelihood(p Params, o Observation, b EffortBounds) float64 {
	estar := OptimalEffort(p, o)

	switch {
	case o.AtMin:
		return flooredLog(distuv.UnitNormal.CDF((b.Min - estar) / p.Sigma))
	case o.AtMax:
		return flooredLog(distuv.UnitNormal.Survival((b.Max - estar) / p.Sigma))
	default:
		z := (o.Effort - estar) / p.Sigma
		return distuv.UnitNormal.LogProb(z) - math.Log(p.Sigma)
	}
}

// TotalLogLikelihood sums the log-likelihood over the panel.
// Parameters outside the valid region yield -Inf.
func TotalLogLikelihood(p Params, obs []Observation, b EffortBounds) float64 {
	if p.Validate() != nil {
		return math.Inf(-1)
	}

	total := 0.0
	for _, o := range obs {
		total += LogLikelihood(p, o, b)
	}
	return total
}

// flooredLog is log with a floor for vanishing tail probabilities.
func flooredLog(v float64) float64 {
	if v <= 0 {
		return logProbFloor
	}
	l := math.Log(v)
	if l < logProbFloor {
		return logProbFloor
	}
	return l
}
