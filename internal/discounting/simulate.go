package discounting

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Simulate draws an effort choice for every row of design from the model at
// parameters p: the closed-form optimum plus normal implementation error,
// censored at the task bounds. The design rows supply worker ids, wages,
// distances, and treatment flags; Effort and the censoring flags are
// overwritten. The same seed reproduces the same panel.
func Simulate(p Params, design []Observation, bounds EffortBounds, seed uint64) []Observation {
	noise := distuv.Normal{
		Mu:    0,
		Sigma: p.Sigma,
		Src:   rand.NewSource(seed),
	}

	out := make([]Observation, len(design))
	for i, o := range design {
		latent := OptimalEffort(p, o) + noise.Rand()

		o.AtMin = false
		o.AtMax = false
		switch {
		case latent <= bounds.Min:
			o.Effort = bounds.Min
			o.AtMin = true
		case latent >= bounds.Max:
			o.Effort = bounds.Max
			o.AtMax = true
		default:
			o.Effort = latent
		}
		out[i] = o
	}

	return out
}
