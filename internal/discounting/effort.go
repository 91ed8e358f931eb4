package discounting

import "math"

// DiscountFactor returns the net discount weight the decision applies to the
// task payment: delta^netdistance, times beta when the work happens on the
// decision date, times betahat when the row is a prediction about a future
// self (the naive agent discounts the future self's future with betahat).
func DiscountFactor(p Params, o Observation) float64 {
	d := math.Pow(p.Delta, o.NetDistance)
	if o.PresentBias {
		d *= p.Beta
	}
	if o.Prediction {
		d *= p.BetaHat
	}
	return d
}

// OptimalEffort returns the interior optimum of the effort choice problem.
//
// With cost c(e) = e^gamma / (phi*gamma) and discounted piece rate D*w, the
// first-order condition D*w = e^(gamma-1) / phi gives
//
//	e* = (phi * D * w / (1 + alpha*proj))^(1/(gamma-1))
//
// where the (1 + alpha) factor inflates the perceived marginal cost when the
// decision is made immediately after exerting effort (projection bias).
// The value is not clamped to the task bounds; censoring is handled in the
// likelihood.
func OptimalEffort(p Params, o Observation) float64 {
	costState := 1.0
	if o.Projection {
		costState = 1 + p.Alpha
	}
	base := p.Phi * DiscountFactor(p, o) * o.Wage / costState
	if base <= 0 {
		return 0
	}
	return math.Pow(base, 1/(p.Gamma-1))
}
