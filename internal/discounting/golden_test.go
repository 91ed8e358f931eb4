package discounting

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Golden tests pin the closed forms to hand-computed values so the
// estimation core stays consistent across code changes.

func TestGoldenOptimalEffort(t *testing.T) {
	tests := []struct {
		name     string
		params   Params
		obs      Observation
		expected float64
	}{
		{
			name:     "quadratic cost immediate decision",
			params:   Params{Beta: 0.8, BetaHat: 1, Delta: 0.99, Gamma: 2, Phi: 20, Alpha: 0, Sigma: 5},
			obs:      Observation{WorkerID: 1, Wage: 2, PresentBias: true},
			expected: 32.0, // 20 * 0.8 * 2
		},
		{
			name:     "quadratic cost one week out",
			params:   Params{Beta: 0.8, BetaHat: 1, Delta: 0.99, Gamma: 2, Phi: 20, Alpha: 0, Sigma: 5},
			obs:      Observation{WorkerID: 1, Wage: 2, NetDistance: 7},
			expected: 40 * math.Pow(0.99, 7), // 37.2967...
		},
		{
			name:     "projection-biased decision",
			params:   Params{Beta: 1, BetaHat: 1, Delta: 1, Gamma: 2, Phi: 20, Alpha: 0.25, Sigma: 5},
			obs:      Observation{WorkerID: 1, Wage: 2, Projection: true},
			expected: 32.0, // 40 / 1.25
		},
		{
			name:     "cubic cost",
			params:   Params{Beta: 1, BetaHat: 1, Delta: 1, Gamma: 3, Phi: 2, Alpha: 0, Sigma: 5},
			obs:      Observation{WorkerID: 1, Wage: 8},
			expected: 4.0, // sqrt(2*8)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, OptimalEffort(tt.params, tt.obs), 1e-9)
		})
	}
}

func TestGoldenLogLikelihood(t *testing.T) {
	bounds := testBounds()
	p := Params{Beta: 1, BetaHat: 1, Delta: 1, Gamma: 2, Phi: 10, Alpha: 0, Sigma: 5}

	// Interior, one sigma above the optimum of 20:
	// -log(5*sqrt(2*pi)) - 0.5 = -3.0284496...
	interior := Observation{WorkerID: 1, Wage: 2, Effort: 25}
	assert.InDelta(t, -math.Log(5*math.Sqrt(2*math.Pi))-0.5, LogLikelihood(p, interior, bounds), 1e-12)

	// Upper censoring with the optimum exactly at the bound: log(0.5).
	pMax := p
	pMax.Phi = 10
	atMax := Observation{WorkerID: 1, Wage: 10, Effort: 100, AtMax: true}
	assert.InDelta(t, -0.6931471805599453, LogLikelihood(pMax, atMax, bounds), 1e-12)
}

func TestGoldenChiSquareCriticalValue(t *testing.T) {
	// The 5% critical value of chi-square(1) is 3.8415; the LR p-value at
	// that statistic must come back as 0.05.
	full := &FitResult{Mask: FullModel(), LogLik: 0}
	restricted := &FitResult{Mask: NoProjection(), LogLik: -3.841459 / 2}

	lr, err := LikelihoodRatio(full, restricted)
	require.NoError(t, err)

	assert.Equal(t, 1, lr.DF)
	assert.InDelta(t, 3.841459, lr.Statistic, 1e-6)
	assert.InDelta(t, 0.05, lr.PValue, 1e-4)
}

func TestGoldenConfidenceIntervalWidth(t *testing.T) {
	// Summarize uses the 97.5% normal quantile (1.959964) for the interval.
	fit := &FitResult{
		Params: Params{Beta: 0.9, BetaHat: 1, Delta: 1, Gamma: 2, Phi: 10, Alpha: 0, Sigma: 5},
		Mask:   FullModel(),
	}

	cov := &Covariance{StdErrors: []float64{0.05, 1, 1, 1, 1, 1, 1}}

	rows := Summarize(fit, cov)
	beta := rows[0]

	require.Equal(t, "beta", beta.Name)
	assert.InDelta(t, 0.9-1.959964*0.05, beta.ConfLow, 1e-5)
	assert.InDelta(t, 0.9+1.959964*0.05, beta.ConfHigh, 1e-5)
	assert.InDelta(t, 18.0, beta.Z, 1e-9)
}
