package discounting

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	apperrors "effortcli/internal/errors"
)

// Summarize builds the estimates table for a fit: point estimate,
// standard error, z statistic against zero, two-sided p-value, and a 95%
// confidence interval per parameter. Fixed parameters carry their held value
// and NaN inference columns. cov may be nil, in which case every inference
// column is NaN.
func Summarize(fit *FitResult, cov *Covariance) []ParameterEstimate {
	names := ParamNames()
	values := fit.Params.Vector()
	q := distuv.UnitNormal.Quantile(0.975)

	rows := make([]ParameterEstimate, NumParams)
	for i := 0; i < NumParams; i++ {
		row := ParameterEstimate{
			Name:     names[i],
			Estimate: values[i],
			StdErr:   math.NaN(),
			Z:        math.NaN(),
			PValue:   math.NaN(),
			ConfLow:  math.NaN(),
			ConfHigh: math.NaN(),
			Fixed:    !fit.Mask.free(i),
		}

		if !row.Fixed && cov != nil && i < len(cov.StdErrors) {
			se := cov.StdErrors[i]
			if se > 0 && !math.IsNaN(se) {
				row.StdErr = se
				row.Z = row.Estimate / se
				row.PValue = 2 * distuv.UnitNormal.Survival(math.Abs(row.Z))
				row.ConfLow = row.Estimate - q*se
				row.ConfHigh = row.Estimate + q*se
			}
		}

		rows[i] = row
	}

	return rows
}

// LikelihoodRatio tests a restricted fit against the unrestricted model:
// 2*(ll_u - ll_r), chi-square with df equal to the number of restrictions.
// A small negative statistic from optimizer noise is clamped to zero.
func LikelihoodRatio(unrestricted, restricted *FitResult) (*LRTest, error) {
	df := unrestricted.Mask.FreeCount() - restricted.Mask.FreeCount()
	if df <= 0 {
		return nil, apperrors.Newf(apperrors.CodeEstimation,
			"restricted model has %d free parameters, unrestricted has %d",
			restricted.Mask.FreeCount(), unrestricted.Mask.FreeCount())
	}

	stat := 2 * (unrestricted.LogLik - restricted.LogLik)
	if stat < 0 {
		stat = 0
	}

	chi2 := distuv.ChiSquared{K: float64(df)}
	return &LRTest{
		Statistic: stat,
		DF:        df,
		PValue:    chi2.Survival(stat),
	}, nil
}
