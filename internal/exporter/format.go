package exporter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"effortcli/internal/discounting"
)

// RunMeta identifies one estimation run in reports and logs.
type RunMeta struct {
	RunID     string
	Timestamp time.Time
	DataFile  string
	N         int
	Clusters  int
}

// ModelReport bundles everything reported for one model specification.
type ModelReport struct {
	Name      string
	Fit       *discounting.FitResult
	Estimates []discounting.ParameterEstimate
	SEMethod  string
	LR        *discounting.LRTest
}

// FormatSummary renders the plain-text report for a run: header block, one
// estimates table per model, and the likelihood-ratio comparisons.
func FormatSummary(meta RunMeta, models []ModelReport) string {
	var b strings.Builder

	b.WriteString("=== DISCOUNTED EFFORT ESTIMATION ===\n")
	fmt.Fprintf(&b, "Run:       %s\n", meta.RunID)
	fmt.Fprintf(&b, "Date:      %s\n", meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Data:      %s\n", meta.DataFile)
	fmt.Fprintf(&b, "N:         %d observations, %d workers\n", meta.N, meta.Clusters)

	for _, m := range models {
		b.WriteString("\n")
		fmt.Fprintf(&b, "--- %s ---\n", strings.ToUpper(m.Name))
		fmt.Fprintf(&b, "Log-likelihood: %.4f  (converged: %v, %s)\n",
			m.Fit.LogLik, m.Fit.Converged, m.Fit.Status)
		if m.SEMethod != "" {
			fmt.Fprintf(&b, "Standard errors: %s, clustered by worker\n", m.SEMethod)
		}

		b.WriteString("Parameter | Estimate |  Std.Err |        z |      p | 95% CI\n")
		b.WriteString("----------|----------|----------|----------|--------|----------------------\n")
		for _, est := range m.Estimates {
			if est.Fixed {
				fmt.Fprintf(&b, "%-9s | %8.4f | %8s | %8s | %6s | (fixed)\n",
					est.Name, est.Estimate, "-", "-", "-")
				continue
			}
			fmt.Fprintf(&b, "%-9s | %8.4f | %8s | %8s | %6s | [%8.4f, %8.4f]\n",
				est.Name, est.Estimate,
				cell(est.StdErr, "%8.4f"),
				cell(est.Z, "%8.3f"),
				cell(est.PValue, "%6.4f"),
				est.ConfLow, est.ConfHigh)
		}

		if m.LR != nil {
			fmt.Fprintf(&b, "LR vs full model: chi2(%d) = %.3f, p = %.4f\n",
				m.LR.DF, m.LR.Statistic, m.LR.PValue)
		}
	}

	return b.String()
}

// cell formats a numeric table cell, rendering NaN as a dash.
func cell(v float64, format string) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf(format, v)
}
