package panel

import (
	"math"

	"effortcli/internal/discounting"
)

// Drop reasons recorded in the cleaning report.
const (
	DropInvalidWorker    = "invalid_worker"
	DropInvalidWage      = "invalid_wage"
	DropMissingEffort    = "missing_effort"
	DropEffortOutOfRange = "effort_out_of_range"
	DropNegativeDistance = "negative_distance"
)

// boundTolerance absorbs rounding in exported effort values when comparing
// against the task bounds.
const boundTolerance = 1e-6

// CleanReport summarizes what cleaning did to the panel.
type CleanReport struct {
	Input   int            `json:"input"`
	Kept    int            `json:"kept"`
	Dropped map[string]int `json:"dropped"`
}

// TotalDropped returns the number of rows removed.
func (r CleanReport) TotalDropped() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Clean filters rows that cannot enter the likelihood and derives censoring
// flags from the task bounds when the export does not carry explicit flags.
// Efforts within rounding tolerance of a bound are snapped onto it.
func Clean(obs []discounting.Observation, bounds discounting.EffortBounds) ([]discounting.Observation, CleanReport) {
	report := CleanReport{
		Input:   len(obs),
		Dropped: make(map[string]int),
	}

	kept := make([]discounting.Observation, 0, len(obs))
	for _, o := range obs {
		switch {
		case o.WorkerID <= 0:
			report.Dropped[DropInvalidWorker]++
			continue
		case math.IsNaN(o.Wage) || o.Wage <= 0:
			report.Dropped[DropInvalidWage]++
			continue
		case math.IsNaN(o.Effort):
			report.Dropped[DropMissingEffort]++
			continue
		case math.IsNaN(o.NetDistance) || o.NetDistance < 0:
			report.Dropped[DropNegativeDistance]++
			continue
		case o.Effort < bounds.Min-boundTolerance || o.Effort > bounds.Max+boundTolerance:
			report.Dropped[DropEffortOutOfRange]++
			continue
		}

		switch {
		case o.Effort <= bounds.Min+boundTolerance:
			o.Effort = bounds.Min
			o.AtMin = true
			o.AtMax = false
		case o.Effort >= bounds.Max-boundTolerance:
			o.Effort = bounds.Max
			o.AtMax = true
			o.AtMin = false
		default:
			// Interior effort: explicit censoring flags in the export must
			// agree with the bounds, otherwise they are stale.
			o.AtMin = false
			o.AtMax = false
		}

		kept = append(kept, o)
	}

	report.Kept = len(kept)
	return kept, report
}
