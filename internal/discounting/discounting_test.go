package discounting

import (
	"io"
	"log/slog"
)

// Shared fixtures for the package tests: a panel design mirroring the
// experiment's session structure, with decisions about today (present bias),
// dated future work, predictions about a future self, and decisions taken
// right after a work block (projection).

func testBounds() EffortBounds {
	return EffortBounds{Min: 0, Max: 100}
}

func testTrueParams() Params {
	return Params{
		Beta:    0.8,
		BetaHat: 0.9,
		Delta:   0.99,
		Gamma:   2.0,
		Phi:     20.0,
		Alpha:   0.3,
		Sigma:   5.0,
	}
}

func testStart() Params {
	return Params{
		Beta:    1.0,
		BetaHat: 1.0,
		Delta:   1.0,
		Gamma:   1.8,
		Phi:     15.0,
		Alpha:   0.0,
		Sigma:   8.0,
	}
}

// testDesign builds a balanced design for the given number of workers.
// Eleven rows per worker: immediate and dated decisions at two wages,
// prediction rows, and projection rows.
func testDesign(workers int) []Observation {
	var design []Observation
	for w := 1; w <= workers; w++ {
		for _, wage := range []float64{1.0, 2.0} {
			// Decision about work today.
			design = append(design, Observation{
				WorkerID: w, NetDistance: 0, Wage: wage, PresentBias: true,
			})
			// Decisions about dated future work.
			for _, dist := range []float64{3, 7, 14} {
				design = append(design, Observation{
					WorkerID: w, NetDistance: dist, Wage: wage,
				})
			}
		}
		// Prediction about the future self's immediate choice.
		design = append(design, Observation{
			WorkerID: w, NetDistance: 7, Wage: 1.5, Prediction: true,
		})
		// Decisions taken right after a work block.
		design = append(design, Observation{
			WorkerID: w, NetDistance: 3, Wage: 1.0, Projection: true,
		})
		design = append(design, Observation{
			WorkerID: w, NetDistance: 3, Wage: 2.0, Projection: true,
		})
	}
	return design
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
