package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"effortcli/internal/config"
	"effortcli/internal/discounting"
)

func TestParseModels(t *testing.T) {
	specs, err := parseModels("full,exponential,noprojection")
	require.NoError(t, err)
	require.Len(t, specs, 3)

	assert.Equal(t, "full", specs[0].name)
	assert.Equal(t, 7, specs[0].mask.FreeCount())
	assert.Equal(t, "exponential", specs[1].name)
	assert.Equal(t, 5, specs[1].mask.FreeCount())
	assert.Equal(t, "noprojection", specs[2].name)
}

func TestParseModelsAlwaysLeadsWithFull(t *testing.T) {
	specs, err := parseModels("sophisticated")
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "full", specs[0].name)
	assert.Equal(t, "sophisticated", specs[1].name)
}

func TestParseModelsDeduplicates(t *testing.T) {
	specs, err := parseModels("full, full ,exponential,exponential")
	require.NoError(t, err)
	assert.Len(t, specs, 2)
}

func TestParseModelsUnknownSpec(t *testing.T) {
	_, err := parseModels("full,hyperbolic")
	assert.Error(t, err)
}

func TestStartParams(t *testing.T) {
	s := config.Default().Estimation.Start
	p := startParams(s)

	assert.Equal(t, s.Beta, p.Beta)
	assert.Equal(t, s.Gamma, p.Gamma)
	assert.Equal(t, s.Sigma, p.Sigma)
	assert.NoError(t, p.Validate())
}

// writePanelCSV writes a simulated panel to disk for the end-to-end run.
func writePanelCSV(t *testing.T, path string, obs []discounting.Observation) {
	t.Helper()

	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	require.NoError(t, w.Write([]string{"wid", "netdistance", "wage", "pb", "pred", "proj", "effort"}))
	for _, o := range obs {
		require.NoError(t, w.Write([]string{
			strconv.Itoa(o.WorkerID),
			strconv.FormatFloat(o.NetDistance, 'g', -1, 64),
			strconv.FormatFloat(o.Wage, 'g', -1, 64),
			flag01(o.PresentBias),
			flag01(o.Prediction),
			flag01(o.Projection),
			strconv.FormatFloat(o.Effort, 'g', -1, 64),
		}))
	}
}

func flag01(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func TestRunEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end estimation in short mode")
	}

	dir := t.TempDir()
	bounds := discounting.EffortBounds{Min: 0, Max: 100}

	truth := discounting.Params{Beta: 0.8, BetaHat: 0.9, Delta: 0.99, Gamma: 2, Phi: 20, Alpha: 0.3, Sigma: 5}
	var design []discounting.Observation
	for w := 1; w <= 30; w++ {
		for _, wage := range []float64{1.0, 2.0} {
			design = append(design,
				discounting.Observation{WorkerID: w, NetDistance: 0, Wage: wage, PresentBias: true},
				discounting.Observation{WorkerID: w, NetDistance: 7, Wage: wage},
				discounting.Observation{WorkerID: w, NetDistance: 3, Wage: wage, Projection: true},
				discounting.Observation{WorkerID: w, NetDistance: 7, Wage: wage, Prediction: true},
			)
		}
	}
	panel := discounting.Simulate(truth, design, bounds, 321)

	dataPath := filepath.Join(dir, "panel.csv")
	writePanelCSV(t, dataPath, panel)

	outDir := filepath.Join(dir, "reports")

	// Console-only logging keeps the test silent about files.
	t.Setenv("EFFORT_LOGGING_OUTPUT", "console")
	t.Setenv("EFFORT_LOGGING_LEVEL", "error")

	err := run(context.Background(), options{
		dataPath:      dataPath,
		outputDir:     outDir,
		configFile:    "",
		models:        "full,exponential",
		bootstrapReps: 0,
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)

	var haveFull, haveExpo, haveFitted, haveSummary bool
	for _, e := range entries {
		name := e.Name()
		switch {
		case len(name) > 15 && name[:15] == "estimates_full_":
			haveFull = true
		case len(name) > 10 && name[:10] == "estimates_" && name[10] == 'e':
			haveExpo = true
		case len(name) > 7 && name[:7] == "fitted_":
			haveFitted = true
		case len(name) > 8 && name[:8] == "summary_":
			haveSummary = true
		}
	}
	assert.True(t, haveFull, "full-model estimates written")
	assert.True(t, haveExpo, "exponential-model estimates written")
	assert.True(t, haveFitted, "fitted values written")
	assert.True(t, haveSummary, "summary written")
}
