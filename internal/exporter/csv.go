// Package exporter writes estimation results: the estimates table and the
// per-observation fitted values as CSV, and a plain-text summary report.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"effortcli/internal/discounting"
	apperrors "effortcli/internal/errors"
)

// Writer writes result files under a reports directory.
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a result writer rooted at dir.
func NewWriter(dir string, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger}
}

// WriteEstimates writes the estimates table for one model to name under the
// reports directory.
func (w *Writer) WriteEstimates(name string, estimates []discounting.ParameterEstimate) (string, error) {
	headers := []string{"parameter", "estimate", "std_error", "z", "p_value", "ci_low", "ci_high", "fixed"}

	records := make([][]string, 0, len(estimates))
	for _, est := range estimates {
		records = append(records, []string{
			est.Name,
			formatFloat(est.Estimate),
			formatFloat(est.StdErr),
			formatFloat(est.Z),
			formatFloat(est.PValue),
			formatFloat(est.ConfLow),
			formatFloat(est.ConfHigh),
			strconv.FormatBool(est.Fixed),
		})
	}

	return w.writeCSV(name, headers, records)
}

// WriteFitted writes per-observation fitted values and residuals for the
// fitted parameters. Censored rows carry an empty residual since the latent
// choice is not observed.
func (w *Writer) WriteFitted(name string, obs []discounting.Observation, fit *discounting.FitResult) (string, error) {
	headers := []string{
		"worker_id", "net_distance", "wage",
		"present_bias", "prediction", "projection",
		"effort", "optimal_effort", "residual", "censored",
	}

	records := make([][]string, 0, len(obs))
	for _, o := range obs {
		estar := discounting.OptimalEffort(fit.Params, o)

		residual := ""
		censored := "false"
		if o.AtMin || o.AtMax {
			censored = "true"
		} else {
			residual = formatFloat(o.Effort - estar)
		}

		records = append(records, []string{
			strconv.Itoa(o.WorkerID),
			formatFloat(o.NetDistance),
			formatFloat(o.Wage),
			strconv.FormatBool(o.PresentBias),
			strconv.FormatBool(o.Prediction),
			strconv.FormatBool(o.Projection),
			formatFloat(o.Effort),
			formatFloat(estar),
			residual,
			censored,
		})
	}

	return w.writeCSV(name, headers, records)
}

// WriteSummary writes the plain-text report to name under the reports
// directory.
func (w *Writer) WriteSummary(name, content string) (string, error) {
	path := filepath.Join(w.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExport, "create reports directory")
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExport, "write summary report")
	}
	return path, nil
}

// writeCSV writes a CSV file with a UTF-8 BOM so the estimates open cleanly
// in Excel.
func (w *Writer) writeCSV(name string, headers []string, records [][]string) (string, error) {
	path := filepath.Join(w.dir, name)

	w.logger.Info("writing result CSV",
		slog.String("path", path),
		slog.Int("record_count", len(records)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExport, "create reports directory")
	}

	file, err := os.Create(path)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExport, "create result file")
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExport, "write BOM")
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExport, "write headers")
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return "", apperrors.Wrap(err, apperrors.CodeExport, fmt.Sprintf("write record %d", i))
		}
	}

	if err := writer.Error(); err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeExport, "flush result file")
	}
	return path, nil
}

// formatFloat renders a value for CSV; NaN becomes an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 10, 64)
}
