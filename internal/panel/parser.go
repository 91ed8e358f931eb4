package panel

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"effortcli/internal/discounting"
	apperrors "effortcli/internal/errors"
)

// columnIndex maps the observation fields to their column positions.
// Optional columns are -1 when absent.
type columnIndex struct {
	worker      int
	netDistance int
	wage        int
	effort      int
	presentBias int
	prediction  int
	projection  int
	atMin       int
	atMax       int
}

// LoadFile reads an observation table from a CSV or Excel export, dispatching
// on the file extension. It returns the parsed rows and the number of
// malformed rows that were skipped.
func LoadFile(path string) ([]discounting.Observation, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadExcel(path)
	default:
		return nil, 0, apperrors.Newf(apperrors.CodeData, "unsupported panel format %q", filepath.Ext(path))
	}
}

// LoadCSV reads an observation table from a CSV file.
func LoadCSV(path string) ([]discounting.Observation, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeData, "open panel CSV")
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV reads an observation table from CSV data. The header row is mapped
// by name, so column order is irrelevant. Rows that fail to parse are skipped
// and counted rather than aborting the load.
func ReadCSV(r io.Reader) ([]discounting.Observation, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeData, "read panel header")
	}

	cols, err := buildColumnIndex(header)
	if err != nil {
		return nil, 0, err
	}

	var (
		obs     []discounting.Observation
		skipped int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		o, err := parseRecord(cols, record)
		if err != nil {
			skipped++
			continue
		}
		obs = append(obs, o)
	}

	return obs, skipped, nil
}

// buildColumnIndex maps the header row to field positions. Several aliases
// per field are accepted to match the different experiment exports.
func buildColumnIndex(header []string) (columnIndex, error) {
	cols := columnIndex{
		worker: -1, netDistance: -1, wage: -1, effort: -1,
		presentBias: -1, prediction: -1, projection: -1, atMin: -1, atMax: -1,
	}

	for i, raw := range header {
		switch normalizeColumn(raw) {
		case "wid", "worker_id", "subject", "subject_id", "id":
			cols.worker = i
		case "netdistance", "net_distance", "distance":
			cols.netDistance = i
		case "wage", "piece_rate":
			cols.wage = i
		case "effort", "tasks", "tasks_chosen":
			cols.effort = i
		case "pb", "present", "present_bias", "immediate":
			cols.presentBias = i
		case "pred", "prediction", "belief":
			cols.prediction = i
		case "proj", "projection":
			cols.projection = i
		case "mincensor", "min_censor", "at_min":
			cols.atMin = i
		case "maxcensor", "max_censor", "at_max":
			cols.atMax = i
		}
	}

	missing := make([]string, 0, 4)
	if cols.worker < 0 {
		missing = append(missing, "worker id")
	}
	if cols.netDistance < 0 {
		missing = append(missing, "net distance")
	}
	if cols.wage < 0 {
		missing = append(missing, "wage")
	}
	if cols.effort < 0 {
		missing = append(missing, "effort")
	}
	if len(missing) > 0 {
		return cols, apperrors.Newf(apperrors.CodeData,
			"panel header missing required columns: %s", strings.Join(missing, ", ")).
			WithDetail("header", header)
	}

	return cols, nil
}

// parseRecord converts one data row into an observation.
func parseRecord(cols columnIndex, record []string) (discounting.Observation, error) {
	var o discounting.Observation

	worker, err := intField(record, cols.worker)
	if err != nil {
		return o, fmt.Errorf("worker id: %w", err)
	}
	o.WorkerID = worker

	if o.NetDistance, err = floatField(record, cols.netDistance); err != nil {
		return o, fmt.Errorf("net distance: %w", err)
	}
	if o.Wage, err = floatField(record, cols.wage); err != nil {
		return o, fmt.Errorf("wage: %w", err)
	}
	if o.Effort, err = floatField(record, cols.effort); err != nil {
		return o, fmt.Errorf("effort: %w", err)
	}

	if o.PresentBias, err = boolField(record, cols.presentBias); err != nil {
		return o, fmt.Errorf("present-bias flag: %w", err)
	}
	if o.Prediction, err = boolField(record, cols.prediction); err != nil {
		return o, fmt.Errorf("prediction flag: %w", err)
	}
	if o.Projection, err = boolField(record, cols.projection); err != nil {
		return o, fmt.Errorf("projection flag: %w", err)
	}
	if o.AtMin, err = boolField(record, cols.atMin); err != nil {
		return o, fmt.Errorf("min-censor flag: %w", err)
	}
	if o.AtMax, err = boolField(record, cols.atMax); err != nil {
		return o, fmt.Errorf("max-censor flag: %w", err)
	}

	return o, nil
}

// normalizeColumn lowercases a header cell and canonicalizes separators.
func normalizeColumn(col string) string {
	col = strings.ToLower(strings.TrimSpace(col))
	col = strings.ReplaceAll(col, " ", "_")
	col = strings.ReplaceAll(col, "-", "_")
	return col
}

// intField parses an integer cell.
func intField(record []string, idx int) (int, error) {
	if idx < 0 || idx >= len(record) {
		return 0, fmt.Errorf("column missing from row")
	}
	v, err := strconv.Atoi(strings.TrimSpace(record[idx]))
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", record[idx], err)
	}
	return v, nil
}

// floatField parses a numeric cell; an empty cell is NaN so cleaning can
// count it as missing rather than the parser dropping the row.
func floatField(record []string, idx int) (float64, error) {
	if idx < 0 || idx >= len(record) {
		return 0, fmt.Errorf("column missing from row")
	}
	s := strings.TrimSpace(record[idx])
	if s == "" || s == "." {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", record[idx], err)
	}
	return v, nil
}

// boolField parses a flag cell; absent columns and empty cells are false.
func boolField(record []string, idx int) (bool, error) {
	if idx < 0 || idx >= len(record) {
		return false, nil
	}
	switch strings.ToLower(strings.TrimSpace(record[idx])) {
	case "1", "true", "yes":
		return true, nil
	case "", "0", "false", "no", ".":
		return false, nil
	default:
		return false, fmt.Errorf("unrecognized flag value %q", record[idx])
	}
}
