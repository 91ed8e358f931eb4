package panel

import (
	"log/slog"

	"github.com/xuri/excelize/v2"

	"effortcli/internal/discounting"
	apperrors "effortcli/internal/errors"
)

// headerScanDepth is how many leading rows of a sheet are tried as the
// header; experiment exports sometimes carry a title row above the table.
const headerScanDepth = 5

// LoadExcel reads an observation table from an Excel workbook. Sheets are
// scanned in workbook order for the first one whose leading rows contain a
// recognizable header, so export cosmetics (title rows, extra sheets) do not
// matter.
func LoadExcel(path string) ([]discounting.Observation, int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.CodeData, "open panel workbook")
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) < 2 {
			continue
		}

		for h := 0; h < headerScanDepth && h < len(rows)-1; h++ {
			cols, err := buildColumnIndex(rows[h])
			if err != nil {
				continue
			}

			slog.Debug("found panel header in workbook",
				slog.String("sheet", sheet),
				slog.Int("header_row", h),
			)
			obs, skipped := parseRows(cols, rows[h+1:])
			return obs, skipped, nil
		}
	}

	return nil, 0, apperrors.New(apperrors.CodeData,
		"no sheet in the workbook has a recognizable panel header")
}

// parseRows converts sheet rows below the header into observations,
// counting rows that fail to parse.
func parseRows(cols columnIndex, rows [][]string) ([]discounting.Observation, int) {
	var (
		obs     []discounting.Observation
		skipped int
	)
	for _, record := range rows {
		if isEmptyRow(record) {
			continue
		}
		o, err := parseRecord(cols, record)
		if err != nil {
			skipped++
			continue
		}
		obs = append(obs, o)
	}
	return obs, skipped
}

// isEmptyRow reports whether every cell of the row is blank.
func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if cell != "" {
			return false
		}
	}
	return true
}
