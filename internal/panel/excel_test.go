package panel

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook creates an xlsx file with the given rows on the given sheet.
func writeWorkbook(t *testing.T, sheet string, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheet)
	require.NoError(t, err)
	f.SetActiveSheet(index)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "panel.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoadExcelRoundTrip(t *testing.T) {
	path := writeWorkbook(t, "decisions", [][]interface{}{
		{"wid", "netdistance", "wage", "pb", "effort"},
		{101, 0, 1.5, 1, 34},
		{102, 7, 2.0, 0, 52},
	})

	obs, skipped, err := LoadExcel(path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, obs, 2)

	assert.Equal(t, 101, obs[0].WorkerID)
	assert.True(t, obs[0].PresentBias)
	assert.Equal(t, 34.0, obs[0].Effort)
	assert.Equal(t, 7.0, obs[1].NetDistance)
}

func TestLoadExcelSkipsTitleRows(t *testing.T) {
	path := writeWorkbook(t, "export", [][]interface{}{
		{"Real-effort experiment export"},
		{},
		{"wid", "netdistance", "wage", "effort"},
		{7, 3, 1.0, 45},
	})

	obs, skipped, err := LoadExcel(path)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, obs, 1)
	assert.Equal(t, 7, obs[0].WorkerID)
}

func TestLoadExcelNoHeader(t *testing.T) {
	path := writeWorkbook(t, "notes", [][]interface{}{
		{"just", "some", "cells"},
		{1, 2, 3},
	})

	_, _, err := LoadExcel(path)
	assert.Error(t, err)
}

func TestLoadFileDispatch(t *testing.T) {
	_, _, err := LoadFile("panel.dta")
	assert.Error(t, err, "Stata files are not supported")
}
