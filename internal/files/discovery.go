// Package files provides discovery of experiment data files on disk.
package files

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "effortcli/internal/errors"
)

// panelExtensions are the data formats the loader understands.
var panelExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
}

// FindLatestPanel returns the most recently modified panel file (CSV or xlsx)
// in dir. Used when the caller does not name an input file explicitly.
func FindLatestPanel(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeData, "read data directory")
	}

	var (
		latest    string
		latestMod time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !panelExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = entry.Name()
			latestMod = info.ModTime()
		}
	}

	if latest == "" {
		return "", apperrors.Newf(apperrors.CodeData, "no panel files (.csv, .xlsx) in %s", dir)
	}

	return filepath.Join(dir, latest), nil
}
