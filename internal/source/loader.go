// Package source implements the reader collaborator: it loads XLSX and
// CSV sources into normalized in-memory tables.
package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"sheetflow/internal/apperr"
	"sheetflow/internal/model"
)

// FileLoader reads source sheets from disk, dispatching on extension.
type FileLoader struct{}

func NewLoader() *FileLoader { return &FileLoader{} }

// LoadSheet loads one sheet of a source file. CSV sources have a single
// implicit sheet, so sheetName is ignored for them.
func (l *FileLoader) LoadSheet(path, sheetName string) (*model.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	default:
		return loadXLSX(path, sheetName)
	}
}

// readFailed maps a low-level read error onto a stable code. Permission
// and sharing violations surface as FILE_LOCKED so the caller can tell
// "close the file in Excel" apart from a genuinely broken source.
func readFailed(path string, err error) error {
	code := apperr.SourceReadFailed
	if isLocked(err) {
		code = apperr.FileLocked
	}
	return apperr.New(code, "failed to read source: %v", err).With("path", path)
}

func isLocked(err error) bool {
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "used by another process") ||
		strings.Contains(msg, "sharing violation")
}

// normalize pads ragged rows to the widest row.
func normalize(rows [][]any) [][]any {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	for i, r := range rows {
		for len(r) < width {
			r = append(r, nil)
		}
		rows[i] = r
	}
	return rows
}

// usedRange computes the occupied height and width of a table.
func usedRange(rows [][]any) (height, width int) {
	for ri, row := range rows {
		for ci, v := range row {
			if occupied(v) {
				if ri+1 > height {
					height = ri + 1
				}
				if ci+1 > width {
					width = ci + 1
				}
			}
		}
	}
	return height, width
}

func occupied(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

func buildTable(rows [][]any) *model.Table {
	rows = normalize(rows)
	h, w := usedRange(rows)
	return &model.Table{Rows: rows, UsedHeight: h, UsedWidth: w}
}
