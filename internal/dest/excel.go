// Package dest implements the writer collaborator: destination sheet
// snapshots and per-unit durable commits.
package dest

import (
	"errors"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetflow/internal/apperr"
	"sheetflow/internal/model"
	"sheetflow/pkg/utils"
)

// ExcelStore writes destinations as XLSX workbooks. Workbooks are kept
// open in memory across a batch so successive units to the same file
// see each other's writes without a disk round-trip; every commit still
// saves to disk for crash safety.
type ExcelStore struct {
	books map[string]*excelize.File
	fresh map[string]bool // newly created, default sheet not yet claimed
}

func NewExcelStore() *ExcelStore {
	return &ExcelStore{
		books: make(map[string]*excelize.File),
		fresh: make(map[string]bool),
	}
}

// Close releases all open workbooks. Call when the batch finishes.
func (s *ExcelStore) Close() {
	for _, f := range s.books {
		f.Close()
	}
	s.books = make(map[string]*excelize.File)
	s.fresh = make(map[string]bool)
}

func (s *ExcelStore) book(path string) (*excelize.File, error) {
	if f, ok := s.books[path]; ok {
		return f, nil
	}
	if _, err := os.Stat(path); err == nil {
		f, err := excelize.OpenFile(path)
		if err != nil {
			code := apperr.SaveFailed
			if isLocked(err) {
				code = apperr.FileLocked
			}
			return nil, apperr.New(code, "failed to open destination: %v", err).With("path", path)
		}
		s.books[path] = f
		return f, nil
	}
	f := excelize.NewFile()
	s.books[path] = f
	s.fresh[path] = true
	return f, nil
}

// Snapshot returns the occupied cells of a destination sheet,
// restricted to the given columns (nil means all). A missing file or
// sheet snapshots as empty.
func (s *ExcelStore) Snapshot(path, sheetName string, cols []int) (model.CellMap, error) {
	cells := make(model.CellMap)

	if _, cached := s.books[path]; !cached {
		if _, err := os.Stat(path); err != nil {
			return cells, nil
		}
	}
	f, err := s.book(path)
	if err != nil {
		return nil, err
	}
	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return cells, nil
	}

	var colSet map[int]bool
	if cols != nil {
		colSet = make(map[int]bool, len(cols))
		for _, c := range cols {
			colSet[c] = true
		}
	}

	raw, err := f.GetRows(sheetName)
	if err != nil {
		return nil, apperr.New(apperr.SaveFailed, "failed to read destination: %v", err).With("path", path)
	}
	for ri, rec := range raw {
		for ci, cell := range rec {
			if cell == "" {
				continue
			}
			col := ci + 1
			if colSet != nil && !colSet[col] {
				continue
			}
			cells[model.CellRef{Row: ri + 1, Col: col}] = utils.ParseValue(cell)
		}
	}
	return cells, nil
}

// Commit writes exactly the given cells and saves the workbook to disk.
// Gap cells are absent from the map, so nothing is ever written there.
func (s *ExcelStore) Commit(path, sheetName string, cells model.CellMap) error {
	f, err := s.book(path)
	if err != nil {
		return err
	}

	if idx, err := f.GetSheetIndex(sheetName); err != nil || idx < 0 {
		if _, err := f.NewSheet(sheetName); err != nil {
			return apperr.New(apperr.SaveFailed, "failed to create sheet %s: %v", sheetName, err).
				With("path", path).With("sheet", sheetName)
		}
		// A brand-new workbook carries a default sheet; drop it once a
		// real sheet exists so it does not linger empty.
		if s.fresh[path] && sheetName != "Sheet1" {
			_ = f.DeleteSheet("Sheet1")
		}
	}
	s.fresh[path] = false

	for ref, v := range cells {
		name, err := excelize.CoordinatesToCellName(ref.Col, ref.Row)
		if err != nil {
			return apperr.New(apperr.SaveFailed, "bad cell coordinates: %v", err).With("path", path)
		}
		if err := f.SetCellValue(sheetName, name, v); err != nil {
			return apperr.New(apperr.SaveFailed, "failed to set cell %s: %v", name, err).
				With("path", path).With("sheet", sheetName)
		}
	}

	if err := f.SaveAs(path); err != nil {
		code := apperr.SaveFailed
		if isLocked(err) {
			code = apperr.FileLocked
		}
		return apperr.New(code, "failed to save destination: %v", err).With("path", path)
	}
	return nil
}

func isLocked(err error) bool {
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "used by another process") ||
		strings.Contains(msg, "sharing violation")
}
