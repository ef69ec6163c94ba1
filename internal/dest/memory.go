package dest

import (
	"sheetflow/internal/model"
)

// MemStore is an in-memory destination store, used by tests and dry
// runs. Semantics match ExcelStore: snapshots report occupied cells
// only, commits merge cells into the sheet.
type MemStore struct {
	sheets map[string]model.CellMap
}

func NewMemStore() *MemStore {
	return &MemStore{sheets: make(map[string]model.CellMap)}
}

func key(path, sheetName string) string { return path + "\x00" + sheetName }

// Seed pre-populates a destination cell, for simulating existing data.
func (s *MemStore) Seed(path, sheetName string, row, col int, v any) {
	k := key(path, sheetName)
	if s.sheets[k] == nil {
		s.sheets[k] = make(model.CellMap)
	}
	s.sheets[k][model.CellRef{Row: row, Col: col}] = v
}

// Cell returns the stored value at (row, col), or nil.
func (s *MemStore) Cell(path, sheetName string, row, col int) any {
	return s.sheets[key(path, sheetName)][model.CellRef{Row: row, Col: col}]
}

func (s *MemStore) Snapshot(path, sheetName string, cols []int) (model.CellMap, error) {
	var colSet map[int]bool
	if cols != nil {
		colSet = make(map[int]bool, len(cols))
		for _, c := range cols {
			colSet[c] = true
		}
	}
	out := make(model.CellMap)
	for ref, v := range s.sheets[key(path, sheetName)] {
		if colSet != nil && !colSet[ref.Col] {
			continue
		}
		out[ref] = v
	}
	return out, nil
}

func (s *MemStore) Commit(path, sheetName string, cells model.CellMap) error {
	k := key(path, sheetName)
	if s.sheets[k] == nil {
		s.sheets[k] = make(model.CellMap)
	}
	for ref, v := range cells {
		s.sheets[k][ref] = v
	}
	return nil
}
