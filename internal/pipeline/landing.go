package pipeline

import (
	"sort"

	"sheetflow/internal/model"
)

// IsOccupied is the single occupancy definition for destinations.
// Occupied: text (including whitespace), numbers (including 0), bools.
// Unoccupied: nil, empty string, bare formula text with no cached result.
func IsOccupied(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return false
		}
		if s[0] == '=' {
			return false
		}
	}
	return true
}

// TargetColOffsets returns the 0-based offsets within a shaped grid
// whose columns carry at least one occupied value. Gap columns from
// Keep Format bounding boxes are excluded, so they never influence
// placement or collision checks.
func TargetColOffsets(grid [][]any) []int {
	if len(grid) == 0 {
		return nil
	}
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	var out []int
	for c := 0; c < width; c++ {
		for _, row := range grid {
			if c < len(row) && IsOccupied(row[c]) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// ScanTargetCols finds the highest occupied row across the target
// absolute columns. Returns 0 when those columns are empty.
func ScanTargetCols(cells model.CellMap, targetCols []int) int {
	if len(targetCols) == 0 {
		return 0
	}
	colSet := make(map[int]bool, len(targetCols))
	for _, c := range targetCols {
		colSet[c] = true
	}
	maxRow := 0
	for ref, v := range cells {
		if colSet[ref.Col] && IsOccupied(v) && ref.Row > maxRow {
			maxRow = ref.Row
		}
	}
	return maxRow
}

// ProbeTargetCols checks rows rowStart..rowEnd of the target columns
// for an occupied cell in any of the given cell maps. Scans row-major
// so the reported blocker is the top-left one.
func ProbeTargetCols(rowStart, rowEnd int, targetCols []int, maps ...model.CellMap) (model.CellRef, any, bool) {
	if len(targetCols) == 0 {
		return model.CellRef{}, nil, false
	}
	cols := append([]int(nil), targetCols...)
	sort.Ints(cols)
	for r := rowStart; r <= rowEnd; r++ {
		for _, c := range cols {
			ref := model.CellRef{Row: r, Col: c}
			for _, m := range maps {
				if v, ok := m[ref]; ok && IsOccupied(v) {
					return ref, v, true
				}
			}
		}
	}
	return model.CellRef{}, nil, false
}

// Regions tracks the occupied cells planned by earlier units in the
// same batch, per destination sheet. Owned by one in-flight batch;
// never persisted.
type Regions struct {
	bySheet map[string]model.CellMap
}

func NewRegions() *Regions {
	return &Regions{bySheet: make(map[string]model.CellMap)}
}

func sheetKey(destPath, sheet string) string {
	return destPath + "\x00" + sheet
}

// Add registers the occupied cells of a committed plan so later units
// see them as prior regions.
func (r *Regions) Add(destPath, sheet string, cells model.CellMap) {
	key := sheetKey(destPath, sheet)
	m := r.bySheet[key]
	if m == nil {
		m = make(model.CellMap)
		r.bySheet[key] = m
	}
	for ref, v := range cells {
		if IsOccupied(v) {
			m[ref] = v
		}
	}
}

// Cells returns the prior-region cells for a destination sheet. The
// returned map is shared; callers must not mutate it.
func (r *Regions) Cells(destPath, sheet string) model.CellMap {
	return r.bySheet[sheetKey(destPath, sheet)]
}
