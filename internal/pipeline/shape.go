package pipeline

import (
	"sheetflow/internal/model"
)

// Layout is the result of shaping a column selection: where each
// selected source column lands in the output, and how wide the output's
// bounding box is. Pure function of the selection.
type Layout struct {
	mode   model.PasteMode
	outCol map[int]int // source column -> 1-based output column
	cols   []int       // selection in declaration order
	Width  int
}

// ShapeColumns computes the output layout for a deduplicated, ordered
// column selection.
//
// Pack mode assigns each column its rank within the selection, so the
// output is contiguous. Keep mode preserves the selection's relative
// spacing: output column = source − min(selection) + 1, and columns
// inside the bounding width that were not selected become gap columns
// that are never written.
func ShapeColumns(selected []int, mode model.PasteMode) Layout {
	l := Layout{mode: mode, outCol: make(map[int]int, len(selected))}
	if len(selected) == 0 {
		return l
	}
	l.cols = append(l.cols, selected...)

	if mode == model.PasteKeep {
		min, max := selected[0], selected[0]
		for _, c := range selected[1:] {
			if c < min {
				min = c
			}
			if c > max {
				max = c
			}
		}
		for _, c := range selected {
			l.outCol[c] = c - min + 1
		}
		l.Width = max - min + 1
		return l
	}

	for rank, c := range selected {
		l.outCol[c] = rank + 1
	}
	l.Width = len(selected)
	return l
}

// OutputColumnFor returns the 1-based output column for a selected
// source column. The second return is false for unselected columns.
func (l Layout) OutputColumnFor(src int) (int, bool) {
	out, ok := l.outCol[src]
	return out, ok
}

// BuildGrid shapes filtered rows into the output grid. Output rows are
// sequential with no gaps from filtered-out rows; gap columns stay nil
// and are skipped at write time.
func (l Layout) BuildGrid(rows [][]any) [][]any {
	if l.Width == 0 || len(rows) == 0 {
		return nil
	}
	grid := make([][]any, len(rows))
	for i, row := range rows {
		out := make([]any, l.Width)
		for _, src := range l.cols {
			if src-1 < len(row) {
				out[l.outCol[src]-1] = row[src-1]
			}
		}
		grid[i] = out
	}
	return grid
}
