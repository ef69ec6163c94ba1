package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"sheetflow/internal/apperr"
	"sheetflow/internal/model"
)

// WritePlan is a validated placement for one shaped grid. Cells holds
// the concretely written cells at absolute coordinates — gap cells are
// absent by construction.
type WritePlan struct {
	StartRow   int
	StartCol   int
	Width      int
	Height     int
	TargetCols []int // absolute 1-based columns that receive data
	AppendMode bool
	Cells      model.CellMap
}

// BuildPlan resolves the absolute destination origin and validates it
// against the destination snapshot and the prior regions planned by
// earlier units in the batch.
//
// startRowStr semantics follow the destination config: blank means
// append mode (one row past the highest occupied row among the target
// columns), numeric means an explicit anchor probed for collisions.
// Returns nil with no error when the grid carries no data at all.
func BuildPlan(
	snapshot model.CellMap,
	prior model.CellMap,
	grid [][]any,
	startColLetters string,
	startRowStr string,
) (*WritePlan, error) {
	height := len(grid)
	width := 0
	for _, row := range grid {
		if len(row) > width {
			width = len(row)
		}
	}
	if height == 0 || width == 0 {
		return nil, nil
	}

	if strings.TrimSpace(startColLetters) == "" {
		startColLetters = "A"
	}
	startCol, err := ColLettersToIndex(startColLetters)
	if err != nil {
		return nil, err
	}

	offsets := TargetColOffsets(grid)
	if len(offsets) == 0 {
		// Grid is all gaps — nothing to write.
		return nil, nil
	}
	targetCols := make([]int, len(offsets))
	for i, o := range offsets {
		targetCols[i] = startCol + o
	}

	appendMode := strings.TrimSpace(startRowStr) == ""
	var startRow int
	if appendMode {
		maxUsed := ScanTargetCols(snapshot, targetCols)
		if p := ScanTargetCols(prior, targetCols); p > maxUsed {
			maxUsed = p
		}
		startRow = maxUsed + 1
	} else {
		startRow, err = strconv.Atoi(strings.TrimSpace(startRowStr))
		if err != nil {
			return nil, apperr.New(apperr.BadSpec, "bad start row %q", startRowStr).
				With("startRow", startRowStr)
		}
		if startRow < 1 {
			return nil, apperr.New(apperr.BadSpec, "start row must be >= 1, got %d", startRow).
				With("startRow", startRowStr)
		}
	}

	rowEnd := startRow + height - 1
	if ref, val, blocked := ProbeTargetCols(startRow, rowEnd, targetCols, snapshot, prior); blocked {
		return nil, apperr.New(apperr.DestBlocked, "destination landing zone is blocked").
			With("appendMode", appendMode).
			With("target", fmt.Sprintf("%s%d", ColIndexToLetters(startCol), startRow)).
			With("landingRows", fmt.Sprintf("%d:%d", startRow, rowEnd)).
			With("blockerCell", fmt.Sprintf("%s%d", ColIndexToLetters(ref.Col), ref.Row)).
			With("blockerValue", val)
	}

	cells := make(model.CellMap)
	for r, row := range grid {
		for c, v := range row {
			if v == nil {
				continue // gap cell, never written
			}
			cells[model.CellRef{Row: startRow + r, Col: startCol + c}] = v
		}
	}

	return &WritePlan{
		StartRow:   startRow,
		StartCol:   startCol,
		Width:      width,
		Height:     height,
		TargetCols: targetCols,
		AppendMode: appendMode,
		Cells:      cells,
	}, nil
}
