package pipeline

import (
	"strconv"
	"strings"

	"sheetflow/internal/apperr"
	"sheetflow/internal/model"
)

// SourceLoader loads one sheet of a source file into a table. The batch
// orchestrator passes a caching loader so repeated reads of the same
// (path, sheet) pair hit memory.
type SourceLoader interface {
	LoadSheet(path, sheetName string) (*model.Table, error)
}

// DestStore is the destination collaborator. Snapshot returns the
// occupied cells of a sheet restricted to the given columns (nil means
// all); Commit durably writes exactly the given cells — never a
// placeholder for a gap cell.
type DestStore interface {
	Snapshot(path, sheetName string, cols []int) (model.CellMap, error)
	Commit(path, sheetName string, cells model.CellMap) error
}

// Run executes a single unit end to end: parse specs, load, filter,
// shape, plan, commit. Any stage failure short-circuits the rest and is
// reported in the result; nothing is written for a failing unit.
func Run(item model.RunItem, loader SourceLoader, store DestStore, regions *Regions) model.RunResult {
	cfg := item.Sheet
	res := model.RunResult{
		SourcePath: item.SourcePath,
		RecipeName: item.RecipeName,
		SheetName:  cfg.Name,
		DestFile:   cfg.Destination.FilePath,
		DestSheet:  cfg.Destination.SheetName,
	}

	fail := func(err error) model.RunResult {
		res.Message = err.Error()
		if ae := apperr.As(err); ae != nil {
			res.ErrorCode = ae.Code
			res.ErrorMessage = ae.Message
			res.ErrorDetails = ae.Details
		} else {
			res.ErrorCode = apperr.SourceReadFailed
			res.ErrorMessage = err.Error()
		}
		return res
	}

	if strings.TrimSpace(item.SourcePath) == "" {
		return fail(apperr.New(apperr.MissingSourcePath, "sheet %q has no source file", cfg.Name))
	}
	if strings.TrimSpace(cfg.Destination.FilePath) == "" {
		return fail(apperr.New(apperr.MissingDestPath, "sheet %q has no destination file", cfg.Name))
	}

	// Specs and rules are validated before any I/O happens.
	rowSel, err := ParseRows(cfg.RowsSpec)
	if err != nil {
		return fail(err)
	}
	colSel, err := ParseColumns(cfg.ColumnsSpec)
	if err != nil {
		return fail(err)
	}
	if _, err := CompileRules(cfg.Rules, cfg.RulesCombine); err != nil {
		return fail(err)
	}
	if !cfg.PasteMode.Valid() {
		return fail(apperr.New(apperr.BadSpec, "unknown paste mode %q", cfg.PasteMode).
			With("pasteMode", string(cfg.PasteMode)))
	}

	sheetName := cfg.WorkbookSheet
	if sheetName == "" {
		sheetName = cfg.Name
	}
	table, err := loader.LoadSheet(item.SourcePath, sheetName)
	if err != nil {
		return fail(err)
	}

	rows, usedH, usedW, err := applySourceStartRow(table, cfg.SourceStartRow)
	if err != nil {
		return fail(err)
	}

	// Blank specs resolve against the real used extent.
	if rowSel == nil {
		rowSel = sequence(1, usedH)
	}
	if colSel == nil {
		colSel = sequence(1, usedW)
	}

	selected := selectRows(rows, rowSel)
	filtered, err := FilterRows(selected, cfg.Rules, cfg.RulesCombine)
	if err != nil {
		return fail(err)
	}

	mode := cfg.PasteMode
	if mode == "" {
		mode = model.PastePack
	}
	layout := ShapeColumns(colSel, mode)
	grid := layout.BuildGrid(filtered)

	startColLetters := cfg.Destination.StartCol
	if strings.TrimSpace(startColLetters) == "" {
		startColLetters = "A"
	}
	startCol, err := ColLettersToIndex(startColLetters)
	if err != nil {
		return fail(err)
	}
	offsets := TargetColOffsets(grid)
	targetCols := make([]int, len(offsets))
	for i, o := range offsets {
		targetCols[i] = startCol + o
	}

	var snapshot model.CellMap
	if len(targetCols) > 0 {
		snapshot, err = store.Snapshot(cfg.Destination.FilePath, cfg.Destination.SheetName, targetCols)
		if err != nil {
			return fail(err)
		}
	}
	prior := regions.Cells(cfg.Destination.FilePath, cfg.Destination.SheetName)

	plan, err := BuildPlan(snapshot, prior, grid, startColLetters, cfg.Destination.StartRow)
	if err != nil {
		return fail(err)
	}
	if plan == nil {
		res.Message = "0 rows written"
		return res
	}

	// Commit before returning so a later unit's failure cannot roll
	// this unit back.
	if err := store.Commit(cfg.Destination.FilePath, cfg.Destination.SheetName, plan.Cells); err != nil {
		return fail(err)
	}
	regions.Add(cfg.Destination.FilePath, cfg.Destination.SheetName, plan.Cells)

	res.RowsWritten = plan.Height
	res.Region = &model.RegionSummary{
		StartRow: plan.StartRow,
		StartCol: plan.StartCol,
		Height:   plan.Height,
		Width:    plan.Width,
	}
	res.Message = "OK"
	return res
}

// applySourceStartRow drops leading rows before row-spec resolution.
// Blank means no offset; anything non-numeric or < 1 is a spec error.
func applySourceStartRow(table *model.Table, startRow string) (rows [][]any, usedH, usedW int, err error) {
	rows, usedH, usedW = table.Rows, table.UsedHeight, table.UsedWidth
	s := strings.TrimSpace(startRow)
	if s == "" {
		return rows, usedH, usedW, nil
	}
	n, convErr := strconv.Atoi(s)
	if convErr != nil || n < 1 {
		return nil, 0, 0, apperr.New(apperr.BadSpec, "source start row must be a number >= 1, got %q", startRow).
			With("sourceStartRow", startRow)
	}
	offset := n - 1
	if offset == 0 {
		return rows, usedH, usedW, nil
	}
	if offset >= len(rows) {
		return nil, 0, usedW, nil
	}
	rows = rows[offset:]
	usedH -= offset
	if usedH < 0 {
		usedH = 0
	}
	return rows, usedH, usedW, nil
}

func sequence(lo, hi int) []int {
	if hi < lo {
		return nil
	}
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}

// selectRows picks 1-based row indices from rows, ignoring indices past
// the end of the table.
func selectRows(rows [][]any, indices []int) [][]any {
	out := make([][]any, 0, len(indices))
	for _, i := range indices {
		if i >= 1 && i <= len(rows) {
			out = append(out, rows[i-1])
		}
	}
	return out
}
