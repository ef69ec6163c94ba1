package source

import (
	"github.com/xuri/excelize/v2"

	"sheetflow/internal/apperr"
	"sheetflow/internal/model"
	"sheetflow/pkg/utils"
)

// loadXLSX reads one worksheet into a typed table.
func loadXLSX(path, sheetName string) (*model.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, readFailed(path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheetName)
	if err != nil || idx < 0 {
		return nil, apperr.New(apperr.SheetNotFound, "sheet not found: %s", sheetName).
			With("path", path).With("sheet", sheetName)
	}

	raw, err := f.GetRows(sheetName)
	if err != nil {
		return nil, readFailed(path, err)
	}

	rows := make([][]any, len(raw))
	for ri, rec := range raw {
		row := make([]any, len(rec))
		for ci, cell := range rec {
			if cell == "" {
				row[ci] = nil
				continue
			}
			row[ci] = utils.ParseValue(cell)
		}
		rows[ri] = row
	}

	return buildTable(rows), nil
}
