package source

import (
	"encoding/csv"
	"io"
	"os"

	"sheetflow/internal/model"
	"sheetflow/pkg/utils"
)

// loadCSV reads a whole CSV file into a typed table. Every row is kept —
// header handling is a per-sheet concern expressed via the source
// start-row offset, not something the loader decides.
func loadCSV(path string) (*model.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, readFailed(path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]any
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, readFailed(path, err)
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = utils.ParseValue(cell)
		}
		rows = append(rows, row)
	}

	return buildTable(rows), nil
}
