package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetflow/internal/apperr"
	"sheetflow/internal/dest"
	"sheetflow/internal/model"
)

type fakeLoader struct {
	tables map[string]*model.Table
	loads  map[string]int
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		tables: make(map[string]*model.Table),
		loads:  make(map[string]int),
	}
}

func (f *fakeLoader) add(path, sheet string, rows ...[]any) {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	norm := make([][]any, len(rows))
	for i, r := range rows {
		row := make([]any, width)
		copy(row, r)
		norm[i] = row
	}
	f.tables[path+"!"+sheet] = &model.Table{Rows: norm, UsedHeight: len(norm), UsedWidth: width}
}

func (f *fakeLoader) LoadSheet(path, sheet string) (*model.Table, error) {
	key := path + "!" + sheet
	f.loads[key]++
	t, ok := f.tables[key]
	if !ok {
		return nil, apperr.New(apperr.SheetNotFound, "sheet not found: %s", sheet).With("sheet", sheet)
	}
	return t, nil
}

func testItem(cfg model.SheetConfig) model.RunItem {
	if cfg.Name == "" {
		cfg.Name = "S"
	}
	if cfg.WorkbookSheet == "" {
		cfg.WorkbookSheet = "S"
	}
	if cfg.Destination.FilePath == "" {
		cfg.Destination.FilePath = "out.xlsx"
	}
	if cfg.Destination.SheetName == "" {
		cfg.Destination.SheetName = "Out"
	}
	return model.RunItem{SourcePath: "src.xlsx", RecipeName: "R", Sheet: cfg}
}

func TestRunPackEndToEnd(t *testing.T) {
	loader := newFakeLoader()
	loader.add("src.xlsx", "S",
		[]any{"h1", "h2", "h3"},
		[]any{"a", "b", "c"},
		[]any{"d", "e", "f"},
	)
	st := dest.NewMemStore()

	res := Run(testItem(model.SheetConfig{
		RowsSpec:    "2-3",
		ColumnsSpec: "A,C",
		Destination: model.Destination{FilePath: "out.xlsx", SheetName: "Out", StartCol: "A", StartRow: "1"},
	}), NewSourceCache(loader), st, NewRegions())

	require.Empty(t, res.ErrorCode, res.Message)
	assert.Equal(t, 2, res.RowsWritten)
	require.NotNil(t, res.Region)
	assert.Equal(t, model.RegionSummary{StartRow: 1, StartCol: 1, Height: 2, Width: 2}, *res.Region)

	assert.Equal(t, "a", st.Cell("out.xlsx", "Out", 1, 1))
	assert.Equal(t, "c", st.Cell("out.xlsx", "Out", 1, 2))
	assert.Equal(t, "f", st.Cell("out.xlsx", "Out", 2, 2))
}

func TestRunKeepFormatNeverWritesGaps(t *testing.T) {
	loader := newFakeLoader()
	loader.add("src.xlsx", "S", []any{"a", "b", "c"})
	st := dest.NewMemStore()

	res := Run(testItem(model.SheetConfig{
		ColumnsSpec: "A,C",
		PasteMode:   model.PasteKeep,
		Destination: model.Destination{FilePath: "out.xlsx", SheetName: "Out", StartRow: "1"},
	}), NewSourceCache(loader), st, NewRegions())

	require.Empty(t, res.ErrorCode, res.Message)
	assert.Equal(t, "a", st.Cell("out.xlsx", "Out", 1, 1))
	assert.Nil(t, st.Cell("out.xlsx", "Out", 1, 2))
	assert.Equal(t, "c", st.Cell("out.xlsx", "Out", 1, 3))
}

func TestRunMissingPaths(t *testing.T) {
	loader := newFakeLoader()
	st := dest.NewMemStore()

	item := testItem(model.SheetConfig{})
	item.SourcePath = ""
	res := Run(item, NewSourceCache(loader), st, NewRegions())
	assert.Equal(t, apperr.MissingSourcePath, res.ErrorCode)

	item = testItem(model.SheetConfig{})
	item.Sheet.Destination.FilePath = ""
	res = Run(item, NewSourceCache(loader), st, NewRegions())
	assert.Equal(t, apperr.MissingDestPath, res.ErrorCode)

	// Neither failure touched the loader.
	assert.Empty(t, loader.loads)
}

func TestRunValidatesBeforeLoading(t *testing.T) {
	loader := newFakeLoader()
	st := dest.NewMemStore()

	res := Run(testItem(model.SheetConfig{RowsSpec: "5-2"}), NewSourceCache(loader), st, NewRegions())
	assert.Equal(t, apperr.BadSpec, res.ErrorCode)

	res = Run(testItem(model.SheetConfig{
		Rules: []model.Rule{{Mode: "include", Column: "A", Operator: "between", Value: "1"}},
	}), NewSourceCache(loader), st, NewRegions())
	assert.Equal(t, apperr.InvalidRule, res.ErrorCode)

	assert.Empty(t, loader.loads)
}

func TestRunSheetNotFound(t *testing.T) {
	loader := newFakeLoader()
	st := dest.NewMemStore()

	res := Run(testItem(model.SheetConfig{}), NewSourceCache(loader), st, NewRegions())
	assert.Equal(t, apperr.SheetNotFound, res.ErrorCode)
}

func TestRunAppliesRules(t *testing.T) {
	loader := newFakeLoader()
	loader.add("src.xlsx", "S",
		[]any{"alice", "Yes"},
		[]any{"bob", "No"},
		[]any{"carol", "Yes"},
	)
	st := dest.NewMemStore()

	res := Run(testItem(model.SheetConfig{
		Rules:       []model.Rule{{Mode: model.RuleInclude, Column: "B", Operator: model.OpEquals, Value: "Yes"}},
		Destination: model.Destination{FilePath: "out.xlsx", SheetName: "Out", StartRow: "1"},
	}), NewSourceCache(loader), st, NewRegions())

	require.Empty(t, res.ErrorCode, res.Message)
	assert.Equal(t, 2, res.RowsWritten)
	assert.Equal(t, "alice", st.Cell("out.xlsx", "Out", 1, 1))
	assert.Equal(t, "carol", st.Cell("out.xlsx", "Out", 2, 1))
}

func TestRunSourceStartRowOffset(t *testing.T) {
	loader := newFakeLoader()
	loader.add("src.xlsx", "S",
		[]any{"header"},
		[]any{"data1"},
		[]any{"data2"},
	)
	st := dest.NewMemStore()

	res := Run(testItem(model.SheetConfig{
		SourceStartRow: "2",
		RowsSpec:       "1",
		Destination:    model.Destination{FilePath: "out.xlsx", SheetName: "Out", StartRow: "1"},
	}), NewSourceCache(loader), st, NewRegions())

	require.Empty(t, res.ErrorCode, res.Message)
	assert.Equal(t, "data1", st.Cell("out.xlsx", "Out", 1, 1))

	res = Run(testItem(model.SheetConfig{SourceStartRow: "zero"}), NewSourceCache(loader), st, NewRegions())
	assert.Equal(t, apperr.BadSpec, res.ErrorCode)
}

func TestRunAppendAfterExistingData(t *testing.T) {
	loader := newFakeLoader()
	loader.add("src.xlsx", "S", []any{"new row"})
	st := dest.NewMemStore()
	for r := 1; r <= 10; r++ {
		st.Seed("out.xlsx", "Out", r, 1, "existing")
	}

	res := Run(testItem(model.SheetConfig{}), NewSourceCache(loader), st, NewRegions())
	require.Empty(t, res.ErrorCode, res.Message)
	assert.Equal(t, 11, res.Region.StartRow)
	assert.Equal(t, "new row", st.Cell("out.xlsx", "Out", 11, 1))
}

func TestRunRerunCollidesWithOwnOutput(t *testing.T) {
	loader := newFakeLoader()
	loader.add("src.xlsx", "S", []any{"v"})
	st := dest.NewMemStore()

	cfg := model.SheetConfig{
		Destination: model.Destination{FilePath: "out.xlsx", SheetName: "Out", StartRow: "1"},
	}
	res := Run(testItem(cfg), NewSourceCache(loader), st, NewRegions())
	require.Empty(t, res.ErrorCode, res.Message)

	// Fresh batch state, same destination: the collision comes from
	// actual destination occupancy, not run history.
	res = Run(testItem(cfg), NewSourceCache(loader), st, NewRegions())
	assert.Equal(t, apperr.DestBlocked, res.ErrorCode)
}

func TestRunFailureCommitsNothing(t *testing.T) {
	loader := newFakeLoader()
	loader.add("src.xlsx", "S", []any{"a"}, []any{"b"})
	st := dest.NewMemStore()
	st.Seed("out.xlsx", "Out", 2, 1, "blocker")

	res := Run(testItem(model.SheetConfig{
		Destination: model.Destination{FilePath: "out.xlsx", SheetName: "Out", StartRow: "1"},
	}), NewSourceCache(loader), st, NewRegions())

	assert.Equal(t, apperr.DestBlocked, res.ErrorCode)
	assert.Nil(t, st.Cell("out.xlsx", "Out", 1, 1))
}

func TestSourceCacheReusesLoads(t *testing.T) {
	loader := newFakeLoader()
	loader.add("src.xlsx", "S", []any{"v"})
	cache := NewSourceCache(loader)

	for i := 0; i < 3; i++ {
		_, err := cache.LoadSheet("src.xlsx", "S")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, loader.loads["src.xlsx!S"])
}
