package dest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetflow/internal/model"
)

func TestMemStoreSnapshotFiltersColumns(t *testing.T) {
	s := NewMemStore()
	s.Seed("out.xlsx", "S", 1, 1, "a")
	s.Seed("out.xlsx", "S", 2, 3, "c")

	snap, err := s.Snapshot("out.xlsx", "S", []int{1})
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, "a", snap[model.CellRef{Row: 1, Col: 1}])

	snap, err = s.Snapshot("out.xlsx", "S", nil)
	require.NoError(t, err)
	assert.Len(t, snap, 2)
}

func TestMemStoreCommitMerges(t *testing.T) {
	s := NewMemStore()
	s.Seed("out.xlsx", "S", 1, 1, "old")
	require.NoError(t, s.Commit("out.xlsx", "S", model.CellMap{
		{Row: 2, Col: 1}: "new",
	}))
	assert.Equal(t, "old", s.Cell("out.xlsx", "S", 1, 1))
	assert.Equal(t, "new", s.Cell("out.xlsx", "S", 2, 1))
}

func TestExcelStoreCommitAndSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	s := NewExcelStore()
	defer s.Close()

	err := s.Commit(path, "Results", model.CellMap{
		{Row: 1, Col: 1}: "name",
		{Row: 1, Col: 2}: 42,
		{Row: 3, Col: 1}: "below a gap row",
	})
	require.NoError(t, err)

	// Commit is durable: a fresh store sees the same content from disk.
	fresh := NewExcelStore()
	defer fresh.Close()
	snap, err := fresh.Snapshot(path, "Results", nil)
	require.NoError(t, err)
	assert.Equal(t, "name", snap[model.CellRef{Row: 1, Col: 1}])
	assert.Equal(t, 42, snap[model.CellRef{Row: 1, Col: 2}])
	assert.Equal(t, "below a gap row", snap[model.CellRef{Row: 3, Col: 1}])
	assert.NotContains(t, snap, model.CellRef{Row: 2, Col: 1})
}

func TestExcelStoreSnapshotMissingFileOrSheet(t *testing.T) {
	s := NewExcelStore()
	defer s.Close()

	snap, err := s.Snapshot(filepath.Join(t.TempDir(), "nope.xlsx"), "S", nil)
	require.NoError(t, err)
	assert.Empty(t, snap)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, s.Commit(path, "Real", model.CellMap{{Row: 1, Col: 1}: "x"}))
	snap, err = s.Snapshot(path, "Other", nil)
	require.NoError(t, err)
	assert.Empty(t, snap)
}

func TestExcelStoreSnapshotColumnFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	s := NewExcelStore()
	defer s.Close()

	require.NoError(t, s.Commit(path, "S", model.CellMap{
		{Row: 1, Col: 1}: "a",
		{Row: 1, Col: 2}: "b",
		{Row: 5, Col: 2}: "deep",
	}))

	snap, err := s.Snapshot(path, "S", []int{2})
	require.NoError(t, err)
	require.Len(t, snap, 2)
	assert.Equal(t, "deep", snap[model.CellRef{Row: 5, Col: 2}])
}

func TestExcelStoreDropsDefaultSheetOnFreshFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	s := NewExcelStore()
	defer s.Close()

	require.NoError(t, s.Commit(path, "Results", model.CellMap{{Row: 1, Col: 1}: "x"}))

	fresh := NewExcelStore()
	defer fresh.Close()
	snap, err := fresh.Snapshot(path, "Results", nil)
	require.NoError(t, err)
	assert.Len(t, snap, 1)

	// Sheet1 is gone; only the sheet we asked for exists.
	f := fresh.books[path]
	require.NotNil(t, f)
	idx, _ := f.GetSheetIndex("Sheet1")
	assert.Less(t, idx, 0)
}

func TestExcelStoreAppendsToExistingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	first := NewExcelStore()
	require.NoError(t, first.Commit(path, "S", model.CellMap{{Row: 1, Col: 1}: "first"}))
	first.Close()

	second := NewExcelStore()
	defer second.Close()
	require.NoError(t, second.Commit(path, "S", model.CellMap{{Row: 2, Col: 1}: "second"}))

	snap, err := second.Snapshot(path, "S", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", snap[model.CellRef{Row: 1, Col: 1}])
	assert.Equal(t, "second", snap[model.CellRef{Row: 2, Col: 1}])
}

func TestExcelStoreUnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	s := NewExcelStore()
	defer s.Close()
	err := s.Commit(filepath.Join(dir, "out.xlsx"), "S", model.CellMap{{Row: 1, Col: 1}: "x"})
	require.Error(t, err)
}
