package pipeline

import (
	"sheetflow/internal/model"
)

// SourceCache memoizes loaded sheets for the lifetime of one batch.
// Entries are created lazily on first read and shared read-only with
// every later unit; the cache is discarded when the batch returns.
type SourceCache struct {
	loader SourceLoader
	tables map[string]*model.Table
}

func NewSourceCache(loader SourceLoader) *SourceCache {
	return &SourceCache{
		loader: loader,
		tables: make(map[string]*model.Table),
	}
}

// LoadSheet returns the cached table for (path, sheetName), loading it
// on first use. Callers must treat the returned table as immutable.
func (c *SourceCache) LoadSheet(path, sheetName string) (*model.Table, error) {
	key := path + "\x00" + sheetName
	if t, ok := c.tables[key]; ok {
		return t, nil
	}
	t, err := c.loader.LoadSheet(path, sheetName)
	if err != nil {
		return nil, err
	}
	c.tables[key] = t
	return t, nil
}
