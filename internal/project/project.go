// Package project loads and validates project files: the editable tree
// of sources → recipes → sheet configurations, stored as YAML.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"sheetflow/internal/model"
	"sheetflow/internal/pipeline"
)

// Load reads a project file.
func Load(path string) (*model.ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	var cfg model.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse project file: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Save writes a project file.
func Save(path string, cfg *model.ProjectConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode project file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func applyDefaults(cfg *model.ProjectConfig) {
	for si := range cfg.Sources {
		src := &cfg.Sources[si]
		if src.Name == "" {
			src.Name = filepath.Base(src.Path)
		}
		for ri := range src.Recipes {
			rec := &src.Recipes[ri]
			if rec.Name == "" {
				rec.Name = fmt.Sprintf("Recipe%d", ri+1)
			}
			for shi := range rec.Sheets {
				sh := &rec.Sheets[shi]
				if sh.Name == "" {
					sh.Name = "Sheet1"
				}
				if sh.WorkbookSheet == "" {
					sh.WorkbookSheet = sh.Name
				}
				if sh.PasteMode == "" {
					sh.PasteMode = model.PastePack
				}
				if sh.RulesCombine == "" {
					sh.RulesCombine = model.CombineAnd
				}
				if sh.Destination.SheetName == "" {
					sh.Destination.SheetName = "Sheet1"
				}
				if sh.Destination.StartCol == "" {
					sh.Destination.StartCol = "A"
				}
			}
		}
	}
}

// Validate checks every sheet config the way the runner would, without
// touching any file, so a bad project fails before a batch starts.
func Validate(cfg *model.ProjectConfig) error {
	for _, src := range cfg.Sources {
		for _, rec := range src.Recipes {
			for _, sh := range rec.Sheets {
				where := fmt.Sprintf("%s / %s / %s", src.Name, rec.Name, sh.Name)
				if _, err := pipeline.ParseColumns(sh.ColumnsSpec); err != nil {
					return fmt.Errorf("%s: %w", where, err)
				}
				if _, err := pipeline.ParseRows(sh.RowsSpec); err != nil {
					return fmt.Errorf("%s: %w", where, err)
				}
				if _, err := pipeline.CompileRules(sh.Rules, sh.RulesCombine); err != nil {
					return fmt.Errorf("%s: %w", where, err)
				}
				if !sh.PasteMode.Valid() {
					return fmt.Errorf("%s: unknown paste mode %q", where, sh.PasteMode)
				}
			}
		}
	}
	return nil
}

// Flatten turns the project tree into the ordered batch queue:
// sources in file order, recipes within a source, sheets within a
// recipe. Batch commits follow this order.
func Flatten(cfg *model.ProjectConfig) []model.RunItem {
	var items []model.RunItem
	for _, src := range cfg.Sources {
		for _, rec := range src.Recipes {
			for _, sh := range rec.Sheets {
				items = append(items, model.RunItem{
					SourcePath: src.Path,
					RecipeName: rec.Name,
					Sheet:      sh,
				})
			}
		}
	}
	return items
}
