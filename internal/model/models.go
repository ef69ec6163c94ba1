package model

// PasteMode controls how selected columns are laid out in the output.
type PasteMode string

const (
	PastePack PasteMode = "pack" // contiguous output columns, no gaps
	PasteKeep PasteMode = "keep" // preserve relative spacing of the selection
)

// Valid reports whether m is a known paste mode. Blank means pack.
func (m PasteMode) Valid() bool {
	return m == "" || m == PastePack || m == PasteKeep
}

// RuleMode decides whether a matching row is kept or dropped.
type RuleMode string

const (
	RuleInclude RuleMode = "include"
	RuleExclude RuleMode = "exclude"
)

func (m RuleMode) Valid() bool { return m == RuleInclude || m == RuleExclude }

// Operator is the closed set of rule comparison operators.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpLessThan    Operator = "<"
	OpGreaterThan Operator = ">"
)

func (o Operator) Valid() bool {
	switch o {
	case OpEquals, OpContains, OpLessThan, OpGreaterThan:
		return true
	}
	return false
}

// CombineMode joins per-rule results across a rule set.
type CombineMode string

const (
	CombineAnd CombineMode = "AND"
	CombineOr  CombineMode = "OR"
)

func (c CombineMode) Valid() bool { return c == CombineAnd || c == CombineOr }

// Rule filters rows after row selection and before column shaping.
// Column is absolute source column letters (A, D, AA) — never an offset
// into the output layout.
type Rule struct {
	Mode     RuleMode `json:"mode" yaml:"mode"`
	Column   string   `json:"column" yaml:"column"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    string   `json:"value" yaml:"value"`
}

// Destination is the placement target for a shaped output table.
// A blank StartRow means append mode: the landing row is resolved from
// the destination's existing content at run time.
type Destination struct {
	FilePath  string `json:"filePath" yaml:"file"`
	SheetName string `json:"sheetName" yaml:"sheet"`
	StartCol  string `json:"startCol" yaml:"startCol"` // column letters, blank = "A"
	StartRow  string `json:"startRow" yaml:"startRow"` // 1-based, blank = append
}

// SheetConfig is the unit of work for one runner invocation.
type SheetConfig struct {
	Name           string      `json:"name" yaml:"name"`
	WorkbookSheet  string      `json:"workbookSheet" yaml:"workbookSheet"`
	SourceStartRow string      `json:"sourceStartRow" yaml:"sourceStartRow"` // blank = row 1
	ColumnsSpec    string      `json:"columnsSpec" yaml:"columns"`           // blank = all used columns
	RowsSpec       string      `json:"rowsSpec" yaml:"rows"`                 // blank = all used rows
	PasteMode      PasteMode   `json:"pasteMode" yaml:"pasteMode"`
	RulesCombine   CombineMode `json:"rulesCombine" yaml:"rulesCombine"`
	Rules          []Rule      `json:"rules" yaml:"rules"`
	Destination    Destination `json:"destination" yaml:"destination"`
}

// RecipeConfig groups sheet extractions that run together.
type RecipeConfig struct {
	Name   string        `json:"name" yaml:"name"`
	Sheets []SheetConfig `json:"sheets" yaml:"sheets"`
}

// SourceConfig is one source workbook plus its recipes.
type SourceConfig struct {
	Path    string         `json:"path" yaml:"path"`
	Name    string         `json:"name" yaml:"name"`
	Recipes []RecipeConfig `json:"recipes" yaml:"recipes"`
}

// ProjectConfig is the whole editable tree: sources → recipes → sheets.
type ProjectConfig struct {
	Sources []SourceConfig `json:"sources" yaml:"sources"`
}

// RunItem is one entry in a batch queue.
type RunItem struct {
	SourcePath string      `json:"sourcePath"`
	RecipeName string      `json:"recipeName"`
	Sheet      SheetConfig `json:"sheet"`
}

// RegionSummary describes where a successful unit landed.
type RegionSummary struct {
	StartRow int `json:"startRow"`
	StartCol int `json:"startCol"`
	Height   int `json:"height"`
	Width    int `json:"width"`
}

// RunResult reports the outcome of one unit.
type RunResult struct {
	SourcePath   string         `json:"sourcePath"`
	RecipeName   string         `json:"recipeName"`
	SheetName    string         `json:"sheetName"`
	DestFile     string         `json:"destFile"`
	DestSheet    string         `json:"destSheet"`
	RowsWritten  int            `json:"rowsWritten"`
	Region       *RegionSummary `json:"region,omitempty"`
	Message      string         `json:"message,omitempty"`
	ErrorCode    string         `json:"errorCode,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
	ErrorDetails map[string]any `json:"errorDetails,omitempty"`
}

// Failed reports whether the unit ended in an error.
func (r RunResult) Failed() bool { return r.ErrorCode != "" }

// RunReport is returned by the batch orchestrator.
type RunReport struct {
	OK      bool        `json:"ok"`
	Results []RunResult `json:"results"`
}

// HasErrors reports whether any unit in the report failed.
func (r RunReport) HasErrors() bool {
	for _, res := range r.Results {
		if res.Failed() {
			return true
		}
	}
	return false
}
