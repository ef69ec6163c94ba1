package model

// Table is an in-memory rectangular snapshot of one source sheet.
// Rows are normalized to equal width; nil cells are empty.
type Table struct {
	Rows       [][]any `json:"rows"`
	UsedHeight int     `json:"usedHeight"`
	UsedWidth  int     `json:"usedWidth"`
}

// CellRef addresses a single destination cell, 1-based.
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// CellMap holds concrete cell values keyed by position. Gap cells are
// simply absent — a CellMap never carries placeholders.
type CellMap map[CellRef]any
