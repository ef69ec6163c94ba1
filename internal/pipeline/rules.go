package pipeline

import (
	"strings"

	"sheetflow/internal/apperr"
	"sheetflow/internal/model"
	"sheetflow/pkg/utils"
)

// compiledRule is a rule with its column letters resolved to a 1-based
// source column index. Rules always address the source sheet — the
// output column selection never changes filtering.
type compiledRule struct {
	model.Rule
	colIdx int
}

type ruleSet struct {
	rules   []compiledRule
	combine model.CombineMode
}

// CompileRules validates a rule set once, before any row is scanned.
// A malformed operator, mode, column, or combinator fails with
// INVALID_RULE; per-row evaluation is then total.
func CompileRules(rules []model.Rule, combine model.CombineMode) (*ruleSet, error) {
	if combine == "" {
		combine = model.CombineAnd
	}
	if !combine.Valid() {
		return nil, apperr.New(apperr.InvalidRule, "bad combine mode %q", combine).
			With("combine", string(combine))
	}

	rs := &ruleSet{combine: combine}
	for i, r := range rules {
		if !r.Operator.Valid() {
			return nil, apperr.New(apperr.InvalidRule, "unknown operator %q", r.Operator).
				With("rule", i).With("operator", string(r.Operator))
		}
		if !r.Mode.Valid() {
			return nil, apperr.New(apperr.InvalidRule, "bad rule mode %q", r.Mode).
				With("rule", i).With("mode", string(r.Mode))
		}
		col, err := ColLettersToIndex(r.Column)
		if err != nil {
			return nil, apperr.New(apperr.InvalidRule, "bad rule column %q", r.Column).
				With("rule", i).With("column", r.Column)
		}
		rs.rules = append(rs.rules, compiledRule{Rule: r, colIdx: col})
	}
	return rs, nil
}

// FilterRows keeps the rows that pass the rule set. An empty rule set
// passes every row. Rows shorter than a referenced column read that
// cell as nil.
func FilterRows(rows [][]any, rules []model.Rule, combine model.CombineMode) ([][]any, error) {
	rs, err := CompileRules(rules, combine)
	if err != nil {
		return nil, err
	}
	if len(rs.rules) == 0 {
		return rows, nil
	}

	var kept [][]any
	for _, row := range rows {
		if rs.pass(row) {
			kept = append(kept, row)
		}
	}
	return kept, nil
}

func (rs *ruleSet) pass(row []any) bool {
	for _, r := range rs.rules {
		var cell any
		if r.colIdx-1 < len(row) {
			cell = row[r.colIdx-1]
		}
		match := evaluate(cell, r.Rule)
		if r.Mode == model.RuleExclude {
			match = !match
		}
		switch rs.combine {
		case model.CombineAnd:
			if !match {
				return false
			}
		case model.CombineOr:
			if match {
				return true
			}
		}
	}
	return rs.combine == model.CombineAnd
}

// evaluate applies one rule to one cell. Operators are exhaustive by
// construction — CompileRules rejected anything else.
func evaluate(cell any, r model.Rule) bool {
	switch r.Operator {
	case model.OpContains:
		// Case-insensitive substring on text representations, never numeric.
		return strings.Contains(
			strings.ToLower(utils.Text(cell)),
			strings.ToLower(r.Value),
		)

	case model.OpEquals:
		// Boolean coercion first: "TRUE" equals "1" when the target is
		// boolean-looking too.
		if tb, ok := utils.BoolLike(r.Value); ok {
			if cb, ok := utils.BoolLike(cell); ok {
				return cb == tb
			}
		}
		// Numeric when both sides parse, so "2" matches 2.0.
		if cn, ok := utils.Numeric(cell); ok {
			if tn, ok := utils.Numeric(r.Value); ok {
				return cn == tn
			}
		}
		return strings.TrimSpace(utils.Text(cell)) == strings.TrimSpace(r.Value)

	case model.OpLessThan, model.OpGreaterThan:
		cn, cok := utils.Numeric(cell)
		tn, tok := utils.Numeric(r.Value)
		if cok && tok {
			if r.Operator == model.OpLessThan {
				return cn < tn
			}
			return cn > tn
		}
		// Defined fallback: bytewise text comparison on trimmed values.
		cs := strings.TrimSpace(utils.Text(cell))
		ts := strings.TrimSpace(r.Value)
		if r.Operator == model.OpLessThan {
			return cs < ts
		}
		return cs > ts
	}
	return false
}
