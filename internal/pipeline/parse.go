package pipeline

import (
	"strconv"
	"strings"

	"sheetflow/internal/apperr"
)

// ColLettersToIndex converts spreadsheet column letters to a 1-based
// index (A=1, Z=26, AA=27). Case-insensitive.
func ColLettersToIndex(col string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(col))
	if s == "" {
		return 0, apperr.New(apperr.BadSpec, "bad column %q", col).With("token", col)
	}
	n := 0
	for _, ch := range s {
		if ch < 'A' || ch > 'Z' {
			return 0, apperr.New(apperr.BadSpec, "bad column %q", col).With("token", col)
		}
		n = n*26 + int(ch-'A'+1)
	}
	return n, nil
}

// ColIndexToLetters converts a 1-based index back to column letters (1=A).
func ColIndexToLetters(n int) string {
	if n <= 0 {
		return ""
	}
	var out []byte
	for n > 0 {
		n--
		out = append(out, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// ParseColumns parses a column spec like "A,C,E-G" into 1-based indices.
// Declaration order is preserved; duplicate indices keep their first
// position. A blank spec returns nil, which callers resolve to every
// used column once the sheet extent is known.
func ParseColumns(spec string) ([]int, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return nil, nil
	}

	var out []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parseColToken(part)
		if err != nil {
			return nil, err
		}
		for i := lo; i <= hi; i++ {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	return out, nil
}

func parseColToken(tok string) (lo, hi int, err error) {
	a, b, ranged := strings.Cut(tok, "-")
	lo, err = ColLettersToIndex(a)
	if err != nil {
		return 0, 0, apperr.New(apperr.BadSpec, "bad column token %q", tok).With("token", tok)
	}
	if !ranged {
		return lo, lo, nil
	}
	hi, err = ColLettersToIndex(b)
	if err != nil || hi < lo {
		return 0, 0, apperr.New(apperr.BadSpec, "bad column token %q", tok).With("token", tok)
	}
	return lo, hi, nil
}

// ParseRows parses a row spec like "1-3,9-80,117" into 1-based indices.
// Same ordering and dedupe behaviour as ParseColumns; blank means all.
func ParseRows(spec string) ([]int, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return nil, nil
	}

	var out []int
	seen := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parseRowToken(part)
		if err != nil {
			return nil, err
		}
		for i := lo; i <= hi; i++ {
			if !seen[i] {
				seen[i] = true
				out = append(out, i)
			}
		}
	}
	return out, nil
}

func parseRowToken(tok string) (lo, hi int, err error) {
	bad := func() error {
		return apperr.New(apperr.BadSpec, "bad row token %q", tok).With("token", tok)
	}
	a, b, ranged := strings.Cut(tok, "-")
	lo, err = strconv.Atoi(strings.TrimSpace(a))
	if err != nil || lo < 1 {
		return 0, 0, bad()
	}
	if !ranged {
		return lo, lo, nil
	}
	hi, err = strconv.Atoi(strings.TrimSpace(b))
	if err != nil || hi < 1 || hi < lo {
		return 0, 0, bad()
	}
	return lo, hi, nil
}
