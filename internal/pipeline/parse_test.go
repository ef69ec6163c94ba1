package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetflow/internal/apperr"
)

func TestParseColumns(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []int
	}{
		{"single letters and range", "A,C,E-G", []int{1, 3, 5, 6, 7}},
		{"double letters", "AA", []int{27}},
		{"lowercase ok", "a,b", []int{1, 2}},
		{"whitespace ignored", " A , C ", []int{1, 3}},
		{"declaration order preserved", "E,A,C", []int{5, 1, 3}},
		{"duplicates keep first position", "A,C,A-B", []int{1, 3, 2}},
		{"blank means all", "", nil},
		{"whitespace only means all", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColumns(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColumnsBadSpec(t *testing.T) {
	for _, spec := range []string{"1", "A1", "A-", "-B", "G-E", "A,,?", "A--B"} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseColumns(spec)
			require.Error(t, err)
			assert.Equal(t, apperr.BadSpec, apperr.CodeOf(err))
		})
	}
}

func TestParseRows(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want []int
	}{
		{"range plus single", "1-3,9", []int{1, 2, 3, 9}},
		{"big ranges", "1-3,9-11,117", []int{1, 2, 3, 9, 10, 11, 117}},
		{"order preserved", "9,1-2", []int{9, 1, 2}},
		{"dedup keeps first", "2,1-3", []int{2, 1, 3}},
		{"blank means all", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRows(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRowsBadSpec(t *testing.T) {
	for _, spec := range []string{"5-2", "0", "-1", "x", "1-x", "1.5"} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseRows(spec)
			require.Error(t, err)
			assert.Equal(t, apperr.BadSpec, apperr.CodeOf(err))
		})
	}
}

func TestParseErrorCarriesToken(t *testing.T) {
	_, err := ParseColumns("A,Q1,B")
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "Q1", ae.Details["token"])
}

func TestColLetters(t *testing.T) {
	for letters, idx := range map[string]int{"A": 1, "Z": 26, "AA": 27, "AZ": 52, "BA": 53, "ZZ": 702} {
		got, err := ColLettersToIndex(letters)
		require.NoError(t, err)
		assert.Equal(t, idx, got, letters)
		assert.Equal(t, letters, ColIndexToLetters(idx))
	}
}
