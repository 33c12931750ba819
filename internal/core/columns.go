package core

import (
	"fmt"
	"strings"
)

// OffsetToColumn converts a zero-based column offset to spreadsheet letters
// (0 -> A, 25 -> Z, 26 -> AA).
func OffsetToColumn(offset int) string {
	if offset < 0 {
		return ""
	}

	var b []byte
	for n := offset + 1; n > 0; n = (n - 1) / 26 {
		b = append(b, byte('A'+(n-1)%26))
	}

	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// ColumnToOffset converts spreadsheet letters to a zero-based column offset.
// Letters are case-insensitive.
func ColumnToOffset(letters string) (int, error) {
	letters = strings.TrimSpace(letters)
	if letters == "" {
		return 0, fmt.Errorf("empty column reference")
	}

	n := 0
	for _, r := range strings.ToUpper(letters) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("invalid column reference %q", letters)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n - 1, nil
}

// MustColumn is ColumnToOffset for fixed layouts declared at package level.
func MustColumn(letters string) int {
	offset, err := ColumnToOffset(letters)
	if err != nil {
		panic(err)
	}
	return offset
}

// Column is one fixed column of a spreadsheet layout.
type Column struct {
	Index int
	Label string
}

// Col declares a column by its spreadsheet letters.
func Col(letters, label string) Column {
	return Column{Index: MustColumn(letters), Label: label}
}

// ColumnRange declares count consecutive unlabelled columns starting at letters.
func ColumnRange(letters string, count int) []Column {
	start := MustColumn(letters)
	cols := make([]Column, count)
	for i := range cols {
		cols[i] = Column{Index: start + i, Label: OffsetToColumn(start + i)}
	}
	return cols
}

// Ref returns the column letters.
func (c Column) Ref() string {
	return OffsetToColumn(c.Index)
}
