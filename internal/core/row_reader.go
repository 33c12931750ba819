package core

import (
	"fmt"
	"strings"
)

// DefaultBlankValues are cell values curators use to mean "empty".
var DefaultBlankValues = []string{"0", "#N/A"}

// RowReader gives descriptive-error access to the cells of one spreadsheet row.
type RowReader struct {
	cells []string
	row   int
	blank map[string]struct{}
}

// NewRowReader wraps cells read from the given 1-based row. Cells equal to
// one of blankValues (after trimming) read as blank.
func NewRowReader(cells []string, row int, blankValues ...string) *RowReader {
	blank := make(map[string]struct{}, len(blankValues))
	for _, v := range blankValues {
		blank[v] = struct{}{}
	}
	return &RowReader{cells: cells, row: row, blank: blank}
}

// Row returns the 1-based row number.
func (r *RowReader) Row() int {
	return r.row
}

// cell returns the trimmed, blank-normalized cell and whether the column exists.
func (r *RowReader) cell(c Column) (string, bool) {
	if c.Index < 0 || c.Index >= len(r.cells) {
		return "", false
	}
	v := CleanCell(r.cells[c.Index])
	if _, ok := r.blank[v]; ok {
		return "", true
	}
	return v, true
}

// Required returns the cell or an error naming the column and row.
func (r *RowReader) Required(c Column) (string, error) {
	v, ok := r.cell(c)
	if !ok {
		return "", fmt.Errorf("%s (column %s) is required in row %d but the column is missing", c.Label, c.Ref(), r.row)
	}
	if v == "" {
		return "", fmt.Errorf("%s (column %s) is required in row %d but the column is blank", c.Label, c.Ref(), r.row)
	}
	return v, nil
}

// Optional returns the cell, or nil when it is missing or blank.
func (r *RowReader) Optional(c Column) *string {
	v, _ := r.cell(c)
	if v == "" {
		return nil
	}
	return &v
}

// OneOf returns the first non-blank of two columns.
func (r *RowReader) OneOf(a, b Column) (string, error) {
	if v := r.Optional(a); v != nil {
		return *v, nil
	}
	if v := r.Optional(b); v != nil {
		return *v, nil
	}
	return "", fmt.Errorf("Either %s (column %s) or %s (column %s) is required for row %d but both are missing",
		a.Label, a.Ref(), b.Label, b.Ref(), r.row)
}

// CollectNonBlank returns the non-blank cells of cols in order.
func (r *RowReader) CollectNonBlank(cols ...Column) []string {
	var out []string
	for _, c := range cols {
		if v := r.Optional(c); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// CollectDistinct is CollectNonBlank without repeated values.
func (r *RowReader) CollectDistinct(cols ...Column) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range r.CollectNonBlank(cols...) {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// CleanCell trims whitespace, the ="..." text-formula wrapper Excel uses to
// keep leading zeros, and surrounding double quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}

	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	return strings.TrimSpace(s)
}
