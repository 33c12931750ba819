package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestColumnConversion(t *testing.T) {
	tests := []struct {
		letters string
		offset  int
	}{
		{"A", 0},
		{"Z", 25},
		{"AA", 26},
		{"AB", 27},
		{"AZ", 51},
		{"BA", 52},
		{"ZZ", 701},
		{"AAA", 702},
	}

	for _, tt := range tests {
		got, err := ColumnToOffset(tt.letters)
		if err != nil {
			t.Fatalf("ColumnToOffset(%q) error = %v", tt.letters, err)
		}
		if got != tt.offset {
			t.Errorf("ColumnToOffset(%q) = %d, want %d", tt.letters, got, tt.offset)
		}
		if back := OffsetToColumn(tt.offset); back != tt.letters {
			t.Errorf("OffsetToColumn(%d) = %q, want %q", tt.offset, back, tt.letters)
		}
	}

	if got, _ := ColumnToOffset("ab"); got != 27 {
		t.Errorf("lower case letters = %d, want 27", got)
	}
	for _, bad := range []string{"", "A1", "-"} {
		if _, err := ColumnToOffset(bad); err == nil {
			t.Errorf("ColumnToOffset(%q) expected error", bad)
		}
	}
	if OffsetToColumn(-1) != "" {
		t.Error("negative offset should give empty string")
	}
}

func TestColumnRange(t *testing.T) {
	cols := ColumnRange("Y", 4)
	var refs []string
	for _, c := range cols {
		refs = append(refs, c.Ref())
	}
	if diff := cmp.Diff([]string{"Y", "Z", "AA", "AB"}, refs); diff != "" {
		t.Errorf("refs mismatch (-want +got):\n%s", diff)
	}
}

var (
	testCode  = Col("A", "Food code")
	testDesc  = Col("B", "Description")
	testTable = Col("C", "FCT table")
	testRec   = Col("D", "FCT code")
	testFar   = Col("Z", "Far column")
)

func TestRowReader_Required(t *testing.T) {
	row := NewRowReader([]string{" ABCD ", "", "0", "#N/A"}, 7, DefaultBlankValues...)

	got, err := row.Required(testCode)
	if err != nil || got != "ABCD" {
		t.Fatalf("Required(A) = %q, %v", got, err)
	}

	tests := []struct {
		col  Column
		want string
	}{
		{testDesc, "Description (column B) is required in row 7 but the column is blank"},
		{testTable, "FCT table (column C) is required in row 7 but the column is blank"},
		{testRec, "FCT code (column D) is required in row 7 but the column is blank"},
		{testFar, "Far column (column Z) is required in row 7 but the column is missing"},
	}
	for _, tt := range tests {
		_, err := row.Required(tt.col)
		if err == nil {
			t.Fatalf("Required(%s) expected error", tt.col.Ref())
		}
		if err.Error() != tt.want {
			t.Errorf("Required(%s) error = %q, want %q", tt.col.Ref(), err, tt.want)
		}
	}
}

func TestRowReader_BlankValuesOnlyWhenConfigured(t *testing.T) {
	row := NewRowReader([]string{"0"}, 2)
	if v := row.Optional(testCode); v == nil || *v != "0" {
		t.Errorf("Optional without blank set = %v, want \"0\"", v)
	}
}

func TestRowReader_OneOf(t *testing.T) {
	row := NewRowReader([]string{"", "", "", "R1"}, 4, DefaultBlankValues...)
	got, err := row.OneOf(testTable, testRec)
	if err != nil || got != "R1" {
		t.Fatalf("OneOf = %q, %v", got, err)
	}

	row = NewRowReader([]string{"", "", "", ""}, 5, DefaultBlankValues...)
	_, err = row.OneOf(testTable, testRec)
	want := "Either FCT table (column C) or FCT code (column D) is required for row 5 but both are missing"
	if err == nil || err.Error() != want {
		t.Errorf("OneOf error = %v, want %q", err, want)
	}
}

func TestRowReader_Collect(t *testing.T) {
	row := NewRowReader([]string{"SNCK", "0", "BRED", "SNCK", "", "FRUT"}, 3, DefaultBlankValues...)
	cols := ColumnRange("A", 7)

	if diff := cmp.Diff([]string{"SNCK", "BRED", "SNCK", "FRUT"}, row.CollectNonBlank(cols...)); diff != "" {
		t.Errorf("CollectNonBlank mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"SNCK", "BRED", "FRUT"}, row.CollectDistinct(cols...)); diff != "" {
		t.Errorf("CollectDistinct mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello ", "hello"},
		{`="00123"`, "00123"},
		{`"quoted"`, "quoted"},
		{`"`, `"`},
		{"", ""},
		{`=" padded "`, "padded"},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
