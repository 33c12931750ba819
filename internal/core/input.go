package core

// input.go turns an uploaded spreadsheet export into numbered rows.
//
// Curators export from Excel, so files arrive as UTF-8 with or without a BOM,
// or as UTF-16 "Unicode text". The byte order mark, when present, selects the
// decoder; invalid sequences become U+FFFD instead of failing the run.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// SheetRow is one data row with its 1-based spreadsheet row number.
type SheetRow struct {
	Number int
	Cells  []string
}

// countingReader tracks bytes read from the upload.
type countingReader struct {
	r     io.Reader
	bytes int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.bytes += int64(n)
	return n, err
}

// DecodeInput wraps r so that a leading BOM is removed and the content is
// decoded to UTF-8.
func DecodeInput(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

// ReadSheet reads every row after the header. The header is row 1, so the
// first data row is numbered 2. It returns the number of raw bytes consumed.
func ReadSheet(r io.Reader) ([]SheetRow, int64, error) {
	counter := &countingReader{r: r}

	reader := csv.NewReader(DecodeInput(counter))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	var rows []SheetRow
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, counter.bytes, fmt.Errorf("%w at row %d: %w", ErrInvalidSheet, line+1, err)
		}

		line++
		if line == 1 {
			continue
		}
		rows = append(rows, SheetRow{Number: line, Cells: record})
	}

	if line == 0 {
		return nil, counter.bytes, ErrEmptyInput
	}
	return rows, counter.bytes, nil
}
