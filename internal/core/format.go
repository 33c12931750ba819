package core

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// ParseFunc turns data rows into actions. Rows that cannot be parsed add one
// message to errors and contribute no action. Row order is preserved.
type ParseFunc func(rows []SheetRow) (errors []string, actions []FoodAction)

// Format is one fixed spreadsheet dialect.
type Format struct {
	Key         string    `json:"key"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Parse       ParseFunc `json:"-"`
}

var (
	formats   = make(map[string]Format)
	formatsMu sync.RWMutex
)

// RegisterFormat adds a dialect to the registry.
// Panics if a format with the same key is already registered.
func RegisterFormat(f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()

	if f.Parse == nil {
		panic(fmt.Sprintf("format %s has no parser", f.Key))
	}
	if _, exists := formats[f.Key]; exists {
		panic(fmt.Sprintf("format already registered: %s", f.Key))
	}

	formats[f.Key] = f
}

// GetFormat returns a dialect by key.
func GetFormat(key string) (Format, bool) {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	f, ok := formats[key]
	return f, ok
}

// Formats returns all registered dialects sorted by key.
func Formats() []Format {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	result := make([]Format, 0, len(formats))
	for _, f := range formats {
		result = append(result, f)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// ClearFormats removes all registered dialects.
// Primarily useful for testing.
func ClearFormats() {
	formatsMu.Lock()
	defer formatsMu.Unlock()
	formats = make(map[string]Format)
}

// ParseTable reads a spreadsheet export and parses it with the dialect
// registered under key.
func ParseTable(key string, r io.Reader) ([]string, []FoodAction, error) {
	f, ok := GetFormat(key)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownFormat, key)
	}

	rows, _, err := ReadSheet(r)
	if err != nil {
		return nil, nil, err
	}

	errs, actions := f.Parse(rows)
	return errs, actions, nil
}
