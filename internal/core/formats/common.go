package formats

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JonMunkholm/fooddb/internal/core"
)

// rowParser parses one data row into zero or more actions.
type rowParser func(row core.SheetRow) ([]core.FoodAction, error)

// parseRows applies parse to every row, collecting errors and actions in row order.
func parseRows(rows []core.SheetRow, parse rowParser) ([]string, []core.FoodAction) {
	var (
		errs    []string
		actions []core.FoodAction
	)

	for _, row := range rows {
		if isEmptyRow(row.Cells) {
			continue
		}

		parsed, err := parse(row)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		actions = append(actions, parsed...)
	}

	return errs, actions
}

// isEmptyRow reports whether every cell is blank. Spreadsheet exports often
// end with a run of empty rows.
func isEmptyRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func unexpectedAction(row int, token string) error {
	return fmt.Errorf("Unexpected action in row %d: %s", row, token)
}

// sameDescriptions uses each text as both the English and the local description.
func sameDescriptions(texts ...string) []core.FoodDescription {
	out := make([]core.FoodDescription, len(texts))
	for i, t := range texts {
		out[i] = core.FoodDescription{English: t, Local: t}
	}
	return out
}

// capitalize upper-cases the first letter of s.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}

// expandNew emits one New action per description, all sharing the rest of template.
func expandNew(template core.New, descriptions []core.FoodDescription) []core.FoodAction {
	actions := make([]core.FoodAction, 0, len(descriptions))
	for _, d := range descriptions {
		a := template
		a.Descriptions = []core.FoodDescription{d}
		actions = append(actions, a)
	}
	return actions
}

func fctRef(table, record string) *core.FCTReference {
	return &core.FCTReference{TableID: table, RecordID: record}
}
