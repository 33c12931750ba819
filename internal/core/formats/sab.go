package formats

import (
	"strings"

	"github.com/JonMunkholm/fooddb/internal/core"
)

// South Asian layout: English food list with per-country local names.
var (
	sabFoodCode    = core.Col("A", "Food code")
	sabEnglishName = core.Col("B", "Food description")
	sabAction      = core.Col("C", "Action")
	sabFCTTable    = core.Col("K", "Food composition table ID")
	sabFCTExisting = core.Col("L", "Existing food composition code")
	sabFCTNew      = core.Col("M", "New food composition code")

	// One local name is built per country, in this order.
	sabLocalNameGroups = [][]core.Column{
		{core.Col("D", "Indian name 1"), core.Col("E", "Indian name 2")},
		{core.Col("F", "Sri Lankan name 1"), core.Col("G", "Sri Lankan name 2")},
		{core.Col("H", "Pakistani name 1"), core.Col("I", "Pakistani name 2")},
		{core.Col("J", "Bangladeshi name")},
	}

	sabCategories = core.ColumnRange("N", 10)
)

const sabLocalNameSeparator = " – "

func init() {
	core.RegisterFormat(core.Format{
		Key:         "sab1",
		Label:       "South Asian",
		Description: "South Asian food list with Indian, Sri Lankan, Pakistani and Bangladeshi names",
		Parse: func(rows []core.SheetRow) ([]string, []core.FoodAction) {
			return parseRows(rows, parseSABRow)
		},
	})
}

// sabLocalName renders the local names of one country as
// "Name1 – Name2 (English name)", or "" when the country has none.
func sabLocalName(englishName string, names []string) string {
	if len(names) == 0 {
		return ""
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = capitalize(n)
	}
	return strings.Join(parts, sabLocalNameSeparator) + " (" + englishName + ")"
}

func parseSABRow(sr core.SheetRow) ([]core.FoodAction, error) {
	row := core.NewRowReader(sr.Cells, sr.Number, core.DefaultBlankValues...)

	action, err := row.Required(sabAction)
	if err != nil {
		return nil, err
	}
	englishName, err := row.Required(sabEnglishName)
	if err != nil {
		return nil, err
	}

	var localNames []core.FoodDescription
	for _, group := range sabLocalNameGroups {
		if name := sabLocalName(englishName, row.CollectNonBlank(group...)); name != "" {
			localNames = append(localNames, core.FoodDescription{English: englishName, Local: name})
		}
	}

	switch strings.ToLower(action) {
	case "keep":
		code, err := row.Required(sabFoodCode)
		if err != nil {
			return nil, err
		}
		fct, err := sabFCT(row)
		if err != nil {
			return nil, err
		}

		local := englishName
		var copies []core.FoodDescription
		if len(localNames) > 0 {
			local = localNames[0].Local
			copies = localNames[1:]
		}

		return []core.FoodAction{core.Include{
			Row:              sr.Number,
			FoodCode:         code,
			LocalDescription: local,
			Copies:           copies,
			FCT:              fct,
		}}, nil

	case "new":
		fct, err := sabFCT(row)
		if err != nil {
			return nil, err
		}

		// The plain English name is only used when there is no local name.
		descriptions := localNames
		if len(descriptions) == 0 {
			descriptions = sameDescriptions(englishName)
		}

		return expandNew(core.New{
			Row:        sr.Number,
			Categories: row.CollectDistinct(sabCategories...),
			FCT:        fct,
		}, descriptions), nil

	case "delete":
		return []core.FoodAction{core.NoAction{Row: sr.Number}}, nil

	default:
		return nil, unexpectedAction(sr.Number, action)
	}
}

func sabFCT(row *core.RowReader) (*core.FCTReference, error) {
	table, err := row.Required(sabFCTTable)
	if err != nil {
		return nil, err
	}
	record, err := row.OneOf(sabFCTExisting, sabFCTNew)
	if err != nil {
		return nil, err
	}
	return fctRef(table, record), nil
}
