package formats

import (
	"strings"

	"github.com/JonMunkholm/fooddb/internal/core"
)

// NDNS layout: one row per existing or proposed food of the UK survey list.
var (
	ndnsFoodCode       = core.Col("A", "Food code")
	ndnsOldDescription = core.Col("B", "Old description")
	ndnsFCTTable       = core.Col("C", "Food composition table")
	ndnsFCTExisting    = core.Col("D", "Existing food composition code")
	ndnsFCTNew         = core.Col("E", "New food composition code")
	ndnsNewDescription = core.Col("F", "New description")
	ndnsAction         = core.Col("G", "Action")

	ndnsCopies     = []core.Column{core.Col("H", "Copy description 1"), core.Col("I", "Copy description 2")}
	ndnsAsServed   = core.ColumnRange("J", 4)
	ndnsGuide      = core.ColumnRange("N", 2)
	ndnsCategories = core.ColumnRange("P", 10)
)

func init() {
	core.RegisterFormat(core.Format{
		Key:         "ndns1",
		Label:       "NDNS",
		Description: "UK National Diet and Nutrition Survey food list",
		Parse: func(rows []core.SheetRow) ([]string, []core.FoodAction) {
			return parseRows(rows, parseNDNSRow)
		},
	})
}

func parseNDNSRow(sr core.SheetRow) ([]core.FoodAction, error) {
	row := core.NewRowReader(sr.Cells, sr.Number, core.DefaultBlankValues...)

	action, err := row.Required(ndnsAction)
	if err != nil {
		return nil, err
	}

	copies := sameDescriptions(row.CollectNonBlank(ndnsCopies...)...)

	switch strings.ToLower(action) {
	case "retain", "retain+subfood", "ingredient":
		code, err := row.Required(ndnsFoodCode)
		if err != nil {
			return nil, err
		}
		fct, err := ndnsOptionalFCT(row)
		if err != nil {
			return nil, err
		}
		description, err := row.OneOf(ndnsOldDescription, ndnsNewDescription)
		if err != nil {
			return nil, err
		}
		return []core.FoodAction{core.Include{
			Row:              sr.Number,
			FoodCode:         code,
			LocalDescription: description,
			Copies:           copies,
			FCT:              fct,
		}}, nil

	case "new", "new-ndb", "new+subfood":
		return ndnsNew(sr.Number, row, copies, false)

	case "new-ingredient", "new-ingredient+subfood":
		return ndnsNew(sr.Number, row, copies, true)

	case "replace", "replace+subfood":
		code, err := row.Required(ndnsFoodCode)
		if err != nil {
			return nil, err
		}
		description, err := row.Required(ndnsNewDescription)
		if err != nil {
			return nil, err
		}
		table, err := row.Required(ndnsFCTTable)
		if err != nil {
			return nil, err
		}
		record, err := row.Required(ndnsFCTNew)
		if err != nil {
			return nil, err
		}
		return []core.FoodAction{core.Include{
			Row:              sr.Number,
			FoodCode:         code,
			LocalDescription: description,
			Copies:           copies,
			FCT:              fctRef(table, record),
		}}, nil

	case "exclude":
		return []core.FoodAction{core.NoAction{Row: sr.Number}}, nil

	default:
		return nil, unexpectedAction(sr.Number, action)
	}
}

// ndnsOptionalFCT returns nil when no table is given; a table without any
// record code is an error.
func ndnsOptionalFCT(row *core.RowReader) (*core.FCTReference, error) {
	table := row.Optional(ndnsFCTTable)
	if table == nil {
		return nil, nil
	}
	record, err := row.OneOf(ndnsFCTExisting, ndnsFCTNew)
	if err != nil {
		return nil, err
	}
	return fctRef(*table, record), nil
}

func ndnsNew(rowNum int, row *core.RowReader, copies []core.FoodDescription, recipesOnly bool) ([]core.FoodAction, error) {
	description, err := row.Required(ndnsNewDescription)
	if err != nil {
		return nil, err
	}
	table, err := row.Required(ndnsFCTTable)
	if err != nil {
		return nil, err
	}
	record, err := row.OneOf(ndnsFCTExisting, ndnsFCTNew)
	if err != nil {
		return nil, err
	}

	var methods []core.PortionSizeMethod
	for _, id := range row.CollectNonBlank(ndnsGuide...) {
		methods = append(methods, core.GuideImageMethod(id))
	}
	for _, id := range row.CollectNonBlank(ndnsAsServed...) {
		methods = append(methods, core.AsServedMethod(id))
	}

	descriptions := append(copies, sameDescriptions(description)...)

	return expandNew(core.New{
		Row:                rowNum,
		Categories:         row.CollectDistinct(ndnsCategories...),
		FCT:                fctRef(table, record),
		RecipesOnly:        recipesOnly,
		PortionSizeMethods: methods,
	}, descriptions), nil
}
