package formats

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/fooddb/internal/core"
)

// New Zealand layout. Columns F-X carry attributes and categories that are
// maintained elsewhere and are not read here.
var (
	nzFoodCode         = core.Col("A", "Intake24 code")
	nzLocalDescription = core.Col("C", "Local description")
	nzFCTTable         = core.Col("D", "FCT table")
	nzFCTCode          = core.Col("E", "FCT code")
	nzRevised          = core.Col("Y", "Revised local description")
	nzAction           = core.Col("Z", "Action")
	nzSourceFood       = core.Col("AA", "Reference food")
	nzCloneAsMHDK      = core.Col("AB", "Use as milk in hot drink")
)

// mhdkCategory is the category of milk-in-hot-drink foods.
const mhdkCategory = "MHDK"

func init() {
	core.RegisterFormat(core.Format{
		Key:         "nz1",
		Label:       "New Zealand",
		Description: "New Zealand food list with reference foods and milk in hot drink clones",
		Parse: func(rows []core.SheetRow) ([]string, []core.FoodAction) {
			return parseRows(rows, parseNZRow)
		},
	})
}

func parseNZRow(sr core.SheetRow) ([]core.FoodAction, error) {
	row := core.NewRowReader(sr.Cells, sr.Number, core.DefaultBlankValues...)

	action, err := row.Required(nzAction)
	if err != nil {
		return nil, err
	}

	var (
		primary     core.FoodAction
		description string
		fct         *core.FCTReference
	)

	switch strings.ToLower(action) {
	case "new":
		if description, err = row.Required(nzLocalDescription); err != nil {
			return nil, err
		}
		source, err := row.Required(nzSourceFood)
		if err != nil {
			return nil, err
		}
		fct = nzOptionalFCT(row)
		primary = core.Clone{
			Row:         sr.Number,
			SourceCode:  source,
			Description: core.FoodDescription{English: description, Local: description},
			FCT:         fct,
		}

	case "retain":
		code, err := row.Required(nzFoodCode)
		if err != nil {
			return nil, err
		}
		if description, err = row.Required(nzLocalDescription); err != nil {
			return nil, err
		}
		fct = nzOptionalFCT(row)
		primary = core.Include{Row: sr.Number, FoodCode: code, LocalDescription: description, FCT: fct}

	case "revise":
		code, err := row.Required(nzFoodCode)
		if err != nil {
			return nil, err
		}
		if description, err = row.Required(nzRevised); err != nil {
			return nil, err
		}
		table, err := row.Required(nzFCTTable)
		if err != nil {
			return nil, err
		}
		record, err := row.Required(nzFCTCode)
		if err != nil {
			return nil, err
		}
		fct = fctRef(table, record)
		primary = core.Include{Row: sr.Number, FoodCode: code, LocalDescription: description, FCT: fct}

	case "exclude":
		return []core.FoodAction{core.NoAction{Row: sr.Number}}, nil

	default:
		return nil, unexpectedAction(sr.Number, action)
	}

	if row.Optional(nzCloneAsMHDK) == nil {
		return []core.FoodAction{primary}, nil
	}

	if fct == nil {
		return nil, fmt.Errorf("Food composition table reference required for milk in hot drink records in row %d", sr.Number)
	}

	return []core.FoodAction{primary, core.New{
		Row:                sr.Number,
		Descriptions:       sameDescriptions(description),
		Categories:         []string{mhdkCategory},
		FCT:                fct,
		PortionSizeMethods: []core.PortionSizeMethod{core.MilkInHotDrinkMethod()},
	}}, nil
}

// nzOptionalFCT returns a reference only when both table and code are present.
func nzOptionalFCT(row *core.RowReader) *core.FCTReference {
	table := row.Optional(nzFCTTable)
	code := row.Optional(nzFCTCode)
	if table == nil || code == nil {
		return nil
	}
	return fctRef(*table, *code)
}
