package core

import "fmt"

// FoodAction is the canonical instruction a spreadsheet row is parsed into.
//
// The set of implementations is closed: Include, New, Clone and NoAction.
// Consumers switch over all four and panic on anything else.
type FoodAction interface {
	foodAction()
	// SourceRow is the 1-based spreadsheet row the action came from.
	SourceRow() int
}

// Include keeps an existing food in the destination locale, optionally with
// stamped copies that share the row's FCT reference.
type Include struct {
	Row              int
	FoodCode         string
	LocalDescription string
	Copies           []FoodDescription
	FCT              *FCTReference
}

// New creates one brand-new food per description.
type New struct {
	Row                int
	Descriptions       []FoodDescription
	Categories         []string
	FCT                *FCTReference
	RecipesOnly        bool
	PortionSizeMethods []PortionSizeMethod
}

// Clone copies an existing food under a newly generated code.
type Clone struct {
	Row         int
	SourceCode  string
	Description FoodDescription
	FCT         *FCTReference
}

// NoAction is an excluded row.
type NoAction struct {
	Row int
}

func (Include) foodAction()  {}
func (New) foodAction()      {}
func (Clone) foodAction()    {}
func (NoAction) foodAction() {}

func (a Include) SourceRow() int  { return a.Row }
func (a New) SourceRow() int      { return a.Row }
func (a Clone) SourceRow() int    { return a.Row }
func (a NoAction) SourceRow() int { return a.Row }

// ActionKind returns a short name for the action, used in logs and summaries.
func ActionKind(a FoodAction) string {
	switch a.(type) {
	case Include:
		return "include"
	case New:
		return "new"
	case Clone:
		return "clone"
	case NoAction:
		return "none"
	default:
		unhandledAction(a)
		return ""
	}
}

// ActionCounts tallies actions by kind.
type ActionCounts struct {
	Include  int `json:"include"`
	New      int `json:"new"`
	Clone    int `json:"clone"`
	NoAction int `json:"noAction"`
}

// CountActions tallies actions by kind.
func CountActions(actions []FoodAction) ActionCounts {
	var c ActionCounts
	for _, a := range actions {
		switch a.(type) {
		case Include:
			c.Include++
		case New:
			c.New++
		case Clone:
			c.Clone++
		case NoAction:
			c.NoAction++
		default:
			unhandledAction(a)
		}
	}
	return c
}

func unhandledAction(a FoodAction) {
	panic(fmt.Sprintf("unhandled food action %T", a))
}

// duplicateIncludes reports every Include of a food code already included by
// an earlier row. Local data is written once per food.
func duplicateIncludes(actions []FoodAction) []string {
	first := make(map[string]int)
	var problems []string
	for _, a := range actions {
		inc, ok := a.(Include)
		if !ok {
			continue
		}
		if row, dup := first[inc.FoodCode]; dup {
			problems = append(problems, fmt.Sprintf("Food code %s in row %d is already included in row %d", inc.FoodCode, inc.Row, row))
			continue
		}
		first[inc.FoodCode] = inc.Row
	}
	return problems
}
