package core

import (
	"context"
	"time"
)

// member is one code added to the destination locale. Generated codes are
// subject to database deduplication; codes of existing foods are not.
type member struct {
	code      string
	generated bool
}

// Plan is the full set of mutations of one run, in commit order.
type Plan struct {
	// Generated codes.
	NewFoods      []NewFood
	FoodCopies    []FoodCopy
	NewLocalFoods []NewLocalFood
	LocalCopies   []LocalCopy

	// Existing codes.
	LocalOverrides []NewLocalFood
	LocalInherits  []LocalCopy

	members []member

	// Substitutions maps in-run codes replaced because they already exist in
	// the store to their replacements.
	Substitutions map[string]string
}

// planner turns validated actions into a Plan.
type planner struct {
	sourceLocale string
	dest         *Locale
	foodGroupID  int
	asServed     map[string]struct{}
	now          time.Time

	codes *CodeSet
	plan  *Plan
}

func newPlanner(sourceLocale string, dest *Locale, foodGroupID int, asServed map[string]struct{}, now time.Time) *planner {
	return &planner{
		sourceLocale: sourceLocale,
		dest:         dest,
		foodGroupID:  foodGroupID,
		asServed:     asServed,
		now:          now,
		codes:        NewCodeSet(),
		plan:         &Plan{Substitutions: map[string]string{}},
	}
}

// build assigns in-run unique codes in action order.
func (p *planner) build(actions []FoodAction) (*Plan, error) {
	for _, a := range actions {
		var err error
		switch a := a.(type) {
		case Include:
			err = p.planInclude(a)
		case New:
			err = p.planNew(a)
		case Clone:
			err = p.planClone(a)
		case NoAction:
		default:
			unhandledAction(a)
		}
		if err != nil {
			return nil, err
		}
	}
	return p.plan, nil
}

func (p *planner) planNew(a New) error {
	useInRecipes := UseAsRegularFood
	if a.RecipesOnly {
		useInRecipes = UseAsRecipeIngredient
	}

	methods := WithLeftovers(a.PortionSizeMethods, p.asServed)

	for _, d := range a.Descriptions {
		code, err := p.codes.MakeUniqueAndRemember(d.English, p.now)
		if err != nil {
			return err
		}

		local := d.Local
		recipes := useInRecipes
		p.plan.NewFoods = append(p.plan.NewFoods, NewFood{
			Code:               code,
			EnglishDescription: d.English,
			FoodGroupID:        p.foodGroupID,
			Attributes:         FoodAttributes{UseInRecipes: &recipes},
			Categories:         a.Categories,
		})
		p.plan.NewLocalFoods = append(p.plan.NewLocalFoods, NewLocalFood{
			Code:               code,
			LocalDescription:   &local,
			FCTRefs:            fctRefs(a.FCT),
			PortionSizeMethods: methods,
			AssociatedFoods:    []AssociatedFood{},
			Brands:             []string{},
		})
		p.plan.members = append(p.plan.members, member{code: code, generated: true})
	}
	return nil
}

// planInclude applies the prototype rule: a destination locale whose
// prototype is the source locale already inherits the source's local data,
// so only the description and FCT override are written. Any other
// destination gets an explicit copy of the source's local data.
func (p *planner) planInclude(a Include) error {
	if p.dest.InheritsFrom(p.sourceLocale) {
		description := a.LocalDescription
		p.plan.LocalOverrides = append(p.plan.LocalOverrides, NewLocalFood{
			Code:               a.FoodCode,
			LocalDescription:   &description,
			FCTRefs:            fctRefs(a.FCT),
			PortionSizeMethods: []PortionSizeMethod{},
			AssociatedFoods:    []AssociatedFood{},
			Brands:             []string{},
		})
	} else {
		p.plan.LocalInherits = append(p.plan.LocalInherits, LocalCopy{
			SourceCode:       a.FoodCode,
			DestCode:         a.FoodCode,
			LocalDescription: a.LocalDescription,
			FCTOverride:      a.FCT,
		})
	}
	p.plan.members = append(p.plan.members, member{code: a.FoodCode})

	for _, c := range a.Copies {
		if err := p.planCopy(a.FoodCode, c, a.FCT); err != nil {
			return err
		}
	}
	return nil
}

func (p *planner) planClone(a Clone) error {
	return p.planCopy(a.SourceCode, a.Description, a.FCT)
}

// planCopy copies sourceCode under a new code with its own descriptions.
func (p *planner) planCopy(sourceCode string, d FoodDescription, fct *FCTReference) error {
	code, err := p.codes.MakeUniqueAndRemember(d.English, p.now)
	if err != nil {
		return err
	}

	p.plan.FoodCopies = append(p.plan.FoodCopies, FoodCopy{
		SourceCode:     sourceCode,
		NewCode:        code,
		NewDescription: d.English,
	})
	p.plan.LocalCopies = append(p.plan.LocalCopies, LocalCopy{
		SourceCode:       sourceCode,
		DestCode:         code,
		LocalDescription: d.Local,
		FCTOverride:      fct,
	})
	p.plan.members = append(p.plan.members, member{code: code, generated: true})
	return nil
}

func fctRefs(ref *FCTReference) []FCTReference {
	if ref == nil {
		return []FCTReference{}
	}
	return []FCTReference{*ref}
}

// GeneratedCodes returns every code produced in this run, in allocation order.
func (p *Plan) GeneratedCodes() []string {
	var codes []string
	for _, m := range p.members {
		if m.generated {
			codes = append(codes, m.code)
		}
	}
	return codes
}

// Members returns the distinct codes to add to the destination locale.
func (p *Plan) Members() []string {
	seen := make(map[string]struct{}, len(p.members))
	codes := make([]string, 0, len(p.members))
	for _, m := range p.members {
		if _, dup := seen[m.code]; dup {
			continue
		}
		seen[m.code] = struct{}{}
		codes = append(codes, m.code)
	}
	return codes
}

// LocalFoods returns every local food record to create.
func (p *Plan) LocalFoods() []NewLocalFood {
	out := make([]NewLocalFood, 0, len(p.NewLocalFoods)+len(p.LocalOverrides))
	out = append(out, p.NewLocalFoods...)
	return append(out, p.LocalOverrides...)
}

// LocalCopiesAll returns every explicit local data copy.
func (p *Plan) LocalCopiesAll() []LocalCopy {
	out := make([]LocalCopy, 0, len(p.LocalInherits)+len(p.LocalCopies))
	out = append(out, p.LocalInherits...)
	return append(out, p.LocalCopies...)
}

// applySubstitutions renames generated codes. Codes of existing foods are
// never renamed, even when a generated code happened to equal one.
func (p *Plan) applySubstitutions(subs map[string]string) {
	if len(subs) == 0 {
		return
	}
	p.Substitutions = subs

	rename := func(code string) string {
		if s, ok := subs[code]; ok {
			return s
		}
		return code
	}

	for i := range p.NewFoods {
		p.NewFoods[i].Code = rename(p.NewFoods[i].Code)
	}
	for i := range p.NewLocalFoods {
		p.NewLocalFoods[i].Code = rename(p.NewLocalFoods[i].Code)
	}
	for i := range p.FoodCopies {
		p.FoodCopies[i].NewCode = rename(p.FoodCopies[i].NewCode)
	}
	for i := range p.LocalCopies {
		p.LocalCopies[i].DestCode = rename(p.LocalCopies[i].DestCode)
	}
	for i := range p.members {
		if p.members[i].generated {
			p.members[i].code = rename(p.members[i].code)
		}
	}
}

// assignUniqueCodes removes collisions between generated codes and persisted codes.
func (p *Plan) assignUniqueCodes(ctx context.Context, lookup DuplicateCodeLookup) error {
	generated := p.GeneratedCodes()
	if len(generated) == 0 {
		return nil
	}

	subs, err := EnsureUniqueInDatabase(ctx, lookup, generated)
	if err != nil {
		return err
	}
	p.applySubstitutions(subs)
	return nil
}
