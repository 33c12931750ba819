package core

import "fmt"

// Portion size method kinds and the parameter each one references.
const (
	MethodAsServed    = "as-served"
	MethodGuideImage  = "guide-image"
	MethodDrinkScale  = "drink-scale"
	MethodCereal      = "cereal"
	MethodMilkInDrink = "milk-in-a-hot-drink"

	ParamServingImageSet   = "serving-image-set"
	ParamLeftoversImageSet = "leftovers-image-set"
	ParamGuideImageID      = "guide-image-id"
	ParamDrinkwareID       = "drinkware-id"
	ParamCerealType        = "type"

	leftoversSuffix = "_leftovers"
)

// cerealTypes is the fixed set of cereal portion size types.
var cerealTypes = map[string]struct{}{
	"flake": {},
	"hoop":  {},
	"rkris": {},
}

// PortionSizeCatalogs holds the ids portion size methods may reference.
type PortionSizeCatalogs struct {
	AsServedSets  map[string]struct{}
	GuideImages   map[string]struct{}
	DrinkwareSets map[string]struct{}
}

// GuideImageMethod builds a guide-image method with the standard defaults.
func GuideImageMethod(guideImageID string) PortionSizeMethod {
	return PortionSizeMethod{
		Method:           MethodGuideImage,
		Description:      "use_an_image",
		ImageURL:         "standard-portion.jpg",
		UseForRecipes:    true,
		ConversionFactor: 1.0,
		Parameters:       []PortionSizeParameter{{Name: ParamGuideImageID, Value: guideImageID}},
	}
}

// AsServedMethod builds an as-served method with the standard defaults.
func AsServedMethod(servingSetID string) PortionSizeMethod {
	return PortionSizeMethod{
		Method:           MethodAsServed,
		Description:      "use_an_image",
		ImageURL:         "standard-portion.jpg",
		UseForRecipes:    true,
		ConversionFactor: 1.0,
		Parameters:       []PortionSizeParameter{{Name: ParamServingImageSet, Value: servingSetID}},
	}
}

// MilkInHotDrinkMethod is the single method of synthetic milk-in-hot-drink foods.
func MilkInHotDrinkMethod() PortionSizeMethod {
	return PortionSizeMethod{
		Method:           MethodMilkInDrink,
		Description:      "in_a_mug",
		ImageURL:         "portion/mugs.jpg",
		UseForRecipes:    false,
		ConversionFactor: 1.0,
		Parameters:       []PortionSizeParameter{},
	}
}

// ValidatePortionSizeMethods returns one message per method that references
// an id missing from its catalog. Unknown method kinds are not checked.
func ValidatePortionSizeMethods(methods []PortionSizeMethod, catalogs PortionSizeCatalogs) []string {
	var problems []string

	for _, m := range methods {
		switch m.Method {
		case MethodAsServed:
			id, _ := m.Param(ParamServingImageSet)
			if _, ok := catalogs.AsServedSets[id]; !ok {
				problems = append(problems, fmt.Sprintf("As served set %q does not exist", id))
			}
		case MethodGuideImage:
			id, _ := m.Param(ParamGuideImageID)
			if _, ok := catalogs.GuideImages[id]; !ok {
				problems = append(problems, fmt.Sprintf("Guide image %q does not exist", id))
			}
		case MethodDrinkScale:
			id, _ := m.Param(ParamDrinkwareID)
			if _, ok := catalogs.DrinkwareSets[id]; !ok {
				problems = append(problems, fmt.Sprintf("Drink scale %q does not exist", id))
			}
		case MethodCereal:
			t, _ := m.Param(ParamCerealType)
			if _, ok := cerealTypes[t]; !ok {
				problems = append(problems, fmt.Sprintf("Cereal type %q does not exist", t))
			}
		}
	}

	return problems
}

// ValidateNewAction checks the portion size methods of a New action and
// prefixes each problem with its row and first description.
func ValidateNewAction(a New, catalogs PortionSizeCatalogs) []string {
	problems := ValidatePortionSizeMethods(a.PortionSizeMethods, catalogs)
	if len(problems) == 0 {
		return nil
	}

	description := ""
	if len(a.Descriptions) > 0 {
		description = a.Descriptions[0].English
	}

	for i, p := range problems {
		problems[i] = fmt.Sprintf("In row %d, %q: %s", a.Row, description, p)
	}
	return problems
}

// WithLeftovers returns methods with a leftovers image set attached to every
// as-served method that has none, when "<serving set>_leftovers" exists in the
// as-served catalog. The input slice is not modified.
func WithLeftovers(methods []PortionSizeMethod, asServedSets map[string]struct{}) []PortionSizeMethod {
	out := make([]PortionSizeMethod, len(methods))

	for i, m := range methods {
		out[i] = m
		if m.Method != MethodAsServed {
			continue
		}
		if _, has := m.Param(ParamLeftoversImageSet); has {
			continue
		}

		id, _ := m.Param(ParamServingImageSet)
		candidate := id + leftoversSuffix
		if _, ok := asServedSets[candidate]; !ok {
			continue
		}

		params := make([]PortionSizeParameter, 0, len(m.Parameters)+1)
		params = append(params, m.Parameters...)
		params = append(params, PortionSizeParameter{Name: ParamLeftoversImageSet, Value: candidate})
		out[i].Parameters = params
	}

	return out
}
