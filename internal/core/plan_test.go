package core

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestPlan_IncludeInheritingDestination(t *testing.T) {
	dest := &Locale{ID: "en_NZ", PrototypeLocale: strPtr("en_GB")}
	fct := &FCTReference{TableID: "NZFCT", RecordID: "F01"}

	plan, err := newPlanner("en_GB", dest, 1, nil, testNow).build([]FoodAction{
		Include{Row: 2, FoodCode: "APPL", LocalDescription: "Apple, NZ", FCT: fct},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []NewLocalFood{{
		Code:               "APPL",
		LocalDescription:   strPtr("Apple, NZ"),
		FCTRefs:            []FCTReference{*fct},
		PortionSizeMethods: []PortionSizeMethod{},
		AssociatedFoods:    []AssociatedFood{},
		Brands:             []string{},
	}}
	if diff := cmp.Diff(want, plan.LocalOverrides); diff != "" {
		t.Errorf("overrides mismatch (-want +got):\n%s", diff)
	}
	if len(plan.LocalInherits) != 0 || len(plan.LocalCopies) != 0 || len(plan.FoodCopies) != 0 {
		t.Errorf("inheriting destination got explicit copies: %+v", plan)
	}
	if diff := cmp.Diff([]string{"APPL"}, plan.Members()); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_IncludeOtherDestinationCopiesLocalData(t *testing.T) {
	dest := &Locale{ID: "ar_AE"}
	fct := &FCTReference{TableID: "NDNS", RecordID: "12"}

	plan, err := newPlanner("en_GB", dest, 1, nil, testNow).build([]FoodAction{
		Include{
			Row:              2,
			FoodCode:         "APPL",
			LocalDescription: "Tuffah",
			Copies:           []FoodDescription{{English: "Apple dried", Local: "Tuffah mujaffaf"}},
			FCT:              fct,
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(plan.LocalOverrides) != 0 {
		t.Errorf("unexpected overrides: %+v", plan.LocalOverrides)
	}

	wantCopies := []LocalCopy{
		{SourceCode: "APPL", DestCode: "APPL", LocalDescription: "Tuffah", FCTOverride: fct},
		{SourceCode: "APPL", DestCode: "24APDR", LocalDescription: "Tuffah mujaffaf", FCTOverride: fct},
	}
	if diff := cmp.Diff(wantCopies, plan.LocalCopiesAll()); diff != "" {
		t.Errorf("local copies mismatch (-want +got):\n%s", diff)
	}

	wantFood := []FoodCopy{{SourceCode: "APPL", NewCode: "24APDR", NewDescription: "Apple dried"}}
	if diff := cmp.Diff(wantFood, plan.FoodCopies); diff != "" {
		t.Errorf("food copies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"24APDR"}, plan.GeneratedCodes()); diff != "" {
		t.Errorf("generated mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_NewFoodPerDescription(t *testing.T) {
	asServed := map[string]struct{}{"rice": {}, "rice_leftovers": {}}
	fct := &FCTReference{TableID: "NDNS", RecordID: "7"}

	plan, err := newPlanner("en_GB", &Locale{ID: "en_IN"}, 5, asServed, testNow).build([]FoodAction{
		New{
			Row:                3,
			Descriptions:       []FoodDescription{{English: "Rice boiled", Local: "Chawal"}, {English: "Rice fried", Local: "Tala chawal"}},
			Categories:         []string{"RICE"},
			FCT:                fct,
			RecipesOnly:        true,
			PortionSizeMethods: []PortionSizeMethod{AsServedMethod("rice")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	wantFoods := []NewFood{
		{Code: "24RIBO", EnglishDescription: "Rice boiled", FoodGroupID: 5, Attributes: FoodAttributes{UseInRecipes: intPtr(UseAsRecipeIngredient)}, Categories: []string{"RICE"}},
		{Code: "24RIFR", EnglishDescription: "Rice fried", FoodGroupID: 5, Attributes: FoodAttributes{UseInRecipes: intPtr(UseAsRecipeIngredient)}, Categories: []string{"RICE"}},
	}
	if diff := cmp.Diff(wantFoods, plan.NewFoods); diff != "" {
		t.Errorf("foods mismatch (-want +got):\n%s", diff)
	}

	if len(plan.NewLocalFoods) != 2 {
		t.Fatalf("local foods = %d, want 2", len(plan.NewLocalFoods))
	}
	local := plan.NewLocalFoods[1]
	if local.LocalDescription == nil || *local.LocalDescription != "Tala chawal" {
		t.Errorf("local description = %v", local.LocalDescription)
	}
	if v, _ := local.PortionSizeMethods[0].Param(ParamLeftoversImageSet); v != "rice_leftovers" {
		t.Errorf("leftovers = %q, want rice_leftovers", v)
	}
	if diff := cmp.Diff([]FCTReference{*fct}, local.FCTRefs); diff != "" {
		t.Errorf("fct mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_InRunCollisionDeduplicated(t *testing.T) {
	plan, err := newPlanner("en_GB", &Locale{ID: "en_IN"}, 1, nil, testNow).build([]FoodAction{
		New{Row: 2, Descriptions: []FoodDescription{{English: "Abc Cdf", Local: "x"}}},
		New{Row: 3, Descriptions: []FoodDescription{{English: "Abcd Cdef", Local: "y"}}},
		Clone{Row: 4, SourceCode: "BASE", Description: FoodDescription{English: "Ab Cd", Local: "z"}},
		NoAction{Row: 5},
	})
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff([]string{"24ABCD", "24ABCD00", "24ABCD01"}, plan.GeneratedCodes()); diff != "" {
		t.Errorf("generated mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_SubstitutionsOnlyRenameGeneratedCodes(t *testing.T) {
	plan, err := newPlanner("en_GB", &Locale{ID: "en_IN"}, 1, nil, testNow).build([]FoodAction{
		Include{Row: 2, FoodCode: "24ABCD", LocalDescription: "Existing"},
		New{Row: 3, Descriptions: []FoodDescription{{English: "Abc Cdf", Local: "Generated"}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	f := &fakeLookup{taken: map[string]struct{}{"24ABCD": {}}}
	if err := plan.assignUniqueCodes(context.Background(), f.lookup); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(map[string]string{"24ABCD": "24ABCD00"}, plan.Substitutions); diff != "" {
		t.Errorf("substitutions mismatch (-want +got):\n%s", diff)
	}
	if plan.NewFoods[0].Code != "24ABCD00" || plan.NewLocalFoods[0].Code != "24ABCD00" {
		t.Errorf("new food not renamed: %s / %s", plan.NewFoods[0].Code, plan.NewLocalFoods[0].Code)
	}
	if plan.LocalInherits[0].DestCode != "24ABCD" {
		t.Errorf("existing food renamed to %s", plan.LocalInherits[0].DestCode)
	}
	if diff := cmp.Diff([]string{"24ABCD", "24ABCD00"}, plan.Members()); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestPlan_MembersDistinct(t *testing.T) {
	plan, err := newPlanner("en_GB", &Locale{ID: "en_IN"}, 1, nil, testNow).build([]FoodAction{
		Include{Row: 2, FoodCode: "APPL", LocalDescription: "Apple"},
		Include{Row: 3, FoodCode: "APPL", LocalDescription: "Apple again"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"APPL"}, plan.Members()); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}
