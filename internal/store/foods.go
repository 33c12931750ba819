package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/fooddb/internal/core"
	"github.com/JonMunkholm/fooddb/internal/logging"
)

// GetDuplicateCodes returns the subset of codes already used by global foods.
func (s *Store) GetDuplicateCodes(ctx context.Context, db core.DBTX, codes []string) (map[string]struct{}, error) {
	if len(codes) == 0 {
		return map[string]struct{}{}, nil
	}
	dups, err := collectSet(ctx, db, `SELECT code FROM foods WHERE code = ANY($1)`, codes)
	if err != nil {
		return nil, fmt.Errorf("query existing food codes: %w", err)
	}
	return dups, nil
}

// CreateFoods inserts global foods with their attributes and categories.
func (s *Store) CreateFoods(ctx context.Context, tx core.DBTX, foods []core.NewFood) error {
	if len(foods) == 0 {
		return nil
	}

	logger := logging.FromContext(ctx)
	logger.Debug("writing new food records", "count", len(foods))

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"foods"},
		[]string{"code", "description", "food_group_id", "version"},
		pgx.CopyFromSlice(len(foods), func(i int) ([]any, error) {
			f := foods[i]
			return []any{f.Code, truncateDescription(ctx, f.EnglishDescription, f.Code), f.FoodGroupID, newVersion()}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("insert foods: %w", err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"foods_attributes"},
		[]string{"food_code", "same_as_before_option", "ready_meal_option", "reasonable_amount", "use_in_recipes"},
		pgx.CopyFromSlice(len(foods), func(i int) ([]any, error) {
			a := foods[i].Attributes
			return []any{foods[i].Code, a.SameAsBeforeOption, a.ReadyMealOption, a.ReasonableAmount, a.UseInRecipes}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("insert food attributes: %w", err)
	}

	var categories [][]any
	for _, f := range foods {
		for _, c := range f.Categories {
			categories = append(categories, []any{f.Code, c})
		}
	}
	if len(categories) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"foods_categories"},
			[]string{"food_code", "category_code"},
			pgx.CopyFromRows(categories),
		)
		if err != nil {
			return fmt.Errorf("insert food categories: %w", err)
		}
	}

	return nil
}

const (
	copyFoodSQL = `
INSERT INTO foods (code, description, food_group_id, version)
SELECT $1, $2, food_group_id, $3 FROM foods WHERE code = $4`

	copyFoodAttributesSQL = `
INSERT INTO foods_attributes (food_code, same_as_before_option, ready_meal_option, reasonable_amount, use_in_recipes)
SELECT $1, same_as_before_option, ready_meal_option, reasonable_amount, use_in_recipes
FROM foods_attributes WHERE food_code = $2`

	copyFoodCategoriesSQL = `
INSERT INTO foods_categories (food_code, category_code)
SELECT $1, category_code FROM foods_categories WHERE food_code = $2`
)

// CopyFoods copies global foods, including attributes and categories, under
// new codes. Every source code must exist; otherwise nothing is written and a
// *core.CopySourceMissingError lists the missing ones.
func (s *Store) CopyFoods(ctx context.Context, tx core.DBTX, copies []core.FoodCopy) error {
	if len(copies) == 0 {
		return nil
	}

	sources := make([]string, len(copies))
	for i, c := range copies {
		sources[i] = c.SourceCode
	}
	sources = distinct(sources)

	existing, err := s.GetDuplicateCodes(ctx, tx, sources)
	if err != nil {
		return err
	}
	if missing := missingCodes(sources, existing); len(missing) > 0 {
		return &core.CopySourceMissingError{Codes: missing}
	}

	batch := &pgx.Batch{}
	for _, c := range copies {
		batch.Queue(copyFoodSQL, c.NewCode, truncateDescription(ctx, c.NewDescription, c.NewCode), newVersion(), c.SourceCode)
	}
	for _, c := range copies {
		batch.Queue(copyFoodAttributesSQL, c.NewCode, c.SourceCode)
	}
	for _, c := range copies {
		batch.Queue(copyFoodCategoriesSQL, c.NewCode, c.SourceCode)
	}

	if err := execBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("copy %d foods: %w", len(copies), err)
	}
	return nil
}

// missingCodes returns the codes not in existing, keeping their order.
func missingCodes(codes []string, existing map[string]struct{}) []string {
	var missing []string
	for _, code := range codes {
		if _, ok := existing[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing
}
