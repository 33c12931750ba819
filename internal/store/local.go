package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/fooddb/internal/core"
	"github.com/JonMunkholm/fooddb/internal/logging"
)

const upsertLocalFoodSQL = `
INSERT INTO foods_local (food_code, locale_id, local_description, simple_local_description, version)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (food_code, locale_id) DO UPDATE
SET local_description = EXCLUDED.local_description,
    simple_local_description = EXCLUDED.simple_local_description,
    version = EXCLUDED.version`

// CreateLocalFoods writes the locale overlay of each food. Existing overlays
// for the same codes are replaced, child rows included.
func (s *Store) CreateLocalFoods(ctx context.Context, tx core.DBTX, foods []core.NewLocalFood, localeID string) error {
	if len(foods) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	codes := make([]string, len(foods))
	for i, f := range foods {
		codes[i] = f.Code

		var local, simple pgtype.Text
		if f.LocalDescription != nil {
			d := truncateDescription(ctx, *f.LocalDescription, f.Code)
			local = pgtype.Text{String: d, Valid: true}
			simple = pgtype.Text{String: simpleDescription(d), Valid: true}
		}
		batch.Queue(upsertLocalFoodSQL, f.Code, localeID, local, simple, newVersion())
	}
	codes = distinct(codes)

	// Child rows are replaced wholesale.
	for _, table := range []string{"foods_nutrient_mapping", "foods_portion_size_methods", "associated_foods", "brands"} {
		batch.Queue(fmt.Sprintf(`DELETE FROM %s WHERE food_code = ANY($1) AND locale_id = $2`, table), codes, localeID)
	}

	if err := execBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("write local foods: %w", err)
	}

	if err := insertNutrientMapping(ctx, tx, foods, localeID); err != nil {
		return err
	}
	if err := insertAssociatedFoods(ctx, tx, foods, localeID); err != nil {
		return err
	}
	if err := insertBrands(ctx, tx, foods, localeID); err != nil {
		return err
	}
	return insertPortionSizeMethods(ctx, tx, foods, localeID)
}

func insertNutrientMapping(ctx context.Context, tx core.DBTX, foods []core.NewLocalFood, localeID string) error {
	var rows [][]any
	for _, f := range foods {
		for _, ref := range f.FCTRefs {
			rows = append(rows, []any{f.Code, localeID, ref.TableID, ref.RecordID})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"foods_nutrient_mapping"},
		[]string{"food_code", "locale_id", "nutrient_table_id", "nutrient_table_record_id"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert nutrient mapping: %w", err)
	}
	return nil
}

func insertAssociatedFoods(ctx context.Context, tx core.DBTX, foods []core.NewLocalFood, localeID string) error {
	var rows [][]any
	for _, f := range foods {
		for _, a := range f.AssociatedFoods {
			rows = append(rows, []any{
				f.Code, localeID,
				toPgText(a.FoodCode), toPgText(a.CategoryCode),
				a.PromptText, a.LinkAsMain, a.GenericName,
			})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"associated_foods"},
		[]string{"food_code", "locale_id", "associated_food_code", "associated_category_code", "text", "link_as_main", "generic_name"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert associated foods: %w", err)
	}
	return nil
}

func insertBrands(ctx context.Context, tx core.DBTX, foods []core.NewLocalFood, localeID string) error {
	var rows [][]any
	for _, f := range foods {
		for _, b := range f.Brands {
			rows = append(rows, []any{f.Code, localeID, b})
		}
	}
	if len(rows) == 0 {
		return nil
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"brands"},
		[]string{"food_code", "locale_id", "name"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("insert brands: %w", err)
	}
	return nil
}

const insertPortionSizeMethodSQL = `
INSERT INTO foods_portion_size_methods (food_code, locale_id, method, description, image_url, use_for_recipes, conversion_factor)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

// insertPortionSizeMethods writes methods in order, then their parameters
// keyed by the generated method ids.
func insertPortionSizeMethods(ctx context.Context, tx core.DBTX, foods []core.NewLocalFood, localeID string) error {
	var methods []core.PortionSizeMethod
	batch := &pgx.Batch{}
	for _, f := range foods {
		for _, m := range f.PortionSizeMethods {
			methods = append(methods, m)
			batch.Queue(insertPortionSizeMethodSQL,
				f.Code, localeID, m.Method, m.Description, m.ImageURL, m.UseForRecipes, m.ConversionFactor)
		}
	}
	if len(methods) == 0 {
		return nil
	}

	ids := make([]int64, len(methods))
	for i, q := range batch.QueuedQueries {
		i := i
		q.QueryRow(func(row pgx.Row) error {
			return row.Scan(&ids[i])
		})
	}
	if err := execBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("insert portion size methods: %w", err)
	}

	params := methodParamRows(methods, ids)
	if len(params) == 0 {
		return nil
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"foods_portion_size_method_params"},
		[]string{"portion_size_method_id", "name", "value"},
		pgx.CopyFromRows(params),
	)
	if err != nil {
		return fmt.Errorf("insert portion size method parameters: %w", err)
	}
	return nil
}

// methodParamRows pairs the parameters of methods[i] with ids[i], the id the
// method was inserted under.
func methodParamRows(methods []core.PortionSizeMethod, ids []int64) [][]any {
	var rows [][]any
	for i, m := range methods {
		for _, p := range m.Parameters {
			rows = append(rows, []any{ids[i], p.Name, p.Value})
		}
	}
	return rows
}

// CopyLocalFoods copies the source locale overlay of each food to its
// destination code in destLocale. Only the first nutrient mapping of a source
// food is carried over unless the copy overrides it.
func (s *Store) CopyLocalFoods(ctx context.Context, tx core.DBTX, sourceLocale, destLocale string, copies []core.LocalCopy) error {
	if len(copies) == 0 {
		return nil
	}

	sources := make([]string, len(copies))
	for i, c := range copies {
		sources[i] = c.SourceCode
	}
	sources = distinct(sources)

	var (
		src sourceLocalData
		err error
	)
	if src.fct, err = loadNutrientMapping(ctx, tx, sources, sourceLocale); err != nil {
		return err
	}
	if src.methods, err = loadPortionSizeMethods(ctx, tx, sources, sourceLocale); err != nil {
		return err
	}
	if src.associated, err = loadAssociatedFoods(ctx, tx, sources, sourceLocale); err != nil {
		return err
	}
	if src.brands, err = loadBrands(ctx, tx, sources, sourceLocale); err != nil {
		return err
	}

	foods := src.localFoods(ctx, sourceLocale, copies)
	return s.CreateLocalFoods(ctx, tx, foods, destLocale)
}

// sourceLocalData holds the locale overlay of copied source foods, keyed by
// source food code.
type sourceLocalData struct {
	fct        map[string][]core.FCTReference
	methods    map[string][]core.PortionSizeMethod
	associated map[string][]core.AssociatedFood
	brands     map[string][]string
}

// localFoods builds the destination overlay of each copy. An FCT override
// replaces the source mapping; otherwise the first source mapping is kept.
func (d sourceLocalData) localFoods(ctx context.Context, sourceLocale string, copies []core.LocalCopy) []core.NewLocalFood {
	logger := logging.FromContext(ctx)
	foods := make([]core.NewLocalFood, len(copies))
	for i, c := range copies {
		var refs []core.FCTReference
		switch mapped := d.fct[c.SourceCode]; {
		case c.FCTOverride != nil:
			refs = []core.FCTReference{*c.FCTOverride}
		case len(mapped) > 0:
			if len(mapped) > 1 {
				logger.Warn("multiple food composition codes, using the first",
					"food_code", c.SourceCode,
					"locale", sourceLocale,
					"count", len(mapped),
				)
			}
			refs = mapped[:1]
		}

		desc := c.LocalDescription
		foods[i] = core.NewLocalFood{
			Code:               c.DestCode,
			LocalDescription:   &desc,
			FCTRefs:            refs,
			PortionSizeMethods: d.methods[c.SourceCode],
			AssociatedFoods:    d.associated[c.SourceCode],
			Brands:             d.brands[c.SourceCode],
		}
	}
	return foods
}

func loadNutrientMapping(ctx context.Context, db core.DBTX, codes []string, localeID string) (map[string][]core.FCTReference, error) {
	rows, err := db.Query(ctx, `
SELECT food_code, nutrient_table_id, nutrient_table_record_id
FROM foods_nutrient_mapping
WHERE food_code = ANY($1) AND locale_id = $2
ORDER BY id`, codes, localeID)
	if err != nil {
		return nil, fmt.Errorf("query nutrient mapping: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]core.FCTReference)
	for rows.Next() {
		var code string
		var ref core.FCTReference
		if err := rows.Scan(&code, &ref.TableID, &ref.RecordID); err != nil {
			return nil, fmt.Errorf("scan nutrient mapping: %w", err)
		}
		out[code] = append(out[code], ref)
	}
	return out, rows.Err()
}

func loadPortionSizeMethods(ctx context.Context, db core.DBTX, codes []string, localeID string) (map[string][]core.PortionSizeMethod, error) {
	rows, err := db.Query(ctx, `
SELECT m.id, m.food_code, m.method, m.description, m.image_url, m.use_for_recipes, m.conversion_factor,
       p.name, p.value
FROM foods_portion_size_methods m
LEFT JOIN foods_portion_size_method_params p ON p.portion_size_method_id = m.id
WHERE m.food_code = ANY($1) AND m.locale_id = $2
ORDER BY m.id, p.id`, codes, localeID)
	if err != nil {
		return nil, fmt.Errorf("query portion size methods: %w", err)
	}
	defer rows.Close()

	var joined []methodRow
	for rows.Next() {
		var r methodRow
		m := &r.method
		if err := rows.Scan(&r.id, &r.code, &m.Method, &m.Description, &m.ImageURL, &m.UseForRecipes, &m.ConversionFactor, &r.paramName, &r.paramValue); err != nil {
			return nil, fmt.Errorf("scan portion size method: %w", err)
		}
		joined = append(joined, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groupMethods(joined), nil
}

// methodRow is a method joined with at most one of its parameters.
type methodRow struct {
	id         int64
	code       string
	method     core.PortionSizeMethod
	paramName  pgtype.Text
	paramValue pgtype.Text
}

// groupMethods folds rows ordered by method id into methods per food code.
// A method without parameters arrives as one row with a NULL parameter.
func groupMethods(rows []methodRow) map[string][]core.PortionSizeMethod {
	out := make(map[string][]core.PortionSizeMethod)
	lastID := int64(-1)
	for _, r := range rows {
		if r.id != lastID {
			out[r.code] = append(out[r.code], r.method)
			lastID = r.id
		}
		if r.paramName.Valid {
			methods := out[r.code]
			last := &methods[len(methods)-1]
			last.Parameters = append(last.Parameters, core.PortionSizeParameter{Name: r.paramName.String, Value: r.paramValue.String})
		}
	}
	return out
}

func loadAssociatedFoods(ctx context.Context, db core.DBTX, codes []string, localeID string) (map[string][]core.AssociatedFood, error) {
	rows, err := db.Query(ctx, `
SELECT food_code, associated_food_code, associated_category_code, text, link_as_main, generic_name
FROM associated_foods
WHERE food_code = ANY($1) AND locale_id = $2
ORDER BY id`, codes, localeID)
	if err != nil {
		return nil, fmt.Errorf("query associated foods: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]core.AssociatedFood)
	for rows.Next() {
		var (
			code           string
			food, category pgtype.Text
			a              core.AssociatedFood
		)
		if err := rows.Scan(&code, &food, &category, &a.PromptText, &a.LinkAsMain, &a.GenericName); err != nil {
			return nil, fmt.Errorf("scan associated food: %w", err)
		}
		a.FoodCode = fromPgText(food)
		if a.FoodCode == nil {
			a.CategoryCode = fromPgText(category)
		}
		out[code] = append(out[code], a)
	}
	return out, rows.Err()
}

func loadBrands(ctx context.Context, db core.DBTX, codes []string, localeID string) (map[string][]string, error) {
	rows, err := db.Query(ctx, `
SELECT food_code, name
FROM brands
WHERE food_code = ANY($1) AND locale_id = $2
ORDER BY id`, codes, localeID)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var code, name string
		if err := rows.Scan(&code, &name); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out[code] = append(out[code], name)
	}
	return out, rows.Err()
}
