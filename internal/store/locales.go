package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/fooddb/internal/core"
)

// GetLocale returns the locale with the given id, or nil if there is none.
func (s *Store) GetLocale(ctx context.Context, id string) (*core.Locale, error) {
	var (
		l         core.Locale
		prototype pgtype.Text
	)
	err := s.pool.QueryRow(ctx, `
SELECT id, english_name, local_name, respondent_language_id, admin_language_id,
       country_flag_code, prototype_locale_id, text_direction
FROM locales WHERE id = $1`, id).Scan(
		&l.ID, &l.EnglishName, &l.LocalName, &l.RespondentLanguage, &l.AdminLanguage,
		&l.FlagCode, &prototype, &l.TextDirection,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query locale %s: %w", id, err)
	}

	l.PrototypeLocale = fromPgText(prototype)
	return &l, nil
}

type categoryLocalRow struct {
	CategoryCode           string
	LocalDescription       pgtype.Text
	SimpleLocalDescription pgtype.Text
}

// CopyCategories copies the local category names of sourceLocale to
// destLocale. Names the destination already has are kept.
func (s *Store) CopyCategories(ctx context.Context, tx core.DBTX, sourceLocale, destLocale string) error {
	rows, err := tx.Query(ctx, `
SELECT category_code, local_description, simple_local_description
FROM categories_local
WHERE locale_id = $1
ORDER BY category_code`, sourceLocale)
	if err != nil {
		return fmt.Errorf("query categories of %s: %w", sourceLocale, err)
	}
	source, err := pgx.CollectRows(rows, pgx.RowToStructByPos[categoryLocalRow])
	if err != nil {
		return fmt.Errorf("read categories of %s: %w", sourceLocale, err)
	}

	batch := &pgx.Batch{}
	for _, c := range source {
		batch.Queue(`
INSERT INTO categories_local (category_code, locale_id, local_description, simple_local_description, version)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (category_code, locale_id) DO NOTHING`,
			c.CategoryCode, destLocale, c.LocalDescription, c.SimpleLocalDescription, newVersion())
	}

	if err := execBatch(ctx, tx, batch); err != nil {
		return fmt.Errorf("copy categories to %s: %w", destLocale, err)
	}
	return nil
}

// AddFoodsToLocale adds codes to the food list of localeID. Codes already
// listed are left alone.
func (s *Store) AddFoodsToLocale(ctx context.Context, tx core.DBTX, codes []string, localeID string) error {
	if len(codes) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
INSERT INTO foods_local_lists (locale_id, food_code)
SELECT $1, code FROM unnest($2::text[]) AS code
ON CONFLICT (locale_id, food_code) DO NOTHING`, localeID, distinct(codes))
	if err != nil {
		return fmt.Errorf("add %d foods to %s: %w", len(codes), localeID, err)
	}
	return nil
}
