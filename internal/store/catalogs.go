package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/fooddb/internal/core"
)

// AsServedSetIDs returns the ids of every as-served image set.
func (s *Store) AsServedSetIDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := collectSet(ctx, s.pool, `SELECT id FROM as_served_sets`)
	if err != nil {
		return nil, fmt.Errorf("query as served sets: %w", err)
	}
	return ids, nil
}

// GuideImageIDs returns the ids of every guide image.
func (s *Store) GuideImageIDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := collectSet(ctx, s.pool, `SELECT id FROM guide_images`)
	if err != nil {
		return nil, fmt.Errorf("query guide images: %w", err)
	}
	return ids, nil
}

// DrinkwareSetIDs returns the ids of every drinkware set.
func (s *Store) DrinkwareSetIDs(ctx context.Context) (map[string]struct{}, error) {
	ids, err := collectSet(ctx, s.pool, `SELECT id FROM drinkware_sets`)
	if err != nil {
		return nil, fmt.Errorf("query drinkware sets: %w", err)
	}
	return ids, nil
}

// MissingFCTRecords returns the references with no matching food
// composition record.
func (s *Store) MissingFCTRecords(ctx context.Context, refs []core.FCTReference) ([]core.FCTReference, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	tables := make([]string, len(refs))
	records := make([]string, len(refs))
	for i, r := range refs {
		tables[i] = r.TableID
		records[i] = r.RecordID
	}

	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT r.table_id, r.record_id
FROM unnest($1::text[], $2::text[]) AS r(table_id, record_id)
WHERE NOT EXISTS (
    SELECT 1 FROM nutrient_table_records n
    WHERE n.nutrient_table_id = r.table_id AND n.id = r.record_id
)`, tables, records)
	if err != nil {
		return nil, fmt.Errorf("query food composition records: %w", err)
	}

	missing, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.FCTReference, error) {
		var ref core.FCTReference
		err := row.Scan(&ref.TableID, &ref.RecordID)
		return ref, err
	})
	if err != nil {
		return nil, fmt.Errorf("read food composition records: %w", err)
	}
	return missing, nil
}
