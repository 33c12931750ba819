package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/fooddb/internal/core"
)

// RecordRun writes the audit row of a committed derivation.
func (s *Store) RecordRun(ctx context.Context, tx core.DBTX, run core.RunRecord) error {
	_, err := tx.Exec(ctx, `
INSERT INTO derivation_runs (
    id, format, source_locale_id, dest_locale_id, file_name,
    foods_created, foods_copied, local_created, local_copied, foods_included,
    ip_address, user_agent, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		toPgUUID(run.ID), run.Format, run.SourceLocale, run.DestLocale, run.FileName,
		run.FoodsCreated, run.FoodsCopied, run.LocalCreated, run.LocalCopied, run.FoodsIncluded,
		toInet(run.IPAddress), run.UserAgent, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert derivation run %s: %w", run.ID, err)
	}
	return nil
}
