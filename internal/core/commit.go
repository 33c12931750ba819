package core

import (
	"context"
	"fmt"
	"log/slog"
)

// commit writes the plan in a single transaction. A failure at any step
// rolls back every earlier step.
func (s *Service) commit(ctx context.Context, logger *slog.Logger, p *prepared, fileName string) error {
	plan := p.plan
	source, dest := p.source.ID, p.dest.ID

	return s.store.WithTx(ctx, func(tx DBTX) error {
		if len(plan.NewFoods) > 0 {
			if err := s.store.CreateFoods(ctx, tx, plan.NewFoods); err != nil {
				return fmt.Errorf("create foods: %w", err)
			}
			logger.Debug("foods created", "count", len(plan.NewFoods))
		}

		if len(plan.FoodCopies) > 0 {
			if err := s.store.CopyFoods(ctx, tx, plan.FoodCopies); err != nil {
				return fmt.Errorf("copy foods: %w", err)
			}
			logger.Debug("foods copied", "count", len(plan.FoodCopies))
		}

		if local := plan.LocalFoods(); len(local) > 0 {
			if err := s.store.CreateLocalFoods(ctx, tx, local, dest); err != nil {
				return fmt.Errorf("create local foods: %w", err)
			}
			logger.Debug("local foods created", "count", len(local))
		}

		if copies := plan.LocalCopiesAll(); len(copies) > 0 {
			if err := s.store.CopyLocalFoods(ctx, tx, source, dest, copies); err != nil {
				return fmt.Errorf("copy local foods: %w", err)
			}
			logger.Debug("local foods copied", "count", len(copies))
		}

		if err := s.store.CopyCategories(ctx, tx, source, dest); err != nil {
			return fmt.Errorf("copy categories: %w", err)
		}

		members := plan.Members()
		if len(members) > 0 {
			if err := s.store.AddFoodsToLocale(ctx, tx, members, dest); err != nil {
				return fmt.Errorf("add foods to locale: %w", err)
			}
		}

		requester := RequesterFromContext(ctx)
		run := RunRecord{
			ID:            p.runID,
			Format:        p.format,
			SourceLocale:  source,
			DestLocale:    dest,
			FileName:      fileName,
			FoodsCreated:  len(plan.NewFoods),
			FoodsCopied:   len(plan.FoodCopies),
			LocalCreated:  len(plan.LocalFoods()),
			LocalCopied:   len(plan.LocalCopiesAll()),
			FoodsIncluded: len(members),
			IPAddress:     requester.IPAddress,
			UserAgent:     requester.UserAgent,
			CreatedAt:     s.now().UTC(),
		}
		if err := s.store.RecordRun(ctx, tx, run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}

		return nil
	})
}
