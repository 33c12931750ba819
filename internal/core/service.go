package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/fooddb/internal/config"
	"github.com/JonMunkholm/fooddb/internal/logging"
)

// RunState is the phase a derivation run reached.
type RunState string

const (
	StateValidating     RunState = "validating"
	StateCodeAssignment RunState = "code_assignment"
	StateCommitting     RunState = "committing"
	StateDone           RunState = "done"
	StateRejected       RunState = "rejected"
	StatePlanned        RunState = "planned"
)

// DeriveRequest is one spreadsheet to apply to a destination locale.
type DeriveRequest struct {
	Format       string
	SourceLocale string
	DestLocale   string
	FileName     string
	Input        io.Reader
}

// DeriveResult summarizes a run. For previews nothing was written and
// Committed is false.
type DeriveResult struct {
	RunID         string            `json:"runId"`
	State         RunState          `json:"state"`
	Format        string            `json:"format"`
	SourceLocale  string            `json:"sourceLocale"`
	DestLocale    string            `json:"destLocale"`
	Actions       ActionCounts      `json:"actions"`
	CreatedCodes  []string          `json:"createdCodes"`
	CopiedCodes   []string          `json:"copiedCodes"`
	FoodsIncluded int               `json:"foodsIncluded"`
	LocalCreated  int               `json:"localCreated"`
	LocalCopied   int               `json:"localCopied"`
	Substitutions map[string]string `json:"substitutions"`
	Committed     bool              `json:"committed"`
	Duration      time.Duration     `json:"-"`
	DurationMS    int64             `json:"durationMs"`
}

// Service derives destination locales from spreadsheets.
type Service struct {
	store   Store
	limiter *RunLimiter
	cfg     config.DeriveConfig
	now     func() time.Time
}

// NewService creates a Service backed by store.
func NewService(store Store, cfg config.DeriveConfig) *Service {
	return &Service{
		store:   store,
		limiter: NewRunLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		cfg:     cfg,
		now:     time.Now,
	}
}

// ListFormats returns the registered spreadsheet formats.
func (s *Service) ListFormats() []Format {
	return Formats()
}

// LimiterStatus reports how many runs are active.
func (s *Service) LimiterStatus() RunLimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until active runs finish or ctx is done.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// prepared is a validated run with final codes, ready to commit.
type prepared struct {
	runID   string
	format  string
	source  *Locale
	dest    *Locale
	actions []FoodAction
	plan    *Plan
}

// Derive validates the spreadsheet, assigns codes and commits every mutation
// in one transaction. A *RejectedError means nothing was written.
func (s *Service) Derive(ctx context.Context, req DeriveRequest) (*DeriveResult, error) {
	return s.run(ctx, req, true)
}

// Preview performs everything Derive does except the commit.
func (s *Service) Preview(ctx context.Context, req DeriveRequest) (*DeriveResult, error) {
	return s.run(ctx, req, false)
}

func (s *Service) run(ctx context.Context, req DeriveRequest, commit bool) (*DeriveResult, error) {
	if req.Format == "" {
		req.Format = s.cfg.DefaultFormat
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithFields(ctx,
		"format", req.Format,
		"source_locale", req.SourceLocale,
		"dest_locale", req.DestLocale,
		"file", req.FileName,
	)
	start := s.now()

	p, err := s.prepare(ctx, logger, runID, req)
	if err != nil {
		if msgs, ok := AsRejected(err); ok {
			logger.Warn("derivation rejected", "state", StateRejected, "errors", len(msgs))
		}
		return nil, err
	}

	result := p.result()
	if !commit {
		result.State = StatePlanned
		result.Duration = s.now().Sub(start)
		result.DurationMS = result.Duration.Milliseconds()
		logger.Info("derivation planned", "state", StatePlanned, "generated", len(p.plan.GeneratedCodes()))
		return result, nil
	}

	logger.Info("derivation state", "state", StateCommitting)
	if err := s.commit(ctx, logger, p, req.FileName); err != nil {
		logger.Error("derivation commit failed", "error", err)
		return nil, err
	}

	result.State = StateDone
	result.Committed = true
	result.Duration = s.now().Sub(start)
	result.DurationMS = result.Duration.Milliseconds()
	logger.Info("derivation committed",
		"state", StateDone,
		"created", len(result.CreatedCodes),
		"copied", len(result.CopiedCodes),
		"included", result.FoodsIncluded,
		"duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// prepare runs the validating and code assignment states.
func (s *Service) prepare(ctx context.Context, logger *slog.Logger, runID string, req DeriveRequest) (*prepared, error) {
	logger.Info("derivation state", "state", StateValidating)

	parseErrs, actions, err := ParseTable(req.Format, req.Input)
	if err != nil {
		return nil, err
	}

	// Row problems are reported ahead of locale errors.
	catalogs, err := s.loadCatalogs(ctx)
	if err != nil {
		return nil, err
	}

	problems := append([]string{}, parseErrs...)
	problems = append(problems, duplicateIncludes(actions)...)
	for _, a := range actions {
		if n, ok := a.(New); ok {
			n.PortionSizeMethods = WithLeftovers(n.PortionSizeMethods, catalogs.AsServedSets)
			problems = append(problems, ValidateNewAction(n, catalogs)...)
		}
	}

	fctProblems, err := s.checkFCTRecords(ctx, actions)
	if err != nil {
		return nil, err
	}
	problems = append(problems, fctProblems...)

	if len(problems) > 0 {
		return nil, &RejectedError{Errors: problems}
	}

	source, err := s.requireLocale(ctx, req.SourceLocale)
	if err != nil {
		return nil, err
	}
	dest, err := s.requireLocale(ctx, req.DestLocale)
	if err != nil {
		return nil, err
	}

	logger.Info("derivation state", "state", StateCodeAssignment, "actions", len(actions))

	plan, err := newPlanner(source.ID, dest, s.cfg.FoodGroupID, catalogs.AsServedSets, s.now()).build(actions)
	if err != nil {
		return nil, err
	}

	lookup := func(ctx context.Context, codes []string) (map[string]struct{}, error) {
		return s.store.GetDuplicateCodes(ctx, s.store.Pool(), codes)
	}
	if err := plan.assignUniqueCodes(ctx, lookup); err != nil {
		return nil, err
	}
	if len(plan.Substitutions) > 0 {
		logger.Info("generated codes replaced", "count", len(plan.Substitutions))
	}

	return &prepared{
		runID:   runID,
		format:  req.Format,
		source:  source,
		dest:    dest,
		actions: actions,
		plan:    plan,
	}, nil
}

func (s *Service) requireLocale(ctx context.Context, id string) (*Locale, error) {
	l, err := s.store.GetLocale(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get locale %s: %w", id, err)
	}
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrLocaleNotFound, id)
	}
	return l, nil
}

// loadCatalogs fetches the three portion size catalogs concurrently.
func (s *Service) loadCatalogs(ctx context.Context) (PortionSizeCatalogs, error) {
	var c PortionSizeCatalogs
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		c.AsServedSets, err = s.store.AsServedSetIDs(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.GuideImages, err = s.store.GuideImageIDs(gctx)
		return err
	})
	g.Go(func() (err error) {
		c.DrinkwareSets, err = s.store.DrinkwareSetIDs(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return PortionSizeCatalogs{}, fmt.Errorf("load portion size catalogs: %w", err)
	}
	return c, nil
}

// checkFCTRecords reports every distinct FCT reference that has no record.
func (s *Service) checkFCTRecords(ctx context.Context, actions []FoodAction) ([]string, error) {
	seen := make(map[FCTReference]struct{})
	var refs []FCTReference
	add := func(ref *FCTReference) {
		if ref == nil {
			return
		}
		if _, dup := seen[*ref]; dup {
			return
		}
		seen[*ref] = struct{}{}
		refs = append(refs, *ref)
	}

	for _, a := range actions {
		switch a := a.(type) {
		case Include:
			add(a.FCT)
		case New:
			add(a.FCT)
		case Clone:
			add(a.FCT)
		case NoAction:
		default:
			unhandledAction(a)
		}
	}
	if len(refs) == 0 {
		return nil, nil
	}

	missing, err := s.store.MissingFCTRecords(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("check fct records: %w", err)
	}

	sort.Slice(missing, func(i, j int) bool {
		if missing[i].TableID != missing[j].TableID {
			return missing[i].TableID < missing[j].TableID
		}
		return missing[i].RecordID < missing[j].RecordID
	})

	msgs := make([]string, len(missing))
	for i, ref := range missing {
		msgs[i] = fmt.Sprintf("Food composition record %s does not exist in table %s", ref.RecordID, ref.TableID)
	}
	return msgs, nil
}

func (p *prepared) result() *DeriveResult {
	created := make([]string, len(p.plan.NewFoods))
	for i, f := range p.plan.NewFoods {
		created[i] = f.Code
	}
	copied := make([]string, len(p.plan.FoodCopies))
	for i, c := range p.plan.FoodCopies {
		copied[i] = c.NewCode
	}

	return &DeriveResult{
		RunID:         p.runID,
		Format:        p.format,
		SourceLocale:  p.source.ID,
		DestLocale:    p.dest.ID,
		Actions:       CountActions(p.actions),
		CreatedCodes:  created,
		CopiedCodes:   copied,
		FoodsIncluded: len(p.plan.Members()),
		LocalCreated:  len(p.plan.LocalFoods()),
		LocalCopied:   len(p.plan.LocalCopiesAll()),
		Substitutions: p.plan.Substitutions,
	}
}

// IsClientError reports whether err was caused by the request rather than the
// store: a rejected spreadsheet, an unknown locale or format, or bad input.
func IsClientError(err error) bool {
	var rej *RejectedError
	var missing *CopySourceMissingError
	return errors.As(err, &rej) ||
		errors.As(err, &missing) ||
		errors.Is(err, ErrLocaleNotFound) ||
		errors.Is(err, ErrUnknownFormat) ||
		errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrInvalidSheet)
}
