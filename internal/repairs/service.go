package repairs

import (
	"context"

	"github.com/yegors/cctv-repairs/internal/options"
	"github.com/yegors/cctv-repairs/internal/store"
	"github.com/yegors/cctv-repairs/pkg/logger"
)

// Service is the gateway caller: it routes searches through the predicate
// builder, guards deletes behind the confirmation flag, and synchronously
// invalidates the option cache after every successful mutation, before the
// mutation's success is reported.
type Service struct {
	store   store.Store
	options *options.Provider
	logger  *logger.Logger
}

// NewService creates the repairs service
func NewService(s store.Store, opts *options.Provider, log *logger.Logger) *Service {
	return &Service{
		store:   s,
		options: opts,
		logger:  log.Named("repairs"),
	}
}

// Search returns the records matching the filter selection, newest first
func (s *Service) Search(ctx context.Context, f store.Filter) ([]store.Record, error) {
	p, err := store.BuildPredicate(f)
	if err != nil {
		return nil, err
	}

	records, err := s.store.Select(ctx, p)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Search executed",
		logger.Int("conditions", len(p.Conditions)),
		logger.Bool("match_any", p.MatchAny),
		logger.Int("results", len(records)),
	)

	return records, nil
}

// All returns every record, newest first
func (s *Service) All(ctx context.Context) ([]store.Record, error) {
	return s.store.All(ctx)
}

// Create inserts a new record and returns its assigned ID
func (s *Service) Create(ctx context.Context, r store.Record) (int64, error) {
	id, err := s.store.Insert(ctx, r)
	if err != nil {
		return 0, err
	}

	s.options.Invalidate()
	s.logger.Info("Record created",
		logger.Int64("id", id),
		logger.String("region", r.Region),
		logger.String("site", r.SiteName),
	)

	return id, nil
}

// Update replaces the client-mutable fields of an existing record
func (s *Service) Update(ctx context.Context, id int64, r store.Record) error {
	if err := s.store.Update(ctx, id, r); err != nil {
		return err
	}

	s.options.Invalidate()
	s.logger.Info("Record updated", logger.Int64("id", id))

	return nil
}

// Delete removes a record. The confirmation flag is the two-step delete
// guard: without it the delete is rejected before any store call.
func (s *Service) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return &store.ValidationError{Field: "confirmed", Reason: "delete requires explicit confirmation"}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.options.Invalidate()
	s.logger.Info("Record deleted", logger.Int64("id", id))

	return nil
}

// Options returns the cached distinct-value selector lists
func (s *Service) Options(ctx context.Context) (options.Options, error) {
	return s.options.Load(ctx)
}

// Stats computes the aggregate statistics over all records
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	records, err := s.store.All(ctx)
	if err != nil {
		return Stats{}, err
	}
	return ComputeStats(records), nil
}
