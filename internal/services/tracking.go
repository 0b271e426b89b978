package services

import (
	"context"
	"time"

	"github.com/yungbote/langqc-backend/internal/data/repos"
	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/identity"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
)

// TrackingStore is read access to the externally owned run/well records.
// Lookups return nil, nil when nothing matches.
type TrackingStore interface {
	WellByProductID(ctx context.Context, id identity.ProductID) (*types.PacBioRunWellMetrics, error)
	WellByCoordinates(ctx context.Context, c identity.Coordinates) (*types.PacBioRunWellMetrics, error)
	WellsByProductIDs(ctx context.Context, ids []identity.ProductID) ([]*types.PacBioRunWellMetrics, error)
	WellsForRuns(ctx context.Context, runNames []string) ([]*types.PacBioRunWellMetrics, error)
	WellsByStatusPrefixes(ctx context.Context, prefixes []string) ([]*types.PacBioRunWellMetrics, error)
	WellsByStatus(ctx context.Context, status string) ([]*types.PacBioRunWellMetrics, error)
	WellsCompletedSince(ctx context.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error)
	WellsStartedSince(ctx context.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error)
}

type gormTrackingStore struct {
	wells repos.WellMetricsRepo
}

func NewTrackingStore(wells repos.WellMetricsRepo) TrackingStore {
	return &gormTrackingStore{wells: wells}
}

func (s *gormTrackingStore) dbc(ctx context.Context) dbctx.Context {
	return dbctx.Context{Ctx: ctx}
}

func (s *gormTrackingStore) WellByProductID(ctx context.Context, id identity.ProductID) (*types.PacBioRunWellMetrics, error) {
	return s.wells.GetByProductID(s.dbc(ctx), id.String())
}

func (s *gormTrackingStore) WellByCoordinates(ctx context.Context, c identity.Coordinates) (*types.PacBioRunWellMetrics, error) {
	return s.wells.GetByCoordinates(s.dbc(ctx), c.RunName, c.WellLabel, c.PlateNumber)
}

func (s *gormTrackingStore) WellsByProductIDs(ctx context.Context, ids []identity.ProductID) ([]*types.PacBioRunWellMetrics, error) {
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.String())
	}
	return s.wells.ListByProductIDs(s.dbc(ctx), raw)
}

func (s *gormTrackingStore) WellsForRuns(ctx context.Context, runNames []string) ([]*types.PacBioRunWellMetrics, error) {
	return s.wells.ListByRunNames(s.dbc(ctx), runNames)
}

func (s *gormTrackingStore) WellsByStatusPrefixes(ctx context.Context, prefixes []string) ([]*types.PacBioRunWellMetrics, error) {
	return s.wells.ListByWellStatusPrefixes(s.dbc(ctx), prefixes)
}

func (s *gormTrackingStore) WellsByStatus(ctx context.Context, status string) ([]*types.PacBioRunWellMetrics, error) {
	return s.wells.ListByWellStatus(s.dbc(ctx), status)
}

func (s *gormTrackingStore) WellsCompletedSince(ctx context.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error) {
	return s.wells.ListCompletedSince(s.dbc(ctx), since)
}

func (s *gormTrackingStore) WellsStartedSince(ctx context.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error) {
	return s.wells.ListStartedSince(s.dbc(ctx), since)
}
