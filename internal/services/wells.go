package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/langqc-backend/internal/data/repos"
	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/identity"
	"github.com/yungbote/langqc-backend/internal/observability"
	"github.com/yungbote/langqc-backend/internal/pkg/ctxutil"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
	"github.com/yungbote/langqc-backend/internal/pkg/pointers"
)

type WellView struct {
	ProductID        identity.ProductID `json:"id_product"`
	RunName          string             `json:"run_name"`
	Label            string             `json:"label"`
	PlateNumber      *int               `json:"plate_number,omitempty"`
	InstrumentType   string             `json:"instrument_type,omitempty"`
	InstrumentName   *string            `json:"instrument_name,omitempty"`
	RunStatus        *string            `json:"run_status,omitempty"`
	WellStatus       *string            `json:"well_status,omitempty"`
	RunStartTime     *time.Time         `json:"run_start_time,omitempty"`
	RunCompleteTime  *time.Time         `json:"run_complete_time,omitempty"`
	WellStartTime    *time.Time         `json:"well_start_time,omitempty"`
	WellCompleteTime *time.Time         `json:"well_complete_time,omitempty"`
	QcState          *QcStateView       `json:"qc_state"`
}

type PagedWells struct {
	PageSize           int         `json:"page_size"`
	PageNumber         int         `json:"page_number"`
	TotalNumberOfItems int         `json:"total_number_of_items"`
	QcFlowStatus       FlowStatus  `json:"qc_flow_status,omitempty"`
	Wells              []*WellView `json:"wells"`
}

// WellsService derives flow statuses and pages wells. It reads the QC
// ledger and the tracking store and never writes to either.
type WellsService interface {
	ListByStatus(ctx context.Context, status FlowStatus, page Page) (*PagedWells, error)
	WellsForRun(ctx context.Context, runName string, page Page) (*PagedWells, error)
	WellsForRuns(ctx context.Context, runNames []string, page Page) (*PagedWells, error)
}

type WellsServiceConfig struct {
	InboxLookback time.Duration
	// Concurrency bounds parallel tracking store lookups for one page.
	Concurrency int
	Now         func() time.Time
}

type wellsService struct {
	log      *logger.Logger
	ledger   QcStateService
	tracking TrackingStore
	metrics  *observability.Metrics
	lookback time.Duration
	workers  int
	now      func() time.Time
}

func NewWellsService(log *logger.Logger, ledger QcStateService, tracking TrackingStore, metrics *observability.Metrics, cfg WellsServiceConfig) WellsService {
	if cfg.InboxLookback <= 0 {
		cfg.InboxLookback = DefaultInboxLookback
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &wellsService{
		log:      log.With("service", "WellsService"),
		ledger:   ledger,
		tracking: tracking,
		metrics:  metrics,
		lookback: cfg.InboxLookback,
		workers:  cfg.Concurrency,
		now:      cfg.Now,
	}
}

func (s *wellsService) ListByStatus(ctx context.Context, status FlowStatus, page Page) (*PagedWells, error) {
	ctx, span := observability.Tracer().Start(ctxutil.Default(ctx), "WellsService.ListByStatus")
	defer span.End()
	span.SetAttributes(attribute.String("qc_flow_status", string(status)), attribute.Int("page_number", page.PageNumber))
	started := time.Now()
	defer func() { s.metrics.ObserveWellsQuery(string(status), time.Since(started)) }()

	if err := validateStruct(page); err != nil {
		return nil, err
	}
	if _, err := ParseFlowStatus(string(status)); err != nil {
		return nil, err
	}

	var (
		out *PagedWells
		err error
	)
	if status.usesQcState() {
		out, err = s.listByQcState(ctx, status, page)
	} else {
		out, err = s.listByTracking(ctx, status, page)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	out.QcFlowStatus = status
	return out, nil
}

func stateFilterFor(status FlowStatus) repos.StateFilter {
	switch status {
	case FlowOnHold:
		return repos.StateFilter{StateName: QcStateOnHold}
	case FlowQcComplete:
		return repos.StateFilter{Preliminary: pointers.Ptr(false)}
	default:
		return repos.StateFilter{StateName: QcStateOnHold, NegateState: true, Preliminary: pointers.Ptr(true)}
	}
}

func (s *wellsService) listByQcState(ctx context.Context, status FlowStatus, page Page) (*PagedWells, error) {
	states, err := s.ledger.ListSequencingStates(dbctx.Context{Ctx: ctx}, stateFilterFor(status))
	if err != nil {
		return nil, fmt.Errorf("list qc states: %w", err)
	}
	sort.SliceStable(states, func(i, j int) bool {
		a, b := states[i], states[j]
		if !a.DateUpdated.Equal(b.DateUpdated) {
			return a.DateUpdated.After(b.DateUpdated)
		}
		return compareCoordinates(coordsOrZero(a.Coordinates), coordsOrZero(b.Coordinates)) < 0
	})

	pageStates := Slice(states, page)
	wells := make([]*types.PacBioRunWellMetrics, len(pageStates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, st := range pageStates {
		g.Go(func() error {
			w, err := s.trackingRowFor(gctx, st)
			if err != nil {
				return err
			}
			wells[i] = w
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch tracking records: %w", err)
	}

	out := &PagedWells{
		PageSize:           page.PageSize,
		PageNumber:         page.PageNumber,
		TotalNumberOfItems: len(states),
		Wells:              make([]*WellView, 0, len(pageStates)),
	}
	for i, st := range pageStates {
		if wells[i] == nil {
			s.reportMissingTracking(st)
			continue
		}
		out.Wells = append(out.Wells, wellView(wells[i], st))
	}
	return out, nil
}

func (s *wellsService) trackingRowFor(ctx context.Context, st *QcStateView) (*types.PacBioRunWellMetrics, error) {
	w, err := s.tracking.WellByProductID(ctx, st.ProductID)
	if err != nil || w != nil {
		return w, err
	}
	if st.Coordinates == nil {
		return nil, nil
	}
	return s.tracking.WellByCoordinates(ctx, *st.Coordinates)
}

func (s *wellsService) reportMissingTracking(st *QcStateView) {
	kv := []interface{}{"id_product", st.ProductID, "qc_state", st.QcState}
	if st.Coordinates != nil {
		kv = append(kv, "run_name", st.Coordinates.RunName, "well_label", st.Coordinates.WellLabel)
	}
	s.log.Warn("qc state has no tracking store record, skipping", kv...)
	s.metrics.IncAnomaly()
}

func (s *wellsService) candidates(ctx context.Context, status FlowStatus, since time.Time) ([]*types.PacBioRunWellMetrics, error) {
	switch status {
	case FlowInbox:
		return s.tracking.WellsCompletedSince(ctx, since)
	case FlowAborted:
		return s.tracking.WellsByStatusPrefixes(ctx, abortedStatusPrefixes)
	case FlowUnknown:
		return s.tracking.WellsByStatus(ctx, wellStatusUnknown)
	case FlowUpcoming:
		return s.tracking.WellsStartedSince(ctx, since)
	default:
		return nil, fmt.Errorf("flow status %q is not derived from tracking data", status)
	}
}

func (s *wellsService) listByTracking(ctx context.Context, status FlowStatus, page Page) (*PagedWells, error) {
	now := s.now().UTC()
	wells, err := s.candidates(ctx, status, now.Add(-s.lookback))
	if err != nil {
		return nil, fmt.Errorf("list tracking records: %w", err)
	}
	states, err := s.sequencingStates(ctx, wells)
	if err != nil {
		return nil, err
	}

	matched := make([]*types.PacBioRunWellMetrics, 0, len(wells))
	for _, w := range wells {
		if got, ok := Classify(states[identity.ProductID(w.IDPacBioProduct)], w, now, s.lookback); ok && got == status {
			matched = append(matched, w)
		}
	}
	sortTracking(matched, status)

	out := &PagedWells{
		PageSize:           page.PageSize,
		PageNumber:         page.PageNumber,
		TotalNumberOfItems: len(matched),
	}
	pageWells := Slice(matched, page)
	out.Wells = make([]*WellView, 0, len(pageWells))
	for _, w := range pageWells {
		out.Wells = append(out.Wells, wellView(w, nil))
	}
	return out, nil
}

// sequencingStates maps product ids to their sequencing QC state. Ids the
// QC store could never have registered are skipped.
func (s *wellsService) sequencingStates(ctx context.Context, wells []*types.PacBioRunWellMetrics) (map[identity.ProductID]*QcStateView, error) {
	out := make(map[identity.ProductID]*QcStateView)
	ids := make([]string, 0, len(wells))
	seen := make(map[string]bool, len(wells))
	for _, w := range wells {
		if seen[w.IDPacBioProduct] {
			continue
		}
		seen[w.IDPacBioProduct] = true
		if _, err := identity.Parse(w.IDPacBioProduct); err != nil {
			s.log.Warn("tracking record has a malformed product id", "run_name", w.RunName, "well_label", w.WellLabel, "id_product", w.IDPacBioProduct)
			continue
		}
		ids = append(ids, w.IDPacBioProduct)
	}
	if len(ids) == 0 {
		return out, nil
	}
	byProduct, err := s.ledger.QcStatesForProducts(dbctx.Context{Ctx: ctx}, ids, true)
	if err != nil {
		return nil, fmt.Errorf("lookup qc states: %w", err)
	}
	for id, views := range byProduct {
		if len(views) > 0 {
			out[id] = views[0]
		}
	}
	return out, nil
}

func (s *wellsService) WellsForRun(ctx context.Context, runName string, page Page) (*PagedWells, error) {
	runName = strings.TrimSpace(runName)
	if runName == "" {
		return nil, apperrors.EmptyInput("run name")
	}
	out, err := s.wellsForRuns(ctx, []string{runName}, page)
	if err != nil {
		return nil, err
	}
	if out.TotalNumberOfItems == 0 {
		return nil, apperrors.RunNotFound(runName)
	}
	return out, nil
}

func (s *wellsService) WellsForRuns(ctx context.Context, runNames []string, page Page) (*PagedWells, error) {
	names := make([]string, 0, len(runNames))
	seen := make(map[string]bool, len(runNames))
	for _, n := range runNames {
		n = strings.TrimSpace(n)
		if n != "" && !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	if len(names) == 0 {
		return nil, apperrors.EmptyInput("list of run names")
	}
	return s.wellsForRuns(ctx, names, page)
}

func (s *wellsService) wellsForRuns(ctx context.Context, runNames []string, page Page) (*PagedWells, error) {
	ctx, span := observability.Tracer().Start(ctxutil.Default(ctx), "WellsService.WellsForRuns")
	defer span.End()
	span.SetAttributes(attribute.StringSlice("run_names", runNames))
	started := time.Now()
	defer func() { s.metrics.ObserveWellsQuery("run", time.Since(started)) }()

	if err := validateStruct(page); err != nil {
		return nil, err
	}
	wells, err := s.tracking.WellsForRuns(ctx, runNames)
	if err != nil {
		return nil, fmt.Errorf("list wells for runs: %w", err)
	}
	sort.SliceStable(wells, func(i, j int) bool {
		return compareCoordinates(wells[i].Coordinates(), wells[j].Coordinates()) < 0
	})

	pageWells := Slice(wells, page)
	states, err := s.sequencingStates(ctx, pageWells)
	if err != nil {
		return nil, err
	}
	out := &PagedWells{
		PageSize:           page.PageSize,
		PageNumber:         page.PageNumber,
		TotalNumberOfItems: len(wells),
		Wells:              make([]*WellView, 0, len(pageWells)),
	}
	for _, w := range pageWells {
		out.Wells = append(out.Wells, wellView(w, states[identity.ProductID(w.IDPacBioProduct)]))
	}
	return out, nil
}

// wellView prefers the QC store's product id when a state is attached.
func wellView(w *types.PacBioRunWellMetrics, st *QcStateView) *WellView {
	id := identity.ProductID(w.IDPacBioProduct)
	if st != nil && st.ProductID != "" {
		id = st.ProductID
	}
	return &WellView{
		ProductID:        id,
		RunName:          w.RunName,
		Label:            w.WellLabel,
		PlateNumber:      w.PlateNumber,
		InstrumentType:   w.InstrumentType,
		InstrumentName:   w.InstrumentName,
		RunStatus:        w.RunStatus,
		WellStatus:       w.WellStatus,
		RunStartTime:     w.RunStart,
		RunCompleteTime:  w.RunComplete,
		WellStartTime:    w.WellStart,
		WellCompleteTime: w.WellComplete,
		QcState:          st,
	}
}

func coordsOrZero(c *identity.Coordinates) identity.Coordinates {
	if c == nil {
		return identity.Coordinates{}
	}
	return *c
}

// compareCoordinates orders by run name, plate number (unset first), then
// well label.
func compareCoordinates(a, b identity.Coordinates) int {
	if c := strings.Compare(a.RunName, b.RunName); c != 0 {
		return c
	}
	switch {
	case a.PlateNumber == nil && b.PlateNumber != nil:
		return -1
	case a.PlateNumber != nil && b.PlateNumber == nil:
		return 1
	case a.PlateNumber != nil && *a.PlateNumber != *b.PlateNumber:
		if *a.PlateNumber < *b.PlateNumber {
			return -1
		}
		return 1
	}
	return strings.Compare(a.WellLabel, b.WellLabel)
}

// compareTimes orders ascending with unset values last.
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}

func sortTracking(wells []*types.PacBioRunWellMetrics, status FlowStatus) {
	sort.SliceStable(wells, func(i, j int) bool {
		a, b := wells[i], wells[j]
		switch status {
		case FlowInbox:
			if c := compareTimes(a.RunComplete, b.RunComplete); c != 0 {
				return c < 0
			}
		case FlowUpcoming:
			if c := compareTimes(a.RunStart, b.RunStart); c != 0 {
				return c < 0
			}
		}
		return compareCoordinates(a.Coordinates(), b.Coordinates()) < 0
	})
}
