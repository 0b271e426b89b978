package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/yungbote/langqc-backend/internal/data/repos"
	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/identity"
	"github.com/yungbote/langqc-backend/internal/observability"
	"github.com/yungbote/langqc-backend/internal/pkg/ctxutil"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
	"github.com/yungbote/langqc-backend/internal/pkg/logger"
)

// QcStateService is the QC state ledger: one live state per (product, QC
// type) plus an append-only history of every value it replaced.
type QcStateService interface {
	Claim(dbc dbctx.Context, req ClaimRequest) (*QcStateView, error)
	Assign(dbc dbctx.Context, req AssignRequest) (*QcStateView, error)
	// CurrentState returns nil, nil when the product has no state of qcType.
	CurrentState(dbc dbctx.Context, idProduct, qcType string) (*QcStateView, error)
	QcStatesForProducts(dbc dbctx.Context, idProducts []string, sequencingOnly bool) (map[identity.ProductID][]*QcStateView, error)
	// ProductHasQcState checks any QC type when qcType is empty.
	ProductHasQcState(dbc dbctx.Context, idProduct, qcType string) (bool, error)
	ProductsHaveQcState(dbc dbctx.Context, idProducts []string, sequencingOnly bool) ([]identity.ProductID, error)
	// History lists replaced values, oldest first.
	History(dbc dbctx.Context, idProduct, qcType string) ([]*QcStateView, error)
	ListSequencingStates(dbc dbctx.Context, f repos.StateFilter) ([]*QcStateView, error)
	RegisterUser(dbc dbctx.Context, username string) (*types.User, error)
	Dictionary() *Dictionary
}

type QcStateServiceConfig struct {
	ApplicationName string
	Now             func() time.Time
}

type qcStateService struct {
	db       *gorm.DB
	log      *logger.Logger
	dict     *Dictionary
	users    repos.UserRepo
	states   repos.QcStateRepo
	hist     repos.QcStateHistRepo
	registry ProductRegistry
	locker   ClaimLocker
	metrics  *observability.Metrics
	appName  string
	now      func() time.Time
}

func NewQcStateService(
	db *gorm.DB,
	log *logger.Logger,
	dict *Dictionary,
	users repos.UserRepo,
	states repos.QcStateRepo,
	hist repos.QcStateHistRepo,
	registry ProductRegistry,
	locker ClaimLocker,
	metrics *observability.Metrics,
	cfg QcStateServiceConfig,
) QcStateService {
	if locker == nil {
		locker = NewNoopClaimLocker()
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = "LangQC"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &qcStateService{
		db:       db,
		log:      log.With("service", "QcStateService"),
		dict:     dict,
		users:    users,
		states:   states,
		hist:     hist,
		registry: registry,
		locker:   locker,
		metrics:  metrics,
		appName:  cfg.ApplicationName,
		now:      cfg.Now,
	}
}

func (s *qcStateService) Dictionary() *Dictionary { return s.dict }

func (s *qcStateService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// inTx runs fn in the caller's transaction, or in a new one.
func (s *qcStateService) inTx(dbc dbctx.Context, fn func(inner dbctx.Context) error) error {
	if dbc.Tx != nil {
		return fn(dbc)
	}
	return s.db.WithContext(ctxutil.Default(dbc.Ctx)).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: dbc.Ctx, Tx: tx})
	})
}

func (s *qcStateService) requireUser(dbc dbctx.Context, username string) (*types.User, error) {
	u, err := s.users.GetByUsername(dbc, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil || !u.IsCurrent {
		return nil, apperrors.Unauthorized("user '%s' is not registered as a current QC user", username)
	}
	return u, nil
}

func (s *qcStateService) Claim(dbc dbctx.Context, req ClaimRequest) (*QcStateView, error) {
	ctx, span := observability.Tracer().Start(ctxutil.Default(dbc.Ctx), "QcStateService.Claim")
	defer span.End()
	span.SetAttributes(attribute.String("id_product", req.ProductID), attribute.String("qc_type", req.QcType))
	dbc.Ctx = ctx

	view, err := s.claim(dbc, req)
	kind := apperrors.KindOf(err)
	s.metrics.IncClaim(observability.ResultLabel(err, string(kind)))
	if err != nil {
		span.RecordError(err)
		if kind == "" {
			span.SetStatus(codes.Error, err.Error())
			s.log.Error("claim failed", "id_product", req.ProductID, "qc_type", req.QcType, "user", req.User, "error", err)
		} else {
			s.log.Debug("claim rejected", "id_product", req.ProductID, "kind", kind, "error", err)
		}
	}
	return view, err
}

func (s *qcStateService) claim(dbc dbctx.Context, req ClaimRequest) (*QcStateView, error) {
	req.QcType = strings.TrimSpace(req.QcType)
	if req.QcType == "" {
		req.QcType = QcTypeSequencing
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	id, err := identity.Parse(req.ProductID)
	if err != nil {
		return nil, err
	}
	qcType, claimed, err := s.dict.ValidateAssignment(req.QcType, QcStateClaimed, true)
	if err != nil {
		return nil, err
	}

	release, obtained, lockErr := s.locker.Lock(dbc.Ctx, claimLockKey(id.String(), qcType.Name))
	defer release()
	if lockErr != nil {
		s.log.Warn("claim lock unavailable, relying on unique constraint", "id_product", id, "error", lockErr)
	} else if !obtained {
		s.log.Warn("claim lock busy, relying on unique constraint", "id_product", id)
	}

	now := s.timestamp()
	var out *QcStateView
	err = s.inTx(dbc, func(inner dbctx.Context) error {
		user, err := s.requireUser(inner, req.User)
		if err != nil {
			return err
		}
		product, err := s.registry.FindOrCreate(inner, id)
		if err != nil {
			return err
		}
		existing, err := s.states.Get(inner, product.ID, qcType.ID)
		if err != nil {
			return fmt.Errorf("lookup qc state: %w", err)
		}
		if existing != nil {
			return apperrors.AlreadyClaimed(id.String(), qcType.Name)
		}

		// No history row here. The claimed value is snapshotted into
		// history the first time an assignment replaces it.
		row := &types.QcState{
			IDSeqProduct:  product.ID,
			IDQcType:      qcType.ID,
			IDUser:        user.ID,
			IDQcStateDict: claimed.ID,
			CreatedBy:     s.appName,
			DateCreated:   now,
			DateUpdated:   now,
			IsPreliminary: true,
		}
		if err := s.states.Create(inner, row); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.AlreadyClaimed(id.String(), qcType.Name)
			}
			return fmt.Errorf("create qc state: %w", err)
		}
		out = withCoordinates(s.dict.stateView(row, id, user.Username), product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("qc state claimed", "id_product", id, "qc_type", qcType.Name, "user", out.User)
	return out, nil
}

func (s *qcStateService) Assign(dbc dbctx.Context, req AssignRequest) (*QcStateView, error) {
	ctx, span := observability.Tracer().Start(ctxutil.Default(dbc.Ctx), "QcStateService.Assign")
	defer span.End()
	span.SetAttributes(
		attribute.String("id_product", req.ProductID),
		attribute.String("qc_type", req.QcType),
		attribute.String("qc_state", req.QcState),
		attribute.Bool("is_preliminary", req.IsPreliminary),
	)
	dbc.Ctx = ctx

	view, err := s.assign(dbc, req)
	kind := apperrors.KindOf(err)
	s.metrics.IncAssignment(observability.ResultLabel(err, string(kind)))
	if err != nil {
		span.RecordError(err)
		if kind == "" {
			span.SetStatus(codes.Error, err.Error())
			s.log.Error("assign failed", "id_product", req.ProductID, "qc_type", req.QcType, "user", req.User, "error", err)
		} else {
			s.log.Debug("assign rejected", "id_product", req.ProductID, "kind", kind, "error", err)
		}
	}
	return view, err
}

func (s *qcStateService) assign(dbc dbctx.Context, req AssignRequest) (*QcStateView, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	id, err := identity.Parse(req.ProductID)
	if err != nil {
		return nil, err
	}
	qcType, state, err := s.dict.ValidateAssignment(req.QcType, req.QcState, req.IsPreliminary)
	if err != nil {
		return nil, err
	}
	createdBy := strings.TrimSpace(req.Context)
	if createdBy == "" {
		createdBy = s.appName
	}
	now := s.timestamp()
	if req.DateUpdated != nil {
		now = req.DateUpdated.UTC()
	}

	var out *QcStateView
	err = s.inTx(dbc, func(inner dbctx.Context) error {
		user, err := s.requireUser(inner, req.User)
		if err != nil {
			return err
		}
		product, err := s.registry.Get(inner, id)
		if err != nil {
			return fmt.Errorf("lookup product: %w", err)
		}
		if product == nil {
			return apperrors.Unclaimed(id.String(), qcType.Name)
		}
		current, err := s.states.GetForUpdate(inner, product.ID, qcType.ID)
		if err != nil {
			return fmt.Errorf("lookup qc state: %w", err)
		}
		if current == nil {
			return apperrors.Unclaimed(id.String(), qcType.Name)
		}
		if current.IDUser != user.ID {
			return apperrors.Unauthorized("QC state of type '%s' for product %s is claimed by another user", qcType.Name, id)
		}
		if current.IDQcStateDict == state.ID && current.IsPreliminary == req.IsPreliminary {
			out = withCoordinates(s.dict.stateView(current, id, user.Username), product)
			return nil
		}

		if err := s.hist.Create(inner, current.Snapshot()); err != nil {
			return fmt.Errorf("write qc state history: %w", err)
		}
		updates := map[string]interface{}{
			"id_qc_state_dict": state.ID,
			"is_preliminary":   req.IsPreliminary,
			"id_user":          user.ID,
			"created_by":       createdBy,
			"date_updated":     now,
		}
		if err := s.states.Update(inner, current.ID, updates); err != nil {
			return fmt.Errorf("update qc state: %w", err)
		}
		current.IDQcStateDict = state.ID
		current.IsPreliminary = req.IsPreliminary
		current.IDUser = user.ID
		current.CreatedBy = createdBy
		current.DateUpdated = now
		out = withCoordinates(s.dict.stateView(current, id, user.Username), product)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("qc state assigned", "id_product", id, "qc_type", qcType.Name, "qc_state", out.QcState, "is_preliminary", out.IsPreliminary)
	return out, nil
}

func (s *qcStateService) CurrentState(dbc dbctx.Context, idProduct, qcType string) (*QcStateView, error) {
	if qcType == "" {
		qcType = QcTypeSequencing
	}
	id, err := identity.Parse(idProduct)
	if err != nil {
		return nil, err
	}
	t, err := s.dict.ResolveQcType(qcType)
	if err != nil {
		return nil, err
	}
	product, err := s.registry.Get(dbc, id)
	if err != nil || product == nil {
		return nil, err
	}
	row, err := s.states.Get(dbc, product.ID, t.ID)
	if err != nil || row == nil {
		return nil, err
	}
	return s.dict.stateView(row, id, ""), nil
}

func (s *qcStateService) statesFor(dbc dbctx.Context, idProducts []string, sequencingOnly bool) ([]*types.QcState, error) {
	if len(idProducts) == 0 {
		return nil, apperrors.EmptyInput("list of product ids")
	}
	ids, err := identity.ParseAll(idProducts)
	if err != nil {
		return nil, err
	}
	products, err := s.registry.GetMany(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}
	seqIDs := make([]uint, 0, len(products))
	for _, p := range products {
		seqIDs = append(seqIDs, p.ID)
	}
	var typeID *uint
	if sequencingOnly {
		t, err := s.dict.ResolveQcType(QcTypeSequencing)
		if err != nil {
			return nil, err
		}
		typeID = &t.ID
	}
	return s.states.ListBySeqProductIDs(dbc, seqIDs, typeID)
}

func (s *qcStateService) QcStatesForProducts(dbc dbctx.Context, idProducts []string, sequencingOnly bool) (map[identity.ProductID][]*QcStateView, error) {
	rows, err := s.statesFor(dbc, idProducts, sequencingOnly)
	if err != nil {
		return nil, err
	}
	out := make(map[identity.ProductID][]*QcStateView)
	for _, row := range rows {
		v := s.dict.stateView(row, "", "")
		out[v.ProductID] = append(out[v.ProductID], v)
	}
	return out, nil
}

func (s *qcStateService) ProductsHaveQcState(dbc dbctx.Context, idProducts []string, sequencingOnly bool) ([]identity.ProductID, error) {
	byProduct, err := s.QcStatesForProducts(dbc, idProducts, sequencingOnly)
	if err != nil {
		return nil, err
	}
	out := make([]identity.ProductID, 0, len(byProduct))
	seen := make(map[identity.ProductID]bool, len(byProduct))
	for _, raw := range idProducts {
		id := identity.ProductID(strings.TrimSpace(raw))
		if _, ok := byProduct[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *qcStateService) ProductHasQcState(dbc dbctx.Context, idProduct, qcType string) (bool, error) {
	id, err := identity.Parse(idProduct)
	if err != nil {
		return false, err
	}
	var typeID *uint
	if qcType != "" {
		t, err := s.dict.ResolveQcType(qcType)
		if err != nil {
			return false, err
		}
		typeID = &t.ID
	}
	product, err := s.registry.Get(dbc, id)
	if err != nil || product == nil {
		return false, err
	}
	rows, err := s.states.ListBySeqProductIDs(dbc, []uint{product.ID}, typeID)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *qcStateService) History(dbc dbctx.Context, idProduct, qcType string) ([]*QcStateView, error) {
	if qcType == "" {
		qcType = QcTypeSequencing
	}
	id, err := identity.Parse(idProduct)
	if err != nil {
		return nil, err
	}
	t, err := s.dict.ResolveQcType(qcType)
	if err != nil {
		return nil, err
	}
	product, err := s.registry.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return []*QcStateView{}, nil
	}
	rows, err := s.hist.List(dbc, product.ID, t.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*QcStateView, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.dict.histView(row, id))
	}
	return out, nil
}

// ListSequencingStates returns sequencing QC states matching f, most
// recently updated first. The QC type in f is ignored.
func (s *qcStateService) ListSequencingStates(dbc dbctx.Context, f repos.StateFilter) ([]*QcStateView, error) {
	t, err := s.dict.ResolveQcType(QcTypeSequencing)
	if err != nil {
		return nil, err
	}
	f.IDQcType = t.ID
	rows, err := s.states.ListByFilter(dbc, f)
	if err != nil {
		return nil, err
	}
	out := make([]*QcStateView, 0, len(rows))
	for _, row := range rows {
		out = append(out, s.dict.stateView(row, "", ""))
	}
	return out, nil
}

func (s *qcStateService) RegisterUser(dbc dbctx.Context, username string) (*types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.EmptyInput("username")
	}
	now := s.timestamp()
	u, err := s.users.Ensure(dbc, username, now)
	if err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	if !u.IsCurrent {
		if err := s.users.SetCurrent(dbc, username, true, now); err != nil {
			return nil, fmt.Errorf("reactivate user: %w", err)
		}
		u.IsCurrent = true
	}
	return u, nil
}
