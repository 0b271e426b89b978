package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/langqc-backend/internal/data/repos"
	"github.com/yungbote/langqc-backend/internal/data/repos/testutil"
	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/observability"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	"github.com/yungbote/langqc-backend/internal/pkg/pointers"
)

var testNow = time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	ctx      context.Context
	qcdb     *gorm.DB
	mlwhdb   *gorm.DB
	dict     *Dictionary
	metrics  *observability.Metrics
	tracking TrackingStore
	ledger   QcStateService
	wells    WellsService
}

func (e *testEnv) dbc() dbctx.Context { return dbctx.Context{Ctx: e.ctx} }

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := testutil.Logger(t)
	qcdb := testutil.QCDB(t)
	mlwhdb := testutil.MLWHDB(t)

	dictRepo := repos.NewDictionaryRepo(qcdb, log)
	dict, err := LoadDictionary(dbctx.Context{Ctx: ctx}, dictRepo)
	if err != nil {
		t.Fatalf("load dictionary: %v", err)
	}
	metrics := observability.NewMetrics(nil)
	tracking := NewTrackingStore(repos.NewWellMetricsRepo(mlwhdb, log))
	registry := NewProductRegistry(qcdb, log, repos.NewSeqProductRepo(qcdb, log), dictRepo, tracking)
	clock := func() time.Time { return testNow }
	ledger := NewQcStateService(
		qcdb, log, dict,
		repos.NewUserRepo(qcdb, log),
		repos.NewQcStateRepo(qcdb, log),
		repos.NewQcStateHistRepo(qcdb, log),
		registry, nil, metrics,
		QcStateServiceConfig{Now: clock},
	)
	wells := NewWellsService(log, ledger, tracking, metrics, WellsServiceConfig{Now: clock})
	return &testEnv{
		ctx: ctx, qcdb: qcdb, mlwhdb: mlwhdb, dict: dict, metrics: metrics,
		tracking: tracking, ledger: ledger, wells: wells,
	}
}

// completeWell returns an inbox-eligible well that finished at done.
func completeWell(run, label string, done time.Time) *types.PacBioRunWellMetrics {
	start := done.Add(-30 * time.Hour)
	return &types.PacBioRunWellMetrics{
		RunName:            run,
		WellLabel:          label,
		PlateNumber:        pointers.Int(1),
		RunStart:           pointers.Time(start),
		RunComplete:        pointers.Time(done),
		RunStatus:          pointers.String("Complete"),
		WellStart:          pointers.Time(start),
		WellComplete:       pointers.Time(done),
		WellStatus:         pointers.String("Complete"),
		CcsExecutionMode:   pointers.String("OnInstrument"),
		PolymeraseNumReads: pointers.Int64(5_000_000),
		HifiNumReads:       pointers.Int64(2_000_000),
	}
}

func (e *testEnv) seedWell(t *testing.T, w *types.PacBioRunWellMetrics) *types.PacBioRunWellMetrics {
	t.Helper()
	return testutil.SeedWell(t, e.ctx, e.mlwhdb, w)
}

func (e *testEnv) seedUser(t *testing.T, username string) *types.User {
	t.Helper()
	u, err := e.ledger.RegisterUser(e.dbc(), username)
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	return u
}

// seedState registers the well's product and writes a live sequencing
// state directly.
func (e *testEnv) seedState(t *testing.T, w *types.PacBioRunWellMetrics, u *types.User, state string, preliminary bool, updated time.Time) {
	t.Helper()
	p := testutil.SeedProduct(t, e.ctx, e.qcdb, w)
	testutil.SeedQcState(t, e.ctx, e.qcdb, p, u, QcTypeSequencing, state, preliminary, updated)
}
