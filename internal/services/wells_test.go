package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/yungbote/langqc-backend/internal/data/repos/testutil"
	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/identity"
	"github.com/yungbote/langqc-backend/internal/observability"
	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
	"github.com/yungbote/langqc-backend/internal/pkg/pointers"
)

func labels(p *PagedWells) []string {
	out := make([]string, 0, len(p.Wells))
	for _, w := range p.Wells {
		out = append(out, w.Label)
	}
	return out
}

func anomalies(t *testing.T, m *observability.Metrics) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "langqc_wells_anomalies_total" && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

func runningWell(run, label string, started time.Time, status string) *types.PacBioRunWellMetrics {
	return &types.PacBioRunWellMetrics{
		RunName:     run,
		WellLabel:   label,
		PlateNumber: pointers.Int(1),
		RunStart:    pointers.Time(started),
		RunStatus:   pointers.String("Running"),
		WellStart:   pointers.Time(started),
		WellStatus:  pointers.String(status),
	}
}

func TestListByStatusPagesOnHold(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "zx80")

	// A1 is the oldest update, E1 the newest.
	for i, label := range []string{"A1", "B1", "C1", "D1", "E1"} {
		w := env.seedWell(t, completeWell("TRACTION-RUN-1", label, testNow.Add(-72*time.Hour)))
		env.seedState(t, w, u, QcStateOnHold, true, testNow.Add(time.Duration(i-10)*time.Hour))
	}
	other := env.seedWell(t, completeWell("TRACTION-RUN-1", "F1", testNow.Add(-72*time.Hour)))
	env.seedState(t, other, u, "Passed", false, testNow)

	got, err := env.wells.ListByStatus(env.ctx, FlowOnHold, Page{PageSize: 2, PageNumber: 2})
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if got.TotalNumberOfItems != 5 || got.PageSize != 2 || got.PageNumber != 2 || got.QcFlowStatus != FlowOnHold {
		t.Fatalf("unexpected envelope: %+v", got)
	}
	if strings.Join(labels(got), ",") != "C1,B1" {
		t.Fatalf("page 2: want=C1,B1 got=%v", labels(got))
	}
	for _, w := range got.Wells {
		if w.QcState == nil || w.QcState.QcState != QcStateOnHold || w.RunName != "TRACTION-RUN-1" {
			t.Fatalf("unexpected well: %+v", w)
		}
	}

	again, err := env.wells.ListByStatus(env.ctx, FlowOnHold, Page{PageSize: 2, PageNumber: 2})
	if err != nil || strings.Join(labels(again), ",") != "C1,B1" {
		t.Fatalf("paging is not deterministic: err=%v got=%v", err, labels(again))
	}

	past, err := env.wells.ListByStatus(env.ctx, FlowOnHold, Page{PageSize: 2, PageNumber: 9})
	if err != nil || len(past.Wells) != 0 || past.TotalNumberOfItems != 5 {
		t.Fatalf("page past the end: err=%v got=%+v", err, past)
	}
}

func TestListByStatusPagesCoverEveryWellOnce(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "zx80")
	day := 24 * time.Hour

	for i, label := range []string{"A1", "B1", "C1", "D1", "E1"} {
		w := env.seedWell(t, completeWell("RUN-H", label, testNow.Add(-72*time.Hour)))
		// B1 and C1 share an update time to exercise the coordinate tie-break.
		updated := testNow.Add(time.Duration(i) * -time.Hour)
		if label == "C1" {
			updated = testNow.Add(-time.Hour)
		}
		env.seedState(t, w, u, QcStateOnHold, true, updated)
	}
	for i, label := range []string{"A1", "B1", "C1", "D1", "E1", "F1"} {
		env.seedWell(t, completeWell("RUN-I", label, testNow.Add(-time.Duration(i%3+1)*day)))
	}

	for _, status := range []FlowStatus{FlowOnHold, FlowInbox} {
		full, err := env.wells.ListByStatus(env.ctx, status, Page{PageSize: 100, PageNumber: 1})
		if err != nil {
			t.Fatalf("%s: %v", status, err)
		}
		total := full.TotalNumberOfItems
		if total == 0 || len(full.Wells) != total {
			t.Fatalf("%s: want a non-empty first page holding every well, got total=%d wells=%d", status, total, len(full.Wells))
		}
		var want []string
		for _, w := range full.Wells {
			want = append(want, string(w.ProductID))
		}

		for k := 1; k <= total+1; k++ {
			var joined []string
			for p := 1; p <= (total+k-1)/k; p++ {
				page, err := env.wells.ListByStatus(env.ctx, status, Page{PageSize: k, PageNumber: p})
				if err != nil {
					t.Fatalf("%s k=%d p=%d: %v", status, k, p, err)
				}
				if page.TotalNumberOfItems != total {
					t.Fatalf("%s k=%d p=%d: total want=%d got=%d", status, k, p, total, page.TotalNumberOfItems)
				}
				for _, w := range page.Wells {
					joined = append(joined, string(w.ProductID))
				}
			}
			if strings.Join(joined, ",") != strings.Join(want, ",") {
				t.Fatalf("%s k=%d: pages do not concatenate to the full list: want=%v got=%v", status, k, want, joined)
			}
		}

		for _, page := range []Page{
			{PageSize: 2, PageNumber: math.MaxInt},
			{PageSize: math.MaxInt, PageNumber: 2},
			{PageSize: math.MaxInt, PageNumber: math.MaxInt},
		} {
			got, err := env.wells.ListByStatus(env.ctx, status, page)
			if err != nil || len(got.Wells) != 0 || got.TotalNumberOfItems != total {
				t.Fatalf("%s page %+v: want empty page with total=%d, err=%v got=%+v", status, page, total, err, got)
			}
		}
	}

	run, err := env.wells.WellsForRun(env.ctx, "RUN-I", Page{PageSize: 3, PageNumber: math.MaxInt})
	if err != nil || len(run.Wells) != 0 || run.TotalNumberOfItems != 6 {
		t.Fatalf("WellsForRun past the end: err=%v got=%+v", err, run)
	}
	runs, err := env.wells.WellsForRuns(env.ctx, []string{"RUN-H", "RUN-I"}, Page{PageSize: 1, PageNumber: math.MaxInt})
	if err != nil || len(runs.Wells) != 0 || runs.TotalNumberOfItems != 11 {
		t.Fatalf("WellsForRuns past the end: err=%v got=%+v", err, runs)
	}
}

func TestListByStatusTieBreaksByCoordinates(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "zx80")
	same := testNow.Add(-time.Hour)

	for _, c := range []struct {
		run   string
		label string
		plate *int
	}{
		{"TRACTION-RUN-2", "A1", pointers.Int(2)},
		{"TRACTION-RUN-2", "B1", pointers.Int(1)},
		{"TRACTION-RUN-1", "D1", nil},
		{"TRACTION-RUN-2", "A1", pointers.Int(1)},
	} {
		w := completeWell(c.run, c.label, testNow.Add(-72*time.Hour))
		w.PlateNumber = c.plate
		env.seedState(t, env.seedWell(t, w), u, "Claimed", true, same)
	}

	got, err := env.wells.ListByStatus(env.ctx, FlowInProgress, Page{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	var keys []string
	for _, w := range got.Wells {
		plate := "-"
		if w.PlateNumber != nil {
			plate = string(rune('0' + *w.PlateNumber))
		}
		keys = append(keys, w.RunName+"/"+plate+"/"+w.Label)
	}
	want := "TRACTION-RUN-1/-/D1,TRACTION-RUN-2/1/A1,TRACTION-RUN-2/1/B1,TRACTION-RUN-2/2/A1"
	if strings.Join(keys, ",") != want {
		t.Fatalf("order: want=%s got=%s", want, strings.Join(keys, ","))
	}
}

func TestFlowStatusesPartitionWells(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "zx80")
	recent := testNow.Add(-48 * time.Hour)

	onHold := env.seedWell(t, completeWell("RUN-P", "A1", recent))
	env.seedState(t, onHold, u, QcStateOnHold, true, testNow)
	done := env.seedWell(t, completeWell("RUN-P", "B1", recent))
	env.seedState(t, done, u, "Failed", false, testNow)
	claimed := env.seedWell(t, completeWell("RUN-P", "C1", recent))
	env.seedState(t, claimed, u, QcStateClaimed, true, testNow)
	abortedWithState := env.seedWell(t, runningWell("RUN-P", "D1", recent, "Aborted"))
	env.seedState(t, abortedWithState, u, "Aborted", false, testNow)

	aborted := env.seedWell(t, runningWell("RUN-P", "E1", recent, "Aborting"))
	unknown := env.seedWell(t, runningWell("RUN-P", "F1", recent, "Unknown"))
	inbox := env.seedWell(t, completeWell("RUN-P", "G1", recent))
	upcoming := env.seedWell(t, runningWell("RUN-P", "H1", recent, "Running"))
	stale := env.seedWell(t, completeWell("RUN-P", "I1", testNow.Add(-DefaultInboxLookback-48*time.Hour)))
	paused := env.seedWell(t, runningWell("RUN-P", "J1", recent, "OnHold"))

	want := map[string]FlowStatus{
		onHold.WellLabel:           FlowOnHold,
		done.WellLabel:             FlowQcComplete,
		claimed.WellLabel:          FlowInProgress,
		abortedWithState.WellLabel: FlowQcComplete,
		aborted.WellLabel:          FlowAborted,
		unknown.WellLabel:          FlowUnknown,
		inbox.WellLabel:            FlowInbox,
		upcoming.WellLabel:         FlowUpcoming,
	}

	seen := map[string][]FlowStatus{}
	for _, info := range FlowStatuses() {
		got, err := env.wells.ListByStatus(env.ctx, info.Param, Page{PageSize: 100, PageNumber: 1})
		if err != nil {
			t.Fatalf("ListByStatus(%s): %v", info.Param, err)
		}
		if got.TotalNumberOfItems != len(got.Wells) {
			t.Fatalf("%s: total=%d returned=%d", info.Param, got.TotalNumberOfItems, len(got.Wells))
		}
		for _, w := range got.Wells {
			seen[w.Label] = append(seen[w.Label], info.Param)
		}
	}

	for label, status := range want {
		if len(seen[label]) != 1 || seen[label][0] != status {
			t.Fatalf("well %s: want exactly [%s] got %v", label, status, seen[label])
		}
	}
	for _, label := range []string{stale.WellLabel, paused.WellLabel} {
		if len(seen[label]) != 0 {
			t.Fatalf("well %s should be in no list, got %v", label, seen[label])
		}
	}
}

func TestTrackingStatusOrdering(t *testing.T) {
	env := newTestEnv(t)
	day := 24 * time.Hour

	env.seedWell(t, completeWell("RUN-I", "A1", testNow.Add(-1*day)))
	env.seedWell(t, completeWell("RUN-I", "B1", testNow.Add(-3*day)))
	env.seedWell(t, completeWell("RUN-I", "D1", testNow.Add(-2*day)))
	env.seedWell(t, completeWell("RUN-I", "C1", testNow.Add(-2*day)))

	inbox, err := env.wells.ListByStatus(env.ctx, FlowInbox, Page{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if got := strings.Join(labels(inbox), ","); got != "B1,C1,D1,A1" {
		t.Fatalf("inbox order: want=B1,C1,D1,A1 got=%s", got)
	}

	env.seedWell(t, runningWell("RUN-U", "A1", testNow.Add(-2*time.Hour), "Running"))
	env.seedWell(t, runningWell("RUN-U", "B1", testNow.Add(-5*time.Hour), "Running"))
	upcoming, err := env.wells.ListByStatus(env.ctx, FlowUpcoming, Page{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("upcoming: %v", err)
	}
	if got := strings.Join(labels(upcoming), ","); got != "B1,A1" {
		t.Fatalf("upcoming order: want=B1,A1 got=%s", got)
	}

	env.seedWell(t, runningWell("RUN-B", "B1", testNow.Add(-5*day), "Failed"))
	env.seedWell(t, runningWell("RUN-A", "C1", testNow.Add(-5*day), "Terminated"))
	env.seedWell(t, runningWell("RUN-A", "A1", testNow.Add(-50*day), "Error"))
	aborted, err := env.wells.ListByStatus(env.ctx, FlowAborted, Page{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("aborted: %v", err)
	}
	var got []string
	for _, w := range aborted.Wells {
		got = append(got, w.RunName+"/"+w.Label)
	}
	if strings.Join(got, ",") != "RUN-A/A1,RUN-A/C1,RUN-B/B1" {
		t.Fatalf("aborted order: got=%v", got)
	}
}

func TestListByStatusSkipsStatesWithoutTrackingRow(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "zx80")

	present := env.seedWell(t, completeWell("RUN-X", "A1", testNow.Add(-time.Hour)))
	env.seedState(t, present, u, QcStateOnHold, true, testNow.Add(-time.Hour))

	missing := completeWell("RUN-X", "B1", testNow.Add(-time.Hour))
	id, err := identity.NewPacBioResolver().ProductID(missing.Coordinates())
	if err != nil {
		t.Fatalf("ProductID: %v", err)
	}
	missing.IDPacBioProduct = id.String()
	env.seedState(t, missing, u, QcStateOnHold, true, testNow)

	before := anomalies(t, env.metrics)
	got, err := env.wells.ListByStatus(env.ctx, FlowOnHold, Page{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if got.TotalNumberOfItems != 2 || len(got.Wells) != 1 || got.Wells[0].Label != "A1" {
		t.Fatalf("want total=2 with only A1 returned, got total=%d wells=%v", got.TotalNumberOfItems, labels(got))
	}
	if after := anomalies(t, env.metrics); after != before+1 {
		t.Fatalf("anomaly counter: want=%v got=%v", before+1, after)
	}
}

func TestListByStatusFallsBackToCoordinates(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "zx80")

	w := completeWell("RUN-Y", "A1", testNow.Add(-time.Hour))
	id, err := identity.NewPacBioResolver().ProductID(w.Coordinates())
	if err != nil {
		t.Fatalf("ProductID: %v", err)
	}
	w.IDPacBioProduct = id.String()
	p := testutil.SeedProduct(t, env.ctx, env.qcdb, w)
	testutil.SeedQcState(t, env.ctx, env.qcdb, p, u, QcTypeSequencing, QcStateClaimed, true, testNow)

	// The tracking row carries a different checksum for the same well.
	tracked := completeWell("RUN-Y", "A1", testNow.Add(-time.Hour))
	tracked.IDPacBioProduct = strings.Repeat("e", 64)
	env.seedWell(t, tracked)

	got, err := env.wells.ListByStatus(env.ctx, FlowInProgress, Page{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(got.Wells) != 1 || got.Wells[0].ProductID != id {
		t.Fatalf("want the well found by coordinates with id %s, got %+v", id, got.Wells)
	}
}

func TestWellsForRun(t *testing.T) {
	env := newTestEnv(t)
	u := env.seedUser(t, "zx80")

	for _, c := range []struct {
		label string
		plate int
	}{{"B1", 1}, {"A1", 2}, {"A1", 1}} {
		w := completeWell("RUN-R", c.label, testNow.Add(-time.Hour))
		w.PlateNumber = pointers.Int(c.plate)
		w = env.seedWell(t, w)
		if c.label == "B1" {
			env.seedState(t, w, u, "Passed", false, testNow)
		}
	}
	env.seedWell(t, completeWell("RUN-S", "A1", testNow.Add(-time.Hour)))

	got, err := env.wells.WellsForRun(env.ctx, "RUN-R", Page{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("WellsForRun: %v", err)
	}
	if got.TotalNumberOfItems != 3 || strings.Join(labels(got), ",") != "A1,B1,A1" {
		t.Fatalf("unexpected wells: total=%d labels=%v", got.TotalNumberOfItems, labels(got))
	}
	if got.Wells[0].QcState != nil || got.Wells[1].QcState == nil || got.Wells[1].QcState.QcState != "Passed" {
		t.Fatalf("qc states not attached as expected: %+v %+v", got.Wells[0].QcState, got.Wells[1].QcState)
	}

	if _, err := env.wells.WellsForRun(env.ctx, "RUN-NOPE", Page{PageSize: 10, PageNumber: 1}); !errors.Is(err, apperrors.ErrRunNotFound) {
		t.Fatalf("unknown run: want ErrRunNotFound got %v", err)
	}

	both, err := env.wells.WellsForRuns(env.ctx, []string{"RUN-S", "RUN-R", "RUN-S"}, Page{PageSize: 2, PageNumber: 2})
	if err != nil {
		t.Fatalf("WellsForRuns: %v", err)
	}
	if both.TotalNumberOfItems != 4 || len(both.Wells) != 2 || both.Wells[1].RunName != "RUN-S" {
		t.Fatalf("unexpected page: total=%d wells=%+v", both.TotalNumberOfItems, both.Wells)
	}
	if _, err := env.wells.WellsForRuns(env.ctx, []string{" "}, Page{PageSize: 2, PageNumber: 1}); !errors.Is(err, apperrors.ErrEmptyInput) {
		t.Fatalf("empty runs: want ErrEmptyInput got %v", err)
	}
}

func TestListByStatusRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.wells.ListByStatus(env.ctx, FlowInbox, Page{PageSize: 0, PageNumber: 1}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("bad page: want ErrInvalidArgument got %v", err)
	}
	if _, err := env.wells.ListByStatus(env.ctx, FlowStatus("archived"), Page{PageSize: 1, PageNumber: 1}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("bad status: want ErrInvalidArgument got %v", err)
	}
}

type failingTracking struct {
	TrackingStore
}

func (failingTracking) WellsCompletedSince(context.Context, time.Time) ([]*types.PacBioRunWellMetrics, error) {
	return nil, errors.New("connection refused")
}

func TestListByStatusPropagatesStoreFailures(t *testing.T) {
	env := newTestEnv(t)
	svc := NewWellsService(testutil.Logger(t), env.ledger, failingTracking{env.tracking}, nil, WellsServiceConfig{Now: func() time.Time { return testNow }})

	_, err := svc.ListByStatus(env.ctx, FlowInbox, Page{PageSize: 1, PageNumber: 1})
	if err == nil || apperrors.IsUserFacing(err) {
		t.Fatalf("want an internal error, got %v", err)
	}
}

// memTracking is an in-memory tracking store.
type memTracking struct {
	wells []*types.PacBioRunWellMetrics
}

func (m *memTracking) filter(keep func(*types.PacBioRunWellMetrics) bool) []*types.PacBioRunWellMetrics {
	var out []*types.PacBioRunWellMetrics
	for _, w := range m.wells {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}

func (m *memTracking) WellByProductID(_ context.Context, id identity.ProductID) (*types.PacBioRunWellMetrics, error) {
	for _, w := range m.wells {
		if w.IDPacBioProduct == id.String() {
			return w, nil
		}
	}
	return nil, nil
}

func (m *memTracking) WellByCoordinates(_ context.Context, c identity.Coordinates) (*types.PacBioRunWellMetrics, error) {
	for _, w := range m.wells {
		if compareCoordinates(w.Coordinates(), c) == 0 {
			return w, nil
		}
	}
	return nil, nil
}

func (m *memTracking) WellsByProductIDs(_ context.Context, ids []identity.ProductID) ([]*types.PacBioRunWellMetrics, error) {
	set := map[string]bool{}
	for _, id := range ids {
		set[id.String()] = true
	}
	return m.filter(func(w *types.PacBioRunWellMetrics) bool { return set[w.IDPacBioProduct] }), nil
}

func (m *memTracking) WellsForRuns(_ context.Context, runNames []string) ([]*types.PacBioRunWellMetrics, error) {
	set := map[string]bool{}
	for _, n := range runNames {
		set[n] = true
	}
	return m.filter(func(w *types.PacBioRunWellMetrics) bool { return set[w.RunName] }), nil
}

func (m *memTracking) WellsByStatusPrefixes(_ context.Context, prefixes []string) ([]*types.PacBioRunWellMetrics, error) {
	return m.filter(func(w *types.PacBioRunWellMetrics) bool { return hasAnyPrefix(w.Status(), prefixes) }), nil
}

func (m *memTracking) WellsByStatus(_ context.Context, status string) ([]*types.PacBioRunWellMetrics, error) {
	return m.filter(func(w *types.PacBioRunWellMetrics) bool { return w.Status() == status }), nil
}

func (m *memTracking) WellsCompletedSince(_ context.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error) {
	return m.filter(func(w *types.PacBioRunWellMetrics) bool { return within(w.WellComplete, since) }), nil
}

func (m *memTracking) WellsStartedSince(_ context.Context, since time.Time) ([]*types.PacBioRunWellMetrics, error) {
	return m.filter(func(w *types.PacBioRunWellMetrics) bool { return within(w.RunStart, since) }), nil
}

func TestInboxLookbackWithInMemoryTracking(t *testing.T) {
	env := newTestEnv(t)
	mem := &memTracking{}
	for i, label := range []string{"A1", "B1", "C1"} {
		w := completeWell("RUN-M", label, testNow.Add(-time.Duration(i*10)*24*time.Hour))
		id, err := identity.NewPacBioResolver().ProductID(w.Coordinates())
		if err != nil {
			t.Fatalf("ProductID: %v", err)
		}
		w.IDPacBioProduct = id.String()
		mem.wells = append(mem.wells, w)
	}
	mem.wells = append(mem.wells, &types.PacBioRunWellMetrics{
		RunName: "RUN-M", WellLabel: "D1", IDPacBioProduct: "not-a-checksum",
		WellStatus: pointers.String("Unknown"),
	})

	svc := NewWellsService(testutil.Logger(t), env.ledger, mem, nil, WellsServiceConfig{
		InboxLookback: 15 * 24 * time.Hour,
		Now:           func() time.Time { return testNow },
	})

	inbox, err := svc.ListByStatus(env.ctx, FlowInbox, Page{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("inbox: %v", err)
	}
	if got := strings.Join(labels(inbox), ","); got != "B1,A1" {
		t.Fatalf("inbox within 15 days: want=B1,A1 got=%s", got)
	}

	unknown, err := svc.ListByStatus(env.ctx, FlowUnknown, Page{PageSize: 10, PageNumber: 1})
	if err != nil {
		t.Fatalf("unknown: %v", err)
	}
	if got := strings.Join(labels(unknown), ","); got != "D1" {
		t.Fatalf("unknown: want=D1 got=%s", got)
	}
}
