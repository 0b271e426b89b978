package services

import (
	"errors"
	"testing"
	"time"

	types "github.com/yungbote/langqc-backend/internal/domain"
	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
	"github.com/yungbote/langqc-backend/internal/pkg/pointers"
)

func TestFlowStatusLabels(t *testing.T) {
	got := FlowStatuses()
	want := []FlowStatusInfo{
		{"Inbox", FlowInbox},
		{"In Progress", FlowInProgress},
		{"On Hold", FlowOnHold},
		{"QC Complete", FlowQcComplete},
		{"Aborted", FlowAborted},
		{"Unknown", FlowUnknown},
		{"Upcoming", FlowUpcoming},
	}
	if len(got) != len(want) {
		t.Fatalf("len: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d: want=%+v got=%+v", i, want[i], got[i])
		}
	}
}

func TestParseFlowStatus(t *testing.T) {
	if f, err := ParseFlowStatus(" QC_Complete "); err != nil || f != FlowQcComplete {
		t.Fatalf("want=%q got=%q err=%v", FlowQcComplete, f, err)
	}
	if _, err := ParseFlowStatus("archived"); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument got %v", err)
	}
}

func TestClassify(t *testing.T) {
	now := testNow
	lookback := DefaultInboxLookback
	recent := now.Add(-48 * time.Hour)
	old := now.Add(-lookback - 24*time.Hour)

	withStatus := func(w *types.PacBioRunWellMetrics, status string) *types.PacBioRunWellMetrics {
		w.WellStatus = pointers.String(status)
		return w
	}
	running := func(status string) *types.PacBioRunWellMetrics {
		return &types.PacBioRunWellMetrics{
			RunName: "r", WellLabel: "A1",
			RunStart:   pointers.Time(recent),
			WellStatus: pointers.String(status),
		}
	}

	cases := []struct {
		name  string
		state *QcStateView
		well  *types.PacBioRunWellMetrics
		want  FlowStatus
		ok    bool
	}{
		{"on hold beats everything", &QcStateView{QcState: QcStateOnHold, IsPreliminary: true}, withStatus(completeWell("r", "A1", recent), "Aborted"), FlowOnHold, true},
		{"final state", &QcStateView{QcState: "Passed"}, completeWell("r", "A1", recent), FlowQcComplete, true},
		{"preliminary state", &QcStateView{QcState: QcStateClaimed, IsPreliminary: true}, completeWell("r", "A1", recent), FlowInProgress, true},
		{"preliminary without tracking data", &QcStateView{QcState: "Passed", IsPreliminary: true}, nil, FlowInProgress, true},
		{"aborted", nil, withStatus(completeWell("r", "A1", recent), "Aborted"), FlowAborted, true},
		{"terminated", nil, running("Terminated"), FlowAborted, true},
		{"failed", nil, running("Failed"), FlowAborted, true},
		{"error", nil, running("Error"), FlowAborted, true},
		{"unknown", nil, running("Unknown"), FlowUnknown, true},
		{"inbox", nil, completeWell("r", "A1", recent), FlowInbox, true},
		{"inbox without ccs", nil, func() *types.PacBioRunWellMetrics {
			w := completeWell("r", "A1", recent)
			w.CcsExecutionMode, w.HifiNumReads = pointers.String("None"), nil
			return w
		}(), FlowInbox, true},
		{"complete but no hifi reads is upcoming", nil, func() *types.PacBioRunWellMetrics {
			w := completeWell("r", "A1", recent)
			w.HifiNumReads = nil
			return w
		}(), FlowUpcoming, true},
		{"running", nil, running("Running"), FlowUpcoming, true},
		{"on hold instrument status is excluded", nil, running("OnHold"), "", false},
		{"old complete well", nil, completeWell("r", "A1", old), "", false},
		{"nothing known", nil, nil, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Classify(tc.state, tc.well, now, lookback)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("want=(%q,%v) got=(%q,%v)", tc.want, tc.ok, got, ok)
			}
		})
	}
}
