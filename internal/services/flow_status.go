package services

import (
	"strings"
	"time"

	types "github.com/yungbote/langqc-backend/internal/domain"
	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
)

// FlowStatus is a derived, never stored, worklist category.
type FlowStatus string

const (
	FlowInbox      FlowStatus = "inbox"
	FlowInProgress FlowStatus = "in_progress"
	FlowOnHold     FlowStatus = "on_hold"
	FlowQcComplete FlowStatus = "qc_complete"
	FlowAborted    FlowStatus = "aborted"
	FlowUnknown    FlowStatus = "unknown"
	FlowUpcoming   FlowStatus = "upcoming"
)

var flowStatusOrder = []FlowStatus{
	FlowInbox, FlowInProgress, FlowOnHold, FlowQcComplete, FlowAborted, FlowUnknown, FlowUpcoming,
}

// DefaultInboxLookback is twelve weeks.
const DefaultInboxLookback = 12 * 7 * 24 * time.Hour

var (
	abortedStatusPrefixes = []string{"Abort", "Terminat", "Fail", "Error"}
	onHoldStatusPatterns  = []string{"OnHold", "On hold"}
)

const (
	wellStatusUnknown  = "Unknown"
	wellStatusComplete = "Complete"
)

type FlowStatusInfo struct {
	Label string     `json:"label"`
	Param FlowStatus `json:"param"`
}

func (f FlowStatus) Label() string {
	words := strings.Split(string(f), "_")
	for i, w := range words {
		if w == "qc" {
			words[i] = "QC"
			continue
		}
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (f FlowStatus) usesQcState() bool {
	return f == FlowOnHold || f == FlowInProgress || f == FlowQcComplete
}

// FlowStatuses lists every status in presentation order.
func FlowStatuses() []FlowStatusInfo {
	out := make([]FlowStatusInfo, 0, len(flowStatusOrder))
	for _, f := range flowStatusOrder {
		out = append(out, FlowStatusInfo{Label: f.Label(), Param: f})
	}
	return out
}

func ParseFlowStatus(s string) (FlowStatus, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range flowStatusOrder {
		if string(f) == s {
			return f, nil
		}
	}
	return "", apperrors.InvalidArgument("qc_flow_status", s, "unknown QC flow status")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isAbortedStatus(status string) bool { return hasAnyPrefix(status, abortedStatusPrefixes) }

func isOnHoldStatus(status string) bool {
	for _, p := range onHoldStatusPatterns {
		if strings.Contains(status, p) {
			return true
		}
	}
	return false
}

// hasUsableReads: polymerase reads present and either CCS ran (off or on
// instrument) and produced HiFi reads, or CCS was not requested.
func hasUsableReads(w *types.PacBioRunWellMetrics) bool {
	if w.PolymeraseNumReads == nil {
		return false
	}
	mode := ""
	if w.CcsExecutionMode != nil {
		mode = *w.CcsExecutionMode
	}
	switch mode {
	case "OffInstrument", "OnInstrument":
		return w.HifiNumReads != nil
	case "", "None":
		return true
	default:
		return false
	}
}

func within(t *time.Time, since time.Time) bool {
	return t != nil && t.After(since)
}

func inboxEligible(w *types.PacBioRunWellMetrics, since time.Time) bool {
	return w.Status() == wellStatusComplete && hasUsableReads(w) && within(w.WellComplete, since)
}

// Classify applies the flow status rules in priority order. state is the
// well's sequencing QC state, if any. ok is false for wells that match no
// rule, e.g. a finished well outside the lookback window that nobody
// reviewed.
func Classify(state *QcStateView, well *types.PacBioRunWellMetrics, now time.Time, lookback time.Duration) (FlowStatus, bool) {
	if state != nil {
		switch {
		case state.QcState == QcStateOnHold:
			return FlowOnHold, true
		case !state.IsPreliminary:
			return FlowQcComplete, true
		default:
			return FlowInProgress, true
		}
	}
	if well == nil {
		return "", false
	}
	status := well.Status()
	if isAbortedStatus(status) {
		return FlowAborted, true
	}
	if status == wellStatusUnknown {
		return FlowUnknown, true
	}
	since := now.Add(-lookback)
	if inboxEligible(well, since) {
		return FlowInbox, true
	}
	if within(well.RunStart, since) && !isOnHoldStatus(status) {
		return FlowUpcoming, true
	}
	return "", false
}
