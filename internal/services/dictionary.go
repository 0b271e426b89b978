package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/yungbote/langqc-backend/internal/data/repos"
	types "github.com/yungbote/langqc-backend/internal/domain"
	"github.com/yungbote/langqc-backend/internal/pkg/dbctx"
	apperrors "github.com/yungbote/langqc-backend/internal/pkg/errors"
)

const (
	QcTypeSequencing = "sequencing"
	QcTypeLibrary    = "library"

	QcStateClaimed = "Claimed"
	QcStateOnHold  = "On hold"
)

type Outcome string

const (
	OutcomePass         Outcome = "pass"
	OutcomeFail         Outcome = "fail"
	OutcomeUndetermined Outcome = "undetermined"
)

func outcomeOf(v *int8) Outcome {
	switch {
	case v == nil:
		return OutcomeUndetermined
	case *v == 1:
		return OutcomePass
	default:
		return OutcomeFail
	}
}

type QcTypeEntry struct {
	ID          uint   `json:"-"`
	Name        string `json:"qc_type"`
	Description string `json:"description"`
}

type QcStateEntry struct {
	ID              uint    `json:"-"`
	Name            string  `json:"-"`
	Outcome         Outcome `json:"outcome"`
	OnlyPreliminary bool    `json:"only_preliminary"`
}

// OrderedStates keeps dictionary definition order, including when encoded
// as a JSON object.
type OrderedStates []QcStateEntry

func (o OrderedStates) Names() []string {
	out := make([]string, 0, len(o))
	for _, e := range o {
		out = append(out, e.Name)
	}
	return out
}

func (o OrderedStates) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dictionary is an immutable snapshot of the QC vocabulary. It is loaded
// once and shared; all methods are safe for concurrent use.
type Dictionary struct {
	types      map[string]QcTypeEntry
	typesByID  map[uint]QcTypeEntry
	states     map[string]QcStateEntry
	statesByID map[uint]QcStateEntry
	order      OrderedStates
}

func NewDictionary(qcTypes []*types.QcType, states []*types.QcStateDict) *Dictionary {
	d := &Dictionary{
		types:      make(map[string]QcTypeEntry, len(qcTypes)),
		typesByID:  make(map[uint]QcTypeEntry, len(qcTypes)),
		states:     make(map[string]QcStateEntry, len(states)),
		statesByID: make(map[uint]QcStateEntry, len(states)),
		order:      make(OrderedStates, 0, len(states)),
	}
	for _, t := range qcTypes {
		if t == nil {
			continue
		}
		e := QcTypeEntry{ID: t.ID, Name: t.QcType, Description: t.Description}
		d.types[e.Name] = e
		d.typesByID[e.ID] = e
	}
	for _, s := range states {
		if s == nil {
			continue
		}
		e := QcStateEntry{ID: s.ID, Name: s.State, Outcome: outcomeOf(s.Outcome), OnlyPreliminary: s.OnlyPreliminary}
		d.states[e.Name] = e
		d.statesByID[e.ID] = e
		d.order = append(d.order, e)
	}
	return d
}

// LoadDictionary reads the reference tables. Callers pass rows ordered by
// id so the state order matches the definition order.
func LoadDictionary(dbc dbctx.Context, repo repos.DictionaryRepo) (*Dictionary, error) {
	qcTypes, err := repo.ListQcTypes(dbc)
	if err != nil {
		return nil, fmt.Errorf("load qc types: %w", err)
	}
	states, err := repo.ListQcStates(dbc)
	if err != nil {
		return nil, fmt.Errorf("load qc states: %w", err)
	}
	if len(qcTypes) == 0 || len(states) == 0 {
		return nil, fmt.Errorf("qc dictionary is empty, run migrate first")
	}
	return NewDictionary(qcTypes, states), nil
}

func (d *Dictionary) ResolveQcType(name string) (QcTypeEntry, error) {
	e, ok := d.types[name]
	if !ok {
		return QcTypeEntry{}, apperrors.InvalidDictValue("QC type", name)
	}
	return e, nil
}

func (d *Dictionary) ResolveQcState(name string) (QcStateEntry, error) {
	e, ok := d.states[name]
	if !ok {
		return QcStateEntry{}, apperrors.InvalidDictValue("QC state", name)
	}
	return e, nil
}

func (d *Dictionary) QcTypeByID(id uint) (QcTypeEntry, bool) {
	e, ok := d.typesByID[id]
	return e, ok
}

func (d *Dictionary) QcStateByID(id uint) (QcStateEntry, bool) {
	e, ok := d.statesByID[id]
	return e, ok
}

// QcTypes returns every QC type ordered by id.
func (d *Dictionary) QcTypes() []QcTypeEntry {
	out := make([]QcTypeEntry, 0, len(d.typesByID))
	for _, e := range d.typesByID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// QcStates returns every state in definition order.
func (d *Dictionary) QcStates() OrderedStates {
	out := make(OrderedStates, len(d.order))
	copy(out, d.order)
	return out
}

// ValidateAssignment resolves both names and checks the rules that tie
// them together. It has no side effects.
func (d *Dictionary) ValidateAssignment(qcType, qcState string, preliminary bool) (QcTypeEntry, QcStateEntry, error) {
	t, err := d.ResolveQcType(qcType)
	if err != nil {
		return QcTypeEntry{}, QcStateEntry{}, err
	}
	s, err := d.ResolveQcState(qcState)
	if err != nil {
		return QcTypeEntry{}, QcStateEntry{}, err
	}
	if !preliminary && s.OnlyPreliminary {
		return QcTypeEntry{}, QcStateEntry{}, apperrors.InconsistentInput("QC state '%s' cannot be final", s.Name)
	}
	if s.Name == QcStateClaimed && t.Name != QcTypeSequencing {
		return QcTypeEntry{}, QcStateEntry{}, apperrors.InconsistentInput("QC state '%s' is only valid for '%s' QC type", s.Name, QcTypeSequencing)
	}
	return t, s, nil
}
