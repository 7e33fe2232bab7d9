package plan

import (
	"time"

	"github.com/theirongolddev/finphase/internal/model"
)

// Mutation is a single edit to a plan.
type Mutation interface {
	Kind() string
	apply(Plan) (Plan, error)
}

type (
	AddLine        struct{ Line model.CostLine }
	UpdateLine     struct{ Line model.CostLine }
	RemoveLine     struct{ ID string }
	SetOverride    struct {
		ID       string
		Override bool
	}
	AddResource    struct{ Resource model.Resource }
	UpdateResource struct{ Resource model.Resource }
	RemoveResource struct{ ID string }
	LinkResource   struct{ ResourceID, LineID string }
	SetEntry       struct {
		LineID string
		Month  model.MonthKey
		Patch  model.EntryPatch
	}
	RunRollup        struct{}
	DistributeEvenly struct{ LineID string }
	SetFY            struct{ FY model.FYConfig }
)

func (AddLine) Kind() string          { return "add_line" }
func (UpdateLine) Kind() string       { return "update_line" }
func (RemoveLine) Kind() string       { return "remove_line" }
func (SetOverride) Kind() string      { return "set_override" }
func (AddResource) Kind() string      { return "add_resource" }
func (UpdateResource) Kind() string   { return "update_resource" }
func (RemoveResource) Kind() string   { return "remove_resource" }
func (LinkResource) Kind() string     { return "link_resource" }
func (SetEntry) Kind() string         { return "set_entry" }
func (RunRollup) Kind() string        { return "rollup" }
func (DistributeEvenly) Kind() string { return "distribute_evenly" }
func (SetFY) Kind() string            { return "set_fy" }

func (m AddLine) apply(p Plan) (Plan, error)        { return p.AddLine(m.Line) }
func (m UpdateLine) apply(p Plan) (Plan, error)     { return p.UpdateLine(m.Line) }
func (m RemoveLine) apply(p Plan) (Plan, error)     { return p.RemoveLine(m.ID) }
func (m SetOverride) apply(p Plan) (Plan, error)    { return p.SetOverride(m.ID, m.Override) }
func (m AddResource) apply(p Plan) (Plan, error)    { return p.AddResource(m.Resource) }
func (m UpdateResource) apply(p Plan) (Plan, error) { return p.UpdateResource(m.Resource) }
func (m RemoveResource) apply(p Plan) (Plan, error) { return p.RemoveResource(m.ID) }
func (m LinkResource) apply(p Plan) (Plan, error)   { return p.LinkResource(m.ResourceID, m.LineID) }
func (m SetEntry) apply(p Plan) (Plan, error)       { return p.SetEntry(m.LineID, m.Month, m.Patch) }
func (RunRollup) apply(p Plan) (Plan, error)        { return p.Rollup(), nil }
func (m DistributeEvenly) apply(p Plan) (Plan, error) {
	return p.DistributeEvenly(m.LineID)
}
func (m SetFY) apply(p Plan) (Plan, error) { return p.SetFY(m.FY), nil }

// Event records an applied mutation and the snapshot it produced.
type Event struct {
	PlanID   string
	Mutation string
	At       time.Time
	Plan     Plan
}

// Apply runs m against p and stamps the result as updated at now.
func Apply(p Plan, m Mutation, now time.Time) (Plan, Event, error) {
	next, err := m.apply(p)
	if err != nil {
		return p, Event{}, err
	}
	next.LastUpdatedAt = now
	return next, Event{PlanID: next.ID, Mutation: m.Kind(), At: now, Plan: next}, nil
}

// Listener receives events after each successful mutation.
type Listener func(Event) error

// Session holds the current snapshot of one plan and hands every change to
// a listener, typically a persistence adapter. It is not safe for
// concurrent use.
type Session struct {
	current   Plan
	listener  Listener
	clockFunc func() time.Time
}

// NewSession starts a session on p. A nil clock uses time.Now.
func NewSession(p Plan, listener Listener, clockFunc func() time.Time) *Session {
	if clockFunc == nil {
		clockFunc = time.Now
	}
	return &Session{current: p, listener: listener, clockFunc: clockFunc}
}

// Current returns the latest snapshot.
func (s *Session) Current() Plan {
	return s.current
}

// Do applies mutations in order. It stops at the first failure; snapshots
// from earlier mutations remain applied.
func (s *Session) Do(ms ...Mutation) error {
	for _, m := range ms {
		next, ev, err := Apply(s.current, m, s.clockFunc())
		if err != nil {
			return err
		}
		s.current = next
		if s.listener != nil {
			if err := s.listener(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
