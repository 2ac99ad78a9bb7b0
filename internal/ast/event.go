package ast

import (
	"fmt"
	"sort"
)

// Event is an observable occurrence on one or more channels.
//
// Sealed: *SimpleEvent and *EventDisjunction.
type Event interface {
	// Aliases lists the names this event binds, left to right.
	Aliases() []string
	// ExternalReferences lists aliases of other events that the
	// predicates read from, sorted.
	ExternalReferences() []string
	// SimpleEvents lists the leaves left to right.
	SimpleEvents() []*SimpleEvent
	ContainsReference(alias string) bool
	String() string
	eventNode()
}

// SimpleEvent is a message published on Channel that satisfies Predicate.
type SimpleEvent struct {
	Channel   string
	Predicate *Predicate
	Alias     string // empty when unaliased
}

// EventDisjunction is satisfied by either of two events.
type EventDisjunction struct {
	Left  Event
	Right Event
}

func (*SimpleEvent) eventNode()      {}
func (*EventDisjunction) eventNode() {}

// NewSimpleEvent builds an event. A nil predicate means VacuousTruth.
func NewSimpleEvent(channel string, predicate *Predicate, alias string) *SimpleEvent {
	if predicate == nil {
		predicate = VacuousTruth()
	}
	return &SimpleEvent{Channel: channel, Predicate: predicate, Alias: alias}
}

// WithPredicate returns a copy of e over p.
func (e *SimpleEvent) WithPredicate(p *Predicate) *SimpleEvent {
	if p == e.Predicate {
		return e
	}
	return &SimpleEvent{Channel: e.Channel, Predicate: p, Alias: e.Alias}
}

func (e *SimpleEvent) Aliases() []string {
	if e.Alias == "" {
		return nil
	}
	return []string{e.Alias}
}

func (e *SimpleEvent) ExternalReferences() []string {
	if e.Predicate.IsVacuous() {
		return nil
	}
	set := map[string]struct{}{}
	Walk(e.Predicate.Condition, func(n Expr) bool {
		if f, ok := n.(*FieldAccess); ok {
			if v, ok := f.Message.(*VarReference); ok && v.Name != e.Alias {
				set[v.Name] = struct{}{}
			}
		}
		return true
	})
	return sortedKeys(set)
}

func (e *SimpleEvent) SimpleEvents() []*SimpleEvent { return []*SimpleEvent{e} }

func (e *SimpleEvent) ContainsReference(alias string) bool {
	return e.Predicate.ContainsReference(alias)
}

func (e *SimpleEvent) String() string {
	if e.Alias == "" {
		return fmt.Sprintf("%s %s", e.Channel, e.Predicate)
	}
	return fmt.Sprintf("%s as %s %s", e.Channel, e.Alias, e.Predicate)
}

// NewEventDisjunction joins two events. Every channel may appear only
// once among the simple events of the result.
func NewEventDisjunction(left, right Event) (*EventDisjunction, error) {
	seen := map[string]struct{}{}
	for _, side := range []Event{left, right} {
		for _, ev := range side.SimpleEvents() {
			if _, dup := seen[ev.Channel]; dup {
				return nil, sanityErrorf(ErrDuplicateChannel,
					"channel '%s' appears multiple times in an event disjunction", ev.Channel)
			}
			seen[ev.Channel] = struct{}{}
		}
	}
	return &EventDisjunction{Left: left, Right: right}, nil
}

// JoinEvents folds events into a left-nested disjunction.
func JoinEvents(events ...Event) (Event, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("no events to join")
	}
	acc := events[0]
	for _, ev := range events[1:] {
		d, err := NewEventDisjunction(acc, ev)
		if err != nil {
			return nil, err
		}
		acc = d
	}
	return acc, nil
}

func (e *EventDisjunction) Aliases() []string {
	return append(append([]string{}, e.Left.Aliases()...), e.Right.Aliases()...)
}

func (e *EventDisjunction) ExternalReferences() []string {
	set := map[string]struct{}{}
	for _, r := range e.Left.ExternalReferences() {
		set[r] = struct{}{}
	}
	for _, r := range e.Right.ExternalReferences() {
		set[r] = struct{}{}
	}
	return sortedKeys(set)
}

func (e *EventDisjunction) SimpleEvents() []*SimpleEvent {
	return append(append([]*SimpleEvent{}, e.Left.SimpleEvents()...), e.Right.SimpleEvents()...)
}

func (e *EventDisjunction) ContainsReference(alias string) bool {
	return e.Left.ContainsReference(alias) || e.Right.ContainsReference(alias)
}

func (e *EventDisjunction) String() string {
	return fmt.Sprintf("(%s or %s)", e.Left, e.Right)
}

// EqualEvents compares events structurally. Disjunctions are unordered.
func EqualEvents(a, b Event) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	switch x := a.(type) {
	case *SimpleEvent:
		y, ok := b.(*SimpleEvent)
		return ok && x.Channel == y.Channel && x.Alias == y.Alias && x.Predicate.Equal(y.Predicate)
	case *EventDisjunction:
		y, ok := b.(*EventDisjunction)
		return ok && ((EqualEvents(x.Left, y.Left) && EqualEvents(x.Right, y.Right)) ||
			(EqualEvents(x.Left, y.Right) && EqualEvents(x.Right, y.Left)))
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
