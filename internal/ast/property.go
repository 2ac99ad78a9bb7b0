package ast

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// ScopeKind selects the time window a pattern is checked in.
type ScopeKind int

const (
	Global ScopeKind = iota
	After
	Until
	AfterUntil
)

var scopeKindNames = [...]string{"globally", "after", "until", "after-until"}

func (k ScopeKind) String() string {
	if int(k) < len(scopeKindNames) {
		return scopeKindNames[k]
	}
	return fmt.Sprintf("ScopeKind(%d)", int(k))
}

// Scope is the observation window of a property.
type Scope struct {
	Kind       ScopeKind
	Activator  Event // set for After and AfterUntil
	Terminator Event // set for Until and AfterUntil
}

// NewScope checks that the activator and terminator match the kind.
func NewScope(kind ScopeKind, activator, terminator Event) (*Scope, error) {
	s := &Scope{Kind: kind, Activator: activator, Terminator: terminator}
	if err := s.checkShape(); err != nil {
		return nil, err
	}
	return s, nil
}

// Globally is the unbounded scope.
func Globally() *Scope { return &Scope{Kind: Global} }

func (s *Scope) checkShape() error {
	wantActivator := s.Kind == After || s.Kind == AfterUntil
	wantTerminator := s.Kind == Until || s.Kind == AfterUntil
	if wantActivator != (s.Activator != nil) {
		return sanityErrorf(ErrInvalidShape, "scope '%s' activator: expected %s", s.Kind, presence(wantActivator))
	}
	if wantTerminator != (s.Terminator != nil) {
		return sanityErrorf(ErrInvalidShape, "scope '%s' terminator: expected %s", s.Kind, presence(wantTerminator))
	}
	return nil
}

func presence(want bool) string {
	if want {
		return "an event"
	}
	return "none"
}

func (s *Scope) HasActivator() bool  { return s.Activator != nil }
func (s *Scope) HasTerminator() bool { return s.Terminator != nil }

// WithActivator returns a copy of s with another activator.
func (s *Scope) WithActivator(e Event) *Scope {
	c := *s
	c.Activator = e
	return &c
}

// WithTerminator returns a copy of s with another terminator.
func (s *Scope) WithTerminator(e Event) *Scope {
	c := *s
	c.Terminator = e
	return &c
}

func (s *Scope) String() string {
	switch s.Kind {
	case After:
		return fmt.Sprintf("after %s", s.Activator)
	case Until:
		return fmt.Sprintf("until %s", s.Terminator)
	case AfterUntil:
		return fmt.Sprintf("after %s until %s", s.Activator, s.Terminator)
	}
	return "globally"
}

// Equal compares scopes structurally.
func (s *Scope) Equal(o *Scope) bool {
	return s.Kind == o.Kind && equalOptional(s.Activator, o.Activator) &&
		equalOptional(s.Terminator, o.Terminator)
}

func equalOptional(a, b Event) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return EqualEvents(a, b)
}

// PatternKind is the observable shape of a property.
type PatternKind int

const (
	Existence PatternKind = iota
	Absence
	Response
	Requirement
	Prevention
)

var patternKindNames = [...]string{"existence", "absence", "response", "requirement", "prevention"}

func (k PatternKind) String() string {
	if int(k) < len(patternKindNames) {
		return patternKindNames[k]
	}
	return fmt.Sprintf("PatternKind(%d)", int(k))
}

// Pattern relates a behaviour event to an optional trigger in time.
type Pattern struct {
	Kind      PatternKind
	Behaviour Event
	Trigger   Event // set for Response, Requirement and Prevention
	MinTime   float64
	MaxTime   float64
}

// NewPattern checks the trigger against the kind and the time bounds.
// Use 0 and math.Inf(1) for an unbounded window.
func NewPattern(kind PatternKind, behaviour, trigger Event, minTime, maxTime float64) (*Pattern, error) {
	p := &Pattern{Kind: kind, Behaviour: behaviour, Trigger: trigger, MinTime: minTime, MaxTime: maxTime}
	if behaviour == nil {
		return nil, sanityErrorf(ErrInvalidShape, "pattern '%s' behaviour: expected an event", kind)
	}
	wantTrigger := kind == Response || kind == Requirement || kind == Prevention
	if wantTrigger != (trigger != nil) {
		return nil, sanityErrorf(ErrInvalidShape, "pattern '%s' trigger: expected %s", kind, presence(wantTrigger))
	}
	if math.IsNaN(minTime) || math.IsNaN(maxTime) {
		return nil, sanityErrorf(ErrInvalidTimeBounds, "time bounds must be numbers: [%v, %v]", minTime, maxTime)
	}
	if minTime < 0 || math.IsInf(minTime, 1) {
		return nil, sanityErrorf(ErrInvalidTimeBounds, "minimum time must be finite and non-negative, got %v", minTime)
	}
	if maxTime < minTime {
		return nil, sanityErrorf(ErrInvalidTimeBounds, "maximum time %v is less than minimum time %v", maxTime, minTime)
	}
	return p, nil
}

// IsSafety covers Absence, Requirement and Prevention.
func (p *Pattern) IsSafety() bool {
	return p.Kind == Absence || p.Kind == Requirement || p.Kind == Prevention
}

// IsLiveness covers Existence and Response.
func (p *Pattern) IsLiveness() bool {
	return p.Kind == Existence || p.Kind == Response
}

func (p *Pattern) HasMinTime() bool { return p.MinTime > 0 && !math.IsInf(p.MinTime, 1) }
func (p *Pattern) HasMaxTime() bool { return p.MaxTime >= 0 && !math.IsInf(p.MaxTime, 1) }

// WithBehaviour returns a copy of p with another behaviour.
func (p *Pattern) WithBehaviour(e Event) *Pattern {
	c := *p
	c.Behaviour = e
	return &c
}

// WithTrigger returns a copy of p with another trigger.
func (p *Pattern) WithTrigger(e Event) *Pattern {
	c := *p
	c.Trigger = e
	return &c
}

func (p *Pattern) String() string {
	t := ""
	if p.HasMaxTime() {
		t = fmt.Sprintf(" within %ss", FormatFloat(p.MaxTime))
	}
	switch p.Kind {
	case Absence:
		return fmt.Sprintf("no %s%s", p.Behaviour, t)
	case Response:
		return fmt.Sprintf("%s causes %s%s", p.Trigger, p.Behaviour, t)
	case Requirement:
		return fmt.Sprintf("%s requires %s%s", p.Behaviour, p.Trigger, t)
	case Prevention:
		return fmt.Sprintf("%s forbids %s%s", p.Trigger, p.Behaviour, t)
	}
	return fmt.Sprintf("some %s%s", p.Behaviour, t)
}

// Equal compares patterns structurally.
func (p *Pattern) Equal(o *Pattern) bool {
	return p.Kind == o.Kind && p.MinTime == o.MinTime && p.MaxTime == o.MaxTime &&
		EqualEvents(p.Behaviour, o.Behaviour) && equalOptional(p.Trigger, o.Trigger)
}

// Metadata is free-form documentation attached to a property.
type Metadata struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Property is a pattern checked within a scope.
type Property struct {
	Scope    *Scope
	Pattern  *Pattern
	Metadata Metadata
}

// NewProperty builds a property and runs SanityCheck on it.
func NewProperty(scope *Scope, pattern *Pattern, meta Metadata) (*Property, error) {
	p := &Property{Scope: scope, Pattern: pattern, Metadata: meta}
	if err := p.SanityCheck(); err != nil {
		return nil, err
	}
	return p, nil
}

// WithParts returns p over a new scope and pattern, keeping the metadata.
// The original is returned when both parts are unchanged.
func (p *Property) WithParts(scope *Scope, pattern *Pattern) (*Property, error) {
	if scope == p.Scope && pattern == p.Pattern {
		return p, nil
	}
	return NewProperty(scope, pattern, p.Metadata)
}

func (p *Property) IsSafety() bool   { return p.Pattern.IsSafety() }
func (p *Property) IsLiveness() bool { return p.Pattern.IsLiveness() }

// Events lists activator, behaviour, trigger and terminator, skipping
// the absent ones.
func (p *Property) Events() []Event {
	var out []Event
	if p.Scope.Activator != nil {
		out = append(out, p.Scope.Activator)
	}
	out = append(out, p.Pattern.Behaviour)
	if p.Pattern.Trigger != nil {
		out = append(out, p.Pattern.Trigger)
	}
	if p.Scope.Terminator != nil {
		out = append(out, p.Scope.Terminator)
	}
	return out
}

// IsFullyTyped reports whether every predicate is concretely typed.
func (p *Property) IsFullyTyped() bool {
	for _, ev := range p.Events() {
		for _, se := range ev.SimpleEvents() {
			if !se.Predicate.IsFullyTyped() {
				return false
			}
		}
	}
	return true
}

// SanityCheck verifies the shape of scope and pattern and that every
// alias is defined once, before it is referenced.
func (p *Property) SanityCheck() error {
	if p.Scope == nil || p.Pattern == nil {
		return sanityErrorf(ErrInvalidShape, "property requires a scope and a pattern")
	}
	if err := p.Scope.checkShape(); err != nil {
		return err
	}

	var initial []string
	if act := p.Scope.Activator; act != nil {
		if refs := act.ExternalReferences(); len(refs) > 0 {
			return sanityErrorf(ErrUndefinedAlias, "references to undefined events: %s", strings.Join(refs, ", "))
		}
		initial = act.Aliases()
	}

	var err error
	switch p.Pattern.Kind {
	case Absence, Existence:
		_, err = checkAliases(p.Pattern.Behaviour, initial)
	case Requirement:
		var available []string
		if available, err = checkAliases(p.Pattern.Behaviour, initial); err == nil {
			_, err = checkAliases(p.Pattern.Trigger, available)
		}
	case Response, Prevention:
		var available []string
		if available, err = checkAliases(p.Pattern.Trigger, initial); err == nil {
			_, err = checkAliases(p.Pattern.Behaviour, available)
		}
	default:
		err = sanityErrorf(ErrInvalidShape, "unexpected pattern kind %s", p.Pattern.Kind)
	}
	if err != nil {
		return err
	}

	if term := p.Scope.Terminator; term != nil {
		if _, err := checkAliases(term, initial); err != nil {
			return err
		}
	}
	return nil
}

// checkAliases requires every external reference of e to be available
// and every alias of e to be new. It returns the extended set.
func checkAliases(e Event, available []string) ([]string, error) {
	for _, ref := range e.ExternalReferences() {
		if !slices.Contains(available, ref) {
			return nil, sanityErrorf(ErrUndefinedAlias, "reference to undefined event: '%s'", ref)
		}
	}
	aliases := e.Aliases()
	for _, alias := range aliases {
		if slices.Contains(available, alias) {
			return nil, sanityErrorf(ErrDuplicateAlias, "duplicate alias: '%s'", alias)
		}
	}
	return append(append([]string{}, aliases...), available...), nil
}

func (p *Property) String() string {
	return fmt.Sprintf("%s: %s", p.Scope, p.Pattern)
}

// Equal compares scope and pattern structurally. Metadata is ignored.
func (p *Property) Equal(o *Property) bool {
	if p == o {
		return true
	}
	if p == nil || o == nil {
		return false
	}
	return p.Scope.Equal(o.Scope) && p.Pattern.Equal(o.Pattern)
}

// Specification is an ordered list of properties.
type Specification struct {
	Properties []*Property
}

// NewSpecification copies props into a new specification.
func NewSpecification(props []*Property) *Specification {
	return &Specification{Properties: slices.Clone(props)}
}

// SanityCheck checks every property.
func (s *Specification) SanityCheck() error {
	for i, p := range s.Properties {
		if err := p.SanityCheck(); err != nil {
			return fmt.Errorf("property %d: %w", i+1, err)
		}
	}
	return nil
}

func (s *Specification) String() string {
	lines := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		lines[i] = p.String()
	}
	return strings.Join(lines, "\n")
}
