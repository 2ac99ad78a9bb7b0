package harness

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/roach88/hpl/internal/ast"
	"github.com/roach88/hpl/internal/parser"
	"github.com/roach88/hpl/internal/rewrite"
	"github.com/roach88/hpl/internal/schema"
)

// codeUnsatisfiable is reported for conjunctions that contain False.
const codeUnsatisfiable = "unsatisfiable"

// Harness executes scenarios. It holds no state between scenarios
// except the schema directories it has already loaded.
type Harness struct {
	log     logrus.FieldLogger
	schemas map[string]*schema.Schemas
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger used for step tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(h *Harness) { h.log = l }
}

// New creates a Harness. Without WithLogger it logs nowhere.
func New(opts ...Option) *Harness {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	h := &Harness{log: quiet, schemas: map[string]*schema.Schemas{}}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// subject is the parsed input. Exactly one field is set.
type subject struct {
	spec *ast.Specification
	prop *ast.Property
	pred *ast.Predicate
}

// properties lists the properties of a property or specification input.
func (s subject) properties() []*ast.Property {
	if s.prop != nil {
		return []*ast.Property{s.prop}
	}
	if s.spec != nil {
		return s.spec.Properties
	}
	return nil
}

// Run parses the scenario input and applies each operation in order.
// Mismatches are reported in the Result. The error return is reserved
// for failures outside the scenario's control, such as unreadable
// schemas.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	log := h.log.WithField("scenario", scenario.Name)
	result := NewResult()

	subj, err := parse(scenario.Kind, scenario.Input)
	if scenario.ParseError != "" {
		switch {
		case err == nil:
			result.AddError(fmt.Sprintf("expected parse error %s, input parsed", scenario.ParseError))
		case ast.CodeOf(err) != scenario.ParseError:
			result.AddError(fmt.Sprintf("expected parse error %s, got %v", scenario.ParseError, err))
		}
		return result, nil
	}
	if err != nil {
		result.AddError(fmt.Sprintf("parse: %v", err))
		return result, nil
	}

	for i, op := range scenario.Operations {
		output, err := h.apply(scenario, subj, op)
		step := Step{Op: op.Op, Alias: op.Alias, Output: output}
		if err != nil {
			var infra *infraError
			if errors.As(err, &infra) {
				return nil, infra.err
			}
			step.Error = errorCode(err)
			step.Output = nil
		}
		if step.Output == nil {
			step.Output = []string{}
		}
		result.Steps = append(result.Steps, step)
		log.WithFields(logrus.Fields{"op": op.Op, "outputs": len(step.Output), "error": step.Error}).Debug("step")

		if mismatch := check(i, op, step, err); mismatch != nil {
			result.AddError(mismatch.Error())
		}
	}
	return result, nil
}

func parse(kind, input string) (subject, error) {
	switch kind {
	case KindProperty:
		p, err := parser.ParseProperty(input)
		return subject{prop: p}, err
	case KindSpecification:
		s, err := parser.ParseSpecification(input)
		return subject{spec: s}, err
	case KindPredicate:
		p, err := parser.ParsePredicate(input)
		return subject{pred: p}, err
	}
	return subject{}, fmt.Errorf("unknown kind %q", kind)
}

func check(index int, op Operation, step Step, err error) *MismatchError {
	switch {
	case op.Error != "":
		if step.Error != op.Error {
			actual := "success " + quoteAll(step.Output)
			if err != nil {
				actual = err.Error()
			}
			return &MismatchError{Index: index, Op: op.Op, Expected: "error " + op.Error, Actual: actual}
		}
	case err != nil:
		return &MismatchError{Index: index, Op: op.Op, Expected: "success", Actual: err.Error()}
	case len(op.Expect) > 0 && !slices.Equal(op.Expect, step.Output):
		return &MismatchError{Index: index, Op: op.Op, Expected: quoteAll(op.Expect), Actual: quoteAll(step.Output)}
	}
	return nil
}

// errorCode maps an operation failure to the code scenarios match on.
func errorCode(err error) string {
	if errors.Is(err, rewrite.ErrUnsatisfiable) {
		return codeUnsatisfiable
	}
	if code := ast.CodeOf(err); code != "" {
		return code
	}
	return err.Error()
}

// infraError marks failures that abort the whole run.
type infraError struct{ err error }

func (e *infraError) Error() string { return e.err.Error() }

func (h *Harness) apply(scenario *Scenario, subj subject, op Operation) ([]string, error) {
	switch op.Op {
	case OpCanonical:
		return canonical(subj)
	case OpSimplify:
		return simplify(subj)
	case OpSplit:
		return split(subj)
	case OpRefactor:
		a, b, err := rewrite.RefactorPredicate(subj.pred, op.Alias)
		if err != nil {
			return nil, err
		}
		return []string{a.String(), b.String()}, nil
	case OpSanity:
		return nil, sanity(subj)
	case OpTypeCheck:
		sch, err := h.loadSchemas(scenario.Schemas)
		if err != nil {
			return nil, &infraError{err: err}
		}
		return typeCheck(subj, sch)
	}
	return nil, fmt.Errorf("unknown op %q", op.Op)
}

func (h *Harness) loadSchemas(dir string) (*schema.Schemas, error) {
	if sch, ok := h.schemas[dir]; ok {
		return sch, nil
	}
	sch, errs := schema.Load(dir, schema.FailFast)
	if len(errs) > 0 {
		return nil, fmt.Errorf("loading schemas from %s: %w", dir, errs[0])
	}
	h.log.WithFields(logrus.Fields{"dir": dir, "channels": len(sch.Channels)}).Debug("schemas loaded")
	h.schemas[dir] = sch
	return sch, nil
}

func canonical(subj subject) ([]string, error) {
	if subj.spec != nil {
		s, err := rewrite.CanonicalSpecification(subj.spec)
		if err != nil {
			return nil, err
		}
		return propertyStrings(s.Properties), nil
	}
	ps, err := rewrite.CanonicalForm(subj.prop)
	if err != nil {
		return nil, err
	}
	return propertyStrings(ps), nil
}

func simplify(subj subject) ([]string, error) {
	switch {
	case subj.pred != nil:
		return []string{rewrite.SimplifyPredicate(subj.pred).String()}, nil
	case subj.prop != nil:
		p, err := rewrite.SimplifyProperty(subj.prop)
		if err != nil {
			return nil, err
		}
		return []string{p.String()}, nil
	}
	s, err := rewrite.SimplifySpecification(subj.spec)
	if err != nil {
		return nil, err
	}
	return propertyStrings(s.Properties), nil
}

// split lists the conjuncts of a predicate input. For properties each
// conjunct is prefixed with the channel of its event.
func split(subj subject) ([]string, error) {
	if subj.pred != nil {
		conj, err := rewrite.SplitPredicate(subj.pred)
		if err != nil {
			return nil, err
		}
		return exprStrings(conj, ""), nil
	}
	var out []string
	for _, p := range subj.properties() {
		for _, ev := range p.Events() {
			for _, se := range ev.SimpleEvents() {
				conj, err := rewrite.SplitPredicate(se.Predicate)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", se.Channel, err)
				}
				out = append(out, exprStrings(conj, se.Channel+": ")...)
			}
		}
	}
	return out, nil
}

func sanity(subj subject) error {
	switch {
	case subj.pred != nil:
		return subj.pred.CheckSomeSelfReferences()
	case subj.prop != nil:
		return subj.prop.SanityCheck()
	}
	return subj.spec.SanityCheck()
}

func typeCheck(subj subject, sch *schema.Schemas) ([]string, error) {
	if subj.spec != nil {
		s, err := ast.TypeCheckSpecification(subj.spec, sch.Channels)
		if err != nil {
			return nil, err
		}
		return propertyStrings(s.Properties), nil
	}
	p, err := ast.TypeCheckProperty(subj.prop, sch.Channels)
	if err != nil {
		return nil, err
	}
	return []string{p.String()}, nil
}

func propertyStrings(ps []*ast.Property) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.String()
	}
	return out
}

func exprStrings(es []ast.Expr, prefix string) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = prefix + e.String()
	}
	return out
}
