package schema

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"cuelang.org/go/cue"

	"github.com/roach88/hpl/internal/types"
)

// Mode controls how errors are handled while compiling schemas.
type Mode int

const (
	// FailFast stops on the first error.
	FailFast Mode = iota
	// CollectAll keeps going and reports every error.
	CollectAll
)

// Schemas holds message types by name and the message type bound to each
// channel.
type Schemas struct {
	Messages  map[string]*types.MessageType
	Channels  map[string]*types.MessageType
	FileCount int
}

// Channel returns the message type bound to a channel.
func (s *Schemas) Channel(name string) (*types.MessageType, bool) {
	mt, ok := s.Channels[name]
	return mt, ok
}

// arrayPattern matches `[T]` and `[T, N]`.
var arrayPattern = regexp.MustCompile(`^\[\s*([A-Za-z_][A-Za-z0-9_/]*)\s*(?:,\s*(-?\d+)\s*)?\]$`)

type compiler struct {
	mode   Mode
	out    *Schemas
	errs   []error
	fields map[string]cue.Value // message name -> fields struct
}

// Compile reads the `message` and `channel` blocks of a CUE value.
//
//	message: Vector3: fields: {x: "float64", y: "float64", z: "float64"}
//	message: Twist: fields: {linear: "Vector3", angular: "Vector3"}
//	message: Status: constants: OK: {type: "uint8", value: 0}
//	channel: "/cmd_vel": "Twist"
func Compile(v cue.Value, mode Mode) (*Schemas, []error) {
	if err := v.Err(); err != nil {
		return nil, []error{fromCUE(ErrLoadFailed, err)}
	}
	c := &compiler{
		mode: mode,
		out: &Schemas{
			Messages: map[string]*types.MessageType{},
			Channels: map[string]*types.MessageType{},
		},
		fields: map[string]cue.Value{},
	}
	steps := []func(cue.Value) bool{c.declare, c.define, c.checkRecursion, c.bind}
	for _, step := range steps {
		if !step(v) {
			break
		}
	}
	return c.out, c.errs
}

// fail records err and reports whether compilation should continue.
func (c *compiler) fail(err error) bool {
	c.errs = append(c.errs, err)
	return c.mode == CollectAll
}

// declare creates an empty message type for every name so that fields
// can refer to messages declared later.
func (c *compiler) declare(v cue.Value) bool {
	messages := v.LookupPath(cue.ParsePath("message"))
	if !messages.Exists() {
		return true
	}
	iter, err := messages.Fields()
	if err != nil {
		return c.fail(fromCUE(ErrLoadFailed, err))
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		c.out.Messages[name] = types.NewMessageType(name)
		c.fields[name] = iter.Value()
	}
	return true
}

func (c *compiler) define(v cue.Value) bool {
	for _, name := range sortedNames(c.fields) {
		mt := c.out.Messages[name]
		def := c.fields[name]

		if fields := def.LookupPath(cue.ParsePath("fields")); fields.Exists() {
			iter, err := fields.Fields()
			if err != nil && !c.fail(fromCUE(ErrLoadFailed, err)) {
				return false
			}
			for err == nil && iter.Next() {
				tok, ferr := c.fieldType(iter.Value())
				if ferr != nil {
					if !c.fail(ferr) {
						return false
					}
					continue
				}
				mt.Fields[iter.Selector().Unquoted()] = tok
			}
		}

		if consts := def.LookupPath(cue.ParsePath("constants")); consts.Exists() {
			iter, err := consts.Fields()
			if err != nil && !c.fail(fromCUE(ErrLoadFailed, err)) {
				return false
			}
			for err == nil && iter.Next() {
				k, cerr := c.constant(iter.Value())
				if cerr != nil {
					if !c.fail(cerr) {
						return false
					}
					continue
				}
				mt.Constants[iter.Selector().Unquoted()] = k
			}
		}
	}
	return true
}

func (c *compiler) fieldType(v cue.Value) (types.TypeToken, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUE(ErrLoadFailed, err)
	}
	s, err := v.String()
	if err != nil {
		return nil, errorf(ErrUnknownType, v.Pos(), "field type must be a string: %v", err)
	}
	return c.resolve(s, v)
}

func (c *compiler) resolve(name string, at cue.Value) (types.TypeToken, error) {
	if m := arrayPattern.FindStringSubmatch(name); m != nil {
		sub, err := c.resolve(m[1], at)
		if err != nil {
			return nil, err
		}
		length := -1
		if m[2] != "" {
			if length, err = strconv.Atoi(m[2]); err != nil {
				return nil, errorf(ErrInvalidArray, at.Pos(), "invalid array length in %q", name)
			}
		}
		arr, err := types.NewArrayType(sub, length)
		if err != nil {
			return nil, errorf(ErrInvalidArray, at.Pos(), "%s: %v", name, err)
		}
		return arr, nil
	}
	if len(name) > 0 && name[0] == '[' {
		return nil, errorf(ErrInvalidArray, at.Pos(), "malformed array type %q", name)
	}
	if tok, ok := types.Builtin(name); ok {
		return tok, nil
	}
	if mt, ok := c.out.Messages[name]; ok {
		return mt, nil
	}
	return nil, errorf(ErrUnknownType, at.Pos(), "unknown type %q", name)
}

func (c *compiler) constant(v cue.Value) (types.Constant, error) {
	typeName, err := v.LookupPath(cue.ParsePath("type")).String()
	if err != nil {
		return types.Constant{}, errorf(ErrInvalidConstant, v.Pos(), "constant needs a type name")
	}
	tok, err := c.resolve(typeName, v)
	if err != nil {
		return types.Constant{}, err
	}
	raw := v.LookupPath(cue.ParsePath("value"))
	if !raw.Exists() {
		return types.Constant{}, errorf(ErrInvalidConstant, v.Pos(), "constant needs a value")
	}

	var value any
	switch tok.Category() {
	case types.Bool:
		value, err = raw.Bool()
	case types.String:
		value, err = raw.String()
	case types.Number:
		if raw.Kind() == cue.IntKind {
			var n int64
			n, err = raw.Int64()
			value = n
		} else {
			var f float64
			f, err = raw.Float64()
			value = f
		}
	default:
		return types.Constant{}, errorf(ErrInvalidConstant, raw.Pos(), "constants must be primitive, not %s", typeName)
	}
	if err != nil {
		return types.Constant{}, errorf(ErrInvalidConstant, raw.Pos(), "value does not match %s: %v", typeName, err)
	}
	if rt, ok := tok.(*types.RangedType); ok && !rt.Contains(toFloat(value)) {
		return types.Constant{}, errorf(ErrInvalidConstant, raw.Pos(), "value %v is out of range for %s", value, typeName)
	}
	return types.Constant{Type: tok, Value: value}, nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// checkRecursion rejects messages that contain themselves, directly or
// through arrays and other messages.
func (c *compiler) checkRecursion(cue.Value) bool {
	const (
		visiting = 1
		done     = 2
	)
	state := map[*types.MessageType]int{}
	var visit func(mt *types.MessageType) bool
	visit = func(mt *types.MessageType) bool {
		switch state[mt] {
		case visiting:
			return false
		case done:
			return true
		}
		state[mt] = visiting
		for _, name := range mt.FieldNames() {
			if sub := messageOf(mt.Fields[name]); sub != nil && !visit(sub) {
				return false
			}
		}
		state[mt] = done
		return true
	}
	for _, name := range sortedNames(c.fields) {
		if !visit(c.out.Messages[name]) {
			err := errorf(ErrRecursive, c.fields[name].Pos(), "message %s contains itself", name)
			// Later steps walk message fields and cannot run on a cycle.
			c.fail(err)
			return false
		}
	}
	return true
}

func messageOf(tok types.TypeToken) *types.MessageType {
	for {
		switch t := tok.(type) {
		case *types.MessageType:
			return t
		case *types.ArrayType:
			tok = t.Subtype
		default:
			return nil
		}
	}
}

func (c *compiler) bind(v cue.Value) bool {
	channels := v.LookupPath(cue.ParsePath("channel"))
	if !channels.Exists() {
		return true
	}
	iter, err := channels.Fields()
	if err != nil {
		return c.fail(fromCUE(ErrLoadFailed, err))
	}
	for iter.Next() {
		topic := iter.Selector().Unquoted()
		name, err := iter.Value().String()
		if err != nil {
			if !c.fail(errorf(ErrUnknownType, iter.Value().Pos(), "channel %s: message name must be a string", topic)) {
				return false
			}
			continue
		}
		mt, ok := c.out.Messages[name]
		if !ok {
			if !c.fail(errorf(ErrUnknownType, iter.Value().Pos(), "channel %s: unknown message %q", topic, name)) {
				return false
			}
			continue
		}
		c.out.Channels[topic] = mt
	}
	return true
}

func sortedNames(m map[string]cue.Value) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (s *Schemas) String() string {
	return fmt.Sprintf("%d messages, %d channels", len(s.Messages), len(s.Channels))
}
