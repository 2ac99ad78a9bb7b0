package ast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpl/internal/types"
)

func poseType() *types.MessageType {
	header := types.NewMessageType("Header")
	header.Fields["seq"] = types.UInt32

	pose := types.NewMessageType("Pose")
	pose.Fields["header"] = header
	pose.Fields["x"] = types.Float64
	pose.Fields["name"] = types.Strings
	pose.Fields["data"] = must(types.NewArrayType(types.Float64, 3))
	pose.Constants["LIMIT"] = types.Constant{Type: types.Int32, Value: int64(10)}
	return pose
}

func TestTypeCheckReferences(t *testing.T) {
	pose := poseType()
	gt := func(e Expr) Expr { return must(NewBinary(OpGt, e, Int(0))) }

	tests := []struct {
		name     string
		expr     Expr
		wantCode string
	}{
		{"scalar field", gt(SelfField("x")), ""},
		{"constant", gt(SelfField("LIMIT")), ""},
		{"nested field", gt(must(NewFieldAccess(SelfField("header"), "seq"))), ""},
		{"array element", gt(must(NewArrayAccess(SelfField("data"), Int(2)))), ""},
		{"string compared to number", gt(SelfField("name")), ErrTypeCast},
		{"missing field", gt(SelfField("missing")), ErrMissingField},
		{"index out of range", gt(must(NewArrayAccess(SelfField("data"), Int(3)))), ErrIndexOutOfRange},
		{"indexing a scalar", gt(must(NewArrayAccess(SelfField("x"), Int(0)))), ErrNotAnArray},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := TypeCheckReferences(tt.expr, pose, nil)
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.True(t, IsFullyTyped(r), "%s should be fully typed", r)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, typeCode(t, err))
		})
	}
}

func TestTypeCheckUnknownVariable(t *testing.T) {
	e := must(NewBinary(OpGt, must(NewFieldAccess(NewVarReference("m"), "x")), Int(0)))
	_, err := TypeCheckReferences(e, poseType(), nil)
	require.Error(t, err)
	assert.Equal(t, ErrUndefinedTypeToken, sanityCode(t, err))
}

func TestTypeCheckProperty(t *testing.T) {
	pose := poseType()
	cmd := types.NewMessageType("Command")
	cmd.Fields["x"] = types.Float64
	channels := map[string]*types.MessageType{"/pose": pose, "/cmd": cmd}

	trigger := NewSimpleEvent("/pose", nil, "P")
	behaviour := refEvent("/cmd", "", "P")
	pattern := must(NewPattern(Response, behaviour, trigger, 0, math.Inf(1)))
	p := must(NewProperty(Globally(), pattern, Metadata{}))
	require.False(t, p.IsFullyTyped())

	typed, err := TypeCheckProperty(p, channels)
	require.NoError(t, err)
	assert.True(t, typed.IsFullyTyped())
	assert.Equal(t, p.String(), typed.String(), "type checking does not change the text")

	_, err = TypeCheckProperty(p, map[string]*types.MessageType{"/pose": pose})
	require.Error(t, err)
	assert.Equal(t, ErrUnknownChannel, typeCode(t, err))
}
