package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allTypes = func() []DataType {
	ts := make([]DataType, 0, 128)
	for i := 0; i < 128; i++ {
		ts = append(ts, DataType(i))
	}
	return ts
}()

func TestCastSucceedsIffCanBe(t *testing.T) {
	for _, a := range allTypes {
		for _, b := range allTypes {
			r, err := a.Cast(b)
			if a.CanBe(b) {
				require.NoError(t, err, "%s cast %s", a, b)
				assert.True(t, a.Contains(r), "result must be within %s", a)
				assert.True(t, b.Contains(r), "result must be within %s", b)
				assert.NotEqual(t, None, r)
			} else {
				require.Error(t, err, "%s cast %s", a, b)
				var castErr *CastError
				assert.ErrorAs(t, err, &castErr)
			}
		}
	}
}

func TestNamedUnions(t *testing.T) {
	assert.Equal(t, Bool|Number|String, Primitive)
	assert.Equal(t, Primitive|Message, Item)
	assert.Equal(t, Array|Range|Set, Compound)
	assert.Equal(t, Item|Compound, Any)
	assert.Equal(t, Any, Union(Bool, Number, String, Array, Range, Set, Message))
	assert.Equal(t, None, Union())
}

func TestCastNarrows(t *testing.T) {
	r, err := Item.Cast(Number)
	require.NoError(t, err)
	assert.Equal(t, Number, r)

	r, err = (Item | Array).Cast(Compound)
	require.NoError(t, err)
	assert.Equal(t, Array, r)

	_, err = Number.Cast(Bool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot cast 'Number' to 'Bool'")
}

func TestDataTypeString(t *testing.T) {
	tests := []struct {
		t    DataType
		want string
	}{
		{Bool, "Bool"},
		{Primitive, "Primitive"},
		{Any, "Any"},
		{Item | Array, "Bool or Number or String or Array or Message"},
		{Number | Set, "Number or Set"},
		{None, "None"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.t.String())
		})
	}
}

func TestCanBeHelpers(t *testing.T) {
	assert.True(t, Primitive.CanBeBool())
	assert.True(t, Primitive.CanBeNumber())
	assert.False(t, Primitive.CanBeMessage())
	assert.True(t, Compound.CanBeRange())
	assert.True(t, Compound.CanBeSet())
	assert.True(t, Compound.CanBeArray())
	assert.False(t, Compound.CanBeString())
}
