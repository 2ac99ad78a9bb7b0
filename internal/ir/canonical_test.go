package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    IRValue
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"int", IRInt(-100), "-100"},
		{"min int64", IRInt(-9223372036854775808), "-9223372036854775808"},
		{"bool", IRBool(false), "false"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"sorted keys", IRObject{"zebra": IRInt(1), "alpha": IRInt(2)}, `{"alpha":2,"zebra":1}`},
		{"nested", IRObject{"z": IRObject{"b": IRInt(1), "a": IRInt(2)}, "a": IRArray{IRBool(true)}}, `{"a":[true],"z":{"a":2,"b":1}}`},
		{"no html escape", IRString("x < 1 && y > 2"), `"x < 1 && y > 2"`},
		{"control characters", IRString("a\tb\n"), `"a\tb\n"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalRejectsNil(t *testing.T) {
	_, err := MarshalCanonical(IRArray{nil})
	require.Error(t, err)
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// UTF-16 puts the surrogate pair of U+10000 (0xD800) before U+E000.
	obj := IRObject{
		"\uE000":     IRInt(1),
		"\U00010000": IRInt(2),
	}
	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	composed := "caf\u00E9"
	decomposed := "cafe\u0301"

	r1, err := MarshalCanonical(IRObject{composed: IRString(decomposed)})
	require.NoError(t, err)
	r2, err := MarshalCanonical(IRObject{decomposed: IRString(composed)})
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"separators kept", "a\u2028b\u2029c", "\"a\u2028b\u2029c\""},
		{"literal escape text", `is \u2028`, `"is \\u2028"`},
		{"mixed", "literal \\u2028 and actual \u2028", "\"literal \\\\u2028 and actual \u2028\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(IRString(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func FuzzMarshalCanonicalIdempotent(f *testing.F) {
	f.Add(`{"a":1,"b":"test"}`)
	f.Add(`[1,2,3]`)
	f.Add(`{"nested":{"deep":{"value":"\u2028"}}}`)

	f.Fuzz(func(t *testing.T, jsonStr string) {
		val, err := UnmarshalIRValue([]byte(jsonStr))
		if err != nil {
			t.Skip()
		}
		c1, err := MarshalCanonical(val)
		if err != nil {
			t.Skip()
		}
		val2, err := UnmarshalIRValue(c1)
		require.NoError(t, err)
		c2, err := MarshalCanonical(val2)
		require.NoError(t, err)
		assert.Equal(t, c1, c2)
	})
}
