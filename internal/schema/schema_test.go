package schema

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpl/internal/types"
)

func compileString(t *testing.T, src string, mode Mode) (*Schemas, []error) {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	return Compile(v, mode)
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var le *LoadError
	require.ErrorAs(t, err, &le)
	return le.Code
}

func TestLoadRobotSchemas(t *testing.T) {
	s, errs := Load("testdata/robot", FailFast)
	require.Empty(t, errs)
	assert.Equal(t, 2, s.FileCount)
	assert.Len(t, s.Messages, 4)

	twist, ok := s.Channel("/cmd_vel")
	require.True(t, ok)
	assert.Equal(t, "Twist", twist.Name)
	assert.Same(t, s.Messages["Vector3"], twist.Fields["linear"])

	scan := s.Messages["LaserScan"]
	ranges, ok := scan.Fields["ranges"].(*types.ArrayType)
	require.True(t, ok)
	assert.False(t, ranges.IsFixedLength())
	assert.Same(t, types.Float32, ranges.Subtype)

	intensity := scan.Fields["intensity"].(*types.ArrayType)
	assert.Equal(t, 360, intensity.Length)

	ok2 := scan.Constants["OK"]
	assert.Equal(t, int64(0), ok2.Value)
	assert.Same(t, types.UInt8, ok2.Type)

	leaves := twist.LeafFields()
	assert.Contains(t, leaves, "angular.z")
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"unknown field type", `message: A: fields: x: "quaternion"`, ErrUnknownType},
		{"malformed array", `message: A: fields: x: "[int8"`, ErrInvalidArray},
		{"negative length", `message: A: fields: x: "[int8, -4]"`, ErrInvalidArray},
		{"constant out of range", `message: A: constants: K: {type: "uint8", value: 300}`, ErrInvalidConstant},
		{"constant type mismatch", `message: A: constants: K: {type: "bool", value: "yes"}`, ErrInvalidConstant},
		{"recursive message", `message: A: fields: next: "[A]"`, ErrRecursive},
		{"unknown channel message", `channel: "/x": "Missing"`, ErrUnknownType},
		{"invalid cue", `message: A: fields: x: "int8" & "int16"`, ErrLoadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errs := compileString(t, tt.src, FailFast)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.code, codeOf(t, errs[0]))
		})
	}
}

func TestCompileCollectAll(t *testing.T) {
	src := `
message: A: fields: {x: "nope", y: "int8", z: "[int8"}
channel: "/a": "A"
channel: "/b": "B"
`
	s, errs := compileString(t, src, CollectAll)
	require.Len(t, errs, 3)
	assert.Equal(t, ErrUnknownType, codeOf(t, errs[0]))
	assert.Contains(t, s.Messages["A"].Fields, "y")
	_, bound := s.Channel("/a")
	assert.True(t, bound)

	_, errs = compileString(t, src, FailFast)
	assert.Len(t, errs, 1)
}

func TestLoadErrors(t *testing.T) {
	_, errs := Load(filepath.Join(t.TempDir(), "missing"), FailFast)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNotFound, codeOf(t, errs[0]))

	empty := t.TempDir()
	_, errs = Load(empty, FailFast)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrNotFound, codeOf(t, errs[0]))

	broken := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(broken, "bad.cue"), []byte("message: {"), 0644))
	_, errs = Load(broken, FailFast)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrLoadFailed, codeOf(t, errs[0]))
}

func TestLoadErrorFormat(t *testing.T) {
	_, errs := compileString(t, `message: A: fields: x: "nope"`, FailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "E403")
	assert.Contains(t, errs[0].Error(), `unknown type "nope"`)
}
