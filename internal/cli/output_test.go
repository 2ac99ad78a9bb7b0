package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpl/internal/parser"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]string{"result": "success"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E201", "duplicate alias", map[string]int{"line": 3}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E201", resp.Error.Code)
	assert.Equal(t, "duplicate alias", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("E005", "file not found", "rules.hpl"))
			assert.Contains(t, buf.String(), "Error [E005]: file not found")
			assert.Equal(t, tt.wantDetails, bytes.Contains(buf.Bytes(), []byte("Details: rules.hpl")))
		})
	}
}

func TestOutputFormatter_Invalid(t *testing.T) {
	_, perr := parser.ParseProperty("globally some /a")
	require.Error(t, perr)

	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}
	err := formatter.Invalid(fmt.Errorf("rules.hpl: %w", perr))

	assert.Equal(t, ExitFailure, GetExitCode(err))
	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, parser.ErrSyntax, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "rules.hpl: [E101] line 1, column 10")
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("Processing %s", "rules.hpl")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Processing rules.hpl")

	formatter.Verbose = false
	errOut.Reset()
	formatter.VerboseLog("hidden")
	assert.Empty(t, errOut.String())
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, ErrCodeGeneric, ErrorCode(errors.New("boom")))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("boom")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "missing"))))

	err := WrapExitError(ExitCommandError, "open", errors.New("denied"))
	assert.Equal(t, "open: denied", err.Error())
	assert.ErrorIs(t, err, err.Err)
}
