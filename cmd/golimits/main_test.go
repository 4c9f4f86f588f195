package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/njchilds90/golimits/internal/config"
	"github.com/njchilds90/golimits/limits"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--no-color"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestLimit(t *testing.T) {
	out, err := execute(t, "limit", "sin(x)/x", "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Limit: lim x→0 f(x) = 1")
	assert.Contains(t, out, "removable discontinuity")
}

func TestLimit_JSON(t *testing.T) {
	out, err := execute(t, "limit", "1/x", "0+", "--json")
	require.NoError(t, err)

	var got struct {
		Direction string `json:"direction"`
		Results   []struct {
			Limit struct {
				Display string `json:"display"`
			} `json:"limit"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "right", got.Direction)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "∞", got.Results[0].Limit.Display)
}

func TestLimit_TwoExpressions(t *testing.T) {
	out, err := execute(t, "limit", "(x^2-1)/(x-1)", "1", "--expr2", "x+1")
	require.NoError(t, err)
	assert.Contains(t, out, "removable discontinuity")
	assert.Contains(t, out, "continuous")
}

func TestContinuity(t *testing.T) {
	out, err := execute(t, "continuity", "floor(x)", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "jump discontinuity")

	out, err = execute(t, "continuity", "x^2", "3", "--json")
	require.NoError(t, err)
	var rep struct {
		Continuous bool   `json:"continuous"`
		Kind       string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.True(t, rep.Continuous)
	assert.Equal(t, string(limits.KindContinuous), rep.Kind)
}

func TestNormalize(t *testing.T) {
	out, err := execute(t, "normalize", "2x²")
	require.NoError(t, err)
	assert.Equal(t, "2*x**2\n", out)
}

func TestExamples(t *testing.T) {
	out, err := execute(t, "examples")
	require.NoError(t, err)
	for _, e := range limits.Examples() {
		assert.Contains(t, out, e.Name)
	}

	out, err = execute(t, "examples", "--run", "sinc")
	require.NoError(t, err)
	assert.Contains(t, out, "f(x) = 1")

	_, err = execute(t, "examples", "--run", "nope")
	assert.Equal(t, exitInvalid, exitCode(err))
}

func TestBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- expression: sin(x)/x
  point: "0"
- expression: 1/x
  point: "0"
  direction: left
- expression: (1 + 1/x)^x
  point: inf
`), 0o600))

	out, err := execute(t, "batch", path, "--json")
	require.NoError(t, err)
	var got []struct {
		Analysis struct {
			Results []struct {
				Limit struct {
					Display string `json:"display"`
				} `json:"limit"`
			} `json:"results"`
		} `json:"analysis"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "1", got[0].Analysis.Results[0].Limit.Display)
	assert.Equal(t, "-∞", got[1].Analysis.Results[0].Limit.Display)
	assert.Contains(t, got[2].Analysis.Results[0].Limit.Display, "2.7182")
}

func TestBatch_PartialFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- expression: x
  point: "1"
- expression: ""
  point: "1"
`), 0o600))

	out, err := execute(t, "batch", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, limits.ErrEmptyInput)
	assert.Equal(t, exitInvalid, exitCode(err))
	assert.Contains(t, out, "empty input")
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"unparsable", []string{"limit", "sin(x", "0"}, exitInvalid},
		{"bad point", []string{"limit", "x", "banana"}, exitInvalid},
		{"bad direction", []string{"limit", "x", "0", "-d", "up"}, exitInvalid},
		{"too long", []string{"normalize", string(bytes.Repeat([]byte("x"), limits.MaxInputLength+1))}, exitInvalid},
		{"arg count", []string{"limit", "x"}, exitInvalid},
		{"missing config", []string{"--config", "/does/not/exist.yaml", "normalize", "x"}, exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err))
		})
	}
	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "golimits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: loud\n"), 0o600))
	_, err := execute(t, "--config", path, "normalize", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
	assert.Equal(t, exitInvalid, exitCode(err))
}
