package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAICommand(t *testing.T) {
	dir := t.TempDir()
	jd := filepath.Join(dir, "job.txt")
	require.NoError(t, os.WriteFile(jd, []byte("Go Engineer"), 0600))

	var out bytes.Buffer
	cfg := CommandConfig{OutputFormat: "text", Out: &out}

	err := RunAICommand(context.Background(), errors.NewNopLogger(), cfg, []string{jd, ""},
		func(contents []string) (types.InterviewInput, error) {
			assert.Equal(t, "", contents[1])
			return types.InterviewInput{JobDescription: contents[0]}, nil
		},
		func(_ context.Context, in types.InterviewInput) (types.InterviewOutput, error) {
			return types.InterviewOutput{Content: "Questions for " + in.JobDescription}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "Questions for Go Engineer\n", out.String())
}

func TestRunAICommandWritesFile(t *testing.T) {
	dir := t.TempDir()
	jd := filepath.Join(dir, "job.md")
	require.NoError(t, os.WriteFile(jd, []byte("Role"), 0600))
	target := filepath.Join(dir, "out", "letter.json")

	cfg := CommandConfig{OutputFormat: "json", OutputFile: target}
	err := RunAICommand(context.Background(), errors.NewNopLogger(), cfg, []string{jd},
		func(contents []string) (string, error) { return contents[0], nil },
		func(_ context.Context, in string) (types.CoverLetterOutput, error) {
			return types.CoverLetterOutput{Content: in}, nil
		})
	require.NoError(t, err)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"content": "Role"`))
}

func TestRunAICommandMissingFile(t *testing.T) {
	called := false
	err := RunAICommand(context.Background(), errors.NewNopLogger(), CommandConfig{OutputFormat: "text"},
		[]string{filepath.Join(t.TempDir(), "nope.txt")},
		func(contents []string) (string, error) { return "", nil },
		func(context.Context, string) (string, error) { called = true; return "", nil })
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))
	assert.False(t, called)
}
