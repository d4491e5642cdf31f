package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEmail(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"plain", "Apply to jobs@acme.io today", "jobs@acme.io", true},
		{"lowercased", "Contact: Hiring.Team@Example.COM", "hiring.team@example.com", true},
		{"first match wins", "a@one.com or b@two.com", "a@one.com", true},
		{"none", "No contact details here", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractEmail(tt.text)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocumentFilename(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		jd       string
		docType  types.DocumentType
		want     string
	}{
		{"defaults", "", "", types.DocumentCoverLetter, "Candidate_Job_Application_Cover_Letter.pdf"},
		{"name and role", "Jane Doe", "Senior Go Engineer @ Acme\nmore", types.DocumentCoverLetter, "Jane_Doe_Senior_Go_Engineer__Acme_Cover_Letter.pdf"},
		{"skips blank lines", "Ann", "\n   \nData Scientist", types.DocumentTailoredResume, "Ann_Data_Scientist_Resume.pdf"},
		{"context truncated", "Bo", strings.Repeat("x", 50), types.DocumentTailoredResume, "Bo_" + strings.Repeat("x", 30) + "_Resume.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentFilename(tt.userName, tt.jd, tt.docType))
		})
	}
}

func TestHTMLToText(t *testing.T) {
	html := "<h3>Summary</h3><p>Builder of <strong>things</strong>.</p><ul><li>Go</li><li>Redis</li></ul>"
	assert.Equal(t, "Summary\nBuilder of things.\n- Go\n- Redis", HTMLToText(html))
}

func TestReadInputFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "job.txt")
	require.NoError(t, os.WriteFile(good, []byte("Go Engineer"), 0600))
	text, err := ReadInputFile(good, 1024)
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", text)

	_, err = ReadInputFile(filepath.Join(dir, "missing.txt"), 0)
	assert.True(t, errors.HasCode(err, errors.ErrCodeFileNotFound))

	big := filepath.Join(dir, "big.md")
	require.NoError(t, os.WriteFile(big, []byte(strings.Repeat("a", 2048)), 0600))
	_, err = ReadInputFile(big, 1024)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	pdf := filepath.Join(dir, "resume.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF"), 0600))
	_, err = ReadInputFile(pdf, 0)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))

	_, err = ReadInputFile(dir, 0)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidFormat))
}

func TestFormatFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatFileSize(512))
	assert.Equal(t, "1.0 KB", FormatFileSize(1024))
	assert.Equal(t, "1.5 MB", FormatFileSize(1536*1024))
}
