package common

import (
	"testing"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name          string
		format        string
		supported     []string
		expectedError string
	}{
		{name: "json", format: "json", supported: supported},
		{name: "markdown", format: "markdown", supported: supported},
		{name: "xml", format: "xml", supported: supported,
			expectedError: "unsupported output format 'xml'. Supported formats: [json text markdown]"},
		{name: "case sensitive", format: "JSON", supported: supported,
			expectedError: "unsupported output format 'JSON'. Supported formats: [json text markdown]"},
		{name: "no restrictions", format: "anything", supported: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supported)
			if tt.expectedError == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.expectedError, errors.UserMessage(err))
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func TestParseChoices(t *testing.T) {
	tone, err := ParseTone("enthusiastic")
	require.NoError(t, err)
	assert.Equal(t, types.ToneEnthusiastic, tone)

	length, err := ParseLength(" LONG ")
	require.NoError(t, err)
	assert.Equal(t, types.LengthLong, length)

	language, err := ParseLanguage("hindi")
	require.NoError(t, err)
	assert.Equal(t, types.LanguageHindi, language)

	_, err = ParseTone("sarcastic")
	require.Error(t, err)
	assert.Equal(t, "invalid tone 'sarcastic'. Allowed values: Professional, Enthusiastic, Confident, Direct", errors.UserMessage(err))
}

func TestCoverLetterOptionsResolve(t *testing.T) {
	defaults := CoverLetterOptions{Tone: "Professional", Length: "Medium", Language: "English"}

	tone, length, language, err := CoverLetterOptions{Length: "short"}.Resolve(defaults)
	require.NoError(t, err)
	assert.Equal(t, types.ToneProfessional, tone)
	assert.Equal(t, types.LengthShort, length)
	assert.Equal(t, types.LanguageEnglish, language)

	_, _, _, err = CoverLetterOptions{Language: "Klingon"}.Resolve(defaults)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
