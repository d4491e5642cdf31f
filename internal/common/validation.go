package common

import (
	"fmt"
	"slices"
	"strings"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/types"
)

// ValidateOutputFormat validates format against configured supported formats
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 {
		return nil // No restrictions configured
	}
	if slices.Contains(supportedFormats, format) {
		return nil
	}
	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats), nil)
}

// parseChoice matches value case-insensitively against allowed and returns
// the canonical spelling
func parseChoice[T ~string](field, value string, allowed []T) (T, error) {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(value), string(a)) {
			return a, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("invalid %s '%s'. Allowed values: %s", field, value, strings.Join(names, ", ")), nil)
}

// ParseTone validates a cover letter tone
func ParseTone(s string) (types.Tone, error) { return parseChoice("tone", s, types.Tones) }

// ParseLength validates a cover letter length
func ParseLength(s string) (types.Length, error) { return parseChoice("length", s, types.Lengths) }

// ParseLanguage validates a cover letter language
func ParseLanguage(s string) (types.Language, error) {
	return parseChoice("language", s, types.Languages)
}

// CoverLetterOptions are the user facing cover letter settings before validation
type CoverLetterOptions struct {
	Tone     string
	Length   string
	Language string
}

// Resolve validates opts, filling empty values from defaults
func (opts CoverLetterOptions) Resolve(defaults CoverLetterOptions) (types.Tone, types.Length, types.Language, error) {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}

	tone, err := ParseTone(pick(opts.Tone, defaults.Tone))
	if err != nil {
		return "", "", "", err
	}
	length, err := ParseLength(pick(opts.Length, defaults.Length))
	if err != nil {
		return "", "", "", err
	}
	language, err := ParseLanguage(pick(opts.Language, defaults.Language))
	if err != nil {
		return "", "", "", err
	}
	return tone, length, language, nil
}
