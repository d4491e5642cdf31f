package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"fluxcareer/internal/errors"
)

// textExtensions are the input formats accepted for job descriptions,
// resumes and chat documents
var textExtensions = []string{".txt", ".md", ".markdown", ".text", ".html", ".htm"}

// ValidateInputFile checks that path names a readable regular file no
// larger than maxSize bytes. A maxSize of zero disables the size check.
func ValidateInputFile(path string, maxSize int64) error {
	if path == "" {
		return errors.NewValidationError(errors.ErrCodeMissingInput, "filename cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewIOError(errors.ErrCodeFileNotFound, "file does not exist: "+path, err)
		}
		return errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot access file "+path, err)
	}
	if info.IsDir() {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat, "path is a directory, not a file: "+path, nil)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("file %s is %s, larger than the %s limit", path, FormatFileSize(info.Size()), FormatFileSize(maxSize)), nil)
	}
	if !IsTextFile(path) {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported file type %q, expected one of %s", GetFileExtension(path), strings.Join(textExtensions, ", ")), nil)
	}
	return nil
}

// ReadInputFile validates path and returns its contents
func ReadInputFile(path string, maxSize int64) (string, error) {
	if err := ValidateInputFile(path, maxSize); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the CLI user
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot read file "+path, err)
	}
	return string(data), nil
}

// ValidateOutputFile makes sure the directory of path exists. An empty
// path means stdout.
func ValidateOutputFile(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot create directory "+dir, err)
		}
	}
	return nil
}

// GetFileExtension returns the file extension in lowercase
func GetFileExtension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// IsTextFile reports whether filename has an accepted text extension
func IsTextFile(filename string) bool {
	return slices.Contains(textExtensions, GetFileExtension(filename))
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
