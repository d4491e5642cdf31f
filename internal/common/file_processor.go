package common

import (
	"fmt"
	"os"
	"path/filepath"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/utils"
)

// FileProcessor reads command inputs and writes command outputs
type FileProcessor struct {
	logger      *errors.Logger
	maxFileSize int64
}

// NewFileProcessor creates a file processor that rejects inputs larger
// than maxFileSize bytes. Zero means no limit.
func NewFileProcessor(logger *errors.Logger, maxFileSize int64) *FileProcessor {
	return &FileProcessor{logger: logger, maxFileSize: maxFileSize}
}

// ReadFiles reads every named file in order. An empty name yields an empty
// string, so optional inputs keep their position.
func (fp *FileProcessor) ReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))
	for i, filename := range filenames {
		if filename == "" {
			continue
		}
		content, err := utils.ReadInputFile(filename, fp.maxFileSize)
		if err != nil {
			return nil, err
		}
		fp.logger.Debug("Read input file", "filename", filename, "size", utils.FormatFileSize(int64(len(content))))
		contents[i] = content
	}
	return contents, nil
}

// WriteFile writes content to filename, creating its directory
func (fp *FileProcessor) WriteFile(filename, content string) error {
	if err := utils.ValidateOutputFile(filename); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(filename), []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}
