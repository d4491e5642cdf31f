package common

import (
	"fmt"
	"io"
	"os"

	"fluxcareer/internal/errors"
	"fluxcareer/internal/formatters"
)

// CommandConfig holds common configuration for commands
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
	MaxFileSize  int64
	// Out receives output when no file is given. Nil means stdout.
	Out io.Writer
}

func (c CommandConfig) writer() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

// OutputHandler formats results and writes them out
type OutputHandler struct {
	fileProcessor *FileProcessor
	registry      *formatters.FormatterRegistry
	logger        *errors.Logger
}

// NewOutputHandler creates a new output handler
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return &OutputHandler{
		fileProcessor: NewFileProcessor(logger, 0),
		registry:      formatters.NewFormatterRegistry(),
		logger:        logger,
	}
}

// HandleOutput formats data and writes it to the configured destination
func (oh *OutputHandler) HandleOutput(data any, cfg CommandConfig) error {
	output, err := oh.registry.Format(data, cfg.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", cfg.OutputFormat), err)
	}

	if cfg.OutputFile == "" {
		_, err = io.WriteString(cfg.writer(), output)
		return err
	}

	if err := oh.fileProcessor.WriteFile(cfg.OutputFile, output); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully", "file", cfg.OutputFile, "format", cfg.OutputFormat)
	return nil
}
