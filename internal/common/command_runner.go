package common

import (
	"context"
	"fmt"

	"fluxcareer/internal/errors"
)

// CreateInputFunc builds an operation input from file contents, in the
// order the files were given
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// OperationFunc runs one generation
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunAICommand reads the input files, runs op and writes its result
func RunAICommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	files []string,
	createInput CreateInputFunc[Input],
	op OperationFunc[Input, Output],
) error {
	contents, err := NewFileProcessor(logger, cmdConfig.MaxFileSize).ReadFiles(files...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	result, err := op(ctx, input)
	if err != nil {
		return err
	}

	return NewOutputHandler(logger).HandleOutput(result, cmdConfig)
}
