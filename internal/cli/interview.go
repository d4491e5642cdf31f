package cli

import (
	"context"
	"fmt"

	"fluxcareer/internal/ai"
	"fluxcareer/internal/common"
	"fluxcareer/internal/types"

	"github.com/spf13/cobra"
)

var interviewCmd = &cobra.Command{
	Use:   "interview [job-description-file]",
	Short: "Generate likely interview questions with answer tips",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return outputPreRun(&interviewConfig)(cmd, args)
	},
	RunE: runInterview,
}

var (
	interviewConfig    common.CommandConfig
	interviewSelection ai.Selection
)

func init() {
	addOutputFlags(interviewCmd, &interviewConfig)
	addSelectionFlags(interviewCmd, &interviewSelection)
}

func runInterview(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	createInput := func(contents []string) (types.InterviewInput, error) {
		return types.InterviewInput{JobDescription: contents[0]}, nil
	}

	operation := func(ctx context.Context, in types.InterviewInput) (types.InterviewOutput, error) {
		return rt.service.GenerateInterviewQuestions(ctx, in, interviewSelection)
	}

	if err := common.RunAICommand(cmd.Context(), rt.logger, interviewConfig, args, createInput, operation); err != nil {
		return fmt.Errorf("failed to generate interview questions: %w", err)
	}
	return nil
}
