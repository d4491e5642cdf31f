package cli

import (
	"context"
	"fmt"

	"fluxcareer/internal/ai"
	"fluxcareer/internal/common"
	"fluxcareer/internal/types"

	"github.com/spf13/cobra"
)

var tailorCmd = &cobra.Command{
	Use:   "tailor [resume-file] [job-description-file]",
	Short: "Tailor a resume for a specific job description",
	Long: `Tailor your resume for a specific job description using AI.
The command takes two arguments: the path to your base resume file and
the path to the job description file. The result is ATS-oriented HTML;
use --format text or markdown for a plain rendering.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return outputPreRun(&tailorConfig)(cmd, args)
	},
	RunE: runTailor,
}

var (
	tailorConfig    common.CommandConfig
	tailorSelection ai.Selection
	tailorName      string
)

func init() {
	addOutputFlags(tailorCmd, &tailorConfig)
	addSelectionFlags(tailorCmd, &tailorSelection)
	tailorCmd.Flags().StringVar(&tailorName, "name", "", "Name used for the export filename (default from config)")
}

func runTailor(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	name := tailorName
	if name == "" {
		name = rt.cfg.User.Name
	}

	createInput := func(contents []string) (types.TailorInput, error) {
		if len(contents) != 2 {
			return types.TailorInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return types.TailorInput{
			ResumeText:     contents[0],
			JobDescription: contents[1],
		}, nil
	}

	operation := func(ctx context.Context, in types.TailorInput) (types.TailorOutput, error) {
		rt.logger.Info("Starting resume tailoring",
			"resume_chars", len(in.ResumeText),
			"job_chars", len(in.JobDescription),
			"output_format", tailorConfig.OutputFormat)
		return rt.service.GenerateTailoredResume(ctx, in, name, tailorSelection)
	}

	if err := common.RunAICommand(cmd.Context(), rt.logger, tailorConfig, args, createInput, operation); err != nil {
		return fmt.Errorf("failed to tailor resume: %w", err)
	}
	rt.logger.Info("Resume tailoring completed successfully")
	return nil
}
