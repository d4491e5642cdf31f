package cli

import (
	"context"
	"fmt"

	"fluxcareer/internal/ai"
	"fluxcareer/internal/common"
	"fluxcareer/internal/types"

	"github.com/spf13/cobra"
)

var coverLetterCmd = &cobra.Command{
	Use:   "cover-letter [job-description-file]",
	Short: "Write a cover letter for a job description",
	Long: `Write a cover letter for a job description using AI.
Pass --resume to ground the letter in your actual experience; without it the
letter is generalized from the job description.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return outputPreRun(&coverLetterConfig)(cmd, args)
	},
	RunE: runCoverLetter,
}

var (
	coverLetterConfig    common.CommandConfig
	coverLetterSelection ai.Selection
	coverLetterOptions   common.CoverLetterOptions
	coverLetterResume    string
	coverLetterName      string
)

func init() {
	addOutputFlags(coverLetterCmd, &coverLetterConfig)
	addSelectionFlags(coverLetterCmd, &coverLetterSelection)
	coverLetterCmd.Flags().StringVarP(&coverLetterResume, "resume", "r", "", "Resume file to ground the letter in")
	coverLetterCmd.Flags().StringVar(&coverLetterName, "name", "", "Name used in the sign-off (default from config)")
	coverLetterCmd.Flags().StringVar(&coverLetterOptions.Tone, "tone", "", "Tone: Professional, Enthusiastic, Confident or Direct")
	coverLetterCmd.Flags().StringVar(&coverLetterOptions.Length, "length", "", "Length: Short, Medium or Long")
	coverLetterCmd.Flags().StringVar(&coverLetterOptions.Language, "language", "", "Language: English, Spanish, French, German or Hindi")
}

func runCoverLetter(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	user := rt.cfg.User
	tone, length, language, err := coverLetterOptions.Resolve(common.CoverLetterOptions{
		Tone: user.Tone, Length: user.Length, Language: user.Language,
	})
	if err != nil {
		return err
	}

	name := coverLetterName
	if name == "" {
		name = user.Name
	}

	createInput := func(contents []string) (types.CoverLetterInput, error) {
		if len(contents) != 2 {
			return types.CoverLetterInput{}, fmt.Errorf("expected 2 inputs, got %d", len(contents))
		}
		return types.CoverLetterInput{
			JobDescription: contents[0],
			ResumeText:     contents[1],
			UserName:       name,
			Tone:           tone,
			Length:         length,
			Language:       language,
		}, nil
	}

	operation := func(ctx context.Context, in types.CoverLetterInput) (types.CoverLetterOutput, error) {
		rt.logger.Info("Starting cover letter generation",
			"job_chars", len(in.JobDescription),
			"has_resume", in.ResumeText != "",
			"tone", in.Tone,
			"length", in.Length,
			"language", in.Language)
		return rt.service.GenerateCoverLetter(ctx, in, coverLetterSelection)
	}

	err = common.RunAICommand(cmd.Context(), rt.logger, coverLetterConfig,
		[]string{args[0], coverLetterResume}, createInput, operation)
	if err != nil {
		return fmt.Errorf("failed to generate cover letter: %w", err)
	}
	rt.logger.Info("Cover letter generation completed successfully")
	return nil
}
