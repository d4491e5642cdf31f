package cli

import (
	"context"
	"fmt"

	"fluxcareer/internal/ai"
	"fluxcareer/internal/common"
	"fluxcareer/internal/config"
	"fluxcareer/internal/errors"
	"fluxcareer/internal/history"

	"github.com/spf13/cobra"
)

// runtime is what a generating command needs: the AI service and the
// history stores behind it
type runtime struct {
	cfg     *config.Config
	logger  *errors.Logger
	service *ai.Service
	stores  *history.Stores
}

func newRuntime(ctx context.Context) (*runtime, error) {
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	stores, err := history.Open(ctx, cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	return &runtime{
		cfg:     cfg,
		logger:  logger,
		service: ai.NewService(cfg, logger, ai.WithHistory(stores.Artifacts)),
		stores:  stores,
	}, nil
}

func (r *runtime) Close() {
	if err := r.stores.Close(); err != nil {
		r.logger.LogError(err, "Failed to close history store")
	}
}

// addOutputFlags registers --output and --format on cmd
func addOutputFlags(cmd *cobra.Command, cmdConfig *common.CommandConfig) {
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "", "Output format: json, text, markdown or html")

	// Add completion for format flag
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// addSelectionFlags registers --provider and --model on cmd
func addSelectionFlags(cmd *cobra.Command, sel *ai.Selection) {
	cmd.Flags().StringVar(&sel.Provider, "provider", "", "AI provider: gemini, openai or openrouter (default from config)")
	cmd.Flags().StringVar(&sel.Model, "model", "", "Model name (default from config or provider)")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"gemini", "openai", "openrouter"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// outputPreRun applies the default format and validates it
func outputPreRun(cmdConfig *common.CommandConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if cmdConfig.OutputFormat == "" {
			cmdConfig.OutputFormat = cfg.App.DefaultFormat
		}
		cmdConfig.MaxFileSize = cfg.App.MaxFileSize
		cmdConfig.Out = cmd.OutOrStdout()
		// Validate format against supported formats
		return common.ValidateOutputFormat(cmdConfig.OutputFormat, cfg.App.SupportedFormats)
	}
}
