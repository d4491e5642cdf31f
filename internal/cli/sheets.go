package cli

import (
	"context"
	"fmt"
	"time"

	"fluxcareer/internal/common"
	"fluxcareer/internal/sheets"
	"fluxcareer/internal/types"

	"github.com/spf13/cobra"
)

var sheetsCmd = &cobra.Command{
	Use:   "sheets",
	Short: "Log applications to a Google Sheet",
}

var sheetsSendCmd = &cobra.Command{
	Use:   "send [job-description-file] [cover-letter-file]",
	Short: "Append a job description and cover letter to the sheet",
	Long: `Send one row to the configured Google Apps Script web app. With an access
token the request is authenticated and its response checked; without one the
row is sent anonymously and the response is not inspected.`,
	Args: cobra.ExactArgs(2),
	RunE: runSheetsSend,
}

var sheetsOverrides struct {
	url   string
	sheet string
	name  string
	email string
}

func init() {
	sheetsSendCmd.Flags().StringVar(&sheetsOverrides.url, "url", "", "Apps Script URL (default from config)")
	sheetsSendCmd.Flags().StringVar(&sheetsOverrides.sheet, "sheet", "", "Sheet tab name (default from config)")
	sheetsSendCmd.Flags().StringVar(&sheetsOverrides.name, "name", "", "Sender name (default from config)")
	sheetsSendCmd.Flags().StringVar(&sheetsOverrides.email, "email", "", "Sender email (default from config)")
	sheetsCmd.AddCommand(sheetsSendCmd)
}

func orDefault(v, d string) string {
	if v == "" {
		return d
	}
	return v
}

func runSheetsSend(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	client := sheets.NewClient(cfg.Sheets.Timeout, logger)
	scriptURL := orDefault(sheetsOverrides.url, cfg.Sheets.ScriptURL)
	sender := sheets.Sender{
		Name:  orDefault(sheetsOverrides.name, cfg.User.Name),
		Email: orDefault(sheetsOverrides.email, cfg.User.Email),
	}
	sheetName := orDefault(sheetsOverrides.sheet, cfg.Sheets.SheetName)

	createInput := func(contents []string) (types.SheetPayload, error) {
		return sheets.BuildPayload(contents[0], contents[1], sender, sheetName, time.Now()), nil
	}

	operation := func(ctx context.Context, payload types.SheetPayload) (map[string]bool, error) {
		if err := client.Send(ctx, payload, scriptURL, cfg.Sheets.AccessToken); err != nil {
			return nil, err
		}
		return map[string]bool{"success": true}, nil
	}

	cmdConfig := common.CommandConfig{OutputFormat: "json", MaxFileSize: cfg.App.MaxFileSize, Out: cmd.OutOrStdout()}
	if err := common.RunAICommand(cmd.Context(), logger, cmdConfig, args, createInput, operation); err != nil {
		return fmt.Errorf("failed to log to sheet: %w", err)
	}
	logger.Info("Row sent to sheet", "sheet", sheetName, "authenticated", cfg.Sheets.AccessToken != "")
	return nil
}
