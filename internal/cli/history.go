package cli

import (
	"fmt"

	"fluxcareer/internal/common"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show and delete generated cover letters",
	Long: `Generated cover letters are kept in history, newest first. With the
memory backend history lasts for one process; use the redis backend to keep
it between runs.`,
}

var historyConfig common.CommandConfig

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored cover letters",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return outputPreRun(&historyConfig)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		items, err := rt.stores.Artifacts.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}
		return common.NewOutputHandler(rt.logger).HandleOutput(items, historyConfig)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one stored cover letter",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return outputPreRun(&historyConfig)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		item, err := rt.stores.Artifacts.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return common.NewOutputHandler(rt.logger).HandleOutput(item, historyConfig)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete one stored cover letter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.stores.Artifacts.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		rt.logger.Info("History item deleted", "id", args[0])
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().StringVarP(&historyConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	historyCmd.PersistentFlags().StringVar(&historyConfig.OutputFormat, "format", "", "Output format: json, text or markdown")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
