package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <session-id>",
	Short: "Print the feedback summary of a stored session",
	Long: `Compile the end-of-session summary from the configured conversation store.
Only the sqlite and postgres backends keep sessions between runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Shutdown(context.WithoutCancel(ctx))

	text, err := a.Practice().Summary(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
