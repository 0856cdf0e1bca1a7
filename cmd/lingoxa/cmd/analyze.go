package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrWong99/lingoxa/internal/pronunciation"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <text>",
	Short: "Check the pronunciation of a transcribed utterance",
	Long: `Compare every word of an utterance with its dictionary pronunciation
and print the first wrong sound of each word.

The configured g2p backend supplies how each recognised word was said, so
divergences come from that backend. The lexicon backend answers with the
dictionary entry itself and never reports one.`,
	Example: `  lingoxa analyze "the weather is nice"
  lingoxa analyze --json "I think this is my cat"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	rep, err := a.Analyzer().Analyze(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if analyzeJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	printReport(out, rep)
	return nil
}

func printReport(w io.Writer, rep *pronunciation.Report) {
	if len(rep.Divergences) == 0 {
		fmt.Fprintln(w, "No pronunciation issues found.")
	}
	for i, d := range rep.Divergences {
		fmt.Fprintf(w, "%s\n", d.Word)
		fmt.Fprintf(w, "  you said: %s  /%s/\n", d.UserPhonemes, strings.Join(d.UserIPA, " "))
		r := rep.Highlights[i]
		fmt.Fprintf(w, "  try:      %s  /%s/\n", pronunciation.Join(r.ARPAbet, bracket), pronunciation.Join(r.IPA, bracket))
		fmt.Fprintf(w, "  %s\n", pronunciation.Explain(d))
	}
	if len(rep.Skipped) > 0 {
		fmt.Fprintf(w, "Not in the dictionary: %s\n", strings.Join(rep.Skipped, ", "))
	}
}

func bracket(s string) string { return "[" + s + "]" }
