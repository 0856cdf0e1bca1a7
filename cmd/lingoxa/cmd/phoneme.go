package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrWong99/lingoxa/pkg/phoneme"
)

var phonemeCmd = &cobra.Command{
	Use:   "phoneme [symbol...]",
	Short: "Show the IPA and an example word for ARPAbet phonemes",
	Long: `Print the IPA rendering and an example word for each ARPAbet symbol.
Stress digits are accepted. Without arguments every known symbol is listed.

Example:
  lingoxa phoneme DH
  lingoxa phoneme ae1 ng`,
	RunE: runPhoneme,
}

func init() {
	rootCmd.AddCommand(phonemeCmd)
}

func runPhoneme(cmd *cobra.Command, args []string) error {
	syms := args
	if len(syms) == 0 {
		syms = phoneme.Symbols()
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ARPABET\tIPA\tEXAMPLE")
	var unknown []string
	for _, s := range syms {
		sym := strings.ToUpper(strings.TrimSpace(s))
		ipa, ok := phoneme.IPA(sym)
		if !ok {
			unknown = append(unknown, s)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", sym, ipa, phoneme.ExampleWord(sym))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown phoneme symbol(s): %s", strings.Join(unknown, ", "))
	}
	return nil
}
