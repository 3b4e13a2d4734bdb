package cli

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/kcaldas/cmdcore/internal/di"
	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/registry"
	"github.com/kcaldas/cmdcore/pkg/suggest"
)

// NewCompleteCommand creates the complete command, which prints the
// completions of a partial command line, one per line.
func NewCompleteCommand(hostProvider func() *di.Host) *cobra.Command {
	var console bool
	var as string
	cmd := &cobra.Command{
		Use:   "complete <line>",
		Short: "Show completions for a partial command line",
		Long: `Show completions for a partial command line.

A trailing space completes the next word: complete "warp " lists the
sub-commands of warp.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h := hostProvider()
			src := newSource(as, console, cmd.OutOrStdout())
			for _, s := range completeLine(h.Registry, src, args[0]) {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&console, "console", false, "complete as the console")
	cmd.Flags().StringVar(&as, "as", "player", "name of the completing user")
	return cmd
}

// completeLine splits a partial line into the command name and its words.
// The first word completes against registered command names.
func completeLine(reg *registry.Registry, src command.Source, line string) []string {
	fields := strings.Fields(line)
	if line == "" || unicode.IsSpace(rune(line[len(line)-1])) {
		fields = append(fields, "")
	}
	if len(fields) == 1 {
		return suggest.Filter(reg.Names(), fields[0])
	}
	return reg.Complete(src, fields[0], fields[1:])
}
