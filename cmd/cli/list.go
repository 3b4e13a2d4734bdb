package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kcaldas/cmdcore/internal/di"
	"github.com/kcaldas/cmdcore/pkg/command"
)

// NewListCommand creates the list command.
func NewListCommand(hostProvider func() *di.Host) *cobra.Command {
	var stats bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered commands and their sub-commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := hostProvider()
			printCommands(cmd.OutOrStdout(), h)
			if stats {
				fmt.Fprintln(cmd.OutOrStdout())
				printStats(cmd.OutOrStdout(), h)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&stats, "stats", false, "also print registry cache counters")
	return cmd
}

func printCommands(out io.Writer, h *di.Host) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COMMAND\tALIASES\tPERMISSION\tTARGET\tDESCRIPTION")
	for _, name := range h.Registry.Names() {
		d, ok := h.Registry.FindByName(name)
		if !ok {
			continue
		}
		d.Walk(func(node *command.Descriptor) bool {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				strings.Join(node.Path(), " "),
				strings.Join(node.Aliases(), ","),
				dash(node.Permission()),
				node.Target(),
				node.Description())
			return true
		})
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
