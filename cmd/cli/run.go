package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kcaldas/cmdcore/internal/di"
	"github.com/kcaldas/cmdcore/internal/history"
	"github.com/kcaldas/cmdcore/pkg/logging"
)

const prompt = "> "

type runOptions struct {
	commandsFile string
	watch        bool
	console      bool
	as           string
	players      []string
	historyFile  string // empty keeps history in memory
}

// NewRunCommand creates the run command: a console that dispatches one
// command per input line.
func NewRunCommand(hostProvider func() *di.Host) *cobra.Command {
	var opts runOptions
	var noHistory bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Read command lines from stdin and dispatch them",
		Long: `Read command lines from stdin and dispatch them.

Lines starting with ':' are console directives:
  :list              list registered commands
  :complete <line>   show completions for a partial line
  :stats             show registry cache counters
  :history           show previously dispatched lines
  :quit              leave the console

The line !! dispatches the previous line again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h := hostProvider()
			if !noHistory {
				opts.historyFile = h.Config.GetHostConfig().HistoryFile
			}
			return runConsole(cmd, h, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.commandsFile, "commands", "c", "", "declaration file to load (yaml or toml)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reload the declaration file when it changes")
	cmd.Flags().BoolVar(&opts.console, "console", false, "run commands as the console instead of a user")
	cmd.Flags().StringVar(&opts.as, "as", "player", "name of the user issuing commands")
	cmd.Flags().StringSliceVar(&opts.players, "online", nil, "players reported as online")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not read or write the history file")

	return cmd
}

func runConsole(cmd *cobra.Command, h *di.Host, opts runOptions) error {
	out := cmd.OutOrStdout()
	if opts.as == "" {
		opts.as = "player"
	}
	src := newSource(opts.as, opts.console, out)
	if len(opts.players) > 0 {
		h.Plugin.SetOnline(opts.players...)
	} else if !opts.console {
		h.Plugin.SetOnline(opts.as)
	}

	ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt)
	defer stop()

	if opts.commandsFile == "" && opts.watch {
		opts.commandsFile = h.Config.GetHostConfig().CommandsFile
	}
	if opts.commandsFile != "" {
		if err := loadDeclarations(h, opts.commandsFile); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
		}
		if opts.watch {
			if err := watchDeclarations(ctx, h, opts.commandsFile); err != nil {
				return err
			}
		}
	}

	hist := history.New(opts.historyFile, 0)
	if err := hist.Load(); err != nil {
		logging.Warn("history not loaded", "err", err)
	}

	in := cmd.InOrStdin()
	showPrompt := func() {}
	if isInteractive(in) {
		showPrompt = func() { fmt.Fprint(out, prompt) }
	}

	return readLines(in, showPrompt, func(line string) bool {
		if ctx.Err() != nil {
			return false
		}
		if strings.HasPrefix(line, ":") {
			return directive(cmd, h, hist, src, line)
		}
		if strings.TrimSpace(line) == "!!" {
			last, ok := hist.Last()
			if !ok {
				fmt.Fprintln(out, "no previous command")
				return true
			}
			line = last
		}
		if res := h.Dispatcher.DispatchLine(src, line); !res.OK() {
			fmt.Fprintln(out, res.Error())
		}
		if err := hist.Add(line); err != nil {
			logging.Warn("history not saved", "err", err)
		}
		return true
	})
}

// directive runs a console directive and reports whether to keep reading.
func directive(cmd *cobra.Command, h *di.Host, hist *history.History, src *writerSource, line string) bool {
	out := cmd.OutOrStdout()
	name, rest, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return false
	case "list":
		printCommands(out, h)
	case "complete":
		for _, s := range completeLine(h.Registry, src, rest) {
			fmt.Fprintln(out, s)
		}
	case "stats":
		printStats(out, h)
	case "history":
		for i, l := range hist.Lines() {
			fmt.Fprintf(out, "%3d  %s\n", i+1, l)
		}
	default:
		fmt.Fprintf(out, "unknown directive ':%s'\n", name)
	}
	return true
}

func printStats(w io.Writer, h *di.Host) {
	stats := h.Registry.CacheStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		fmt.Fprintf(w, "%s: hits=%d misses=%d loads=%d failures=%d evictions=%d expirations=%d\n",
			name, s.Hits, s.Misses, s.Loads, s.LoadFailures, s.Evictions, s.Expirations)
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
