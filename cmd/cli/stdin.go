package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// isInteractive reports whether r is a terminal. Piped or redirected input
// is read without prompts.
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// readLines calls fn for every non-blank line of r until fn returns false
// or the input ends. Trailing spaces are kept; they matter to completion.
func readLines(r io.Reader, prompt func(), fn func(line string) bool) error {
	scanner := bufio.NewScanner(r)
	prompt()
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) != "" && !fn(strings.TrimLeft(line, " \t")) {
			return nil
		}
		prompt()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	return nil
}
