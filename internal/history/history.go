// Package history keeps the command lines a console dispatched, optionally
// persisted to a file.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/lo"
)

const DefaultMaxSize = 100

// History records command lines. A line already present moves to the end.
type History struct {
	mu      sync.Mutex
	path    string // empty means memory only
	maxSize int
	lines   []string
}

// New creates a history backed by path. An empty path keeps the history in
// memory.
func New(path string, maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &History{path: path, maxSize: maxSize}
}

// Add records line and saves the history if it is file backed.
func (h *History) Add(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	h.mu.Lock()
	h.lines = append(lo.Without(h.lines, line), line)
	if len(h.lines) > h.maxSize {
		h.lines = h.lines[len(h.lines)-h.maxSize:]
	}
	h.mu.Unlock()

	return h.Save()
}

// Lines returns the recorded lines, oldest first.
func (h *History) Lines() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

// Last returns the most recent line.
func (h *History) Last() (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.lines) == 0 {
		return "", false
	}
	return h.lines[len(h.lines)-1], true
}

// Load replaces the in-memory lines with the file contents. A missing file
// is an empty history.
func (h *History) Load() error {
	if h.path == "" {
		return nil
	}
	f, err := os.Open(h.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}
	if len(lines) > h.maxSize {
		lines = lines[len(lines)-h.maxSize:]
	}

	h.mu.Lock()
	h.lines = lines
	h.mu.Unlock()
	return nil
}

// Save writes the history file, creating its directory.
func (h *History) Save() error {
	if h.path == "" {
		return nil
	}
	lines := h.Lines()

	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(h.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}
