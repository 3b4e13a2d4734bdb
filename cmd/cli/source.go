package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/kcaldas/cmdcore/pkg/command"
)

// writerSource is a command source whose messages go to a writer.
type writerSource struct {
	mu   sync.Mutex
	name string
	kind command.SourceKind
	out  io.Writer
}

func newSource(name string, console bool, out io.Writer) *writerSource {
	kind := command.User
	if console {
		kind, name = command.Console, "console"
	}
	return &writerSource{name: name, kind: kind, out: out}
}

func (s *writerSource) Name() string             { return s.name }
func (s *writerSource) Kind() command.SourceKind { return s.kind }

func (s *writerSource) SendMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, msg)
}
