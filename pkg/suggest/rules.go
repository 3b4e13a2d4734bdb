package suggest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kcaldas/cmdcore/pkg/command"
)

// specPattern matches one "index:value" token. Text between matches is
// skipped rather than rejected.
var specPattern = regexp.MustCompile(`(?i)([0-9]+):(\[.*?\]|\$[a-z][a-z0-9_]*\$)`)

// Rules maps a 1-based argument position to its candidate source.
type Rules map[int]Source

// Parse reads a spec such as "1:[red, blue] 2:$colors$". Unknown
// placeholder names are an error; unmatched text is ignored. The command
// name is only used to label errors.
func Parse(cmdName, spec string, placeholders *Placeholders) (Rules, error) {
	rules := make(Rules)
	if strings.TrimSpace(spec) == "" {
		return rules, nil
	}

	for _, match := range specPattern.FindAllStringSubmatch(spec, -1) {
		index, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, &command.ParseError{Command: cmdName, Entry: match[0], Reason: "invalid index", Err: err}
		}
		value := match[2]

		switch {
		case strings.HasPrefix(value, "$"):
			ph, ok := placeholders.Lookup(value)
			if !ok {
				return nil, &command.ParseError{
					Command: cmdName,
					Entry:   match[0],
					Reason:  "unknown placeholder " + value,
				}
			}
			rules[index] = ph
		default:
			rules[index] = NewStaticList(value[1 : len(value)-1])
		}
	}

	return rules, nil
}

// Suggest returns the candidates for pos that start with partial, ignoring
// case, in source order.
func (r Rules) Suggest(pos int, partial string) []string {
	source, ok := r[pos]
	if !ok {
		return []string{}
	}
	return Filter(source.Values(), partial)
}

// Filter keeps the values that start with partial, ignoring case.
func Filter(values []string, partial string) []string {
	matches := make([]string, 0, len(values))
	prefix := command.Fold(partial)
	for _, v := range values {
		if strings.HasPrefix(command.Fold(v), prefix) {
			matches = append(matches, v)
		}
	}
	return matches
}
