// Package grammar parses sub-command declarations of the form
// "Locator::MemberSelector" and builds descriptor trees from them.
//
//	this::set                 one member of the declaring type
//	this::[set, delete]       an explicit list
//	Homes::*                  every tagged member of demo.Homes
//	other.pkg.Type::list      a fully qualified type
package grammar

import (
	"strings"
)

const (
	separator   = "::"
	selfLocator = "this"
)

// Selector is the member half of an entry.
type Selector struct {
	All   bool
	Names []string
}

// Entry is one parsed sub-command declaration.
type Entry struct {
	Raw      string
	Locator  string
	Selector Selector
}

// IsSelf reports whether the locator refers to the declaring type.
func (e Entry) IsSelf() bool {
	return strings.EqualFold(e.Locator, selfLocator)
}

// ParseEntry parses a single declaration. The returned error is a plain
// reason; callers attach the owning command.
func ParseEntry(raw string) (Entry, error) {
	locator, selector, found := strings.Cut(strings.TrimSpace(raw), separator)
	if !found {
		return Entry{}, errReason("expected 'Type::member'")
	}
	locator = strings.TrimSpace(locator)
	selector = strings.TrimSpace(selector)
	if locator == "" {
		return Entry{}, errReason("missing type before '::'")
	}
	if selector == "" {
		return Entry{}, errReason("missing member after '::'")
	}

	entry := Entry{Raw: raw, Locator: locator}
	switch {
	case selector == "*":
		entry.Selector.All = true
	case strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]"):
		entry.Selector.Names = splitNames(selector[1 : len(selector)-1])
	case strings.ContainsAny(selector, "[]*") || strings.Contains(selector, separator):
		return Entry{}, errReason("malformed member selector '" + selector + "'")
	default:
		entry.Selector.Names = []string{selector}
	}
	return entry, nil
}

func splitNames(list string) []string {
	names := make([]string, 0)
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

type reasonError string

func errReason(reason string) error { return reasonError(reason) }

func (e reasonError) Error() string { return string(e) }
