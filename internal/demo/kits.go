package demo

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/resolve"
	"github.com/kcaldas/cmdcore/pkg/suggest"
)

// Kits is a command object. Its give and preview sub-commands live on the
// nested KitItems type, which is built with Kits as enclosing instance.
type Kits struct {
	plugin   *Plugin
	contents map[string][]string
}

// NewKits creates the kit catalogue.
func NewKits(p *Plugin) *Kits {
	return &Kits{plugin: p, contents: map[string][]string{
		"starter": {"wooden_sword", "bread", "torch"},
		"tools":   {"iron_pickaxe", "iron_axe", "iron_shovel"},
		"builder": {"stone", "glass", "ladder"},
	}}
}

func kitsType() resolve.Type {
	return resolve.Type{
		Name:      "demo.Kits",
		Package:   Package,
		GoType:    typeOf[*Kits](),
		Enclosing: RootType,
		New: func(enclosing any) (any, error) {
			p, ok := enclosing.(*Plugin)
			if !ok {
				return nil, fmt.Errorf("kits need the plugin, got %T", enclosing)
			}
			return NewKits(p), nil
		},
	}
}

func (k *Kits) Meta() command.Meta {
	return command.Meta{
		Name:        "kit",
		Permission:  "demo.kit",
		Description: "List and hand out kits",
		Usage:       "kit | kit give <kit> [player] | kit preview <kit>",
		Aliases:     []string{"kits"},
		SubCommands: []string{"KitItems::*"},
	}
}

// Execute lists the available kits.
func (k *Kits) Execute(src command.Source, args command.Args) error {
	src.SendMessage("Kits: " + strings.Join(k.Names(), ", "))
	return nil
}

// Complete suggests kit names for the first argument.
func (k *Kits) Complete(src command.Source, d *command.Descriptor, args command.Args) []string {
	if len(args) != 1 {
		return []string{}
	}
	return suggest.Filter(k.Names(), args[0])
}

// Names returns the kit names, sorted.
func (k *Kits) Names() []string {
	names := lo.Keys(k.contents)
	sort.Strings(names)
	return names
}

// Contents returns the items of a kit.
func (k *Kits) Contents(name string) ([]string, bool) {
	items, ok := k.contents[command.Fold(name)]
	return items, ok
}

// KitItems holds the kit sub-commands.
type KitItems struct {
	kits *Kits
}

func kitItemsType() resolve.Type {
	return resolve.Type{
		Name:      "demo.KitItems",
		Package:   Package,
		GoType:    typeOf[*KitItems](),
		Enclosing: "demo.Kits",
		New: func(enclosing any) (any, error) {
			k, ok := enclosing.(*Kits)
			if !ok {
				return nil, fmt.Errorf("kit items need the kits, got %T", enclosing)
			}
			return &KitItems{kits: k}, nil
		},
		Members: []resolve.Member{
			{
				Name: "give",
				Sub: &command.Meta{
					Name:        "give",
					Permission:  "demo.kit.give",
					Description: "Give a kit to a player",
					Usage:       "kit give <kit> [player]",
					Suggestions: "1:[starter, tools, builder] 2:$players$",
				},
				Func: method((*KitItems).Give),
			},
			{
				Name: "preview",
				Sub: &command.Meta{
					Name:        "preview",
					Description: "Show the items of a kit",
					Usage:       "kit preview <kit>",
					Suggestions: "1:[starter, tools, builder]",
				},
				Func: method((*KitItems).Preview),
			},
		},
	}
}

// Give hands a kit to the named player, or to the source itself.
func (ki *KitItems) Give(src command.Source, args command.Args) error {
	kit, ok := args.Get(0)
	if !ok {
		return fmt.Errorf("%w: kit give <kit> [player]", errUsage)
	}
	if _, ok := ki.kits.Contents(kit); !ok {
		return fmt.Errorf("unknown kit %q", kit)
	}

	player := src.Name()
	if target, ok := args.Get(1); ok {
		player = target
	} else if src.Kind() == command.Console {
		return fmt.Errorf("%w: the console must name a player", errUsage)
	}

	ki.kits.plugin.grant(player, command.Fold(kit))
	src.SendMessage(fmt.Sprintf("Gave kit %s to %s", command.Fold(kit), player))
	return nil
}

// Preview shows the items of a kit.
func (ki *KitItems) Preview(src command.Source, args command.Args) error {
	kit, ok := args.Get(0)
	if !ok {
		return fmt.Errorf("%w: kit preview <kit>", errUsage)
	}
	items, ok := ki.kits.Contents(kit)
	if !ok {
		return fmt.Errorf("unknown kit %q", kit)
	}
	src.SendMessage(fmt.Sprintf("Kit %s: %s", command.Fold(kit), strings.Join(items, ", ")))
	return nil
}

// method adapts a method expression to command.MethodFunc.
func method[T any](fn func(T, command.Source, command.Args) error) command.MethodFunc {
	return func(recv any, src command.Source, args command.Args) error {
		r, ok := recv.(T)
		if !ok {
			return fmt.Errorf("receiver is %T, want %T", recv, *new(T))
		}
		return fn(r, src, args)
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}
