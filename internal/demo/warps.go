package demo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kcaldas/cmdcore/pkg/command"
	"github.com/kcaldas/cmdcore/pkg/resolve"
)

var errUsage = errors.New("wrong usage")

// Warps handles the warp command and its sub-commands. It is built with
// the plugin root as its enclosing instance.
type Warps struct {
	plugin *Plugin
}

func warpsType() resolve.Type {
	return resolve.Type{
		Name:      "demo.Warps",
		Package:   Package,
		GoType:    typeOf[*Warps](),
		Enclosing: RootType,
		New: func(enclosing any) (any, error) {
			p, ok := enclosing.(*Plugin)
			if !ok {
				return nil, fmt.Errorf("warps need the plugin, got %T", enclosing)
			}
			return &Warps{plugin: p}, nil
		},
		Members: []resolve.Member{
			{
				Name: "warp",
				Command: &command.Meta{
					Name:        "warp",
					Permission:  "demo.warp",
					Description: "Teleport to a saved warp",
					Usage:       "warp <name> | warp set|delete|list",
					Aliases:     []string{"w"},
					SubCommands: []string{"this::[set, delete, list]"},
					Suggestions: "1:$warps$",
					Target:      command.UserOnly,
				},
				Func: method((*Warps).Warp),
			},
			{
				Name: "set",
				Sub: &command.Meta{
					Name:        "set",
					Permission:  "demo.warp.set",
					Description: "Save a warp",
					Usage:       "warp set <name> [world] [x y z]",
					Suggestions: "2:$worlds$",
				},
				Func: method((*Warps).Set),
			},
			{
				Name: "delete",
				Sub: &command.Meta{
					Name:        "delete",
					Permission:  "demo.warp.delete",
					Description: "Delete a warp",
					Usage:       "warp delete <name>",
					Aliases:     []string{"del"},
					Suggestions: "1:$warps$",
				},
				Func: method((*Warps).Delete),
			},
			{
				Name: "list",
				Sub:  &command.Meta{Name: "list", Description: "List saved warps", Usage: "warp list"},
				Func: method((*Warps).List),
			},
		},
	}
}

// Warp teleports the source to a saved warp.
func (w *Warps) Warp(src command.Source, args command.Args) error {
	name, ok := args.Get(0)
	if !ok {
		return fmt.Errorf("%w: warp <name>", errUsage)
	}
	loc, ok := w.plugin.Warp(name)
	if !ok {
		return fmt.Errorf("unknown warp %q", name)
	}
	src.SendMessage(fmt.Sprintf("Warped to %s in %s at %d %d %d", name, loc.World, loc.X, loc.Y, loc.Z))
	return nil
}

// Set saves a warp. Sources from the console must give a world.
func (w *Warps) Set(src command.Source, args command.Args) error {
	name, ok := args.Get(0)
	if !ok {
		return fmt.Errorf("%w: warp set <name> [world] [x y z]", errUsage)
	}
	if err := command.ValidateName(name); err != nil {
		return err
	}

	worlds := w.plugin.Worlds()
	loc := Location{World: worlds[0]}
	if world, ok := args.Get(1); ok {
		if !containsFold(worlds, world) {
			return fmt.Errorf("unknown world %q", world)
		}
		loc.World = world
	}
	if args.Len() >= 5 {
		coords := make([]int, 3)
		for i := range coords {
			n, err := strconv.Atoi(args[2+i])
			if err != nil {
				return fmt.Errorf("%w: coordinate %q is not a number", errUsage, args[2+i])
			}
			coords[i] = n
		}
		loc.X, loc.Y, loc.Z = coords[0], coords[1], coords[2]
	}

	w.plugin.setWarp(name, loc)
	src.SendMessage(fmt.Sprintf("Warp %s saved", name))
	return nil
}

// Delete removes a warp.
func (w *Warps) Delete(src command.Source, args command.Args) error {
	name, ok := args.Get(0)
	if !ok {
		return fmt.Errorf("%w: warp delete <name>", errUsage)
	}
	if !w.plugin.deleteWarp(name) {
		return fmt.Errorf("unknown warp %q", name)
	}
	src.SendMessage(fmt.Sprintf("Warp %s deleted", name))
	return nil
}

// List shows the saved warps.
func (w *Warps) List(src command.Source, args command.Args) error {
	names := w.plugin.WarpNames()
	if len(names) == 0 {
		src.SendMessage("No warps saved")
		return nil
	}
	src.SendMessage("Warps: " + strings.Join(names, ", "))
	return nil
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
