package cli

import (
	"context"
	"flag"
	"io"
	"sort"

	"github.com/go-pkgz/lgr"

	"github.com/agalitsyn/checklist-bot/internal/checklist"
)

// Env is what a command runs against. View is nil for commands that do not
// need the store.
type Env struct {
	View     *checklist.View
	Settings Settings
	Logger   lgr.L
}

// Command is one subcommand of the checklist binary.
type Command interface {
	Name() string
	Synopsis() string
	Usage() string
	NeedsStore() bool
	RegisterFlags(fs *flag.FlagSet)
	// Run returns the exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

type registry map[string]Command

func (r registry) register(cmds ...Command) {
	for _, c := range cmds {
		if _, ok := r[c.Name()]; ok {
			panic("command already registered: " + c.Name())
		}
		r[c.Name()] = c
	}
}

// sorted returns the commands ordered by name.
func (r registry) sorted() []Command {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)

	res := make([]Command, 0, len(names))
	for _, name := range names {
		res = append(res, r[name])
	}
	return res
}
