package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/agalitsyn/checklist-bot/internal/export"
	"github.com/agalitsyn/checklist-bot/internal/model"
	"github.com/agalitsyn/checklist-bot/internal/tui"
	"github.com/agalitsyn/checklist-bot/version"
)

var statusColors = map[model.TaskStatus]*color.Color{
	model.TaskStatusPending: color.New(color.FgYellow),
	model.TaskStatusActive:  color.New(color.FgCyan, color.Bold),
	model.TaskStatusDone:    color.New(color.FgGreen),
}

func printTask(out io.Writer, t model.Task) {
	status := fmt.Sprintf("%-7s", t.Status)
	if c, ok := statusColors[t.Status]; ok {
		status = c.Sprint(status)
	}
	fmt.Fprintf(out, "%d\t%s\t%s\n", t.ID, status, t.Title)
}

func printTasks(out io.Writer, c model.TaskCollection) {
	if len(c) == 0 {
		fmt.Fprintln(out, "no tasks")
		return
	}
	for _, t := range c {
		printTask(out, t)
	}
}

// lookup loads the checklist and returns the task with the id in args.
func lookup(ctx context.Context, env *Env, cmd Command, args []string, errOut io.Writer) (model.Task, int) {
	if len(args) != 1 {
		return model.Task{}, usageError(errOut, cmd, "task id required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return model.Task{}, usageError(errOut, cmd, fmt.Sprintf("invalid task id: %s", args[0]))
	}

	c, err := env.View.Load(ctx)
	if err != nil {
		return model.Task{}, fail(errOut, err)
	}
	t, ok := c.Find(id)
	if !ok {
		fmt.Fprintf(errOut, "error: task not found: %d\n", id)
		return model.Task{}, UserError
	}
	return t, Success
}

type listCmd struct{}

func (c *listCmd) Name() string                { return "list" }
func (c *listCmd) Synopsis() string            { return "Show all tasks" }
func (c *listCmd) Usage() string               { return "checklist list" }
func (c *listCmd) NeedsStore() bool            { return true }
func (c *listCmd) RegisterFlags(*flag.FlagSet) {}

func (c *listCmd) Run(ctx context.Context, env *Env, _ []string, out, errOut io.Writer) int {
	visible, err := env.View.Load(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	printTasks(out, visible)
	return Success
}

type addCmd struct{}

func (c *addCmd) Name() string                { return "add" }
func (c *addCmd) Synopsis() string            { return "Add a pending task" }
func (c *addCmd) Usage() string               { return "checklist add <title...>" }
func (c *addCmd) NeedsStore() bool            { return true }
func (c *addCmd) RegisterFlags(*flag.FlagSet) {}

func (c *addCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if _, err := env.View.Add(ctx, joinArgs(args)); err != nil {
		return fail(errOut, err)
	}
	all := env.View.Canonical()
	printTask(out, all[len(all)-1])
	return Success
}

// advanceCmd moves a task along one of the allowed transitions.
type advanceCmd struct {
	action model.TaskAction
}

func (c *advanceCmd) Name() string                { return string(c.action) }
func (c *advanceCmd) Usage() string               { return fmt.Sprintf("checklist %s <id>", c.action) }
func (c *advanceCmd) NeedsStore() bool            { return true }
func (c *advanceCmd) RegisterFlags(*flag.FlagSet) {}

func (c *advanceCmd) Synopsis() string {
	var from []string
	var to model.TaskStatus
	for _, tr := range model.Transitions {
		if tr.Action == c.action {
			from = append(from, string(tr.From))
			to = tr.To
		}
	}
	return fmt.Sprintf("Move a %s task to %s", strings.Join(from, " or "), to)
}

func (c *advanceCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	t, code := lookup(ctx, env, c, args, errOut)
	if code != Success {
		return code
	}
	tr, err := model.ResolveAction(t.Status, c.action)
	if err != nil {
		return fail(errOut, err)
	}
	visible, err := env.View.AdvanceState(ctx, t.ID, tr.To)
	if err != nil {
		return fail(errOut, err)
	}
	if updated, ok := visible.Find(t.ID); ok {
		printTask(out, updated)
	}
	return Success
}

type rmCmd struct{}

func (c *rmCmd) Name() string                { return "rm" }
func (c *rmCmd) Synopsis() string            { return "Delete a task" }
func (c *rmCmd) Usage() string               { return "checklist rm <id>" }
func (c *rmCmd) NeedsStore() bool            { return true }
func (c *rmCmd) RegisterFlags(*flag.FlagSet) {}

func (c *rmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	t, code := lookup(ctx, env, c, args, errOut)
	if code != Success {
		return code
	}
	if _, err := env.View.Delete(ctx, t.ID); err != nil {
		return fail(errOut, err)
	}
	fmt.Fprintf(out, "removed %d\n", t.ID)
	return Success
}

type searchCmd struct{}

func (c *searchCmd) Name() string                { return "search" }
func (c *searchCmd) Synopsis() string            { return "Show tasks whose title contains a term" }
func (c *searchCmd) Usage() string               { return "checklist search <term...>" }
func (c *searchCmd) NeedsStore() bool            { return true }
func (c *searchCmd) RegisterFlags(*flag.FlagSet) {}

func (c *searchCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if _, err := env.View.Load(ctx); err != nil {
		return fail(errOut, err)
	}
	visible, err := env.View.SetFilter(ctx, joinArgs(args))
	if err != nil {
		return fail(errOut, err)
	}
	printTasks(out, visible)
	return Success
}

type exportCmd struct {
	format string
	out    string
}

func (c *exportCmd) Name() string     { return "export" }
func (c *exportCmd) Synopsis() string { return "Write the checklist as JSON, CSV or PDF" }
func (c *exportCmd) NeedsStore() bool { return true }

func (c *exportCmd) Usage() string {
	return fmt.Sprintf("checklist export [--format %s] [--out <file>]", strings.Join(export.Formats, "|"))
}

func (c *exportCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.format, "format", export.FormatJSON, "")
	fs.StringVar(&c.out, "out", "", "")
}

func (c *exportCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, c, "unexpected arguments: "+joinArgs(args))
	}
	all, err := env.View.Load(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	data, err := export.Export(all, c.format, "Checklist")
	if err != nil {
		return usageError(errOut, c, err.Error())
	}

	if c.out == "" {
		if _, err := out.Write(data); err != nil {
			return fail(errOut, err)
		}
		return Success
	}
	if err := os.WriteFile(c.out, data, 0o644); err != nil {
		return fail(errOut, fmt.Errorf("could not write export: %w", err))
	}
	fmt.Fprintf(out, "exported %d tasks to %s\n", len(all), c.out)
	return Success
}

type tuiCmd struct {
	run TUIRunner
}

func (c *tuiCmd) Name() string                { return "tui" }
func (c *tuiCmd) Synopsis() string            { return "Open the interactive checklist" }
func (c *tuiCmd) Usage() string               { return "checklist tui" }
func (c *tuiCmd) NeedsStore() bool            { return true }
func (c *tuiCmd) RegisterFlags(*flag.FlagSet) {}

func (c *tuiCmd) Run(ctx context.Context, env *Env, _ []string, _, errOut io.Writer) int {
	err := c.run(ctx, env.View, tui.Options{
		Debounce: env.Settings.Debounce,
		Logger:   env.Logger,
	})
	if err != nil {
		return fail(errOut, err)
	}
	return Success
}

type versionCmd struct{}

func (c *versionCmd) Name() string                { return "version" }
func (c *versionCmd) Synopsis() string            { return "Show version" }
func (c *versionCmd) Usage() string               { return "checklist version" }
func (c *versionCmd) NeedsStore() bool            { return false }
func (c *versionCmd) RegisterFlags(*flag.FlagSet) {}

func (c *versionCmd) Run(_ context.Context, _ *Env, _ []string, out, _ io.Writer) int {
	fmt.Fprintf(out, "checklist %s\n", version.String())
	return Success
}

type helpCmd struct {
	registry registry
}

func (c *helpCmd) Name() string                { return "help" }
func (c *helpCmd) Synopsis() string            { return "Show this help" }
func (c *helpCmd) Usage() string               { return "checklist help [command]" }
func (c *helpCmd) NeedsStore() bool            { return false }
func (c *helpCmd) RegisterFlags(*flag.FlagSet) {}

func (c *helpCmd) Run(_ context.Context, _ *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		cmd, ok := c.registry[args[0]]
		if !ok {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
			return UserError
		}
		fmt.Fprintf(out, "Usage: %s\n\n%s\n", cmd.Usage(), cmd.Synopsis())
		return Success
	}

	fmt.Fprintln(out, "Usage: checklist [global flags] <command> [args]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, cmd := range c.registry.sorted() {
		fmt.Fprintf(out, "  %-8s %s\n", cmd.Name(), cmd.Synopsis())
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Global flags: -config, -log-level, -store, -dsn, -key, -filter-mode, -corrupt-policy, -debounce")
	fmt.Fprintf(out, "Each flag can also be set with the %s_<NAME> environment variable.\n", EnvPrefix)
	return Success
}
