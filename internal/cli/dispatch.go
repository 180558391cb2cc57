// Package cli implements the checklist command line: global flags, a
// command registry and the commands themselves.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agalitsyn/flagutils"

	"github.com/agalitsyn/checklist-bot/internal/checklist"
	"github.com/agalitsyn/checklist-bot/internal/config"
	"github.com/agalitsyn/checklist-bot/internal/logging"
	"github.com/agalitsyn/checklist-bot/internal/model"
	"github.com/agalitsyn/checklist-bot/internal/storage"
	"github.com/agalitsyn/checklist-bot/internal/tui"
)

const EnvPrefix = "CHECKLIST"

// Settings are the global flags, shared by every command.
type Settings struct {
	LogLevel      string
	Driver        string
	DSN           string
	Key           string
	FilterMode    checklist.FilterMode
	CorruptPolicy checklist.CorruptPolicy
	Debounce      time.Duration
}

// Opener opens the store a checklist is kept in.
type Opener func(ctx context.Context, driver, dsn string) (model.KVStorage, func() error, error)

// TUIRunner runs the interactive interface over view.
type TUIRunner func(ctx context.Context, view *checklist.View, opts tui.Options) error

type Dispatcher struct {
	open   Opener
	runTUI TUIRunner
}

// NewDispatcher returns a dispatcher using open for the store and runTUI for
// the tui command. Nil arguments select storage.Open and tui.Run.
func NewDispatcher(open Opener, runTUI TUIRunner) *Dispatcher {
	if open == nil {
		open = storage.Open
	}
	if runTUI == nil {
		runTUI = tui.Run
	}
	return &Dispatcher{open: open, runTUI: runTUI}
}

func (d *Dispatcher) commands() registry {
	r := registry{}
	r.register(
		&listCmd{},
		&addCmd{},
		&advanceCmd{action: model.TaskActionStart},
		&advanceCmd{action: model.TaskActionPause},
		&advanceCmd{action: model.TaskActionFinish},
		&rmCmd{},
		&searchCmd{},
		&exportCmd{},
		&tuiCmd{run: d.runTUI},
		&versionCmd{},
	)
	r.register(&helpCmd{registry: r})
	return r
}

// Run parses args, runs the selected command and returns the exit code.
// Without a command the checklist is listed.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("checklist", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	configFile := fs.String("config", "", "Path to TOML file with defaults for the flags below.")
	logLevel := fs.String("log-level", "info", "Log level (trace | debug | info | warn | error).")
	driver := fs.String("store", storage.DriverSQLite, "Store driver (sqlite | mysql | memory).")
	dsn := fs.String("dsn", "checklist.db", "Store DSN: database file for sqlite, DSN for mysql.")
	key := fs.String("key", checklist.DefaultKey, "Storage key of the checklist.")
	filterMode := fs.String("filter-mode", string(checklist.FilterCanonical), "Search filter mode (canonical | last-rendered).")
	corruptPolicy := fs.String("corrupt-policy", string(checklist.CorruptPolicyFail), "What to do with unreadable saved data (fail | reset).")
	debounce := fs.Duration("debounce", checklist.DefaultDebounce, "Delay before a typed search runs in the tui.")

	flagutils.Prefix = EnvPrefix
	flagutils.ParseFlagSet(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return ConfigError
	}
	if *configFile != "" {
		if err := config.ApplyFile(fs, *configFile); err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return ConfigError
		}
	}

	settings := Settings{
		LogLevel: *logLevel,
		Driver:   *driver,
		DSN:      *dsn,
		Key:      *key,
		Debounce: *debounce,
	}
	var err error
	if settings.FilterMode, err = checklist.ParseFilterMode(*filterMode); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return ConfigError
	}
	if settings.CorruptPolicy, err = checklist.ParseCorruptPolicy(*corruptPolicy); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return ConfigError
	}

	rest := fs.Args()
	name := "list"
	if len(rest) > 0 {
		name, rest = rest[0], rest[1:]
	}

	cmd, ok := d.commands()[name]
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", name)
		return UserError
	}
	return d.dispatch(ctx, cmd, settings, rest, out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmd Command, settings Settings, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\nusage: %s\n", err, cmd.Usage())
		return UserError
	}

	env := &Env{
		Settings: settings,
		Logger:   logging.New(settings.LogLevel, errOut),
	}
	if cmd.NeedsStore() {
		store, closeStore, err := d.open(ctx, settings.Driver, settings.DSN)
		if err != nil {
			fmt.Fprintf(errOut, "error: could not open store: %s\n", err)
			return StorageError
		}
		defer func() {
			if err := closeStore(); err != nil {
				env.Logger.Logf("[WARN] could not close store: %s", err)
			}
		}()

		svc := checklist.NewService(store, checklist.Options{
			Key:           settings.Key,
			CorruptPolicy: settings.CorruptPolicy,
			Logger:        env.Logger,
		})
		env.View = checklist.NewView(svc, settings.FilterMode)
	}
	return cmd.Run(ctx, env, fs.Args(), out, errOut)
}

// fail reports err and returns the exit code for it.
func fail(errOut io.Writer, err error) int {
	var validation *model.ValidationError
	var corrupt *model.CorruptStateError
	switch {
	case errors.As(err, &validation), errors.Is(err, model.ErrTransitionNotAllowed):
		fmt.Fprintf(errOut, "error: %s\n", err)
		return UserError
	case errors.As(err, &corrupt):
		fmt.Fprintf(errOut, "error: the saved checklist is damaged and was left untouched: %s\n", err)
		return StorageError
	default:
		fmt.Fprintf(errOut, "error: %s\n", err)
		return StorageError
	}
}

func usageError(errOut io.Writer, cmd Command, msg string) int {
	fmt.Fprintf(errOut, "error: %s\nusage: %s\n", msg, cmd.Usage())
	return UserError
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
