package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/agalitsyn/flagutils"
	"github.com/agalitsyn/secret"

	"github.com/agalitsyn/checklist-bot/internal/checklist"
	"github.com/agalitsyn/checklist-bot/internal/config"
	"github.com/agalitsyn/checklist-bot/internal/logging"
	"github.com/agalitsyn/checklist-bot/version"
)

const EnvPrefix = "CHECKLIST_BOT"

type Config struct {
	Debug bool

	Log struct {
		Level string
	}

	Token secret.String

	Store struct {
		Driver string
		DSN    secret.String
	}

	Checklist struct {
		KeyPrefix     string
		FilterMode    checklist.FilterMode
		CorruptPolicy checklist.CorruptPolicy
		Debounce      time.Duration
	}

	UpdateTimeout int
}

func (c Config) String() string {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(0)
	}
	return string(b)
}

func ParseFlags() Config {
	var cfg Config

	printVersion := flag.Bool("version", false, "Show version.")
	configFile := flag.String("config", "", "Path to TOML file with defaults for the flags below.")
	logLevel := flag.String("log-level", "info", "Log level (trace | debug | info | warn | error).")
	token := flag.String("token", "", "Telegram bot token.")
	driver := flag.String("store", "sqlite", "Store driver (sqlite | mysql | memory).")
	dsn := flag.String("dsn", "checklist.db", "Store DSN: database file for sqlite, DSN for mysql.")
	keyPrefix := flag.String("key-prefix", checklist.DefaultKey, "Storage key prefix, the chat id is appended.")
	filterMode := flag.String("filter-mode", string(checklist.FilterCanonical), "Search filter mode (canonical | last-rendered).")
	corruptPolicy := flag.String("corrupt-policy", string(checklist.CorruptPolicyFail), "What to do with unreadable saved data (fail | reset).")
	debounce := flag.Duration("debounce", checklist.DefaultDebounce, "Delay before a typed search runs.")
	updateTimeout := flag.Int("update-timeout", 60, "Telegram long polling timeout in seconds.")

	flagutils.Prefix = EnvPrefix
	flagutils.Parse()
	flag.Parse()

	if *configFile != "" {
		if err := config.ApplyFile(flag.CommandLine, *configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	if *printVersion {
		fmt.Fprintln(os.Stdout, version.String())
		os.Exit(0)
	}

	cfg.Log.Level = *logLevel
	cfg.Debug = logging.IsDebug(*logLevel)

	cfg.Token = secret.NewString(*token)
	cfg.Store.Driver = *driver
	cfg.Store.DSN = secret.NewString(*dsn)

	mode, err := checklist.ParseFilterMode(*filterMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	policy, err := checklist.ParseCorruptPolicy(*corruptPolicy)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.Checklist.KeyPrefix = *keyPrefix
	cfg.Checklist.FilterMode = mode
	cfg.Checklist.CorruptPolicy = policy
	cfg.Checklist.Debounce = *debounce
	cfg.UpdateTimeout = *updateTimeout

	return cfg
}
