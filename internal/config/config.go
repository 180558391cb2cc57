// Package config fills flags from an optional TOML file. Values given on
// the command line or through the environment take precedence over it.
package config

import (
	"flag"
	"fmt"
	"sort"
	"strconv"

	"github.com/BurntSushi/toml"
)

// ApplyFile sets every flag named by a top-level key of the TOML file at
// path, unless the flag was already set.
func ApplyFile(fs *flag.FlagSet, path string) error {
	var values map[string]any
	if _, err := toml.DecodeFile(path, &values); err != nil {
		return fmt.Errorf("could not read config file: %w", err)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if fs.Lookup(name) == nil {
			return fmt.Errorf("unknown config key %q", name)
		}
		if set[name] {
			continue
		}
		value, err := formatValue(values[name])
		if err != nil {
			return fmt.Errorf("config key %q: %w", name, err)
		}
		if err := fs.Set(name, value); err != nil {
			return fmt.Errorf("config key %q: %w", name, err)
		}
	}
	return nil
}

func formatValue(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
