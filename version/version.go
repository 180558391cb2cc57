// Package version reports the build the binaries were made from.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Tag is set with -ldflags "-X github.com/agalitsyn/checklist-bot/version.Tag=v1.2.3".
var Tag string

type Build struct {
	Tag      string
	Revision string
	Time     time.Time
	Dirty    bool
}

func current() Build {
	b := Build{Tag: Tag}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}

	for _, setting := range info.Settings {
		// https://pkg.go.dev/runtime/debug#BuildSetting
		switch setting.Key {
		case "vcs.revision":
			b.Revision = setting.Value
		case "vcs.time":
			b.Time, _ = time.Parse(time.RFC3339, setting.Value)
		case "vcs.modified":
			b.Dirty = setting.Value == "true"
		}
	}
	return b
}

func String() string {
	return current().String()
}

func (b Build) String() string {
	// go run, go test
	if b.Revision == "" {
		if b.Tag != "" {
			return b.Tag
		}
		return "dev"
	}

	rev := b.Revision
	if len(rev) > 7 {
		rev = rev[:7]
	}
	s := rev
	if b.Tag != "" {
		s = b.Tag + " " + rev
	}
	if !b.Time.IsZero() {
		s += fmt.Sprintf(" at %s", b.Time.UTC().Format("2006-01-02 15:04:05"))
	}
	if b.Dirty {
		s += " dirty"
	}
	return s
}
