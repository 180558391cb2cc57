package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agalitsyn/checklist-bot/internal/checklist"
	"github.com/agalitsyn/checklist-bot/internal/cli"
	"github.com/agalitsyn/checklist-bot/internal/model"
	"github.com/agalitsyn/checklist-bot/internal/storage/memory"
	"github.com/agalitsyn/checklist-bot/internal/tui"
)

func init() {
	color.NoColor = true
}

type harness struct {
	store  *memory.KVStorage
	driver string
	dsn    string
	tui    func(ctx context.Context, view *checklist.View, opts tui.Options) error
	d      *cli.Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{store: memory.NewKVStorage()}
	h.d = cli.NewDispatcher(
		func(_ context.Context, driver, dsn string) (model.KVStorage, func() error, error) {
			h.driver, h.dsn = driver, dsn
			return h.store, func() error { return nil }, nil
		},
		func(ctx context.Context, view *checklist.View, opts tui.Options) error {
			return h.tui(ctx, view, opts)
		},
	)
	return h
}

func (h *harness) run(args ...string) (stdout, stderr string, code int) {
	var out, errOut bytes.Buffer
	code = h.d.Run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func (h *harness) stored(t *testing.T, key string) model.TaskCollection {
	t.Helper()
	raw, ok := h.store.Raw(key)
	require.True(t, ok, "nothing stored under %q", key)
	c, err := checklist.DecodeCollection(raw)
	require.NoError(t, err)
	return c
}

func idOf(t *testing.T, line string) string {
	t.Helper()
	fields := strings.Fields(line)
	require.NotEmpty(t, fields)
	return fields[0]
}

func TestAddListAndTransitions(t *testing.T) {
	h := newHarness(t)

	stdout, stderr, code := h.run("list")
	require.Equal(t, cli.Success, code, stderr)
	assert.Equal(t, "no tasks\n", stdout)

	stdout, _, code = h.run("add", "buy", "milk")
	require.Equal(t, cli.Success, code)
	assert.Contains(t, stdout, "pending")
	assert.Contains(t, stdout, "buy milk")
	id := idOf(t, stdout)

	stdout, _, code = h.run("start", id)
	require.Equal(t, cli.Success, code)
	assert.Contains(t, stdout, "active")

	_, stderr, code = h.run("start", id)
	assert.Equal(t, cli.UserError, code)
	assert.Contains(t, stderr, "transition not allowed")

	_, _, code = h.run("finish", id)
	require.Equal(t, cli.Success, code)

	stdout, _, code = h.run()
	require.Equal(t, cli.Success, code)
	assert.Contains(t, stdout, "done")
	assert.Contains(t, stdout, "buy milk")

	c := h.stored(t, checklist.DefaultKey)
	require.Len(t, c, 1)
	assert.Equal(t, model.TaskStatusDone, c[0].Status)
	assert.Equal(t, "sqlite", h.driver)
	assert.Equal(t, "checklist.db", h.dsn)
}

func TestAddEmptyTitle(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.run("add", "  ")
	assert.Equal(t, cli.UserError, code)
	assert.Contains(t, stderr, "title: field required")
	assert.Equal(t, 0, h.store.Writes())

	_, stderr, code = h.run("add", "bad\xff")
	assert.Equal(t, cli.UserError, code)
	assert.Contains(t, stderr, "title: invalid UTF-8 text")
	assert.Equal(t, 0, h.store.Writes())
}

func TestRemove(t *testing.T) {
	h := newHarness(t)
	stdout, _, _ := h.run("add", "one")
	id := idOf(t, stdout)
	h.run("add", "two")

	stdout, _, code := h.run("rm", id)
	require.Equal(t, cli.Success, code)
	assert.Equal(t, "removed "+id+"\n", stdout)

	_, stderr, code := h.run("rm", id)
	assert.Equal(t, cli.UserError, code)
	assert.Contains(t, stderr, "task not found")

	_, stderr, code = h.run("rm", "abc")
	assert.Equal(t, cli.UserError, code)
	assert.Contains(t, stderr, "invalid task id")

	_, stderr, code = h.run("pause")
	assert.Equal(t, cli.UserError, code)
	assert.Contains(t, stderr, "usage: checklist pause <id>")

	c := h.stored(t, checklist.DefaultKey)
	require.Len(t, c, 1)
	assert.Equal(t, "two", c[0].Title)
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	h.run("add", "Buy milk")
	h.run("add", "Bake bread")

	stdout, _, code := h.run("search", "MILK")
	require.Equal(t, cli.Success, code)
	assert.Contains(t, stdout, "Buy milk")
	assert.NotContains(t, stdout, "Bake bread")

	stdout, _, _ = h.run("-filter-mode", "last-rendered", "search", "zzz")
	assert.Equal(t, "no tasks\n", stdout)

	stdout, _, _ = h.run("search")
	assert.Contains(t, stdout, "Buy milk")
	assert.Contains(t, stdout, "Bake bread")
}

func TestGlobalFlags(t *testing.T) {
	h := newHarness(t)

	_, _, code := h.run("-key", "work", "-store", "memory", "-dsn", "x", "add", "report")
	require.Equal(t, cli.Success, code)
	assert.Len(t, h.stored(t, "work"), 1)
	_, ok := h.store.Raw(checklist.DefaultKey)
	assert.False(t, ok)
	assert.Equal(t, "memory", h.driver)

	_, stderr, code := h.run("-filter-mode", "fuzzy", "list")
	assert.Equal(t, cli.ConfigError, code)
	assert.Contains(t, stderr, "fuzzy")

	_, _, code = h.run("-no-such-flag")
	assert.Equal(t, cli.ConfigError, code)

	_, stderr, code = h.run("frobnicate")
	assert.Equal(t, cli.UserError, code)
	assert.Contains(t, stderr, "unknown command: frobnicate")
}

func TestConfigFile(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(t.TempDir(), "checklist.toml")
	require.NoError(t, os.WriteFile(path, []byte("key = \"from-file\"\nstore = \"memory\"\n"), 0o644))

	_, stderr, code := h.run("-config", path, "add", "x")
	require.Equal(t, cli.Success, code, stderr)
	assert.Len(t, h.stored(t, "from-file"), 1)

	_, _, code = h.run("-config", path, "-key", "flag", "add", "y")
	require.Equal(t, cli.Success, code)
	assert.Len(t, h.stored(t, "flag"), 1)

	_, _, code = h.run("-config", filepath.Join(t.TempDir(), "missing.toml"), "list")
	assert.Equal(t, cli.ConfigError, code)
}

func TestCorruptState(t *testing.T) {
	h := newHarness(t)
	h.store.Put(checklist.DefaultKey, []byte(`{"not":"a list"}`))

	_, stderr, code := h.run("add", "x")
	assert.Equal(t, cli.StorageError, code)
	assert.Contains(t, stderr, "damaged")
	raw, _ := h.store.Raw(checklist.DefaultKey)
	assert.Equal(t, `{"not":"a list"}`, string(raw))

	stdout, stderr, code := h.run("-corrupt-policy", "reset", "list")
	require.Equal(t, cli.Success, code)
	assert.Equal(t, "no tasks\n", stdout)
	assert.Contains(t, stderr, "[WARN]")
}

func TestStoreErrors(t *testing.T) {
	h := newHarness(t)
	h.store.GetErr = errors.New("disk on fire")

	_, stderr, code := h.run("list")
	assert.Equal(t, cli.StorageError, code)
	assert.Contains(t, stderr, "disk on fire")

	d := cli.NewDispatcher(func(context.Context, string, string) (model.KVStorage, func() error, error) {
		return nil, nil, errors.New("no database")
	}, nil)
	var out, errOut bytes.Buffer
	code = d.Run(context.Background(), []string{"list"}, &out, &errOut)
	assert.Equal(t, cli.StorageError, code)
	assert.Contains(t, errOut.String(), "could not open store: no database")

	var versionOut bytes.Buffer
	code = d.Run(context.Background(), []string{"version"}, &versionOut, &errOut)
	assert.Equal(t, cli.Success, code, "version does not open the store")
	assert.True(t, strings.HasPrefix(versionOut.String(), "checklist "))
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	stdout, _, _ := h.run("add", "Buy milk")
	id := idOf(t, stdout)

	stdout, _, code := h.run("export", "--format", "csv")
	require.Equal(t, cli.Success, code)
	assert.Equal(t, "id,title,status\n"+id+",Buy milk,pending\n", stdout)

	stdout, _, code = h.run("export")
	require.Equal(t, cli.Success, code)
	assert.Contains(t, stdout, `"Buy milk"`)
	assert.Contains(t, stdout, "\n  ")

	path := filepath.Join(t.TempDir(), "out.pdf")
	stdout, _, code = h.run("export", "-format", "pdf", "-out", path)
	require.Equal(t, cli.Success, code)
	assert.Equal(t, "exported 1 tasks to "+path+"\n", stdout)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	_, stderr, code := h.run("export", "--format", "xml")
	assert.Equal(t, cli.UserError, code)
	assert.Contains(t, stderr, "unknown format")

	_, _, code = h.run("export", "--bogus")
	assert.Equal(t, cli.UserError, code)
}

func TestTUI(t *testing.T) {
	h := newHarness(t)
	h.tui = func(ctx context.Context, view *checklist.View, opts tui.Options) error {
		_, err := view.Add(ctx, "from tui")
		return err
	}

	_, _, code := h.run("-debounce", "5ms", "tui")
	require.Equal(t, cli.Success, code)
	assert.Len(t, h.stored(t, checklist.DefaultKey), 1)

	h.tui = func(context.Context, *checklist.View, tui.Options) error {
		return errors.New("no terminal")
	}
	_, stderr, code := h.run("tui")
	assert.Equal(t, cli.StorageError, code)
	assert.Contains(t, stderr, "no terminal")
}

func TestHelp(t *testing.T) {
	h := newHarness(t)

	stdout, _, code := h.run("help")
	require.Equal(t, cli.Success, code)
	for _, name := range []string{"add", "export", "finish", "list", "pause", "rm", "search", "start", "tui", "version"} {
		assert.Contains(t, stdout, "  "+name)
	}
	assert.Contains(t, stdout, "Move a pending task to active")

	stdout, _, code = h.run("help", "rm")
	require.Equal(t, cli.Success, code)
	assert.Contains(t, stdout, "checklist rm <id>")

	_, _, code = h.run("help", "nope")
	assert.Equal(t, cli.UserError, code)
}
