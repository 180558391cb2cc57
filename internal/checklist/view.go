package checklist

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/agalitsyn/checklist-bot/internal/model"
)

type FilterMode string

const (
	// FilterCanonical computes the visible sequence from the stored
	// collection and the active term on every change.
	FilterCanonical FilterMode = "canonical"
	// FilterLastRendered narrows whatever is currently visible, so
	// successive terms compound. Mutations show the full collection again.
	FilterLastRendered FilterMode = "last-rendered"
)

func ParseFilterMode(s string) (FilterMode, error) {
	switch m := FilterMode(s); m {
	case FilterCanonical, FilterLastRendered:
		return m, nil
	case "":
		return FilterCanonical, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}

// Filter returns the tasks of c whose title contains term, ignoring case.
// An empty term matches everything.
func Filter(c model.TaskCollection, term string) model.TaskCollection {
	res := make(model.TaskCollection, 0, len(c))
	if term == "" {
		return append(res, c...)
	}

	fold := cases.Fold()
	needle := fold.String(term)
	for _, t := range c {
		if strings.Contains(fold.String(t.Title), needle) {
			res = append(res, t)
		}
	}
	return res
}

// View pairs the canonical collection with the active search term and keeps
// the sequence a surface renders. A failed operation leaves it untouched.
type View struct {
	mu   sync.Mutex
	svc  *Service
	mode FilterMode

	canonical model.TaskCollection
	visible   model.TaskCollection
	term      string
}

func NewView(svc *Service, mode FilterMode) *View {
	if mode == "" {
		mode = FilterCanonical
	}
	return &View{
		svc:       svc,
		mode:      mode,
		canonical: model.TaskCollection{},
		visible:   model.TaskCollection{},
	}
}

func (v *View) Mode() FilterMode {
	return v.mode
}

func (v *View) Visible() model.TaskCollection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.visible.Clone()
}

func (v *View) Canonical() model.TaskCollection {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.canonical.Clone()
}

func (v *View) Term() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.term
}

func (v *View) Load(ctx context.Context) (model.TaskCollection, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.load(ctx)
}

// SetFilter applies term against the sequence visible right now.
func (v *View) SetFilter(ctx context.Context, term string) (model.TaskCollection, error) {
	return v.ApplyFilter(ctx, term, v.Visible())
}

// ApplyFilter applies term with base as the sequence to narrow. Only the
// last-rendered mode reads base; the canonical mode reloads the collection.
func (v *View) ApplyFilter(ctx context.Context, term string, base model.TaskCollection) (model.TaskCollection, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if term == "" {
		v.term = ""
		return v.load(ctx)
	}

	if v.mode == FilterLastRendered {
		if len(base) == 0 {
			return v.visible.Clone(), nil
		}
		v.term = term
		v.visible = Filter(base, term)
		return v.visible.Clone(), nil
	}

	c, err := v.svc.Load(ctx)
	if err != nil {
		return nil, err
	}
	v.term = term
	v.canonical = c
	v.visible = Filter(c, term)
	return v.visible.Clone(), nil
}

func (v *View) Add(ctx context.Context, title string) (model.TaskCollection, error) {
	return v.mutate(func() (model.TaskCollection, error) {
		return v.svc.Add(ctx, title)
	})
}

func (v *View) Delete(ctx context.Context, id int64) (model.TaskCollection, error) {
	return v.mutate(func() (model.TaskCollection, error) {
		return v.svc.Delete(ctx, id)
	})
}

func (v *View) AdvanceState(ctx context.Context, id int64, status model.TaskStatus) (model.TaskCollection, error) {
	return v.mutate(func() (model.TaskCollection, error) {
		return v.svc.AdvanceState(ctx, id, status)
	})
}

func (v *View) mutate(fn func() (model.TaskCollection, error)) (model.TaskCollection, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	c, err := fn()
	if err != nil {
		return nil, err
	}
	v.show(c)
	return v.visible.Clone(), nil
}

func (v *View) load(ctx context.Context) (model.TaskCollection, error) {
	c, err := v.svc.Load(ctx)
	if err != nil {
		return nil, err
	}
	v.show(c)
	return v.visible.Clone(), nil
}

func (v *View) show(c model.TaskCollection) {
	v.canonical = c
	if v.mode == FilterLastRendered {
		v.term = ""
		v.visible = c.Clone()
		return
	}
	v.visible = Filter(c, v.term)
}
