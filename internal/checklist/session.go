package checklist

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/agalitsyn/checklist-bot/internal/model"
)

// RenderFunc receives the visible sequence after a debounced search for term
// ran.
type RenderFunc func(term string, visible model.TaskCollection, err error)

type SessionOptions struct {
	Debounce time.Duration
	Render   RenderFunc
	Logger   lgr.L
}

// Session is one input box over a View: the text typed there is both the
// title of the next task and the search term.
type Session struct {
	view     *View
	debounce *Debouncer
	render   RenderFunc
	log      lgr.L

	mu    sync.Mutex
	draft string
}

func NewSession(view *View, opts SessionOptions) *Session {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Render == nil {
		opts.Render = func(string, model.TaskCollection, error) {}
	}
	if opts.Logger == nil {
		opts.Logger = lgr.NoOp
	}
	return &Session{
		view:     view,
		debounce: NewDebouncer(opts.Debounce),
		render:   opts.Render,
		log:      opts.Logger,
	}
}

func (s *Session) View() *View {
	return s.view
}

func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) Start(ctx context.Context) (model.TaskCollection, error) {
	return s.view.Load(ctx)
}

// Type records text and schedules a search for it. The sequence visible now
// is the base the search narrows once the debounce window passes.
func (s *Session) Type(ctx context.Context, text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()

	base := s.view.Visible()
	s.debounce.Trigger(func() {
		visible, err := s.view.ApplyFilter(ctx, text, base)
		if err != nil {
			s.log.Logf("[ERROR] search %q: %s", text, err)
		}
		s.render(text, visible, err)
	})
}

// Flush runs a scheduled search immediately.
func (s *Session) Flush() {
	s.debounce.Flush()
}

// Submit adds the draft as a task. The draft survives a failed add; a
// successful one clears it along with the search.
func (s *Session) Submit(ctx context.Context) (model.TaskCollection, error) {
	visible, err := s.Add(ctx, s.Draft())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.draft = ""
	s.mu.Unlock()
	return visible, nil
}

// Add adds a task with the given title and clears the search.
func (s *Session) Add(ctx context.Context, title string) (model.TaskCollection, error) {
	if _, err := s.view.Add(ctx, title); err != nil {
		return nil, err
	}
	s.debounce.Cancel()
	return s.view.ApplyFilter(ctx, "", nil)
}

func (s *Session) Delete(ctx context.Context, id int64) (model.TaskCollection, error) {
	return s.view.Delete(ctx, id)
}

// Advance applies action to task id if the transition policy offers it for
// the task's current status. Unknown ids leave the view as is.
func (s *Session) Advance(ctx context.Context, id int64, action model.TaskAction) (model.TaskCollection, error) {
	task, ok := s.view.Canonical().Find(id)
	if !ok {
		return s.view.Visible(), nil
	}

	tr, err := model.ResolveAction(task.Status, action)
	if err != nil {
		return nil, err
	}
	return s.view.AdvanceState(ctx, id, tr.To)
}

// Close cancels any scheduled search; the session must not be typed into
// afterwards.
func (s *Session) Close() {
	s.debounce.Stop()
}
