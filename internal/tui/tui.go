// Package tui provides the terminal interface of the checklist.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"

	"github.com/agalitsyn/checklist-bot/internal/checklist"
	"github.com/agalitsyn/checklist-bot/internal/model"
)

type Options struct {
	Debounce time.Duration
	Logger   lgr.L
	Input    io.Reader
	Output   io.Writer
}

// Run shows the checklist kept by view until the user quits or ctx is done.
func Run(ctx context.Context, view *checklist.View, opts Options) error {
	var program *tea.Program
	session := checklist.NewSession(view, checklist.SessionOptions{
		Debounce: opts.Debounce,
		Logger:   opts.Logger,
		Render: func(term string, visible model.TaskCollection, err error) {
			program.Send(searchMsg{term: term, visible: visible, err: err})
		},
	})
	defer session.Close()

	progOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		progOpts = append(progOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		progOpts = append(progOpts, tea.WithOutput(opts.Output))
	}
	program = tea.NewProgram(New(ctx, session), progOpts...)

	final, err := program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	if m, ok := final.(*Model); ok && m.fatal != nil {
		return m.fatal
	}
	return nil
}

// searchMsg carries the result of a debounced search for term.
type searchMsg struct {
	term    string
	visible model.TaskCollection
	err     error
}

type loadedMsg struct {
	visible model.TaskCollection
	err     error
}

// Model is the bubbletea model: one input line that is both the next task
// title and the search term, and the visible tasks below it.
type Model struct {
	ctx     context.Context
	session *checklist.Session

	input   string
	visible model.TaskCollection
	cursor  int
	status  string
	fatal   error
}

func New(ctx context.Context, session *checklist.Session) *Model {
	return &Model{ctx: ctx, session: session}
}

func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		visible, err := m.session.Start(m.ctx)
		return loadedMsg{visible: visible, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.fatal = msg.err
			return m, tea.Quit
		}
		m.show(msg.visible)
	case searchMsg:
		// typed or submitted since the search was scheduled
		if msg.term != m.input {
			return m, nil
		}
		if msg.err != nil {
			m.status = errorText(msg.err)
			return m, nil
		}
		m.show(msg.visible)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return tea.Quit
	case tea.KeyEnter:
		m.apply(m.session.Submit(m.ctx))
		if m.session.Draft() == "" {
			m.input = ""
		}
	case tea.KeyUp:
		if m.cursor > 0 {
			m.cursor--
		}
	case tea.KeyDown:
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case tea.KeyBackspace:
		if m.input != "" {
			r := []rune(m.input)
			m.typeText(string(r[:len(r)-1]))
		}
	case tea.KeyCtrlD, tea.KeyDelete:
		m.deleteSelected()
	case tea.KeyCtrlS:
		m.advanceSelected(model.TaskActionStart)
	case tea.KeyCtrlP:
		m.advanceSelected(model.TaskActionPause)
	case tea.KeyCtrlF:
		m.advanceSelected(model.TaskActionFinish)
	case tea.KeySpace:
		m.typeText(m.input + " ")
	case tea.KeyRunes:
		m.typeText(m.input + string(msg.Runes))
	}
	return nil
}

func (m *Model) advanceSelected(action model.TaskAction) {
	task, ok := m.selected()
	if !ok {
		return
	}
	m.apply(m.session.Advance(m.ctx, task.ID, action))
}

func (m *Model) deleteSelected() {
	task, ok := m.selected()
	if !ok {
		return
	}
	m.apply(m.session.Delete(m.ctx, task.ID))
}

func (m *Model) typeText(text string) {
	m.input = text
	m.status = ""
	m.session.Type(m.ctx, text)
}

func (m *Model) selected() (model.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return model.Task{}, false
	}
	return m.visible[m.cursor], true
}

func (m *Model) apply(visible model.TaskCollection, err error) {
	if err != nil {
		m.status = errorText(err)
		return
	}
	m.status = ""
	m.show(visible)
}

func (m *Model) show(visible model.TaskCollection) {
	m.visible = visible
	if m.cursor >= len(visible) {
		m.cursor = len(visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func errorText(err error) string {
	var corrupt *model.CorruptStateError
	switch {
	case errors.Is(err, model.ErrFieldRequired):
		return "Fill in the task title first."
	case errors.Is(err, model.ErrInvalidText):
		return "The task title is not valid text."
	case errors.Is(err, model.ErrTransitionNotAllowed):
		return "This action is not available for the task."
	case errors.As(err, &corrupt):
		return "The saved checklist is damaged and was left untouched."
	default:
		return fmt.Sprintf("Error: %s", err)
	}
}

var statusColors = map[model.TaskStatus]*color.Color{
	model.TaskStatusPending: color.New(color.FgYellow),
	model.TaskStatusActive:  color.New(color.FgCyan),
	model.TaskStatusDone:    color.New(color.FgGreen),
}

func (m *Model) View() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "> %s\n\n", m.input)

	if len(m.visible) == 0 {
		sb.WriteString("  no tasks\n")
	}
	for i, t := range m.visible {
		pointer := " "
		if i == m.cursor {
			pointer = ">"
		}
		status := string(t.Status)
		if c, ok := statusColors[t.Status]; ok {
			status = c.Sprint(status)
		}
		fmt.Fprintf(&sb, "%s [%s] %s\n", pointer, status, t.Title)
	}

	if m.status != "" {
		fmt.Fprintf(&sb, "\n%s\n", m.status)
	}
	sb.WriteString("\nenter add · ctrl+s start · ctrl+p pause · ctrl+f finish · ctrl+d delete · esc quit\n")
	return sb.String()
}
