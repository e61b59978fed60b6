package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/todo/internal/app"
	"github.com/hylla/todo/internal/domain"
)

// Service is the application surface the controller drives.
type Service interface {
	AddTask(context.Context, domain.TaskInput) (domain.Task, error)
	MarkDone(context.Context, uint) error
	DeleteTask(context.Context, uint) (domain.Task, error)
	Archive(context.Context) (int, error)
	Undo(context.Context) (app.UndoResult, error)
	ListTasks(domain.ListOptions) []domain.Task
	ListArchived() []domain.Task
	Now() time.Time
}

// Tab selects which list is visible in browse mode.
type Tab int

const (
	TabActive Tab = iota
	TabArchived
)

// String returns the tab title.
func (t Tab) String() string {
	if t == TabArchived {
		return "Archived"
	}
	return "Active"
}

// Mode is the controller's top-level state.
type Mode int

const (
	ModeBrowse Mode = iota
	ModeCompose
	ModeQuit
	ModeFailed
)

// EventKind enumerates the logical input events.
type EventKind int

const (
	EventNone EventKind = iota
	EventMoveUp
	EventMoveDown
	EventSwitchTabLeft
	EventSwitchTabRight
	EventDeleteCurrent
	EventMarkDone
	EventAddTrigger
	EventArchiveTrigger
	EventUndo
	EventCopyCurrent
	EventQuit
	EventConfirm
	EventCancel
	EventSelectPriority
	EventChar
	EventBackspace
)

// Event is one decoded input. Priority is set for EventSelectPriority and
// Rune for EventChar.
type Event struct {
	Kind     EventKind
	Priority domain.Priority
	Rune     rune
}

// composeStep is one stage of the add-task wizard.
type composeStep interface {
	label() string
	prompt() string
}

type descriptionStep struct {
	buffer string
}

type tagsStep struct {
	description string
	buffer      string
}

type dueDateStep struct {
	description string
	tags        []string
	buffer      string
}

type priorityStep struct {
	description string
	tags        []string
	due         *time.Time
	priority    domain.Priority
}

func (descriptionStep) label() string  { return "Description" }
func (descriptionStep) prompt() string { return "What needs doing?" }
func (tagsStep) label() string         { return "Tags" }
func (tagsStep) prompt() string        { return "Comma-separated tags (optional)" }
func (dueDateStep) label() string      { return "Due date" }
func (dueDateStep) prompt() string     { return "YYYY-MM-DD (optional)" }
func (priorityStep) label() string     { return "Priority" }
func (priorityStep) prompt() string    { return "1 Low, 2 Medium, 3 High" }

// Row is one visible task line.
type Row struct {
	ID          uint
	Description string
	Completed   bool
	Selected    bool
}

// ComposeView describes the active wizard step.
type ComposeView struct {
	Step     string
	Prompt   string
	Buffer   string
	Priority domain.Priority
	// Choosing is true on the priority step, where Buffer is unused.
	Choosing bool
}

// RenderModel is everything a view needs to draw one frame.
type RenderModel struct {
	Mode     Mode
	Tab      Tab
	Rows     []Row
	Selected *domain.Task
	Status   string
	Compose  *ComposeView
	Now      time.Time
	Err      error
}

// Controller is the browse/compose state machine for an interactive session.
type Controller struct {
	ctx      context.Context
	svc      Service
	copyText func(string) error

	mode     Mode
	tab      Tab
	selected int
	step     composeStep
	status   string
	err      error
}

// NewController builds a controller in browse mode on the active tab.
// copyText may be nil, which disables the copy action.
func NewController(ctx context.Context, svc Service, copyText func(string) error) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Controller{
		ctx:      ctx,
		svc:      svc,
		copyText: copyText,
		mode:     ModeBrowse,
		tab:      TabActive,
	}
}

// Mode returns the current state.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Done reports whether the session has ended, by quit or by a fatal error.
func (c *Controller) Done() bool {
	return c.mode == ModeQuit || c.mode == ModeFailed
}

// Err returns the fatal error that ended the session, if any.
func (c *Controller) Err() error {
	return c.err
}

// AcceptsText reports whether character input goes to a text buffer.
func (c *Controller) AcceptsText() bool {
	if c.mode != ModeCompose {
		return false
	}
	_, choosing := c.step.(priorityStep)
	return !choosing
}

// Handle consumes one event. It returns a non-nil error only when a save
// failed, after which the controller is in ModeFailed.
func (c *Controller) Handle(ev Event) error {
	switch c.mode {
	case ModeBrowse:
		return c.handleBrowse(ev)
	case ModeCompose:
		return c.handleCompose(ev)
	default:
		return c.err
	}
}

func (c *Controller) handleBrowse(ev Event) error {
	switch ev.Kind {
	case EventMoveUp:
		c.selected = c.clamp(c.selected - 1)
	case EventMoveDown:
		c.selected = c.clamp(c.selected + 1)
	case EventSwitchTabLeft:
		c.tab = TabActive
		c.selected = 0
	case EventSwitchTabRight:
		c.tab = TabArchived
		c.selected = 0
	case EventDeleteCurrent:
		task, ok := c.selectedActive("delete")
		if !ok {
			return nil
		}
		removed, err := c.svc.DeleteTask(c.ctx, task.ID)
		if err != nil {
			return c.fail(err)
		}
		c.selected = c.clamp(c.selected)
		c.status = fmt.Sprintf("Deleted task %d", removed.ID)
	case EventMarkDone:
		task, ok := c.selectedActive("mark done")
		if !ok {
			return nil
		}
		if err := c.svc.MarkDone(c.ctx, task.ID); err != nil {
			return c.fail(err)
		}
		c.status = fmt.Sprintf("Marked task %d as done", task.ID)
	case EventArchiveTrigger:
		count, err := c.svc.Archive(c.ctx)
		if err != nil {
			return c.fail(err)
		}
		c.selected = c.clamp(c.selected)
		c.status = fmt.Sprintf("Archived %d tasks", count)
	case EventUndo:
		result, err := c.svc.Undo(c.ctx)
		if errors.Is(err, domain.ErrNothingToUndo) {
			c.status = "Nothing to undo!"
			return nil
		}
		if err != nil {
			return c.fail(err)
		}
		c.selected = c.clamp(c.selected)
		c.status = result.Message
	case EventCopyCurrent:
		c.copySelected()
	case EventAddTrigger:
		c.mode = ModeCompose
		c.step = descriptionStep{}
		c.status = ""
	case EventQuit:
		c.mode = ModeQuit
	}
	return nil
}

func (c *Controller) handleCompose(ev Event) error {
	switch ev.Kind {
	case EventCancel:
		c.mode = ModeBrowse
		c.step = nil
		c.status = "Add cancelled"
		return nil
	case EventChar:
		c.step = appendRune(c.step, ev.Rune)
		return nil
	case EventBackspace:
		c.step = trimRune(c.step)
		return nil
	case EventSelectPriority:
		if step, ok := c.step.(priorityStep); ok && ev.Priority.Valid() {
			step.priority = ev.Priority
			c.step = step
		}
		return nil
	case EventConfirm:
		return c.advance()
	}
	return nil
}

// advance moves the wizard forward, finalizing on the priority step.
func (c *Controller) advance() error {
	switch step := c.step.(type) {
	case descriptionStep:
		c.step = tagsStep{description: step.buffer}
	case tagsStep:
		c.step = dueDateStep{description: step.description, tags: domain.ParseTags(step.buffer)}
	case dueDateStep:
		due, err := domain.ParseDueDate(step.buffer)
		if err != nil {
			c.status = fmt.Sprintf("Ignoring due date %q: use YYYY-MM-DD", strings.TrimSpace(step.buffer))
			due = nil
		} else {
			c.status = ""
		}
		c.step = priorityStep{description: step.description, tags: step.tags, due: due, priority: domain.PriorityLow}
	case priorityStep:
		task, err := c.svc.AddTask(c.ctx, domain.TaskInput{
			Description: step.description,
			Tags:        step.tags,
			DueDate:     step.due,
			Priority:    step.priority,
		})
		if err != nil {
			return c.fail(err)
		}
		c.mode = ModeBrowse
		c.step = nil
		c.tab = TabActive
		c.selected = c.clamp(int(task.ID) - 1)
		if c.status == "" {
			c.status = fmt.Sprintf("Added task %d", task.ID)
		} else {
			c.status = fmt.Sprintf("Added task %d. %s", task.ID, c.status)
		}
	}
	return nil
}

func (c *Controller) selectedActive(verb string) (domain.Task, bool) {
	if c.tab != TabActive {
		c.status = fmt.Sprintf("Cannot %s an archived task", verb)
		return domain.Task{}, false
	}
	tasks := c.visible()
	if len(tasks) == 0 {
		c.status = "No task selected"
		return domain.Task{}, false
	}
	return tasks[c.clamp(c.selected)], true
}

func (c *Controller) copySelected() {
	tasks := c.visible()
	if len(tasks) == 0 {
		c.status = "No task selected"
		return
	}
	if c.copyText == nil {
		c.status = "Clipboard unavailable"
		return
	}
	task := tasks[c.clamp(c.selected)]
	if err := c.copyText(task.Description); err != nil {
		c.status = "Copy failed: " + err.Error()
		return
	}
	c.status = fmt.Sprintf("Copied task %d", task.ID)
}

func (c *Controller) fail(err error) error {
	c.mode = ModeFailed
	c.step = nil
	c.err = err
	c.status = "Error: " + err.Error()
	return err
}

func (c *Controller) visible() []domain.Task {
	if c.tab == TabArchived {
		return c.svc.ListArchived()
	}
	return c.svc.ListTasks(domain.ListOptions{})
}

func (c *Controller) clamp(idx int) int {
	n := len(c.visible())
	if n == 0 || idx < 0 {
		return 0
	}
	if idx >= n {
		return n - 1
	}
	return idx
}

// Render builds the frame description for the current state.
func (c *Controller) Render() RenderModel {
	tasks := c.visible()
	selected := c.clamp(c.selected)
	rows := make([]Row, 0, len(tasks))
	for idx, task := range tasks {
		rows = append(rows, Row{
			ID:          task.ID,
			Description: task.Description,
			Completed:   task.Completed,
			Selected:    idx == selected,
		})
	}
	out := RenderModel{
		Mode:   c.mode,
		Tab:    c.tab,
		Rows:   rows,
		Status: c.status,
		Now:    c.svc.Now(),
		Err:    c.err,
	}
	if len(tasks) > 0 {
		task := tasks[selected]
		out.Selected = &task
	}
	if c.mode == ModeCompose && c.step != nil {
		view := &ComposeView{Step: c.step.label(), Prompt: c.step.prompt()}
		switch step := c.step.(type) {
		case descriptionStep:
			view.Buffer = step.buffer
		case tagsStep:
			view.Buffer = step.buffer
		case dueDateStep:
			view.Buffer = step.buffer
		case priorityStep:
			view.Priority = step.priority
			view.Choosing = true
		}
		out.Compose = view
	}
	return out
}

func appendRune(step composeStep, r rune) composeStep {
	switch s := step.(type) {
	case descriptionStep:
		s.buffer += string(r)
		return s
	case tagsStep:
		s.buffer += string(r)
		return s
	case dueDateStep:
		s.buffer += string(r)
		return s
	}
	return step
}

func trimRune(step composeStep) composeStep {
	drop := func(buf string) string {
		runes := []rune(buf)
		if len(runes) == 0 {
			return buf
		}
		return string(runes[:len(runes)-1])
	}
	switch s := step.(type) {
	case descriptionStep:
		s.buffer = drop(s.buffer)
		return s
	case tagsStep:
		s.buffer = drop(s.buffer)
		return s
	case dueDateStep:
		s.buffer = drop(s.buffer)
		return s
	}
	return step
}
