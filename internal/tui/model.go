package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/todo/internal/domain"
)

var (
	accent = lipgloss.Color("62")
	muted  = lipgloss.Color("241")
	dim    = lipgloss.Color("239")
	warn   = lipgloss.Color("203")
)

// Model adapts a Controller to the bubbletea program loop.
type Model struct {
	ctrl *Controller

	ready  bool
	width  int
	height int

	help     help.Model
	keys     keyMap
	display  DisplayConfig
	markdown *markdownRenderer
	copyText func(string) error
}

// NewModel builds a model over svc. The service must already be loaded.
func NewModel(ctx context.Context, svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		help:     h,
		keys:     newKeyMap(),
		display:  DefaultDisplayConfig(),
		markdown: newMarkdownRenderer("dark"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	m.ctrl = NewController(ctx, svc, m.copyText)
	return m
}

// Controller exposes the underlying state machine.
func (m Model) Controller() *Controller {
	return m.ctrl
}

// Err returns the fatal error that ended the session, if any.
func (m Model) Err() error {
	return m.ctrl.Err()
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if m.ctrl.Mode() == ModeBrowse && key.Matches(msg, m.keys.toggleHelp) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
		for _, ev := range m.keys.decodeKey(msg, m.ctrl.Mode(), m.ctrl.AcceptsText()) {
			if err := m.ctrl.Handle(ev); err != nil {
				return m, tea.Quit
			}
		}
		if m.ctrl.Done() {
			return m, tea.Quit
		}
		return m, nil

	default:
		return m, nil
	}
}

func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the current frame as plain terminal text.
func (m Model) render() string {
	if !m.ready {
		return "loading..."
	}
	frame := m.ctrl.Render()

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)
	warnStyle := lipgloss.NewStyle().Bold(true).Foreground(warn)

	sections := []string{
		titleStyle.Render("todo") + "  " + m.renderTabs(frame.Tab),
		"",
	}

	listWidth := max(24, m.width/2-2)
	detailWidth := max(24, m.width-listWidth-4)
	list := m.renderList(frame, listWidth)
	detail := m.renderDetail(frame, detailWidth)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, list, detail))

	if frame.Compose != nil {
		sections = append(sections, "", m.renderCompose(*frame.Compose, max(24, m.width-2)))
	}
	if frame.Err != nil {
		sections = append(sections, warnStyle.Render("error: "+frame.Err.Error()))
	} else if strings.TrimSpace(frame.Status) != "" {
		sections = append(sections, statusStyle.Render(frame.Status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.SetWidth(max(0, m.width-2))
	var helpView string
	if frame.Compose != nil {
		helpBubble.ShowAll = false
		helpView = helpBubble.View(composeHelp{keys: m.keys, choosing: frame.Compose.Choosing})
	} else {
		helpView = helpBubble.View(m.keys)
	}
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpView)

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}

	return content + "\n" + helpLine
}

func (m Model) renderTabs(active Tab) string {
	on := lipgloss.NewStyle().Bold(true).Foreground(accent).Underline(true)
	off := lipgloss.NewStyle().Foreground(dim)
	parts := make([]string, 0, 2)
	for _, tab := range []Tab{TabActive, TabArchived} {
		if tab == active {
			parts = append(parts, on.Render(tab.String()))
			continue
		}
		parts = append(parts, off.Render(tab.String()))
	}
	return strings.Join(parts, " | ")
}

func (m Model) renderList(frame RenderModel, width int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width)
	if frame.Mode == ModeBrowse {
		box = box.BorderForeground(accent)
	}
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	if len(frame.Rows) == 0 {
		empty := "No tasks."
		if frame.Tab == TabActive {
			empty += fmt.Sprintf(" Press %s to add one.", m.keys.addTask.Help().Key)
		}
		return box.Render(lipgloss.NewStyle().Foreground(muted).Render(empty))
	}

	lines := make([]string, 0, len(frame.Rows))
	for _, row := range frame.Rows {
		mark := "[ ]"
		if row.Completed {
			mark = "[✓]"
		}
		line := fmt.Sprintf("%s %d: %s", mark, row.ID, truncate(row.Description, width-10))
		switch {
		case row.Selected:
			line = selectedStyle.Render("> " + line)
		case row.Completed:
			line = doneStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return box.Render(strings.Join(lines, "\n"))
}

func (m Model) renderDetail(frame RenderModel, width int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		Width(width)
	label := lipgloss.NewStyle().Bold(true).Foreground(accent)
	value := lipgloss.NewStyle().Foreground(muted)

	task := frame.Selected
	if task == nil {
		return box.Render(value.Render("no task selected"))
	}

	due := domain.FormatDueDate(task.DueDate, m.display.DateFormat, "No due date")
	if m.display.ShowOverdue && !task.Completed && task.IsOverdue(frame.Now) {
		due += lipgloss.NewStyle().Foreground(warn).Render(" (OVERDUE!)")
	}
	tags := "none"
	if len(task.Tags) > 0 {
		tags = strings.Join(task.Tags, ", ")
	}
	status := "open"
	if task.Completed {
		status = "done"
	}

	lines := []string{
		label.Render(fmt.Sprintf("Task %d", task.ID)),
		label.Render("Due: ") + value.Render(due),
		label.Render("Tags: ") + value.Render(tags),
		label.Render("Priority: ") + value.Render(string(task.Priority)),
		label.Render("Status: ") + value.Render(status),
		"",
	}
	description := task.Description
	if m.display.RenderMarkdown && m.markdown != nil {
		if rendered := m.markdown.render(description, width-4); rendered != "" {
			description = rendered
		}
	}
	lines = append(lines, description)
	return box.Render(strings.Join(lines, "\n"))
}

func (m Model) renderCompose(view ComposeView, width int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(width)
	title := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hint := lipgloss.NewStyle().Foreground(muted)

	body := view.Buffer + "█"
	if view.Choosing {
		choices := make([]string, 0, 3)
		for idx, p := range domain.Priorities() {
			choice := fmt.Sprintf("%d %s", idx+1, p)
			if p == view.Priority {
				choice = title.Render("[" + choice + "]")
			}
			choices = append(choices, choice)
		}
		body = strings.Join(choices, "  ")
	}
	return box.Render(strings.Join([]string{
		title.Render("New task: " + view.Step),
		hint.Render(view.Prompt),
		body,
	}, "\n"))
}

// fitLines truncates or pads content to exactly height lines.
func fitLines(content string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if width <= 1 || len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
