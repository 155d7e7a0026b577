package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/modloader/loader"
	"github.com/wippyai/modloader/wasmeval"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type browserState int

const (
	stateModules browserState = iota
	stateExports
	stateArgs
	stateResult
)

type exportInfo struct {
	value any
	name  string
}

type browserModel struct {
	err      error
	session  *session
	module   *loader.Module
	result   string
	all      []*loader.Module
	modules  []*loader.Module
	exports  []exportInfo
	filter   textinput.Model
	args     textinput.Model
	selected int
	state    browserState
	loaded   bool
}

type importedMsg struct {
	err error
}

type callResultMsg struct {
	err    error
	result string
}

func newBrowserModel(s *session) *browserModel {
	filter := textinput.New()
	filter.Prompt = "filter: "
	filter.Placeholder = "identifier substring"
	filter.Width = 40
	filter.Focus()

	args := textinput.New()
	args.Prompt = "args: "
	args.Placeholder = "comma-separated"
	args.Width = 40

	return &browserModel{
		session: s,
		filter:  filter,
		args:    args,
		state:   stateModules,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.importEntries)
}

// importEntries imports every entry. Failures are shown in the registry
// rather than ending the program, so failed modules can be inspected.
func (m *browserModel) importEntries() tea.Msg {
	_, err := m.session.importAll(context.Background())
	return importedMsg{err: err}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "up":
			if m.browsing() && m.selected > 0 {
				m.selected--
			}
			return m, nil

		case "down":
			if m.browsing() && m.selected < m.listLen()-1 {
				m.selected++
			}
			return m, nil

		case "enter":
			return m, m.enter()

		case "esc":
			switch m.state {
			case stateModules:
				return m, tea.Quit
			case stateExports:
				m.state = stateModules
				m.selected = 0
			case stateArgs, stateResult:
				m.state = stateExports
				m.args.Blur()
				m.result = ""
				m.err = nil
			}
			return m, nil
		}

	case importedMsg:
		m.loaded = true
		m.err = msg.err
		m.all = m.session.loader.Modules()
		m.applyFilter()
		return m, nil

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateResult
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateModules:
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
	case stateArgs:
		m.args, cmd = m.args.Update(msg)
	}
	return m, cmd
}

func (m *browserModel) browsing() bool {
	return m.state == stateModules || m.state == stateExports
}

func (m *browserModel) listLen() int {
	if m.state == stateExports {
		return len(m.exports)
	}
	return len(m.modules)
}

func (m *browserModel) applyFilter() {
	q := strings.TrimSpace(m.filter.Value())
	m.modules = m.modules[:0]
	for _, mod := range m.all {
		if q == "" || strings.Contains(mod.Identifier(), q) {
			m.modules = append(m.modules, mod)
		}
	}
	if m.selected >= len(m.modules) {
		m.selected = max(0, len(m.modules)-1)
	}
}

func (m *browserModel) enter() tea.Cmd {
	switch m.state {
	case stateModules:
		if len(m.modules) == 0 {
			return nil
		}
		m.module = m.modules[m.selected]
		m.exports = nil
		if ns := m.module.Namespace(); ns != nil {
			snap := ns.Snapshot()
			for _, k := range ns.Keys() {
				m.exports = append(m.exports, exportInfo{name: k, value: snap[k]})
			}
		}
		m.selected = 0
		m.state = stateExports

	case stateExports:
		if len(m.exports) == 0 {
			return nil
		}
		fn, ok := m.exports[m.selected].value.(*wasmeval.Func)
		if !ok {
			return nil
		}
		if len(fn.Params()) == 0 {
			return m.call(fn, nil)
		}
		m.args.SetValue("")
		m.args.Focus()
		m.state = stateArgs

	case stateArgs:
		fn := m.exports[m.selected].value.(*wasmeval.Func)
		m.args.Blur()
		return m.call(fn, strings.Split(m.args.Value(), ","))

	case stateResult:
		m.state = stateExports
		m.result = ""
		m.err = nil
	}
	return nil
}

func (m *browserModel) call(fn *wasmeval.Func, raw []string) tea.Cmd {
	return func() tea.Msg {
		args, err := parseArgs(raw, fn.Params())
		if err != nil {
			return callResultMsg{err: err}
		}
		results, err := fn.Invoke(context.Background(), args...)
		if err != nil {
			return callResultMsg{err: err}
		}
		return callResultMsg{result: fmt.Sprintf("%v", results)}
	}
}

func (m *browserModel) View() string {
	if !m.loaded {
		return "Loading modules..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Module Registry"))
	b.WriteString(" ")
	b.WriteString(strings.Join(m.session.cfg.entries, ", "))
	b.WriteString("\n\n")

	switch m.state {
	case stateModules:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Import failed: %v", m.err)))
			b.WriteString("\n\n")
		}
		b.WriteString(m.filter.View())
		b.WriteString("\n\n")
		for i, mod := range m.modules {
			line := fmt.Sprintf("%-13s %s", mod.State(), mod.Identifier())
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + stateStyle.Render(fmt.Sprintf("%-13s", mod.State())) + " " + mod.Identifier())
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("type to filter • ↑/↓ select • enter exports • esc quit"))

	case stateExports:
		b.WriteString(nameStyle.Render(m.module.Identifier()))
		b.WriteString(" ")
		b.WriteString(stateStyle.Render(m.module.State().String()))
		b.WriteString("\n\n")
		if err := m.module.Err(); err != nil {
			b.WriteString(errorStyle.Render(err.Error()))
			b.WriteString("\n")
		}
		if len(m.exports) == 0 && m.module.Err() == nil {
			b.WriteString("no exports\n")
		}
		for i, e := range m.exports {
			line := e.name + " = " + formatValue(e.value)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call function • esc back"))

	case stateArgs:
		fn := m.exports[m.selected].value.(*wasmeval.Func)
		b.WriteString(fmt.Sprintf("Calling %s\n\n", nameStyle.Render(fn.String())))
		b.WriteString(m.args.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter call • esc back"))

	case stateResult:
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", nameStyle.Render(m.exports[m.selected].name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • esc back"))
	}

	return b.String()
}

func runInteractive(cfg config) error {
	ctx := context.Background()
	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	p := tea.NewProgram(newBrowserModel(s), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
