package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errAborted = errors.New("aborted")

var (
	promptStyle   = lipgloss.NewStyle().Bold(true)
	hintStyle     = lipgloss.NewStyle().Faint(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// inputModel reads one line. An empty answer takes the fallback.
type inputModel struct {
	input    textinput.Model
	title    string
	fallback string
	validate func(string) error
	errMsg   string
	done     bool
	aborted  bool
}

func (m inputModel) Init() tea.Cmd { return textinput.Blink }

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			if m.validate != nil {
				if err := m.validate(m.value()); err != nil {
					m.errMsg = err.Error()
					return m, nil
				}
			}
			m.done = true
			return m, tea.Quit
		}
	}
	m.errMsg = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) value() string {
	if v := strings.TrimSpace(m.input.Value()); v != "" {
		return v
	}
	return m.fallback
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(promptStyle.Render(m.title))
	if m.fallback != "" {
		b.WriteString(" " + hintStyle.Render("["+m.fallback+"]"))
	}
	b.WriteString("\n" + m.input.View() + "\n")
	if m.errMsg != "" {
		b.WriteString(errStyle.Render(m.errMsg) + "\n")
	}
	return b.String()
}

// confirmModel asks a yes/no question.
type confirmModel struct {
	title   string
	value   bool
	done    bool
	aborted bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc":
		m.aborted = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "y", "Y":
		m.value, m.done = true, true
		return m, tea.Quit
	case "n", "N":
		m.value, m.done = false, true
		return m, tea.Quit
	case "left", "right", "tab", "h", "l":
		m.value = !m.value
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	yes, no := " Yes ", " No "
	if m.value {
		yes = selectedStyle.Render(yes)
	} else {
		no = selectedStyle.Render(no)
	}
	return fmt.Sprintf("%s %s / %s\n", promptStyle.Render(m.title), yes, no)
}

func promptInput(title, fallback string, validate func(string) error) (string, error) {
	ti := textinput.New()
	ti.Placeholder = fallback
	ti.Focus()

	res, err := tea.NewProgram(inputModel{input: ti, title: title, fallback: fallback, validate: validate}).Run()
	if err != nil {
		return "", err
	}
	m := res.(inputModel)
	if m.aborted {
		return "", errAborted
	}
	return m.value(), nil
}

func promptConfirm(title string, def bool) (bool, error) {
	res, err := tea.NewProgram(confirmModel{title: title, value: def}).Run()
	if err != nil {
		return false, err
	}
	m := res.(confirmModel)
	if m.aborted {
		return false, errAborted
	}
	return m.value, nil
}

// splitFeatures parses a comma or space separated feature list.
func splitFeatures(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	seen := map[string]bool{}
	var out []string
	for _, f := range fields {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func validateFeatures(s string) error {
	feats := splitFeatures(s)
	if len(feats) == 0 {
		return fmt.Errorf("at least one feature is required")
	}
	for _, f := range feats {
		if strings.ContainsAny(f, "/:?$") {
			return fmt.Errorf("invalid feature name %q", f)
		}
	}
	return nil
}
