// Package tui implements the interactive shop prompt. It is a thin
// adapter over the engine: input lines become engine calls, structured
// results become styled output. No rental semantics live here.
package tui

import (
	"fmt"
	"strings"

	"github.com/Dampmar/rentalshop/internal/engine"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// maxHistory bounds the scrollback kept in the prompt view.
const maxHistory = 200

// Model is the bubbletea model for the shop prompt.
type Model struct {
	dispatch dispatcher
	input    textinput.Model
	history  []string
	quitting bool
}

// NewModel creates the prompt model for a shop location.
func NewModel(eng *engine.Engine, location string) Model {
	ti := textinput.New()
	ti.Placeholder = "RENT SEDAN | RETURN ABC-123 50 | LIST | TRANSACTIONS | EXIT"
	ti.Prompt = "> "
	ti.Focus()

	return Model{
		dispatch: dispatcher{eng: eng, location: location},
		input:    ti,
	}
}

// Run starts the prompt and blocks until the user exits.
func Run(eng *engine.Engine, location string) error {
	p := tea.NewProgram(NewModel(eng, location))
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}

			m.push(promptStyle.Render("> " + line))
			out, quit := m.dispatch.execute(line)
			if out != "" {
				m.push(out)
			}
			if quit {
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Rental Shop at %s", m.dispatch.location)))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Commands: RENT, RETURN, LIST, TRANSACTIONS. Type EXIT to quit."))
	b.WriteString("\n\n")
	for _, line := range m.history {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return b.String()
}

// push appends output to the scrollback, trimming the oldest entries.
func (m *Model) push(line string) {
	m.history = append(m.history, line)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
}
