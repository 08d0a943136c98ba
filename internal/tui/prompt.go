package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/handiism/podcast-backup/internal/policy"
	"gitlab.com/tozd/go/errors"
)

// errPromptCancelled is returned when a prompt is dismissed without an answer.
var errPromptCancelled = errors.Base("prompt cancelled")

// ChoicePrompter asks error-policy questions with small inline Bubble Tea
// programs. It is the interactive prompter of the command-line tool when
// stdin is a terminal.
type ChoicePrompter struct {
	in  io.Reader
	out io.Writer
}

// NewChoicePrompter creates a ChoicePrompter reading keys from in.
func NewChoicePrompter(in io.Reader, out io.Writer) *ChoicePrompter {
	return &ChoicePrompter{in: in, out: out}
}

// Choose implements policy.Prompter.
func (c *ChoicePrompter) Choose(ctx context.Context, p policy.Prompt) (policy.Decision, error) {
	final, err := c.run(ctx, newChoiceModel(p))
	if err != nil {
		return policy.Abort, err
	}
	m := final.(choiceModel)
	if m.chosen == nil {
		return policy.Abort, errors.WithStack(errPromptCancelled)
	}
	return m.chosen.Decision, nil
}

// Confirm implements policy.Prompter.
func (c *ChoicePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	final, err := c.run(ctx, confirmModel{question: question})
	if err != nil {
		return false, err
	}
	m := final.(confirmModel)
	return m.answer, nil
}

func (c *ChoicePrompter) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	p := tea.NewProgram(m, tea.WithInput(c.in), tea.WithOutput(c.out), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return final, nil
}

// choiceModel is a numbered menu of policy choices.
type choiceModel struct {
	prompt policy.Prompt
	cursor int
	chosen *policy.Choice
	done   bool
}

func newChoiceModel(p policy.Prompt) choiceModel {
	if len(p.Choices) == 0 {
		p.Choices = policy.Choices
	}
	return choiceModel{prompt: p}
}

func (m choiceModel) Init() tea.Cmd {
	return nil
}

func (m choiceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "esc":
		m.done = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.prompt.Choices)-1 {
			m.cursor++
		}
	case "enter":
		choice := m.prompt.Choices[m.cursor]
		m.chosen = &choice
		m.done = true
		return m, tea.Quit
	default:
		for i, choice := range m.prompt.Choices {
			if key.String() == choice.Key {
				m.cursor = i
				m.chosen = &choice
				m.done = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m choiceModel) View() string {
	if m.done {
		if m.chosen != nil {
			return dimStyle.Render(fmt.Sprintf("  -> %s", m.chosen.Label)) + "\n"
		}
		return ""
	}
	return renderPrompt(m.prompt, m.cursor)
}

// renderPrompt draws the error box and the choice list.
func renderPrompt(p policy.Prompt, cursor int) string {
	var b strings.Builder

	b.WriteString(errorStyle.Render(fmt.Sprintf("ERROR: %v", p.Err)))
	b.WriteString("\n")
	if p.Context != "" {
		b.WriteString(dimStyle.Render("Context: " + p.Context))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("How would you like to proceed?"))
	b.WriteString("\n")

	for i, choice := range p.Choices {
		line := fmt.Sprintf("[%s] %s", choice.Key, choice.Label)
		if i == cursor {
			b.WriteString(warningStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// confirmModel is a yes/no question defaulting to yes.
type confirmModel struct {
	question string
	answer   bool
	done     bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch strings.ToLower(key.String()) {
	case "y", "enter":
		m.answer = true
	case "n", "esc", "ctrl+c":
		m.answer = false
	default:
		return m, nil
	}
	m.done = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.answer {
			answer = "yes"
		}
		return fmt.Sprintf("%s %s\n", m.question, answer)
	}
	return subtitleStyle.Render(m.question) + " [Y/n] "
}
