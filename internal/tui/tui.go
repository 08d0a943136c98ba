// Package tui provides a Bubble Tea terminal user interface for podcast-backup.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/handiism/podcast-backup/internal/config"
	"github.com/handiism/podcast-backup/internal/download"
	"github.com/handiism/podcast-backup/internal/policy"
	"gitlab.com/tozd/go/errors"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	episodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

const maxLogs = 10

// errCancelled is reported when the user stops a running backup.
var errCancelled = errors.Base("cancelled by user")

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateRunning
	StatePrompt
	StateConfirm
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Message types
type (
	// ProgressMsg carries a backup progress message.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// TransferMsg carries byte progress of the current audio download.
	TransferMsg struct {
		Event download.TransferEvent
	}

	// PromptMsg asks the user how to handle an episode failure. The
	// answer is sent on Reply.
	PromptMsg struct {
		Prompt policy.Prompt
		Reply  chan<- policy.Decision
	}

	// ConfirmMsg asks a yes/no question. The answer is sent on Reply.
	ConfirmMsg struct {
		Question string
		Reply    chan<- bool
	}

	// DoneMsg is sent when the backup returns.
	DoneMsg struct {
		Result *download.Result
		Err    error
	}
)

// bridge forwards messages from the backup goroutine into the running
// program. It is shared by every copy of the Model.
type bridge struct {
	program *tea.Program
}

func (b *bridge) send(msg tea.Msg) {
	if b != nil && b.program != nil {
		b.program.Send(msg)
	}
}

// Prompter answers policy questions through the TUI. Choose and Confirm block
// until the user answers in the program or ctx is done.
type Prompter struct {
	bridge *bridge
}

// Choose implements policy.Prompter.
func (p *Prompter) Choose(ctx context.Context, prompt policy.Prompt) (policy.Decision, error) {
	if len(prompt.Choices) == 0 {
		prompt.Choices = policy.Choices
	}
	reply := make(chan policy.Decision, 1)
	p.bridge.send(PromptMsg{Prompt: prompt, Reply: reply})

	select {
	case d := <-reply:
		return d, nil
	case <-ctx.Done():
		return policy.Abort, errors.WithStack(ctx.Err())
	}
}

// Confirm implements policy.Prompter.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	reply := make(chan bool, 1)
	p.bridge.send(ConfirmMsg{Question: question, Reply: reply})

	select {
	case ok := <-reply:
		return ok, nil
	case <-ctx.Done():
		return false, errors.WithStack(ctx.Err())
	}
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	result    *download.Result
	err       error

	bridge *bridge

	// Backup context
	ctx    context.Context
	cancel context.CancelFunc

	// Run state
	prompt         *PromptMsg
	promptCursor   int
	confirm        *ConfirmMsg
	transfer       download.TransferEvent
	status         string
	optionsFocused bool

	// Options
	skipExisting bool
	importFeed   bool
	playlist     bool
	verbose      bool
	assumeYes    bool
	parallel     int

	width  int
	height int
}

// NewModel creates a new TUI model. A nil settings uses the defaults.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "https://example.com/podcast/feed.xml"
	ti.Focus()
	ti.CharLimit = 1000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	parallel := settings.Parallel
	if parallel < 1 {
		parallel = 1
	}

	return Model{
		state:        StateInput,
		textInput:    ti,
		spinner:      sp,
		progress:     prog,
		settings:     settings,
		logs:         make([]LogEntry, 0),
		bridge:       &bridge{},
		ctx:          ctx,
		cancel:       cancel,
		skipExisting: settings.SkipExisting,
		importFeed:   settings.GenerateImportFeed,
		playlist:     settings.CreatePlaylist,
		parallel:     parallel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case StatePrompt:
			return m.updatePrompt(msg)
		case StateConfirm:
			return m.updateConfirm(msg)
		}
		if model, cmd, handled := m.updateKeys(msg); handled {
			return model, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.addLog(msg.Event)
		if msg.Event.Level == download.LevelInfo {
			m.status = msg.Event.Message
		}

	case TransferMsg:
		m.transfer = msg.Event
		if msg.Event.Total > 0 {
			cmds = append(cmds, m.progress.SetPercent(float64(msg.Event.Written)/float64(msg.Event.Total)))
		}

	case PromptMsg:
		m.prompt = &msg
		m.promptCursor = 0
		m.state = StatePrompt

	case ConfirmMsg:
		m.confirm = &msg
		m.state = StateConfirm

	case DoneMsg:
		m.result = msg.Result
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errCancelled
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput && !m.optionsFocused {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// updateKeys handles keys outside of prompts. handled is false when the key
// should still reach the text input.
func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		m.cancel()
		return m, tea.Quit, true

	case "esc":
		switch m.state {
		case StateInput:
			return m, tea.Quit, true
		case StateRunning:
			m.cancel()
			m.state = StateError
			m.err = errCancelled
			return m, nil, true
		}

	case "enter":
		if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
			m.state = StateRunning
			m.textInput.Blur()
			return m, tea.Batch(m.startBackup(), m.spinner.Tick), true
		}

	case "tab":
		if m.state == StateInput {
			m.optionsFocused = !m.optionsFocused
			if m.optionsFocused {
				m.textInput.Blur()
			} else {
				m.textInput.Focus()
			}
			return m, nil, true
		}

	case "q":
		if m.state == StateComplete || m.state == StateError {
			return m, tea.Quit, true
		}

	case "r":
		if m.state == StateComplete || m.state == StateError {
			m.reset()
			return m, textinput.Blink, true
		}
	}

	if m.state == StateInput && m.optionsFocused {
		switch msg.String() {
		case "s":
			m.skipExisting = !m.skipExisting
		case "i":
			m.importFeed = !m.importFeed
		case "p":
			m.playlist = !m.playlist
		case "v":
			m.verbose = !m.verbose
		case "y":
			m.assumeYes = !m.assumeYes
		case "+", "=":
			m.parallel++
		case "-":
			if m.parallel > 1 {
				m.parallel--
			}
		}
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	choices := m.prompt.Prompt.Choices
	switch msg.String() {
	case "ctrl+c":
		m.answerPrompt(policy.Abort)
		m.cancel()
		return m, tea.Quit
	case "esc":
		m.answerPrompt(policy.Abort)
	case "up", "k":
		if m.promptCursor > 0 {
			m.promptCursor--
		}
	case "down", "j":
		if m.promptCursor < len(choices)-1 {
			m.promptCursor++
		}
	case "enter":
		m.answerPrompt(choices[m.promptCursor].Decision)
	default:
		for _, choice := range choices {
			if msg.String() == choice.Key {
				m.answerPrompt(choice.Decision)
				break
			}
		}
	}
	return m, nil
}

func (m *Model) answerPrompt(d policy.Decision) {
	m.prompt.Reply <- d
	m.addLog(download.ProgressEvent{
		Message: fmt.Sprintf("Chose to %s", strings.ReplaceAll(d.String(), "_", " ")),
		Level:   download.LevelVerbose,
	})
	m.prompt = nil
	m.state = StateRunning
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var answer bool
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		answer = true
	case "n", "esc":
		answer = false
	case "ctrl+c":
		m.confirm.Reply <- false
		m.cancel()
		return m, tea.Quit
	default:
		return m, nil
	}
	m.confirm.Reply <- answer
	m.confirm = nil
	m.state = StateRunning
	return m, nil
}

func (m *Model) addLog(event download.ProgressEvent) {
	// Filter verbose messages if not in verbose mode
	if event.Level == download.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.result = nil
	m.err = nil
	m.prompt = nil
	m.confirm = nil
	m.status = ""
	m.transfer = download.TransferEvent{}
	m.optionsFocused = false
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Podcast Backup"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Archive a podcast feed with tagged audio"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateRunning:
		b.WriteString(m.viewRunning())
	case StatePrompt:
		b.WriteString(renderPrompt(m.prompt.Prompt, m.promptCursor))
		b.WriteString("\n")
		b.WriteString(m.renderLogs())
	case StateConfirm:
		b.WriteString(boxStyle.Render(m.confirm.Question))
		b.WriteString("\n")
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func check(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter podcast feed URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	header := "Options:"
	if m.optionsFocused {
		header = "Options (editing):"
	}
	b.WriteString(infoStyle.Render(header))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Skip existing audio (s)\n", check(m.skipExisting)))
	b.WriteString(fmt.Sprintf("  %s Generate import feed (i)\n", check(m.importFeed)))
	b.WriteString(fmt.Sprintf("  %s Create playlist (p)\n", check(m.playlist)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (v)\n", check(m.verbose)))
	b.WriteString(fmt.Sprintf("  %s Download without confirming (y)\n", check(m.assumeYes)))
	b.WriteString(fmt.Sprintf("  Workers: %d (+/-)\n", m.parallel))
	b.WriteString("\n")
	out := m.settings.OutputDir
	if out == "" {
		out = "./<podcast title>"
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output directory: %s", out)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewRunning() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	status := m.status
	if status == "" {
		status = "Fetching feed..."
	}
	b.WriteString(subtitleStyle.Render(status))
	b.WriteString("\n\n")

	if m.transfer.Name != "" {
		b.WriteString(episodeStyle.Render(fmt.Sprintf("  %s", m.transfer.Name)))
		b.WriteString("\n")
		if m.transfer.Total > 0 {
			b.WriteString(m.progress.View())
			b.WriteString("\n")
			b.WriteString(infoStyle.Render(fmt.Sprintf("%s / %s",
				humanize.Bytes(uint64(m.transfer.Written)),
				humanize.Bytes(uint64(m.transfer.Total)))))
		} else {
			b.WriteString(infoStyle.Render(humanize.Bytes(uint64(m.transfer.Written))))
		}
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	if m.result == nil {
		return boxStyle.Render("Backup complete")
	}

	title := ""
	if m.result.Channel != nil {
		title = m.result.Channel.Title
	}
	box := boxStyle.Render(fmt.Sprintf(
		"Backup Complete!\n\n"+
			"Podcast: %s\n"+
			"Episodes: %d\n\n"+
			"%s\n\n"+
			"Saved to %s",
		title,
		len(m.result.Episodes),
		m.result.Summary,
		m.result.OutputDir,
	))
	return box
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "-"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "x"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "+"
		case download.LevelInfo:
			style = infoStyle
			prefix = ">"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		if m.optionsFocused {
			return "s/i/p/v/y: toggle - +/-: workers - tab: edit URL - esc: quit"
		}
		return "enter: start - tab: options - esc: quit"
	case StateRunning:
		return "esc: cancel"
	case StatePrompt:
		return "1-5 or arrows+enter: choose - esc: abort"
	case StateConfirm:
		return "y: download - n: cancel"
	case StateComplete, StateError:
		return "r: new backup - q: quit"
	}
	return ""
}

// options builds the backup options from the current toggles.
func (m Model) options() download.Options {
	return download.Options{
		FeedURL:            strings.TrimSpace(m.textInput.Value()),
		OutputDir:          m.settings.OutputDir,
		SkipExisting:       m.skipExisting,
		GenerateImportFeed: m.importFeed,
		Parallel:           m.parallel,
		Interactive:        true,
		Prompter:           &Prompter{bridge: m.bridge},
		AssumeYes:          m.assumeYes,
	}
}

// startBackup runs the backup in the background.
func (m Model) startBackup() tea.Cmd {
	settings := *m.settings
	settings.CreatePlaylist = m.playlist
	opts := m.options()
	ctx := m.ctx
	b := m.bridge

	return func() tea.Msg {
		manager := download.NewManager(&settings,
			func(event download.ProgressEvent) {
				b.send(ProgressMsg{Event: event})
			},
			download.WithTransferHandler(func(event download.TransferEvent) {
				b.send(TransferMsg{Event: event})
			}),
		)

		result, err := manager.Backup(ctx, opts)
		return DoneMsg{Result: result, Err: err}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	m := NewModel(settings)
	p := tea.NewProgram(m, tea.WithAltScreen())
	m.bridge.program = p
	_, err := p.Run()
	return errors.WithStack(err)
}
