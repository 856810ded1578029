// Package tui provides a Bubble Tea control panel for sheets-exporter.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/sheets-exporter/internal/config"
	"github.com/handiism/sheets-exporter/internal/export"
	"github.com/handiism/sheets-exporter/internal/http"
	ioutils "github.com/handiism/sheets-exporter/internal/io"
	"github.com/handiism/sheets-exporter/internal/model"
	"github.com/handiism/sheets-exporter/internal/sheets"
)

// ResetDelay is how long a success message stays before the status returns
// to "Ready for next download".
const ResetDelay = 3 * time.Second

// maxLogs is the number of log lines kept on screen.
const maxLogs = 10

// Status texts shown in the panel.
const (
	StatusInvalidURL = "Could not extract sheet info"
	StatusReadyNext  = "Ready for next download"
	StatusCancelled  = "Cancelled by user"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4285F4")).
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
			BorderForeground(lipgloss.Color("#4285F4")).
			Padding(1, 2)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 2).
			MarginRight(1)

	selectedStyle = lipgloss.NewStyle().
			Underline(true).
			Bold(true)
)

// button is one action of the panel.
type button struct {
	format model.Format // empty for "Download All Formats"
	color  lipgloss.Color
}

// buttons mirror the panel layout: four formats then the batch action.
var buttons = []button{
	{model.FormatCSV, lipgloss.Color("#34A853")},
	{model.FormatXLSX, lipgloss.Color("#1A73E8")},
	{model.FormatTSV, lipgloss.Color("#EA4335")},
	{model.FormatHTML, lipgloss.Color("#FF6D01")},
	{"", lipgloss.Color("#9334E6")},
}

func (b button) label() string {
	if b.format == "" {
		return "Download All Formats"
	}
	return b.format.Label()
}

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateReady
	StateExporting
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   export.ProgressLevel
}

// Message types
type (
	// ProgressMsg carries a progress event from the exporter.
	ProgressMsg struct {
		Event export.ProgressEvent
	}

	// BatchProgressMsg is sent after each format of a batch completes.
	BatchProgressMsg struct {
		Done  int
		Total int
	}

	// ExportDoneMsg is sent when a single-format export completes.
	ExportDoneMsg struct {
		Outcome model.DownloadOutcome
	}

	// BatchDoneMsg is sent when a batch export completes.
	BatchDoneMsg struct {
		Result model.BatchResult
	}

	// ResetStatusMsg restores the idle status after a success.
	ResetStatusMsg struct {
		ID int
	}
)

// Model is the Bubble Tea model for the control panel.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	exporter  *export.Exporter

	ref      model.SheetReference
	selected int

	status      string
	statusLevel export.ProgressLevel
	resetID     int

	logs    []LogEntry
	events  chan tea.Msg
	verbose bool

	batchDone  int
	batchTotal int

	// Export context
	cancel context.CancelFunc

	width  int
	height int
}

// NewModel creates a control panel that exports with settings into saver.
func NewModel(settings *config.Settings, saver ioutils.Saver) (Model, error) {
	clientOpts, err := settings.ToClientOptions()
	if err != nil {
		return Model{}, err
	}

	events := make(chan tea.Msg, 64)
	opts, err := settings.ToExporterOptions(func(event export.ProgressEvent) {
		send(events, ProgressMsg{Event: event})
	})
	if err != nil {
		return Model{}, err
	}
	opts = append(opts, export.WithBatchProgress(func(done, total int) {
		send(events, BatchProgressMsg{Done: done, Total: total})
	}))

	ti := textinput.New()
	ti.Placeholder = "https://docs.google.com/spreadsheets/d/<id>/edit#gid=0"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#4285F4"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		exporter:  export.NewExporter(http.NewClient(clientOpts), saver, opts...),
		events:    events,
	}, nil
}

// send delivers msg without blocking the exporter; events are dropped when
// the UI falls behind.
func send(events chan<- tea.Msg, msg tea.Msg) {
	select {
	case events <- msg:
	default:
	}
}

// listen waits for the next exporter event.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.listen())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		m.addLog(msg.Event)
		cmds = append(cmds, m.listen())

	case BatchProgressMsg:
		m.batchDone = msg.Done
		m.batchTotal = msg.Total
		cmds = append(cmds, m.listen())

	case ExportDoneMsg:
		m.finish()
		o := msg.Outcome
		switch {
		case o.Succeeded:
			m.setStatus(fmt.Sprintf("Downloaded %s successfully!", tag(o.Format)), export.LevelSuccess)
			cmds = append(cmds, m.scheduleReset())
		case export.IsCancelled(o):
			m.setStatus(StatusCancelled, export.LevelWarning)
		default:
			m.setStatus("Failed: "+o.ErrorMessage, export.LevelError)
		}

	case BatchDoneMsg:
		m.finish()
		r := msg.Result
		if n := len(r.Outcomes); n > 0 && export.IsCancelled(r.Outcomes[n-1]) {
			m.setStatus(StatusCancelled, export.LevelWarning)
			break
		}
		level := export.LevelSuccess
		if r.Succeeded < r.Total {
			level = export.LevelWarning
		}
		m.setStatus(fmt.Sprintf("Downloaded %s formats successfully!", r.Ratio()), level)

	case ResetStatusMsg:
		if msg.ID == m.resetID && m.state == StateReady {
			m.setStatus(StatusReadyNext, export.LevelInfo)
		}
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit
	}

	switch m.state {
	case StateInput:
		switch key {
		case "esc":
			return m, tea.Quit
		case "enter":
			return m.submitURL()
		}
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd

	case StateReady:
		switch key {
		case "esc", "q":
			return m, tea.Quit
		case "1", "2", "3", "4":
			m.selected = int(key[0] - '1')
			return m.withSpinner(m.startSelected())
		case "a":
			m.selected = len(buttons) - 1
			return m.withSpinner(m.startSelected())
		case "enter", " ":
			return m.withSpinner(m.startSelected())
		case "left", "up", "shift+tab", "h", "k":
			m.selected = (m.selected + len(buttons) - 1) % len(buttons)
		case "right", "down", "tab", "l", "j":
			m.selected = (m.selected + 1) % len(buttons)
		case "v":
			m.verbose = !m.verbose
		case "r":
			m.state = StateInput
			m.ref = model.SheetReference{}
			m.logs = nil
			m.status = ""
			m.batchDone, m.batchTotal = 0, 0
			m.resetID++
			m.textInput.SetValue("")
			m.textInput.Focus()
		}

	case StateExporting:
		if key == "esc" && m.cancel != nil {
			m.cancel()
		}
	}

	return m, nil
}

// submitURL parses the URL input and opens the panel.
func (m Model) submitURL() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.textInput.Value())
	if value == "" {
		return m, nil
	}

	ref, err := sheets.ParseReference(value)
	if err != nil {
		m.setStatus(StatusInvalidURL, export.LevelError)
		return m, nil
	}

	m.ref = ref
	m.state = StateReady
	m.selected = 0
	m.textInput.Blur()
	m.setStatus(fmt.Sprintf("Ready! Sheet ID: %s", ref.Short()), export.LevelInfo)
	return m, nil
}

// startSelected begins the export for the selected button and returns the
// command that runs it.
func (m Model) startSelected() (Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.state = StateExporting
	m.resetID++

	exporter, ref := m.exporter, m.ref
	b := buttons[m.selected]

	if b.format == "" {
		formats, err := m.settings.Formats()
		if err != nil {
			formats = model.BatchFormats()
		}
		m.batchDone, m.batchTotal = 0, len(formats)
		m.setStatus("Downloading all formats...", export.LevelInfo)
		return m, func() tea.Msg {
			return BatchDoneMsg{Result: exporter.Export(ctx, ref, formats...)}
		}
	}

	m.setStatus(fmt.Sprintf("Downloading %s...", tag(b.format)), export.LevelInfo)
	return m, func() tea.Msg {
		return ExportDoneMsg{Outcome: exporter.ExportFormat(ctx, ref, b.format)}
	}
}

func (m Model) withSpinner(next Model, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	return next, tea.Batch(cmd, next.spinner.Tick)
}

// finish returns the panel to the ready state after an export.
func (m *Model) finish() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.state = StateReady
}

func (m *Model) scheduleReset() tea.Cmd {
	id := m.resetID
	return tea.Tick(ResetDelay, func(_ time.Time) tea.Msg {
		return ResetStatusMsg{ID: id}
	})
}

func (m *Model) setStatus(text string, level export.ProgressLevel) {
	m.status = text
	m.statusLevel = level
}

func (m *Model) addLog(event export.ProgressEvent) {
	// Filter verbose messages if not in verbose mode
	if event.Level == export.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, LogEntry{Message: event.Message, Level: event.Level})
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// State returns the current UI state.
func (m Model) State() State {
	return m.state
}

// Status returns the panel status line.
func (m Model) Status() string {
	return m.status
}

// tag is the uppercase format name used in status messages.
func tag(f model.Format) string {
	return strings.ToUpper(string(f))
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Sheet Export Tool"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Extract data using Google's export API"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateReady, StateExporting:
		b.WriteString(m.viewPanel())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter Google Sheets URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	if m.status != "" {
		b.WriteString(m.renderStatus())
		b.WriteString("\n\n")
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("Output: %s", m.settings.Output)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewPanel() string {
	var panel strings.Builder

	for i, btn := range buttons[:len(buttons)-1] {
		panel.WriteString(m.renderButton(i, btn, fmt.Sprintf("%d %s", i+1, btn.label())))
		if i%2 == 1 {
			panel.WriteString("\n\n")
		}
	}
	all := len(buttons) - 1
	panel.WriteString(m.renderButton(all, buttons[all], "a "+buttons[all].label()))
	panel.WriteString("\n\n")

	if m.state == StateExporting {
		panel.WriteString(m.spinner.View())
		panel.WriteString(" ")
	}
	panel.WriteString(m.renderStatus())

	if m.batchTotal > 0 && (m.state == StateExporting || m.batchDone > 0) {
		panel.WriteString("\n\n")
		panel.WriteString(m.progress.ViewAs(float64(m.batchDone) / float64(m.batchTotal)))
	}

	var b strings.Builder
	b.WriteString(boxStyle.Render(panel.String()))
	b.WriteString("\n\n")
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) renderButton(i int, btn button, text string) string {
	style := buttonStyle.Background(btn.color)
	if i == m.selected {
		style = style.Inherit(selectedStyle)
	}
	return style.Render(text)
}

func (m Model) renderStatus() string {
	return levelStyle(m.statusLevel).Render(m.status)
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		prefix := "•"
		switch log.Level {
		case export.LevelError:
			prefix = "✗"
		case export.LevelWarning:
			prefix = "!"
		case export.LevelSuccess:
			prefix = "✓"
		case export.LevelInfo:
			prefix = "›"
		}
		b.WriteString(levelStyle(log.Level).Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func levelStyle(level export.ProgressLevel) lipgloss.Style {
	switch level {
	case export.LevelError:
		return errorStyle
	case export.LevelWarning:
		return warningStyle
	case export.LevelSuccess:
		return successStyle
	case export.LevelInfo:
		return infoStyle
	default:
		return dimStyle
	}
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: open sheet • esc: quit"
	case StateReady:
		return "1-4: export format • a: all formats • ←/→ enter: select • v: verbose • r: new URL • q: quit"
	case StateExporting:
		return "esc: cancel"
	}
	return ""
}

// Run starts the TUI application.
func Run(settings *config.Settings, saver ioutils.Saver) error {
	m, err := NewModel(settings, saver)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
