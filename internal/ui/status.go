package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sketchmesh/sketchmesh/internal/board"
)

// SessionUI renders the live session view: connection state, participant
// count, link count. It consumes board.Status updates and never talks back to
// the engine except by reporting that the user asked to leave.
type SessionUI struct {
	program    *tea.Program
	model      *sessionModel
	updateChan chan board.Status
	quit       chan struct{}
	wg         sync.WaitGroup
}

type sessionModel struct {
	roomID    string
	sessionID string

	status    board.Status
	spinner   spinner.Model
	startTime time.Time

	updateChan chan board.Status
	quit       chan struct{}
	quitOnce   sync.Once
	quitting   bool
}

// NewSessionUI creates the live view for one joined room.
func NewSessionUI(roomID, sessionID string) *SessionUI {
	updateChan := make(chan board.Status, 16)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	quit := make(chan struct{})
	model := &sessionModel{
		roomID:     roomID,
		sessionID:  sessionID,
		status:     board.Status{State: board.StateConnecting},
		spinner:    s,
		startTime:  time.Now(),
		updateChan: updateChan,
		quit:       quit,
	}

	return &SessionUI{
		model:      model,
		updateChan: updateChan,
		quit:       quit,
	}
}

// Start runs the UI in a goroutine. Inline mode, no alt screen, so earlier
// terminal output stays visible.
func (ui *SessionUI) Start() {
	ui.wg.Add(1)
	go func() {
		defer ui.wg.Done()
		ui.program = tea.NewProgram(ui.model)
		if _, err := ui.program.Run(); err != nil {
			fmt.Printf("UI error: %v\n", err)
		}
	}()
}

// Push feeds a status update; drops it when the view lags.
func (ui *SessionUI) Push(s board.Status) {
	select {
	case ui.updateChan <- s:
	default:
	}
}

// Quit reports that the user asked to leave the room.
func (ui *SessionUI) Quit() <-chan struct{} {
	return ui.quit
}

// Stop tears the view down and waits for the terminal to be restored.
func (ui *SessionUI) Stop() {
	if ui.program != nil {
		ui.program.Quit()
	}
	ui.wg.Wait()
}

func (m *sessionModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForUpdates())
}

func (m *sessionModel) listenForUpdates() tea.Cmd {
	return func() tea.Msg {
		return <-m.updateChan
	}
}

func (m *sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.quitOnce.Do(func() { close(m.quit) })
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case board.Status:
		m.status = msg
		return m, m.listenForUpdates()
	}

	return m, nil
}

func (m *sessionModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("\n%s %s\n\n", IconBrush, TitleStyle.Render(m.roomID)))

	switch m.status.State {
	case board.StateConnected:
		b.WriteString(fmt.Sprintf("%s %s\n", SuccessStyle.Render(IconSuccess), "Connected"))
	case board.StateDisconnected:
		b.WriteString(fmt.Sprintf("%s %s\n", ErrorStyle.Render(IconError), "Disconnected"))
	default:
		b.WriteString(fmt.Sprintf("%s Connecting to relay...\n", m.spinner.View()))
	}

	b.WriteString(fmt.Sprintf("%s Participants: %s   Links: %s\n",
		IconPeer,
		BoldStyle.Render(fmt.Sprintf("%d", m.status.Participants)),
		MutedStyle.Render(fmt.Sprintf("%d", m.status.Links)),
	))

	elapsed := time.Since(m.startTime).Round(time.Second)
	b.WriteString(MutedStyle.Render(fmt.Sprintf("\nSession %s · up %s · press q to leave\n", m.sessionID, elapsed)))

	return b.String()
}
