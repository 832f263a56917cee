package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"murmur/dictation"
)

// Messages posted into the TUI from the orchestrator's observables.
type StateMsg struct{ State dictation.State }
type AudioLevelMsg struct{ Level float64 }
type TranscriptMsg struct{ Text string }
type ErrorTextMsg struct{ Text string }
type ReadyMsg struct{ Ready dictation.Readiness }
type LoadingMsg struct{ Loading dictation.ModelLoading }
type ModelLineMsg struct{ Text string }
type DeviceLineMsg struct{ Text string }
type tickMsg time.Time

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

var (
	styleRec     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleProc    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleDimBold = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	styleText    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleMeter   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	styleMeterHi = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type tuiModel struct {
	state          dictation.State
	frame          int
	recordingSince time.Time
	audioLevel     float64
	peakLevel      float64
	msgCount       int
	width, height  int
	lastText       string
	errText        string
	ready          dictation.Readiness
	loading        dictation.ModelLoading
	modelLine      string
	deviceLine     string
	hotkeyLine     string
}

func NewTUIProgram(hotkeyLine string) *tea.Program {
	m := tuiModel{hotkeyLine: hotkeyLine}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StateMsg:
		prev := m.state.Phase
		m.state = msg.State
		if msg.State.Phase == dictation.PhaseRecording && prev != dictation.PhaseRecording {
			m.recordingSince = time.Now()
			m.audioLevel = 0
			m.peakLevel = 0
		}

	case AudioLevelMsg:
		if m.state.Phase == dictation.PhaseRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
			if msg.Level > m.peakLevel {
				m.peakLevel = msg.Level
			}
		} else {
			m.audioLevel = 0
		}

	case TranscriptMsg:
		if msg.Text != "" {
			m.msgCount++
			m.lastText = msg.Text
		}

	case ErrorTextMsg:
		m.errText = msg.Text

	case ReadyMsg:
		m.ready = msg.Ready

	case LoadingMsg:
		m.loading = msg.Loading

	case ModelLineMsg:
		m.modelLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) statusLine() string {
	switch m.state.Phase {
	case dictation.PhaseRecording:
		return styleRec.Render(fmt.Sprintf("● REC %.1fs", time.Since(m.recordingSince).Seconds()))
	case dictation.PhaseProcessing:
		return styleProc.Render(spinnerFrames[m.frame%len(spinnerFrames)] + " TRANSCRIBING")
	case dictation.PhaseSuccess:
		s := "✓ DONE"
		if m.state.Message != "" {
			s += " — " + m.state.Message
		}
		return styleOK.Render(s)
	case dictation.PhaseError:
		return styleErr.Render("✗ ERROR")
	default:
		return styleIdle.Render("○ STANDBY")
	}
}

func (m tuiModel) levelMeter(width int) string {
	filled := int(m.audioLevel * 3 * float64(width))
	if filled > width {
		filled = width
	}
	peak := int(m.peakLevel * 3 * float64(width))
	if peak >= width {
		peak = width - 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < filled && i >= width*3/4:
			b.WriteString(styleMeterHi.Render("█"))
		case i < filled:
			b.WriteString(styleMeter.Render("█"))
		case i == peak && peak > 0:
			b.WriteString(styleDim.Render("│"))
		default:
			b.WriteString(styleDim.Render("·"))
		}
	}
	return b.String()
}

func (m tuiModel) readyLine() string {
	mark := func(ok bool) string {
		if ok {
			return styleOK.Render("✓")
		}
		return styleErr.Render("✗")
	}
	return styleIdle.Render("mic ") + mark(m.ready.Mic) +
		styleIdle.Render("  model ") + mark(m.ready.Model)
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const leftWidth = 40

	var left []string
	left = append(left, "")
	left = append(left, m.statusLine())
	left = append(left, "")
	if m.state.Phase == dictation.PhaseRecording {
		left = append(left, m.levelMeter(leftWidth-6))
		if time.Since(m.recordingSince) > time.Second && m.peakLevel < 0.02 {
			left = append(left, styleErr.Render("⚠ no voice detected"))
		}
	} else {
		left = append(left, "")
	}
	left = append(left, "")
	left = append(left, m.readyLine())

	if m.loading.Active {
		left = append(left, styleProc.Render(
			spinnerFrames[m.frame%len(spinnerFrames)]+" loading "+m.loading.ModelID))
	}
	if m.modelLine != "" {
		left = append(left, styleIdle.Render(m.modelLine))
	}
	if m.deviceLine != "" {
		left = append(left, styleIdle.Render(m.deviceLine))
	}
	if m.errText != "" {
		left = append(left, "")
		for _, line := range wrapText(m.errText, leftWidth-4) {
			left = append(left, styleErr.Render(line))
		}
	}

	left = append(left, "")
	left = append(left, styleDimBold.Render(m.hotkeyLine)+styleDim.Render(" to dictate"))
	left = append(left, styleDim.Render("murmur "+version))

	// Right panel: last transcription only.
	rightWidth := m.width - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}
	wrapWidth := rightWidth - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}

	var right strings.Builder
	if m.lastText != "" {
		right.WriteString(styleIdle.Render(fmt.Sprintf("Last transcription (#%d)", m.msgCount)) + "\n\n")
		for _, line := range wrapText(m.lastText, wrapWidth) {
			right.WriteString(styleText.Render(line) + "\n")
		}
	} else {
		right.WriteString(styleIdle.Render("No transcriptions yet"))
	}

	leftPanel := lipgloss.NewStyle().
		Width(leftWidth).
		Height(m.height).
		PaddingLeft(2).
		Render(strings.Join(left, "\n"))
	rightPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(right.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
