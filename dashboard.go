package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rezmoss/polytimer/pkg/config"
	"github.com/rezmoss/polytimer/pkg/notify"
	"github.com/rezmoss/polytimer/pkg/state"
	"github.com/rezmoss/polytimer/pkg/timer"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4A90E2")).
			Padding(0, 1).
			MarginBottom(1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	idleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7DC6F")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2).
			MarginBottom(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

type tickMsg time.Time

// doneMsg reports the outcome of an action run outside Update.
type doneMsg struct{ err error }

type expiredMsg struct{ err error }

type dashboardModel struct {
	ctl      *timer.Controller
	cfg      *config.Config
	reading  timer.Reading
	err      error
	expiring bool
	width    int
	height   int
}

func newDashboardModel(ctl *timer.Controller, cfg *config.Config) dashboardModel {
	return dashboardModel{ctl: ctl, cfg: cfg}
}

func (m dashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.cfg.PollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m dashboardModel) run(action func() error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{err: action()}
	}
}

func (m dashboardModel) expireCmd() tea.Cmd {
	return func() tea.Msg {
		return expiredMsg{err: m.ctl.Expire(context.Background())}
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return func() tea.Msg { return tickMsg(time.Now()) }
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			return m, m.run(m.ctl.Toggle)
		case "+":
			return m, m.run(func() error { return m.ctl.Increase(m.cfg.IncreaseStep) })
		case "n":
			return m, m.run(func() error {
				_, err := m.ctl.New(timer.Duration(m.cfg.DefaultMinutes, time.Minute))
				return err
			})
		case "c":
			return m, m.run(m.ctl.Cancel)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		m.poll()
		if m.reading.Done() && !m.expiring {
			m.expiring = true
			return m, tea.Batch(m.expireCmd(), m.tickCmd())
		}
		return m, m.tickCmd()
	case doneMsg:
		m.err = msg.err
		m.poll()
	case expiredMsg:
		m.expiring = false
		m.err = msg.err
		m.poll()
	}
	return m, nil
}

func (m *dashboardModel) poll() {
	r, err := m.ctl.Poll()
	m.reading = r
	if err != nil {
		m.err = err
	}
}

func (m dashboardModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := headerStyle.Width(m.width).Render(
		fmt.Sprintf("⏱ Timer - %s", time.Now().Format("Jan 2, 2006 15:04:05")),
	)

	icons := timer.Icons{Play: m.cfg.PlayIcon, Pause: m.cfg.PauseIcon}
	var body string
	switch {
	case !m.reading.Active:
		body = idleStyle.Render("no timer") + "\n\nPress 'n' to start " + humanDuration(int(m.cfg.DefaultMinutes))
	case m.reading.Paused:
		body = pausedStyle.Render(m.reading.Label(icons)) + "\n\npaused with " + humanDuration(int(m.reading.Remaining/time.Minute)) + " left"
	default:
		body = runningStyle.Render(m.reading.Label(icons)) + "\n\nends at " + m.reading.Expiry.Format("15:04:05")
	}

	boxWidth := m.width - 4
	if boxWidth < 20 {
		boxWidth = 20
	}
	content := boxStyle.Width(boxWidth).Render(body)

	var errLine string
	if m.err != nil {
		errLine = idleStyle.Render(errorText(m.err, m.cfg.StateDir))
	}

	footer := footerStyle.Width(m.width).Render(
		fmt.Sprintf("space toggle • + add %s • n new • c cancel • q quit", m.cfg.IncreaseStep),
	)

	full := lipgloss.JoinVertical(lipgloss.Left, header, content, errLine, footer)
	if h := lipgloss.Height(full); h < m.height {
		full += strings.Repeat("\n", m.height-h-1)
	}
	return full
}

func errorText(err error, dir string) string {
	if errors.Is(err, state.ErrPermission) {
		return fmt.Sprintf("Insufficient permissions! Try manually deleting %s and creating a new timer.", dir)
	}
	return err.Error()
}

func humanDuration(mins int) string {
	h := mins / 60
	m := mins % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d hr %d mins", h, m)
	case h > 0:
		if h == 1 {
			return "1 hr"
		}
		return fmt.Sprintf("%d hrs", h)
	case m == 1:
		return "1 min"
	default:
		return fmt.Sprintf("%d mins", m)
	}
}

func (a *app) cmdDashboard(args []string) error {
	if err := parseArgs(a.subcommand("dashboard"), args, 0, 0); err != nil {
		return err
	}

	n := a.notifier(notify.Bell{W: os.Stderr})
	m := newDashboardModel(a.controller(timer.WithNotifier(n)), a.cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
