// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/gatewatch/pkg/drv8305"
	"github.com/Thermoquad/gatewatch/pkg/session"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Live dashboard for the running driver",
	Long: `Run the driver with a terminal dashboard showing every register, the
confirmation flags, active faults and an event log.

Keys:
  c  confirm configuration     s  sleep      w  wake
  e  enable gate driver        d  disable    r  reset
  :  edit a field (hs.isink=5, applied on the next confirm)
  q  quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// Log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// driverView is a copy of the driver state taken on the session goroutine
type driverView struct {
	state   string
	flags   drv8305.ConfirmationFlags
	slots   [drv8305.NumRegisters]drv8305.RegisterSlot
	stats   drv8305.Stats
	lastErr error
	nfault  string
}

// TUI model
type model struct {
	sess     *session.Session
	connInfo string

	view    driverView
	table   table.Model
	input   textinput.Model
	editing bool

	log           []logEntry
	maxLogEntries int
	width         int
	height        int
	quitting      bool
}

// Messages
type refreshMsg time.Time
type viewMsg driverView
type eventMsg session.Event
type resultMsg struct {
	action string
	err    error
}

func initialModel(sess *session.Session, connInfo string) model {
	columns := []table.Column{
		{Title: "Register", Width: 17},
		{Title: "Addr", Width: 4},
		{Title: "Data", Width: 5},
		{Title: "Raw", Width: 6},
		{Title: "Flag", Width: 4},
		{Title: "Decoded", Width: 60},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(drv8305.NumRegisters+1),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	ti := textinput.New()
	ti.Placeholder = "hs.isink=5"
	ti.CharLimit = 48
	ti.Width = 30

	return model{
		sess:          sess,
		connInfo:      connInfo,
		table:         t,
		input:         ti,
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(refreshCmd(), m.waitEvent())
}

func refreshCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return refreshMsg(t)
	})
}

func (m model) waitEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg(<-m.sess.Events())
	}
}

func (m model) fetchView() tea.Cmd {
	return func() tea.Msg {
		var v driverView
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err := m.sess.Do(ctx, func(d *drv8305.Driver) error {
			v = driverView{
				state:   d.State().String(),
				flags:   d.ConfirmationFlags(),
				slots:   d.Registers(),
				stats:   d.Stats(),
				lastErr: d.LastError(),
				nfault:  "n/a",
			}
			if asserted, err := d.FaultAsserted(); err == nil {
				v.nfault = fmt.Sprintf("%v", asserted)
			}
			return nil
		})
		if err != nil {
			return resultMsg{action: "refresh", err: err}
		}
		return viewMsg(v)
	}
}

// act runs fn on the driver and reports the outcome in the log
func (m model) act(action string, fn func(d *drv8305.Driver) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return resultMsg{action: action, err: m.sess.Do(ctx, fn)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditor(msg)
		}
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			return m, m.act("confirm", func(d *drv8305.Driver) error { d.Confirm(); return nil })
		case "s":
			return m, m.act("sleep", func(d *drv8305.Driver) error { d.RequestSleep(); return nil })
		case "w":
			return m, m.act("wake", func(d *drv8305.Driver) error { d.RequestWake(); return nil })
		case "e":
			return m, m.act("enable", func(d *drv8305.Driver) error { return d.Enable() })
		case "d":
			return m, m.act("disable", func(d *drv8305.Driver) error { return d.Disable() })
		case "r":
			return m, m.act("reset", func(d *drv8305.Driver) error { return d.Reset() })
		case ":":
			m.editing = true
			m.input.SetValue("")
			return m, m.input.Focus()
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case refreshMsg:
		return m, tea.Batch(m.fetchView(), refreshCmd())

	case viewMsg:
		m.view = driverView(msg)
		m.table.SetRows(registerRows(m.view))

	case eventMsg:
		isError := msg.Kind == session.EventError
		if msg.Kind == session.EventControlPass && !strings.HasPrefix(msg.Text, "configuration confirmed") {
			isError = true
		}
		m.addLogEntry(fmt.Sprintf("%s: %s", msg.Kind, msg.Text), isError)
		return m, m.waitEvent()

	case resultMsg:
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("%s failed: %v", msg.action, msg.err), true)
		} else if msg.action != "refresh" {
			m.addLogEntry(msg.action, false)
		}
	}

	return m, nil
}

func (m model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	case "enter":
		m.editing = false
		m.input.Blur()
		text := m.input.Value()
		a, err := drv8305.ParseAssignment(text)
		if err != nil {
			m.addLogEntry(err.Error(), true)
			return m, nil
		}
		return m, m.act("set "+text, func(d *drv8305.Driver) error {
			cfg := d.Configuration()
			if err := a.Apply(&cfg); err != nil {
				return err
			}
			return d.SetConfiguration(cfg)
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func registerRows(v driverView) []table.Row {
	rows := make([]table.Row, 0, len(v.slots))
	for _, slot := range v.slots {
		r := slot.Address
		row := table.Row{r.String(), fmt.Sprintf("0x%02X", uint8(r)), "--", "--", "", ""}
		if slot.Valid {
			row[2] = fmt.Sprintf("0x%03X", slot.Data)
			row[3] = fmt.Sprintf("0x%04X", slot.Raw)
			if r.IsStatus() {
				row[5] = strings.TrimSpace(drv8305.FormatStatus(r, slot.Data))
			} else {
				row[5] = strings.TrimSpace(drv8305.FormatFields(r, slot.Data))
			}
		}
		if r.IsControl() {
			row[4] = "✗"
			if v.flags.Get(r) {
				row[4] = "✓"
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (m *model) addLogEntry(message string, isError bool) {
	m.log = append(m.log, logEntry{timestamp: time.Now(), message: message, isError: isError})
	if len(m.log) > m.maxLogEntries {
		m.log = m.log[len(m.log)-m.maxLogEntries:]
	}
}

func (m model) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("GATEWATCH - DRV8305"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | c confirm  s sleep  w wake  e enable  d disable  r reset  : edit  q quit", m.connInfo)))
	s.WriteString("\n\n")

	confirmed := valueStyle.Render("yes")
	if !m.view.flags.All() {
		confirmed = errorStyle.Render("no")
	}
	st := m.view.stats
	var summary strings.Builder
	summary.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("State:"), valueStyle.Render(m.view.state),
		labelStyle.Render("Confirmed:"), confirmed,
		labelStyle.Render("nFAULT:"), valueStyle.Render(m.view.nfault),
	))
	summary.WriteString(fmt.Sprintf("%s %d   %s %d   %s %d   %s %d   %s %d",
		labelStyle.Render("Transfers:"), st.Transfers,
		labelStyle.Render("Errors:"), st.TransportErrors+st.PowerErrors,
		labelStyle.Render("Fault frames:"), st.FaultFrames,
		labelStyle.Render("Status passes:"), st.StatusPasses,
		labelStyle.Render("Control passes:"), st.ControlPasses,
	))
	if m.view.lastErr != nil {
		summary.WriteString("\n" + errorStyle.Render("Last error: "+m.view.lastErr.Error()))
	}
	s.WriteString(boxStyle.Render(summary.String()))
	s.WriteString("\n")

	s.WriteString(boxStyle.Render(m.table.View()))
	s.WriteString("\n")

	if m.editing {
		s.WriteString(labelStyle.Render("Set: ") + m.input.View())
		s.WriteString("\n")
	}

	s.WriteString(labelStyle.Render("Recent Events:"))
	s.WriteString("\n")
	logHeight := m.height - drv8305.NumRegisters - 14
	if logHeight < 3 {
		logHeight = 3
	}
	start := len(m.log) - logHeight
	if start < 0 {
		start = 0
	}
	var logContent strings.Builder
	if len(m.log) == 0 {
		logContent.WriteString(headerStyle.Render("  (no events yet)"))
	}
	for _, entry := range m.log[start:] {
		timestamp := headerStyle.Render(entry.timestamp.Format("15:04:05.000"))
		if entry.isError {
			logContent.WriteString(fmt.Sprintf("%s %s\n", timestamp, errorStyle.Render("✗ "+entry.message)))
		} else {
			logContent.WriteString(fmt.Sprintf("%s %s\n", timestamp, infoStyle.Render("ℹ "+entry.message)))
		}
	}
	width := m.width - 4
	if width < 20 {
		width = 20
	}
	s.WriteString(boxStyle.Width(width).Render(logContent.String()))

	return s.String()
}

func runTUI(cmd *cobra.Command, args []string) error {
	rd, err := startDriver(drv8305.Handlers{})
	if err != nil {
		return err
	}
	defer rd.stop()

	p := tea.NewProgram(initialModel(rd.sess, rd.connInfo), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
