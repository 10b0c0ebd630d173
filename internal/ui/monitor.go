package ui

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/muurk/zeptrion/internal/zeptrion"
)

const (
	maxMonitorEvents   = 10
	statePollInterval  = 250 * time.Millisecond
	buttonReleaseDelay = 200 * time.Millisecond
	maxEventTextLength = 80
)

// MonitorDevice is what the monitor needs from a connected device.
// *zeptrion.Client satisfies it.
type MonitorDevice interface {
	Address() string
	State() zeptrion.ConnState
	Messages() <-chan []byte
	SetButton(index int, pressed bool) error
}

// monitorKeyMap defines key bindings for the monitor screen
type monitorKeyMap struct {
	Buttons key.Binding
	Clear   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Buttons, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Buttons, k.Clear},
		{k.Help, k.Quit},
	}
}

type monitorEvent struct {
	At   time.Time
	Text string
}

// Messages flowing through the monitor
type (
	deviceMessageMsg []byte
	deviceClosedMsg  struct{}
	stateTickMsg     time.Time
	buttonReleaseMsg int
)

// MonitorModel shows the push stream of one device and sends smart button
// presses for keys 1-9.
type MonitorModel struct {
	Device   MonitorDevice
	Labels   map[int]string // Channel labels from the registry
	State    zeptrion.ConnState
	Channels map[int]int // Last pushed value per channel
	Pressed  [zeptrion.MaxButton]bool
	Events   []monitorEvent
	Err      error
	Closed   bool

	Width   int
	Spinner spinner.Model
	Help    help.Model
	Keys    monitorKeyMap

	now func() time.Time
}

// NewMonitorModel creates a monitor for device
func NewMonitorModel(device MonitorDevice, labels map[int]string) MonitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return MonitorModel{
		Device:   device,
		Labels:   labels,
		State:    device.State(),
		Channels: make(map[int]int),
		Width:    GetTerminalWidth(),
		Spinner:  s,
		Help:     help.New(),
		Keys: monitorKeyMap{
			Buttons: key.NewBinding(
				key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
				key.WithHelp("1-9", "press button"),
			),
			Clear: key.NewBinding(
				key.WithKeys("c"),
				key.WithHelp("c", "clear events"),
			),
			Help: key.NewBinding(
				key.WithKeys("?"),
				key.WithHelp("?", "more help"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
		now: time.Now,
	}
}

// RunMonitor runs the monitor until the user quits
func RunMonitor(device MonitorDevice, labels map[int]string) error {
	p := tea.NewProgram(NewMonitorModel(device, labels), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func waitForMessage(ch <-chan []byte) tea.Cmd {
	return func() tea.Msg {
		data, ok := <-ch
		if !ok {
			return deviceClosedMsg{}
		}
		return deviceMessageMsg(data)
	}
}

func pollState() tea.Cmd {
	return tea.Tick(statePollInterval, func(t time.Time) tea.Msg {
		return stateTickMsg(t)
	})
}

// Init implements tea.Model
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(
		m.Spinner.Tick,
		waitForMessage(m.Device.Messages()),
		pollState(),
	)
}

// Update implements tea.Model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)

	case deviceMessageMsg:
		m.applyPush(msg)
		return m, waitForMessage(m.Device.Messages())

	case deviceClosedMsg:
		m.Closed = true
		m.State = m.Device.State()
		m.addEvent("connection closed")
		return m, nil

	case stateTickMsg:
		if state := m.Device.State(); state != m.State {
			m.State = state
			m.addEvent("connection " + state.String())
		}
		if m.Closed {
			return m, nil
		}
		return m, pollState()

	case buttonReleaseMsg:
		index := int(msg)
		m.Pressed[index-1] = false
		if err := m.Device.SetButton(index, false); err != nil {
			m.Err = err
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m MonitorModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.Help.ShowAll = !m.Help.ShowAll

	case key.Matches(msg, m.Keys.Clear):
		m.Events = nil
		m.Err = nil

	case key.Matches(msg, m.Keys.Buttons):
		index := int(msg.String()[0] - '0')
		if err := m.Device.SetButton(index, true); err != nil {
			m.Err = err
			m.addEvent(fmt.Sprintf("button %d: %s", index, zeptrion.ShortErrorMessage(err)))
			return m, nil
		}
		m.Err = nil
		m.Pressed[index-1] = true
		m.addEvent(fmt.Sprintf("button %d pressed", index))
		return m, tea.Tick(buttonReleaseDelay, func(time.Time) tea.Msg {
			return buttonReleaseMsg(index)
		})
	}

	return m, nil
}

func (m *MonitorModel) addEvent(text string) {
	if len(text) > maxEventTextLength {
		text = text[:maxEventTextLength] + "…"
	}
	m.Events = append(m.Events, monitorEvent{At: m.now(), Text: text})
	if len(m.Events) > maxMonitorEvents {
		m.Events = m.Events[len(m.Events)-maxMonitorEvents:]
	}
}

func (m *MonitorModel) applyPush(data []byte) {
	events, ok := ParseChannelPush(data)
	if !ok {
		m.addEvent("message " + strings.TrimSpace(string(data)))
		return
	}
	for _, ev := range events {
		m.Channels[ev.Channel] = ev.Value
		m.addEvent(fmt.Sprintf("%s → %d", m.channelLabel(ev.Channel), ev.Value))
	}
}

func (m MonitorModel) channelLabel(channel int) string {
	if label, ok := m.Labels[channel]; ok && label != "" {
		return label
	}
	return fmt.Sprintf("channel %d", channel)
}

// ChannelPush is one channel value carried by a push message
type ChannelPush struct {
	Channel int
	Value   int
}

// ParseChannelPush decodes messages of the form {"eid1":{"ch":3,"val":100}}.
// It reports false for anything else.
func ParseChannelPush(data []byte) ([]ChannelPush, bool) {
	var raw map[string]struct {
		Ch  *int `json:"ch"`
		Val *int `json:"val"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || len(raw) == 0 {
		return nil, false
	}

	keys := lo.Keys(raw)
	sort.Strings(keys)

	var events []ChannelPush
	for _, k := range keys {
		v := raw[k]
		if !strings.HasPrefix(k, "eid") || v.Ch == nil || v.Val == nil {
			continue
		}
		events = append(events, ChannelPush{Channel: *v.Ch, Value: *v.Val})
	}
	return events, len(events) > 0
}

// View implements tea.Model
func (m MonitorModel) View() string {
	width := m.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var b strings.Builder

	state := StateStyle(m.State).Render(m.State.String())
	if m.State == zeptrion.StateConnecting {
		state = m.Spinner.View() + " " + state
	}
	b.WriteString(HeaderTitleStyle.Render("ZEPTRION MONITOR") + "  " +
		HeaderParamValueStyle.Render(m.Device.Address()) + "  " + state)
	b.WriteString("\n")
	b.WriteString(RenderHorizontalDivider(width-2, "─"))
	b.WriteString("\n\n")

	b.WriteString(HeaderParamKeyStyle.Render("Channels:"))
	if len(m.Channels) == 0 {
		b.WriteString(" " + MutedStyle.Render("no updates yet"))
	}
	ids := lo.Keys(m.Channels)
	sort.Ints(ids)
	for _, id := range ids {
		style := ChannelOffStyle
		if m.Channels[id] > 0 {
			style = ChannelOnStyle
		}
		b.WriteString("  " + style.Render(fmt.Sprintf("%s=%d", m.channelLabel(id), m.Channels[id])))
	}
	b.WriteString("\n")

	b.WriteString(HeaderParamKeyStyle.Render("Buttons: "))
	for i, pressed := range m.Pressed {
		style := ButtonIdleStyle
		if pressed {
			style = ButtonPressedStyle
		}
		b.WriteString(" " + style.Render(fmt.Sprintf("[%d]", i+1)))
	}
	b.WriteString("\n\n")

	if len(m.Events) == 0 {
		b.WriteString(MutedStyle.Render("  waiting for device messages…"))
		b.WriteString("\n")
	}
	for _, ev := range m.Events {
		b.WriteString("  " + MutedStyle.Render(ev.At.Format("15:04:05")) + "  " + ev.Text + "\n")
	}

	if m.Err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorMessageStyle.Render("  " + zeptrion.ShortErrorMessage(m.Err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(m.Help.View(m.Keys)))
	return b.String()
}
