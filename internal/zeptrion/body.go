package zeptrion

import (
	"strconv"
	"strings"
)

// System command bodies posted to PathSys
const (
	CmdReboot         = "cmd=reboot"
	CmdFactoryDefault = "cmd=factory-default"
	CmdNetworkDefault = "cmd=network-default"
)

// Button field layout for the pid2 WebSocket message
const (
	MinButton         = 1
	MaxButton         = 9
	ButtonPlaceholder = '.'
	ButtonPressed     = 'P'
)

// ChannelCommand switches one channel on or off
type ChannelCommand struct {
	ID int
	On bool
}

// LedCommand sets the background color of one front LED
type LedCommand struct {
	ID    int
	Color string
}

// ButtonCommand sets the press state of one button
type ButtonCommand struct {
	Index   int
	Pressed bool
}

// ChannelCommands pairs ids with values. It fails when the slices differ in length.
func ChannelCommands(ids []int, values []bool) ([]ChannelCommand, error) {
	if len(ids) != len(values) {
		return nil, NewLengthMismatchError("set channels", len(ids), len(values))
	}
	cmds := make([]ChannelCommand, len(ids))
	for i, id := range ids {
		cmds[i] = ChannelCommand{ID: id, On: values[i]}
	}
	return cmds, nil
}

// LedCommands pairs ids with colors. It fails when the slices differ in length.
func LedCommands(ids []int, colors []string) ([]LedCommand, error) {
	if len(ids) != len(colors) {
		return nil, NewLengthMismatchError("set leds", len(ids), len(colors))
	}
	cmds := make([]LedCommand, len(ids))
	for i, id := range ids {
		cmds[i] = LedCommand{ID: id, Color: colors[i]}
	}
	return cmds, nil
}

// ChannelBody encodes channel commands as "cmd1=on&cmd3=off", in order.
func ChannelBody(cmds []ChannelCommand) string {
	terms := make([]string, len(cmds))
	for i, c := range cmds {
		state := "off"
		if c.On {
			state = "on"
		}
		terms[i] = "cmd" + strconv.Itoa(c.ID) + "=" + state
	}
	return strings.Join(terms, "&")
}

// LedBody encodes LED commands as a JSON array of {"id":N,"bg":"COLOR"}.
// Colors are copied into the body verbatim, without JSON escaping, so a
// color containing a quote or backslash yields a body that is not valid
// JSON. The device is left to reject it.
func LedBody(cmds []LedCommand) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range cmds {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"id":`)
		b.WriteString(strconv.Itoa(c.ID))
		b.WriteString(`,"bg":"`)
		b.WriteString(c.Color)
		b.WriteString(`"}`)
	}
	b.WriteByte(']')
	return b.String()
}

// ButtonField returns the 9-character press field for one button.
func ButtonField(cmd ButtonCommand) (string, error) {
	if cmd.Index < MinButton || cmd.Index > MaxButton {
		return "", NewButtonRangeError(cmd.Index)
	}

	var field [MaxButton]byte
	for i := range field {
		field[i] = ButtonPlaceholder
	}
	if cmd.Pressed {
		field[cmd.Index-1] = ButtonPressed
	}
	return string(field[:]), nil
}

// ButtonPayload wraps the press field in the pid2 envelope sent over the WebSocket.
func ButtonPayload(cmd ButtonCommand) ([]byte, error) {
	field, err := ButtonField(cmd)
	if err != nil {
		return nil, err
	}
	return []byte(`{"pid2":{"bta":"` + field + `"}}`), nil
}
