package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/zeptrion/internal/zeptrion"
)

// splitAssignment splits "id=value" into a positive id and a non-empty value
func splitAssignment(arg string) (int, string, error) {
	key, value, found := strings.Cut(arg, "=")
	if !found {
		return 0, "", fmt.Errorf("invalid argument %q: expected <id>=<value>", arg)
	}
	id, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil || id < 1 {
		return 0, "", fmt.Errorf("invalid id in %q: must be a positive number", arg)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, "", fmt.Errorf("invalid argument %q: missing value", arg)
	}
	return id, value, nil
}

// parseChannelArgs turns ["1=on", "3=off"] into parallel id and value slices
func parseChannelArgs(args []string) ([]int, []bool, error) {
	ids := make([]int, 0, len(args))
	values := make([]bool, 0, len(args))

	for _, arg := range args {
		id, value, err := splitAssignment(arg)
		if err != nil {
			return nil, nil, err
		}
		switch strings.ToLower(value) {
		case "on", "1", "true":
			values = append(values, true)
		case "off", "0", "false":
			values = append(values, false)
		default:
			return nil, nil, fmt.Errorf("invalid channel value %q in %q: use on or off", value, arg)
		}
		ids = append(ids, id)
	}
	return ids, values, nil
}

// parseLedArgs turns ["2=yellow", "3=#00FFFF"] into parallel id and color
// slices. Palette names resolve to hex, anything else is sent as given.
func parseLedArgs(args []string) ([]int, []string, error) {
	ids := make([]int, 0, len(args))
	colors := make([]string, 0, len(args))

	for _, arg := range args {
		id, value, err := splitAssignment(arg)
		if err != nil {
			return nil, nil, err
		}
		ids = append(ids, id)
		colors = append(colors, zeptrion.ColorByName(value))
	}
	return ids, colors, nil
}

// parseLabelArgs turns ["1=Ceiling"] into a channel label map
func parseLabelArgs(args []string) (map[int]string, error) {
	labels := make(map[int]string, len(args))
	for _, arg := range args {
		id, value, err := splitAssignment(arg)
		if err != nil {
			return nil, err
		}
		labels[id] = value
	}
	return labels, nil
}

// parseButtonArg parses a smart button index (1-9)
func parseButtonArg(arg string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, fmt.Errorf("invalid button %q: must be a number", arg)
	}
	if index < zeptrion.MinButton || index > zeptrion.MaxButton {
		return 0, zeptrion.NewButtonRangeError(index)
	}
	return index, nil
}
