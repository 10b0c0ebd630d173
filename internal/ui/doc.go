// Package ui provides terminal UI components for the zeptrion CLI.
//
// Most commands follow a "print once and exit" pattern using lipgloss:
//
//   - Header: command banner showing the operation and target device
//   - Result: success, failure and warning boxes with details and
//     troubleshooting tips
//   - ConfirmDangerousOperation: a warning box that requires typing
//     "I AGREE" before factory or network resets
//
// The monitor command is the one interactive screen. MonitorModel is a
// Bubble Tea model that shows the connection state and the device's push
// messages, and sends smart button presses for keys 1-9.
//
// # Logging Integration
//
// This package expects logging to be controlled via ZEPTRION_LOG_LEVEL.
// When unset or empty, zap logging is silent so the styled output is not
// interleaved with log lines.
package ui
