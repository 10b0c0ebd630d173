// Package logging provides structured logging for the Zeptrion client and tools.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used throughout the client: WebSocket lifecycle events, raw push
// payloads, and the outcome of fire-and-forget HTTP commands.
//
// # Log Levels
//
//   - Debug: hex dumps, dropped push payloads
//   - Info: connection events, messages, dispatched commands
//   - Warn: failed dispatches, unexpected closes
//   - Error: startup failures
//
// # Structured Logging
//
//	logging.LogConnection("192.168.1.132", "open")
//	logging.LogWebSocketMessage("192.168.1.132", "received", 1, payload)
//	logging.LogDispatch("POST", "http://192.168.1.132/zrap/chctrl", 200, body, nil)
//
// # Configuration
//
// Logging is silent unless a level is given explicitly or through the
// ZEPTRION_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// Output goes to stderr so it never mixes with CLI output on stdout.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. SetLogger may be called
// at any time, which tests use to install an observer core.
package logging
