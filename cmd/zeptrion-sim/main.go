// Zeptrion-sim is a simulated Zeptrion wall switch for local testing.
//
// It serves the device HTTP API and WebSocket on plain HTTP, keeps channel,
// LED and smart button state in memory, and pushes channel changes to
// connected WebSocket clients the way a real device does.
//
// Usage:
//
//	zeptrion-sim serve [flags]
//
// See 'zeptrion-sim serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/zeptrion/internal/simulator"
	"github.com/muurk/zeptrion/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "zeptrion-sim",
	Short: "Zeptrion Device Simulator",
	Long: `A simulated Zeptrion wall switch.

Point the zeptrion client at it with --device 127.0.0.1:<port>. Every
command received is logged. Endpoints the simulator does not model
answer 501 Not Implemented.`,
	Version:      version.Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	host     string
	port     int
	logLevel string
	logFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the simulated device",
	Long: `Start the simulated device and serve until interrupted.

Logs go to stderr unless --log-file is given, in which case they are
written as JSON to a size-rotated file.`,
	Example: `  # Serve on all interfaces, port 8080
  zeptrion-sim serve

  # Loopback only, verbose
  zeptrion-sim serve --host 127.0.0.1 --port 9000 --log-level debug

  # Log to a rotating file
  zeptrion-sim serve --log-file ./zeptrion-sim.log`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&host, "host", "", "Listen address (empty = all interfaces)")
	serveCmd.Flags().IntVar(&port, "port", 8080, "Listen port")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serveCmd.Flags().StringVar(&logFile, "log-file", "", "Write JSON logs to a rotating file instead of stderr")
}

func runServe(cmd *cobra.Command, args []string) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("invalid port %d", port)
	}

	srv, err := simulator.New(&simulator.Config{
		Host:     host,
		Port:     port,
		LogLevel: logLevel,
		LogFile:  logFile,
	})
	if err != nil {
		return fmt.Errorf("failed to create simulator: %w", err)
	}

	return srv.Start()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "zeptrion-sim %s\n", version.Full())
	},
}
