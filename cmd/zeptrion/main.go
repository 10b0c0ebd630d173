// Zeptrion is a command line client for Zeptrion wall switches.
//
// It sends system, channel, LED and smart button commands to a device over
// its HTTP API and WebSocket, and can watch the device's push messages in a
// live terminal view. Devices can be saved under a nickname.
//
// Usage:
//
//	zeptrion [command] [flags]
//
// See 'zeptrion --help' for available commands.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/zeptrion/internal/config"
	"github.com/muurk/zeptrion/internal/logging"
	"github.com/muurk/zeptrion/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	deviceFlag   string
	logLevel     string
	timeout      time.Duration
	assumeYes    bool
	registryPath string
)

var rootCmd = &cobra.Command{
	Use:   "zeptrion",
	Short: "Zeptrion Device Client",
	Long: `A command line client for Zeptrion wall switches.

Commands are sent to the device's HTTP API without waiting for the device
to act on them; the result of each request is reported once it completes.
Smart button presses and the live monitor use the device's WebSocket.

Use --device with an IP address, host:port, or a nickname saved with
'zeptrion devices add'. Without --device the default device is used.`,
	Version:           version.Version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", "", "Device address or saved nickname")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent if unset")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "Timeout for HTTP requests and WebSocket connect")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().StringVar(&registryPath, "config", "", "Path to the device registry (default: platform config dir)")

	rootCmd.AddCommand(versionCmd)
}

// setupLogging picks the level from --log-level, ZEPTRION_LOG_LEVEL, then
// the registry preference.
func setupLogging(cmd *cobra.Command, args []string) error {
	level := logLevel
	if level == "" {
		level = os.Getenv(logging.LogLevelEnvVar)
	}
	if level == "" {
		if reg, err := loadRegistry(); err == nil && reg.Preferences != nil {
			level = reg.Preferences.LogLevel
		}
	}
	return logging.Initialize(level)
}

// loadRegistry loads the registry from --config or the default location
func loadRegistry() (*config.Registry, error) {
	if registryPath != "" {
		return config.LoadRegistryFrom(registryPath)
	}
	return config.LoadRegistry()
}

// saveRegistry writes the registry back to where it was loaded from
func saveRegistry(reg *config.Registry) error {
	if registryPath != "" {
		return reg.SaveTo(registryPath)
	}
	return reg.Save()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "zeptrion %s\n%s\n", version.Full(), version.Platform())
	},
}
