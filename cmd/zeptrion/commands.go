package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/muurk/zeptrion/internal/ui"
	"github.com/muurk/zeptrion/internal/zeptrion"
)

// Command flags
var (
	factoryReset  bool
	networkReset  bool
	buttonRelease bool
	buttonTap     time.Duration
	setDefault    bool
	channelLabels []string
)

func init() {
	rootCmd.AddCommand(rebootCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(channelCmd)
	rootCmd.AddCommand(ledCmd)
	rootCmd.AddCommand(buttonCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(pathsCmd)

	resetCmd.Flags().BoolVar(&factoryReset, "factory", false, "Restore factory defaults")
	resetCmd.Flags().BoolVar(&networkReset, "network", false, "Restore network defaults only")

	buttonCmd.Flags().BoolVar(&buttonRelease, "release", false, "Send a release instead of a press")
	buttonCmd.Flags().DurationVar(&buttonTap, "tap", 0, "Press, then release after this long (e.g. 200ms)")
}

// rebootCmd restarts the device
var rebootCmd = &cobra.Command{
	Use:     "reboot",
	Short:   "Reboot the device",
	Example: `  zeptrion reboot --device 192.168.1.132`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		s.client.Reboot()
		return s.finish(ui.NewPrinter(cmd.OutOrStdout()), "Reboot sent")
	},
}

// resetCmd performs a factory or network reset
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the device to factory or network defaults",
	Long: `Reset the device.

--factory erases all settings. --network only resets the WiFi configuration.
Both ask for confirmation unless --yes is given.`,
	Example: `  zeptrion reset --network --device hallway
  zeptrion reset --factory --device 192.168.1.132 --yes`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	if factoryReset == networkReset {
		return errors.New("specify exactly one of --factory or --network")
	}
	kind, title := "network", "Network reset sent"
	if factoryReset {
		kind, title = "factory", "Factory reset sent"
	}

	s, err := openSession()
	if err != nil {
		return err
	}

	if !assumeYes && !ui.ResetConfirmation(cmd.InOrStdin(), cmd.OutOrStdout(), kind, s.label()) {
		_ = s.client.Close()
		return nil
	}

	if factoryReset {
		s.client.HardReset()
	} else {
		s.client.NetworkReset()
	}
	return s.finish(ui.NewPrinter(cmd.OutOrStdout()), title)
}

// channelCmd switches channels on or off
var channelCmd = &cobra.Command{
	Use:   "channel <id>=on|off...",
	Short: "Switch channels on or off",
	Long: `Switch one or more channels in a single request.

Terms are sent in the order given.`,
	Example: `  zeptrion channel 1=on
  zeptrion channel 1=on 3=off --device hallway`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, values, err := parseChannelArgs(args)
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		if err := s.client.SetChannels(ids, values); err != nil {
			return s.fail(p, "Set channels", err)
		}
		return s.finish(p, fmt.Sprintf("Set %d channel(s)", len(ids)))
	},
}

// ledCmd sets smart front LED colors
var ledCmd = &cobra.Command{
	Use:   "led <id>=<color>...",
	Short: "Set smart front LED colors",
	Long: `Set the background color of one or more smart front LEDs.

Colors are '#RRGGBB' strings or one of: ` + strings.Join(paletteNames(), ", ") + `.`,
	Example: `  zeptrion led 1=red
  zeptrion led 2=#FFFF00 3=cyan 4=cyan`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, colors, err := parseLedArgs(args)
		if err != nil {
			return err
		}

		s, err := openSession()
		if err != nil {
			return err
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		if err := s.client.SetLeds(ids, colors); err != nil {
			return s.fail(p, "Set LEDs", err)
		}
		return s.finish(p, fmt.Sprintf("Set %d LED(s)", len(ids)))
	},
}

// buttonCmd presses or releases a smart button over the WebSocket
var buttonCmd = &cobra.Command{
	Use:   "button <index>",
	Short: "Press or release a smart button (1-9)",
	Long: `Send a smart button press or release over the device WebSocket.

The command waits up to --timeout for the WebSocket to open.`,
	Example: `  zeptrion button 5
  zeptrion button 5 --release
  zeptrion button 2 --tap 200ms`,
	Args: cobra.ExactArgs(1),
	RunE: runButton,
}

func runButton(cmd *cobra.Command, args []string) error {
	index, err := parseButtonArg(args[0])
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}

	p := ui.NewPrinter(cmd.OutOrStdout())
	if err := s.waitOpen(cmd.Context()); err != nil {
		return s.fail(p, "Button", err)
	}

	if err := s.client.SetButton(index, !buttonRelease); err != nil {
		return s.fail(p, "Button", err)
	}
	if buttonTap > 0 && !buttonRelease {
		time.Sleep(buttonTap)
		if err := s.client.SetButton(index, false); err != nil {
			return s.fail(p, "Button", err)
		}
	}

	action := "pressed"
	switch {
	case buttonRelease:
		action = "released"
	case buttonTap > 0:
		action = "tapped"
	}
	return s.finish(p, fmt.Sprintf("Button %d %s", index, action))
}

// monitorCmd opens the live monitor
var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch device messages and press smart buttons",
	Long: `Open a live view of the device WebSocket.

Channel updates pushed by the device are shown as they arrive. Keys 1-9
press and release the matching smart button. The connection is not
re-established if the device drops it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer func() { _ = s.client.Close() }()
		return ui.RunMonitor(s.client, s.channelLabels())
	},
}

// devicesCmd manages saved devices
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage saved devices",
}

var devicesAddCmd = &cobra.Command{
	Use:   "add <nickname> <address>",
	Short: "Save a device under a nickname",
	Example: `  zeptrion devices add hallway 192.168.1.132 --default
  zeptrion devices add sim 127.0.0.1:8080 --label 1=Ceiling --label 2=Blinds`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		labels, err := parseLabelArgs(channelLabels)
		if err != nil {
			return err
		}

		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		name, address := args[0], args[1]
		if err := reg.SetDevice(name, address); err != nil {
			return err
		}
		for ch, label := range labels {
			reg.SetChannelLabel(name, ch, label)
		}
		if setDefault || len(reg.Devices) == 1 {
			_ = reg.SetDefaultDevice(name)
		}
		if err := saveRegistry(reg); err != nil {
			return err
		}

		ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Device saved", map[string]string{
			"Nickname": name,
			"Address":  address,
		})
		return nil
	},
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved devices",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		p := ui.NewPrinter(cmd.OutOrStdout())
		names := reg.DeviceNames()
		if len(names) == 0 {
			p.Println("No saved devices. Add one with 'zeptrion devices add <nickname> <address>'.")
			return nil
		}

		for _, name := range names {
			device := reg.Devices[name]
			marker := " "
			if reg.Preferences != nil && reg.Preferences.DefaultDevice == name {
				marker = "*"
			}
			p.Printf("%s %-16s %s\n", marker, name, device.Address)

			ids := lo.Keys(device.Channels)
			sort.Ints(ids)
			for _, id := range ids {
				p.Printf("    %d: %s\n", id, device.Channels[id])
			}
		}
		return nil
	},
}

var devicesRemoveCmd = &cobra.Command{
	Use:   "remove <nickname>",
	Short: "Forget a saved device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if !reg.RemoveDevice(args[0]) {
			return fmt.Errorf("unknown device %q", args[0])
		}
		return saveRegistry(reg)
	},
}

var devicesDefaultCmd = &cobra.Command{
	Use:   "default <nickname>",
	Short: "Use a saved device when --device is omitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if err := reg.SetDefaultDevice(args[0]); err != nil {
			return err
		}
		return saveRegistry(reg)
	},
}

func init() {
	devicesAddCmd.Flags().BoolVar(&setDefault, "default", false, "Make this the default device")
	devicesAddCmd.Flags().StringArrayVar(&channelLabels, "label", nil, "Channel label as <id>=<label> (repeatable)")

	devicesCmd.AddCommand(devicesAddCmd)
	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesRemoveCmd)
	devicesCmd.AddCommand(devicesDefaultCmd)
}

// pathsCmd lists the documented HTTP paths of the device
var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "List the device's documented HTTP paths",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		paths := lo.Keys(zeptrion.KnownPaths)
		sort.Strings(paths)

		p := ui.NewPrinter(cmd.OutOrStdout())
		for _, path := range paths {
			p.Printf("%-26s %s\n", path, zeptrion.KnownPaths[path])
		}
	},
}

func paletteNames() []string {
	names := lo.Keys(zeptrion.Palette)
	sort.Strings(names)
	return names
}
