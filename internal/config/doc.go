// Package config provides the saved-device registry for the zeptrion CLI.
//
// The registry is a YAML file mapping nicknames to device addresses, with
// optional channel labels and a few preferences.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/zeptrion/config.yaml or $HOME/.config/zeptrion/config.yaml
//   - macOS: $HOME/.config/zeptrion/config.yaml
//   - Windows: %LOCALAPPDATA%\zeptrion\config.yaml
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_ = registry.SetDevice("hallway", "192.168.1.132")
//	registry.SetChannelLabel("hallway", 1, "Ceiling")
//
//	address, _, err := registry.Resolve("hallway")
//
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File writes are serialized by a mutex and replace the file atomically.
package config
