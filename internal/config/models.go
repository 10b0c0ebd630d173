package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// CurrentVersion is the registry file format version
const CurrentVersion = 1

// ErrNoDevice is returned by Resolve when no device was named and no
// default device is configured.
var ErrNoDevice = errors.New("no device given and no default device configured")

// Registry represents the entire user configuration file.
// Devices are keyed by nickname.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"`
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device is a saved Zeptrion device.
type Device struct {
	Address  string         `yaml:"address"`             // Host or host:port
	Channels map[int]string `yaml:"channels,omitempty"`  // Channel labels keyed by channel id
	LastUsed time.Time      `yaml:"last_used,omitempty"` // Last time a command was sent
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultDevice string `yaml:"default_device,omitempty"` // Nickname used when --device is omitted
	LogLevel      string `yaml:"log_level,omitempty"`      // Used when --log-level and ZEPTRION_LOG_LEVEL are unset
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     CurrentVersion,
		Devices:     make(map[string]*Device),
		Preferences: &Preferences{},
	}
}

// GetDevice retrieves a device by nickname.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// EnsureDevice returns the device entry for name, creating an empty one if needed.
func (r *Registry) EnsureDevice(name string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}

	if device, exists := r.Devices[name]; exists {
		return device
	}

	device := &Device{
		Channels: make(map[int]string),
	}
	r.Devices[name] = device
	return device
}

// SetDevice saves or updates the address for a nickname.
func (r *Registry) SetDevice(name, address string) error {
	name = strings.TrimSpace(name)
	address = strings.TrimSpace(address)
	if name == "" {
		return fmt.Errorf("device nickname is empty")
	}
	if address == "" {
		return fmt.Errorf("device address is empty")
	}
	if strings.Contains(address, "://") {
		return fmt.Errorf("device address %q must be a host, not a URL", address)
	}

	r.EnsureDevice(name).Address = address
	return nil
}

// RemoveDevice deletes a device and clears it as default. Reports whether it existed.
func (r *Registry) RemoveDevice(name string) bool {
	if _, exists := r.Devices[name]; !exists {
		return false
	}
	delete(r.Devices, name)
	if r.Preferences != nil && r.Preferences.DefaultDevice == name {
		r.Preferences.DefaultDevice = ""
	}
	return true
}

// SetChannelLabel sets a display label for one channel of a device.
func (r *Registry) SetChannelLabel(name string, channel int, label string) {
	device := r.EnsureDevice(name)
	if device.Channels == nil {
		device.Channels = make(map[int]string)
	}
	device.Channels[channel] = label
}

// SetDefaultDevice marks a saved device as the default.
func (r *Registry) SetDefaultDevice(name string) error {
	if _, exists := r.Devices[name]; !exists {
		return fmt.Errorf("unknown device %q", name)
	}
	if r.Preferences == nil {
		r.Preferences = &Preferences{}
	}
	r.Preferences.DefaultDevice = name
	return nil
}

// Touch records that a device was just used.
func (r *Registry) Touch(name string) {
	if device, exists := r.Devices[name]; exists {
		device.LastUsed = time.Now()
	}
}

// DeviceNames returns the saved nicknames in sorted order.
func (r *Registry) DeviceNames() []string {
	names := lo.Keys(r.Devices)
	sort.Strings(names)
	return names
}

// Resolve maps a --device value to a device address. A saved nickname
// resolves to its address, anything else is taken as an address. An empty
// value falls back to the default device. The returned name is the
// nickname used, or "" when value was a raw address.
func (r *Registry) Resolve(value string) (address, name string, err error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if r.Preferences == nil || r.Preferences.DefaultDevice == "" {
			return "", "", ErrNoDevice
		}
		value = r.Preferences.DefaultDevice
		device, exists := r.Devices[value]
		if !exists {
			return "", "", fmt.Errorf("default device %q is not in the registry", value)
		}
		return device.Address, value, nil
	}

	if device, exists := r.Devices[value]; exists {
		return device.Address, value, nil
	}
	return value, "", nil
}

// ChannelLabel returns the label for a channel, or "channel N" if unlabelled.
func (d *Device) ChannelLabel(channel int) string {
	if d != nil {
		if label, ok := d.Channels[channel]; ok && label != "" {
			return label
		}
	}
	return fmt.Sprintf("channel %d", channel)
}
