package zeptrion

// ZRAP paths (system and channel namespace)
const (
	PathSys       = "/zrap/sys"
	PathChScan    = "/zrap/chscan"
	PathChNotify  = "/zrap/chnotify"
	PathChCtrl    = "/zrap/chctrl"
	PathChDes     = "/zrap/chdes"
	PathNetScan   = "/zrap/netscan"
	PathNet       = "/zrap/net"
	PathRSSI      = "/zrap/rssi"
	PathID        = "/zrap/id"
	PathLoc       = "/zrap/loc"
	PathDate      = "/zrap/date"
	PathScheduler = "/zrap/scheduler"
	PathNTP       = "/zrap/ntp"
)

// ZAPI paths (smart front and smart button modules)
const (
	PathSmartFrontID     = "/zapi/smartfront/id"
	PathSmartFrontSensor = "/zapi/smartfront/sensor"
	PathSmartFrontLED    = "/zapi/smartfront/led"
	PathSmartBtPrgm      = "/zapi/smartbt/prgm"
	PathSmartBtPrgn      = "/zapi/smartbt/prgn"
	PathSmartBtPrgs      = "/zapi/smartbt/prgs"
)

// KnownPaths is the device's documented HTTP address space, keyed by path.
// Only PathSys, PathChCtrl and PathSmartFrontLED have operations on Client.
var KnownPaths = map[string]string{
	PathSys:              "system commands (reboot, resets)",
	PathChScan:           "channel scan",
	PathChNotify:         "channel notifications",
	PathChCtrl:           "channel control",
	PathChDes:            "channel descriptions",
	PathNetScan:          "network scan",
	PathNet:              "network settings",
	PathRSSI:             "signal strength",
	PathID:               "device identity",
	PathLoc:              "location",
	PathDate:             "date and time",
	PathScheduler:        "scheduler",
	PathNTP:              "time server",
	PathSmartFrontID:     "smart front identity",
	PathSmartFrontSensor: "smart front sensors",
	PathSmartFrontLED:    "smart front LEDs",
	PathSmartBtPrgm:      "smart button program (m)",
	PathSmartBtPrgn:      "smart button program (n)",
	PathSmartBtPrgs:      "smart button program (s)",
}

// IsKnownPath reports whether path belongs to the documented address space.
func IsKnownPath(path string) bool {
	_, ok := KnownPaths[path]
	return ok
}
