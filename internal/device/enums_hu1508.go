package device

import "fmt"

// OnOff is a binary enumeration shared by several Hu1508 properties
// (power_status, beep, standby sensors).
type OnOff int

// OnOff member values, verbatim from the device's raw wire encoding.
const (
	Off OnOff = 0
	On  OnOff = 1
)

var onOffNames = map[OnOff]string{
	Off: "OFF",
	On:  "ON",
}

func (v OnOff) String() string {
	if name, ok := onOffNames[v]; ok {
		return name
	}
	return fmt.Sprintf("OnOff(%d)", int(v))
}

func parseOnOff(name string) (OnOff, bool) {
	for v, n := range onOffNames {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// WorkMode is the humidifier's operating mode (raw key D0310C).
type WorkMode int

const (
	ModeAuto   WorkMode = 0
	ModeSleep  WorkMode = 17
	ModeMedium WorkMode = 19
	ModeHigh   WorkMode = 65
)

var workModeNames = map[WorkMode]string{
	ModeAuto:   "Auto",
	ModeSleep:  "Sleep",
	ModeMedium: "Medium",
	ModeHigh:   "High",
}

func (v WorkMode) String() string {
	if name, ok := workModeNames[v]; ok {
		return name
	}
	return fmt.Sprintf("WorkMode(%d)", int(v))
}

func parseWorkMode(name string) (WorkMode, bool) {
	for v, n := range workModeNames {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// LampMode is modeled as a single enumeration over the product of {plain
// lamp modes, ambient-light sub-modes}. Members with a value > 10 are
// ambient-light sub-modes; the raw encoding/decoding rule lives in
// hu1508.go's lampMode decoder/encoder.
type LampMode int

const (
	LampOff      LampMode = 0
	LampHumidity LampMode = 1
	LampWarm     LampMode = 11
	LampDawn     LampMode = 12
	LampCalm     LampMode = 13
	LampBreath   LampMode = 14
)

var lampModeNames = map[LampMode]string{
	LampOff:      "Off",
	LampHumidity: "Humidity",
	LampWarm:     "Warm",
	LampDawn:     "Dawn",
	LampCalm:     "Calm",
	LampBreath:   "Breath",
}

func (v LampMode) String() string {
	if name, ok := lampModeNames[v]; ok {
		return name
	}
	return fmt.Sprintf("LampMode(%d)", int(v))
}

func parseLampMode(name string) (LampMode, bool) {
	for v, n := range lampModeNames {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// Brightness is the lamp brightness enumeration (raw key D03105).
type Brightness int

const (
	BrightnessOff    Brightness = 0
	BrightnessLow    Brightness = 115
	BrightnessBright Brightness = 123
)

var brightnessNames = map[Brightness]string{
	BrightnessOff:    "Off",
	BrightnessLow:    "Low",
	BrightnessBright: "Bright",
}

func (v Brightness) String() string {
	if name, ok := brightnessNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Brightness(%d)", int(v))
}

func parseBrightness(name string) (Brightness, bool) {
	for v, n := range brightnessNames {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// ErrorStatus classifies the raw error code (D03240). Zero decodes to a nil
// *ErrorStatus ("no error"); known negative codes decode to their symbolic
// name; any other non-zero code is surfaced as the raw integer by the
// decoder in hu1508.go, not by this type.
type ErrorStatus int

const (
	ErrorFillTank     ErrorStatus = -16128
	ErrorCleanFilter  ErrorStatus = -16352
)

var errorStatusNames = map[ErrorStatus]string{
	ErrorFillTank:    "FillTank",
	ErrorCleanFilter: "CleanFilter",
}

func (v ErrorStatus) String() string {
	if name, ok := errorStatusNames[v]; ok {
		return name
	}
	return fmt.Sprintf("ErrorStatus(%d)", int(v))
}
