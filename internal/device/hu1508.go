package device

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Hu1508 raw-key registry (spec.md §6).
const (
	keyDeviceName     = "D01S03"
	keyPowerStatus    = "D03102"
	keyWorkMode       = "D0310C"
	keyHumidityTarget = "D03128"
	keyLampMode       = "D03135"
	keyAmbientLight   = "D03137"
	keyBrightness     = "D03105"
	keyBeep           = "D03130"
	keyStandbySensors = "D03134"
	keyTemperature    = "D03224"
	keyHumidity       = "D03125"
	keyFilterTotal    = "D05207"
	keyFilterRemain   = "D0520D"
	keyErrorCode      = "D03240"
	keyRuntime        = "Runtime"
)

// ambientLightSelector is the fixed D03135 value that routes to the
// ambient-light sub-mode stored in D03137, per spec.md §3's lamp_mode
// encoding rule.
const ambientLightSelector = 2

// humidityTargets is the admissible literal set for humidity_target.
var humidityTargets = []int{40, 50, 60, 70}

// forcePowerOn returns a one-element command slice setting power_status to
// On if it isn't already, or nil if the device is already powered on. Used
// by writers that must force power-on before their own mutation (mode,
// humidity_target, lamp_mode, brightness), so the power command is always
// first in the drained queue when it fires.
func forcePowerOn(raw RawStatus) []Command {
	if OnOff(intOf(raw, keyPowerStatus, int(Off))) == On {
		return nil
	}
	raw[keyPowerStatus] = int(On)
	return []Command{{keyPowerStatus: int(On)}}
}

// hu1508Table builds the static description table for the Hu1508
// humidifier/air-purifier model. Constructed once; State instances share it.
func hu1508Table() Table {
	t := Table{}

	t["device_name"] = &Property{
		Name: "device_name",
		Kind: KindRaw,
		Decode: func(raw RawStatus) any {
			return stringOf(raw, keyDeviceName, "Unknown")
		},
	}

	t["power_status"] = &Property{
		Name: "power_status",
		Kind: KindEnum,
		Decode: func(raw RawStatus) any {
			return OnOff(intOf(raw, keyPowerStatus, int(Off)))
		},
		Coerce: coerceOnOff,
		Encode: func(raw RawStatus, value any) ([]Command, error) {
			v := value.(OnOff)
			if OnOff(intOf(raw, keyPowerStatus, int(Off))) == v {
				return nil, nil
			}
			raw[keyPowerStatus] = int(v)
			return []Command{{keyPowerStatus: int(v)}}, nil
		},
		Admissible: enumAdmissible(onOffNames),
	}

	t["mode"] = &Property{
		Name: "mode",
		Kind: KindEnum,
		Decode: func(raw RawStatus) any {
			return WorkMode(intOf(raw, keyWorkMode, int(ModeAuto)))
		},
		Coerce: coerceWorkMode,
		Encode: func(raw RawStatus, value any) ([]Command, error) {
			v := value.(WorkMode)
			cmds := forcePowerOn(raw)
			raw[keyWorkMode] = int(v)
			return append(cmds, Command{keyWorkMode: int(v)}), nil
		},
		Admissible: enumAdmissible(workModeNames),
	}

	t["humidity_target"] = &Property{
		Name: "humidity_target",
		Kind: KindLiteral,
		Decode: func(raw RawStatus) any {
			return intOf(raw, keyHumidityTarget, 40)
		},
		Coerce: func(input any) (any, error) {
			return coerceIntLiteral(input, humidityTargets)
		},
		Encode: func(raw RawStatus, value any) ([]Command, error) {
			v := value.(int)
			cmds := forcePowerOn(raw)
			raw[keyHumidityTarget] = v
			return append(cmds, Command{keyHumidityTarget: v}), nil
		},
		Admissible: literalInts(humidityTargets),
	}

	t["lamp_mode"] = &Property{
		Name: "lamp_mode",
		Kind: KindEnum,
		Decode: func(raw RawStatus) any {
			return decodeLampMode(raw)
		},
		Coerce: coerceLampMode,
		Encode: func(raw RawStatus, value any) ([]Command, error) {
			v := value.(LampMode)
			cmds := forcePowerOn(raw)
			cmd := encodeLampMode(raw, v)
			return append(cmds, cmd), nil
		},
		Admissible: enumAdmissible(lampModeNames),
	}

	t["brightness"] = &Property{
		Name: "brightness",
		Kind: KindEnum,
		Decode: func(raw RawStatus) any {
			return Brightness(intOf(raw, keyBrightness, int(BrightnessOff)))
		},
		Coerce: coerceBrightness,
		Encode: func(raw RawStatus, value any) ([]Command, error) {
			v := value.(Brightness)
			cmds := forcePowerOn(raw)
			raw[keyBrightness] = int(v)
			return append(cmds, Command{keyBrightness: int(v)}), nil
		},
		Admissible: enumAdmissible(brightnessNames),
	}

	t["beep"] = &Property{
		Name: "beep",
		Kind: KindEnum,
		Decode: func(raw RawStatus) any {
			return OnOff(intOf(raw, keyBeep, int(On)))
		},
		Coerce: coerceOnOff,
		Encode: func(raw RawStatus, value any) ([]Command, error) {
			v := value.(OnOff)
			raw[keyBeep] = int(v)
			return []Command{{keyBeep: int(v)}}, nil
		},
		Admissible: enumAdmissible(onOffNames),
	}

	t["standby_sensors"] = &Property{
		Name: "standby_sensors",
		Kind: KindEnum,
		Decode: func(raw RawStatus) any {
			return OnOff(intOf(raw, keyStandbySensors, int(On)))
		},
		Coerce: coerceOnOff,
		Encode: func(raw RawStatus, value any) ([]Command, error) {
			v := value.(OnOff)
			raw[keyStandbySensors] = int(v)
			return []Command{{keyStandbySensors: int(v)}}, nil
		},
		Admissible: enumAdmissible(onOffNames),
	}

	t["temperature"] = &Property{
		Name: "temperature",
		Kind: KindRaw,
		Decode: func(raw RawStatus) any {
			// Device reports deci-degrees; truncate toward zero to whole degrees.
			return intOf(raw, keyTemperature, 0) / 10
		},
	}

	t["humidity"] = &Property{
		Name: "humidity",
		Kind: KindRaw,
		Decode: func(raw RawStatus) any {
			return intOf(raw, keyHumidity, 0)
		},
	}

	t["percent_unit_before_cleaning"] = &Property{
		Name: "percent_unit_before_cleaning",
		Kind: KindRaw,
		Decode: func(raw RawStatus) any {
			remaining := float64(intOf(raw, keyFilterRemain, 200))
			total := float64(intOf(raw, keyFilterTotal, 200))
			pct := remaining / total * 100
			return math.Round(pct*100) / 100
		},
	}

	t["error"] = &Property{
		Name: "error",
		Kind: KindRaw,
		Decode: func(raw RawStatus) any {
			return decodeError(raw)
		},
	}

	t["runtime_seconds"] = &Property{
		Name: "runtime_seconds",
		Kind: KindRaw,
		Decode: func(raw RawStatus) any {
			return intOf(raw, keyRuntime, 0) / 1000
		},
	}

	return t
}

// decodeLampMode inverts the compound lamp-mode/ambient-light encoding:
// D03135 == ambientLightSelector routes to the ambient sub-mode in D03137
// (shifted by 10); any other D03135 value is a plain lamp mode.
func decodeLampMode(raw RawStatus) any {
	lamp := intOf(raw, keyLampMode, int(LampOff))
	if lamp == ambientLightSelector {
		return LampMode(intOf(raw, keyAmbientLight, 0) + 10)
	}
	return LampMode(lamp)
}

// encodeLampMode applies the symmetric encoding rule: values <= 10 are
// plain lamp modes stored in D03135 with D03137 cleared; values > 10 are
// ambient-light modes stored via the fixed selector plus the shifted
// sub-mode. The returned command carries both raw keys together so the
// device observes one atomic change.
func encodeLampMode(raw RawStatus, v LampMode) Command {
	if int(v) > 10 {
		raw[keyLampMode] = ambientLightSelector
		raw[keyAmbientLight] = int(v) - 10
	} else {
		raw[keyLampMode] = int(v)
		raw[keyAmbientLight] = 0
	}
	return Command{keyLampMode: raw[keyLampMode], keyAmbientLight: raw[keyAmbientLight]}
}

// decodeError classifies the raw error code: 0 decodes to nil ("none"); a
// known negative code decodes to its ErrorStatus name; any other non-zero
// value is returned as the raw int (the caller logs the warning, since
// Decode has no logger).
func decodeError(raw RawStatus) any {
	code := intOf(raw, keyErrorCode, 0)
	if code == 0 {
		return nil
	}
	if _, known := errorStatusNames[ErrorStatus(code)]; known {
		return ErrorStatus(code)
	}
	return code
}

// enumAdmissible builds an Admissible func returning an enum's member
// names, sorted for deterministic introspection output.
func enumAdmissible[K comparable](names map[K]string) func() []string {
	return func() []string {
		out := make([]string, 0, len(names))
		for _, n := range names {
			out = append(out, n)
		}
		sort.Strings(out)
		return out
	}
}

func coerceOnOff(input any) (any, error) {
	switch v := input.(type) {
	case OnOff:
		return v, nil
	case string:
		if parsed, ok := parseOnOff(v); ok {
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("%w: %v is not a valid OnOff value", ErrInvalidValue, input)
}

func coerceWorkMode(input any) (any, error) {
	switch v := input.(type) {
	case WorkMode:
		return v, nil
	case string:
		if parsed, ok := parseWorkMode(v); ok {
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("%w: %v is not a valid WorkMode value", ErrInvalidValue, input)
}

func coerceLampMode(input any) (any, error) {
	switch v := input.(type) {
	case LampMode:
		return v, nil
	case string:
		if parsed, ok := parseLampMode(v); ok {
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("%w: %v is not a valid LampMode value", ErrInvalidValue, input)
}

func coerceBrightness(input any) (any, error) {
	switch v := input.(type) {
	case Brightness:
		return v, nil
	case string:
		if parsed, ok := parseBrightness(v); ok {
			return parsed, nil
		}
	}
	return nil, fmt.Errorf("%w: %v is not a valid Brightness value", ErrInvalidValue, input)
}

func coerceIntLiteral(input any, allowed []int) (any, error) {
	var n int
	switch v := input.(type) {
	case int:
		n = v
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
		}
		n = parsed
	default:
		return nil, fmt.Errorf("%w: %v is not an integer", ErrInvalidValue, input)
	}
	for _, a := range allowed {
		if a == n {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %d is not one of %v", ErrInvalidValue, n, allowed)
}

func literalInts(values []int) func() []string {
	return func() []string {
		out := make([]string, len(values))
		for i, v := range values {
			out[i] = strconv.Itoa(v)
		}
		return out
	}
}
