package bmp180

import (
	"fmt"
	"time"
)

// Address is the 7-bit I2C address of the sensor (0xEE in 8-bit write form).
const Address = 0x77

// Register map.
const (
	regAC1 = 0xAA
	regAC2 = 0xAC
	regAC3 = 0xAE
	regAC4 = 0xB0
	regAC5 = 0xB2
	regAC6 = 0xB4
	regB1  = 0xB6
	regB2  = 0xB8
	regMB  = 0xBA
	regMC  = 0xBC
	regMD  = 0xBE

	regCtrlMeas = 0xF4
	regOut      = 0xF6 // MSB first
	regSoftRst  = 0xE0
	regChipID   = 0xD0
)

const (
	softResetValue = 0xB6
	chipID         = 0x55
)

// Mode selects what a conversion measures and, for pressure, the
// oversampling setting.
type Mode int

const (
	LowPower Mode = iota
	Standard
	HighRes
	UltraHighRes
	Temperature
)

func (m Mode) String() string {
	switch m {
	case LowPower:
		return "low-power"
	case Standard:
		return "standard"
	case HighRes:
		return "high-res"
	case UltraHighRes:
		return "ultra-high-res"
	case Temperature:
		return "temperature"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for m := LowPower; m <= Temperature; m++ {
		if m.String() == s {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// IsPressure reports whether m is one of the four pressure modes.
func (m Mode) IsPressure() bool {
	return m >= LowPower && m <= UltraHighRes
}

// conversion describes one entry of the control table.
type conversion struct {
	ctrl byte
	oss  uint8
	wait time.Duration
}

var conversions = map[Mode]conversion{
	LowPower:     {ctrl: 0x34, oss: 0, wait: 5 * time.Millisecond},
	Standard:     {ctrl: 0x74, oss: 1, wait: 8 * time.Millisecond},
	HighRes:      {ctrl: 0xB4, oss: 2, wait: 15 * time.Millisecond},
	UltraHighRes: {ctrl: 0xF4, oss: 3, wait: 26 * time.Millisecond},
	Temperature:  {ctrl: 0x2E, oss: 0, wait: 5 * time.Millisecond},
}

func lookup(m Mode) (conversion, error) {
	c, ok := conversions[m]
	if !ok {
		return conversion{}, fmt.Errorf("%w: %s", ErrInvalidMode, m)
	}

	return c, nil
}

// ConversionTime returns how long the sensor needs for a conversion in mode m.
func (m Mode) ConversionTime() time.Duration {
	return conversions[m].wait
}

// Oversampling returns the oss bits used by mode m.
func (m Mode) Oversampling() uint8 {
	return conversions[m].oss
}
