package sim

import (
	"errors"
	"fmt"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/bmp180"
)

// DatasheetCalibration is the worked example of the BMP180 datasheet. With
// DatasheetUT and DatasheetUP it yields 15.0 °C and 699.65 hPa at oss 0.
var DatasheetCalibration = bmp180.Calibration{
	AC1: 408, AC2: -72, AC3: -14383,
	AC4: 32741, AC5: 32757, AC6: 23153,
	B1: 6190, B2: 4,
	MB: -32768, MC: -8711, MD: 2868,
}

const (
	DatasheetUT = 27898
	DatasheetUP = 23843
)

var ErrNoRegister = errors.New("sim: no such register")

// Bus is a BMP180 register file behind a bmp180.Bus.
type Bus struct {
	// UT and UP produce the raw temperature and pressure words. oss is the
	// setting of the pending pressure conversion.
	UT func() uint16
	UP func(oss uint8) uint16

	regs map[byte]uint16
	ctrl byte
}

// NewBus returns a sensor programmed with cal, answering the datasheet raw
// words until UT/UP are replaced.
func NewBus(cal bmp180.Calibration) *Bus {
	return &Bus{
		UT: func() uint16 { return DatasheetUT },
		UP: func(oss uint8) uint16 { return DatasheetUP },
		regs: map[byte]uint16{
			0xAA: uint16(cal.AC1),
			0xAC: uint16(cal.AC2),
			0xAE: uint16(cal.AC3),
			0xB0: cal.AC4,
			0xB2: cal.AC5,
			0xB4: cal.AC6,
			0xB6: uint16(cal.B1),
			0xB8: uint16(cal.B2),
			0xBA: uint16(cal.MB),
			0xBC: uint16(cal.MC),
			0xBE: uint16(cal.MD),
			0xD0: 0x5502,
		},
	}
}

func (b *Bus) WriteRegU8(reg byte, value byte) error {
	switch reg {
	case 0xF4:
		b.ctrl = value
	case 0xE0:
	default:
		return fmt.Errorf("%w: write 0x%02X", ErrNoRegister, reg)
	}

	return nil
}

func (b *Bus) ReadRegU16BE(reg byte) (uint16, error) {
	if reg == 0xF6 {
		if b.ctrl == 0x2E {
			return b.UT(), nil
		}

		return b.UP(b.ctrl >> 6), nil
	}

	w, ok := b.regs[reg]
	if !ok {
		return 0, fmt.Errorf("%w: read 0x%02X", ErrNoRegister, reg)
	}

	return w, nil
}
