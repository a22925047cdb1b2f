package bmp180

// Calibration holds the factory coefficients stored in the sensor EEPROM.
type Calibration struct {
	AC1, AC2, AC3 int16
	AC4, AC5, AC6 uint16
	B1, B2        int16
	MB, MC, MD    int16
}

// Compensation carries the temperature correction term (B5) from a
// temperature conversion into the pressure formula. The zero value is not
// usable; only CompensateTemperature produces valid ones.
type Compensation struct {
	b5    int32
	valid bool
}

// Valid reports whether c came from a temperature conversion.
func (c Compensation) Valid() bool {
	return c.valid
}

// CompensateTemperature converts a raw temperature word into 0.1 °C steps.
// All arithmetic is 32-bit with truncating division, as in the datasheet.
// A zero divisor (only reachable with corrupt coefficients) yields X2 = 0.
func CompensateTemperature(cal Calibration, raw int32) (int32, Compensation) {
	x1 := (raw - int32(cal.AC6)) * int32(cal.AC5) / 32768
	var x2 int32
	if d := x1 + int32(cal.MD); d != 0 {
		x2 = int32(cal.MC) * 2048 / d
	}
	b5 := x1 + x2
	t := (b5 + 8) / 16

	return t, Compensation{b5: b5, valid: true}
}

// CompensatePressure converts a raw pressure word into Pa. raw is the 16-bit
// result register; it is aligned for oss here. Degenerate coefficients that
// make B4 zero yield 0.
func CompensatePressure(cal Calibration, raw int32, oss uint8, c Compensation) int32 {
	up := (raw << 8) >> (8 - oss)

	b6 := c.b5 - 4000
	x1 := (int32(cal.B2) * (b6 * b6 / 4096)) / 2048
	x2 := int32(cal.AC2) * b6 / 2048
	x3 := x1 + x2
	b3 := ((int32(cal.AC1)*4+x3)<<oss + 2) / 4

	x1 = int32(cal.AC3) * b6 / 8192
	x2 = (int32(cal.B1) * (b6 * b6 / 4096)) / 65536
	x3 = ((x1 + x2) + 2) / 4
	b4 := uint32(cal.AC4) * uint32(x3+32768) / 32768
	b7 := (uint32(up) - uint32(b3)) * uint32(50000>>oss)

	var p int32
	switch {
	case b4 == 0:
		return 0
	case b7 < 0x80000000:
		p = int32((b7 * 2) / b4)
	default:
		p = int32((b7 / b4) * 2)
	}

	x1 = (p / 256) * (p / 256)
	x1 = (x1 * 3038) / 65536
	x2 = (-7357 * p) / 65536

	return p + (x1+x2+3791)/16
}
