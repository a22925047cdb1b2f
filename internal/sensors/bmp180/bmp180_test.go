package bmp180

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Worked example from the BMP180 datasheet (section 3.5).
var datasheetCal = Calibration{
	AC1: 408, AC2: -72, AC3: -14383,
	AC4: 32741, AC5: 32757, AC6: 23153,
	B1: 6190, B2: 4,
	MB: -32768, MC: -8711, MD: 2868,
}

const (
	datasheetUT = 27898
	datasheetUP = 23843
)

type fakeBus struct {
	words  map[byte]uint16
	ut, up uint16

	ctrl    byte
	writes  []byte
	reads   []byte
	failReg map[byte]error
	failW   error
}

func newFakeBus(cal Calibration) *fakeBus {
	return &fakeBus{
		words: map[byte]uint16{
			regAC1:    uint16(cal.AC1),
			regAC2:    uint16(cal.AC2),
			regAC3:    uint16(cal.AC3),
			regAC4:    cal.AC4,
			regAC5:    cal.AC5,
			regAC6:    cal.AC6,
			regB1:     uint16(cal.B1),
			regB2:     uint16(cal.B2),
			regMB:     uint16(cal.MB),
			regMC:     uint16(cal.MC),
			regMD:     uint16(cal.MD),
			regChipID: chipID<<8 | 0x02,
		},
		ut:      datasheetUT,
		up:      datasheetUP,
		failReg: map[byte]error{},
	}
}

func (b *fakeBus) WriteRegU8(reg byte, value byte) error {
	if b.failW != nil {
		return b.failW
	}
	if reg == regCtrlMeas {
		b.ctrl = value
	}
	b.writes = append(b.writes, value)

	return nil
}

func (b *fakeBus) ReadRegU16BE(reg byte) (uint16, error) {
	if err := b.failReg[reg]; err != nil {
		return 0, err
	}
	b.reads = append(b.reads, reg)

	if reg == regOut {
		if b.ctrl == 0x2E {
			return b.ut, nil
		}

		return b.up, nil
	}

	return b.words[reg], nil
}

func newTestDevice(t *testing.T, bus *fakeBus, opts ...Option) (*Device, *[]time.Duration) {
	t.Helper()

	var waits []time.Duration
	opts = append(opts, WithSleep(func(d time.Duration) { waits = append(waits, d) }))

	dev, err := New(bus, opts...)
	require.NoError(t, err)

	return dev, &waits
}

func TestNewReadsCalibration(t *testing.T) {
	bus := newFakeBus(datasheetCal)
	dev, _ := newTestDevice(t, bus)

	assert.Equal(t, datasheetCal, dev.Calibration())
	assert.Equal(t, []byte{
		regAC1, regAC2, regAC3, regAC4, regAC5, regAC6,
		regB1, regB2, regMB, regMC, regMD,
	}, bus.reads)
}

func TestNewFailsOnAnyCalibrationRead(t *testing.T) {
	regs := []byte{regAC1, regAC4, regB2, regMD}
	for _, reg := range regs {
		bus := newFakeBus(datasheetCal)
		ioErr := errors.New("i/o error")
		bus.failReg[reg] = ioErr

		dev, err := New(bus)
		require.Error(t, err, "reg 0x%02X", reg)
		assert.Nil(t, dev)
		assert.ErrorIs(t, err, ErrCalibration)
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, ioErr)
	}
}

func TestNewRejectsBlankEEPROM(t *testing.T) {
	bus := newFakeBus(datasheetCal)
	bus.words[regB1] = 0xFFFF

	_, err := New(bus)
	assert.ErrorIs(t, err, ErrCalibration)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestNewChipID(t *testing.T) {
	bus := newFakeBus(datasheetCal)
	_, err := New(bus, WithChipIDCheck())
	require.NoError(t, err)

	bus = newFakeBus(datasheetCal)
	bus.words[regChipID] = 0x5800
	_, err = New(bus, WithChipIDCheck())
	assert.ErrorIs(t, err, ErrChipID)
}

func TestCompensateTemperatureDatasheet(t *testing.T) {
	tenths, comp := CompensateTemperature(datasheetCal, datasheetUT)

	assert.Equal(t, int32(150), tenths)
	assert.True(t, comp.Valid())
	assert.Equal(t, int32(2400), comp.b5)
}

func TestCompensateTemperatureDeterministic(t *testing.T) {
	for raw := int32(20000); raw < 40000; raw += 997 {
		t1, c1 := CompensateTemperature(datasheetCal, raw)
		t2, c2 := CompensateTemperature(datasheetCal, raw)
		assert.Equal(t, t1, t2)
		assert.Equal(t, c1, c2)
	}
}

func TestCompensatePressureDatasheet(t *testing.T) {
	_, comp := CompensateTemperature(datasheetCal, datasheetUT)
	pa := CompensatePressure(datasheetCal, datasheetUP, 0, comp)

	// The datasheet prints 69964 Pa because it floors X2 with a shift;
	// truncating division gives one Pa more.
	assert.Equal(t, int32(69965), pa)
}

func TestCompensatePressureUsesB5(t *testing.T) {
	_, warm := CompensateTemperature(datasheetCal, datasheetUT)
	_, cold := CompensateTemperature(datasheetCal, datasheetUT-3000)
	require.NotEqual(t, warm, cold)

	assert.NotEqual(t,
		CompensatePressure(datasheetCal, datasheetUP, 0, warm),
		CompensatePressure(datasheetCal, datasheetUP, 0, cold),
	)
}

func TestCompensatePressureZeroB4(t *testing.T) {
	cal := datasheetCal
	cal.AC4 = 0
	_, comp := CompensateTemperature(cal, datasheetUT)

	assert.Equal(t, int32(0), CompensatePressure(cal, datasheetUP, 0, comp))
}

func TestMeasureTemperature(t *testing.T) {
	bus := newFakeBus(datasheetCal)
	dev, waits := newTestDevice(t, bus)

	c, err := dev.Measure(Temperature)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, c, 0.05)
	assert.Equal(t, []byte{0x2E}, bus.writes)
	assert.Equal(t, []time.Duration{5 * time.Millisecond}, *waits)
}

func TestMeasurePressureRunsTemperatureFirst(t *testing.T) {
	bus := newFakeBus(datasheetCal)
	dev, waits := newTestDevice(t, bus)

	hpa, err := dev.Measure(LowPower)
	require.NoError(t, err)
	assert.InDelta(t, 699.64, hpa, 0.02)
	assert.Equal(t, []byte{0x2E, 0x34}, bus.writes)
	assert.Equal(t, []time.Duration{5 * time.Millisecond, 5 * time.Millisecond}, *waits)
}

func TestModeTable(t *testing.T) {
	tests := []struct {
		mode Mode
		ctrl byte
		oss  uint8
		wait time.Duration
	}{
		{LowPower, 0x34, 0, 5 * time.Millisecond},
		{Standard, 0x74, 1, 8 * time.Millisecond},
		{HighRes, 0xB4, 2, 15 * time.Millisecond},
		{UltraHighRes, 0xF4, 3, 26 * time.Millisecond},
		{Temperature, 0x2E, 0, 5 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			c, err := lookup(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.ctrl, c.ctrl)
			assert.Equal(t, tt.oss, tt.mode.Oversampling())
			assert.Equal(t, tt.wait, tt.mode.ConversionTime())

			m, err := ParseMode(tt.mode.String())
			require.NoError(t, err)
			assert.Equal(t, tt.mode, m)
		})
	}

	_, err := lookup(Mode(42))
	assert.ErrorIs(t, err, ErrInvalidMode)
	_, err = ParseMode("turbo")
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestOversamplingChangesOnlyPressure(t *testing.T) {
	var temps, pressures []float64

	for _, mode := range []Mode{LowPower, Standard, HighRes, UltraHighRes} {
		bus := newFakeBus(datasheetCal)
		dev, _ := newTestDevice(t, bus)

		r, err := dev.Read(mode)
		require.NoError(t, err)
		assert.Equal(t, conversions[mode].ctrl, bus.writes[1])

		temps = append(temps, r.Temperature)
		pressures = append(pressures, r.Pressure)
	}

	for i := 1; i < len(temps); i++ {
		assert.Equal(t, temps[0], temps[i])
		assert.NotEqual(t, pressures[0], pressures[i])
	}
}

func TestReadPressureNeedsCompensation(t *testing.T) {
	bus := newFakeBus(datasheetCal)
	dev, _ := newTestDevice(t, bus)

	_, err := dev.ReadPressure(Standard, Compensation{})
	assert.ErrorIs(t, err, ErrNoCompensation)
	assert.Empty(t, bus.writes)

	_, comp, err := dev.ReadTemperature()
	require.NoError(t, err)
	_, err = dev.ReadPressure(Temperature, comp)
	assert.ErrorIs(t, err, ErrInvalidMode)

	hpa, err := dev.ReadPressure(LowPower, comp)
	require.NoError(t, err)
	assert.InDelta(t, 699.65, hpa, 0.001)
}

func TestReadRejectsTemperatureMode(t *testing.T) {
	dev, _ := newTestDevice(t, newFakeBus(datasheetCal))

	_, err := dev.Read(Temperature)
	assert.ErrorIs(t, err, ErrInvalidMode)
}

func TestMeasureWriteFailure(t *testing.T) {
	bus := newFakeBus(datasheetCal)
	dev, _ := newTestDevice(t, bus)
	before := dev.Calibration()

	busErr := errors.New("nack")
	bus.failW = busErr

	for _, mode := range []Mode{Temperature, UltraHighRes} {
		v, err := dev.Measure(mode)
		assert.Zero(t, v)
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, busErr)
	}
	assert.Equal(t, before, dev.Calibration())

	bus.failW = nil
	c, err := dev.Measure(Temperature)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, c, 0.05)
}

func TestMeasureResultReadFailure(t *testing.T) {
	bus := newFakeBus(datasheetCal)
	dev, _ := newTestDevice(t, bus)
	bus.failReg[regOut] = errors.New("timeout")

	_, err := dev.Measure(HighRes)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestReset(t *testing.T) {
	bus := newFakeBus(datasheetCal)
	dev, _ := newTestDevice(t, bus)

	require.NoError(t, dev.Reset())
	assert.Equal(t, []byte{softResetValue}, bus.writes)
	assert.Equal(t, datasheetCal, dev.Calibration())
}
