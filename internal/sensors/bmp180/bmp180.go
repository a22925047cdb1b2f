// Package bmp180 decodes temperature and barometric pressure from a Bosch
// BMP180 (and the register compatible BMP085).
//
// Calibration coefficients are read once by New. Every pressure conversion is
// preceded by a fresh temperature conversion, so the B5 correction term is
// never stale:
//
//	dev, err := bmp180.New(bus)
//	hpa, err := dev.Measure(bmp180.UltraHighRes)
//
// Callers that want both values from one transaction use Read, or drive the
// two halves explicitly with ReadTemperature and ReadPressure.
package bmp180

import (
	"errors"
	"fmt"
	"time"

	"github.com/d2r2/go-logger"
)

var lg = logger.NewPackageLogger("bmp180", logger.InfoLevel)

// Errors returned by the decoder.
var (
	ErrTransport      = errors.New("bmp180: transport failure")
	ErrCalibration    = errors.New("bmp180: calibration not read")
	ErrNoCompensation = errors.New("bmp180: no temperature compensation")
	ErrInvalidMode    = errors.New("bmp180: invalid mode")
	ErrChipID         = errors.New("bmp180: unexpected chip id")
)

const (
	temperatureStep = 0.1  // °C per LSB of the compensated temperature
	pressureStep    = 0.01 // hPa per Pa
)

// Bus is the register transport the decoder needs. *i2c.I2C from
// github.com/d2r2/go-i2c satisfies it; the device address is bound when the
// bus is opened.
type Bus interface {
	WriteRegU8(reg byte, value byte) error
	ReadRegU16BE(reg byte) (uint16, error)
}

// Reading is the result of one combined transaction.
type Reading struct {
	Temperature float64 // °C
	Pressure    float64 // hPa
}

type Option func(d *Device)

// WithSleep replaces time.Sleep for the conversion waits.
func WithSleep(sleep func(time.Duration)) Option {
	return func(d *Device) {
		d.sleep = sleep
	}
}

// WithChipIDCheck makes New verify the chip id register before reading
// calibration.
func WithChipIDCheck() Option {
	return func(d *Device) {
		d.checkID = true
	}
}

// Device is a BMP180 with its calibration loaded. A Device must be owned by a
// single goroutine.
type Device struct {
	bus     Bus
	cal     Calibration
	sleep   func(time.Duration)
	checkID bool
}

// New reads the calibration coefficients. It fails if any of them can't be
// read; there is no partially initialised Device.
func New(bus Bus, opts ...Option) (*Device, error) {
	d := &Device{
		bus:   bus,
		sleep: time.Sleep,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.checkID {
		if err := d.verifyChipID(); err != nil {
			return nil, err
		}
	}

	cal, err := readCalibration(bus)
	if err != nil {
		return nil, err
	}
	d.cal = cal

	lg.Debugf("calibration: %+v", cal)

	return d, nil
}

func (d *Device) verifyChipID() error {
	w, err := d.bus.ReadRegU16BE(regChipID)
	if err != nil {
		return fmt.Errorf("%w: read chip id: %w", ErrTransport, err)
	}

	if id := byte(w >> 8); id != chipID {
		return fmt.Errorf("%w: 0x%02X", ErrChipID, id)
	}

	return nil
}

func readCalibration(bus Bus) (Calibration, error) {
	var (
		cal Calibration
		err error
	)

	word := func(name string, reg byte) uint16 {
		if err != nil {
			return 0
		}

		var w uint16
		w, err = bus.ReadRegU16BE(reg)
		if err != nil {
			err = fmt.Errorf("%w: read %s: %w: %w", ErrCalibration, name, ErrTransport, err)

			return 0
		}

		// 0x0000 and 0xFFFF mean the EEPROM read didn't go through.
		if w == 0x0000 || w == 0xFFFF {
			err = fmt.Errorf("%w: %s reads 0x%04X", ErrCalibration, name, w)
		}

		return w
	}

	cal.AC1 = int16(word("AC1", regAC1))
	cal.AC2 = int16(word("AC2", regAC2))
	cal.AC3 = int16(word("AC3", regAC3))
	cal.AC4 = word("AC4", regAC4)
	cal.AC5 = word("AC5", regAC5)
	cal.AC6 = word("AC6", regAC6)
	cal.B1 = int16(word("B1", regB1))
	cal.B2 = int16(word("B2", regB2))
	cal.MB = int16(word("MB", regMB))
	cal.MC = int16(word("MC", regMC))
	cal.MD = int16(word("MD", regMD))

	if err != nil {
		return Calibration{}, err
	}

	return cal, nil
}

// Calibration returns a copy of the coefficients.
func (d *Device) Calibration() Calibration {
	return d.cal
}

// Reset issues a soft reset. Calibration is kept; the EEPROM doesn't change.
func (d *Device) Reset() error {
	if err := d.bus.WriteRegU8(regSoftRst, softResetValue); err != nil {
		return fmt.Errorf("%w: soft reset: %w", ErrTransport, err)
	}

	return nil
}

// Measure runs one conversion. For Temperature it returns °C, for any
// pressure mode hPa, after an internal temperature conversion.
func (d *Device) Measure(mode Mode) (float64, error) {
	if mode == Temperature {
		t, _, err := d.ReadTemperature()

		return t, err
	}

	r, err := d.Read(mode)
	if err != nil {
		return 0, err
	}

	return r.Pressure, nil
}

// Read runs a temperature conversion followed by a pressure conversion in
// the given mode.
func (d *Device) Read(mode Mode) (Reading, error) {
	if !mode.IsPressure() {
		return Reading{}, fmt.Errorf("%w: %s is not a pressure mode", ErrInvalidMode, mode)
	}

	t, comp, err := d.ReadTemperature()
	if err != nil {
		return Reading{}, err
	}

	p, err := d.ReadPressure(mode, comp)
	if err != nil {
		return Reading{}, err
	}

	return Reading{Temperature: t, Pressure: p}, nil
}

// ReadTemperature returns the temperature in °C and the compensation needed
// by ReadPressure.
func (d *Device) ReadTemperature() (float64, Compensation, error) {
	raw, err := d.convert(Temperature)
	if err != nil {
		return 0, Compensation{}, err
	}

	t, comp := CompensateTemperature(d.cal, int32(raw))
	lg.Debugf("temperature: raw=%d t=%d b5=%d", raw, t, comp.b5)

	return float64(t) * temperatureStep, comp, nil
}

// ReadPressure returns the pressure in hPa, using comp from a preceding
// ReadTemperature.
func (d *Device) ReadPressure(mode Mode, comp Compensation) (float64, error) {
	if !mode.IsPressure() {
		return 0, fmt.Errorf("%w: %s is not a pressure mode", ErrInvalidMode, mode)
	}

	if !comp.Valid() {
		return 0, ErrNoCompensation
	}

	raw, err := d.convert(mode)
	if err != nil {
		return 0, err
	}

	p := CompensatePressure(d.cal, int32(raw), mode.Oversampling(), comp)
	lg.Debugf("pressure: mode=%s raw=%d p=%d", mode, raw, p)

	return float64(p) * pressureStep, nil
}

// convert writes the control byte, waits for the conversion and reads the
// result word.
func (d *Device) convert(mode Mode) (uint16, error) {
	c, err := lookup(mode)
	if err != nil {
		return 0, err
	}

	if err := d.bus.WriteRegU8(regCtrlMeas, c.ctrl); err != nil {
		return 0, fmt.Errorf("%w: start %s conversion: %w", ErrTransport, mode, err)
	}

	d.sleep(c.wait)

	raw, err := d.bus.ReadRegU16BE(regOut)
	if err != nil {
		return 0, fmt.Errorf("%w: read %s result: %w", ErrTransport, mode, err)
	}

	return raw, nil
}
