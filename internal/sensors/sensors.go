// Package sensors binds the BMP180 and DHT11 decoders to the node's buses.
// Real hardware is only opened on linux/arm; everywhere else the Open*
// functions return simulated sensors.
package sensors

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/bmp180"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/dht11"
	"github.com/Tai-Min/Projekt-IoT-AiR/log"
)

// Barometer drivers.
const (
	DriverNative = "native"
	DriverBsbmp  = "bsbmp"
)

var ErrUnknownDriver = errors.New("sensors: unknown barometer driver")

// Barometer yields pressure in hPa and temperature in °C from one conversion
// cycle.
type Barometer interface {
	Pressure() (pressure, temperature float64, err error)
	Close() error
}

// OpenBarometer opens the BMP180 at addr on i2c bus using driver.
func OpenBarometer(driver string, bus int, addr uint8, mode bmp180.Mode) (Barometer, error) {
	switch driver {
	case DriverNative, "":
		b, err := OpenBMP180(bus, addr, mode)
		if err != nil {
			return nil, err
		}

		return b, nil
	case DriverBsbmp:
		b, err := OpenLibBMP180(bus, addr, mode)
		if err != nil {
			return nil, err
		}

		return b, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// BMP180 is a barometer backed by the bmp180 decoder.
type BMP180 struct {
	mu     sync.Mutex
	dev    *bmp180.Device
	mode   bmp180.Mode
	closer io.Closer
}

// NewBMP180 reads the calibration through bus. closer, if not nil, is
// closed by Close.
func NewBMP180(bus bmp180.Bus, mode bmp180.Mode, closer io.Closer, opts ...bmp180.Option) (*BMP180, error) {
	if !mode.IsPressure() {
		return nil, fmt.Errorf("%w: %s can't measure pressure", bmp180.ErrInvalidMode, mode)
	}

	dev, err := bmp180.New(bus, opts...)
	if err != nil {
		return nil, err
	}

	log.Info.Printf("BMP180 ready, mode %s", mode)

	return &BMP180{dev: dev, mode: mode, closer: closer}, nil
}

func (b *BMP180) Pressure() (pressure, temperature float64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, err := b.dev.Read(b.mode)
	if err != nil {
		return 0, 0, err
	}

	return r.Pressure, r.Temperature, nil
}

func (b *BMP180) Close() error {
	if b.closer == nil {
		return nil
	}

	return b.closer.Close()
}

// DHT11 is a hygrometer backed by the dht11 decoder.
type DHT11 struct {
	mu  sync.Mutex
	dev *dht11.Device
}

func NewDHT11(pin dht11.Pin, clock dht11.Clock) *DHT11 {
	log.Info.Println("DHT11 ready")

	return &DHT11{dev: dht11.New(pin, clock)}
}

// Humidity returns relative humidity in percent, or dht11.Failed and the
// reason.
func (d *DHT11) Humidity() (float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.dev.Read()
}
