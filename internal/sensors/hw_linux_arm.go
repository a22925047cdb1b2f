//go:build linux && (arm || arm64)

package sensors

import (
	"fmt"
	"sync"

	"github.com/d2r2/go-bsbmp"
	"github.com/d2r2/go-i2c"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/bmp180"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/dht11"
	"github.com/Tai-Min/Projekt-IoT-AiR/log"
)

// Loggers lists the go-logger package loggers of the sensor stack.
func Loggers() []string {
	return []string{"i2c", "bsbmp", "bmp180", "dht11"}
}

// OpenBMP180 opens the sensor with the native decoder.
func OpenBMP180(bus int, addr uint8, mode bmp180.Mode) (*BMP180, error) {
	log.Info.Printf("make BMP180 sensor at 0x%02X on i2c-%d", addr, bus)

	// check the address with 'i2cdetect -y 1'
	conn, err := i2c.NewI2C(addr, bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c-%d: %w", bus, err)
	}

	b, err := NewBMP180(conn, mode, conn, bmp180.WithChipIDCheck())
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	return b, nil
}

// LibBMP180 is a barometer backed by go-bsbmp instead of the native decoder.
type LibBMP180 struct {
	mu       sync.Mutex
	sensor   *bsbmp.BMP
	accuracy bsbmp.AccuracyMode
	conn     *i2c.I2C
}

func OpenLibBMP180(bus int, addr uint8, mode bmp180.Mode) (*LibBMP180, error) {
	log.Info.Printf("make bsbmp BMP180 sensor at 0x%02X on i2c-%d", addr, bus)

	acc, err := accuracy(mode)
	if err != nil {
		return nil, err
	}

	conn, err := i2c.NewI2C(addr, bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c-%d: %w", bus, err)
	}

	sensor, err := bsbmp.NewBMP(bsbmp.BMP180, conn)
	if err != nil {
		_ = conn.Close()

		return nil, err
	}

	return &LibBMP180{sensor: sensor, accuracy: acc, conn: conn}, nil
}

func accuracy(mode bmp180.Mode) (bsbmp.AccuracyMode, error) {
	switch mode {
	case bmp180.LowPower:
		return bsbmp.ACCURACY_ULTRA_LOW, nil
	case bmp180.Standard:
		return bsbmp.ACCURACY_LOW, nil
	case bmp180.HighRes:
		return bsbmp.ACCURACY_STANDARD, nil
	case bmp180.UltraHighRes:
		return bsbmp.ACCURACY_HIGH, nil
	default:
		return 0, fmt.Errorf("%w: %s can't measure pressure", bmp180.ErrInvalidMode, mode)
	}
}

func (b *LibBMP180) Pressure() (pressure, temperature float64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, err := b.sensor.ReadTemperatureC(b.accuracy)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", bmp180.ErrTransport, err)
	}

	p, err := b.sensor.ReadPressurePa(b.accuracy)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", bmp180.ErrTransport, err)
	}

	return float64(p) / 100, float64(t), nil
}

func (b *LibBMP180) Close() error {
	return b.conn.Close()
}

// OpenDHT11 opens the sensor on the GPIO named pin, e.g. "GPIO18".
func OpenDHT11(pin string) (*DHT11, error) {
	log.Info.Printf("make DHT11 sensor on %s", pin)

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	p := gpioreg.ByName(pin)
	if p == nil {
		return nil, fmt.Errorf("no gpio %q", pin)
	}

	return NewDHT11(NewPeriphPin(p), dht11.NewSystemClock()), nil
}
