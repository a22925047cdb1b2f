//go:build !(linux && (arm || arm64))

package sensors

import (
	"errors"
	"math/rand"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/bmp180"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/dht11"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/sim"
	"github.com/Tai-Min/Projekt-IoT-AiR/log"
)

var ErrNoHardware = errors.New("sensors: no i2c hardware on this platform")

// Raw words around 21 °C and 1017 hPa for the datasheet calibration.
const (
	mockUT = 28640
	mockUP = 34000
)

// Loggers lists the go-logger package loggers of the sensor stack. i2c and
// bsbmp only exist on the Pi build.
func Loggers() []string {
	return []string{"bmp180", "dht11"}
}

// OpenBMP180 is a MOCK: a simulated sensor with the datasheet calibration
// and noisy raw words.
func OpenBMP180(bus int, addr uint8, mode bmp180.Mode) (*BMP180, error) {
	log.Info.Printf("make BMP180 MOCK (0x%02X on i2c-%d)", addr, bus)

	b := sim.NewBus(sim.DatasheetCalibration)
	//nolint:gosec // this is a mock
	b.UT = func() uint16 { return mockUT + uint16(rand.Intn(40)) }
	//nolint:gosec // this is a mock
	b.UP = func(uint8) uint16 { return mockUP + uint16(rand.Intn(200)) }

	return NewBMP180(b, mode, nil, bmp180.WithChipIDCheck())
}

func OpenLibBMP180(int, uint8, bmp180.Mode) (Barometer, error) {
	return nil, ErrNoHardware
}

// OpenDHT11 is a MOCK: a simulated line with a sensor that answers with
// random humidity, and a bad checksum now and then.
func OpenDHT11(pin string) (*DHT11, error) {
	log.Info.Printf("make DHT11 MOCK (%s)", pin)

	line := sim.NewLine(func() []sim.Segment {
		//nolint:gosec // this is a mock
		f := dht11.NewFrame(uint8(40+rand.Intn(30)), 0, uint8(18+rand.Intn(6)), 0)
		//nolint:gosec // this is a mock
		if rand.Intn(20) == 0 {
			f ^= 1
		}

		return sim.Reply(f)
	})

	return NewDHT11(line, line), nil
}
