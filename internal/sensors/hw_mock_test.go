//go:build !(linux && (arm || arm64))

package sensors

import (
	"testing"

	"github.com/d2r2/go-logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/bmp180"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/dht11"
)

func TestMockBarometer(t *testing.T) {
	b, err := OpenBarometer(DriverNative, 1, 0x77, bmp180.UltraHighRes)
	require.NoError(t, err)
	defer b.Close()

	p, temp, err := b.Pressure()
	require.NoError(t, err)
	assert.InDelta(t, 1020, p, 10)
	assert.InDelta(t, 21, temp, 1)

	_, err = OpenBarometer(DriverBsbmp, 1, 0x77, bmp180.UltraHighRes)
	assert.ErrorIs(t, err, ErrNoHardware)
}

func TestMockDHT11(t *testing.T) {
	d, err := OpenDHT11("GPIO18")
	require.NoError(t, err)

	ok := 0
	for i := 0; i < 50; i++ {
		h, err := d.Humidity()
		if err != nil {
			assert.ErrorIs(t, err, dht11.ErrChecksum)
			assert.Equal(t, dht11.Failed, h)

			continue
		}

		ok++
		assert.GreaterOrEqual(t, h, 40.0)
		assert.Less(t, h, 70.0)
	}

	assert.Positive(t, ok)
}

func TestLoggersExist(t *testing.T) {
	for _, pkg := range Loggers() {
		assert.NoError(t, logger.ChangePackageLogLevel(pkg, logger.InfoLevel), pkg)
	}
}
