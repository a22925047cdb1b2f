package homekit

import (
	"testing"

	"github.com/brutella/hap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHapSrv(t *testing.T) {
	s, err := NewDefaultHapSrv(hap.NewMemStore(), "11112222")
	require.NoError(t, err)

	assert.Equal(t, "11112222", s.srv.Pin)
	assert.Equal(t, uint64(2), s.thermometer.A.Id)
	assert.Equal(t, uint64(3), s.humidifier.A.Id)

	s.SetCurrentTemperature(21.5)
	s.SetCurrentHumidity(45)

	assert.Equal(t, 21.5, s.thermometer.TempSensor.CurrentTemperature.Value())
	assert.Equal(t, 45.0, s.humidifier.Humidifier.CurrentRelativeHumidity.Value())
}
