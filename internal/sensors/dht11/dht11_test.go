package dht11_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/dht11"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/sim"
)

// highIndex is the position of the high pulse of frame bit i in sim.Reply.
func highIndex(i int) int { return 4 + 2*(39-i) }

// gapIndex is the position of the low gap before frame bit i in sim.Reply.
func gapIndex(i int) int { return 3 + 2*(39-i) }

func newDevice(segs []sim.Segment) (*dht11.Device, *sim.Line) {
	line := sim.NewLine(sim.Script(segs))

	return dht11.New(line, line), line
}

func TestRead(t *testing.T) {
	dev, line := newDevice(sim.Reply(dht11.NewFrame(45, 0, 20, 0)))

	h, err := dev.Read()
	require.NoError(t, err)
	assert.Equal(t, 45.0, h)
	assert.True(t, line.Idle())
}

func TestReadFrame(t *testing.T) {
	want := dht11.NewFrame(37, 0, 23, 0)
	dev, _ := newDevice(sim.Reply(want))

	f, err := dev.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, want, f)
	assert.Equal(t, byte(23), f.Temperature())
}

func TestReadHostStart(t *testing.T) {
	dev, line := newDevice(sim.Reply(dht11.NewFrame(50, 0, 21, 0)))

	_, err := dev.Read()
	require.NoError(t, err)

	ev := line.Events()
	require.GreaterOrEqual(t, len(ev), 4)
	assert.Equal(t, sim.Event{At: 0, Dir: dht11.Output, Level: true}, ev[1])
	assert.Equal(t, sim.Event{At: 0, Dir: dht11.Output, Level: false}, ev[2])
	assert.Equal(t, dht11.Input, ev[3].Dir)
	assert.Equal(t, dht11.StartSignal, ev[3].At)
}

func TestReadChecksumMismatch(t *testing.T) {
	for sum := 0; sum < 256; sum += 17 {
		if sum == 65 {
			continue
		}
		dev, line := newDevice(sim.Reply(dht11.PackFrame(45, 0, 20, 0, byte(sum))))

		h, err := dev.Read()
		assert.Equal(t, dht11.Failed, h)
		assert.ErrorIs(t, err, dht11.ErrChecksum)
		assert.True(t, line.Idle())
	}
}

func TestReadBitThreshold(t *testing.T) {
	// Bit 0 is the checksum LSB of {1,0,0,0,1}.
	segs := sim.Reply(dht11.NewFrame(1, 0, 0, 0))

	segs[highIndex(0)].Width = 39 * time.Microsecond
	dev, _ := newDevice(segs)
	h, err := dev.Read()
	require.NoError(t, err)
	assert.Equal(t, 1.0, h)

	segs[highIndex(0)].Width = 38 * time.Microsecond
	dev, _ = newDevice(segs)
	_, err = dev.Read()

	var ce *dht11.ChecksumError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, byte(0), ce.Got)
	assert.Equal(t, byte(1), ce.Want)
}

func TestReadResponseTimeoutBoundary(t *testing.T) {
	segs := sim.Reply(dht11.NewFrame(45, 0, 20, 0))

	segs[0].Width = dht11.ResponseLowMax
	dev, _ := newDevice(segs)
	h, err := dev.Read()
	require.NoError(t, err)
	assert.Equal(t, 45.0, h)

	segs[0].Width = dht11.ResponseLowMax + time.Microsecond
	dev, line := newDevice(segs)
	h, err = dev.Read()
	assert.Equal(t, dht11.Failed, h)
	assert.ErrorIs(t, err, dht11.ErrTimeout)
	assert.True(t, line.Idle())
}

func TestReadTimeouts(t *testing.T) {
	reply := sim.Reply(dht11.NewFrame(45, 0, 20, 0))
	stuckLow := sim.Segment{High: false, Width: time.Second}
	stuckHigh := sim.Segment{High: true, Width: time.Second}

	tests := []struct {
		name  string
		segs  []sim.Segment
		phase dht11.Phase
		bit   int
		level bool
	}{
		{
			name:  "no sensor",
			segs:  nil,
			phase: dht11.PhaseResponseLow,
			bit:   -1,
		},
		{
			name:  "stuck after response low",
			segs:  []sim.Segment{reply[0], stuckLow},
			phase: dht11.PhaseResponseHigh,
			bit:   -1,
			level: true,
		},
		{
			name:  "stuck after response high",
			segs:  []sim.Segment{reply[0], reply[1], stuckHigh},
			phase: dht11.PhaseFirstDataLow,
			bit:   -1,
		},
		{
			name:  "stuck in gap before bit 20",
			segs:  append(append([]sim.Segment{}, reply[:gapIndex(20)]...), stuckLow),
			phase: dht11.PhaseReadBit,
			bit:   20,
			level: true,
		},
		{
			name:  "stuck in pulse of bit 5",
			segs:  append(append([]sim.Segment{}, reply[:highIndex(5)]...), stuckHigh),
			phase: dht11.PhaseReadBit,
			bit:   5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, line := newDevice(tt.segs)

			h, err := dev.Read()
			assert.Equal(t, dht11.Failed, h)
			require.ErrorIs(t, err, dht11.ErrTimeout)
			assert.NotErrorIs(t, err, dht11.ErrChecksum)

			var te *dht11.TimeoutError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, tt.phase, te.Phase)
			assert.Equal(t, tt.bit, te.Bit)
			assert.Equal(t, tt.level, te.Level)

			assert.True(t, line.Idle(), "line must be left driven high")
		})
	}
}

func TestReadRecoversAfterFailure(t *testing.T) {
	replies := [][]sim.Segment{
		nil,
		sim.Reply(dht11.NewFrame(55, 0, 19, 0)),
	}
	n := 0
	line := sim.NewLine(func() []sim.Segment {
		s := replies[n%len(replies)]
		n++

		return s
	})
	dev := dht11.New(line, line)

	_, err := dev.Read()
	require.ErrorIs(t, err, dht11.ErrTimeout)

	h, err := dev.Read()
	require.NoError(t, err)
	assert.Equal(t, 55.0, h)
}
