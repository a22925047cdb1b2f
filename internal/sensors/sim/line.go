// Package sim simulates the sensor node hardware: a single-wire line with a
// DHT11 answering on it and a BMP180 register file. It backs the mocked
// hardware build and the decoder tests.
package sim

import (
	"time"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/dht11"
)

// Typical DHT11 timing.
const (
	ResponseDelay = 20 * time.Microsecond
	ResponseLow   = 80 * time.Microsecond
	ResponseHigh  = 80 * time.Microsecond
	BitGap        = 50 * time.Microsecond
	ZeroWidth     = 26 * time.Microsecond
	OneWidth      = 70 * time.Microsecond
)

// Segment is a stretch of constant line level driven by the sensor.
type Segment struct {
	High  bool
	Width time.Duration
}

// Reply is the waveform of a well behaved sensor sending f, starting at the
// moment the host releases the line.
func Reply(f dht11.Frame) []Segment {
	segs := make([]Segment, 0, 4+2*40+1)
	segs = append(segs,
		Segment{High: true, Width: ResponseDelay},
		Segment{High: false, Width: ResponseLow},
		Segment{High: true, Width: ResponseHigh},
	)

	for i := 39; i >= 0; i-- {
		w := ZeroWidth
		if f.Bit(i) {
			w = OneWidth
		}
		segs = append(segs, Segment{High: false, Width: BitGap}, Segment{High: true, Width: w})
	}

	return append(segs, Segment{High: false, Width: BitGap})
}

// Event is a host side change of the line.
type Event struct {
	At    time.Duration
	Dir   dht11.Direction
	Level bool
}

// Line is a dht11.Pin and dht11.Clock in one. Simulated time advances by
// Tick on every Level poll and by d on every Wait; Now never advances it.
// After the script ends the pull-up keeps the line high.
type Line struct {
	Tick time.Duration

	respond  func() []Segment
	script   []Segment
	now      time.Duration
	released time.Duration
	dir      dht11.Direction
	level    bool
	events   []Event
}

// NewLine returns a line whose sensor answers every host release with the
// segments respond returns.
func NewLine(respond func() []Segment) *Line {
	return &Line{
		Tick:    time.Microsecond,
		respond: respond,
		dir:     dht11.Output,
		level:   true,
	}
}

// Script returns a respond func that always plays segs.
func Script(segs []Segment) func() []Segment {
	return func() []Segment { return segs }
}

func (l *Line) SetDirection(dir dht11.Direction) {
	l.dir = dir
	if dir == dht11.Input {
		l.released = l.now
		l.script = nil
		if l.respond != nil {
			l.script = l.respond()
		}
	}
	l.events = append(l.events, Event{At: l.now, Dir: dir, Level: l.level})
}

func (l *Line) SetLevel(high bool) {
	l.level = high
	l.events = append(l.events, Event{At: l.now, Dir: l.dir, Level: high})
}

func (l *Line) Level() bool {
	defer func() { l.now += l.Tick }()

	if l.dir == dht11.Output {
		return l.level
	}

	return l.sensorLevel(l.now - l.released)
}

func (l *Line) sensorLevel(t time.Duration) bool {
	for _, s := range l.script {
		if t < s.Width {
			return s.High
		}
		t -= s.Width
	}

	return true
}

func (l *Line) Now() time.Duration {
	return l.now
}

func (l *Line) Wait(d time.Duration) {
	l.now += d
}

// Events returns the host side line changes so far.
func (l *Line) Events() []Event {
	return l.events
}

// Idle reports whether the host left the line driven high.
func (l *Line) Idle() bool {
	return l.dir == dht11.Output && l.level
}
