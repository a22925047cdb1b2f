// Package dht11 reads relative humidity from a DHT11 over its single-wire
// protocol.
//
// A transaction is: the host holds the line low for the start signal and
// releases it; the sensor answers low, then high, then sends 40 bits. Every
// bit starts with a low gap and is encoded in the width of the following
// high pulse (about 26 µs for 0, 70 µs for 1). All waits are busy spins
// bounded by a timeout; on any timeout the line is driven high again before
// Read returns.
//
// Failed reads return Failed together with an error, so pollers can skip
// the sample and try again on the next cycle. The sensor needs about two
// seconds between transactions (see MinReadInterval).
package dht11

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/d2r2/go-logger"
)

var lg = logger.NewPackageLogger("dht11", logger.InfoLevel)

// Failed is returned by Read instead of a humidity value.
const Failed = -1.0

// MinReadInterval is the shortest period the sensor tolerates between reads.
const MinReadInterval = 2100 * time.Millisecond

// Protocol timing.
const (
	StartSignal     = 200000 * time.Microsecond
	ResponseLowMax  = 50 * time.Microsecond
	ResponseHighMax = 90 * time.Microsecond
	FirstDataMax    = 90 * time.Microsecond
	BitLowMax       = 60 * time.Microsecond
	BitHighMax      = 90 * time.Microsecond
	BitThreshold    = 38 * time.Microsecond // high pulses longer than this are 1
)

var (
	ErrTimeout  = errors.New("dht11: timeout")
	ErrChecksum = errors.New("dht11: checksum mismatch")
)

// Phase is a step of the read state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseHostStart
	PhaseResponseLow
	PhaseResponseHigh
	PhaseFirstDataLow
	PhaseReadBit
	PhaseDone
	PhaseFail
)

var phaseNames = [...]string{
	PhaseIdle:         "idle",
	PhaseHostStart:    "host-start",
	PhaseResponseLow:  "response-low",
	PhaseResponseHigh: "response-high",
	PhaseFirstDataLow: "first-data-low",
	PhaseReadBit:      "read-bit",
	PhaseDone:         "done",
	PhaseFail:         "fail",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("Phase(%d)", int(p))
	}

	return phaseNames[p]
}

// TimeoutError reports the line not reaching the expected level in time.
type TimeoutError struct {
	Phase   Phase
	Bit     int // frame bit being read, -1 outside PhaseReadBit
	Level   bool
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	lvl := "low"
	if e.Level {
		lvl = "high"
	}

	if e.Phase == PhaseReadBit {
		return fmt.Sprintf("dht11: timeout: bit %d: line not %s within %v", e.Bit, lvl, e.Timeout)
	}

	return fmt.Sprintf("dht11: timeout: %s: line not %s within %v", e.Phase, lvl, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// ChecksumError reports a frame whose last byte doesn't match its data.
type ChecksumError struct {
	Want, Got byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("dht11: checksum mismatch: want 0x%02X, got 0x%02X", e.Want, e.Got)
}

func (e *ChecksumError) Is(target error) bool { return target == ErrChecksum }

type handshakeStep struct {
	phase   Phase
	level   bool
	timeout time.Duration
}

var handshake = [...]handshakeStep{
	{PhaseResponseLow, false, ResponseLowMax},
	{PhaseResponseHigh, true, ResponseHighMax},
	{PhaseFirstDataLow, false, FirstDataMax},
}

// Device is a DHT11 on one line. It keeps no state between reads besides the
// line itself and must be used from one goroutine.
type Device struct {
	pin   Pin
	clock Clock
}

// New takes ownership of pin and parks the line high.
func New(pin Pin, clock Clock) *Device {
	d := &Device{pin: pin, clock: clock}
	d.release()

	return d
}

// Read runs one transaction and returns the relative humidity in percent,
// or Failed and the reason.
func (d *Device) Read() (float64, error) {
	f, err := d.ReadFrame()
	if err != nil {
		return Failed, err
	}

	return float64(f.Humidity()), nil
}

// ReadFrame runs one transaction and returns the validated frame.
func (d *Device) ReadFrame() (Frame, error) {
	// Keep the spinning goroutine on one thread for the whole transaction.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	d.pin.SetLevel(false)
	d.clock.Wait(StartSignal)
	d.pin.SetDirection(Input)

	for _, step := range handshake {
		if _, ok := waitLevel(d.pin, d.clock, step.level, step.timeout); !ok {
			return 0, d.fail(&TimeoutError{Phase: step.phase, Bit: -1, Level: step.level, Timeout: step.timeout})
		}
	}

	var f Frame
	for i := frameBits - 1; i >= 0; i-- {
		if _, ok := waitLevel(d.pin, d.clock, true, BitLowMax); !ok {
			return 0, d.fail(&TimeoutError{Phase: PhaseReadBit, Bit: i, Level: true, Timeout: BitLowMax})
		}

		width, ok := waitLevel(d.pin, d.clock, false, BitHighMax)
		if !ok {
			return 0, d.fail(&TimeoutError{Phase: PhaseReadBit, Bit: i, Level: false, Timeout: BitHighMax})
		}

		if width > BitThreshold {
			f |= 1 << uint(i)
		}
	}

	d.release()

	if err := f.Validate(); err != nil {
		lg.Debugf("drop frame %s: %v", f, err)

		return 0, err
	}

	lg.Debugf("frame %s", f)

	return f, nil
}

// fail puts the line back into a safe state after a timeout.
func (d *Device) fail(err *TimeoutError) error {
	d.release()
	lg.Debugf("%v", err)

	return err
}

// release drives the line high as output, the bus idle state.
func (d *Device) release() {
	d.pin.SetLevel(true)
	d.pin.SetDirection(Output)
}
