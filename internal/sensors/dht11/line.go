package dht11

import "time"

// Direction of the data line as seen from the host.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}

	return "input"
}

// Pin is the digital line the sensor hangs off. SetLevel sets the level
// driven whenever the pin is an output; it may be called in either
// direction. Implementations must not block; failures are only ever observed
// through protocol timeouts.
type Pin interface {
	SetDirection(dir Direction)
	SetLevel(high bool)
	Level() bool
}

// Clock provides the microsecond time base of a transaction.
type Clock interface {
	// Now returns a monotonic timestamp.
	Now() time.Duration
	// Wait blocks for d.
	Wait(d time.Duration)
}

// spinLimit is the longest wait SystemClock busy-spins; longer ones sleep.
const spinLimit = time.Millisecond

// SystemClock is a Clock backed by the Go monotonic clock.
type SystemClock struct {
	epoch time.Time
}

func NewSystemClock() *SystemClock {
	return &SystemClock{epoch: time.Now()}
}

func (c *SystemClock) Now() time.Duration {
	return time.Since(c.epoch)
}

func (c *SystemClock) Wait(d time.Duration) {
	if d >= spinLimit {
		time.Sleep(d)

		return
	}

	start := c.Now()
	for c.Now()-start < d {
	}
}

// waitLevel spins until the line reads level or timeout has elapsed. It
// returns how long the line took to get there. It has no side effects on the
// line; recovery is the caller's job.
func waitLevel(p Pin, c Clock, level bool, timeout time.Duration) (time.Duration, bool) {
	start := c.Now()
	for {
		if p.Level() == level {
			return c.Now() - start, true
		}

		if c.Now()-start > timeout {
			return 0, false
		}
	}
}
