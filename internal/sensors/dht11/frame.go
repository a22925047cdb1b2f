package dht11

import (
	"fmt"
)

const frameBits = 40

// Frame is the 40 bit word a sensor sends per transaction, MSB first:
// humidity integral, humidity decimal, temperature integral, temperature
// decimal, checksum.
type Frame uint64

// NewFrame packs the four data bytes and appends a correct checksum.
func NewFrame(humInt, humDec, tempInt, tempDec byte) Frame {
	return PackFrame(humInt, humDec, tempInt, tempDec, humInt+humDec+tempInt+tempDec)
}

// PackFrame packs all five bytes as given.
func PackFrame(humInt, humDec, tempInt, tempDec, checksum byte) Frame {
	return Frame(humInt)<<32 | Frame(humDec)<<24 | Frame(tempInt)<<16 | Frame(tempDec)<<8 | Frame(checksum)
}

func (f Frame) Humidity() byte           { return byte(f >> 32) }
func (f Frame) HumidityDecimal() byte    { return byte(f >> 24) }
func (f Frame) Temperature() byte        { return byte(f >> 16) }
func (f Frame) TemperatureDecimal() byte { return byte(f >> 8) }
func (f Frame) Checksum() byte           { return byte(f) }

// Sum is the checksum the data bytes call for: their sum truncated to 8 bits.
func (f Frame) Sum() byte {
	return f.Humidity() + f.HumidityDecimal() + f.Temperature() + f.TemperatureDecimal()
}

// Bit returns bit i of the frame, 39 being the first one on the wire.
func (f Frame) Bit(i int) bool {
	return f>>uint(i)&1 == 1
}

// Validate checks the transmitted checksum.
func (f Frame) Validate() error {
	if got, want := f.Checksum(), f.Sum(); got != want {
		return &ChecksumError{Want: want, Got: got}
	}

	return nil
}

func (f Frame) String() string {
	return fmt.Sprintf("{hum=%d.%d temp=%d.%d sum=0x%02X}",
		f.Humidity(), f.HumidityDecimal(), f.Temperature(), f.TemperatureDecimal(), f.Checksum())
}
