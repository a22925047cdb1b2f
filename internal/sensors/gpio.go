package sensors

import (
	"periph.io/x/conn/v3/gpio"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors/dht11"
	"github.com/Tai-Min/Projekt-IoT-AiR/log"
)

// PeriphPin drives a dht11 line through a periph GPIO. The line relies on the
// internal pull-up while released.
type PeriphPin struct {
	pin   gpio.PinIO
	level gpio.Level
	out   bool
}

func NewPeriphPin(pin gpio.PinIO) *PeriphPin {
	return &PeriphPin{pin: pin, level: gpio.High}
}

func (p *PeriphPin) SetDirection(dir dht11.Direction) {
	var err error
	if dir == dht11.Output {
		p.out = true
		err = p.pin.Out(p.level)
	} else {
		p.out = false
		err = p.pin.In(gpio.PullUp, gpio.NoEdge)
	}

	if err != nil {
		log.Erro.Printf("%s: set %s: %v", p.pin, dir, err)
	}
}

func (p *PeriphPin) SetLevel(high bool) {
	p.level = gpio.Level(high)
	if !p.out {
		return
	}

	if err := p.pin.Out(p.level); err != nil {
		log.Erro.Printf("%s: drive %s: %v", p.pin, p.level, err)
	}
}

func (p *PeriphPin) Level() bool {
	return p.pin.Read() == gpio.High
}
