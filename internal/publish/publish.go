// Package publish delivers measurements to whatever consumes them: HomeKit,
// Prometheus, the in-memory metrics store and the log.
package publish

import (
	"github.com/Tai-Min/Projekt-IoT-AiR/log"
)

// Metric names.
const (
	Pressure    = "pressure"    // hPa
	Temperature = "temperature" // °C
	Humidity    = "humidity"    // %RH
)

type Publisher interface {
	Publish(metric string, value float64)
}

// Func adapts a function to Publisher.
type Func func(metric string, value float64)

func (f Func) Publish(metric string, value float64) {
	f(metric, value)
}

// Multi publishes to every Publisher in order.
type Multi []Publisher

func (m Multi) Publish(metric string, value float64) {
	for _, p := range m {
		p.Publish(metric, value)
	}
}

type HomeKitSink interface {
	SetCurrentTemperature(t float64)
	SetCurrentHumidity(h float64)
}

// HomeKit forwards temperature and humidity; HomeKit has no pressure
// characteristic, so pressure is dropped.
type HomeKit struct {
	Sink HomeKitSink
}

func (h HomeKit) Publish(metric string, value float64) {
	switch metric {
	case Temperature:
		h.Sink.SetCurrentTemperature(value)
	case Humidity:
		h.Sink.SetCurrentHumidity(value)
	}
}

type GaugeSink interface {
	Gauge(key string, val float64)
}

// Gauges records every value in a metrics store.
type Gauges struct {
	Sink GaugeSink
}

func (g Gauges) Publish(metric string, value float64) {
	g.Sink.Gauge(metric, value)
}

// Log writes every value to the debug log.
type Log struct{}

func (Log) Publish(metric string, value float64) {
	log.Debg.Printf("publish %s: %.2f", metric, value)
}
