package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/d2r2/go-logger"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/config"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/homekit"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/metrics"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/notifier"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/publish"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/sensors"
	"github.com/Tai-Min/Projekt-IoT-AiR/log"
	"github.com/Tai-Min/Projekt-IoT-AiR/srv"
)

const (
	metricsRetention = 2 * time.Minute
)

// dev runs the node against whatever sensors.Open* give on this platform
// (simulated ones off the Pi), without HomeKit or alerts.
func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Getenv)
	if err != nil {
		log.Erro.Printf("can't parse config: %s", err.Error())
		os.Exit(2)
	}

	setupLogger()

	baro, err := sensors.OpenBarometer(cfg.BaroDriver, cfg.I2CBus, uint8(cfg.I2CAddr), cfg.PressureMode)
	if err != nil {
		log.Erro.Printf("can't create BMP180 sensor: %s", err.Error())
		os.Exit(1)
	}
	defer func() { _ = baro.Close() }()

	dht, err := sensors.OpenDHT11(cfg.DHTPin)
	if err != nil {
		log.Erro.Printf("can't create DHT11 sensor: %s", err.Error())
		os.Exit(1)
	}

	m := metrics.New(metrics.WithRetention(metricsRetention))
	defer m.Close()

	reg := prometheus.NewRegistry()
	prom, err := publish.NewPrometheus(reg)
	if err != nil {
		log.Erro.Printf("can't register metrics: %s", err.Error())
		os.Exit(1)
	}

	server := srv.New(srv.Opts{
		Pressure:         baro,
		Humidity:         dht,
		Publisher:        publish.Multi{publish.Log{}, publish.Gauges{Sink: m}, prom},
		Hap:              homekit.NoopHap{},
		Metrics:          m,
		Notifier:         notifier.NewNoop(),
		Gatherer:         reg,
		Listen:           cfg.Listen,
		PollInterval:     cfg.PollInterval,
		HumidityInterval: cfg.HumidityInterval,
		FailureThreshold: cfg.FailureThreshold,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		log.Erro.Printf("can't run server: %s", err.Error())
		os.Exit(1)
	}

	log.Info.Println("bye")
}

func setupLogger() {
	for _, pkg := range sensors.Loggers() {
		if err := logger.ChangePackageLogLevel(pkg, logger.DebugLevel); err != nil {
			log.Erro.Printf("can't setup %s logger: %s", pkg, err.Error())
		}
	}
}
