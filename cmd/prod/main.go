package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/brutella/hap"
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

var revision = "HEAD"

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:], os.Getenv)
	if err != nil {
		log.Erro.Printf("can't parse config: %s", err.Error())
		os.Exit(2)
	}

	setupLogger(cfg.Debug)
	log.Info.Printf("sensor node, revision: %s", revision)

	baro := makeBarometer(cfg)
	defer func() { _ = baro.Close() }()

	m := metrics.New(metrics.WithRetention(cfg.Retention))
	defer m.Close()

	hk := makeHkSrv(cfg)

	reg := prometheus.NewRegistry()
	prom, err := publish.NewPrometheus(reg)
	if err != nil {
		log.Erro.Printf("can't register metrics: %s", err.Error())
		os.Exit(1)
	}

	server := srv.New(srv.Opts{
		Pressure:         baro,
		Humidity:         makeHygrometer(cfg),
		Publisher:        publish.Multi{publish.Log{}, publish.Gauges{Sink: m}, prom, publish.HomeKit{Sink: hk}},
		Hap:              hk,
		Metrics:          m,
		Notifier:         makeNotifier(cfg),
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

func makeBarometer(cfg *config.Config) sensors.Barometer {
	baro, err := sensors.OpenBarometer(cfg.BaroDriver, cfg.I2CBus, uint8(cfg.I2CAddr), cfg.PressureMode)
	if err != nil {
		log.Erro.Printf("can't create BMP180 sensor: %s", err.Error())
		os.Exit(1)
	}

	return baro
}

func makeHygrometer(cfg *config.Config) srv.HumiditySensor {
	dht, err := sensors.OpenDHT11(cfg.DHTPin)
	if err != nil {
		log.Erro.Printf("can't create DHT11 sensor: %s", err.Error())
		os.Exit(1)
	}

	return dht
}

type hapSrv interface {
	srv.HapServer
	publish.HomeKitSink
}

func makeHkSrv(cfg *config.Config) hapSrv {
	if !cfg.HomeKit {
		log.Info.Println("HomeKit is disabled")

		return homekit.NoopHap{}
	}

	hk, err := homekit.NewDefaultHapSrv(hap.NewFsStore(cfg.HapDB), cfg.HapPin)
	if err != nil {
		log.Erro.Printf("can't create HAP server: %s", err.Error())
		os.Exit(1)
	}

	return hk
}

func makeNotifier(cfg *config.Config) srv.Notifier {
	if cfg.NtfyURL == "" {
		return notifier.NewNoop()
	}

	return notifier.NewNtfy(cfg.NtfyURL)
}

func setupLogger(debug bool) {
	if !debug {
		log.Debg.Off()
	}

	lvl := logger.InfoLevel
	if debug {
		lvl = logger.DebugLevel
	}

	for _, pkg := range sensors.Loggers() {
		if err := logger.ChangePackageLogLevel(pkg, lvl); err != nil {
			log.Erro.Printf("can't setup %s logger: %s", pkg, err.Error())
		}
	}
}
