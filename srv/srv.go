package srv

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/Tai-Min/Projekt-IoT-AiR/internal/metrics"
	"github.com/Tai-Min/Projekt-IoT-AiR/internal/publish"
	"github.com/Tai-Min/Projekt-IoT-AiR/log"
	"github.com/Tai-Min/Projekt-IoT-AiR/utils/bp"
)

const (
	shutdownTimeout = 5 * time.Second
	statusWindow    = 24 * time.Hour
	plotRows        = 6
)

type HapServer interface {
	ListenAndServe(ctx context.Context) error
}

type PressureSensor interface {
	Pressure() (pressure, temperature float64, err error)
}

type HumiditySensor interface {
	Humidity() (float64, error)
}

type Metrics interface {
	Last(key string) (metrics.Value, bool)
	Avg(key string, dur time.Duration) []metrics.Value
}

type Notifier interface {
	Notify(title, message string) error
}

type SensorStatus int

const (
	UNKNOWN SensorStatus = iota
	ONLINE
	OFFLINE
)

func (s SensorStatus) String() string {
	switch s {
	case ONLINE:
		return "🟢 Online"
	case OFFLINE:
		return "🔴 Offline"
	default:
		return "⚪ Waiting"
	}
}

// sensor tracks the health of one polled sensor.
type sensor struct {
	name     string
	status   SensorStatus
	err      error
	failures int
	alerted  bool
}

type Opts struct {
	Pressure  PressureSensor
	Humidity  HumiditySensor
	Publisher publish.Publisher
	Hap       HapServer
	Metrics   Metrics
	Notifier  Notifier
	Gatherer  prometheus.Gatherer

	Listen           string
	PollInterval     time.Duration
	HumidityInterval time.Duration
	FailureThreshold int
}

// Server polls the sensors, publishes their readings and serves the status
// page.
type Server struct {
	opts   Opts
	webSrv *http.Server

	mu        sync.RWMutex
	baro, hyg sensor
	startTime time.Time
}

func New(opts Opts) *Server {
	return &Server{
		opts:      opts,
		baro:      sensor{name: "BMP180"},
		hyg:       sensor{name: "DHT11"},
		startTime: time.Now(),
	}
}

func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info.Printf("start polling pressure every %v", s.opts.PollInterval)
		return poll(ctx, s.opts.PollInterval, s.readPressure)
	})
	g.Go(func() error {
		log.Info.Printf("start polling humidity every %v", s.opts.HumidityInterval)
		return poll(ctx, s.opts.HumidityInterval, s.readHumidity)
	})
	// go web server
	g.Go(func() error {
		log.Info.Printf("start web server on %s", s.opts.Listen)
		return s.runWebServer(ctx)
	})
	// go hap server
	g.Go(func() error {
		log.Info.Println("start HAP server")
		return s.opts.Hap.ListenAndServe(ctx)
	})

	return g.Wait()
}

// poll calls read right away and then every interval until ctx is done.
func poll(ctx context.Context, interval time.Duration, read func()) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		read()

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *Server) readPressure() {
	p, t, err := s.opts.Pressure.Pressure()
	if !s.report(&s.baro, err) {
		return
	}

	s.opts.Publisher.Publish(publish.Pressure, p)
	s.opts.Publisher.Publish(publish.Temperature, t)
}

func (s *Server) readHumidity() {
	h, err := s.opts.Humidity.Humidity()
	if !s.report(&s.hyg, err) {
		return
	}

	s.opts.Publisher.Publish(publish.Humidity, h)
}

// report updates the health of sn after a read and reports whether the read
// succeeded. It alerts once when a sensor reaches the failure threshold and
// once when it recovers.
func (s *Server) report(sn *sensor, err error) bool {
	var title, msg string

	s.mu.Lock()
	if err != nil {
		log.Erro.Printf("can't read %s: %s", sn.name, err.Error())

		sn.status, sn.err = OFFLINE, err
		sn.failures++
		if sn.failures >= s.opts.FailureThreshold && !sn.alerted {
			sn.alerted = true
			title = sn.name + " is offline"
			msg = fmt.Sprintf("%d failed reads in a row, last: %s", sn.failures, err.Error())
		}
	} else {
		if sn.alerted {
			title, msg = sn.name+" is back online", fmt.Sprintf("after %d failed reads", sn.failures)
		}
		sn.status, sn.err = ONLINE, nil
		sn.failures, sn.alerted = 0, false
	}
	s.mu.Unlock()

	if title != "" {
		if nErr := s.opts.Notifier.Notify(title, msg); nErr != nil {
			log.Erro.Printf("can't notify: %s", nErr.Error())
		}
	}

	return err == nil
}

// Handler serves the status page on / and Prometheus metrics on /metrics.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)

			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = fmt.Fprint(w, s.status())
	})

	if s.opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

func (s *Server) runWebServer(ctx context.Context) error {
	if s.webSrv != nil {
		return errors.New("web server already exist")
	}

	s.webSrv = &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 1 * time.Second,
	}

	go func() {
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.webSrv.Shutdown(sCtx); err != nil {
			log.Erro.Printf("can't shutdown web server: %s", err.Error())
		}
	}()

	if err := s.webSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) status() string {
	var sb strings.Builder
	sb.WriteString(s.title())
	sb.WriteString("\n")

	for _, m := range []struct{ key, label, unit string }{
		{publish.Pressure, "Pres", "hPa"},
		{publish.Temperature, "Temp", "°C"},
		{publish.Humidity, "Humi", "%"},
	} {
		if v, ok := s.opts.Metrics.Last(m.key); ok {
			sb.WriteString(fmt.Sprintf("%s %7.2f %s\n", m.label, v.V, m.unit))
		} else {
			sb.WriteString(fmt.Sprintf("%s       - %s\n", m.label, m.unit))
		}
	}

	pres := s.opts.Metrics.Avg(publish.Pressure, statusWindow)
	if len(pres) > 1 {
		vals := make([]float64, 0, len(pres))
		for _, v := range pres {
			vals = append(vals, v.V)
		}
		sb.WriteString("\nPressure, hPa\n")
		sb.WriteString(bp.SimplePlot(plotRows, vals))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(renderHourlyAvgTable(
		pres,
		s.opts.Metrics.Avg(publish.Temperature, statusWindow),
		s.opts.Metrics.Avg(publish.Humidity, statusWindow),
	))

	return sb.String()
}

func (s *Server) title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Node %s\n", s.formatUptime()))
	for _, sn := range []sensor{s.baro, s.hyg} {
		sb.WriteString(fmt.Sprintf("%s: %s\n", sn.name, sn.status))
		if sn.err != nil {
			sb.WriteString(fmt.Sprintf("Error: %s\n", sn.err.Error()))
		}
	}

	return sb.String()
}

func (s *Server) formatUptime() string {
	d := time.Since(s.startTime)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("(uptime: %dd %dh %dm)", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("(uptime: %dh %dm)", hours, minutes)
	default:
		return fmt.Sprintf("(uptime: %dm)", minutes)
	}
}

func renderHourlyAvgTable(hourlyAverageP, hourlyAverageT, hourlyAverageH []metrics.Value) string {
	var builder strings.Builder
	builder.WriteString("+-----------------+----------------+----------+----------+\n")
	builder.WriteString("|  Hour           |       P        |     T    |     H    |\n")
	builder.WriteString("+-----------------+----------------+----------+----------+\n")

	merge := make(map[time.Time]*[3]float64)
	for col, series := range [][]metrics.Value{hourlyAverageP, hourlyAverageT, hourlyAverageH} {
		for _, v := range series {
			row, ok := merge[v.T]
			if !ok {
				row = &[3]float64{}
				merge[v.T] = row
			}
			row[col] = v.V
		}
	}

	hours := make([]time.Time, 0, len(merge))
	for k := range merge {
		hours = append(hours, k)
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Before(hours[j]) })

	// pressure trend: ^ rising, v falling, ~ steady
	up, down, same := "^", "v", "~"
	var prevP float64
	if len(hours) > 0 {
		prevP = merge[hours[0]][0]
	}
	for _, hour := range hours {
		var progMark string
		val := merge[hour]
		switch {
		case val[0] > prevP:
			progMark = up
		case val[0] < prevP:
			progMark = down
		default:
			progMark = same
		}

		builder.WriteString(fmt.Sprintf("| %-15s | %5s%9.2f | %8.2f | %8.2f |\n",
			hour.Format("2006-01-02 15h"), progMark, val[0], val[1], val[2]))
		prevP = val[0]
	}

	builder.WriteString("+-----------------+----------------+----------+----------+\n")

	return builder.String()
}
