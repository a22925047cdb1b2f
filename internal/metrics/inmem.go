package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/Tai-Min/Projekt-IoT-AiR/log"
)

const (
	cleanerWorkerSleep = 30 * time.Second
)

type Option func(m *InMem)

func WithRetention(dur time.Duration) Option {
	return func(m *InMem) {
		m.retentionDuration = dur
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *InMem) {
		m.now = now
	}
}

type Value struct {
	T time.Time
	V float64
}

// InMem keeps a timeline of gauge values per key.
type InMem struct {
	mu            sync.RWMutex
	gaugeTimeLine map[string][]Value

	retentionDuration time.Duration
	now               func() time.Time
	stop              chan struct{}
	stopOnce          sync.Once
}

func New(opts ...Option) *InMem {
	m := &InMem{
		gaugeTimeLine: make(map[string][]Value),
		now:           time.Now,
		stop:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	go m.cleaner()

	return m
}

// Close stops the retention cleaner.
func (m *InMem) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *InMem) Gauge(key string, val float64) {
	log.Debg.Printf("gauge %s: %v", key, val)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.gaugeTimeLine[key] = append(m.gaugeTimeLine[key], Value{T: m.now(), V: val})
}

// Last returns the most recent value of key.
func (m *InMem) Last(key string) (Value, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data := m.gaugeTimeLine[key]
	if len(data) == 0 {
		return Value{}, false
	}

	return data[len(data)-1], true
}

// Series returns the values of key recorded within the last dur, oldest first.
func (m *InMem) Series(key string, dur time.Duration) []Value {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := m.now().Add(-dur)
	var res []Value
	for _, val := range m.gaugeTimeLine[key] {
		if val.T.After(start) {
			res = append(res, val)
		}
	}

	return res
}

// Avg returns hourly averages of key over the last dur, oldest hour first.
func (m *InMem) Avg(key string, dur time.Duration) []Value {
	data := m.Series(key, dur)
	if len(data) == 0 {
		return nil
	}

	hAvg := make(map[time.Time][]float64)
	for _, v := range data {
		t := v.T.Truncate(time.Hour)
		hAvg[t] = append(hAvg[t], v.V)
	}

	avg := make([]Value, 0, len(hAvg))
	for k, v := range hAvg {
		sum := 0.0
		for _, vv := range v {
			sum += vv
		}

		avg = append(avg, Value{T: k, V: sum / float64(len(v))})
	}

	sort.Slice(avg, func(i, j int) bool {
		return avg[i].T.Before(avg[j].T)
	})

	return avg
}

func (m *InMem) cleaner() {
	if m.retentionDuration == 0 {
		log.Info.Println("retention isn't set up")

		return
	}

	for {
		select {
		case <-m.stop:
			return
		case <-time.After(cleanerWorkerSleep):
			m.cleanup()
		}
	}
}

func (m *InMem) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.retentionDuration)
	var totalVs, totalNewVs int
	for k, v := range m.gaugeTimeLine {
		var newV []Value
		for _, vv := range v {
			if vv.T.After(cutoff) {
				newV = append(newV, vv)
			}
		}
		totalVs += len(v)
		totalNewVs += len(newV)
		m.gaugeTimeLine[k] = newV
	}

	if diff := totalVs - totalNewVs; diff != 0 {
		log.Debg.Printf("cleaner removed %d gauges by retention policy", diff)
	}
}
