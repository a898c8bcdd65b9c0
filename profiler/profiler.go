// Package profiler collects per-stage timings of the detection pipeline and
// periodically reports them, together with memory statistics, to the logger.
package profiler

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pipeline stage names.
const (
	StageRead      = "read"
	StageConvert   = "convert"
	StageThreshold = "threshold"
	StageMorph     = "morphology"
	StageContours  = "contours"
	StageDraw      = "draw"
	StageDisplay   = "display"
	StageFrame     = "frame"
)

// Options configures the profiler.
type Options struct {
	// ReportInterval specifies how often to log a report (default: 2s).
	// A negative interval disables periodic reports.
	ReportInterval time.Duration
	// MaxSamples bounds the rolling window kept per stage (default: 600).
	MaxSamples int
}

// Profiler tracks rolling timing statistics per named stage.
// It is safe for concurrent use.
type Profiler struct {
	reportInterval time.Duration
	maxSamples     int
	logger         zerolog.Logger

	mu        sync.RWMutex
	startTime time.Time
	stages    map[string]*TimeTracker
	metrics   map[string]*MetricTracker

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// TimeTracker tracks timing statistics for one stage.
type TimeTracker struct {
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// MetricTracker tracks a numeric metric such as regions per frame.
type MetricTracker struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

// StageStats is the summary of a stage over the rolling window.
type StageStats struct {
	Count int64         `json:"count"`
	Avg   time.Duration `json:"avg_ns"`
	Min   time.Duration `json:"min_ns"`
	Max   time.Duration `json:"max_ns"`
}

// MetricStats is the summary of a metric over the rolling window.
type MetricStats struct {
	Count int64   `json:"count"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Snapshot is a point in time copy of the collected statistics.
type Snapshot struct {
	Uptime     time.Duration          `json:"uptime_ns"`
	Goroutines int                    `json:"goroutines"`
	HeapAlloc  uint64                 `json:"heap_alloc"`
	NumGC      uint32                 `json:"num_gc"`
	Stages     map[string]StageStats  `json:"stages"`
	Metrics    map[string]MetricStats `json:"metrics"`
}

// New creates a profiler that logs to logger.
//
// Arguments:
// - opts: Configuration options for the profiler.
// - logger: Destination of the periodic reports.
//
// Returns:
// - A configured Profiler, not yet started.
func New(opts Options, logger zerolog.Logger) *Profiler {
	if opts.ReportInterval == 0 {
		opts.ReportInterval = 2 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 600
	}

	return &Profiler{
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		logger:         logger,
		startTime:      time.Now(),
		stages:         make(map[string]*TimeTracker),
		metrics:        make(map[string]*MetricTracker),
	}
}

// Start begins the periodic reports. Calling Start twice has no effect.
func (p *Profiler) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.reportInterval < 0 {
		return
	}
	p.running = true

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Report()
			}
		}
	}()
}

// Stop ends the periodic reports and waits for the reporter to exit.
func (p *Profiler) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// StartOperation begins timing a stage.
//
// Arguments:
// - name: The stage to track.
//
// Returns:
// - A function to call when the stage completes. It returns the elapsed time.
//
// @example
// done := p.StartOperation(profiler.StageConvert)
// ...
// elapsed := done()
func (p *Profiler) StartOperation(name string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		p.Record(name, d)
		return d
	}
}

// Record adds one duration sample to a stage.
func (p *Profiler) Record(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, ok := p.stages[name]
	if !ok {
		tracker = &TimeTracker{minTime: d, maxTime: d}
		p.stages[name] = tracker
	}

	tracker.durations = append(tracker.durations, d)
	if len(tracker.durations) > p.maxSamples {
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.totalTime += d
	tracker.count++

	if d < tracker.minTime {
		tracker.minTime = d
	}
	if d > tracker.maxTime {
		tracker.maxTime = d
	}
}

// RecordMetric adds one sample to a metric.
func (p *Profiler) RecordMetric(name string, value float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, ok := p.metrics[name]
	if !ok {
		tracker = &MetricTracker{min: value, max: value}
		p.metrics[name] = tracker
	}

	tracker.values = append(tracker.values, value)
	if len(tracker.values) > p.maxSamples {
		tracker.sum -= tracker.values[0]
		tracker.values = tracker.values[1:]
	}
	tracker.sum += value
	tracker.count++

	if value < tracker.min {
		tracker.min = value
	}
	if value > tracker.max {
		tracker.max = value
	}
}

// Snapshot returns the current statistics.
func (p *Profiler) Snapshot() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Snapshot{
		Uptime:     time.Since(p.startTime),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		NumGC:      mem.NumGC,
		Stages:     make(map[string]StageStats, len(p.stages)),
		Metrics:    make(map[string]MetricStats, len(p.metrics)),
	}

	for name, t := range p.stages {
		if len(t.durations) == 0 {
			continue
		}
		s.Stages[name] = StageStats{
			Count: t.count,
			Avg:   t.totalTime / time.Duration(len(t.durations)),
			Min:   t.minTime,
			Max:   t.maxTime,
		}
	}
	for name, t := range p.metrics {
		if len(t.values) == 0 {
			continue
		}
		s.Metrics[name] = MetricStats{
			Count: t.count,
			Avg:   t.sum / float64(len(t.values)),
			Min:   t.min,
			Max:   t.max,
		}
	}

	return s
}

// Report logs the current snapshot, one event per stage.
func (p *Profiler) Report() {
	s := p.Snapshot()

	p.logger.Info().
		Dur("uptime", s.Uptime.Truncate(time.Millisecond)).
		Int("goroutines", s.Goroutines).
		Str("heap_alloc", formatBytes(s.HeapAlloc)).
		Uint32("num_gc", s.NumGC).
		Msg("profiler report")

	names := make([]string, 0, len(s.Stages))
	for name := range s.Stages {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		st := s.Stages[name]
		p.logger.Info().
			Str("stage", name).
			Int64("count", st.Count).
			Dur("avg", st.Avg.Truncate(time.Microsecond)).
			Dur("min", st.Min.Truncate(time.Microsecond)).
			Dur("max", st.Max.Truncate(time.Microsecond)).
			Msg("stage timing")
	}
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return strconv.FormatUint(bytes, 10) + " B"
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(bytes)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "B"
}
