package profiler

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Stats(t *testing.T) {
	p := New(Options{ReportInterval: -1}, zerolog.Nop())

	p.Record(StageConvert, 2*time.Millisecond)
	p.Record(StageConvert, 4*time.Millisecond)
	p.Record(StageConvert, 6*time.Millisecond)

	s := p.Snapshot()
	require.Contains(t, s.Stages, StageConvert)
	st := s.Stages[StageConvert]
	assert.Equal(t, int64(3), st.Count)
	assert.Equal(t, 4*time.Millisecond, st.Avg)
	assert.Equal(t, 2*time.Millisecond, st.Min)
	assert.Equal(t, 6*time.Millisecond, st.Max)
}

func TestRecord_RollingWindow(t *testing.T) {
	p := New(Options{ReportInterval: -1, MaxSamples: 2}, zerolog.Nop())

	p.Record(StageFrame, 10*time.Millisecond)
	p.Record(StageFrame, 2*time.Millisecond)
	p.Record(StageFrame, 4*time.Millisecond)

	st := p.Snapshot().Stages[StageFrame]
	assert.Equal(t, int64(3), st.Count)
	assert.Equal(t, 3*time.Millisecond, st.Avg)
}

func TestRecordMetric(t *testing.T) {
	p := New(Options{ReportInterval: -1}, zerolog.Nop())

	for _, v := range []float64{0, 2, 4} {
		p.RecordMetric("regions", v)
	}

	m := p.Snapshot().Metrics["regions"]
	assert.Equal(t, int64(3), m.Count)
	assert.Equal(t, 2.0, m.Avg)
	assert.Equal(t, 0.0, m.Min)
	assert.Equal(t, 4.0, m.Max)
}

func TestStartOperation(t *testing.T) {
	p := New(Options{ReportInterval: -1}, zerolog.Nop())

	done := p.StartOperation(StageDraw)
	time.Sleep(time.Millisecond)
	elapsed := done()

	assert.GreaterOrEqual(t, elapsed, time.Millisecond)
	assert.Equal(t, int64(1), p.Snapshot().Stages[StageDraw].Count)
}

func TestConcurrentRecord(t *testing.T) {
	p := New(Options{ReportInterval: -1}, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Record(StageRead, time.Microsecond)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(800), p.Snapshot().Stages[StageRead].Count)
}

func TestReport_Logs(t *testing.T) {
	var buf bytes.Buffer
	p := New(Options{ReportInterval: 5 * time.Millisecond}, zerolog.New(&buf))
	p.Record(StageContours, time.Millisecond)

	p.Report()
	out := buf.String()
	assert.Contains(t, out, `"message":"profiler report"`)
	assert.Contains(t, out, `"stage":"contours"`)
}

func TestStartStop(t *testing.T) {
	p := New(Options{ReportInterval: time.Millisecond}, zerolog.Nop())
	p.Start()
	p.Start()
	time.Sleep(5 * time.Millisecond)
	p.Stop()
	p.Stop()
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.5 KB", formatBytes(1536))
	assert.Equal(t, "2.0 MB", formatBytes(2*1024*1024))
}
