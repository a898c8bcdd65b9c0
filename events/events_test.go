package events

import (
	"context"
	"encoding/json"
	"image"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/redscan/controller"
	"github.com/nvr-ai/redscan/detector"
)

// memoryPublisher keeps the JSON of every published value.
type memoryPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (m *memoryPublisher) Publish(subject string, data interface{}) error {
	if m.err != nil {
		return m.err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.subjects = append(m.subjects, subject)
	m.payloads = append(m.payloads, payload)
	return nil
}

func resultWith(index int, boxes ...image.Rectangle) controller.Result {
	regions := make([]detector.Region, 0, len(boxes))
	for _, b := range boxes {
		regions = append(regions, detector.Region{Box: b, Area: float64((b.Dx() - 1) * (b.Dy() - 1)), Points: 4})
	}
	return controller.Result{
		Index:     index,
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Regions:   regions,
		Metrics:   detector.Summarize(regions, image.Pt(100, 100)),
	}
}

func TestNewDetectionEvent(t *testing.T) {
	result := resultWith(7, image.Rect(10, 10, 40, 40))

	event := NewDetectionEvent("run-1", "clip.mp4", result)
	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "run-1", event.RunID)
	assert.Equal(t, "clip.mp4", event.Source)
	assert.Equal(t, 7, event.Frame)
	assert.Equal(t, result.Regions, event.Regions)

	other := NewDetectionEvent("run-1", "clip.mp4", result)
	assert.NotEqual(t, event.ID, other.ID)
}

func TestDetectionObserver_PublishesFramesWithRegions(t *testing.T) {
	pub := &memoryPublisher{}
	o := NewDetectionObserver(pub, "redscan.detections", "run-1", "memory", zerolog.Nop())

	o.Observe(context.Background(), resultWith(0))
	o.Observe(context.Background(), resultWith(1, image.Rect(10, 10, 40, 40)))
	o.Observe(context.Background(), resultWith(2, image.Rect(0, 0, 30, 30), image.Rect(50, 50, 90, 90)))

	require.Len(t, pub.payloads, 2)
	assert.Equal(t, int64(2), o.Published())
	assert.Equal(t, []string{"redscan.detections", "redscan.detections"}, pub.subjects)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(pub.payloads[1], &event))
	assert.Equal(t, float64(2), event["frame"])
	assert.Equal(t, "run-1", event["run_id"])
	assert.Len(t, event["regions"], 2)
	assert.Equal(t, float64(2), event["metrics"].(map[string]interface{})["count"])
}

func TestDetectionObserver_All(t *testing.T) {
	pub := &memoryPublisher{}
	o := NewDetectionObserver(pub, "s", "run", "memory", zerolog.Nop())
	o.All = true

	o.Observe(context.Background(), resultWith(0))
	assert.Len(t, pub.payloads, 1)
}

func TestDetectionObserver_FailuresDoNotPanic(t *testing.T) {
	pub := &memoryPublisher{err: errors.New("nats: connection closed")}
	o := NewDetectionObserver(pub, "s", "run", "memory", zerolog.Nop())

	for i := 0; i < 3; i++ {
		o.Observe(context.Background(), resultWith(i, image.Rect(0, 0, 30, 30)))
	}
	assert.Equal(t, int64(3), o.Failed())
	assert.Zero(t, o.Published())
}

func TestNewNatsPublisher_Unreachable(t *testing.T) {
	_, err := NewNatsPublisher(NatsOptions{
		URL:            "nats://127.0.0.1:1",
		ConnectTimeout: 200 * time.Millisecond,
		ReconnectWait:  10 * time.Millisecond,
	})
	assert.Error(t, err)
}

func TestNatsPublisher_ZeroValue(t *testing.T) {
	p := &NatsPublisher{}
	assert.False(t, p.IsConnected())
	assert.NoError(t, p.Shutdown(context.Background()))
}
