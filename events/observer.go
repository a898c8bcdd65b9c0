package events

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/nvr-ai/redscan/controller"
)

// DetectionObserver publishes a DetectionEvent for every frame that has at
// least one region. Frames without regions are skipped unless All is set.
type DetectionObserver struct {
	Publisher Publisher
	Subject   string
	RunID     string
	Source    string
	All       bool
	Logger    zerolog.Logger

	published atomic.Int64
	failed    atomic.Int64
}

// NewDetectionObserver returns an observer that publishes on subject.
func NewDetectionObserver(pub Publisher, subject, runID, source string, logger zerolog.Logger) *DetectionObserver {
	return &DetectionObserver{
		Publisher: pub,
		Subject:   subject,
		RunID:     runID,
		Source:    source,
		Logger:    logger,
	}
}

// Observe implements controller.Observer. Publish failures are logged and
// never stop the loop.
func (o *DetectionObserver) Observe(_ context.Context, result controller.Result) {
	if len(result.Regions) == 0 && !o.All {
		return
	}

	event := NewDetectionEvent(o.RunID, o.Source, result)
	if err := o.Publisher.Publish(o.Subject, event); err != nil {
		// Only the first failure is logged at warn level.
		if o.failed.Add(1) == 1 {
			o.Logger.Warn().Err(err).Str("subject", o.Subject).Msg("publish detection event")
		} else {
			o.Logger.Debug().Err(err).Int("frame", result.Index).Msg("publish detection event")
		}
		return
	}
	o.published.Add(1)
}

// Published returns the number of events sent.
func (o *DetectionObserver) Published() int64 {
	return o.published.Load()
}

// Failed returns the number of events that could not be sent.
func (o *DetectionObserver) Failed() int64 {
	return o.failed.Load()
}
