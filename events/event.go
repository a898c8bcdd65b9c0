// Package events publishes detection results to a message bus.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/nvr-ai/redscan/controller"
	"github.com/nvr-ai/redscan/detector"
)

// DetectionEvent is the message published for a frame with red regions.
type DetectionEvent struct {
	ID         string            `json:"id"`
	RunID      string            `json:"run_id"`
	Source     string            `json:"source"`
	Frame      int               `json:"frame"`
	Timestamp  time.Time         `json:"timestamp"`
	MaskPixels int               `json:"mask_pixels"`
	Regions    []detector.Region `json:"regions"`
	Metrics    detector.Metrics  `json:"metrics"`
}

// NewDetectionEvent builds the event for a frame result.
func NewDetectionEvent(runID, source string, result controller.Result) DetectionEvent {
	return DetectionEvent{
		ID:         uuid.NewString(),
		RunID:      runID,
		Source:     source,
		Frame:      result.Index,
		Timestamp:  result.Timestamp,
		MaskPixels: result.MaskPixels,
		Regions:    result.Regions,
		Metrics:    result.Metrics,
	}
}
