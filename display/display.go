// Package display shows the mask and the annotated frame and polls the
// keyboard for the quit key.
package display

import (
	"time"

	"gocv.io/x/gocv"
)

const (
	// MaskWindow shows the cleaned binary mask.
	MaskWindow = "Red Mask"
	// StreamWindow shows the frame with the detected regions drawn on it.
	StreamWindow = "Stream"
	// DefaultKeyWait is how long each frame waits for a key press.
	DefaultKeyWait = 16 * time.Millisecond
	// QuitKey ends the loop when pressed in a window.
	QuitKey = 'q'
	// NoKey is returned by PollKey when nothing was pressed.
	NoKey = -1
)

// Display is an output surface for the detection loop.
type Display interface {
	// Show presents the mask and the annotated frame.
	Show(mask, frame gocv.Mat)
	// PollKey waits up to wait for a key press and returns its code, or NoKey.
	PollKey(wait time.Duration) int
	// Close tears the surface down.
	Close() error
}

// IsQuit reports whether a key code is the quit key. Only the low byte is
// compared, since some platforms set modifier bits above it.
func IsQuit(key int) bool {
	return key >= 0 && key&0xFF == QuitKey
}
