package display

import (
	"time"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// Windows renders to two native HighGUI windows.
type Windows struct {
	mask   *gocv.Window
	stream *gocv.Window
}

// NewWindows opens the "Red Mask" and "Stream" windows.
func NewWindows() *Windows {
	return &Windows{
		mask:   gocv.NewWindow(MaskWindow),
		stream: gocv.NewWindow(StreamWindow),
	}
}

// Show updates both windows.
func (w *Windows) Show(mask, frame gocv.Mat) {
	w.mask.IMShow(mask)
	w.stream.IMShow(frame)
}

// PollKey pumps the window event loop for wait and returns the key pressed.
// A wait under one millisecond is rounded up, because WaitKey(0) blocks.
func (w *Windows) PollKey(wait time.Duration) int {
	ms := int(wait / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return w.stream.WaitKey(ms)
}

// Close destroys both windows.
func (w *Windows) Close() error {
	errMask := w.mask.Close()
	errStream := w.stream.Close()
	if errMask != nil {
		return errors.Wrap(errMask, "close mask window")
	}
	if errStream != nil {
		return errors.Wrap(errStream, "close stream window")
	}
	return nil
}

// Headless is a Display without windows, for servers and tests.
type Headless struct {
	shown int
}

// NewHeadless returns a Display that drops every frame.
func NewHeadless() *Headless {
	return &Headless{}
}

// Show counts the frame and discards it.
func (h *Headless) Show(mask, frame gocv.Mat) {
	h.shown++
}

// PollKey sleeps for wait, keeping the same pacing as a window, and never
// reports a key.
func (h *Headless) PollKey(wait time.Duration) int {
	if wait > 0 {
		time.Sleep(wait)
	}
	return NoKey
}

// Close does nothing.
func (h *Headless) Close() error {
	return nil
}

// Shown returns how many frames were passed to Show.
func (h *Headless) Shown() int {
	return h.shown
}
