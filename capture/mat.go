package capture

import (
	"io"

	"gocv.io/x/gocv"
)

// MatSource replays frames that are already in memory.
type MatSource struct {
	frames []gocv.Mat
	next   int
	closed int
}

// NewMatSource takes ownership of frames; they are released by Close.
func NewMatSource(frames ...gocv.Mat) *MatSource {
	return &MatSource{frames: frames}
}

// Read copies the next frame into dst.
func (m *MatSource) Read(dst *gocv.Mat) error {
	if m.next >= len(m.frames) {
		return io.EOF
	}
	m.frames[m.next].CopyTo(dst)
	m.next++
	return nil
}

// Close releases the frames. It may be called more than once.
func (m *MatSource) Close() error {
	m.closed++
	if m.closed > 1 {
		return nil
	}
	for i := range m.frames {
		m.frames[i].Close()
	}
	m.next = len(m.frames)
	return nil
}

// Closed reports how many times Close was called.
func (m *MatSource) Closed() int {
	return m.closed
}

// Name identifies the source in logs.
func (m *MatSource) Name() string {
	return "memory"
}
