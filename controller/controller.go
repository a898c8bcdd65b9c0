package controller

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/redscan/capture"
	"github.com/nvr-ai/redscan/display"
	"github.com/nvr-ai/redscan/profiler"
)

// Reason tells why the loop stopped.
type Reason int

const (
	// Running means the loop has not stopped yet.
	Running Reason = iota
	// EndOfStream means the source had no more frames or a read failed.
	EndOfStream
	// QuitKey means the quit key was pressed.
	QuitKey
	// Cancelled means the context was cancelled, usually by a signal.
	Cancelled
	// MaxFrames means the configured frame cap was reached.
	MaxFrames
	// Failed means a frame could not be processed.
	Failed
)

func (r Reason) String() string {
	switch r {
	case Running:
		return "running"
	case EndOfStream:
		return "end_of_stream"
	case QuitKey:
		return "quit_key"
	case Cancelled:
		return "cancelled"
	case MaxFrames:
		return "max_frames"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText encodes the reason by name.
func (r Reason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Summary describes a run so far, or a finished run.
type Summary struct {
	Frames  int           `json:"frames"`
	Regions int           `json:"regions"`
	Reason  Reason        `json:"reason"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Observer receives every processed frame result. Observers run on the loop
// goroutine and must not block for long.
type Observer interface {
	Observe(ctx context.Context, result Result)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, result Result)

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, result Result) {
	f(ctx, result)
}

// Config holds the loop settings.
type Config struct {
	// KeyWait is how long each frame waits for a key press.
	KeyWait time.Duration
	// MaxFrames stops the loop after this many frames. Zero means no limit.
	MaxFrames int
}

// DefaultConfig returns the interactive loop settings.
func DefaultConfig() Config {
	return Config{KeyWait: display.DefaultKeyWait}
}

// Controller drives a single detection loop. It owns the source and the
// display and releases both exactly once when Run returns.
type Controller struct {
	Source    capture.Source
	Display   display.Display
	Pipeline  *Pipeline
	Observers []Observer
	Config    Config
	Logger    zerolog.Logger

	mu      sync.RWMutex
	summary Summary
	started time.Time

	release sync.Once
}

// New creates a controller.
//
// Arguments:
//   - src: Where frames come from.
//   - disp: Where masks and annotated frames go.
//   - pipeline: The per-frame processing chain.
//   - cfg: Loop settings.
//   - logger: Destination of loop events.
//   - observers: Receivers of every frame result.
//
// Returns:
//   - *Controller: The controller, ready to Run.
func New(src capture.Source, disp display.Display, pipeline *Pipeline, cfg Config, logger zerolog.Logger, observers ...Observer) *Controller {
	return &Controller{
		Source:    src,
		Display:   disp,
		Pipeline:  pipeline,
		Observers: observers,
		Config:    cfg,
		Logger:    logger,
	}
}

// Run processes frames until the stream ends, the quit key is pressed, the
// frame cap is reached, or ctx is cancelled.
//
// Each iteration reads a frame, builds its mask, extracts and draws the
// regions, shows the mask and the frame, notifies observers, and then polls
// the keyboard. A failed read ends the loop without an error.
//
// Returns:
//   - Summary: Frames processed, regions found, and why the loop stopped.
//   - error: Only when a frame could not be processed.
func (c *Controller) Run(ctx context.Context) (Summary, error) {
	defer c.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	c.mu.Lock()
	c.started = time.Now()
	c.mu.Unlock()

	c.Logger.Info().Str("source", c.Source.Name()).Msg("detection loop started")

	for index := 0; ; index++ {
		if ctx.Err() != nil {
			return c.finish(Cancelled), nil
		}
		if c.Config.MaxFrames > 0 && index >= c.Config.MaxFrames {
			return c.finish(MaxFrames), nil
		}

		frameDone := c.Pipeline.Profiler.StartOperation(profiler.StageFrame)

		readDone := c.Pipeline.Profiler.StartOperation(profiler.StageRead)
		if err := c.Source.Read(&frame); err != nil {
			if !errors.Is(err, io.EOF) {
				c.Logger.Warn().Err(err).Int("frame", index).Msg("frame read failed")
			}
			return c.finish(EndOfStream), nil
		}
		readDone()

		result, err := c.Pipeline.Process(&frame)
		if err != nil {
			return c.finish(Failed), errors.Wrapf(err, "process frame %d", index)
		}
		result.Index = index

		displayDone := c.Pipeline.Profiler.StartOperation(profiler.StageDisplay)
		c.Display.Show(c.Pipeline.Mask(), frame)
		displayDone()

		for _, o := range c.Observers {
			o.Observe(ctx, result)
		}
		c.record(result)
		frameDone()

		if len(result.Regions) > 0 {
			c.Logger.Debug().
				Int("frame", index).
				Int("regions", len(result.Regions)).
				Int("mask_pixels", result.MaskPixels).
				Msg("red regions detected")
		}

		if display.IsQuit(c.Display.PollKey(c.Config.KeyWait)) {
			return c.finish(QuitKey), nil
		}
	}
}

// Stats returns the progress of the current or last run. It is safe to call
// from other goroutines while Run is active.
func (c *Controller) Stats() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.summary
	if s.Reason == Running && !c.started.IsZero() {
		s.Elapsed = time.Since(c.started)
	}
	return s
}

// Close releases the source and the display. Only the first call has an
// effect; Run calls it on every exit path.
func (c *Controller) Close() {
	c.release.Do(func() {
		if err := c.Source.Close(); err != nil {
			c.Logger.Warn().Err(err).Msg("close source")
		}
		if err := c.Display.Close(); err != nil {
			c.Logger.Warn().Err(err).Msg("close display")
		}
	})
}

func (c *Controller) record(result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary.Frames++
	c.summary.Regions += len(result.Regions)
}

func (c *Controller) finish(reason Reason) Summary {
	c.mu.Lock()
	c.summary.Reason = reason
	c.summary.Elapsed = time.Since(c.started)
	s := c.summary
	c.mu.Unlock()

	c.Logger.Info().
		Str("reason", reason.String()).
		Int("frames", s.Frames).
		Int("regions", s.Regions).
		Dur("elapsed", s.Elapsed).
		Msg("detection loop stopped")
	return s
}
