// Package controller runs the detection loop: it reads frames from a source,
// pushes them through the red mask pipeline, and routes the results to the
// display and to any observers.
package controller

import (
	"image"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/redscan/detector"
	"github.com/nvr-ai/redscan/images"
	"github.com/nvr-ai/redscan/profiler"
)

// Result is the outcome of processing one frame.
type Result struct {
	// Index is the zero based position of the frame in the stream.
	Index int `json:"index"`
	// Timestamp is when the frame finished processing.
	Timestamp time.Time `json:"timestamp"`
	// Regions are the red regions kept by the area filter, in contour order.
	Regions []detector.Region `json:"regions"`
	// MaskPixels is the number of foreground pixels in the cleaned mask.
	MaskPixels int `json:"mask_pixels"`
	// Metrics summarizes Regions.
	Metrics detector.Metrics `json:"metrics"`
	// Timings holds the duration of each pipeline stage.
	Timings map[string]time.Duration `json:"timings_ns"`
}

// Pipeline is the per-frame processing chain: mask, regions, annotation.
type Pipeline struct {
	Builder   *images.RedMaskBuilder
	Extractor *detector.Extractor
	Annotator images.Annotator
	Profiler  *profiler.Profiler
}

// NewPipeline builds a pipeline from its configurations.
//
// Arguments:
//   - mask: Threshold ranges and kernel size.
//   - det: Region filter settings.
//   - annotator: How regions are drawn on the frame.
//   - prof: Stage profiler. When nil, timings are still measured but not reported.
//
// Returns:
//   - *Pipeline: The pipeline. Call Close to release its buffers.
//   - error: If a configuration is invalid.
func NewPipeline(mask images.MaskConfig, det detector.Config, annotator images.Annotator, prof *profiler.Profiler) (*Pipeline, error) {
	builder, err := images.NewRedMaskBuilder(mask)
	if err != nil {
		return nil, err
	}
	extractor, err := detector.New(det)
	if err != nil {
		builder.Close()
		return nil, err
	}
	if prof == nil {
		prof = profiler.New(profiler.Options{ReportInterval: -1}, zerolog.Nop())
	}
	return &Pipeline{
		Builder:   builder,
		Extractor: extractor,
		Annotator: annotator,
		Profiler:  prof,
	}, nil
}

// Process runs one frame through the pipeline and draws the region boxes on
// it in place. The cleaned mask is left in Mask until the next call.
func (p *Pipeline) Process(frame *gocv.Mat) (Result, error) {
	result := Result{Timings: make(map[string]time.Duration, 5)}

	done := p.Profiler.StartOperation(profiler.StageConvert)
	if err := p.Builder.ConvertHSV(*frame); err != nil {
		return result, err
	}
	result.Timings[profiler.StageConvert] = done()

	done = p.Profiler.StartOperation(profiler.StageThreshold)
	if err := p.Builder.ApplyThresholds(); err != nil {
		return result, err
	}
	result.Timings[profiler.StageThreshold] = done()

	done = p.Profiler.StartOperation(profiler.StageMorph)
	if err := p.Builder.Clean(); err != nil {
		return result, err
	}
	result.Timings[profiler.StageMorph] = done()

	done = p.Profiler.StartOperation(profiler.StageContours)
	regions, err := p.Extractor.Extract(p.Builder.Mask)
	if err != nil {
		return result, err
	}
	result.Timings[profiler.StageContours] = done()
	result.Regions = regions
	result.MaskPixels = images.MaskCoverage(p.Builder.Mask)
	result.Metrics = detector.Summarize(regions, image.Pt(frame.Cols(), frame.Rows()))

	done = p.Profiler.StartOperation(profiler.StageDraw)
	if err := p.Annotator.Draw(frame, detector.Boxes(regions)); err != nil {
		return result, err
	}
	result.Timings[profiler.StageDraw] = done()

	p.Profiler.RecordMetric("regions", float64(len(regions)))
	result.Timestamp = time.Now()
	return result, nil
}

// Mask returns the cleaned mask of the last processed frame.
func (p *Pipeline) Mask() gocv.Mat {
	return p.Builder.Mask
}

// Close releases the native buffers.
func (p *Pipeline) Close() {
	p.Builder.Close()
}
