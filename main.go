// Command redscan detects red regions in a video stream and draws their
// bounding boxes.
//
// Usage:
//
//	redscan -video clip.mp4
//	redscan -frames-dir ./frames -show-window=false -max-frames 100
//	redscan -device 0
//
// Press q in a window to quit. See the config package for the environment
// variables.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nvr-ai/redscan/api"
	"github.com/nvr-ai/redscan/capture"
	"github.com/nvr-ai/redscan/config"
	"github.com/nvr-ai/redscan/controller"
	"github.com/nvr-ai/redscan/display"
	"github.com/nvr-ai/redscan/events"
	"github.com/nvr-ai/redscan/images"
	"github.com/nvr-ai/redscan/logging"
	"github.com/nvr-ai/redscan/profiler"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// Setup structured logging until the configuration is known.
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		log.Error().Err(err).Msg("Failed to load configuration")
		return 2
	}
	logging.Setup(cfg)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return 2
	}
	input, err := cfg.Input()
	if err != nil {
		log.Error().Err(err).Msg("Invalid input")
		return 2
	}

	runID := uuid.NewString()
	logger := logging.NewServiceLogger(runID, "redscan")
	logger.Info().
		Str("environment", cfg.Environment).
		Str("input", input.Kind.String()).
		Str("low_range", cfg.Mask.Low.Lower.String()+" - "+cfg.Mask.Low.Upper.String()).
		Str("high_range", cfg.Mask.High.Lower.String()+" - "+cfg.Mask.High.Upper.String()).
		Int("kernel", cfg.Mask.KernelSize).
		Float64("min_area", cfg.MinArea).
		Bool("show_window", cfg.ShowWindow).
		Msg("Starting red region detection")

	prof := profiler.New(profiler.Options{ReportInterval: cfg.ProfileInterval}, logging.NewServiceLogger(runID, "profiler"))
	pipeline, err := controller.NewPipeline(cfg.Mask, cfg.Detector(), images.DefaultAnnotator(), prof)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create pipeline")
		return 1
	}
	defer pipeline.Close()

	var detections *events.DetectionObserver
	if cfg.NatsURL != "" {
		pub, err := events.NewNatsPublisher(events.NatsOptions{
			URL:            cfg.NatsURL,
			ConnectTimeout: cfg.NatsConnectTimeout,
			ReconnectWait:  cfg.NatsReconnectWait,
			MaxReconnects:  cfg.NatsMaxReconnects,
		})
		if err != nil {
			logger.Error().Err(err).Msg("Failed to connect to NATS")
			return 1
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.NatsDrainTimeout)
			defer cancel()
			if err := pub.Shutdown(ctx); err != nil {
				logger.Warn().Err(err).Msg("NATS drain timed out")
			}
		}()
		detections = events.NewDetectionObserver(pub, cfg.NatsSubject, runID, "", logging.NewServiceLogger(runID, "events"))
		detections.All = cfg.NatsPublishAll
	}

	src, err := capture.Open(input)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open frame source")
		return 1
	}

	var observers []controller.Observer
	if detections != nil {
		detections.Source = src.Name()
		observers = append(observers, detections)
	}

	var disp display.Display = display.NewHeadless()
	if cfg.ShowWindow {
		disp = display.NewWindows()
	}

	ctrl := controller.New(src, disp, pipeline, controller.Config{
		KeyWait:   cfg.KeyWait,
		MaxFrames: cfg.MaxFrames,
	}, logging.WithSource(logging.NewServiceLogger(runID, "controller"), src.Name()), observers...)

	if cfg.StatusPort > 0 {
		server := api.NewServer(api.Options{Port: cfg.StatusPort, RunID: runID, Source: src.Name()}, ctrl, prof, logging.NewServiceLogger(runID, "api"))
		go func() {
			if err := server.Start(); err != nil {
				logger.Error().Err(err).Msg("Status server failed")
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				logger.Warn().Err(err).Msg("Status server forced to shutdown")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prof.Start()
	summary, err := ctrl.Run(ctx)
	prof.Stop()
	prof.Report()

	if err != nil {
		logger.Error().Err(err).Int("frames", summary.Frames).Msg("Detection loop failed")
		return 1
	}
	logger.Info().
		Int("frames", summary.Frames).
		Int("regions", summary.Regions).
		Str("reason", summary.Reason.String()).
		Dur("elapsed", summary.Elapsed).
		Msg("Detection finished")
	return 0
}
