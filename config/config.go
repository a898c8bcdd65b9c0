// Package config loads the runtime configuration from the environment, an
// optional .env file, and command-line flags, in increasing precedence.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/nvr-ai/redscan/capture"
	"github.com/nvr-ai/redscan/detector"
	"github.com/nvr-ai/redscan/display"
	"github.com/nvr-ai/redscan/images"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete runtime configuration.
type Config struct {
	// Application
	Environment string
	LogLevel    string
	LogFormat   string // "console" or "json"

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Input, at most one path may be set; none means the camera.
	VideoPath string
	ImagePath string
	FramesDir string
	DeviceID  int

	// Detection
	Mask    images.MaskConfig
	MinArea float64

	// Loop
	ShowWindow bool
	KeyWait    time.Duration
	MaxFrames  int

	// Profiling, a negative interval disables periodic reports.
	ProfileInterval time.Duration

	// NATS, disabled when NatsURL is empty.
	NatsURL            string
	NatsSubject        string
	NatsConnectTimeout time.Duration
	NatsReconnectWait  time.Duration
	NatsMaxReconnects  int
	NatsDrainTimeout   time.Duration
	NatsPublishAll     bool

	// Status server, disabled when StatusPort is 0.
	StatusPort      int
	ShutdownTimeout time.Duration
}

// Load reads the configuration.
//
// Values come from the process environment, after loading a .env file from
// the working directory if one exists. Flags in args override them.
//
// Arguments:
//   - args: Command-line arguments without the program name.
//
// Returns:
//   - *Config: The configuration. It is not validated.
//   - error: If a value cannot be parsed or a flag is unknown.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	cfg := &Config{
		// Application
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "console"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Input
		VideoPath: getEnv("VIDEO_PATH", ""),
		ImagePath: getEnv("IMAGE_PATH", ""),
		FramesDir: getEnv("FRAMES_DIR", ""),
		DeviceID:  getEnvInt("DEVICE_ID", 0),

		// Detection
		MinArea: getEnvFloat("MIN_AREA", detector.DefaultMinArea),

		// Loop
		ShowWindow: getEnvBool("SHOW_WINDOW", true),
		KeyWait:    getEnvDuration("KEY_WAIT", display.DefaultKeyWait),
		MaxFrames:  getEnvInt("MAX_FRAMES", 0),

		ProfileInterval: getEnvDuration("PROFILE_INTERVAL", 10*time.Second),

		// NATS
		NatsURL:            getEnv("NATS_URL", ""),
		NatsSubject:        getEnv("NATS_SUBJECT", "redscan.detections"),
		NatsConnectTimeout: getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:  getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:  getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsDrainTimeout:   getEnvDuration("NATS_DRAIN_TIMEOUT", 5*time.Second),
		NatsPublishAll:     getEnvBool("NATS_PUBLISH_ALL", false),

		// Status server
		StatusPort:      getEnvInt("STATUS_PORT", 0),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}

	mask, err := loadMaskConfig()
	if err != nil {
		return nil, err
	}
	cfg.Mask = mask

	if err := cfg.parseFlags(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadMaskConfig reads the threshold tuples, each formatted "h,s,v".
func loadMaskConfig() (images.MaskConfig, error) {
	mask := images.DefaultMaskConfig()
	mask.KernelSize = getEnvInt("KERNEL_SIZE", mask.KernelSize)

	for _, v := range []struct {
		key string
		dst *images.HSV
	}{
		{"RED_LOW_LOWER", &mask.Low.Lower},
		{"RED_LOW_UPPER", &mask.Low.Upper},
		{"RED_HIGH_LOWER", &mask.High.Lower},
		{"RED_HIGH_UPPER", &mask.High.Upper},
	} {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		hsv, err := images.ParseHSV(raw)
		if err != nil {
			return mask, errors.Wrap(err, v.key)
		}
		*v.dst = hsv
	}
	return mask, nil
}

func (c *Config) parseFlags(args []string) error {
	fs := flag.NewFlagSet("redscan", flag.ContinueOnError)
	fs.StringVar(&c.VideoPath, "video", c.VideoPath, "Path to video file (.mp4, .avi, .mov, .mkv)")
	fs.StringVar(&c.ImagePath, "image", c.ImagePath, "Path to image file (.jpg, .jpeg, .png, .bmp)")
	fs.StringVar(&c.FramesDir, "frames-dir", c.FramesDir, "Directory of frame-N images")
	fs.IntVar(&c.DeviceID, "device", c.DeviceID, "Camera device used when no path is given")
	fs.BoolVar(&c.ShowWindow, "show-window", c.ShowWindow, "Show the mask and stream windows")
	fs.Float64Var(&c.MinArea, "min-area", c.MinArea, "Contours with an area at or below this are dropped")
	fs.IntVar(&c.Mask.KernelSize, "kernel", c.Mask.KernelSize, "Side of the square morphology kernel")
	fs.IntVar(&c.MaxFrames, "max-frames", c.MaxFrames, "Stop after this many frames (0 = no limit)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (trace, debug, info, warn, error)")
	fs.IntVar(&c.StatusPort, "status-port", c.StatusPort, "Port of the status server (0 = disabled)")

	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "parse flags")
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if err := c.Mask.Validate(); err != nil {
		return err
	}
	if err := (detector.Config{MinArea: c.MinArea}).Validate(); err != nil {
		return err
	}
	if c.MaxFrames < 0 {
		return errors.Wrapf(ErrInvalidConfig, "max frames %d", c.MaxFrames)
	}
	if c.KeyWait < 0 {
		return errors.Wrapf(ErrInvalidConfig, "key wait %v", c.KeyWait)
	}
	if c.StatusPort < 0 || c.StatusPort > 65535 {
		return errors.Wrapf(ErrInvalidConfig, "status port %d", c.StatusPort)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return errors.Wrapf(ErrInvalidConfig, "log format %q", c.LogFormat)
	}
	if c.NatsURL != "" && c.NatsSubject == "" {
		return errors.Wrap(ErrInvalidConfig, "nats subject is empty")
	}
	return nil
}

// Input resolves the configured frame source.
func (c *Config) Input() (capture.Input, error) {
	return capture.ResolveInput(c.VideoPath, c.ImagePath, c.FramesDir, c.DeviceID)
}

// Detector returns the region extractor settings.
func (c *Config) Detector() detector.Config {
	return detector.Config{MinArea: c.MinArea}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
