package config

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/redscan/capture"
	"github.com/nvr-ai/redscan/images"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, images.DefaultMaskConfig(), cfg.Mask)
	assert.Equal(t, 324.0, cfg.MinArea)
	assert.True(t, cfg.ShowWindow)
	assert.Equal(t, 16*time.Millisecond, cfg.KeyWait)
	assert.Zero(t, cfg.MaxFrames)
	assert.Zero(t, cfg.StatusPort)
	assert.Equal(t, "redscan.detections", cfg.NatsSubject)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("RED_LOW_LOWER", "0,100,50")
	t.Setenv("RED_HIGH_UPPER", "179,250,250")
	t.Setenv("KERNEL_SIZE", "7")
	t.Setenv("MIN_AREA", "500")
	t.Setenv("SHOW_WINDOW", "false")
	t.Setenv("KEY_WAIT", "30ms")
	t.Setenv("STATUS_PORT", "9090")
	t.Setenv("NATS_URL", "nats://localhost:4222")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, images.HSV{H: 0, S: 100, V: 50}, cfg.Mask.Low.Lower)
	assert.Equal(t, images.HSV{H: 10, S: 255, V: 255}, cfg.Mask.Low.Upper)
	assert.Equal(t, images.HSV{H: 179, S: 250, V: 250}, cfg.Mask.High.Upper)
	assert.Equal(t, 7, cfg.Mask.KernelSize)
	assert.Equal(t, 500.0, cfg.Detector().MinArea)
	assert.False(t, cfg.ShowWindow)
	assert.Equal(t, 30*time.Millisecond, cfg.KeyWait)
	assert.Equal(t, 9090, cfg.StatusPort)
	assert.Equal(t, "nats://localhost:4222", cfg.NatsURL)
}

func TestLoad_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("MIN_AREA", "500")
	t.Setenv("SHOW_WINDOW", "true")

	cfg, err := Load([]string{"-min-area", "100", "-show-window=false", "-kernel", "9", "-max-frames", "25", "-device", "1"})
	require.NoError(t, err)

	assert.Equal(t, 100.0, cfg.MinArea)
	assert.False(t, cfg.ShowWindow)
	assert.Equal(t, 9, cfg.Mask.KernelSize)
	assert.Equal(t, 25, cfg.MaxFrames)

	in, err := cfg.Input()
	require.NoError(t, err)
	assert.Equal(t, capture.Input{Kind: capture.InputCamera, DeviceID: 1}, in)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("Bad threshold tuple", func(t *testing.T) {
		t.Setenv("RED_HIGH_LOWER", "170,64")
		_, err := Load(nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, images.ErrInvalidRange))
	})

	t.Run("Unknown flag", func(t *testing.T) {
		_, err := Load([]string{"-onnx-model", "yolo.onnx"})
		assert.Error(t, err)
	})
}

func TestLoad_UnparsableValuesFallBack(t *testing.T) {
	t.Setenv("MAX_FRAMES", "many")
	t.Setenv("KEY_WAIT", "soon")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Zero(t, cfg.MaxFrames)
	assert.Equal(t, 16*time.Millisecond, cfg.KeyWait)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"Inverted range", func(c *Config) { c.Mask.Low.Lower.H = 50 }},
		{"Zero kernel", func(c *Config) { c.Mask.KernelSize = 0 }},
		{"Negative min area", func(c *Config) { c.MinArea = -1 }},
		{"Negative max frames", func(c *Config) { c.MaxFrames = -3 }},
		{"Negative key wait", func(c *Config) { c.KeyWait = -time.Millisecond }},
		{"Port out of range", func(c *Config) { c.StatusPort = 70000 }},
		{"Unknown log format", func(c *Config) { c.LogFormat = "xml" }},
		{"NATS without subject", func(c *Config) { c.NatsURL = "nats://x"; c.NatsSubject = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(nil)
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
