package capture

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func solidFrame(value float64) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, value, 0), 8, 8, gocv.MatTypeCV8UC3)
}

// writeFrame stores a lossless frame whose red channel is value.
func writeFrame(t *testing.T, path string, value float64) {
	t.Helper()
	frame := solidFrame(value)
	defer frame.Close()
	require.True(t, gocv.IMWrite(path, frame))
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestResolveInput(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	image := filepath.Join(dir, "still.png")
	text := filepath.Join(dir, "notes.txt")
	touch(t, video)
	touch(t, image)
	touch(t, text)

	tests := []struct {
		name     string
		video    string
		image    string
		frames   string
		device   int
		expected Input
		wantErr  bool
	}{
		{"Camera by default", "", "", "", 2, Input{Kind: InputCamera, DeviceID: 2}, false},
		{"Video", video, "", "", 0, Input{Kind: InputVideo, Path: video}, false},
		{"Image", "", image, "", 0, Input{Kind: InputImage, Path: image}, false},
		{"Frames", "", "", dir, 0, Input{Kind: InputFrames, Path: dir}, false},
		{"Video and image", video, image, "", 0, Input{}, true},
		{"Wrong video extension", text, "", "", 0, Input{}, true},
		{"Image as video", image, "", "", 0, Input{}, true},
		{"Missing video", filepath.Join(dir, "missing.mp4"), "", "", 0, Input{}, true},
		{"Frames is a file", "", "", image, 0, Input{}, true},
		{"Negative device", "", "", "", -1, Input{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveInput(tt.video, tt.image, tt.frames, tt.device)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrUnsupportedInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestInputKind_String(t *testing.T) {
	assert.Equal(t, "camera", InputCamera.String())
	assert.Equal(t, "frames", InputFrames.String())
	assert.Equal(t, "InputKind(9)", InputKind(9).String())
}

func TestImageSequence_Order(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, filepath.Join(dir, "frame-10.png"), 30)
	writeFrame(t, filepath.Join(dir, "frame-2.png"), 20)
	writeFrame(t, filepath.Join(dir, "frame-1.png"), 10)

	src, err := Open(Input{Kind: InputFrames, Path: dir})
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, dir, src.Name())

	frame := gocv.NewMat()
	defer frame.Close()

	var reds []uint8
	for {
		err := src.Read(&frame)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Equal(t, gocv.MatTypeCV8UC3, frame.Type())
		reds = append(reds, frame.GetVecbAt(0, 0)[2])
	}
	assert.Equal(t, []uint8{10, 20, 30}, reds)

	// Reading past the end keeps returning io.EOF.
	assert.Equal(t, io.EOF, src.Read(&frame))
}

func TestImageSequence_UndecodableEndsStream(t *testing.T) {
	dir := t.TempDir()
	writeFrame(t, filepath.Join(dir, "frame-1.png"), 10)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame-2.png"), []byte("not an image"), 0o644))
	writeFrame(t, filepath.Join(dir, "frame-3.png"), 30)

	src, err := OpenImageSequence(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Len())

	frame := gocv.NewMat()
	defer frame.Close()
	require.NoError(t, src.Read(&frame))
	assert.Equal(t, io.EOF, src.Read(&frame))
}

func TestOpenImageSequence_Empty(t *testing.T) {
	_, err := OpenImageSequence(t.TempDir())
	assert.True(t, errors.Is(err, ErrUnsupportedInput))
}

func TestOpenImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "still.png")
	writeFrame(t, path, 200)

	src, err := OpenImage(path)
	require.NoError(t, err)
	defer src.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	require.NoError(t, src.Read(&frame))
	assert.Equal(t, uint8(200), frame.GetVecbAt(4, 4)[2])
	assert.Equal(t, io.EOF, src.Read(&frame))

	_, err = OpenImage(filepath.Join(t.TempDir(), "clip.mp4"))
	assert.True(t, errors.Is(err, ErrUnsupportedInput))
}

func TestOpenVideo_Missing(t *testing.T) {
	_, err := OpenVideo(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.Error(t, err)
}

func TestOpen_UnknownKind(t *testing.T) {
	_, err := Open(Input{Kind: InputKind(42)})
	assert.True(t, errors.Is(err, ErrUnsupportedInput))
}

func TestMatSource(t *testing.T) {
	src := NewMatSource(solidFrame(1), solidFrame(2))

	frame := gocv.NewMat()
	defer frame.Close()

	require.NoError(t, src.Read(&frame))
	assert.Equal(t, uint8(1), frame.GetVecbAt(0, 0)[2])
	require.NoError(t, src.Read(&frame))
	assert.Equal(t, uint8(2), frame.GetVecbAt(0, 0)[2])
	assert.Equal(t, io.EOF, src.Read(&frame))

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	assert.Equal(t, 2, src.Closed())
	assert.Equal(t, "memory", src.Name())
}
