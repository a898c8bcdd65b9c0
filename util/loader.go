package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ImageExtensions are the still image formats accepted for frame sequences.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file. Empty until loaded.
	Data []byte
	// Frame is the frame number of the image file.
	Frame int
}

// HasExtension reports whether path ends in one of exts, ignoring case.
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// ListDirectoryImageFiles lists the frames of a directory without reading them.
//
// Files must be named "frame-<n>.<ext>" (or just "<n>.<ext>"); they are
// returned ordered by n. Subdirectories and files with other extensions are
// skipped.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile with Path and Frame set.
// - error: Error if the directory cannot be read or a name has no frame number.
func ListDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read frame directory %s", dir)
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() || !HasExtension(file.Name(), ImageExtensions) {
			continue
		}

		ext := filepath.Ext(file.Name())
		frame, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(file.Name(), "frame-"), ext))
		if err != nil {
			return nil, errors.Wrapf(err, "frame number of %s", file.Name())
		}
		images = append(images, ImageFile{
			Path:  filepath.Join(dir, file.Name()),
			Frame: frame,
		})
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Frame < images[j].Frame
	})

	return images, nil
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	images, err := ListDirectoryImageFiles(dir)
	if err != nil {
		return nil, err
	}

	for i := range images {
		if err := images[i].Load(); err != nil {
			return nil, err
		}
	}

	return images, nil
}

// Load reads the file contents into Data.
func (f *ImageFile) Load() error {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return errors.Wrapf(err, "read frame %s", f.Path)
	}
	f.Data = data
	return nil
}
