// Pass-through photo saving
package io

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"animal-vision-camera/internal/frame"
)

var supportedFormats = []string{".png", ".jpg", ".jpeg"}

// PhotoSaver writes captured frames into a directory. Encoding is delegated
// to OpenCV.
type PhotoSaver struct {
	dir    string
	ext    string
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewPhotoSaver validates the format and creates dir if needed.
func NewPhotoSaver(dir, format string, logger logrus.FieldLogger) (*PhotoSaver, error) {
	ext := "." + strings.TrimPrefix(strings.ToLower(format), ".")
	if !IsSupportedFormat(ext) {
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo directory: %w", err)
	}
	return &PhotoSaver{
		dir:    dir,
		ext:    ext,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Save encodes f and returns the written path.
func (ps *PhotoSaver) Save(f *frame.Frame) (string, error) {
	if err := f.Validate(); err != nil {
		return "", fmt.Errorf("cannot save frame: %w", err)
	}

	path := filepath.Join(ps.dir, ps.FileName())
	ps.logger.WithField("filepath", path).Debug("Saving photo")

	rgba, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC4, packed(f))
	if err != nil {
		return "", fmt.Errorf("wrap frame: %w", err)
	}
	defer rgba.Close()

	bgra := gocv.NewMat()
	defer bgra.Close()
	gocv.CvtColor(rgba, &bgra, gocv.ColorRGBAToBGRA)

	if ok := gocv.IMWrite(path, bgra); !ok {
		return "", fmt.Errorf("failed to save image: %s", path)
	}

	ps.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    f.Width,
		"height":   f.Height,
		"seq":      f.Seq,
	}).Info("Photo saved successfully")
	return path, nil
}

// FileName returns a new unique file name with the saver's extension.
func (ps *PhotoSaver) FileName() string {
	id := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("eyesee_%s_%s%s", ps.now().Format("20060102_150405"), id, ps.ext)
}

// Dir is the directory photos are written to.
func (ps *PhotoSaver) Dir() string { return ps.dir }

// IsSupportedFormat reports whether ext (with leading dot) can be written.
func IsSupportedFormat(ext string) bool {
	ext = strings.ToLower(ext)
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// packed returns the pixels without row padding.
func packed(f *frame.Frame) []byte {
	row := f.Width * frame.BytesPerPixel
	if f.Stride == row {
		return f.Pix[:row*f.Height]
	}
	out := make([]byte, row*f.Height)
	for y := 0; y < f.Height; y++ {
		copy(out[y*row:(y+1)*row], f.Pix[y*f.Stride:y*f.Stride+row])
	}
	return out
}
