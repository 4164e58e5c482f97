package io

import (
	"path/filepath"
	"regexp"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"animal-vision-camera/internal/frame"
)

func TestIsSupportedFormat(t *testing.T) {
	tests := map[string]bool{
		".png":  true,
		".PNG":  true,
		".jpg":  true,
		".jpeg": true,
		".gif":  false,
		"png":   false,
		"":      false,
	}
	for ext, want := range tests {
		if got := IsSupportedFormat(ext); got != want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", ext, got, want)
		}
	}
}

func TestNewPhotoSaver(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	dir := filepath.Join(t.TempDir(), "nested", "photos")

	ps, err := NewPhotoSaver(dir, "JPG", logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps.Dir() != dir || ps.ext != ".jpg" {
		t.Fatalf("dir %q ext %q", ps.Dir(), ps.ext)
	}

	if _, err := NewPhotoSaver(dir, "bmp", logger); err == nil {
		t.Fatal("expected an error for an unsupported format")
	}
}

func TestFileName(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	ps, err := NewPhotoSaver(t.TempDir(), ".png", logger)
	if err != nil {
		t.Fatal(err)
	}
	ps.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }

	a, b := ps.FileName(), ps.FileName()
	pattern := regexp.MustCompile(`^eyesee_20240309_140507_[0-9a-f]{8}\.png$`)
	if !pattern.MatchString(a) {
		t.Fatalf("unexpected name %q", a)
	}
	if a == b {
		t.Fatal("names within the same second collide")
	}
}

func TestSaveRejectsInvalidFrame(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	ps, err := NewPhotoSaver(t.TempDir(), "png", logger)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ps.Save(&frame.Frame{Width: 2, Height: 2, Stride: 8}); err == nil {
		t.Fatal("expected an error for an empty buffer")
	}
}

func TestPacked(t *testing.T) {
	f := &frame.Frame{
		Pix:    []byte{1, 2, 3, 4, 0, 0, 5, 6, 7, 8, 0, 0},
		Width:  1,
		Height: 2,
		Stride: 6,
	}
	got := packed(f)
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if string(got) != string(want) {
		t.Fatalf("packed = %v, want %v", got, want)
	}
}
