package storage

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func encodePNG(t *testing.T, width, height int) *bytes.Buffer {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestLocalImageStorageSave(t *testing.T) {
	dir := t.TempDir()
	store := &LocalImageStorage{Directory: dir}

	path, err := store.Save(encodePNG(t, 20, 10))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasSuffix(path, ".jpg") {
		t.Errorf("stored path = %q, want a .jpg under %q", path, dir)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stored file missing: %v", err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("stored file does not decode: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Errorf("bounds = %v, want 20x10", img.Bounds())
	}
}

func TestLocalImageStorageCapsDimensions(t *testing.T) {
	store := &LocalImageStorage{Directory: t.TempDir()}

	path, err := store.Save(encodePNG(t, 3200, 800))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != maxDimension {
		t.Errorf("width = %d, want %d", img.Bounds().Dx(), maxDimension)
	}
	if img.Bounds().Dy() != maxDimension/4 {
		t.Errorf("height = %d, want aspect ratio preserved (%d)", img.Bounds().Dy(), maxDimension/4)
	}
}

func TestLocalImageStorageRejectsNonImages(t *testing.T) {
	store := &LocalImageStorage{Directory: t.TempDir()}

	_, err := store.Save(strings.NewReader("definitely not an image"))
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("error = %v, want ErrInvalidImage", err)
	}
}

func TestLocalImageStorageDelete(t *testing.T) {
	store := &LocalImageStorage{Directory: t.TempDir()}

	path, err := store.Save(encodePNG(t, 4, 4))
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(path); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present after delete: %v", err)
	}

	// deleting again is the caller's best-effort case, it just errors
	if err := store.Delete(path); err == nil {
		t.Error("expected an error deleting a missing file")
	}
}
