package storage

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
)

// maxDimension caps the longest side of a stored image.
const maxDimension = 1600

// ErrInvalidImage means the uploaded bytes do not decode as an image.
var ErrInvalidImage = errors.New("invalid image data")

type ImageStorage interface {
	Save(r io.Reader) (string, error)
	Delete(path string) error
}

type LocalImageStorage struct {
	Directory string
}

// Save decodes the uploaded image, applies its EXIF orientation, caps its
// size and writes it as JPEG under a generated name. Returns the stored
// file path.
func (s *LocalImageStorage) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		if tag, err := x.Get(exif.Orientation); err == nil {
			if orientation, err := tag.Int(0); err == nil {
				img = applyOrientation(img, orientation)
			}
		}
	}

	bounds := img.Bounds()
	if bounds.Dx() > maxDimension || bounds.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}

	if err := os.MkdirAll(s.Directory, 0o755); err != nil {
		return "", err
	}

	filePath := filepath.Join(s.Directory, uuid.New().String()+".jpg")
	if err := imaging.Save(img, filePath, imaging.JPEGQuality(90)); err != nil {
		return "", err
	}

	return filePath, nil
}

func (s *LocalImageStorage) Delete(path string) error {
	return os.Remove(path)
}

func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
