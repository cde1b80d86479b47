// Package dataset loads labelled digit images for training.
//
// It provides:
//   - Decode / DecodeFile: PNG or JPEG image to a normalized 28x28 matrix
//   - Sampler: uniform random image for a requested label
//   - DirSampler: images stored as root/<label>/<file>
//   - IDXSampler: the MNIST IDX binary format (optionally gzipped)
//   - RoundRobin: label order 0, 1, ..., 9, 0, ...
package dataset

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"os"

	"github.com/nfnt/resize"

	"github.com/born-ml/digits/internal/tensor"
)

// ImageSize is the side length of the images the classifier accepts.
const ImageSize = 28

// ErrImageSize is returned when an image is not 28x28 and resizing is off.
var ErrImageSize = errors.New("image is not 28x28")

// DecodeOptions controls how images are turned into matrices.
type DecodeOptions struct {
	// Resize rescales images of any size to 28x28 with Lanczos3
	// resampling instead of rejecting them.
	Resize bool
}

// Decode reads a PNG or JPEG image from r and returns its red channel as a
// 28x28 matrix of values in [0, 1].
func Decode(r io.Reader, opts DecodeOptions) (*tensor.Matrix, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != ImageSize || bounds.Dy() != ImageSize {
		if !opts.Resize {
			return nil, fmt.Errorf("%w: got %dx%d", ErrImageSize, bounds.Dx(), bounds.Dy())
		}
		img = resize.Resize(ImageSize, ImageSize, img, resize.Lanczos3)
		bounds = img.Bounds()
	}

	m := tensor.NewMatrix(ImageSize, ImageSize)
	for y := 0; y < ImageSize; y++ {
		for x := 0; x < ImageSize; x++ {
			// Straight (not alpha-premultiplied) 8-bit red
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			m.Set(y, x, float32(c.R)/255)
		}
	}
	return m, nil
}

// DecodeFile decodes the image at path. Errors carry the path.
func DecodeFile(path string, opts DecodeOptions) (*tensor.Matrix, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	m, err := Decode(file, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
