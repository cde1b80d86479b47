package dataset

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/born-ml/digits/internal/tensor"
)

// IDX magic numbers.
const (
	idxImageMagic = 2051 // 0x00000803
	idxLabelMagic = 2049 // 0x00000801
)

// idxPrealloc caps the capacity reserved from a header count. Larger files
// grow the slice while reading, so a corrupt count fails at end of data.
const idxPrealloc = 1 << 16

// ErrBadMagic is returned for files that do not start with the expected IDX
// magic number.
var ErrBadMagic = errors.New("invalid IDX magic number")

// IDXSampler samples images from an MNIST IDX image/label file pair held in
// memory.
type IDXSampler struct {
	images  [][]byte
	byLabel [NumLabels][]int
	src     tensor.Source
}

// NewIDXSampler loads imagesPath and labelsPath. Files whose name ends in
// ".gz" are decompressed on the fly.
func NewIDXSampler(imagesPath, labelsPath string, src tensor.Source) (*IDXSampler, error) {
	images, err := readIDXFile(imagesPath, readIDXImages)
	if err != nil {
		return nil, err
	}
	labels, err := readIDXFile(labelsPath, readIDXLabels)
	if err != nil {
		return nil, err
	}
	return newIDXSampler(images, labels, src)
}

func newIDXSampler(images [][]byte, labels []byte, src tensor.Source) (*IDXSampler, error) {
	if len(images) != len(labels) {
		return nil, fmt.Errorf("image count (%d) != label count (%d)", len(images), len(labels))
	}

	s := &IDXSampler{images: images, src: src}
	for i, label := range labels {
		if int(label) >= NumLabels {
			return nil, fmt.Errorf("label out of range [0, 9] at index %d: %d", i, label)
		}
		s.byLabel[label] = append(s.byLabel[label], i)
	}
	for label, indices := range s.byLabel {
		if len(indices) == 0 {
			return nil, fmt.Errorf("no images with label %d", label)
		}
	}
	return s, nil
}

// Sample returns a uniformly chosen image for label, normalized to [0, 1].
func (s *IDXSampler) Sample(label int) (*tensor.Matrix, error) {
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	indices := s.byLabel[label]
	pixels := s.images[indices[s.src.Intn(len(indices))]]

	m := tensor.NewMatrix(ImageSize, ImageSize)
	for i, p := range pixels {
		// Normalize: 0-255 → 0.0-1.0
		m.Data()[i] = float32(p) / 255
	}
	return m, nil
}

// Count returns the number of images for label.
func (s *IDXSampler) Count(label int) int {
	if checkLabel(label) != nil {
		return 0
	}
	return len(s.byLabel[label])
}

func readIDXFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T

	file, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer file.Close()

	var r io.Reader = bufio.NewReader(file)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return zero, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	v, err := read(r)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// readIDXImages reads an MNIST image file in IDX format.
//
// IDX file format for images:
//
//	magic number: 0x00000803 (2051)
//	number of images: 4 bytes
//	number of rows: 4 bytes (28)
//	number of cols: 4 bytes (28)
//	pixel data: unsigned bytes (0-255)
func readIDXImages(r io.Reader) ([][]byte, error) {
	if err := readMagic(r, idxImageMagic); err != nil {
		return nil, err
	}

	var dims [3]uint32
	if err := binary.Read(r, binary.BigEndian, &dims); err != nil {
		return nil, fmt.Errorf("failed to read dimensions: %w", err)
	}
	numImages, numRows, numCols := dims[0], dims[1], dims[2]
	if numRows != ImageSize || numCols != ImageSize {
		return nil, fmt.Errorf("%w: got %dx%d", ErrImageSize, numRows, numCols)
	}

	images := make([][]byte, 0, min(numImages, idxPrealloc))
	for i := uint32(0); i < numImages; i++ {
		img := make([]byte, ImageSize*ImageSize)
		if _, err := io.ReadFull(r, img); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("image count %d exceeds file data (%d complete images): %w",
					numImages, i, io.ErrUnexpectedEOF)
			}
			return nil, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		images = append(images, img)
	}

	return images, nil
}

// readIDXLabels reads an MNIST label file in IDX format.
//
// IDX file format for labels:
//
//	magic number: 0x00000801 (2049)
//	number of labels: 4 bytes
//	label data: unsigned bytes (0-9)
func readIDXLabels(r io.Reader) ([]byte, error) {
	if err := readMagic(r, idxLabelMagic); err != nil {
		return nil, err
	}

	var numLabels uint32
	if err := binary.Read(r, binary.BigEndian, &numLabels); err != nil {
		return nil, fmt.Errorf("failed to read label count: %w", err)
	}

	labels, err := io.ReadAll(io.LimitReader(r, int64(numLabels)))
	if err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	if int64(len(labels)) < int64(numLabels) {
		return nil, fmt.Errorf("label count %d exceeds file data (%d labels): %w",
			numLabels, len(labels), io.ErrUnexpectedEOF)
	}

	return labels, nil
}

func readMagic(r io.Reader, want uint32) error {
	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != want {
		return fmt.Errorf("%w: got %d, want %d", ErrBadMagic, magic, want)
	}
	return nil
}
