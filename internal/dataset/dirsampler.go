package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/born-ml/digits/internal/tensor"
)

// DirSampler samples images from a tree with one subdirectory per label:
//
//	root/0/*.png
//	root/1/*.png
//	...
//	root/9/*.png
//
// Files are indexed once, at construction. Every file in a label directory
// is expected to be a decodable image.
type DirSampler struct {
	root  string
	files [NumLabels][]string
	src   tensor.Source
	opts  DecodeOptions
}

// NewDirSampler indexes root. A missing or empty label directory is an error.
func NewDirSampler(root string, src tensor.Source, opts DecodeOptions) (*DirSampler, error) {
	s := &DirSampler{root: root, src: src, opts: opts}

	for label := 0; label < NumLabels; label++ {
		dir := filepath.Join(root, strconv.Itoa(label))
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("index label %d: %w", label, err)
		}

		var files []string
		for _, entry := range entries {
			if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
				continue
			}
			files = append(files, filepath.Join(dir, entry.Name()))
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("index label %d: no images in %s", label, dir)
		}

		sort.Strings(files)
		s.files[label] = files
	}

	return s, nil
}

// Sample decodes a uniformly chosen image for label.
func (s *DirSampler) Sample(label int) (*tensor.Matrix, error) {
	if err := checkLabel(label); err != nil {
		return nil, err
	}
	files := s.files[label]
	return DecodeFile(files[s.src.Intn(len(files))], s.opts)
}

// Count returns the number of indexed images for label.
func (s *DirSampler) Count(label int) int {
	if checkLabel(label) != nil {
		return 0
	}
	return len(s.files[label])
}

// Root returns the indexed directory.
func (s *DirSampler) Root() string {
	return s.root
}
