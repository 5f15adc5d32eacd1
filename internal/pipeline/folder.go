package pipeline

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
)

// ErrNoImages is returned when a folder holds no supported images.
var ErrNoImages = errors.New("no supported images found")

// FileError ties a per-file failure to its path.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// DiscoverImages lists the supported regular files directly inside dir, in
// lexicographic order. Subdirectories are not searched.
func DiscoverImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder: %w", err)
	}

	// os.ReadDir sorts by file name.
	var paths []string
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !SupportedFile(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ProcessFolder yields one result per supported image in dir, in
// lexicographic order. Images are decoded one at a time as iteration
// proceeds, so at most one is held in memory by the iterator.
//
// The configuration is snapshotted when iteration starts. A failing image is
// yielded as a *FileError with a nil result and iteration continues with the
// next file. If dir cannot be read, a single error is yielded. Breaking out
// of the loop stops processing.
func (p *Processor) ProcessFolder(dir string) iter.Seq2[*Result, error] {
	return func(yield func(*Result, error) bool) {
		paths, err := DiscoverImages(dir)
		if err != nil {
			yield(nil, err)
			return
		}

		cfg := p.Config()
		for _, path := range paths {
			res, err := p.processImage(path, cfg)
			if err != nil {
				err = &FileError{Path: path, Err: err}
			}
			if !yield(res, err) {
				return
			}
		}
	}
}
