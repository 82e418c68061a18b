package camera

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileSource replays images from disk. Path may name a single image or a
// directory whose images are returned in lexical order, wrapping around.
type FileSource struct {
	cfg   Config
	files []string

	mu     sync.Mutex
	next   int
	closed bool
}

// NewFileSource lists the images under cfg.Path.
func NewFileSource(cfg Config) (*FileSource, error) {
	info, err := os.Stat(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("camera: %w", err)
	}

	var files []string
	if !info.IsDir() {
		files = []string{cfg.Path}
	} else {
		entries, err := os.ReadDir(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("camera: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && isImage(e.Name()) {
				files = append(files, filepath.Join(cfg.Path, e.Name()))
			}
		}
		sort.Strings(files)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("camera: no images in %s", cfg.Path)
	}

	return &FileSource{cfg: cfg, files: files}, nil
}

// Capture returns the next image.
func (f *FileSource) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Frame{}, ErrClosed
	}
	path := f.files[f.next]
	f.next = (f.next + 1) % len(f.files)
	f.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("camera: %w", err)
	}
	return Reduce(data, f.cfg.MaxWidth, f.cfg.Quality)
}

// Close marks the source closed.
func (f *FileSource) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

var _ Source = (*FileSource)(nil)
