package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder (also used for .rjpg)
	"os"
	"sync"

	_ "golang.org/x/image/tiff" // Register TIFF format decoder
)

// ErrDecodeFailure is returned when the image codec cannot parse a file.
var ErrDecodeFailure = errors.New("failed to decode image")

// Source is a decoded input image together with the metadata that travels
// with it to the saved overlay.
type Source struct {
	// Path is the file the image was read from.
	Path string

	// Image is the decoded raster. The concrete type depends on the file, e.g.
	// *image.YCbCr for color JPEG, *image.Gray for grayscale JPEG and
	// *image.Gray16 for 16-bit TIFF.
	Image image.Image

	// Format is the codec name reported by image.Decode ("jpeg" or "tiff").
	Format string

	// Exif is the raw APP1 Exif payload, or nil when the file carries none.
	// It is never parsed.
	Exif []byte
}

// Load reads and decodes the image at path.
//
// The file is read once; the same bytes feed the decoder and the Exif
// extractor.
//
// # Errors
//
//   - Returns the os error if the file cannot be read
//   - Returns an error wrapping ErrDecodeFailure if the contents are not a
//     valid JPEG or TIFF image
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecodeFailure, path, err)
	}

	return &Source{
		Path:   path,
		Image:  img,
		Format: format,
		Exif:   ExtractExif(data),
	}, nil
}

// ImageCache provides thread-safe caching of decoded sources to avoid
// redundant disk reads when the same file is analyzed repeatedly, e.g. while
// tuning parameters over the MCP server.
//
// Cached sources remain in memory until removed via Evict() or Clear(). Batch
// processing does not use the cache so that a folder is never held in memory
// at once.
type ImageCache struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

// NewImageCache creates an empty cache that is safe for concurrent use.
func NewImageCache() *ImageCache {
	return &ImageCache{
		sources: make(map[string]*Source),
	}
}

// Load returns the cached source for path, loading it from disk on a miss.
//
// The source is cached using the exact path string provided.
func (c *ImageCache) Load(path string) (*Source, error) {
	c.mu.RLock()
	if src, ok := c.sources[path]; ok {
		c.mu.RUnlock()
		return src, nil
	}
	c.mu.RUnlock()

	src, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.sources[path] = src
	c.mu.Unlock()

	return src, nil
}

// Clear removes all sources from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.sources = make(map[string]*Source)
	c.mu.Unlock()
}

// Evict removes the source cached under path. Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.sources, path)
	c.mu.Unlock()
}

// Len returns the number of cached sources.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}
