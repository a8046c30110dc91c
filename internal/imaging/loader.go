package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
)

// ImageCache provides thread-safe caching of image file contents to avoid redundant disk reads.
//
// The cache stores the raw encoded bytes keyed by file path rather than decoded
// pixels: every pipeline stage starts from bytes (model identity hashing, color
// filtering, preprocessing), and encoded files are far smaller than their
// decoded buffers.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached files remain in memory until explicitly removed via Evict() or Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	data, err := cache.Load("/path/to/captcha.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	img, err := imaging.Decode(data)
type ImageCache struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		files: make(map[string][]byte),
	}
}

// Load returns the contents of the file at path, reading it from disk on the
// first request only.
//
// The returned slice is shared with the cache and must not be modified.
// Different paths to the same file (e.g., relative vs absolute) result in
// separate cache entries.
func (c *ImageCache) Load(path string) ([]byte, error) {
	c.mu.RLock()
	if data, ok := c.files[path]; ok {
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	c.mu.Lock()
	c.files[path] = data
	c.mu.Unlock()

	return data, nil
}

// Clear removes all files from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.files = make(map[string][]byte)
	c.mu.Unlock()
}

// Evict removes a specific file from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.files, path)
	c.mu.Unlock()
}

// Len reports the number of cached files.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// Decode decodes image bytes in any registered format (PNG, JPEG, GIF, BMP,
// TIFF, WebP). Failures are reported as IMAGE_DECODE errors.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.NewImageDecodeError(fmt.Errorf("empty input"))
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewImageDecodeError(err)
	}
	return img, nil
}

// DecodeBase64 decodes a base64 image payload. A leading data URI header such
// as "data:image/png;base64," is stripped first.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if i := strings.IndexByte(s, ','); i >= 0 {
			s = s[i+1:]
		}
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.NewImageDecodeError(fmt.Errorf("invalid base64: %w", err))
	}
	return data, nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// GetDimensions reads only the image header to report its size.
func GetDimensions(data []byte) (*DimensionsResult, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewImageDecodeError(err)
	}
	return &DimensionsResult{Width: cfg.Width, Height: cfg.Height}, nil
}
