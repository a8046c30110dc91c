package charset

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is a parsed charset file:
//
//	{"word": false, "image": [-1, 64], "channel": 1, "charset": ["", "a", ...]}
//
// Image holds the target (width, height). A width of -1 means the width follows
// the source aspect ratio, or a square for word models.
type Config struct {
	Word    bool     `json:"word"`
	Image   [2]int   `json:"image"`
	Channel int      `json:"channel"`
	Charset []string `json:"charset"`

	index map[string]int
}

// Parse decodes and validates a charset file.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse charset: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.buildIndex()
	return &cfg, nil
}

// New builds a validated Config from its parts.
func New(word bool, width, height, channel int, symbols []string) (*Config, error) {
	cfg := &Config{
		Word:    word,
		Image:   [2]int{width, height},
		Channel: channel,
		Charset: append([]string(nil), symbols...),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.buildIndex()
	return cfg, nil
}

// Load reads and parses a charset file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read charset: %w", err)
	}
	return Parse(data)
}

func (c *Config) validate() error {
	if c.Image[1] <= 0 {
		return fmt.Errorf("invalid charset: image height must be positive, got %d", c.Image[1])
	}
	if c.Image[0] != -1 && c.Image[0] <= 0 {
		return fmt.Errorf("invalid charset: image width must be -1 or positive, got %d", c.Image[0])
	}
	if c.Channel != 1 && c.Channel != 3 {
		return fmt.Errorf("invalid charset: channel must be 1 or 3, got %d", c.Channel)
	}
	if len(c.Charset) == 0 {
		return fmt.Errorf("invalid charset: symbol list is empty")
	}
	return nil
}

// buildIndex maps each symbol to its first position in the table.
func (c *Config) buildIndex() {
	c.index = make(map[string]int, len(c.Charset))
	for i, s := range c.Charset {
		if _, dup := c.index[s]; !dup {
			c.index[s] = i
		}
	}
}

// Index returns the output column of symbol. Configs built without Parse or
// New fall back to a linear scan.
func (c *Config) Index(symbol string) (int, bool) {
	if c.index == nil {
		for i, s := range c.Charset {
			if s == symbol {
				return i, true
			}
		}
		return 0, false
	}
	i, ok := c.index[symbol]
	return i, ok
}

// TargetSize returns the size a source image of srcW x srcH is resized to
// before inference. Derived widths use integer division.
func (c *Config) TargetSize(srcW, srcH int) (w, h int) {
	h = c.Image[1]
	switch {
	case c.Image[0] != -1:
		return c.Image[0], h
	case c.Word:
		return h, h
	default:
		if srcH <= 0 {
			return h, h
		}
		w = srcW * h / srcH
		if w < 1 {
			w = 1
		}
		return w, h
	}
}
