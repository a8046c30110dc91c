package ocr

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// DefaultLanguage is used when Options.Language is empty.
const DefaultLanguage = "eng"

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("tesseract unavailable: built without cgo")

// Options tune a recognition call.
type Options struct {
	// Language is a Tesseract language code such as "eng".
	Language string
	// Whitelist limits the characters Tesseract may emit. Empty allows all.
	Whitelist string
}

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// TextRegion is a recognized word with its location and confidence.
type TextRegion struct {
	Text string `json:"text"`

	// Confidence is Tesseract's score scaled to 0-1.
	Confidence float64 `json:"confidence"`

	Bounds Bounds `json:"bounds"`
}

// Result is the outcome of one recognition.
type Result struct {
	// Text is the recognized line with surrounding whitespace trimmed.
	Text string `json:"text"`

	// Regions may be empty when word boxes are unavailable.
	Regions []TextRegion `json:"regions"`
}

// Whitelist joins the single-character symbols, skipping duplicates,
// multi-character symbols and the empty blank.
func Whitelist(symbols []string) string {
	var sb strings.Builder
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if utf8.RuneCountInString(s) != 1 {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		sb.WriteString(s)
	}
	return sb.String()
}
