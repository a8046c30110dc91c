package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// HSV is a color in 8-bit OpenCV layout: hue 0-180, saturation and value 0-255.
type HSV struct {
	H uint8 `json:"h"`
	S uint8 `json:"s"`
	V uint8 `json:"v"`
}

// HSVRange is an inclusive box in HSV space.
type HSVRange struct {
	Min HSV `json:"min"`
	Max HSV `json:"max"`
}

// Contains reports whether every channel of c lies within the box bounds.
func (r HSVRange) Contains(c HSV) bool {
	return c.H >= r.Min.H && c.H <= r.Max.H &&
		c.S >= r.Min.S && c.S <= r.Max.S &&
		c.V >= r.Min.V && c.V <= r.Max.V
}

func hsvRange(h1, s1, v1, h2, s2, v2 uint8) HSVRange {
	return HSVRange{Min: HSV{h1, s1, v1}, Max: HSV{h2, s2, v2}}
}

// Color is a named color with a fixed set of HSV boxes.
type Color int

const (
	Red Color = iota
	Blue
	Green
	Yellow
	Orange
	Purple
	Cyan
	Black
	White
	Gray
)

var colorNames = map[string]Color{
	"red":    Red,
	"blue":   Blue,
	"green":  Green,
	"yellow": Yellow,
	"orange": Orange,
	"purple": Purple,
	"cyan":   Cyan,
	"black":  Black,
	"white":  White,
	"gray":   Gray,
}

// ParseColor looks up a named color, ignoring case.
func ParseColor(name string) (Color, error) {
	c, ok := colorNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown color: %s", name)
	}
	return c, nil
}

func (c Color) String() string {
	for name, v := range colorNames {
		if v == c {
			return name
		}
	}
	return fmt.Sprintf("Color(%d)", int(c))
}

// Ranges returns the HSV boxes for the color. Red wraps around hue 0 and
// therefore has two boxes.
func (c Color) Ranges() []HSVRange {
	switch c {
	case Red:
		return []HSVRange{
			hsvRange(0, 50, 50, 10, 255, 255),
			hsvRange(170, 50, 50, 180, 255, 255),
		}
	case Blue:
		return []HSVRange{hsvRange(100, 50, 50, 140, 255, 255)}
	case Green:
		return []HSVRange{hsvRange(40, 50, 50, 80, 255, 255)}
	case Yellow:
		return []HSVRange{hsvRange(20, 50, 50, 40, 255, 255)}
	case Orange:
		return []HSVRange{hsvRange(10, 50, 50, 20, 255, 255)}
	case Purple:
		return []HSVRange{hsvRange(140, 50, 50, 170, 255, 255)}
	case Cyan:
		return []HSVRange{hsvRange(80, 50, 50, 100, 255, 255)}
	case Black:
		return []HSVRange{hsvRange(0, 0, 0, 180, 255, 30)}
	case White:
		return []HSVRange{hsvRange(0, 0, 200, 180, 30, 255)}
	case Gray:
		return []HSVRange{hsvRange(0, 0, 30, 180, 30, 200)}
	}
	return nil
}

// RGBToHSV converts 8-bit RGB to 8-bit OpenCV-style HSV.
//
// Hue degrees are halved and rounded (capped at 180); saturation and value are
// scaled from 0-1 to 0-255 and rounded.
func RGBToHSV(r, g, b uint8) HSV {
	h, s, v := colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}.Hsv()

	return HSV{
		H: uint8(math.Min(math.Round(h/2.0), 180)),
		S: uint8(math.Min(math.Round(s*255.0), 255)),
		V: uint8(math.Min(math.Round(v*255.0), 255)),
	}
}

type filterKind int

const (
	filterRanges filterKind = iota
	filterColors
	filterColor
)

// ColorFilter keeps the pixels whose HSV value falls inside any configured box
// and paints everything else white.
//
// A filter is built from explicit HSV ranges, a list of named colors, or a
// single named color. The zero value keeps nothing.
type ColorFilter struct {
	kind   filterKind
	ranges []HSVRange
	colors []Color
}

// FilterFromRanges builds a filter from explicit HSV boxes.
func FilterFromRanges(ranges []HSVRange) ColorFilter {
	return ColorFilter{kind: filterRanges, ranges: append([]HSVRange(nil), ranges...)}
}

// FilterFromColors builds a filter keeping any of the named colors.
func FilterFromColors(colors []Color) ColorFilter {
	return ColorFilter{kind: filterColors, colors: append([]Color(nil), colors...)}
}

// FilterFromColor builds a filter keeping a single named color.
func FilterFromColor(c Color) ColorFilter {
	return ColorFilter{kind: filterColor, colors: []Color{c}}
}

// FilterFromNames parses color names and builds a filter for them.
func FilterFromNames(names []string) (ColorFilter, error) {
	colors := make([]Color, 0, len(names))
	for _, name := range names {
		c, err := ParseColor(name)
		if err != nil {
			return ColorFilter{}, err
		}
		colors = append(colors, c)
	}
	if len(colors) == 1 {
		return FilterFromColor(colors[0]), nil
	}
	return FilterFromColors(colors), nil
}

// Ranges returns the union of HSV boxes the filter tests against.
func (f ColorFilter) Ranges() []HSVRange {
	if f.kind == filterRanges {
		return f.ranges
	}
	var out []HSVRange
	for _, c := range f.colors {
		out = append(out, c.Ranges()...)
	}
	return out
}

// Apply returns an opaque copy of img where kept pixels retain their RGB and
// all other pixels are white.
func (f ColorFilter) Apply(img image.Image) *image.NRGBA {
	ranges := f.Ranges()
	src := imaging.Clone(img)
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)

	white := color.NRGBA{255, 255, 255, 255}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p := src.NRGBAAt(x, y)
			hsv := RGBToHSV(p.R, p.G, p.B)

			kept := false
			for _, r := range ranges {
				if r.Contains(hsv) {
					kept = true
					break
				}
			}

			if kept {
				dst.SetNRGBA(x, y, color.NRGBA{p.R, p.G, p.B, 255})
			} else {
				dst.SetNRGBA(x, y, white)
			}
		}
	}
	return dst
}

// ApplyBytes decodes data and applies the filter.
func (f ColorFilter) ApplyBytes(data []byte) (*image.NRGBA, error) {
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return f.Apply(img), nil
}
