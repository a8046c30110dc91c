package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
)

// ImageResult contains an image returned to the client as base64 PNG.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// PNGBytes encodes img as PNG.
func PNGBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img as base64 PNG.
func EncodePNG(img image.Image) (*ImageResult, error) {
	data, err := PNGBytes(img)
	if err != nil {
		return nil, err
	}

	return &ImageResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

// CropInclusive extracts the region whose first pixel is (x1,y1) and whose last
// pixel is (x2,y2). The result is re-based to (0,0) and clipped to the image.
func CropInclusive(img image.Image, x1, y1, x2, y2 int) (*image.NRGBA, error) {
	if x2 < x1 || y2 < y1 {
		return nil, fmt.Errorf("invalid crop region (%d,%d)-(%d,%d): x1 must be <= x2, y1 must be <= y2", x1, y1, x2, y2)
	}
	rect := image.Rect(x1, y1, x2+1, y2+1).Intersect(img.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds %v", x1, y1, x2, y2, img.Bounds())
	}
	return imaging.Crop(img, rect), nil
}

// AlphaBounds returns the tightest rectangle (half-open) holding every pixel
// with non-zero alpha. ok is false when the image is fully transparent.
func AlphaBounds(img image.Image) (rect image.Rectangle, ok bool) {
	bounds := img.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// FillTransparent returns a copy of img where fully transparent pixels are
// replaced by opaque white. Partially transparent pixels are left untouched.
func FillTransparent(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	bounds := dst.Bounds()
	white := color.NRGBA{255, 255, 255, 255}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if dst.NRGBAAt(x, y).A == 0 {
				dst.SetNRGBA(x, y, white)
			}
		}
	}
	return dst
}

// Luma converts img to 8-bit luminance with Rec.709 integer weights,
// (2126 R + 7152 G + 722 B) / 10000, ignoring alpha.
func Luma(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	src := imaging.Clone(img)
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			p := src.NRGBAAt(x, y)
			l := (2126*uint32(p.R) + 7152*uint32(p.G) + 722*uint32(p.B)) / 10000
			dst.SetGray(x, y, color.Gray{Y: uint8(l)})
		}
	}
	return dst
}
