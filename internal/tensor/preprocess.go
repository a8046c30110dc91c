package tensor

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"

	"github.com/ironsheep/captcha-tools-mcp/internal/charset"
	imgutil "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
)

// Normalization selects the per-pixel scaling applied before inference.
type Normalization int

const (
	// NormalizeOfficial maps every channel with (v/255 - 0.5) / 0.5.
	NormalizeOfficial Normalization = iota
	// NormalizeCustom uses ImageNet statistics; single-channel input uses the
	// green-channel mean and std.
	NormalizeCustom
)

var (
	customMean = [3]float32{0.485, 0.456, 0.406}
	customStd  = [3]float32{0.229, 0.224, 0.225}
)

// Options are the optional classification preprocessing steps.
type Options struct {
	// Filter, when set, runs on the decoded image before resizing.
	Filter *imgutil.ColorFilter
	// FillTransparent paints fully transparent pixels white before alpha is
	// dropped. Only used for three-channel models.
	FillTransparent bool
}

// Classification decodes data and builds the (1, C, H, W) input for a
// recognition model described by cfg.
func Classification(data []byte, cfg *charset.Config, norm Normalization, opts Options) (Tensor, error) {
	var img image.Image
	var err error
	if opts.Filter != nil {
		img, err = opts.Filter.ApplyBytes(data)
	} else {
		img, err = imgutil.Decode(data)
	}
	if err != nil {
		return Tensor{}, err
	}
	return ClassificationImage(img, cfg, norm, opts.FillTransparent)
}

// ClassificationImage builds a recognition input from an already decoded
// image. Resizing always uses Lanczos-3.
func ClassificationImage(img image.Image, cfg *charset.Config, norm Normalization, fillTransparent bool) (Tensor, error) {
	b := img.Bounds()
	w, h := cfg.TargetSize(b.Dx(), b.Dy())
	resized := imaging.Resize(img, w, h, imaging.Lanczos)

	plane := w * h
	data := make([]float32, cfg.Channel*plane)

	if cfg.Channel == 1 {
		gray := imgutil.Luma(resized)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := float32(gray.Pix[y*gray.Stride+x]) / 255
				data[y*w+x] = normalize(v, 1, norm)
			}
		}
	} else {
		if fillTransparent {
			resized = imgutil.FillTransparent(resized)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p := resized.NRGBAAt(x, y)
				rgb := [3]uint8{p.R, p.G, p.B}
				for c := 0; c < cfg.Channel; c++ {
					data[c*plane+y*w+x] = normalize(float32(rgb[c])/255, c, norm)
				}
			}
		}
	}

	return New([]int64{1, int64(cfg.Channel), int64(h), int64(w)}, data)
}

// normalize scales a 0-1 value. c is the channel index, or 1 for grayscale.
func normalize(v float32, c int, norm Normalization) float32 {
	if norm == NormalizeOfficial {
		return (v - 0.5) / 0.5
	}
	return (v - customMean[c]) / customStd[c]
}

// DetectorSize is the fixed square input side of the text detector.
const DetectorSize = 416

// LetterboxPad is the gray level written into the padding area.
const LetterboxPad = 114

// Letterbox is a detector input together with what is needed to map boxes
// back to the source image.
type Letterbox struct {
	Tensor Tensor
	// Ratio is the scale applied to the source image.
	Ratio float64
	// Width and Height are the source image dimensions.
	Width, Height int
}

// LetterboxImage scales img by min(size/w, size/h) with bilinear filtering,
// places it at the top-left of a size x size canvas padded with LetterboxPad
// and writes raw 0-255 values as a (1, 3, size, size) tensor indexed
// [channel][y][x].
func LetterboxImage(img image.Image, size int) (Letterbox, error) {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()

	ratio := math.Min(float64(size)/float64(srcW), float64(size)/float64(srcH))
	newW := clampDim(int(float64(srcW)*ratio), size)
	newH := clampDim(int(float64(srcH)*ratio), size)

	// nfnt treats a zero dimension as "keep aspect", so both are always set.
	resized := imaging.Clone(resize.Resize(uint(newW), uint(newH), img, resize.Bilinear))

	plane := size * size
	data := make([]float32, 3*plane)
	for i := range data {
		data[i] = LetterboxPad
	}

	rb := resized.Bounds()
	for y := 0; y < rb.Dy() && y < size; y++ {
		for x := 0; x < rb.Dx() && x < size; x++ {
			p := resized.NRGBAAt(rb.Min.X+x, rb.Min.Y+y)
			data[y*size+x] = float32(p.R)
			data[plane+y*size+x] = float32(p.G)
			data[2*plane+y*size+x] = float32(p.B)
		}
	}

	t, err := New([]int64{1, 3, int64(size), int64(size)}, data)
	if err != nil {
		return Letterbox{}, err
	}
	return Letterbox{Tensor: t, Ratio: ratio, Width: srcW, Height: srcH}, nil
}

// Detection decodes data and letterboxes it to DetectorSize.
func Detection(data []byte) (Letterbox, error) {
	img, err := imgutil.Decode(data)
	if err != nil {
		return Letterbox{}, err
	}
	return LetterboxImage(img, DetectorSize)
}

func clampDim(v, max int) int {
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}
