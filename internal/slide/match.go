package slide

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
	imgutil "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
)

// Canny thresholds used on both images.
const (
	CannyLow  = 100
	CannyHigh = 200
)

// SlideBBox is where the piece was found in the background.
//
// TargetX and TargetY are the top-left of the opaque part of the piece image;
// X1..Y2 is the match in background pixels, with X2 = X1 + piece width.
type SlideBBox struct {
	TargetX uint32 `json:"target_x"`
	TargetY uint32 `json:"target_y"`
	X1      uint32 `json:"x1"`
	Y1      uint32 `json:"y1"`
	X2      uint32 `json:"x2"`
	Y2      uint32 `json:"y2"`
}

// Match decodes both images and runs MatchImages.
func Match(target, background []byte) (*SlideBBox, error) {
	t, b, err := decodePair(target, background)
	if err != nil {
		return nil, err
	}
	return MatchImages(t, b)
}

// SimpleMatch decodes both images and runs SimpleMatchImages.
func SimpleMatch(target, background []byte) (*SlideBBox, error) {
	t, b, err := decodePair(target, background)
	if err != nil {
		return nil, err
	}
	return SimpleMatchImages(t, b)
}

// MatchImages crops the piece to its non-transparent pixels before matching.
// A fully transparent piece is matched whole, with a zero offset.
func MatchImages(target, background image.Image) (*SlideBBox, error) {
	if err := checkFits("slide_match", target, background); err != nil {
		return nil, err
	}

	piece := target
	var offset image.Point
	if rect, ok := imgutil.AlphaBounds(target); ok {
		cropped, err := imgutil.CropInclusive(target, rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1)
		if err != nil {
			return nil, err
		}
		piece = cropped
		offset = rect.Min.Sub(target.Bounds().Min)
	}

	box := match(piece, background)
	box.TargetX = uint32(offset.X)
	box.TargetY = uint32(offset.Y)
	return box, nil
}

// SimpleMatchImages matches the whole piece image. Use it when the piece has
// little or no transparent margin.
func SimpleMatchImages(target, background image.Image) (*SlideBBox, error) {
	if err := checkFits("simple_slide_match", target, background); err != nil {
		return nil, err
	}
	return match(target, background), nil
}

func match(piece, background image.Image) *SlideBBox {
	tpl := imgutil.Canny(piece, CannyLow, CannyHigh)
	bg := imgutil.Canny(background, CannyLow, CannyHigh)

	loc, _ := MatchTemplate(bg, tpl)
	tw, th := tpl.Bounds().Dx(), tpl.Bounds().Dy()
	return &SlideBBox{
		X1: uint32(loc.X),
		Y1: uint32(loc.Y),
		X2: uint32(loc.X + tw),
		Y2: uint32(loc.Y + th),
	}
}

// MatchTemplate slides tpl over img and returns the top-left position with the
// highest normalized cross-correlation
//
//	Σ I·T / sqrt(Σ I² · Σ T²)
//
// and that score. Positions where the denominator is zero score 0. Ties go to
// the first position in row-major order. tpl must fit inside img.
func MatchTemplate(img, tpl *image.Gray) (image.Point, float64) {
	iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
	tw, th := tpl.Bounds().Dx(), tpl.Bounds().Dy()
	if tw == 0 || th == 0 || tw > iw || th > ih {
		return image.Point{}, 0
	}

	imgRows := grayRows(img)
	tplRows := grayRows(tpl)

	var tplEnergy float64
	for _, row := range tplRows {
		tplEnergy += floats.Dot(row, row)
	}
	energy := squaredIntegral(imgRows, iw, ih)

	best := math.Inf(-1)
	var loc image.Point
	for y := 0; y+th <= ih; y++ {
		for x := 0; x+tw <= iw; x++ {
			var cross float64
			for ty, row := range tplRows {
				cross += floats.Dot(row, imgRows[y+ty][x:x+tw])
			}

			window := energy[y+th][x+tw] - energy[y][x+tw] - energy[y+th][x] + energy[y][x]
			var score float64
			if denom := math.Sqrt(window * tplEnergy); denom > 0 {
				score = cross / denom
			}
			if score > best {
				best = score
				loc = image.Pt(x, y)
			}
		}
	}
	return loc, best
}

func grayRows(g *image.Gray) [][]float64 {
	b := g.Bounds()
	rows := make([][]float64, b.Dy())
	for y := range rows {
		rows[y] = make([]float64, b.Dx())
		off := (y+b.Min.Y-g.Rect.Min.Y)*g.Stride + (b.Min.X - g.Rect.Min.X)
		for x := range rows[y] {
			rows[y][x] = float64(g.Pix[off+x])
		}
	}
	return rows
}

// squaredIntegral returns the (h+1) x (w+1) summed-area table of v².
// Values are exact integers well within float64 precision.
func squaredIntegral(rows [][]float64, w, h int) [][]float64 {
	s := make([][]float64, h+1)
	s[0] = make([]float64, w+1)
	for y := 0; y < h; y++ {
		s[y+1] = make([]float64, w+1)
		var run float64
		for x := 0; x < w; x++ {
			run += rows[y][x] * rows[y][x]
			s[y+1][x+1] = s[y][x+1] + run
		}
	}
	return s
}

// checkFits requires background to be at least as large as target.
func checkFits(op string, target, background image.Image) error {
	ts, bs := target.Bounds().Size(), background.Bounds().Size()
	if bs.X < ts.X || bs.Y < ts.Y {
		return errors.NewSizeMismatchError(op, ts, bs)
	}
	return nil
}

func decodePair(a, b []byte) (image.Image, image.Image, error) {
	first, err := imgutil.Decode(a)
	if err != nil {
		return nil, nil, err
	}
	second, err := imgutil.Decode(b)
	if err != nil {
		return nil, nil, err
	}
	return first, second, nil
}
