package slide

import (
	"encoding/json"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
)

const (
	// DiffThreshold is the per-channel difference above which a pixel differs.
	DiffThreshold = 80
	// MinColumnHits is how many differing pixels a column needs to count as the
	// gap edge.
	MinColumnHits = 5
	// gapInset is added to the column where the gap is found.
	gapInset = 2
)

// Point is a gap position, serialized as [x, y].
type Point struct {
	X uint32
	Y uint32
}

func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]uint32{p.X, p.Y})
}

// Compare decodes both images and runs CompareImages.
func Compare(target, background []byte) (Point, error) {
	t, b, err := decodePair(target, background)
	if err != nil {
		return Point{}, err
	}
	return CompareImages(t, b)
}

// CompareImages finds the left edge of the gap by diffing two same-sized
// images.
//
// A pixel differs when any RGB channel differs by more than DiffThreshold.
// Columns are scanned left to right, each top to bottom, with a fresh count
// per column. The first column holding MinColumnHits differing pixels gives
// X = column + 2 and ends the scan.
//
// Y is taken while scanning: on every row where the running count is at least
// MinColumnHits and Y is still 0, Y becomes row - MinColumnHits, floored at 0.
// Because 0 is also the unset value, a hit reached at row 4 or 5 leaves Y free
// to be overwritten a row or two later.
func CompareImages(target, background image.Image) (Point, error) {
	ts, bs := target.Bounds().Size(), background.Bounds().Size()
	if ts != bs {
		return Point{}, errors.NewSizeMismatchError("slide_compare", ts, bs)
	}

	a := imaging.Clone(target)
	b := imaging.Clone(background)

	var p Point
	for x := 0; x < ts.X; x++ {
		count := 0
		for y := 0; y < ts.Y; y++ {
			if differs(a, b, x, y) {
				count++
			}
			if count >= MinColumnHits && p.Y == 0 {
				if y > MinColumnHits {
					p.Y = uint32(y - MinColumnHits)
				}
			}
		}
		if count >= MinColumnHits {
			p.X = uint32(x + gapInset)
			break
		}
	}
	return p, nil
}

func differs(a, b *image.NRGBA, x, y int) bool {
	pa, pb := a.NRGBAAt(x, y), b.NRGBAAt(x, y)
	return absDiff(pa.R, pb.R) > DiffThreshold ||
		absDiff(pa.G, pb.G) > DiffThreshold ||
		absDiff(pa.B, pb.B) > DiffThreshold
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
