package detection

import (
	"encoding/json"
	"fmt"
	"image"
)

// BBox is an inclusive pixel rectangle: (X1,Y1) and (X2,Y2) are both covered.
//
// It serializes as the array [x1, y1, x2, y2].
type BBox struct {
	X1 uint32
	Y1 uint32
	X2 uint32
	Y2 uint32
}

// Width is the number of columns covered.
func (b BBox) Width() int {
	return int(b.X2) - int(b.X1) + 1
}

// Height is the number of rows covered.
func (b BBox) Height() int {
	return int(b.Y2) - int(b.Y1) + 1
}

// Rect converts to a half-open image.Rectangle.
func (b BBox) Rect() image.Rectangle {
	return image.Rect(int(b.X1), int(b.Y1), int(b.X2)+1, int(b.Y2)+1)
}

// Valid reports whether the corners are ordered.
func (b BBox) Valid() bool {
	return b.X1 <= b.X2 && b.Y1 <= b.Y2
}

func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]uint32{b.X1, b.Y1, b.X2, b.Y2})
}

func (b *BBox) UnmarshalJSON(data []byte) error {
	var v [4]uint32
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("bbox must be [x1, y1, x2, y2]: %w", err)
	}
	box := BBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
	if !box.Valid() {
		return fmt.Errorf("invalid bbox %v: x1 must be <= x2, y1 must be <= y2", v)
	}
	*b = box
	return nil
}

// Rects converts a list of boxes for drawing.
func Rects(boxes []BBox) []image.Rectangle {
	out := make([]image.Rectangle, len(boxes))
	for i, b := range boxes {
		out[i] = b.Rect()
	}
	return out
}
