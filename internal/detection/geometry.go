package detection

import "fmt"

// InputSize is the square input resolution of the text detector.
const InputSize = 416

// DefaultStrides are the detector's feature strides, in output order.
var DefaultStrides = []int{8, 16, 32}

// Geometry maps each flattened prediction index to its grid cell and stride.
// It depends only on the input size and is immutable once built.
type Geometry struct {
	Width   int
	Height  int
	Strides []int

	gridX  []float64
	gridY  []float64
	stride []float64
}

// NewGeometry builds the cell table. For each stride the feature map is
// height/s rows by width/s columns, flattened row by row, and strides are
// concatenated in the order given.
func NewGeometry(width, height int, strides []int) (*Geometry, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid detector input size %dx%d", width, height)
	}
	if len(strides) == 0 {
		return nil, fmt.Errorf("detector needs at least one stride")
	}

	g := &Geometry{
		Width:   width,
		Height:  height,
		Strides: append([]int(nil), strides...),
	}
	for _, s := range strides {
		if s <= 0 {
			return nil, fmt.Errorf("invalid detector stride %d", s)
		}
		rows, cols := height/s, width/s
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				g.gridX = append(g.gridX, float64(x))
				g.gridY = append(g.gridY, float64(y))
				g.stride = append(g.stride, float64(s))
			}
		}
	}
	return g, nil
}

// DefaultGeometry is the table for the bundled 416x416 detector.
func DefaultGeometry() *Geometry {
	g, err := NewGeometry(InputSize, InputSize, DefaultStrides)
	if err != nil {
		panic(err)
	}
	return g
}

// Len is the number of predictions the detector emits.
func (g *Geometry) Len() int {
	return len(g.stride)
}

// Cell returns the grid offsets and stride of prediction i.
func (g *Geometry) Cell(i int) (gridX, gridY, stride float64) {
	return g.gridX[i], g.gridY[i], g.stride[i]
}
