// Package tensor holds the dense values exchanged with the inference runtime
// and the preprocessing that turns images into model inputs.
package tensor

import (
	"fmt"

	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
)

// Tensor is a dense float32 model input in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// New checks that data holds exactly the number of elements shape describes.
func New(shape []int64, data []float32) (Tensor, error) {
	n, err := elements(shape)
	if err != nil {
		return Tensor{}, err
	}
	if n != len(data) {
		return Tensor{}, errors.NewShapeError(fmt.Sprintf("tensor %v", shape), n, len(data))
	}
	return Tensor{Shape: append([]int64(nil), shape...), Data: data}, nil
}

// Output is one model output. Exactly one of Floats or Ints is set; integer
// outputs of any width are widened to int64.
type Output struct {
	Shape  []int64
	Floats []float32
	Ints   []int64
}

// NewFloatOutput validates data against shape.
func NewFloatOutput(shape []int64, data []float32) (Output, error) {
	n, err := elements(shape)
	if err != nil {
		return Output{}, err
	}
	if n != len(data) {
		return Output{}, errors.NewShapeError(fmt.Sprintf("output %v", shape), n, len(data))
	}
	return Output{Shape: append([]int64(nil), shape...), Floats: data}, nil
}

// NewIntOutput validates data against shape.
func NewIntOutput(shape []int64, data []int64) (Output, error) {
	n, err := elements(shape)
	if err != nil {
		return Output{}, err
	}
	if n != len(data) {
		return Output{}, errors.NewShapeError(fmt.Sprintf("output %v", shape), n, len(data))
	}
	return Output{Shape: append([]int64(nil), shape...), Ints: data}, nil
}

// IsFloat reports whether the output carries float scores.
func (o Output) IsFloat() bool {
	return o.Floats != nil
}

// Len returns the number of elements.
func (o Output) Len() int {
	if o.Floats != nil {
		return len(o.Floats)
	}
	return len(o.Ints)
}

// LastDim returns the size of the innermost axis, or 0 for a scalar.
func (o Output) LastDim() int {
	if len(o.Shape) == 0 {
		return 0
	}
	return int(o.Shape[len(o.Shape)-1])
}

func elements(shape []int64) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("invalid tensor dimension %d in %v", d, shape)
		}
		n *= int(d)
	}
	return n, nil
}
