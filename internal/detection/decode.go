package detection

import (
	"fmt"
	"math"
	"sort"

	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

const (
	// ScoreThreshold drops predictions whose objectness * class score is lower.
	ScoreThreshold = 0.1
	// NMSThreshold drops boxes overlapping a better one by more than this IoU.
	NMSThreshold = 0.45
	// valuesPerPrediction is cx, cy, w, h, objectness, class score.
	valuesPerPrediction = 6
)

// Candidate is a decoded prediction in source-image pixels, before clipping.
type Candidate struct {
	X1, Y1, X2, Y2 float64
	Score          float64
}

// Area uses the inclusive-pixel convention (x2-x1+1)*(y2-y1+1).
func (c Candidate) Area() float64 {
	return (c.X2 - c.X1 + 1) * (c.Y2 - c.Y1 + 1)
}

// IoU is the intersection-over-union of a and b with inclusive-pixel areas.
func IoU(a, b Candidate) float64 {
	w := math.Max(0, math.Min(a.X2, b.X2)-math.Max(a.X1, b.X1)+1)
	h := math.Max(0, math.Min(a.Y2, b.Y2)-math.Max(a.Y1, b.Y1)+1)
	inter := w * h
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Candidates scores and decodes the raw (1, N, 6) detector output. Boxes are
// divided by ratio, the letterbox scale, to land in source-image pixels.
func Candidates(out tensor.Output, geom *Geometry, ratio float64) ([]Candidate, error) {
	if !out.IsFloat() {
		return nil, fmt.Errorf("detector output must be float scores")
	}
	want := geom.Len() * valuesPerPrediction
	if out.Len() != want {
		return nil, errors.NewShapeError("detector output", want, out.Len())
	}
	if ratio <= 0 {
		return nil, fmt.Errorf("invalid letterbox ratio %v", ratio)
	}

	var cands []Candidate
	for i := 0; i < geom.Len(); i++ {
		p := out.Floats[i*valuesPerPrediction : (i+1)*valuesPerPrediction]
		score := float64(p[4]) * float64(p[5])
		if score < ScoreThreshold {
			continue
		}

		gx, gy, s := geom.Cell(i)
		cx := (float64(p[0]) + gx) * s
		cy := (float64(p[1]) + gy) * s
		w := math.Exp(float64(p[2])) * s
		h := math.Exp(float64(p[3])) * s

		cands = append(cands, Candidate{
			X1:    (cx - w/2) / ratio,
			Y1:    (cy - h/2) / ratio,
			X2:    (cx + w/2) / ratio,
			Y2:    (cy + h/2) / ratio,
			Score: score,
		})
	}
	return cands, nil
}

// NMS performs greedy non-maximum suppression. Candidates are visited by
// descending score (ties keep input order); each kept box removes every
// remaining box whose IoU with it exceeds threshold.
func NMS(cands []Candidate, threshold float64) []Candidate {
	order := make([]Candidate, len(cands))
	copy(order, cands)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].Score > order[j].Score
	})

	var keep []Candidate
	for len(order) > 0 {
		best := order[0]
		keep = append(keep, best)

		rest := order[:0:0]
		for _, c := range order[1:] {
			if IoU(best, c) <= threshold {
				rest = append(rest, c)
			}
		}
		order = rest
	}
	return keep
}

// Clip clamps c to [0, width-1] x [0, height-1] and converts it to a BBox.
func Clip(c Candidate, width, height int) BBox {
	return BBox{
		X1: clipCoord(c.X1, width),
		Y1: clipCoord(c.Y1, height),
		X2: clipCoord(c.X2, width),
		Y2: clipCoord(c.Y2, height),
	}
}

func clipCoord(v float64, size int) uint32 {
	limit := float64(size - 1)
	if limit < 0 {
		limit = 0
	}
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > limit:
		return uint32(limit)
	}
	return uint32(v)
}

// Decode turns a raw detector output into clipped boxes for a width x height
// source image letterboxed with ratio. No boxes is a valid result.
func Decode(out tensor.Output, geom *Geometry, ratio float64, width, height int) ([]BBox, error) {
	cands, err := Candidates(out, geom, ratio)
	if err != nil {
		return nil, err
	}

	kept := NMS(cands, NMSThreshold)
	boxes := make([]BBox, 0, len(kept))
	for _, c := range kept {
		boxes = append(boxes, Clip(c, width, height))
	}
	return boxes, nil
}
