package solver

import (
	"context"
	"image"

	"github.com/ironsheep/captcha-tools-mcp/internal/detection"
	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
	imgutil "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
	"github.com/ironsheep/captcha-tools-mcp/internal/model"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

// Detector finds text regions with the anchor-free detector.
type Detector struct {
	engine
	geom *detection.Geometry
}

// NewDetector builds a detector for the bundled 416x416 model. The grid table
// is computed here, once.
func NewDetector(pool *model.Pool, opts ...Option) *Detector {
	return &Detector{
		engine: newEngine(pool, opts),
		geom:   detection.DefaultGeometry(),
	}
}

// Geometry returns the detector's grid table.
func (d *Detector) Geometry() *detection.Geometry {
	return d.geom
}

// Detect decodes data and returns its text boxes.
func (d *Detector) Detect(ctx context.Context, data []byte) ([]detection.BBox, error) {
	img, err := imgutil.Decode(data)
	if err != nil {
		return nil, err
	}
	return d.DetectImage(ctx, img)
}

// DetectImage returns the text boxes of an already decoded image.
func (d *Detector) DetectImage(ctx context.Context, img image.Image) ([]detection.BBox, error) {
	lb, err := tensor.LetterboxImage(img, d.geom.Width)
	if err != nil {
		return nil, err
	}
	outputs, err := d.infer(ctx, lb.Tensor)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, errors.NewShapeError("detector outputs", 1, 0)
	}
	return detection.Decode(outputs[0], d.geom, lb.Ratio, lb.Width, lb.Height)
}
