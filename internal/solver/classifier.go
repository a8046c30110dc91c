package solver

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/ironsheep/captcha-tools-mcp/internal/charset"
	"github.com/ironsheep/captcha-tools-mcp/internal/classify"
	"github.com/ironsheep/captcha-tools-mcp/internal/detection"
	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
	imgutil "github.com/ironsheep/captcha-tools-mcp/internal/imaging"
	"github.com/ironsheep/captcha-tools-mcp/internal/model"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

// ClassifyOptions are the per-call preprocessing switches.
type ClassifyOptions struct {
	// PNGFix paints fully transparent pixels white. Only three-channel models
	// use it.
	PNGFix bool
	// Filter keeps only pixels inside its HSV boxes.
	Filter *imgutil.ColorFilter
}

// ProbabilityOptions extends ClassifyOptions with the charset to report.
type ProbabilityOptions struct {
	ClassifyOptions
	// Range restricts and orders the probability columns. Nil falls back to
	// the classifier's default range, and then to the full charset.
	Range *charset.Range
}

// BBoxText is the recognized text of one region.
type BBoxText struct {
	BBox detection.BBox `json:"bbox"`
	Text string         `json:"text"`
}

// Classifier recognizes text with one model.
type Classifier struct {
	engine

	cfg      *charset.Config
	kind     model.Kind
	resolver *charset.Resolver

	mu     sync.RWMutex
	ranges []string
}

// NewClassifier builds a classifier around a runner pool. cfg must describe
// the model's input and symbols.
func NewClassifier(pool *model.Pool, cfg *charset.Config, kind model.Kind, opts ...Option) *Classifier {
	return &Classifier{
		engine:   newEngine(pool, opts),
		cfg:      cfg,
		kind:     kind,
		resolver: charset.NewResolver(cfg, charset.DefaultCacheSize),
	}
}

// Kind reports whether the model is an official or custom one.
func (c *Classifier) Kind() model.Kind {
	return c.kind
}

// Charset returns the model's charset configuration.
func (c *Classifier) Charset() *charset.Config {
	return c.cfg
}

// CalcRanges expands r against this model's symbols.
func (c *Classifier) CalcRanges(r charset.Range) ([]string, error) {
	return c.resolver.Resolve(r)
}

// SetRanges sets the default probability range.
func (c *Classifier) SetRanges(r charset.Range) error {
	symbols, err := c.CalcRanges(r)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.ranges = symbols
	c.mu.Unlock()
	return nil
}

// ClearRanges drops the default probability range.
func (c *Classifier) ClearRanges() {
	c.mu.Lock()
	c.ranges = nil
	c.mu.Unlock()
}

// Ranges returns a copy of the default probability range, or nil.
func (c *Classifier) Ranges() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.ranges == nil {
		return nil
	}
	return append([]string(nil), c.ranges...)
}

// Classify decodes data and recognizes its text.
func (c *Classifier) Classify(ctx context.Context, data []byte, opts ClassifyOptions) (string, error) {
	img, err := imgutil.Decode(data)
	if err != nil {
		return "", err
	}
	return c.ClassifyImage(ctx, img, opts)
}

// ClassifyImage recognizes the text of an already decoded image.
func (c *Classifier) ClassifyImage(ctx context.Context, img image.Image, opts ClassifyOptions) (string, error) {
	outputs, err := c.run(ctx, img, opts)
	if err != nil {
		return "", err
	}
	return classify.Decode(outputs, c.cfg)
}

// ClassifyProbability returns per-position probabilities. Only official
// models produce scores suitable for this.
func (c *Classifier) ClassifyProbability(ctx context.Context, data []byte, opts ProbabilityOptions) (*classify.CharacterProbability, error) {
	if c.kind != model.Official {
		return nil, errors.NewUnsupportedOperationError("probability classification", "requires an official model")
	}

	var requested []string
	if opts.Range != nil {
		symbols, err := c.CalcRanges(*opts.Range)
		if err != nil {
			return nil, err
		}
		requested = symbols
	} else {
		requested = c.Ranges()
	}

	img, err := imgutil.Decode(data)
	if err != nil {
		return nil, err
	}
	outputs, err := c.run(ctx, img, opts.ClassifyOptions)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, errors.NewShapeError("model outputs", 1, 0)
	}
	return classify.Probability(outputs[0], c.cfg, requested)
}

// ClassifyBBoxes crops every box out of data and recognizes each crop.
// Results keep the order of boxes.
func (c *Classifier) ClassifyBBoxes(ctx context.Context, data []byte, boxes []detection.BBox, opts ClassifyOptions) ([]BBoxText, error) {
	img, err := imgutil.Decode(data)
	if err != nil {
		return nil, err
	}

	results := make([]BBoxText, 0, len(boxes))
	for i, box := range boxes {
		crop, err := imgutil.CropInclusive(img, int(box.X1), int(box.Y1), int(box.X2), int(box.Y2))
		if err != nil {
			return nil, fmt.Errorf("bbox %d: %w", i, err)
		}
		text, err := c.ClassifyImage(ctx, crop, opts)
		if err != nil {
			return nil, fmt.Errorf("bbox %d: %w", i, err)
		}
		results = append(results, BBoxText{BBox: box, Text: text})
	}
	return results, nil
}

func (c *Classifier) run(ctx context.Context, img image.Image, opts ClassifyOptions) ([]tensor.Output, error) {
	if opts.Filter != nil {
		img = opts.Filter.Apply(img)
	}
	in, err := tensor.ClassificationImage(img, c.cfg, c.kind.Normalization(), opts.PNGFix)
	if err != nil {
		return nil, err
	}
	return c.infer(ctx, in)
}
