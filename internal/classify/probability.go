package classify

import (
	"encoding/json"
	"math"
	"strings"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/captcha-tools-mcp/internal/charset"
	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

// Unsupported is the probability reported for a requested symbol the model
// cannot produce.
const Unsupported = -1.0

// CharacterProbability is a per-position probability table. Row i holds the
// probability of each Charset entry at decoded position i.
//
// Text and Confidence are computed on first use and memoized.
type CharacterProbability struct {
	Charset     []string
	Probability [][]float64

	textOnce sync.Once
	text     string

	confOnce   sync.Once
	confidence float64
}

// NewCharacterProbability wraps a precomputed table.
func NewCharacterProbability(symbols []string, rows [][]float64) *CharacterProbability {
	return &CharacterProbability{Charset: symbols, Probability: rows}
}

// Text concatenates the most likely symbol of every row. Ties go to the first
// column.
func (p *CharacterProbability) Text() string {
	p.textOnce.Do(func() {
		var sb strings.Builder
		for _, row := range p.Probability {
			if len(row) == 0 {
				continue
			}
			sb.WriteString(p.Charset[Argmax(row)])
		}
		p.text = sb.String()
	})
	return p.text
}

// Confidence is the mean of the per-row maxima, or 0 with no rows.
func (p *CharacterProbability) Confidence() float64 {
	p.confOnce.Do(func() {
		var sum float64
		var n int
		for _, row := range p.Probability {
			if len(row) == 0 {
				continue
			}
			sum += floats.Max(row)
			n++
		}
		if n > 0 {
			p.confidence = sum / float64(n)
		}
	})
	return p.confidence
}

// MarshalJSON writes {"text", "charset", "probability", "confidence"}.
func (p *CharacterProbability) MarshalJSON() ([]byte, error) {
	text := p.Text()
	confidence := p.Confidence()
	return json.Marshal(struct {
		Text        *string     `json:"text"`
		Charset     []string    `json:"charset"`
		Probability [][]float64 `json:"probability"`
		Confidence  *float64    `json:"confidence"`
	}{
		Text:        &text,
		Charset:     p.Charset,
		Probability: p.Probability,
		Confidence:  &confidence,
	})
}

// Softmax normalizes row in place to exp(x)/sum(exp(x)), shifting by the row
// maximum first so large scores cannot overflow.
func Softmax(row []float64) []float64 {
	if len(row) == 0 {
		return row
	}
	shift := floats.Max(row)
	for i, v := range row {
		row[i] = math.Exp(v - shift)
	}
	floats.Scale(1/floats.Sum(row), row)
	return row
}

// Probability builds the table for a sequence model's float output.
//
// Rows run over the last axis and must match cfg's symbol count. With a nil
// requested list the full native table is returned. Otherwise columns are
// reordered to requested; symbols the model lacks get Unsupported.
func Probability(out tensor.Output, cfg *charset.Config, requested []string) (*CharacterProbability, error) {
	if !out.IsFloat() {
		return nil, errors.NewUnsupportedOperationError("probability decoding", "model emits class indices, not scores")
	}
	classes := out.LastDim()
	if classes != len(cfg.Charset) {
		return nil, errors.NewShapeError("score columns", len(cfg.Charset), classes)
	}
	if out.Len()%classes != 0 {
		return nil, errors.NewShapeError("score output rows", classes, out.Len())
	}

	n := out.Len() / classes
	rows := make([][]float64, n)
	for r := range rows {
		row := make([]float64, classes)
		for c, v := range out.Floats[r*classes : (r+1)*classes] {
			row[c] = float64(v)
		}
		rows[r] = Softmax(row)
	}

	if requested == nil {
		return NewCharacterProbability(append([]string(nil), cfg.Charset...), rows), nil
	}
	return NewCharacterProbability(append([]string(nil), requested...), Restrict(rows, cfg, requested)), nil
}

// Restrict reorders each row's columns to requested, using Unsupported for
// symbols cfg does not know.
func Restrict(rows [][]float64, cfg *charset.Config, requested []string) [][]float64 {
	cols := make([]int, len(requested))
	for i, s := range requested {
		if c, ok := cfg.Index(s); ok {
			cols[i] = c
		} else {
			cols[i] = -1
		}
	}

	out := make([][]float64, len(rows))
	for r, row := range rows {
		restricted := make([]float64, len(cols))
		for i, c := range cols {
			if c < 0 || c >= len(row) {
				restricted[i] = Unsupported
			} else {
				restricted[i] = row[c]
			}
		}
		out[r] = restricted
	}
	return out
}
