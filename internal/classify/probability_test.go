package classify

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

func TestSoftmax(t *testing.T) {
	row := Softmax([]float64{1000, 1000, 1000, 1000})
	for i, v := range row {
		if math.Abs(v-0.25) > 1e-12 {
			t.Errorf("row[%d] = %v, want 0.25", i, v)
		}
	}

	row = Softmax([]float64{0, math.Log(3)})
	if math.Abs(row[0]-0.25) > 1e-12 || math.Abs(row[1]-0.75) > 1e-12 {
		t.Errorf("unexpected softmax: %v", row)
	}

	if got := Softmax(nil); len(got) != 0 {
		t.Errorf("Softmax(nil) should stay empty, got %v", got)
	}
}

func TestProbability_DominantClassPerRow(t *testing.T) {
	cfg := testConfig(t, false)
	out := scoreRows(t, len(cfg.Charset), []int{3, 1, 5, 2})

	p, err := Probability(out, cfg, nil)
	if err != nil {
		t.Fatalf("Probability failed: %v", err)
	}
	if len(p.Probability) != 4 {
		t.Fatalf("rows: got %d, want 4", len(p.Probability))
	}
	if got := p.Text(); got != "ca2b" {
		t.Errorf("Text: got %q, want %q", got, "ca2b")
	}

	for r, row := range p.Probability {
		var sum float64
		for _, v := range row {
			sum += v
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d sums to %v", r, sum)
		}
	}
	if c := p.Confidence(); c <= 0.9 || c > 1 {
		t.Errorf("Confidence: got %v, want close to 1", c)
	}
}

func TestProbability_TextDoesNotCollapse(t *testing.T) {
	cfg := testConfig(t, false)
	out := scoreRows(t, len(cfg.Charset), []int{1, 1, 0, 1})

	p, err := Probability(out, cfg, nil)
	if err != nil {
		t.Fatalf("Probability failed: %v", err)
	}
	// The blank symbol is the empty string, so it contributes nothing.
	if got := p.Text(); got != "aaa" {
		t.Errorf("Text: got %q, want %q", got, "aaa")
	}
}

func TestProbability_RequestedRange(t *testing.T) {
	cfg := testConfig(t, false)
	out := scoreRows(t, len(cfg.Charset), []int{2, 4})

	p, err := Probability(out, cfg, []string{"b", "z", "1", ""})
	if err != nil {
		t.Fatalf("Probability failed: %v", err)
	}
	if len(p.Charset) != 4 {
		t.Fatalf("charset: got %v", p.Charset)
	}
	for r, row := range p.Probability {
		if len(row) != 4 {
			t.Fatalf("row %d has %d columns, want 4", r, len(row))
		}
		if row[1] != Unsupported {
			t.Errorf("row %d: missing symbol got %v, want %v", r, row[1], Unsupported)
		}
	}
	if got := p.Text(); got != "b1" {
		t.Errorf("Text: got %q, want %q", got, "b1")
	}
}

func TestProbability_Errors(t *testing.T) {
	cfg := testConfig(t, false)

	wrong := scoreRows(t, len(cfg.Charset)+1, []int{1})
	if _, err := Probability(wrong, cfg, nil); !errors.IsCode(err, errors.ErrorShape) {
		t.Errorf("expected SHAPE error for column mismatch, got %v", err)
	}

	ints, err := tensor.NewIntOutput([]int64{2}, []int64{1, 2})
	if err != nil {
		t.Fatalf("NewIntOutput failed: %v", err)
	}
	if _, err := Probability(ints, cfg, nil); !errors.IsCode(err, errors.ErrorUnsupportedOperation) {
		t.Errorf("expected UNSUPPORTED_OPERATION for integer output, got %v", err)
	}
}

func TestCharacterProbability_Memoized(t *testing.T) {
	p := NewCharacterProbability([]string{"x", "y"}, [][]float64{{0.2, 0.8}, {0.6, 0.4}})
	if p.Text() != "yx" {
		t.Fatalf("Text: got %q", p.Text())
	}
	if math.Abs(p.Confidence()-0.7) > 1e-12 {
		t.Fatalf("Confidence: got %v", p.Confidence())
	}

	// Mutating the table after first use must not change cached values.
	p.Probability[0] = []float64{0.9, 0.1}
	if p.Text() != "yx" {
		t.Errorf("Text recomputed: got %q", p.Text())
	}
	if math.Abs(p.Confidence()-0.7) > 1e-12 {
		t.Errorf("Confidence recomputed: got %v", p.Confidence())
	}
}

func TestCharacterProbability_Empty(t *testing.T) {
	p := NewCharacterProbability([]string{"a"}, nil)
	if p.Text() != "" || p.Confidence() != 0 {
		t.Errorf("empty table: text %q confidence %v", p.Text(), p.Confidence())
	}
}

func TestCharacterProbability_MarshalJSON(t *testing.T) {
	p := NewCharacterProbability([]string{"a", "b"}, [][]float64{{0.25, 0.75}})
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded struct {
		Text        *string     `json:"text"`
		Charset     []string    `json:"charset"`
		Probability [][]float64 `json:"probability"`
		Confidence  *float64    `json:"confidence"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Text == nil || *decoded.Text != "b" {
		t.Errorf("text: got %v", decoded.Text)
	}
	if decoded.Confidence == nil || *decoded.Confidence != 0.75 {
		t.Errorf("confidence: got %v", decoded.Confidence)
	}
	if len(decoded.Charset) != 2 || len(decoded.Probability) != 1 {
		t.Errorf("unexpected payload: %s", data)
	}
}
