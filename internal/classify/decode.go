// Package classify turns recognition model outputs into text and per-position
// probability tables.
package classify

import (
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/captcha-tools-mcp/internal/charset"
	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

// Decode picks the decoding strategy for a model and applies it.
//
// Word models read their second output as fixed-position class indices.
// Sequence models read the first output and blank-collapse it. Official
// sequence models emit float scores, reduced by argmax over the last axis;
// custom ones emit integer classes, used as they are.
func Decode(outputs []tensor.Output, cfg *charset.Config) (string, error) {
	if cfg.Word {
		if len(outputs) < 2 {
			return "", errors.NewShapeError("word model outputs", 2, len(outputs))
		}
		idx, err := classIndices(outputs[1])
		if err != nil {
			return "", err
		}
		return DecodeWord(idx, cfg.Charset)
	}

	if len(outputs) < 1 {
		return "", errors.NewShapeError("sequence model outputs", 1, 0)
	}
	idx, err := classIndices(outputs[0])
	if err != nil {
		return "", err
	}
	return DecodeSequence(idx, cfg.Charset)
}

// classIndices returns one class per position. Float outputs are argmaxed
// over their last axis.
func classIndices(out tensor.Output) ([]int64, error) {
	if !out.IsFloat() {
		return out.Ints, nil
	}
	classes := out.LastDim()
	if classes <= 0 || out.Len()%classes != 0 {
		return nil, errors.NewShapeError("score output rows", classes, out.Len())
	}

	rows := out.Len() / classes
	idx := make([]int64, rows)
	row := make([]float64, classes)
	for r := 0; r < rows; r++ {
		for c, v := range out.Floats[r*classes : (r+1)*classes] {
			row[c] = float64(v)
		}
		idx[r] = int64(Argmax(row))
	}
	return idx, nil
}

// Argmax returns the index of the largest value; ties go to the first.
func Argmax(row []float64) int {
	if len(row) == 0 {
		return 0
	}
	return floats.MaxIdx(row)
}

// DecodeWord maps every index through symbols with no filtering.
func DecodeWord(indices []int64, symbols []string) (string, error) {
	var sb strings.Builder
	for _, i := range indices {
		s, err := symbolAt(i, symbols)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

// DecodeSequence emits the symbol for every index that is non-zero and
// differs from the last emitted index. Index 0 is the blank class.
//
// Blanks do not reset the comparison: "a, blank, a" yields a single "a".
func DecodeSequence(indices []int64, symbols []string) (string, error) {
	var sb strings.Builder
	var last int64
	for _, i := range indices {
		if i == 0 || i == last {
			continue
		}
		s, err := symbolAt(i, symbols)
		if err != nil {
			return "", err
		}
		last = i
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func symbolAt(i int64, symbols []string) (string, error) {
	if i < 0 || i >= int64(len(symbols)) {
		return "", errors.NewIndexError("class index", int(i), len(symbols))
	}
	return symbols[i], nil
}
