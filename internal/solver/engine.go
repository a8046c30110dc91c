package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/ironsheep/captcha-tools-mcp/internal/errors"
	"github.com/ironsheep/captcha-tools-mcp/internal/model"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

// Option configures an engine.
type Option func(*engine)

// WithTimeout bounds each inference call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *engine) {
		e.timeout = d
	}
}

// engine is the pool and timeout shared by Classifier and Detector.
type engine struct {
	pool    *model.Pool
	timeout time.Duration
}

func newEngine(pool *model.Pool, opts []Option) engine {
	e := engine{pool: pool}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// infer runs in on the pool. Runtime failures are wrapped as inference errors;
// context expiry is returned as is.
func (e *engine) infer(ctx context.Context, in tensor.Tensor) ([]tensor.Output, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out, err := e.pool.Run(ctx, in)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("inference aborted: %w", ctxErr)
		}
		return nil, errors.NewInferenceError(err)
	}
	return out, nil
}

// Close releases the pool's runners.
func (e *engine) Close() error {
	return e.pool.Close()
}
