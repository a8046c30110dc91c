package model

import "github.com/ironsheep/captcha-tools-mcp/internal/tensor"

// Runner executes a loaded network on one input and returns every graph
// output in declaration order. Errors are passed through opaquely.
type Runner interface {
	Run(in tensor.Tensor) ([]tensor.Output, error)
	Close() error
}

// Factory builds a fresh Runner for the same model.
type Factory func() (Runner, error)

// RunnerFunc adapts a function to the Runner interface. Close is a no-op.
type RunnerFunc func(in tensor.Tensor) ([]tensor.Output, error)

func (f RunnerFunc) Run(in tensor.Tensor) ([]tensor.Output, error) {
	return f(in)
}

func (f RunnerFunc) Close() error {
	return nil
}
