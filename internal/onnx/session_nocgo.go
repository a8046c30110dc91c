//go:build !cgo

package onnx

import (
	"github.com/ironsheep/captcha-tools-mcp/internal/model"
	"github.com/ironsheep/captcha-tools-mcp/internal/tensor"
)

// Environment is a placeholder; the runtime cannot load without cgo.
type Environment struct{}

func NewEnvironment(libPath string) (*Environment, error) {
	return nil, ErrUnavailable
}

func (e *Environment) Close() error {
	return nil
}

// Session is a placeholder; the runtime cannot load without cgo.
type Session struct{}

func NewSession(env *Environment, path string, threads int) (*Session, error) {
	return nil, ErrUnavailable
}

func Factory(env *Environment, path string, threads int) model.Factory {
	return func() (model.Runner, error) {
		return nil, ErrUnavailable
	}
}

func (s *Session) Run(in tensor.Tensor) ([]tensor.Output, error) {
	return nil, ErrUnavailable
}

func (s *Session) Close() error {
	return nil
}
