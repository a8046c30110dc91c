// Package onnx runs models with ONNX Runtime through
// github.com/yalue/onnxruntime_go.
//
// The runtime is a native shared library loaded once per process. An
// Environment value stands for that load: create it at startup, build
// sessions while it is open, and Close it after every session is destroyed.
//
// A Session is one loaded graph and implements model.Runner. Sessions are not
// shared between goroutines; a model.Pool of them bounds concurrent native
// inference.
//
// The package needs cgo. Without it every constructor returns ErrUnavailable.
package onnx

import "errors"

// ErrUnavailable is returned when the binary was built without cgo.
var ErrUnavailable = errors.New("onnx runtime unavailable: built without cgo")
