// Package solver wires preprocessing, pooled inference and decoding into the
// engines the server exposes.
//
// A Classifier owns one recognition model: its runner pool, charset and
// identity. A Detector owns the text detector and its grid geometry. Both are
// built once at startup and are safe for concurrent use; every call gets
// fresh tensors and results.
//
// Inference runs on a model.Pool. Each engine applies its call timeout to the
// caller's context, so a stuck runtime call returns context.DeadlineExceeded
// while the pool replaces the busy runner.
package solver
