// Package model defines the inference boundary and the resources around it.
//
// A Runner executes one loaded network. Runners are not assumed to be safe for
// concurrent use, so callers share them through a Pool that checks out one
// runner per call and bounds native inference concurrency to the pool size.
//
// Identify classifies model files as the bundled official models or custom
// ("diy") models by SHA-256 digest, which selects the preprocessing and
// decoding regime.
package model
