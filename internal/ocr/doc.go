// Package ocr is a Tesseract fallback recognizer for captchas the bundled
// models cannot read.
//
// It wraps the Tesseract OCR engine (via gosseract/v2) in single-line mode and
// restricts output to a character whitelist, usually built from a resolved
// charset range.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// The recognizer needs cgo. Builds without it compile a stub whose Recognize
// returns ErrUnavailable.
//
// # Whitelists
//
// Tesseract whitelists are per character. Multi-character symbols and the
// empty blank symbol are dropped by Whitelist; an empty whitelist allows
// everything.
package ocr
