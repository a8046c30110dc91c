//go:build !cgo

package ocr

// Recognize always fails without cgo.
func Recognize(data []byte, opts Options) (*Result, error) {
	return nil, ErrUnavailable
}
