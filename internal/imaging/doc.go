// Package imaging provides the pixel-level operations shared by the captcha pipeline.
//
// This package implements decoding with a raw-byte cache, HSV color filtering,
// Rec.709 luminance, Canny edge detection, alpha-bounds cropping, and PNG
// encoding helpers for returning images to MCP clients. All operations work with
// standard Go image.Image types and use a coordinate system where (0,0) is at the
// top-left corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - Inclusive crops take (x1,y1) and (x2,y2) as the first and last pixel kept
//   - image.Rectangle values keep Go's half-open convention
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Every other function in this
// package is stateless, allocates its output, and never mutates its input, so
// calls may run concurrently on the same source image.
//
// # Color Representation
//
// Pixels are read through color.NRGBAModel, so premultiplied sources such as
// *image.RGBA yield their straight 8-bit components before any HSV or luma math.
// HSV follows the 8-bit OpenCV layout:
//   - H: 0-180 (half-degree hue)
//   - S: 0-255
//   - V: 0-255
//
// # Error Handling
//
// Decode failures are reported as IMAGE_DECODE errors from the errors package.
// Encoding failures and file I/O errors are wrapped with context via fmt.Errorf.
package imaging
