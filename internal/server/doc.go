// Package server implements the MCP (Model Context Protocol) server for captcha solving tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the recognition,
// detection and slider pipelines through the MCP protocol, so MCP clients can
// read text captchas, locate click targets and solve slider puzzles.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Recognition:
//   - captcha_classify: Decode the text of an image
//   - captcha_classify_probability: Per-position probabilities over a charset
//   - captcha_classify_bbox: Recognize each region of an image
//   - captcha_charset_ranges: Expand, set or clear charset ranges
//
// Detection:
//   - captcha_detect: Bounding boxes of characters and icons
//
// Slider:
//   - captcha_slide_match: Edge template match of piece against background
//   - captcha_slide_compare: Gap location by diffing two backgrounds
//
// Preprocessing:
//   - captcha_color_filter: HSV color isolation
//   - captcha_edge_detect: Canny edge map
//
// Fallback OCR:
//   - captcha_ocr_tesseract: Tesseract single-line recognition
//
// Every image argument is a file path or inline base64. Tools that need a
// model which was not configured at startup stay listed and fail with an
// error naming the missing model.
//
// # Image Caching
//
// Files read by path are cached as raw bytes for the lifetime of the
// process. Inline base64 images are never cached.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: for pipeline failures an object with error_code (IMAGE_DECODE,
//     SIZE_MISMATCH, UNSUPPORTED_OPERATION, SHAPE, INFERENCE) and details,
//     otherwise the Go error string
//
// # Usage
//
//	srv := server.New(
//	    server.WithClassifier("beta", beta),
//	    server.WithDetector(detector),
//	)
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
