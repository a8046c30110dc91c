// Package detection decodes the output of the anchor-free text detector into
// bounding boxes.
//
// # Output Layout
//
// The detector sees a 416x416 letterboxed image and predicts one box per cell
// of three feature maps with strides 8, 16 and 32 (52x52, 26x26 and 13x13
// cells, 3549 predictions in total). Each prediction is six floats:
//
//	[cx, cy, log w, log h, objectness, class score]
//
// cx and cy are offsets within the cell; width and height are log-scaled
// multiples of the stride.
//
// # Pipeline
//
//  1. Scoring: score = objectness * class score, dropped below 0.1
//  2. Decoding: cell offsets and strides from the Geometry table turn each
//     prediction into corner form, divided by the letterbox ratio
//  3. Suppression: greedy NMS at IoU 0.45 with inclusive-pixel areas
//  4. Clipping: corners are clamped to the source image
//
// # Coordinate System
//
// Boxes are inclusive on both corners: a box with X1 == X2 covers one column.
// Origin (0, 0) is the top-left pixel of the source image.
package detection
