// Package slide locates the gap in slider captchas without a neural network.
//
// Match and SimpleMatch find a puzzle piece inside its background by
// correlating Canny edge maps. Compare finds the gap by diffing a screenshot
// with the gap against one without it.
package slide
