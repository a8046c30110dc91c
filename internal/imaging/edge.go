package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// cannyBlurRadius is the bild Gaussian radius. bild weights taps by
// exp(-x²/4r), so r=0.98 gives a sigma of 1.4.
const cannyBlurRadius = 0.98

// Canny performs Canny edge detection and returns a binary edge map (255 edge,
// 0 background) with the same size as img, re-based to (0,0).
//
// Thresholds apply to the raw Sobel gradient magnitude of the 8-bit luminance
// image, so the common 100/200 pair means the same as in OpenCV-style tooling.
//
// # Algorithm
//
//  1. Grayscale conversion: Rec.709 luma (see Luma)
//  2. Gaussian blur: sigma 1.4 via bild
//  3. Gradient computation: 3x3 Sobel, magnitude = sqrt(Gx² + Gy²)
//  4. Non-maximum suppression: keep pixels that are not smaller than either
//     neighbor along the quantized gradient direction
//  5. Hysteresis: pixels >= high seed edges; pixels >= low connected to a seed
//     through 8-neighbors are kept
//
// The outermost one-pixel border is never marked as an edge.
func Canny(img image.Image, low, high float64) *image.Gray {
	gray := Luma(img)
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width < 3 || height < 3 {
		return out
	}

	blurred := blur.Gaussian(gray, cannyBlurRadius)
	bb := blurred.Bounds()
	smooth := make([][]float64, height)
	for y := 0; y < height; y++ {
		smooth[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			smooth[y][x] = float64(blurred.RGBAAt(bb.Min.X+x, bb.Min.Y+y).R)
		}
	}

	magnitude, gradX, gradY := sobel(smooth, width, height)
	thin := suppressNonMaxima(magnitude, gradX, gradY, width, height)
	hysteresis(thin, out, width, height, low, high)
	return out
}

// sobel computes the 3x3 Sobel gradients with replicated borders.
func sobel(img [][]float64, width, height int) (magnitude, gradX, gradY [][]float64) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	magnitude = make([][]float64, height)
	gradX = make([][]float64, height)
	gradY = make([][]float64, height)
	for y := 0; y < height; y++ {
		magnitude[y] = make([]float64, width)
		gradX[y] = make([]float64, width)
		gradY[y] = make([]float64, width)

		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					py := clamp(y+ky, 0, height-1)
					px := clamp(x+kx, 0, width-1)
					gx += img[py][px] * sobelX[ky+1][kx+1]
					gy += img[py][px] * sobelY[ky+1][kx+1]
				}
			}
			gradX[y][x] = gx
			gradY[y][x] = gy
			magnitude[y][x] = math.Sqrt(gx*gx + gy*gy)
		}
	}
	return magnitude, gradX, gradY
}

// suppressNonMaxima thins edges to one pixel. The gradient angle is folded into
// [0,180) and quantized to 0, 45, 90 or 135 degrees.
func suppressNonMaxima(magnitude, gradX, gradY [][]float64, width, height int) [][]float64 {
	out := make([][]float64, height)
	for y := range out {
		out[y] = make([]float64, width)
	}

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			angle := math.Atan2(gradY[y][x], gradX[y][x]) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}

			var n1, n2 float64
			switch {
			case angle < 22.5 || angle >= 157.5:
				n1, n2 = magnitude[y][x-1], magnitude[y][x+1]
			case angle < 67.5:
				n1, n2 = magnitude[y+1][x+1], magnitude[y-1][x-1]
			case angle < 112.5:
				n1, n2 = magnitude[y-1][x], magnitude[y+1][x]
			default:
				n1, n2 = magnitude[y+1][x-1], magnitude[y-1][x+1]
			}

			if mag := magnitude[y][x]; mag >= n1 && mag >= n2 {
				out[y][x] = mag
			}
		}
	}
	return out
}

// hysteresis grows edges from strong pixels through weak 8-connected ones.
func hysteresis(thin [][]float64, out *image.Gray, width, height int, low, high float64) {
	edge := color.Gray{Y: 255}
	var stack []image.Point

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			if thin[y][x] < high || out.GrayAt(x, y).Y != 0 {
				continue
			}
			out.SetGray(x, y, edge)
			stack = append(stack[:0], image.Pt(x, y))

			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						nx, ny := p.X+dx, p.Y+dy
						if nx < 1 || ny < 1 || nx >= width-1 || ny >= height-1 {
							continue
						}
						if thin[ny][nx] >= low && out.GrayAt(nx, ny).Y == 0 {
							out.SetGray(nx, ny, edge)
							stack = append(stack, image.Pt(nx, ny))
						}
					}
				}
			}
		}
	}
}

// EdgeDetect runs Canny and returns the edge map as base64 PNG.
//
// Typical thresholds are 100/200 for captcha slider images and 50/150 for
// cleaner renders.
func EdgeDetect(img image.Image, thresholdLow, thresholdHigh int) (*ImageResult, error) {
	return EncodePNG(Canny(img, float64(thresholdLow), float64(thresholdHigh)))
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
