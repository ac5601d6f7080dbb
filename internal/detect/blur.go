package detect

import (
	"image"
)

// BlurDetector scores an asset's preview by the variance of its
// Laplacian-filtered grayscale rendering. Low variance means few edges,
// which reads as blur. Stateless per asset.
type BlurDetector struct {
	threshold float64
}

func NewBlurDetector(threshold float64) *BlurDetector {
	return &BlurDetector{threshold: threshold}
}

// Classify returns whether the image is blurred and the sharpness score.
func (d *BlurDetector) Classify(img image.Image) (blurred bool, score float64) {
	score = laplacianVariance(img)
	return score < d.threshold, score
}

// laplacianVariance convolves the grayscale image with a 3x3 Laplacian
// kernel and returns the variance of the response.
func laplacianVariance(img image.Image) float64 {
	gray := toGray(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
	}

	n := (w - 2) * (h - 2)
	responses := make([]float64, 0, n)
	sum := 0.0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			// Kernel: 0 1 0 / 1 -4 1 / 0 1 0
			v := at(x, y-1) + at(x-1, y) + at(x+1, y) + at(x, y+1) - 4*at(x, y)
			responses = append(responses, v)
			sum += v
		}
	}

	mean := sum / float64(n)
	variance := 0.0
	for _, v := range responses {
		diff := v - mean
		variance += diff * diff
	}
	return variance / float64(n)
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, img.At(x, y))
		}
	}
	return gray
}
