package studio

// DefaultMaxVH is the share of the viewport height a preview may fill.
const DefaultMaxVH = 0.8

// PreviewScale returns the factor that fits a width x height canvas into a
// container containerW wide and maxVH of a viewportH tall viewport. The
// preview only ever shrinks; unknown container sizes give 1.
func PreviewScale(width, height int, containerW, viewportH, maxVH float64) float64 {
	if containerW <= 0 || viewportH <= 0 || width <= 0 || height <= 0 {
		return 1
	}
	if maxVH <= 0 {
		maxVH = DefaultMaxVH
	}
	sx := containerW / float64(width)
	sy := viewportH * maxVH / float64(height)
	return min(1, sx, sy)
}
