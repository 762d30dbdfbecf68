package geometry

import "math"

// GridSpacing returns the on-screen distance between grid lines for a zoom
// factor. The scene-frame spacing doubles or halves so that the drawn spacing
// stays within [base, 2*base).
func GridSpacing(base, zoom float64) float64 {
	if base <= 0 || !ValidZoom(zoom) {
		return base
	}
	// zoom = frac * 2^exp with frac in [0.5, 1); scaling by powers of two
	// leaves 2*frac in [1, 2) for any finite zoom, subnormals included
	frac, _ := math.Frexp(zoom)
	return base * 2 * frac
}

// GridLines returns how many vertical and horizontal lines cover a surface of
// the given size at the given spacing
func GridLines(width, height, spacing float64) (cols, rows int) {
	if spacing <= 0 {
		return 0, 0
	}
	return int(math.Ceil(width/spacing)) + 1, int(math.Ceil(height/spacing)) + 1
}
