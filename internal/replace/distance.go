package replace

import (
	"math"

	"github.com/ironsheep/color-replace-mcp/internal/colorspec"
)

// distanceNorm maps the weighted distance into roughly [0, 1]. It is not an
// exact bound: extreme red/blue pairs can land slightly above 1. Tolerances
// are tuned against this divisor, so it must not change.
const distanceNorm = 765.0

// Distance returns the normalized perceptual distance between two samples.
//
// When either sample is fully transparent only alpha is compared:
//
//	|a.A - b.A| / 255
//
// Otherwise the "redmean" weighted Euclidean distance is used:
//
//	rMean = (a.R + b.R) / 2
//	d     = sqrt((2 + rMean/256)·ΔR² + 4·ΔG² + (2 + (255-rMean)/256)·ΔB²)
//	return d / 765
//
// Alpha of two non-transparent samples does not contribute.
func Distance(a, b colorspec.RGBA) float64 {
	if a.A == 0 || b.A == 0 {
		return math.Abs(float64(a.A)-float64(b.A)) / 255
	}

	rMean := (float64(a.R) + float64(b.R)) / 2
	dR := float64(a.R) - float64(b.R)
	dG := float64(a.G) - float64(b.G)
	dB := float64(a.B) - float64(b.B)

	d := math.Sqrt(
		(2+rMean/256)*dR*dR +
			4*dG*dG +
			(2+(255-rMean)/256)*dB*dB,
	)
	return d / distanceNorm
}
