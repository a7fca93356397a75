package labels

import (
	"fmt"

	"github.com/forest-guardian/global-mining-labels/internal/geo"
)

const (
	DefaultVegetationThreshold = 0.5

	// zeroDenominator replaces an exact zero band sum. The index then
	// saturates instead of being undefined; it is not the numeric limit.
	zeroDenominator = 1e-6
)

// NormalizedDifference returns (a-b)/(a+b), the NDVI when a is NIR and b is red.
func NormalizedDifference(a, b float64) float64 {
	den := a + b
	if den == 0 {
		den = zeroDenominator
	}
	return (a - b) / den
}

// SuppressionMask marks vegetation: pixels whose NDVI is strictly above threshold.
func SuppressionMask(nir, red []float64, shape geo.Shape, threshold float64) (BoolMask, error) {
	if len(nir) != shape.Len() {
		return BoolMask{}, &ShapeMismatchError{Input: "NIR band", Want: shape, Got: fmt.Sprintf("%d values", len(nir))}
	}
	if len(red) != shape.Len() {
		return BoolMask{}, &ShapeMismatchError{Input: "red band", Want: shape, Got: fmt.Sprintf("%d values", len(red))}
	}
	m := NewBoolMask(shape)
	for i := range nir {
		m.Pix[i] = NormalizedDifference(nir[i], red[i]) > threshold
	}
	return m, nil
}
