package labels

import (
	"fmt"

	"github.com/forest-guardian/global-mining-labels/internal/geo"
)

// Label codes written to the output rasters.
const (
	Background uint8 = 0
	Cloud      uint8 = 1
	Mining     uint8 = 2
)

// LabelMask is a row-major raster of label codes.
type LabelMask struct {
	Shape geo.Shape
	Pix   []uint8
}

// NewLabelMask returns an all-background mask of shape.
func NewLabelMask(shape geo.Shape) LabelMask {
	return LabelMask{Shape: shape, Pix: make([]uint8, shape.Len())}
}

// Clone returns a deep copy.
func (m LabelMask) Clone() LabelMask {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return LabelMask{Shape: m.Shape, Pix: pix}
}

func (m LabelMask) At(row, col int) uint8 {
	return m.Pix[row*m.Shape.Width+col]
}

// Count returns how many pixels carry code.
func (m LabelMask) Count(code uint8) int {
	n := 0
	for _, v := range m.Pix {
		if v == code {
			n++
		}
	}
	return n
}

// BoolMask is a row-major boolean raster.
type BoolMask struct {
	Shape geo.Shape
	Pix   []bool
}

// NewBoolMask returns an all-false mask of shape.
func NewBoolMask(shape geo.Shape) BoolMask {
	return BoolMask{Shape: shape, Pix: make([]bool, shape.Len())}
}

func (m BoolMask) At(row, col int) bool {
	return m.Pix[row*m.Shape.Width+col]
}

// CloudMaskFromBand marks pixels whose cloud band value is exactly 1.
func CloudMaskFromBand(values []float64, shape geo.Shape) (BoolMask, error) {
	if len(values) != shape.Len() {
		return BoolMask{}, &ShapeMismatchError{Input: "cloud band", Want: shape, Got: fmt.Sprintf("%d values", len(values))}
	}
	m := NewBoolMask(shape)
	for i, v := range values {
		m.Pix[i] = v == 1
	}
	return m, nil
}
