package labels

import "fmt"

// Compose merges the three masks into the final label raster.
// Priority is cloud > mining > vegetation-suppressed mining > background:
// vegetation clears mining first, then cloud is laid over everything.
// base is not modified.
func Compose(base LabelMask, suppression, cloud BoolMask) (LabelMask, error) {
	if err := checkShapes(base, suppression, cloud); err != nil {
		return LabelMask{}, err
	}

	corrected := base.Clone()
	for i, veg := range suppression.Pix {
		if veg {
			corrected.Pix[i] = Background
		}
	}

	out := NewLabelMask(base.Shape)
	for i := range out.Pix {
		switch {
		case cloud.Pix[i]:
			out.Pix[i] = Cloud
		case corrected.Pix[i] == Mining:
			out.Pix[i] = Mining
		}
	}
	return out, nil
}

func checkShapes(base LabelMask, suppression, cloud BoolMask) error {
	if len(base.Pix) != base.Shape.Len() {
		return &ShapeMismatchError{Input: "base mask", Want: base.Shape, Got: fmt.Sprintf("%d pixels", len(base.Pix))}
	}
	if suppression.Shape != base.Shape || len(suppression.Pix) != base.Shape.Len() {
		return &ShapeMismatchError{Input: "suppression mask", Want: base.Shape, Got: suppression.Shape.String()}
	}
	if cloud.Shape != base.Shape || len(cloud.Pix) != base.Shape.Len() {
		return &ShapeMismatchError{Input: "cloud mask", Want: base.Shape, Got: cloud.Shape.String()}
	}
	return nil
}
