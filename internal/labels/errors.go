package labels

import (
	"errors"
	"fmt"

	"github.com/forest-guardian/global-mining-labels/internal/geo"
)

var ErrMissingBand = errors.New("source raster is missing a required band")

// ShapeMismatchError reports raster inputs that disagree in size. It always
// points at an upstream bug, the image is skipped.
type ShapeMismatchError struct {
	Input string
	Want  geo.Shape
	Got   string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch: %s is %s, want %s", e.Input, e.Got, e.Want)
}

// GeometryRepairFailure is recorded when one annotation polygon could not be
// intersected with the footprint even after repair. It is logged and the
// polygon dropped; Resolve never returns it as an error.
type GeometryRepairFailure struct {
	Name string
	Err  error
}

func (e *GeometryRepairFailure) Error() string {
	return fmt.Sprintf("geometry %q could not be repaired: %v", e.Name, e.Err)
}

func (e *GeometryRepairFailure) Unwrap() error { return e.Err }
