package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/planar"
)

// OutcomeKind classifies the result of a clip attempt.
type OutcomeKind int

const (
	// Intersected means Polygons holds a non-empty intersection.
	Intersected OutcomeKind = iota
	// Disjoint covers both a failed intersects test and an empty intersection.
	Disjoint
	// Unrepairable means the intersection failed even after repair.
	Unrepairable
)

func (k OutcomeKind) String() string {
	switch k {
	case Intersected:
		return "intersected"
	case Disjoint:
		return "disjoint"
	case Unrepairable:
		return "unrepairable"
	}
	return fmt.Sprintf("OutcomeKind(%d)", int(k))
}

// Outcome is the result of one TryIntersect call.
type Outcome struct {
	Kind     OutcomeKind
	Polygons []orb.Polygon
	// Repaired is set when the first attempt failed and the repaired
	// operands were used.
	Repaired bool
	Err      error
}

// Clipper intersects a projected polygon with an image footprint box.
type Clipper interface {
	TryIntersect(p orb.Polygon, box orb.Bound) Outcome
}

var ErrDegenerateRing = errors.New("degenerate ring")

// PlanarClipper clips with orb/clip. Its repair step drops non-finite and
// repeated vertices, the failure modes a pointwise projection can introduce.
type PlanarClipper struct{}

func (PlanarClipper) TryIntersect(p orb.Polygon, box orb.Bound) Outcome {
	polys, err := planarIntersect(p, box)
	if err == nil {
		return outcome(polys, false)
	}
	repaired, rerr := repairPolygon(p)
	if rerr != nil {
		return Outcome{Kind: Unrepairable, Err: fmt.Errorf("%v; repair: %w", err, rerr)}
	}
	polys, err = planarIntersect(repaired, box)
	if err != nil {
		return Outcome{Kind: Unrepairable, Repaired: true, Err: err}
	}
	return outcome(polys, true)
}

func outcome(polys []orb.Polygon, repaired bool) Outcome {
	if len(polys) == 0 {
		return Outcome{Kind: Disjoint, Repaired: repaired}
	}
	return Outcome{Kind: Intersected, Polygons: polys, Repaired: repaired}
}

func planarIntersect(p orb.Polygon, box orb.Bound) ([]orb.Polygon, error) {
	if len(p) == 0 {
		return nil, ErrDegenerateRing
	}
	for _, r := range p {
		if err := checkRing(r); err != nil {
			return nil, err
		}
	}
	if !p.Bound().Intersects(box) {
		return nil, nil
	}
	// clip uses its input as scratch space.
	clipped := clip.Polygon(box, p.Clone())
	if len(clipped) == 0 || len(clipped[0]) < 4 || planar.Area(clipped) == 0 {
		return nil, nil
	}
	return []orb.Polygon{clipped}, nil
}

func checkRing(r orb.Ring) error {
	for _, pt := range r {
		if !finite(pt) {
			return fmt.Errorf("%w: non-finite vertex %v", ErrDegenerateRing, pt)
		}
	}
	if distinct(r) < 3 {
		return fmt.Errorf("%w: fewer than 3 distinct vertices", ErrDegenerateRing)
	}
	return nil
}

func distinct(r orb.Ring) int {
	seen := make(map[orb.Point]struct{}, len(r))
	for _, pt := range r {
		seen[pt] = struct{}{}
	}
	return len(seen)
}

func repairPolygon(p orb.Polygon) (orb.Polygon, error) {
	if len(p) == 0 {
		return nil, ErrDegenerateRing
	}
	out := orb.Polygon{}
	for i, r := range p {
		fixed := repairRing(r)
		if err := checkRing(fixed); err != nil {
			if i == 0 {
				return nil, err
			}
			// a broken hole is dropped, the shell is kept
			continue
		}
		out = append(out, fixed)
	}
	return out, nil
}

func repairRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r)+1)
	for _, pt := range r {
		if !finite(pt) {
			continue
		}
		if len(out) > 0 && out[len(out)-1] == pt {
			continue
		}
		out = append(out, pt)
	}
	if len(out) > 0 && out[0] != out[len(out)-1] {
		out = append(out, out[0])
	}
	return out
}
