package labels

import (
	"errors"
	"fmt"

	"github.com/forest-guardian/global-mining-labels/internal/annotation"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/forest-guardian/global-mining-labels/internal/logger"
	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

const resolverTag = "resolver: "

// Resolution is the polygon set resolved for one site and footprint.
type Resolution struct {
	Polygons   []orb.Polygon
	Candidates int
	Skipped    []*GeometryRepairFailure
}

// PolygonResolver is what the base mask cache needs from a resolver.
type PolygonResolver interface {
	Resolve(baseSiteKey string, fp geo.Footprint) (Resolution, error)
}

type Resolver struct {
	store     *annotation.Store
	projector geo.Projector
	clipper   geo.Clipper
}

func NewResolver(store *annotation.Store, projector geo.Projector, clipper geo.Clipper) *Resolver {
	return &Resolver{store: store, projector: projector, clipper: clipper}
}

// Resolve reprojects every annotation matching baseSiteKey into the footprint
// CRS and intersects it with the footprint box. Output order follows the
// annotation order. Per-polygon failures are logged and dropped; only an
// unresolvable CRS is returned as an error.
func (r *Resolver) Resolve(baseSiteKey string, fp geo.Footprint) (Resolution, error) {
	project, err := r.projector.Build(fp.CRS)
	if err != nil {
		var ue *geo.UnsupportedCRSError
		if !errors.As(err, &ue) {
			err = &geo.UnsupportedCRSError{CRS: fp.CRS, Err: err}
		}
		return Resolution{}, err
	}

	candidates := r.store.Match(baseSiteKey)
	res := Resolution{Candidates: len(candidates)}

	for i, g := range candidates {
		ring, err := geo.ProjectRing(g.Ring, project)
		if err != nil {
			res.skip(g.Name, fmt.Errorf("reprojection: %w", err))
			continue
		}
		poly := orb.Polygon{ring}

		out := r.clipper.TryIntersect(poly, fp.Bounds)
		logger.Debug(resolverTag+"polygon check",
			zap.Int("n", i+1),
			zap.String("name", g.Name),
			zap.Float64s("bounds", boundSlice(ring.Bound())),
			zap.Stringer("outcome", out.Kind),
			zap.Bool("repaired", out.Repaired))

		switch out.Kind {
		case geo.Intersected:
			if out.Repaired {
				logger.Warn(resolverTag+"intersection needed geometry repair", zap.String("name", g.Name))
			}
			res.Polygons = append(res.Polygons, out.Polygons...)
		case geo.Disjoint:
		case geo.Unrepairable:
			res.skip(g.Name, out.Err)
		}
	}

	logger.Info(resolverTag+"resolved site",
		zap.String("base_site", baseSiteKey),
		zap.Int("candidates", res.Candidates),
		zap.Int("intersecting", len(res.Polygons)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

func (res *Resolution) skip(name string, err error) {
	f := &GeometryRepairFailure{Name: name, Err: err}
	logger.Warn(resolverTag+"polygon skipped", zap.String("name", name), zap.Error(err))
	res.Skipped = append(res.Skipped, f)
}

func boundSlice(b orb.Bound) []float64 {
	return []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}
