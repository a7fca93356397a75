package annotation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/paulmach/orb"
)

// Geometry is one named mining extent in geographic coordinates (lon, lat).
// It is read-only once loaded; Ring is shared between callers.
type Geometry struct {
	Name string
	Ring orb.Ring
}

var indexSuffix = regexp.MustCompile(`(_\d+)+$`)

// BaseSiteKey strips the trailing numeric index suffix from a site key or
// annotation name, e.g. "mozambique_manica_TSTM_2" -> "mozambique_manica_TSTM".
// Repeated numeric groups are removed together so the result is stable.
func BaseSiteKey(key string) string {
	return indexSuffix.ReplaceAllString(key, "")
}

type ParseError struct {
	Source string
	Name   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "annotation parse error"
	if e.Source != "" {
		msg += " in " + e.Source
	}
	if e.Name != "" {
		msg += fmt.Sprintf(" (geometry %q)", e.Name)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewGeometry validates and closes a ring. It needs at least three distinct
// positions once the closing vertex is ignored.
func NewGeometry(source, name string, ring orb.Ring) (Geometry, error) {
	n := len(ring)
	if n > 1 && ring[0] == ring[n-1] {
		n--
	}
	if n < 3 {
		return Geometry{}, &ParseError{Source: source, Name: name, Reason: fmt.Sprintf("polygon has %d vertices, need at least 3", n)}
	}
	closed := make(orb.Ring, n, n+1)
	copy(closed, ring[:n])
	closed = append(closed, closed[0])
	return Geometry{Name: name, Ring: closed}, nil
}

// Store is the loaded annotation set. It is safe for concurrent reads.
type Store struct {
	geometries []Geometry
	lowered    []string
}

func NewStore(geometries []Geometry) *Store {
	s := &Store{
		geometries: geometries,
		lowered:    make([]string, len(geometries)),
	}
	for i, g := range geometries {
		s.lowered[i] = strings.ToLower(BaseSiteKey(g.Name))
	}
	return s
}

func (s *Store) Len() int {
	return len(s.geometries)
}

func (s *Store) All() []Geometry {
	return s.geometries
}

// Match returns, in load order, every geometry whose suffix-stripped name
// contains baseSiteKey, ignoring case. An empty key matches nothing.
func (s *Store) Match(baseSiteKey string) []Geometry {
	key := strings.ToLower(strings.TrimSpace(baseSiteKey))
	if key == "" {
		return nil
	}
	var out []Geometry
	for i, name := range s.lowered {
		if strings.Contains(name, key) {
			out = append(out, s.geometries[i])
		}
	}
	return out
}
