package annotation

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// LoadKML reads every named Placemark. Each coordinates element outside an
// innerBoundaryIs becomes one Geometry carrying the Placemark name; holes are
// not part of the annotation model.
func LoadKML(r io.Reader, source string) ([]Geometry, error) {
	dec := xml.NewDecoder(r)

	var (
		out     []Geometry
		stack   []string
		inPM    bool
		pmName  string
		pmRings []orb.Ring
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Source: source, Reason: "malformed KML", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "Placemark":
				inPM, pmName, pmRings = true, "", nil
				stack = append(stack, name)
			case inPM && name == "name" && pmName == "":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return nil, &ParseError{Source: source, Reason: "malformed Placemark name", Err: err}
				}
				pmName = strings.TrimSpace(text)
			case inPM && name == "coordinates":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return nil, &ParseError{Source: source, Name: pmName, Reason: "malformed coordinates", Err: err}
				}
				if contains(stack, "innerBoundaryIs") {
					continue
				}
				ring, err := parseCoordinates(text)
				if err != nil {
					return nil, &ParseError{Source: source, Name: pmName, Reason: "invalid coordinates", Err: err}
				}
				pmRings = append(pmRings, ring)
			default:
				stack = append(stack, name)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if t.Name.Local != "Placemark" || !inPM {
				continue
			}
			inPM = false
			if pmName == "" {
				continue
			}
			for _, ring := range pmRings {
				g, err := NewGeometry(source, pmName, ring)
				if err != nil {
					return nil, err
				}
				out = append(out, g)
			}
		}
	}

	if inPM {
		return nil, &ParseError{Source: source, Reason: "unterminated Placemark"}
	}
	return out, nil
}

// parseCoordinates reads whitespace separated "lon,lat[,alt]" tuples.
func parseCoordinates(text string) (orb.Ring, error) {
	fields := strings.Fields(text)
	ring := make(orb.Ring, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("tuple %q has fewer than two values", f)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("longitude in %q: %w", f, err)
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("latitude in %q: %w", f, err)
		}
		ring = append(ring, orb.Point{lon, lat})
	}
	return ring, nil
}

func contains(stack []string, name string) bool {
	for _, s := range stack {
		if s == name {
			return true
		}
	}
	return false
}
