package domain

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// GeometryType classifies a parsed geometry.
type GeometryType int

const (
	GeometryTypeUnknown GeometryType = iota
	GeometryTypePoint
	GeometryTypeLineString
	GeometryTypePolygon
	GeometryTypeMultiPoint
	GeometryTypeMultiLineString
	GeometryTypeMultiPolygon
	GeometryTypeGeometryCollection
	GeometryTypePolyhedralSurface
	GeometryTypeTIN
	GeometryTypeTriangle
	GeometryTypeCircularString
	GeometryTypeCompoundCurve
	GeometryTypeCurvePolygon
	GeometryTypeMultiCurve
	GeometryTypeMultiSurface
)

var geometryTypeNames = [...]string{
	GeometryTypeUnknown:            "Unknown",
	GeometryTypePoint:              "Point",
	GeometryTypeLineString:         "LineString",
	GeometryTypePolygon:            "Polygon",
	GeometryTypeMultiPoint:         "MultiPoint",
	GeometryTypeMultiLineString:    "MultiLineString",
	GeometryTypeMultiPolygon:       "MultiPolygon",
	GeometryTypeGeometryCollection: "GeometryCollection",
	GeometryTypePolyhedralSurface:  "PolyhedralSurface",
	GeometryTypeTIN:                "TIN",
	GeometryTypeTriangle:           "Triangle",
	GeometryTypeCircularString:     "CircularString",
	GeometryTypeCompoundCurve:      "CompoundCurve",
	GeometryTypeCurvePolygon:       "CurvePolygon",
	GeometryTypeMultiCurve:         "MultiCurve",
	GeometryTypeMultiSurface:       "MultiSurface",
}

// String returns the OGC name of the type.
func (t GeometryType) String() string {
	if t < 0 || int(t) >= len(geometryTypeNames) {
		return geometryTypeNames[GeometryTypeUnknown]
	}
	return geometryTypeNames[t]
}

// keyword is the upper-case WKT tag.
func (t GeometryType) keyword() string {
	return strings.ToUpper(t.String())
}

// Triangulable reports whether geometries of this type bound an area or a
// volume that can be meshed. Points, lines and the whole curve family are
// excluded and must be skipped by callers.
func (t GeometryType) Triangulable() bool {
	switch t {
	case GeometryTypePolygon,
		GeometryTypeMultiPolygon,
		GeometryTypePolyhedralSurface,
		GeometryTypeTIN,
		GeometryTypeTriangle,
		GeometryTypeGeometryCollection:
		return true
	default:
		return false
	}
}

// Ring is a sequence of points, closed when first == last.
type Ring []r3.Vec

// Closed reports whether the first and last points coincide.
func (r Ring) Closed() bool {
	return len(r) > 1 && r[0] == r[len(r)-1]
}

// Geometry is a parsed geometry tree. Which fields are populated depends on
// Type:
//   - Point, LineString, CircularString: Points
//   - Polygon, Triangle: Rings (Rings[0] is the exterior, the rest are holes)
//   - every collection-like type, including PolyhedralSurface, TIN,
//     CompoundCurve and CurvePolygon: Children
//
// A Geometry is never mutated after parsing.
type Geometry struct {
	Type     GeometryType
	SRID     int
	HasZ     bool
	HasM     bool
	Points   []r3.Vec
	Rings    []Ring
	Children []Geometry
}

// IsEmpty reports whether the geometry holds no coordinates at all.
func (g Geometry) IsEmpty() bool {
	return g.NumPoints() == 0
}

// NumPoints counts every coordinate in the tree, closing points included.
func (g Geometry) NumPoints() int {
	n := len(g.Points)
	for _, r := range g.Rings {
		n += len(r)
	}
	for _, c := range g.Children {
		n += c.NumPoints()
	}
	return n
}

// String renders the geometry back to WKT. M ordinates are not kept by the
// parser, so they are not written either.
func (g Geometry) String() string {
	var b strings.Builder
	if g.SRID != 0 {
		b.WriteString("SRID=")
		b.WriteString(strconv.Itoa(g.SRID))
		b.WriteByte(';')
	}
	g.writeTagged(&b)
	return b.String()
}

func (g Geometry) writeTagged(b *strings.Builder) {
	b.WriteString(g.Type.keyword())
	if g.HasZ {
		b.WriteString(" Z")
	}
	b.WriteByte(' ')
	if g.IsEmpty() {
		b.WriteString("EMPTY")
		return
	}
	g.writeBody(b)
}

func (g Geometry) writeBody(b *strings.Builder) {
	switch g.Type {
	case GeometryTypePoint, GeometryTypeLineString, GeometryTypeCircularString:
		writeCoords(b, g.Points, g.HasZ)
	case GeometryTypePolygon, GeometryTypeTriangle:
		writeRings(b, g.Rings, g.HasZ)
	case GeometryTypeGeometryCollection, GeometryTypeCompoundCurve, GeometryTypeCurvePolygon,
		GeometryTypeMultiCurve, GeometryTypeMultiSurface:
		// members of these collections may carry their own tag
		b.WriteByte('(')
		for i, c := range g.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			if c.Type == defaultMemberType(g.Type) && !c.IsEmpty() {
				c.writeBody(b)
				continue
			}
			c.writeTagged(b)
		}
		b.WriteByte(')')
	default:
		b.WriteByte('(')
		for i, c := range g.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			if c.IsEmpty() {
				b.WriteString("EMPTY")
				continue
			}
			c.writeBody(b)
		}
		b.WriteByte(')')
	}
}

// defaultMemberType is the type of an untagged member of a collection.
func defaultMemberType(t GeometryType) GeometryType {
	switch t {
	case GeometryTypeMultiPoint:
		return GeometryTypePoint
	case GeometryTypeMultiLineString, GeometryTypeCompoundCurve, GeometryTypeCurvePolygon, GeometryTypeMultiCurve:
		return GeometryTypeLineString
	case GeometryTypeMultiPolygon, GeometryTypePolyhedralSurface, GeometryTypeMultiSurface:
		return GeometryTypePolygon
	case GeometryTypeTIN:
		return GeometryTypeTriangle
	default:
		return GeometryTypeUnknown
	}
}

func writeRings(b *strings.Builder, rings []Ring, hasZ bool) {
	b.WriteByte('(')
	for i, r := range rings {
		if i > 0 {
			b.WriteString(", ")
		}
		writeCoords(b, r, hasZ)
	}
	b.WriteByte(')')
}

func writeCoords(b *strings.Builder, pts []r3.Vec, hasZ bool) {
	b.WriteByte('(')
	for i, p := range pts {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatFloat(p.X))
		b.WriteByte(' ')
		b.WriteString(formatFloat(p.Y))
		if hasZ {
			b.WriteByte(' ')
			b.WriteString(formatFloat(p.Z))
		}
	}
	b.WriteByte(')')
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
