package domain_test

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/testgeom"
)

func TestParseWKT_Types(t *testing.T) {
	tests := []struct {
		wkt  string
		want domain.GeometryType
		hasZ bool
	}{
		{"POINT(1 2)", domain.GeometryTypePoint, false},
		{"point z (1 2 3)", domain.GeometryTypePoint, true},
		{"POINTZ(1 2 3)", domain.GeometryTypePoint, true},
		{"LINESTRING(0 0,1 1)", domain.GeometryTypeLineString, false},
		{"POLYGON((0 0,1 0,1 1,0 0))", domain.GeometryTypePolygon, false},
		{"MULTIPOINT(0 0,1 1)", domain.GeometryTypeMultiPoint, false},
		{"MULTIPOLYGON(((0 0,1 0,1 1,0 0)))", domain.GeometryTypeMultiPolygon, false},
		{"POLYHEDRALSURFACE Z(((0 0 0,0 1 0,1 1 0,0 0 0)))", domain.GeometryTypePolyhedralSurface, true},
		{"TIN(((0 0,0 1,1 1,0 0)))", domain.GeometryTypeTIN, false},
		{"TRIANGLE((0 0,0 1,1 1,0 0))", domain.GeometryTypeTriangle, false},
		{"GEOMETRYCOLLECTION(POINT(1 1),LINESTRING(0 0,1 1))", domain.GeometryTypeGeometryCollection, false},
		{"CIRCULARSTRING(0 0,1 1,2 0)", domain.GeometryTypeCircularString, false},
		{"COMPOUNDCURVE(CIRCULARSTRING(0 0,1 1,1 0),(1 0,0 1))", domain.GeometryTypeCompoundCurve, false},
		{"MULTISURFACE(((0 0,1 0,1 1,0 0)))", domain.GeometryTypeMultiSurface, false},
		{"POINT M (1 2 3)", domain.GeometryTypePoint, false},
		{"POINT ZM (1 2 3 4)", domain.GeometryTypePoint, true},
		{"POLYGON EMPTY", domain.GeometryTypePolygon, false},
	}
	for _, tt := range tests {
		t.Run(tt.wkt, func(t *testing.T) {
			g, err := domain.ParseWKT(tt.wkt)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.Type != tt.want {
				t.Errorf("expected %v, got %v", tt.want, g.Type)
			}
			if g.HasZ != tt.hasZ {
				t.Errorf("expected HasZ=%v, got %v", tt.hasZ, g.HasZ)
			}
		})
	}
}

func TestParseWKT_Coordinates(t *testing.T) {
	g, err := domain.ParseWKT("SRID=4326;POLYGON Z((0 0 1,4 0 1,4 4 1,0 0 1),(1 1 1,2 1 1,2 2 1,1 1 1))")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.SRID != 4326 {
		t.Errorf("expected SRID 4326, got %d", g.SRID)
	}
	if len(g.Rings) != 2 {
		t.Fatalf("expected 2 rings, got %d", len(g.Rings))
	}
	if got := g.Rings[0][1]; got != (r3.Vec{X: 4, Y: 0, Z: 1}) {
		t.Errorf("expected (4 0 1), got %v", got)
	}
	if !g.Rings[1].Closed() {
		t.Error("expected closed hole")
	}
	if g.NumPoints() != 8 {
		t.Errorf("expected 8 points, got %d", g.NumPoints())
	}
}

func TestParseWKT_MeasureDropped(t *testing.T) {
	g, err := domain.ParseWKT("LINESTRING M (0 0 7,1 1 8)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.HasM || g.HasZ {
		t.Errorf("expected M only, got HasZ=%v HasM=%v", g.HasZ, g.HasM)
	}
	if g.Points[1].Z != 0 {
		t.Errorf("expected measure not to land in z, got %v", g.Points[1].Z)
	}
}

func TestParseWKT_Errors(t *testing.T) {
	tests := []string{
		"",
		"POLYGN((0 0,1 0,1 1,0 0))",
		"POLYGON((0 0,1 0,1 1,0 0)",
		"POLYGON((0 0,1 0 0,1 1,0 0))",
		"POINT(1)",
		"POINT(1 2) trailing",
		"SRID=abc;POINT(1 2)",
		"POINT(1 2.3.4)",
	}
	for _, wkt := range tests {
		t.Run(wkt, func(t *testing.T) {
			_, err := domain.ParseWKT(wkt)
			var pe *domain.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
		})
	}
}

func TestGeometry_StringRoundTrip(t *testing.T) {
	for _, c := range testgeom.Geometries() {
		g, err := domain.ParseWKT(c.WKT)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.Comment, err)
		}
		again, err := domain.ParseWKT(g.String())
		if err != nil {
			t.Fatalf("%s: cannot reparse %q: %v", c.Comment, g.String(), err)
		}
		if again.String() != g.String() {
			t.Errorf("%s: expected %q, got %q", c.Comment, g.String(), again.String())
		}
	}
}

func TestGeometryType_Triangulable(t *testing.T) {
	for _, typ := range []domain.GeometryType{
		domain.GeometryTypePoint, domain.GeometryTypeMultiPoint, domain.GeometryTypeLineString,
		domain.GeometryTypeMultiLineString, domain.GeometryTypeCircularString, domain.GeometryTypeCompoundCurve,
		domain.GeometryTypeCurvePolygon, domain.GeometryTypeMultiCurve, domain.GeometryTypeMultiSurface,
	} {
		if typ.Triangulable() {
			t.Errorf("expected %v to be skipped", typ)
		}
	}
	for _, typ := range []domain.GeometryType{
		domain.GeometryTypePolygon, domain.GeometryTypeMultiPolygon, domain.GeometryTypePolyhedralSurface,
		domain.GeometryTypeTIN, domain.GeometryTypeTriangle,
	} {
		if !typ.Triangulable() {
			t.Errorf("expected %v to be triangulable", typ)
		}
	}
}
