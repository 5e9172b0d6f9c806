// Package testgeom holds a shared set of WKT fixtures, each marked valid or
// invalid, used by the geometry and meshing tests.
package testgeom

// Case is one fixture. Reason, when set, is the expected validity reason.
type Case struct {
	WKT     string
	Valid   bool
	Comment string
	Reason  string
}

// Geometries returns every fixture.
func Geometries() []Case {
	return []Case{
		// skipped by the mesher
		{WKT: "POINT(1 2)", Valid: true, Comment: "point"},
		{WKT: "LINESTRING(0 0,1 1)", Valid: true, Comment: "line"},
		{WKT: "MULTIPOINT((0 0),(1 1))", Valid: true, Comment: "multipoint"},
		{WKT: "MULTILINESTRING((0 0,1 1),(2 2,3 3))", Valid: true, Comment: "multiline"},
		{WKT: "CIRCULARSTRING(0 0,1 1,2 0)", Valid: true, Comment: "circular string"},
		{WKT: "COMPOUNDCURVE(CIRCULARSTRING(0 0,1 1,1 0),(1 0,0 1))", Valid: true, Comment: "compound curve"},
		{WKT: "CURVEPOLYGON(CIRCULARSTRING(0 0,4 0,4 4,0 4,0 0),(1 1,3 3,3 1,1 1))", Valid: true, Comment: "curve polygon"},
		{WKT: "MULTICURVE((0 0,5 5),CIRCULARSTRING(4 0,4 4,8 4))", Valid: true, Comment: "multicurve"},
		{WKT: "MULTISURFACE(CURVEPOLYGON(CIRCULARSTRING(0 0,4 0,4 4,0 4,0 0),(1 1,3 3,3 1,1 1)),((10 10,14 12,11 10,10 10)))", Valid: true, Comment: "multisurface"},

		// valid surfaces
		{WKT: "POLYGON((0 0,10 0,10 10,0 10,0 0))", Valid: true, Comment: "square"},
		{WKT: "SRID=2154;POLYGON((0 0,10 0,10 10,0 10,0 0))", Valid: true, Comment: "square with srid"},
		{WKT: "POLYGON((0 0,10 0,10 10,0 10,0 0),(2 2,2 4,4 4,4 2,2 2))", Valid: true, Comment: "one hole"},
		{WKT: "POLYGON((0 0,10 0,10 10,0 10,0 0),(2 2,2 4,4 4,4 2,2 2),(6 6,6 8,8 8,8 6,6 6))", Valid: true, Comment: "two holes"},
		{WKT: "POLYGON((0 0,4 0,4 4,2 1,0 4,0 0))", Valid: true, Comment: "concave"},
		{WKT: "POLYGON((0 0,5 0,5 0,10 0,10 10,0 10,0 0))", Valid: true, Comment: "repeated and collinear points"},
		{WKT: "POLYGON Z((0 0 1,10 0 1,10 10 1,0 10 1,0 0 1))", Valid: true, Comment: "horizontal 3d"},
		{WKT: "POLYGON Z((0 0 0,4 0 0,4 0 3,0 0 3,0 0 0))", Valid: true, Comment: "vertical wall"},
		{WKT: "POLYGON Z((0 0 0,10 0 10,10 10 10,0 10 0,0 0 0))", Valid: true, Comment: "tilted"},
		{WKT: "TRIANGLE((0 0,0 9,9 0,0 0))", Valid: true, Comment: "triangle"},
		{WKT: "MULTIPOLYGON(((0 0,1 0,1 1,0 1,0 0)),((2 2,3 2,3 3,2 3,2 2)))", Valid: true, Comment: "multipolygon"},
		{WKT: "GEOMETRYCOLLECTION(POINT(1 1),POLYGON((0 0,1 0,1 1,0 0)))", Valid: true, Comment: "collection"},
		{WKT: "POLYHEDRALSURFACE Z(((0 0 0,0 1 0,1 1 0,1 0 0,0 0 0)),((0 0 0,0 0 1,0 1 1,0 1 0,0 0 0)),((0 0 0,1 0 0,1 0 1,0 0 1,0 0 0)),((1 1 1,1 0 1,1 0 0,1 1 0,1 1 1)),((1 1 1,1 1 0,0 1 0,0 1 1,1 1 1)),((1 1 1,0 1 1,0 0 1,1 0 1,1 1 1)))", Valid: true, Comment: "cube"},
		{WKT: "TIN Z(((0 0 0,0 0 1,0 1 0,0 0 0)),((0 0 0,0 1 0,1 1 0,0 0 0)))", Valid: true, Comment: "tin"},
		{WKT: "POLYGON EMPTY", Valid: true, Comment: "empty"},

		// invalid surfaces
		{WKT: "POLYGON((0 0,10 10,10 0,0 10,0 0))", Comment: "bow tie", Reason: "ring self-intersection"},
		{WKT: "POLYGON((0 0,4 0,4 4,2 0,0 4,0 0))", Comment: "self touching ring", Reason: "ring self-intersection"},
		{WKT: "POLYGON((0 0,10 0,15 0,10 0,10 10,0 10,0 0))", Comment: "spike", Reason: "ring self-intersection"},
		{WKT: "POLYGON((0 0,10 0,10 10,0 10))", Comment: "unclosed ring", Reason: "ring is not closed"},
		{WKT: "POLYGON((0 0,10 0,0 0))", Comment: "too few points", Reason: "ring has fewer than 4 points"},
		{WKT: "POLYGON((0 0,10 0,10 10,0 10,0 0),(12 2,12 4,14 4,14 2,12 2))", Comment: "hole outside shell", Reason: "hole lies outside the outer ring"},
		{WKT: "POLYGON((0 0,10 0,10 10,0 10,0 0),(8 2,8 4,12 4,12 2,8 2))", Comment: "hole crossing shell", Reason: "hole lies outside the outer ring"},
		{WKT: "POLYGON((0 0,10 0,10 10,0 10,0 0),(2 2,4 2,4 4,2 4,2 2))", Comment: "hole wound like shell", Reason: "hole has the same orientation as the outer ring"},
		{WKT: "POLYGON((0 0,10 0,10 10,0 10,0 0),(1 1,1 9,9 9,9 1,1 1),(2 2,2 4,4 4,4 2,2 2))", Comment: "nested holes", Reason: "nested holes"},
		{WKT: "POLYGON((0 0,10 0,10 10,0 10,0 0),(1 1,1 5,5 5,5 1,1 1),(3 3,3 7,7 7,7 3,3 3))", Comment: "crossing holes", Reason: "holes cross each other"},
		{WKT: "POLYGON Z((0 0 0,1 0 0,1 1 0.5,0 1 0,0 0 0))", Comment: "non planar", Reason: "points are not coplanar"},
		{WKT: "MULTIPOLYGON(((0 0,1 0,1 1,0 1,0 0)),((0 0,10 10,10 0,0 10,0 0)))", Comment: "invalid element", Reason: "element 1: ring self-intersection"},
		{WKT: "POLYHEDRALSURFACE Z(((0 0 0,0 1 0,1 1 0,1 0 0,0 0 0)),((0 0 0,0 0 1,0 1 1,0 1 0,0 0 0)),((0 0 0,1 0 0,1 0 1,0 0 1,0 0 0)),((1 1 1,1 0 1,1 0 0,1 1 0,1 1 1)),((1 1 1,1 1 0,0 1 0,0 1 1,1 1 1)),((1 1 1,1 0 1,0 0 1,0 1 1,1 1 1)))", Comment: "cube with flipped face", Reason: "faces have inconsistent orientation"},
		{WKT: "MULTIPOLYGON(((0 0,10 0,10 10,0 10,0 0)),((5 5,15 5,15 15,5 15,5 5)))", Comment: "overlapping elements"},
	}
}
