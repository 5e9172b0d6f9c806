package domain

import (
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

var wktKeywords = map[string]GeometryType{
	"POINT":              GeometryTypePoint,
	"LINESTRING":         GeometryTypeLineString,
	"POLYGON":            GeometryTypePolygon,
	"MULTIPOINT":         GeometryTypeMultiPoint,
	"MULTILINESTRING":    GeometryTypeMultiLineString,
	"MULTIPOLYGON":       GeometryTypeMultiPolygon,
	"GEOMETRYCOLLECTION": GeometryTypeGeometryCollection,
	"POLYHEDRALSURFACE":  GeometryTypePolyhedralSurface,
	"TIN":                GeometryTypeTIN,
	"TRIANGLE":           GeometryTypeTriangle,
	"CIRCULARSTRING":     GeometryTypeCircularString,
	"COMPOUNDCURVE":      GeometryTypeCompoundCurve,
	"CURVEPOLYGON":       GeometryTypeCurvePolygon,
	"MULTICURVE":         GeometryTypeMultiCurve,
	"MULTISURFACE":       GeometryTypeMultiSurface,
}

// dims describes the ordinates present in each coordinate tuple.
type dims int

const (
	dimsUnknown dims = iota
	dimsXY
	dimsXYZ
	dimsXYM
	dimsXYZM
)

// ParseWKT parses a well-known text (or PostGIS EWKT) literal. It accepts an
// optional SRID=n; prefix, Z/M/ZM dimension tags (separate or glued to the
// keyword) and EMPTY members. Errors are *ParseError.
func ParseWKT(text string) (Geometry, error) {
	p := &wktParser{src: text}
	p.skipSpace()

	srid := 0
	if p.hasPrefixFold("SRID=") {
		p.pos += len("SRID=")
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] != ';' {
			p.pos++
		}
		if p.pos >= len(p.src) {
			return Geometry{}, p.errorf("missing ';' after SRID")
		}
		n, err := strconv.Atoi(strings.TrimSpace(p.src[start:p.pos]))
		if err != nil {
			return Geometry{}, p.errorf("invalid SRID %q", p.src[start:p.pos])
		}
		srid = n
		p.pos++
	}

	g, err := p.parseTagged(dimsUnknown)
	if err != nil {
		return Geometry{}, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return Geometry{}, p.errorf("unexpected trailing text %q", p.src[p.pos:])
	}
	g.SRID = srid
	return g, nil
}

type wktParser struct {
	src string
	pos int
}

func (p *wktParser) errorf(format string, args ...any) *ParseError {
	return newParseError(p.pos, format, args...)
}

func (p *wktParser) skipSpace() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *wktParser) hasPrefixFold(s string) bool {
	return len(p.src)-p.pos >= len(s) && strings.EqualFold(p.src[p.pos:p.pos+len(s)], s)
}

func (p *wktParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *wktParser) expect(c byte) error {
	if p.peek() != c {
		if p.pos >= len(p.src) {
			return p.errorf("expected %q, got end of input", c)
		}
		return p.errorf("expected %q, got %q", c, p.src[p.pos])
	}
	p.pos++
	return nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (p *wktParser) word() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) && isLetter(p.src[p.pos]) {
		p.pos++
	}
	return strings.ToUpper(p.src[start:p.pos])
}

// peekWord returns the next word without consuming it.
func (p *wktParser) peekWord() string {
	save := p.pos
	w := p.word()
	p.pos = save
	return w
}

// keyword resolves a tag such as "POLYGON", "POLYGONZ" or "POINTZM".
func keyword(w string) (GeometryType, dims, bool) {
	if t, ok := wktKeywords[w]; ok {
		return t, dimsUnknown, true
	}
	for _, suffix := range []struct {
		s string
		d dims
	}{{"ZM", dimsXYZM}, {"Z", dimsXYZ}, {"M", dimsXYM}} {
		if base, ok := strings.CutSuffix(w, suffix.s); ok {
			if t, ok := wktKeywords[base]; ok {
				return t, suffix.d, true
			}
		}
	}
	return GeometryTypeUnknown, dimsUnknown, false
}

// parseTagged parses "KEYWORD [Z|M|ZM] (EMPTY | body)". Members inherit the
// dimensions declared by their parent unless they declare their own.
func (p *wktParser) parseTagged(inherited dims) (Geometry, error) {
	start := p.pos
	w := p.word()
	if w == "" {
		return Geometry{}, p.errorf("expected geometry keyword")
	}
	t, d, ok := keyword(w)
	if !ok {
		p.pos = start
		return Geometry{}, p.errorf("unknown geometry type %q", w)
	}
	if d == dimsUnknown {
		switch p.peekWord() {
		case "Z":
			p.word()
			d = dimsXYZ
		case "M":
			p.word()
			d = dimsXYM
		case "ZM":
			p.word()
			d = dimsXYZM
		}
	}
	if d == dimsUnknown {
		d = inherited
	}
	if p.peekWord() == "EMPTY" {
		p.word()
		return Geometry{Type: t, HasZ: d == dimsXYZ || d == dimsXYZM, HasM: d == dimsXYM || d == dimsXYZM}, nil
	}
	return p.parseBody(t, d)
}

// parseBody parses the parenthesised part of a geometry of type t.
func (p *wktParser) parseBody(t GeometryType, d dims) (Geometry, error) {
	g := Geometry{Type: t}
	var err error
	switch t {
	case GeometryTypePoint:
		if err = p.expect('('); err != nil {
			return g, err
		}
		var pt r3.Vec
		if pt, d, err = p.coord(d); err != nil {
			return g, err
		}
		g.Points = []r3.Vec{pt}
		err = p.expect(')')
	case GeometryTypeLineString, GeometryTypeCircularString:
		g.Points, d, err = p.coordList(d)
	case GeometryTypePolygon, GeometryTypeTriangle:
		g.Rings, d, err = p.ringList(d)
	case GeometryTypeMultiPoint:
		g.Children, d, err = p.members(d, p.multiPointMember)
	case GeometryTypeGeometryCollection:
		g.Children, d, err = p.members(d, func(d dims) (Geometry, dims, error) {
			c, err := p.parseTagged(d)
			return c, memberDims(c, d), err
		})
	default:
		def := defaultMemberType(t)
		g.Children, d, err = p.members(d, func(d dims) (Geometry, dims, error) {
			return p.member(def, d)
		})
	}
	g.HasZ = d == dimsXYZ || d == dimsXYZM
	g.HasM = d == dimsXYM || d == dimsXYZM
	return g, err
}

func memberDims(c Geometry, d dims) dims {
	if d != dimsUnknown {
		return d
	}
	switch {
	case c.HasZ && c.HasM:
		return dimsXYZM
	case c.HasZ:
		return dimsXYZ
	case c.HasM:
		return dimsXYM
	}
	return d
}

// member parses a collection element: an untagged body of type def, EMPTY,
// or a tagged geometry.
func (p *wktParser) member(def GeometryType, d dims) (Geometry, dims, error) {
	switch c := p.peek(); {
	case c == '(':
		g, err := p.parseBody(def, d)
		return g, memberDims(g, d), err
	case isLetter(c):
		if p.peekWord() == "EMPTY" {
			p.word()
			return Geometry{Type: def}, d, nil
		}
		g, err := p.parseTagged(d)
		return g, memberDims(g, d), err
	default:
		return Geometry{}, d, p.errorf("expected '(' or geometry keyword")
	}
}

// multiPointMember accepts both MULTIPOINT((1 2),(3 4)) and MULTIPOINT(1 2, 3 4).
func (p *wktParser) multiPointMember(d dims) (Geometry, dims, error) {
	switch c := p.peek(); {
	case c == '(':
		g, err := p.parseBody(GeometryTypePoint, d)
		return g, memberDims(g, d), err
	case isLetter(c) && p.peekWord() == "EMPTY":
		p.word()
		return Geometry{Type: GeometryTypePoint}, d, nil
	default:
		pt, d, err := p.coord(d)
		g := Geometry{
			Type:   GeometryTypePoint,
			Points: []r3.Vec{pt},
			HasZ:   d == dimsXYZ || d == dimsXYZM,
			HasM:   d == dimsXYM || d == dimsXYZM,
		}
		return g, d, err
	}
}

func (p *wktParser) members(d dims, next func(dims) (Geometry, dims, error)) ([]Geometry, dims, error) {
	if err := p.expect('('); err != nil {
		return nil, d, err
	}
	var out []Geometry
	for {
		g, nd, err := next(d)
		if err != nil {
			return nil, d, err
		}
		d = nd
		out = append(out, g)
		if p.peek() == ',' {
			p.pos++
			continue
		}
		return out, d, p.expect(')')
	}
}

func (p *wktParser) ringList(d dims) ([]Ring, dims, error) {
	if err := p.expect('('); err != nil {
		return nil, d, err
	}
	var rings []Ring
	for {
		pts, nd, err := p.coordList(d)
		if err != nil {
			return nil, d, err
		}
		d = nd
		rings = append(rings, Ring(pts))
		if p.peek() == ',' {
			p.pos++
			continue
		}
		return rings, d, p.expect(')')
	}
}

func (p *wktParser) coordList(d dims) ([]r3.Vec, dims, error) {
	if err := p.expect('('); err != nil {
		return nil, d, err
	}
	var pts []r3.Vec
	for {
		pt, nd, err := p.coord(d)
		if err != nil {
			return nil, d, err
		}
		d = nd
		pts = append(pts, pt)
		if p.peek() == ',' {
			p.pos++
			continue
		}
		return pts, d, p.expect(')')
	}
}

// coord reads one tuple of 2 to 4 ordinates. When the dimensions are not
// declared they are inferred from the first tuple and enforced afterwards.
func (p *wktParser) coord(d dims) (r3.Vec, dims, error) {
	var vals [4]float64
	n := 0
	for n < 4 {
		c := p.peek()
		if c != '-' && c != '+' && c != '.' && (c < '0' || c > '9') {
			break
		}
		v, err := p.number()
		if err != nil {
			return r3.Vec{}, d, err
		}
		vals[n] = v
		n++
	}
	if n < 2 {
		return r3.Vec{}, d, p.errorf("expected at least 2 ordinates, got %d", n)
	}
	if d == dimsUnknown {
		switch n {
		case 2:
			d = dimsXY
		case 3:
			d = dimsXYZ
		default:
			d = dimsXYZM
		}
	}
	want := map[dims]int{dimsXY: 2, dimsXYZ: 3, dimsXYM: 3, dimsXYZM: 4}[d]
	if n != want {
		return r3.Vec{}, d, p.errorf("expected %d ordinates, got %d", want, n)
	}
	pt := r3.Vec{X: vals[0], Y: vals[1]}
	if d == dimsXYZ || d == dimsXYZM {
		pt.Z = vals[2]
	}
	return pt, d, nil
}

func (p *wktParser) number() (float64, error) {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			p.pos++
			continue
		}
		break
	}
	tok := p.src[start:p.pos]
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		p.pos = start
		return 0, p.errorf("invalid number %q", tok)
	}
	return v, nil
}
