package domain_test

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/samirrijal/horao/internal/core/domain"
)

func TestSourceQuery_Resource(t *testing.T) {
	q := domain.SourceQuery{
		ConnInfo:       "dbname=lyon user=ro",
		Center:         "1841372 5175473",
		FeatureID:      "gid",
		GeometryColumn: "geom",
		Query:          `SELECT gid, geom FROM "bati" WHERE geom && ST_MakeEnvelope(0,0,5,5)`,
	}
	want := `conn_info="dbname=lyon user=ro" center="1841372 5175473" feature_id="gid" geometry_column="geom" ` +
		`query="SELECT gid, geom FROM "bati" WHERE geom && ST_MakeEnvelope(0,0,5,5)".postgisd`
	if got := q.Resource(); got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
	back, err := domain.ParseResource(want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != q {
		t.Errorf("expected %+v, got %+v", q, back)
	}
}

func TestParseResource_Malformed(t *testing.T) {
	for _, s := range []string{
		"tile.osgb",
		`conn_info="x" query="q".postgisd`,
		`center="x" conn_info="x" feature_id="a" geometry_column="b" query="q".postgisd`,
	} {
		if _, err := domain.ParseResource(s); err == nil {
			t.Errorf("expected error for %q", s)
		}
	}
}

func TestParseCenter(t *testing.T) {
	v, err := domain.ParseCenter(" 10 20 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != (r3.Vec{X: 10, Y: 20}) {
		t.Errorf("expected (10 20 0), got %v", v)
	}
	if v, _ := domain.ParseCenter("1 2 3"); v.Z != 3 {
		t.Errorf("expected z 3, got %v", v.Z)
	}
	for _, s := range []string{"10", "NaN 0", "0 Inf", "1 2 -Inf"} {
		_, err = domain.ParseCenter(s)
		var ce *domain.ConfigError
		if !errors.As(err, &ce) || ce.Key != "center" {
			t.Errorf("%q: expected center ConfigError, got %v", s, err)
		}
	}
}

func TestTileDescriptor_PagedLOD(t *testing.T) {
	d := domain.TileDescriptor{
		ID:     domain.TileID{X: 1, Y: 2},
		Radius: 3,
		Levels: []domain.LevelQuery{
			{Level: 1, Child: 0, Near: 0, Far: 50, Resource: "near"},
			{Level: 0, Child: 1, Near: 50, Far: 100, Resource: "far"},
		},
	}
	p := d.PagedLOD()
	if len(p.Ranges) != 2 {
		t.Fatalf("expected 2 ranges, got %d", len(p.Ranges))
	}
	if p.Ranges[1].Resource != "far" || !p.Ranges[1].Active(75) || p.Ranges[1].Active(100) {
		t.Errorf("unexpected far range %+v", p.Ranges[1])
	}
	if p.Tile.String() != "1_2" {
		t.Errorf("expected 1_2, got %s", p.Tile)
	}
}
