package command

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/horao/internal/core/domain"
)

// VectorRequest builds a loadVectorPostgis request. The presence of lod
// selects LOD mode; per-level keys are collected for every level the
// distances imply and checked by the planner.
func VectorRequest(attrs Attributes) (domain.VectorLayerRequest, error) {
	var req domain.VectorLayerRequest
	var err error
	if req.ID, err = attrs.Require("id"); err != nil {
		return req, err
	}
	if req.ConnInfo, err = attrs.Require("conn_info"); err != nil {
		return req, err
	}
	if req.Center, err = attrs.Require("center"); err != nil {
		return req, err
	}

	if _, ok := attrs.Get("lod"); !ok {
		req.Source = domain.LevelSource{
			FeatureID:      attrs["feature_id"],
			GeometryColumn: attrs["geometry_column"],
			Query:          attrs["query"],
		}
		return req, nil
	}

	lod, err := attrs.Require("lod")
	if err != nil {
		return req, err
	}
	spec := &domain.LODSpec{}
	if spec.Distances, err = ParseDistances(lod); err != nil {
		return req, err
	}
	extent, err := attrs.Require("extend")
	if err != nil {
		return req, err
	}
	if spec.Extent, err = ParseExtent(extent); err != nil {
		return req, err
	}
	ts, err := attrs.Require("tile_size")
	if err != nil {
		return req, err
	}
	if spec.TileSize, err = strconv.ParseFloat(strings.TrimSpace(ts), 64); err != nil {
		return req, &domain.ConfigError{Key: "tile_size", Reason: fmt.Sprintf("cannot parse %q", ts)}
	}
	for i := 0; i < len(spec.Distances)-1; i++ {
		spec.Levels = append(spec.Levels, domain.LevelSource{
			FeatureID:      attrs[fmt.Sprintf("feature_id_%d", i)],
			GeometryColumn: attrs[fmt.Sprintf("geometry_column_%d", i)],
			Query:          attrs[fmt.Sprintf("query_%d", i)],
		})
	}
	req.LOD = spec
	return req, nil
}

// ParseDistances reads the space-separated lod distances.
func ParseDistances(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		d, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, &domain.ConfigError{Key: "lod", Reason: fmt.Sprintf("cannot parse distance %q", f)}
		}
		out = append(out, d)
	}
	return out, nil
}

// ParseExtent reads "xmin ymin,xmax ymax".
func ParseExtent(s string) (orb.Bound, error) {
	bad := &domain.ConfigError{Key: "extend", Reason: fmt.Sprintf("cannot parse %q, expected \"xmin ymin,xmax ymax\"", s)}
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Bound{}, bad
	}
	lower, err := parsePoint(lo)
	if err != nil {
		return orb.Bound{}, bad
	}
	upper, err := parsePoint(hi)
	if err != nil {
		return orb.Bound{}, bad
	}
	return orb.Bound{Min: lower, Max: upper}, nil
}

func parsePoint(s string) (orb.Point, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return orb.Point{}, fmt.Errorf("expected 2 ordinates, got %d", len(fields))
	}
	var p orb.Point
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return orb.Point{}, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return orb.Point{}, fmt.Errorf("ordinate %q is not finite", f)
		}
		p[i] = v
	}
	return p, nil
}
