package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// ResourceSuffix selects the feature loader in the scene's loader registry.
const ResourceSuffix = ".postgisd"

// SourceQuery is everything needed to turn one database query into a mesh.
type SourceQuery struct {
	ConnInfo       string
	Center         string
	FeatureID      string
	GeometryColumn string
	Query          string
}

var resourceKeys = []string{"conn_info", "center", "feature_id", "geometry_column", "query"}

// Resource encodes the query as the pseudo file name understood by the
// feature loader.
func (q SourceQuery) Resource() string {
	return fmt.Sprintf(`conn_info="%s" center="%s" feature_id="%s" geometry_column="%s" query="%s"%s`,
		q.ConnInfo, q.Center, q.FeatureID, q.GeometryColumn, q.Query, ResourceSuffix)
}

// ParseResource decodes a string produced by SourceQuery.Resource.
func ParseResource(resource string) (SourceQuery, error) {
	rest, ok := strings.CutSuffix(resource, `"`+ResourceSuffix)
	if !ok {
		return SourceQuery{}, fmt.Errorf("resource %q: missing %s suffix", resource, ResourceSuffix)
	}
	values := make([]string, len(resourceKeys))
	for i, key := range resourceKeys {
		open := key + `="`
		if i > 0 {
			open = `" ` + open
		}
		if !strings.HasPrefix(rest, open) {
			return SourceQuery{}, fmt.Errorf("resource %q: expected %s", resource, key)
		}
		rest = rest[len(open):]
		if i == len(resourceKeys)-1 {
			values[i] = rest
			break
		}
		end := strings.Index(rest, `" `+resourceKeys[i+1]+`="`)
		if end < 0 {
			return SourceQuery{}, fmt.Errorf("resource %q: expected %s", resource, resourceKeys[i+1])
		}
		values[i], rest = rest[:end], rest[end:]
	}
	return SourceQuery{
		ConnInfo:       values[0],
		Center:         values[1],
		FeatureID:      values[2],
		GeometryColumn: values[3],
		Query:          values[4],
	}, nil
}

// ParseCenter reads "x y" or "x y z".
func ParseCenter(s string) (r3.Vec, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 && len(fields) != 3 {
		return r3.Vec{}, &ConfigError{Key: "center", Reason: fmt.Sprintf("expected \"x y [z]\", got %q", s)}
	}
	var v [3]float64
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return r3.Vec{}, &ConfigError{Key: "center", Reason: fmt.Sprintf("invalid number %q", f)}
		}
		v[i] = n
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}
