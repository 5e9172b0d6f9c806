package usecases_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samirrijal/horao/internal/core/domain"
	"github.com/samirrijal/horao/internal/core/usecases"
)

// --- Mock FeatureRepository ---

type mockFeatureRepo struct {
	featuresFn func(ctx context.Context, q domain.SourceQuery) ([]domain.Feature, error)
	calls      int
}

func (m *mockFeatureRepo) Features(ctx context.Context, q domain.SourceQuery) ([]domain.Feature, error) {
	m.calls++
	if m.featuresFn != nil {
		return m.featuresFn(ctx, q)
	}
	return nil, nil
}

// --- Mock CacheService ---

type mockCache struct {
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.data, key)
	return nil
}

var buildingsQuery = domain.SourceQuery{
	ConnInfo:       "dbname=city",
	Center:         "10 10 0",
	FeatureID:      "gid",
	GeometryColumn: "geom",
	Query:          "SELECT gid, geom FROM buildings",
}

func buildingRows(ctx context.Context, q domain.SourceQuery) ([]domain.Feature, error) {
	return []domain.Feature{
		{ID: "1", WKT: "POLYGON((10 10,12 10,12 12,10 12,10 10))"},
		{ID: "2", WKT: "POINT(11 11)"},
		{ID: "3", WKT: "POLYGON((0 0,1 0"},
	}, nil
}

func TestTileService_ResolveMesh(t *testing.T) {
	var got domain.SourceQuery
	repo := &mockFeatureRepo{
		featuresFn: func(ctx context.Context, q domain.SourceQuery) ([]domain.Feature, error) {
			got = q
			return buildingRows(ctx, q)
		},
	}

	svc := usecases.NewTileService(repo, nil, 0)
	m, stats, err := svc.ResolveMesh(context.Background(), buildingsQuery.Resource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != buildingsQuery {
		t.Errorf("expected query %+v, got %+v", buildingsQuery, got)
	}
	if m.NumTriangles() != 2 {
		t.Errorf("expected 2 triangles, got %d", m.NumTriangles())
	}
	if m.Origin.X != 10 || m.Origin.Y != 10 {
		t.Errorf("expected origin (10 10 0), got %v", m.Origin)
	}
	for _, v := range m.Vertices {
		if v.X < 0 || v.X > 2 || v.Y < 0 || v.Y > 2 {
			t.Errorf("vertex %v not relative to origin", v)
		}
	}
	if stats.Pushed != 1 || stats.Skipped != 1 || stats.Unparsable != 1 {
		t.Errorf("expected 1 pushed, 1 skipped, 1 unparsable, got %+v", stats)
	}
}

func TestTileService_Resolve(t *testing.T) {
	svc := usecases.NewTileService(&mockFeatureRepo{featuresFn: buildingRows}, nil, 0)
	node, err := svc.Resolve(context.Background(), buildingsQuery.Resource())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node.Kind() != domain.NodeKindMesh {
		t.Errorf("expected mesh node, got %v", node.Kind())
	}
}

func TestTileService_CachesMesh(t *testing.T) {
	repo := &mockFeatureRepo{featuresFn: buildingRows}
	cache := newMockCache()
	svc := usecases.NewTileService(repo, cache, 60)
	resource := buildingsQuery.Resource()

	first, _, err := svc.ResolveMesh(context.Background(), resource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, ok := cache.data[usecases.MeshCacheKey(resource)]
	if !ok {
		t.Fatal("expected mesh to be cached")
	}
	var cached domain.RenderableMesh
	if err := json.Unmarshal(data, &cached); err != nil {
		t.Fatalf("cached mesh is not JSON: %v", err)
	}
	if cached.NumTriangles() != first.NumTriangles() {
		t.Errorf("expected %d cached triangles, got %d", first.NumTriangles(), cached.NumTriangles())
	}

	second, stats, err := svc.ResolveMesh(context.Background(), resource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 1 {
		t.Errorf("expected 1 repository call, got %d", repo.calls)
	}
	if second.NumTriangles() != 2 || stats.Triangles != 2 {
		t.Errorf("expected 2 triangles from cache, got %d", second.NumTriangles())
	}
}

func TestTileService_CorruptCacheEntry(t *testing.T) {
	repo := &mockFeatureRepo{featuresFn: buildingRows}
	cache := newMockCache()
	resource := buildingsQuery.Resource()
	cache.data[usecases.MeshCacheKey(resource)] = []byte("not json")

	svc := usecases.NewTileService(repo, cache, 60)
	m, _, err := svc.ResolveMesh(context.Background(), resource)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.calls != 1 || m.NumTriangles() != 2 {
		t.Errorf("expected rebuilt mesh, got %d calls and %d triangles", repo.calls, m.NumTriangles())
	}
	key := usecases.MeshCacheKey(resource)
	if len(cache.deleted) != 1 || cache.deleted[0] != key {
		t.Errorf("expected corrupt entry evicted, got deletes %v", cache.deleted)
	}
	if !json.Valid(cache.data[key]) {
		t.Errorf("expected rebuilt mesh cached, got %q", cache.data[key])
	}
}

func TestTileService_MeshCacheKey(t *testing.T) {
	a := usecases.MeshCacheKey("a.postgisd")
	if a != usecases.MeshCacheKey("a.postgisd") {
		t.Error("expected stable key")
	}
	if a == usecases.MeshCacheKey("b.postgisd") {
		t.Error("expected distinct keys")
	}
	if len(a) != len("horao:mesh:")+16 {
		t.Errorf("unexpected key %q", a)
	}
}

func TestTileService_ConnectionError(t *testing.T) {
	repo := &mockFeatureRepo{
		featuresFn: func(ctx context.Context, q domain.SourceQuery) ([]domain.Feature, error) {
			return nil, &domain.ConnectionError{ConnInfo: q.ConnInfo, Err: errors.New("connection refused")}
		},
	}

	svc := usecases.NewTileService(repo, nil, 0)
	_, err := svc.Resolve(context.Background(), buildingsQuery.Resource())
	var ce *domain.ConnectionError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if ce.ConnInfo != "dbname=city" {
		t.Errorf("expected dbname=city, got %s", ce.ConnInfo)
	}
}

func TestTileService_BadResource(t *testing.T) {
	repo := &mockFeatureRepo{}
	svc := usecases.NewTileService(repo, nil, 0)

	tests := []string{
		"buildings.shp",
		`conn_info="dbname=city" query="SELECT 1".postgisd`,
		`conn_info="dbname=city" center="north" feature_id="gid" geometry_column="geom" query="SELECT 1".postgisd`,
	}
	for _, resource := range tests {
		if _, err := svc.Resolve(context.Background(), resource); err == nil {
			t.Errorf("expected error for %q", resource)
		}
	}
	if repo.calls != 0 {
		t.Errorf("expected no repository calls, got %d", repo.calls)
	}
}
