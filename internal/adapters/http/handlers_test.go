package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/horao/internal/adapters/http"
	"github.com/samirrijal/horao/internal/core/domain"
)

// ---- Mocks ----

type mockLayers struct {
	layers []domain.Layer
}

func (m *mockLayers) Layers() []domain.Layer {
	out := make([]domain.Layer, len(m.layers))
	copy(out, m.layers)
	return out
}

func (m *mockLayers) Layer(id string) (domain.Layer, error) {
	for _, l := range m.layers {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Layer{}, fmt.Errorf("layer %q: %w", id, domain.ErrLayerNotFound)
}

type mockScene struct {
	ids      []string
	resident map[string]int
}

func (m *mockScene) IDs() []string          { return m.ids }
func (m *mockScene) Resident(id string) int { return m.resident[id] }

type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Layers: &mockLayers{layers: []domain.Layer{
			{ID: "buildings", Mode: domain.LayerModeSimple, State: domain.LayerStateLoaded, Visible: true, Triangles: 120},
			{ID: "roofs", Mode: domain.LayerModeLOD, State: domain.LayerStateLoaded, Visible: true, Tiles: 9},
			{ID: "walls", Mode: domain.LayerModeLOD, State: domain.LayerStateLoaded, Tiles: 9},
		}},
		Scene: &mockScene{ids: []string{"floor", "roofs"}, resident: map[string]int{"roofs": 4}},
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var result map[string]string
	if err := json.Unmarshal(readBody(t, resp.Body), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result["status"] != "healthy" {
		t.Errorf("expected healthy, got %s", result["status"])
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name string
		deps func(*handler.Dependencies)
		code int
	}{
		{"nothing configured", func(d *handler.Dependencies) {}, 200},
		{"cache ok", func(d *handler.Dependencies) { d.Cache = &mockPinger{} }, 200},
		{"cache down", func(d *handler.Dependencies) {
			d.Cache = &mockPinger{pingFn: func(ctx context.Context) error { return errors.New("connection refused") }}
		}, 503},
		{"nats down", func(d *handler.Dependencies) { d.NATS = func() bool { return false } }, 503},
		{"nats up", func(d *handler.Dependencies) { d.NATS = func() bool { return true } }, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(makeDeps(tt.deps))
			resp, err := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.code {
				t.Errorf("expected %d, got %d", tt.code, resp.StatusCode)
			}
		})
	}
}

// ---- Layers ----

type layersPage struct {
	Data []struct {
		ID    string `json:"id"`
		Mode  string `json:"mode"`
		State string `json:"state"`
	} `json:"data"`
	Pagination handler.Pagination `json:"pagination"`
}

func TestListLayers(t *testing.T) {
	app := setupApp(makeDeps())
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/layers", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var page layersPage
	if err := json.Unmarshal(readBody(t, resp.Body), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Pagination.Total != 3 || len(page.Data) != 3 {
		t.Fatalf("expected 3 layers, got %d of %d", len(page.Data), page.Pagination.Total)
	}
	if page.Data[1].Mode != "lod" || page.Data[1].State != "loaded" {
		t.Errorf("expected text mode and state, got %+v", page.Data[1])
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected no-cache, got %q", cc)
	}
}

func TestListLayers_Pagination(t *testing.T) {
	app := setupApp(makeDeps())
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/layers?offset=1&limit=1", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	var page layersPage
	if err := json.Unmarshal(readBody(t, resp.Body), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != "roofs" {
		t.Fatalf("expected [roofs], got %+v", page.Data)
	}
	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, `rel="prev"`) {
		t.Errorf("expected prev and next links, got %q", link)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/layers?offset=10", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 0 || page.Pagination.Total != 3 {
		t.Errorf("expected empty page of 3, got %d of %d", len(page.Data), page.Pagination.Total)
	}
}

func TestListLayers_Mode(t *testing.T) {
	app := setupApp(makeDeps())
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/layers?mode=lod", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	var page layersPage
	if err := json.Unmarshal(readBody(t, resp.Body), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page.Data) != 2 {
		t.Errorf("expected 2 lod layers, got %d", len(page.Data))
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/v1/layers?mode=raster", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetLayer(t *testing.T) {
	app := setupApp(makeDeps())
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/layers/roofs", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var layer struct {
		ID    string `json:"id"`
		Tiles int    `json:"tiles"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &layer); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if layer.ID != "roofs" || layer.Tiles != 9 {
		t.Errorf("unexpected layer %+v", layer)
	}
}

func TestGetLayer_NotFound(t *testing.T) {
	app := setupApp(makeDeps())
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/layers/missing", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	var apiErr handler.APIError
	if err := json.Unmarshal(readBody(t, resp.Body), &apiErr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found, got %s", apiErr.Code)
	}
}

// ---- Scene ----

func TestScene(t *testing.T) {
	app := setupApp(makeDeps())
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/scene", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	var result struct {
		Nodes []handler.SceneNode `json:"nodes"`
	}
	if err := json.Unmarshal(readBody(t, resp.Body), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(result.Nodes) != 2 || result.Nodes[1].ID != "roofs" || result.Nodes[1].Resident != 4 {
		t.Errorf("unexpected nodes %+v", result.Nodes)
	}
}

// ---- Commands ----

func TestPostCommands(t *testing.T) {
	commands := make(chan string, 4)
	app := setupApp(makeDeps(func(d *handler.Dependencies) { d.Commands = commands }))

	body := "showLayer id=\"roofs\"\r\n\nhideLayer id=\"walls\"\n"
	req := httptest.NewRequest("POST", "/v1/commands", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if len(commands) != 2 {
		t.Fatalf("expected 2 queued lines, got %d", len(commands))
	}
	if first := <-commands; first != `showLayer id="roofs"` {
		t.Errorf("unexpected first line %q", first)
	}
}

func TestPostCommands_Errors(t *testing.T) {
	app := setupApp(makeDeps())
	resp, err := app.Test(httptest.NewRequest("POST", "/v1/commands", strings.NewReader("help")), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("expected 503 without command input, got %d", resp.StatusCode)
	}

	app = setupApp(makeDeps(func(d *handler.Dependencies) { d.Commands = make(chan string, 1) }))
	resp, err = app.Test(httptest.NewRequest("POST", "/v1/commands", strings.NewReader(" \n")), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("expected 400 for empty body, got %d", resp.StatusCode)
	}
}

// ---- Metrics ----

func TestMetricsEndpoint(t *testing.T) {
	app := setupApp(makeDeps())
	if _, err := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1); err != nil {
		t.Fatal(err)
	}
	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if body := string(readBody(t, resp.Body)); !strings.Contains(body, "horao_http_requests_total") {
		t.Error("expected horao_http_requests_total in metrics output")
	}
}

func TestETag_NotModified(t *testing.T) {
	app := setupApp(makeDeps())
	resp, err := app.Test(httptest.NewRequest("GET", "/v1/layers/roofs", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	etag := resp.Header.Get("ETag")
	if !strings.HasPrefix(etag, `W/"`) {
		t.Fatalf("expected weak etag, got %q", etag)
	}

	req := httptest.NewRequest("GET", "/v1/layers/roofs", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err = app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 304 {
		t.Errorf("expected 304, got %d", resp.StatusCode)
	}
}
