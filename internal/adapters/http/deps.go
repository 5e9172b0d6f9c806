package http

import (
	"context"

	"github.com/samirrijal/horao/internal/core/domain"
)

// LayerRegistry is the read side of the layer service.
type LayerRegistry interface {
	Layers() []domain.Layer
	Layer(id string) (domain.Layer, error)
}

// SceneInspector exposes the scene graph to the admin API.
type SceneInspector interface {
	IDs() []string
	Resident(id string) int
}

// Pinger is a dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers. Commands, when
// set, receives command lines posted to /v1/commands; it is the same
// channel the interpreter reads.
type Dependencies struct {
	Layers   LayerRegistry
	Scene    SceneInspector
	Commands chan<- string
	Cache    Pinger
	NATS     func() bool
}
