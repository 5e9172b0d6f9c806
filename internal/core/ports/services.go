package ports

import (
	"context"

	"github.com/samirrijal/horao/internal/core/domain"
)

// Scene is the renderer-side registry of named nodes.
type Scene interface {
	AddNode(id string, node domain.Node) error
	RemoveNode(id string) error
	SetVisible(id string, visible bool) error
}

// TileResolver turns a deferred resource string into a scene node.
type TileResolver interface {
	Resolve(ctx context.Context, resource string) (domain.Node, error)
}

// EventPublisher publishes layer lifecycle events to a message broker.
type EventPublisher interface {
	PublishLayerEvent(ctx context.Context, event *domain.LayerEvent) error
}

// CommandSubscriber delivers command lines received from a message broker.
type CommandSubscriber interface {
	SubscribeCommands(ctx context.Context, handler func(ctx context.Context, line string) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
