package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/horao/internal/core/domain"
)

// commandQueueWait bounds how long a POST waits for the interpreter.
const commandQueueWait = 2 * time.Second

// ListLayersHandler lists layers, optionally filtered by mode.
func ListLayersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		layers := deps.Layers.Layers()

		if mode := c.Query("mode"); mode != "" {
			if mode != domain.LayerModeSimple.String() && mode != domain.LayerModeLOD.String() {
				return errBadRequest(c, "mode must be simple or lod")
			}
			filtered := layers[:0]
			for _, l := range layers {
				if l.Mode.String() == mode {
					filtered = append(filtered, l)
				}
			}
			layers = filtered
		}

		pg, start, end := pageBounds(c, len(layers), 100, 500)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: layers[start:end], Pagination: pg})
	}
}

// GetLayerHandler returns a single layer by id.
func GetLayerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "layer id is required")
		}
		layer, err := deps.Layers.Layer(id)
		if errors.Is(err, domain.ErrLayerNotFound) {
			return errNotFound(c, "layer not found")
		}
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(layer)
	}
}

// SceneNode is one root node of the scene as reported by the admin API.
type SceneNode struct {
	ID       string `json:"id"`
	Resident int    `json:"resident_tiles"`
}

// SceneHandler lists the root nodes of the scene graph.
func SceneHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Scene == nil {
			return errUnavailable(c, "scene not available")
		}
		ids := deps.Scene.IDs()
		nodes := make([]SceneNode, 0, len(ids))
		for _, id := range ids {
			nodes = append(nodes, SceneNode{ID: id, Resident: deps.Scene.Resident(id)})
		}
		return c.JSON(fiber.Map{"nodes": nodes})
	}
}

// PostCommandsHandler queues the command lines of a text/plain body for the
// interpreter. Results are written to the interpreter output, not returned.
func PostCommandsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Commands == nil {
			return errUnavailable(c, "command input is disabled")
		}

		var lines []string
		for _, l := range strings.Split(string(c.Body()), "\n") {
			l = strings.TrimRight(l, "\r")
			if strings.TrimSpace(l) != "" {
				lines = append(lines, l)
			}
		}
		if len(lines) == 0 {
			return errBadRequest(c, "request body holds no command")
		}

		timer := time.NewTimer(commandQueueWait)
		defer timer.Stop()
		for i, l := range lines {
			select {
			case deps.Commands <- l:
			case <-timer.C:
				LoggerFromCtx(c.UserContext()).Warn("command queue full", "accepted", i, "dropped", len(lines)-i)
				return c.Status(503).JSON(fiber.Map{
					"error":    "command queue is full",
					"accepted": i,
				})
			}
		}
		LoggerFromCtx(c.UserContext()).Info("commands queued", "count", len(lines))
		return c.Status(202).JSON(fiber.Map{"accepted": len(lines)})
	}
}
