package surface

import (
	"errors"

	"github.com/rs/zerolog/log"
)

var ErrContainerNotAttached = errors.New("surface container not attached")

// Manager is the single point of truth for the rendering surface's
// existence and readiness. Exactly one surface instance exists per
// manager lifetime; every consumer reaches the surface through it.
type Manager struct {
	factory Factory

	surface   RenderSurface
	destroyed bool
}

func NewManager(factory Factory) *Manager {
	return &Manager{
		factory: factory,
	}
}

// Create instantiates the surface once. Calling it again while an
// instance is live is a no-op, and an unattached container skips creation
// without error so a later call can retry.
func (manager *Manager) Create() {
	if manager.surface != nil || manager.destroyed {
		return
	}

	createdSurface, err := manager.factory()
	if errors.Is(err, ErrContainerNotAttached) {
		log.Debug().Msg("Surface container not attached yet, skipping create")
		return
	} else if err != nil {
		log.Error().Err(err).Msg("Failed to create surface")
		return
	}

	manager.surface = createdSurface
}

func (manager *Manager) Surface() RenderSurface {
	return manager.surface
}

// WhenReady runs fn synchronously if the surface's style is already
// loaded, otherwise defers it to the style-ready signal. The returned
// cancel withdraws interest; it is safe to call after fn has run.
func (manager *Manager) WhenReady(fn func()) (cancel func()) {
	if manager.surface == nil {
		log.Debug().Msg("WhenReady called with no live surface")
		return func() {}
	}

	if manager.surface.StyleReady() {
		fn()
		return func() {}
	}

	return manager.surface.OnStyleReady(fn)
}

// Destroy releases the surface and clears the held reference. A destroyed
// manager never creates another surface.
func (manager *Manager) Destroy() {
	manager.destroyed = true

	if manager.surface == nil {
		return
	}

	manager.surface.Release()
	manager.surface = nil
}
