package overlay

import (
	"reflect"

	"github.com/jinzhu/copier"
	"github.com/ridemap/ridemap/pkg/catalog"
	"github.com/ridemap/ridemap/pkg/surface"
	"github.com/rs/zerolog/log"
)

// Reconciler makes the surface's actual layer/source set match the
// desired set with minimal disruption: data is replaced in place rather
// than remove+recreate, paint-only changes become SetPaintProperty calls,
// and removals for a superseded selection complete before additions.
type Reconciler struct {
	manager *surface.Manager
	config  Config

	previous DesiredState
	applied  bool

	framedRoute string

	cancelApply func()
	cancelFrame func()
}

func NewReconciler(manager *surface.Manager, config Config) *Reconciler {
	return &Reconciler{
		manager: manager,
		config:  config,
	}
}

// Apply schedules a reconciliation pass behind the surface's readiness
// signal. A pass still pending from a superseded state is withdrawn
// first, so rapid selection changes never apply out of order.
func (reconciler *Reconciler) Apply(next DesiredState) {
	if reconciler.cancelApply != nil {
		reconciler.cancelApply()
	}

	reconciler.cancelApply = reconciler.manager.WhenReady(func() {
		reconciler.apply(next)
	})
}

func (reconciler *Reconciler) apply(next DesiredState) {
	liveSurface := reconciler.manager.Surface()
	if liveSurface == nil {
		return
	}

	// Teardown of absent groups runs before any additions so a new
	// selection never races a duplicate id.
	if reconciler.applied {
		for _, previousLayer := range reconciler.previous.Layers {
			if _, stillWanted := next.findLayer(previousLayer.ID); stillWanted {
				continue
			}

			if liveSurface.HasLayer(previousLayer.ID) {
				if err := liveSurface.RemoveLayer(previousLayer.ID); err != nil {
					log.Debug().Err(err).Str("layer", previousLayer.ID).Msg("Failed to remove layer")
				}
			}
		}

		for _, previousSource := range reconciler.previous.Sources {
			if _, stillWanted := next.findSource(previousSource.ID); stillWanted {
				continue
			}

			if liveSurface.HasSource(previousSource.ID) {
				if err := liveSurface.RemoveSource(previousSource.ID); err != nil {
					log.Debug().Err(err).Str("source", previousSource.ID).Msg("Failed to remove source")
				}
			}
		}
	}

	for _, nextSource := range next.Sources {
		if liveSurface.HasSource(nextSource.ID) {
			previousSource, hadSource := reconciler.previous.findSource(nextSource.ID)
			if hadSource && previousSource.Data == nextSource.Data {
				continue
			}

			if err := liveSurface.SetSourceData(nextSource.ID, nextSource.Data); err != nil {
				log.Debug().Err(err).Str("source", nextSource.ID).Msg("Failed to update source data")
			}
		} else {
			if err := liveSurface.AddSource(nextSource.ID, nextSource.Data); err != nil {
				log.Debug().Err(err).Str("source", nextSource.ID).Msg("Failed to add source")
			}
		}
	}

	for _, nextLayer := range next.Layers {
		if liveSurface.HasLayer(nextLayer.ID) {
			reconciler.updatePaint(liveSurface, nextLayer)
			continue
		}

		spec := surface.LayerSpec{
			ID:       nextLayer.ID,
			SourceID: nextLayer.SourceID,
			Type:     nextLayer.Type,
			Paint:    nextLayer.Paint,
		}

		// Anchor only when the sibling is present, otherwise the layer
		// lands on top and settles once the sibling arrives.
		if nextLayer.Beneath != "" && liveSurface.HasLayer(nextLayer.Beneath) {
			spec.Beneath = nextLayer.Beneath
		}

		if err := liveSurface.AddLayer(spec); err != nil {
			log.Debug().Err(err).Str("layer", nextLayer.ID).Msg("Failed to add layer")
		}
	}

	// Snapshot the applied state so the next pass diffs against what is
	// actually on the surface, not against shared mutable descriptors.
	// Source data pointers identify the applied payload, so they survive
	// the deep copy intact or the unchanged-data check above never matches.
	var snapshot DesiredState
	if err := copier.CopyWithOption(&snapshot, next, copier.Option{DeepCopy: true}); err != nil {
		snapshot = next
	} else {
		for sourceIndex := range snapshot.Sources {
			snapshot.Sources[sourceIndex].Data = next.Sources[sourceIndex].Data
		}
	}

	reconciler.previous = snapshot
	reconciler.applied = true
}

func (reconciler *Reconciler) updatePaint(liveSurface surface.RenderSurface, nextLayer LayerDescriptor) {
	previousLayer, hadLayer := reconciler.previous.findLayer(nextLayer.ID)

	for paintKey, paintValue := range nextLayer.Paint {
		if hadLayer && reflect.DeepEqual(previousLayer.Paint[paintKey], paintValue) {
			continue
		}

		if err := liveSurface.SetPaintProperty(nextLayer.ID, paintKey, paintValue); err != nil {
			log.Debug().Err(err).Str("layer", nextLayer.ID).Str("property", paintKey).Msg("Failed to update paint property")
		}
	}
}

// FrameSelected fits the camera to the route's bounding box once per
// selection. Incidental re-applies of the same route never re-frame, so
// the camera does not fight a user's manual pan or zoom.
func (reconciler *Reconciler) FrameSelected(selectedRoute *catalog.Route) {
	if selectedRoute == nil || reconciler.framedRoute == selectedRoute.PrimaryIdentifier {
		return
	}

	reconciler.frame(selectedRoute)
}

// Reframe re-fits the camera regardless of whether the route has already
// been framed. Used as the restorative action when live tracking is
// disabled.
func (reconciler *Reconciler) Reframe(selectedRoute *catalog.Route) {
	if selectedRoute == nil {
		return
	}

	reconciler.frame(selectedRoute)
}

func (reconciler *Reconciler) frame(selectedRoute *catalog.Route) {
	southWest, northEast, ok := selectedRoute.BoundingBox()
	if !ok {
		return
	}

	reconciler.framedRoute = selectedRoute.PrimaryIdentifier

	if reconciler.cancelFrame != nil {
		reconciler.cancelFrame()
	}

	reconciler.cancelFrame = reconciler.manager.WhenReady(func() {
		liveSurface := reconciler.manager.Surface()
		if liveSurface == nil {
			return
		}

		liveSurface.FitBounds(surface.BoundingBox{
			SouthWest: southWest,
			NorthEast: northEast,
		}, surface.CameraOptions{
			Padding:  reconciler.config.CameraPadding,
			Duration: reconciler.config.FitDuration,
		})
	})
}

// Reset withdraws any pending work and forgets applied state. Called on
// final teardown.
func (reconciler *Reconciler) Reset() {
	if reconciler.cancelApply != nil {
		reconciler.cancelApply()
		reconciler.cancelApply = nil
	}
	if reconciler.cancelFrame != nil {
		reconciler.cancelFrame()
		reconciler.cancelFrame = nil
	}

	reconciler.previous = DesiredState{}
	reconciler.applied = false
	reconciler.framedRoute = ""
}
