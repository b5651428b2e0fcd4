package overlay

import (
	"strings"
	"testing"

	"github.com/ridemap/ridemap/pkg/surface"
)

func readyManager() (*surface.Manager, *surface.MemorySurface) {
	memorySurface := surface.NewMemorySurface()
	manager := surface.NewManager(func() (surface.RenderSurface, error) {
		return memorySurface, nil
	})
	manager.Create()
	memorySurface.SetStyleReady()

	return manager, memorySurface
}

func countOperations(operations []string, prefixes ...string) int {
	count := 0
	for _, operation := range operations {
		for _, prefix := range prefixes {
			if strings.HasPrefix(operation, prefix) {
				count++
			}
		}
	}

	return count
}

func TestReconcilerIdempotentApply(t *testing.T) {
	manager, memorySurface := readyManager()
	reconciler := NewReconciler(manager, DefaultConfig())

	loadedCatalog, springEvent := testCatalog()
	selectedRoute := springEvent.Routes[0]

	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, selectedRoute, DefaultConfig()))

	if !memorySurface.HasLayer(SelectedRouteID) || !memorySurface.HasLayer(GhostRoutesID) {
		t.Fatal("first apply must create the desired layers")
	}

	operationsAfterFirst := memorySurface.OperationCount()
	firstOrder := memorySurface.LayerOrder()

	// Identical desired state recomputed from the same inputs.
	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, selectedRoute, DefaultConfig()))

	newOperations := memorySurface.Operations[operationsAfterFirst:]

	if mutations := countOperations(newOperations, "add-layer", "remove-layer", "add-source", "remove-source", "set-paint"); mutations != 0 {
		t.Errorf("identical desired state must not churn layers, sources or paint; got %v", newOperations)
	}

	secondOrder := memorySurface.LayerOrder()
	if strings.Join(firstOrder, ",") != strings.Join(secondOrder, ",") {
		t.Errorf("layer order changed across identical applies: %v vs %v", firstOrder, secondOrder)
	}
}

func TestReconcilerUpdatesInPlaceOnRouteSwitch(t *testing.T) {
	manager, memorySurface := readyManager()
	reconciler := NewReconciler(manager, DefaultConfig())

	loadedCatalog, springEvent := testCatalog()
	firstRoute := springEvent.Routes[0]
	secondRoute := lineRoute("spring-short", "#0000ff", [][]float64{{3, 3}, {4, 4}})
	springEvent.Routes = append(springEvent.Routes, secondRoute)

	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, firstRoute, DefaultConfig()))
	operationsAfterFirst := memorySurface.OperationCount()

	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, secondRoute, DefaultConfig()))
	newOperations := memorySurface.Operations[operationsAfterFirst:]

	if removals := countOperations(newOperations, "remove-layer:"+SelectedRouteID, "remove-source:"+SelectedRouteID); removals != 0 {
		t.Errorf("route switch must update the highlight in place, not recreate it; got %v", newOperations)
	}

	if updates := countOperations(newOperations, "set-source-data:"+SelectedRouteID); updates == 0 {
		t.Error("route switch must replace the highlight source data")
	}

	if paints := countOperations(newOperations, "set-paint:"+SelectedRouteID+":line-color"); paints == 0 {
		t.Error("route switch must update the paint colour in place")
	}

	highlightLayer, _ := memorySurface.Layer(SelectedRouteID)
	if highlightLayer.Paint["line-color"] != "#0000ff" {
		t.Errorf("expected the new route colour, got %v", highlightLayer.Paint["line-color"])
	}
}

func TestReconcilerSkipsUnchangedSourceData(t *testing.T) {
	manager, memorySurface := readyManager()
	reconciler := NewReconciler(manager, DefaultConfig())

	loadedCatalog, springEvent := testCatalog()
	selectedRoute := springEvent.Routes[0]

	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, selectedRoute, DefaultConfig()))

	operationsAfterFirst := memorySurface.OperationCount()

	// The selected-route source carries the route's geometry pointer, so a
	// recompute from the same selection must not re-push its data.
	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, selectedRoute, DefaultConfig()))

	newOperations := memorySurface.Operations[operationsAfterFirst:]
	if count := countOperations(newOperations, "set-source-data:"+SelectedRouteID); count != 0 {
		t.Errorf("unchanged source data must not be re-pushed, got %v", newOperations)
	}
}

func TestReconcilerRemovesAbsentGroupsBeforeAdding(t *testing.T) {
	manager, memorySurface := readyManager()
	reconciler := NewReconciler(manager, DefaultConfig())

	loadedCatalog, springEvent := testCatalog()
	selectedRoute := springEvent.Routes[0]

	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, selectedRoute, DefaultConfig()))

	// Selection cleared entirely: highlight, glow and markers must go.
	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, nil, DefaultConfig()))

	if memorySurface.HasLayer(SelectedRouteID) || memorySurface.HasLayer(SelectedRouteGlowID) || memorySurface.HasLayer(RouteEndpointsID) {
		t.Error("absent groups must be removed")
	}
	if memorySurface.HasSource(SelectedRouteID) || memorySurface.HasSource(RouteEndpointsID) {
		t.Error("orphaned sources must be removed with their layers")
	}

	if !memorySurface.HasLayer(GhostRoutesID) || !memorySurface.HasLayer(EventRoutesID) {
		t.Error("groups still desired must survive the removal pass")
	}
}

func TestReconcilerStackingOrder(t *testing.T) {
	manager, memorySurface := readyManager()
	reconciler := NewReconciler(manager, DefaultConfig())

	loadedCatalog, springEvent := testCatalog()
	selectedRoute := springEvent.Routes[0]

	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, selectedRoute, DefaultConfig()))

	order := memorySurface.LayerOrder()
	position := map[string]int{}
	for orderIndex, layerID := range order {
		position[layerID] = orderIndex
	}

	if position[GhostRoutesID] > position[EventRoutesID] {
		t.Errorf("ghost backdrop must render beneath the event underlay: %v", order)
	}
	if position[EventRoutesID] > position[SelectedRouteGlowID] {
		t.Errorf("event underlay must render beneath the selected glow: %v", order)
	}
	if position[SelectedRouteGlowID] > position[SelectedRouteID] {
		t.Errorf("glow must render beneath the highlight: %v", order)
	}
	if position[SelectedRouteID] > position[RouteEndpointsID] {
		t.Errorf("highlight must render beneath the endpoint markers: %v", order)
	}
}

func TestReconcilerDefersUntilStyleReady(t *testing.T) {
	memorySurface := surface.NewMemorySurface()
	manager := surface.NewManager(func() (surface.RenderSurface, error) {
		return memorySurface, nil
	})
	manager.Create()

	reconciler := NewReconciler(manager, DefaultConfig())

	loadedCatalog, springEvent := testCatalog()
	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, springEvent.Routes[0], DefaultConfig()))

	if memorySurface.OperationCount() != 0 {
		t.Fatal("no mutation may occur before the style is ready")
	}

	memorySurface.SetStyleReady()

	if !memorySurface.HasLayer(SelectedRouteID) {
		t.Error("deferred reconciliation must run on the ready signal")
	}
}

func TestReconcilerSupersededApplyIsWithdrawn(t *testing.T) {
	memorySurface := surface.NewMemorySurface()
	manager := surface.NewManager(func() (surface.RenderSurface, error) {
		return memorySurface, nil
	})
	manager.Create()

	reconciler := NewReconciler(manager, DefaultConfig())

	loadedCatalog, springEvent := testCatalog()
	firstRoute := springEvent.Routes[0]
	secondRoute := lineRoute("spring-short", "#0000ff", [][]float64{{3, 3}, {4, 4}})
	springEvent.Routes = append(springEvent.Routes, secondRoute)

	// Two rapid selection changes ahead of the ready signal: only the
	// latest may apply.
	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, firstRoute, DefaultConfig()))
	reconciler.Apply(ComputeDesired(loadedCatalog, springEvent, secondRoute, DefaultConfig()))

	memorySurface.SetStyleReady()

	highlightLayer, hasHighlight := memorySurface.Layer(SelectedRouteID)
	if !hasHighlight {
		t.Fatal("expected the highlight layer")
	}
	if highlightLayer.Paint["line-color"] != "#0000ff" {
		t.Errorf("superseded apply ran: got colour %v", highlightLayer.Paint["line-color"])
	}

	if additions := countOperations(memorySurface.Operations, "add-layer:"+SelectedRouteID); additions != 1 {
		t.Errorf("expected exactly one highlight addition, got %d", additions)
	}
}

func TestReconcilerFramesOncePerSelection(t *testing.T) {
	manager, memorySurface := readyManager()
	reconciler := NewReconciler(manager, DefaultConfig())

	_, springEvent := testCatalog()
	selectedRoute := springEvent.Routes[0]

	reconciler.FrameSelected(selectedRoute)
	reconciler.FrameSelected(selectedRoute)
	reconciler.FrameSelected(selectedRoute)

	fits := countOperations(memorySurface.Operations, "fit-bounds")
	if fits != 1 {
		t.Errorf("expected a single camera fit per selection, got %d", fits)
	}

	// An explicit reframe is the restorative exception.
	reconciler.Reframe(selectedRoute)

	if fits := countOperations(memorySurface.Operations, "fit-bounds"); fits != 2 {
		t.Errorf("expected the reframe to fit again, got %d", fits)
	}

	if len(memorySurface.Camera) == 0 {
		t.Fatal("expected camera records")
	}

	bounds := memorySurface.Camera[0].Bounds
	if bounds.SouthWest[0] != 0 || bounds.NorthEast[0] != 2 {
		t.Errorf("expected the route bounding box, got %+v", bounds)
	}
}
