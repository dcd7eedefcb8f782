// Package debugui is a Dear ImGui diagnostics overlay for a world. The
// panels it shows follow the world's addon flags: a panel whose data comes
// from a disabled addon is never spawned. The overlay only reads the world;
// it never changes its configuration.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
)

// PanelKind names an overlay panel.
type PanelKind string

const (
	PanelAddons      PanelKind = "addons"
	PanelArchetypes  PanelKind = "archetypes"
	PanelPerformance PanelKind = "performance"
	PanelTimers      PanelKind = "timers"
	PanelAlerts      PanelKind = "alerts"
)

// PanelsFor returns the panels a world built from flags can feed, in
// display order.
func PanelsFor(flags *addon.Flags) []PanelKind {
	panels := []PanelKind{PanelAddons, PanelArchetypes}
	for _, p := range []struct {
		addon addon.ID
		panel PanelKind
	}{
		{addon.Stats, PanelPerformance},
		{addon.Timer, PanelTimers},
		{addon.Alerts, PanelAlerts},
	} {
		if on, _ := flags.IsEnabled(p.addon); on {
			panels = append(panels, p.panel)
		}
	}
	return panels
}

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state as a singleton component.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// OverlayState is a singleton set by the host around each frame. The overlay
// draws only while InFrame is true, so a world can progress without an
// ImGui context.
type OverlayState struct {
	InFrame bool
	Hidden  bool
}

// OverlaySystem queues every panel and ImguiItem render function. It runs
// in OnStore so panels see the frame's final state.
type OverlaySystem struct {
	Items       ecs.Query[struct{ *ImguiItem }]
	Addons      ecs.Query[struct{ *AddonsPanel }]
	Archetypes  ecs.Query[struct{ *ArchetypeViewerComponent }]
	Performance ecs.Query[struct{ *PerformanceStatsComponent }]
	Timers      ecs.Query[struct{ *TimersPanel }]
	Alerts      ecs.Query[struct{ *AlertsPanel }]
	State       ecs.Singleton[OverlayState]
	InputState  ecs.Singleton[ImguiInputState]

	world *world.World
}

func (o *OverlaySystem) Execute(frame *ecs.UpdateFrame) {
	state := o.State.Get()
	if state == nil || !state.InFrame {
		return
	}

	if input := o.InputState.Get(); input != nil {
		input.WantCaptureMouse = imgui.CurrentIO().WantCaptureMouse()
		input.WantCaptureKeyboard = imgui.CurrentIO().WantCaptureKeyboard()
	}

	for item := range o.Items.Values() {
		frame.Commands.Defer(item.Render)
	}
	if state.Hidden {
		return
	}

	w := o.world
	for p := range o.Addons.Values() {
		frame.Commands.Defer(func() {
			if flags, err := w.Flags(); err == nil {
				p.Render(flags)
			}
		})
	}
	for p := range o.Archetypes.Values() {
		frame.Commands.Defer(func() { p.Render(frame.Storage) })
	}
	for p := range o.Performance.Values() {
		frame.Commands.Defer(func() {
			if stats, err := w.Stats(); err == nil {
				p.Render(stats)
			}
		})
	}
	for p := range o.Timers.Values() {
		frame.Commands.Defer(func() {
			timers, err := w.Timers()
			if err != nil {
				return
			}
			now, _ := w.Now()
			p.Render(timers, now)
		})
	}
	for p := range o.Alerts.Values() {
		frame.Commands.Defer(func() {
			if alerts, err := w.Alerts(); err == nil {
				p.Render(alerts)
			}
		})
	}
}

// RegisterComponents registers every overlay component type.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[ImguiItem](registry)
	ecs.RegisterComponent[ImguiInputState](registry)
	ecs.RegisterComponent[OverlayState](registry)
	ecs.RegisterComponent[AddonsPanel](registry)
	ecs.RegisterComponent[ArchetypeViewerComponent](registry)
	ecs.RegisterComponent[PerformanceStatsComponent](registry)
	ecs.RegisterComponent[TimersPanel](registry)
	ecs.RegisterComponent[AlertsPanel](registry)
}

// Install registers the overlay components, spawns one entity per panel in
// PanelsFor and registers the OverlaySystem in OnStore. It needs the system
// addon and returns the spawned panels.
func Install(w *world.World) ([]PanelKind, error) {
	flags, err := w.Flags()
	if err != nil {
		return nil, err
	}
	registry, err := w.Registry()
	if err != nil {
		return nil, err
	}
	storage, err := w.Storage()
	if err != nil {
		return nil, err
	}

	RegisterComponents(registry)
	if err := w.RegisterSystem(&OverlaySystem{world: w}, world.InPhase(world.OnStore), world.Named("debugui")); err != nil {
		return nil, err
	}
	storage.AddSingleton(OverlayState{})
	storage.AddSingleton(ImguiInputState{})

	panels := PanelsFor(flags)
	for _, p := range panels {
		switch p {
		case PanelAddons:
			storage.Spawn(AddonsPanel{showDisabled: true})
		case PanelArchetypes:
			storage.Spawn(NewArchetypeViewerComponent())
		case PanelPerformance:
			storage.Spawn(NewPerformanceStatsComponent(120))
		case PanelTimers:
			storage.Spawn(TimersPanel{})
		case PanelAlerts:
			storage.Spawn(AlertsPanel{})
		}
	}
	return panels, nil
}
