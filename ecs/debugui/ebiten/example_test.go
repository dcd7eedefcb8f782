package ebiten_test

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/debugui"
	debugui_ebiten "github.com/plus3/ecsrt/ecs/debugui/ebiten"
	"github.com/plus3/ecsrt/ecs/world"
)

func Example() {
	cfg := addon.NewConfig()
	if err := cfg.Apply(addon.PresetCustom); err != nil {
		panic(err)
	}

	w, err := world.Build(cfg.Freeze())
	if err != nil {
		panic(err)
	}

	// Anything with an ImguiItem is drawn alongside the panels.
	storage, _ := w.Storage()
	reg, _ := w.Registry()
	debugui.RegisterComponents(reg)
	storage.Spawn(debugui.ImguiItem{
		Render: func() {
			imgui.Begin("Debug Window")
			imgui.Text("Hello from ECS!")
			imgui.End()
		},
	})

	if err := debugui_ebiten.Run(w, "ecsrt", 1280, 720); err != nil {
		panic(err)
	}
}
