// Package ebiten hosts a world and its debug overlay in an Ebiten window,
// using the Ebiten backend of Dear ImGui.
package ebiten

import (
	"errors"

	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/debugui"
	"github.com/plus3/ecsrt/ecs/world"
)

// Host implements ebiten.Game. Each Update brackets one world frame with
// the ImGui backend frame, so overlay panels draw with that frame's state.
// F1 hides and shows the panels.
type Host struct {
	World   *world.World
	Backend *ebitenbackend.EbitenBackend
	// DeltaTime is passed to Progress. Zero measures it from the clock.
	DeltaTime float64

	state *ecs.Singleton[debugui.OverlayState]
}

// NewHost wraps w. debugui.Install must have been called on w.
func NewHost(w *world.World, backend *ebitenbackend.EbitenBackend) (*Host, error) {
	storage, err := w.Storage()
	if err != nil {
		return nil, err
	}
	state := ecs.NewSingleton[debugui.OverlayState](storage)
	return &Host{World: w, Backend: backend, DeltaTime: 1.0 / 60.0, state: state}, nil
}

func (h *Host) Update() error {
	h.Backend.BeginFrame()
	h.state.Get().InFrame = true
	running, err := h.World.Progress(h.DeltaTime)
	h.state.Get().InFrame = false
	h.Backend.EndFrame()

	if err != nil {
		return err
	}
	if !running {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF1) {
		h.state.Get().Hidden = !h.state.Get().Hidden
	}
	return nil
}

func (h *Host) Draw(screen *ebiten.Image) {
	h.Backend.Draw(screen)
}

func (h *Host) Layout(outsideWidth, outsideHeight int) (int, int) {
	h.Backend.Layout(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Run opens the window and drives w until it quits or the window closes.
// The world is closed on return.
func Run(w *world.World, title string, width, height int) error {
	if _, err := debugui.Install(w); err != nil {
		return errors.Join(err, w.Close())
	}
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")

	host, err := NewHost(w, backend)
	if err != nil {
		return errors.Join(err, w.Close())
	}
	runErr := ebiten.RunGame(host)
	if errors.Is(runErr, ebiten.Termination) {
		runErr = nil
	}
	return errors.Join(runErr, w.Close())
}
