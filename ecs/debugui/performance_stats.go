package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsrt/ecs/world"
)

func NewPerformanceStatsComponent(historyFrames int) PerformanceStatsComponent {
	return PerformanceStatsComponent{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
	}
}

// Record adds the frame time of stats, in milliseconds, to the history ring.
func (ps *PerformanceStatsComponent) Record(stats world.WorldStats) {
	ps.frameHistory[ps.frameIndex] = float32(stats.FrameTime.Seconds() * 1000)
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

// AverageFrameTime is the mean of the history ring in milliseconds.
func (ps *PerformanceStatsComponent) AverageFrameTime() float32 {
	var sum float32
	for _, ft := range ps.frameHistory {
		sum += ft
	}
	return sum / float32(ps.historyFrames)
}

func (ps *PerformanceStatsComponent) Render(stats world.WorldStats) {
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.Record(stats)

	imgui.Text(fmt.Sprintf("Frame: %d  Sim Time: %.2fs", stats.Frame, stats.SimTime))
	imgui.Text(fmt.Sprintf("Delta: %.2f ms (%.0f FPS)", stats.DeltaTime*1000, stats.FPS))
	imgui.Text(fmt.Sprintf("Total Entities: %d", stats.Storage.TotalEntityCount))
	imgui.Text(fmt.Sprintf("Archetypes: %d", stats.Storage.ArchetypeCount))
	imgui.Text(fmt.Sprintf("Singletons: %d", stats.Storage.SingletonCount))
	imgui.Text(fmt.Sprintf("Avg Frame Time: %.3f ms", ps.AverageFrameTime()))

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if imgui.TreeNodeStr("Systems") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("SystemStatsTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Phase")
			imgui.TableSetupColumn("System")
			imgui.TableSetupColumn("Runs")
			imgui.TableSetupColumn("Skips")
			imgui.TableSetupColumn("Avg")
			imgui.TableHeadersRow()

			for _, s := range stats.Systems {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(s.Phase.String())
				imgui.TableNextColumn()
				imgui.Text(s.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", s.ExecutionCount))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", s.SkipCount))
				imgui.TableNextColumn()
				imgui.Text(s.AvgDuration.String())
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Singleton Details") {
		for _, singletonType := range stats.Storage.SingletonTypes {
			imgui.BulletText(singletonType)
		}
		imgui.TreePop()
	}

	imgui.End()
}
