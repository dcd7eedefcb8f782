package debugui

import (
	"fmt"
	"strings"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
)

// AddonRow is one line of the addons panel.
type AddonRow struct {
	ID          addon.ID
	Enabled     bool
	Requires    string
	Description string
}

// AddonRows summarises flags in name order.
func AddonRows(flags *addon.Flags, includeDisabled bool) []AddonRow {
	var rows []AddonRow
	for _, id := range addon.Known() {
		on, _ := flags.IsEnabled(id)
		if !on && !includeDisabled {
			continue
		}
		reqs := addon.Requires(id)
		names := make([]string, len(reqs))
		for i, r := range reqs {
			names[i] = string(r)
		}
		rows = append(rows, AddonRow{
			ID:          id,
			Enabled:     on,
			Requires:    strings.Join(names, ", "),
			Description: addon.Describe(id),
		})
	}
	return rows
}

func (ap *AddonsPanel) Render(flags *addon.Flags) {
	if !imgui.BeginV("Addons", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Checkbox("Show disabled", &ap.showDisabled)
	imgui.Text(fmt.Sprintf("Enabled: %s", flags.String()))
	imgui.Separator()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("AddonTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Addon")
		imgui.TableSetupColumn("State")
		imgui.TableSetupColumn("Requires")
		imgui.TableSetupColumn("Description")
		imgui.TableHeadersRow()

		for _, row := range AddonRows(flags, ap.showDisabled) {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(string(row.ID))
			imgui.TableNextColumn()
			if row.Enabled {
				imgui.Text("on")
			} else {
				imgui.Text("off")
			}
			imgui.TableNextColumn()
			imgui.Text(row.Requires)
			imgui.TableNextColumn()
			imgui.Text(row.Description)
		}
		imgui.EndTable()
	}

	imgui.End()
}

func (tp *TimersPanel) Render(timers []world.TimerInfo, now time.Time) {
	if !imgui.BeginV("Timers", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Scheduled: %d", len(timers)))
	imgui.SameLine()
	imgui.Checkbox("Absolute", &tp.absolute)

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
	if imgui.BeginTableV("TimerTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("ID")
		imgui.TableSetupColumn("Schedule")
		imgui.TableSetupColumn("Fired")
		imgui.TableSetupColumn("Next")
		imgui.TableHeadersRow()

		for _, t := range timers {
			imgui.TableNextRow()
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", t.ID))
			imgui.TableNextColumn()
			imgui.Text(t.Spec)
			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", t.Fired))
			imgui.TableNextColumn()
			if tp.absolute {
				imgui.Text(t.Next.Format(time.TimeOnly))
			} else {
				imgui.Text(t.Next.Sub(now).Truncate(time.Millisecond).String())
			}
		}
		imgui.EndTable()
	}

	imgui.End()
}

func (al *AlertsPanel) Render(alerts []world.ActiveAlert) {
	if !imgui.BeginV("Alerts", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	if len(alerts) > al.raised {
		al.raised = len(alerts)
	}
	imgui.Text(fmt.Sprintf("Firing: %d (peak %d)", len(alerts), al.raised))
	imgui.Separator()

	for _, a := range alerts {
		imgui.BulletText(fmt.Sprintf("[%s] %s: %s %s %g (now %g, since frame %d)",
			a.Rule.Severity, a.Rule.Name, a.Rule.Metric, a.Rule.Op, a.Rule.Threshold, a.Value, a.Since))
	}

	imgui.End()
}
