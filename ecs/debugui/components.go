package debugui

// AddonsPanel lists every addon with its state and requirements.
type AddonsPanel struct {
	showDisabled bool
}

type ArchetypeViewerComponent struct {
	cache          *ArchetypeViewerCache
	selectedArchId *uint32
	sortColumn     int
	sortAscending  bool
}

type PerformanceStatsComponent struct {
	historyFrames int
	frameHistory  []float32
	frameIndex    int
}

// TimersPanel lists scheduled timers.
type TimersPanel struct {
	absolute bool
}

// AlertsPanel lists firing alerts.
type AlertsPanel struct {
	raised int
}
