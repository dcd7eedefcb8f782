package world

import (
	"fmt"
	"sort"

	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/units"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// metricDef is one exported world metric. Values are read in unit and
// converted to its base unit on export, and the base unit names the metric.
type metricDef struct {
	base  string
	help  string
	unit  string
	kind  prometheus.ValueType
	value func(*WorldStats) float64
}

var metricDefs = []metricDef{
	{"frames", "Frames completed.", "count", prometheus.CounterValue,
		func(s *WorldStats) float64 { return float64(s.Frame) }},
	{"frame_time", "Wall time spent in the last frame.", "ns", prometheus.GaugeValue,
		func(s *WorldStats) float64 { return float64(s.FrameTime.Nanoseconds()) }},
	{"delta_time", "Delta time of the last frame.", "s", prometheus.GaugeValue,
		func(s *WorldStats) float64 { return s.DeltaTime }},
	{"sim_time", "Accumulated simulated time.", "s", prometheus.CounterValue,
		func(s *WorldStats) float64 { return s.SimTime }},
	{"frame_rate", "Frames per second derived from the last delta time.", "Hz", prometheus.GaugeValue,
		func(s *WorldStats) float64 { return s.FPS }},
	{"entities", "Live entities.", "count", prometheus.GaugeValue,
		func(s *WorldStats) float64 { return float64(s.Storage.TotalEntityCount) }},
	{"archetypes", "Archetypes in storage.", "count", prometheus.GaugeValue,
		func(s *WorldStats) float64 { return float64(s.Storage.ArchetypeCount) }},
	{"singletons", "Singletons in storage.", "count", prometheus.GaugeValue,
		func(s *WorldStats) float64 { return float64(s.Storage.SingletonCount) }},
	{"component_types", "Registered component types.", "count", prometheus.GaugeValue,
		func(s *WorldStats) float64 { return float64(s.Storage.ComponentTypes) }},
}

var builtinUnits = units.NewCatalog()

func (d metricDef) resolve(catalog *units.Catalog) units.Unit {
	u, ok := catalog.Lookup(d.unit)
	if !ok {
		panic(fmt.Sprintf("world: metric %s uses unknown unit %q", d.base, d.unit))
	}
	return u
}

func (d metricDef) key(catalog *units.Catalog) string {
	if suffix := d.resolve(catalog).Suffix(); suffix != "" {
		return d.base + "_" + suffix
	}
	return d.base
}

// MetricNames lists the metric keys alert rules may refer to.
func MetricNames() []string {
	names := make([]string, len(metricDefs))
	for i, d := range metricDefs {
		names[i] = d.key(builtinUnits)
	}
	sort.Strings(names)
	return names
}

// metricValue reads a metric from a snapshot in its base unit.
func metricValue(s *WorldStats, key string) (float64, bool) {
	for _, d := range metricDefs {
		if d.key(builtinUnits) == key {
			return d.resolve(builtinUnits).ToBase(d.value(s)), true
		}
	}
	return 0, false
}

type metricsState struct {
	registry  *prometheus.Registry
	collector *worldCollector
}

// worldCollector exports the latest stats snapshot. It reads only the
// atomically published snapshot, so scrapes may run on any goroutine.
type worldCollector struct {
	stats  *statsTracker
	defs   []metricDef
	units  []units.Unit
	descs  []*prometheus.Desc
	sysRun *prometheus.Desc
	sysDur *prometheus.Desc
	sysLst *prometheus.Desc
}

func newWorldCollector(ns string, stats *statsTracker, catalog *units.Catalog) *worldCollector {
	c := &worldCollector{stats: stats, defs: metricDefs}
	for _, d := range metricDefs {
		c.units = append(c.units, d.resolve(catalog))
		c.descs = append(c.descs, prometheus.NewDesc(
			prometheus.BuildFQName(ns, "world", d.key(catalog)), d.help, nil, nil))
	}
	labels := []string{"system", "phase"}
	c.sysRun = prometheus.NewDesc(prometheus.BuildFQName(ns, "system", "executions_total"),
		"Times the system ran.", labels, nil)
	c.sysDur = prometheus.NewDesc(prometheus.BuildFQName(ns, "system", "duration_seconds_total"),
		"Total time spent in the system.", labels, nil)
	c.sysLst = prometheus.NewDesc(prometheus.BuildFQName(ns, "system", "last_duration_seconds"),
		"Duration of the system's last run.", labels, nil)
	return c
}

func (c *worldCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
	ch <- c.sysRun
	ch <- c.sysDur
	ch <- c.sysLst
}

func (c *worldCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.load()
	if snap == nil {
		return
	}
	for i, d := range c.defs {
		ch <- prometheus.MustNewConstMetric(c.descs[i], d.kind, c.units[i].ToBase(d.value(snap)))
	}
	for _, s := range snap.Systems {
		phase := s.Phase.String()
		ch <- prometheus.MustNewConstMetric(c.sysRun, prometheus.CounterValue, float64(s.ExecutionCount), s.Name, phase)
		ch <- prometheus.MustNewConstMetric(c.sysDur, prometheus.CounterValue, s.TotalDuration.Seconds(), s.Name, phase)
		ch <- prometheus.MustNewConstMetric(c.sysLst, prometheus.GaugeValue, s.LastDuration.Seconds(), s.Name, phase)
	}
}

func (w *World) initMetrics() error {
	if !enabled(w.flags, addon.Metrics) {
		return nil
	}
	reg := prometheus.NewRegistry()
	c := newWorldCollector(w.opts.metricsNamespace, w.stats, w.units)
	if err := reg.Register(c); err != nil {
		return err
	}
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	w.metrics = &metricsState{registry: reg, collector: c}
	w.onClose("metrics", func() error {
		reg.Unregister(c)
		return nil
	})
	return nil
}

// MetricsRegistry returns the world's Prometheus registry. Callers may
// register their own collectors on it.
func (w *World) MetricsRegistry() (*prometheus.Registry, error) {
	if err := w.gate("MetricsRegistry", addon.Metrics); err != nil {
		return nil, err
	}
	return w.metrics.registry, nil
}
