package world_test

import (
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

// fakeOS is a manual clock starting on a whole second.
type fakeOS struct {
	now time.Time
}

func newFakeOS() *fakeOS {
	return &fakeOS{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeOS) Now() time.Time        { return f.now }
func (f *fakeOS) Sleep(d time.Duration) { f.now = f.now.Add(d) }

func newFlags(t *testing.T, m map[string]bool) *addon.Flags {
	t.Helper()
	flags, err := addon.FromMap(m)
	require.NoError(t, err)
	return flags
}

func presetFlags(t *testing.T, p addon.Preset) *addon.Flags {
	t.Helper()
	cfg := addon.NewConfig()
	require.NoError(t, cfg.Apply(p))
	return cfg.Freeze()
}

func buildWorld(t *testing.T, flags *addon.Flags, opts ...world.Option) *world.World {
	t.Helper()
	opts = append([]world.Option{
		world.WithLogOutput(io.Discard),
		world.WithHTTPAddr("127.0.0.1:0"),
	}, opts...)
	w, err := world.Build(flags, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestBuildScenarios(t *testing.T) {
	t.Run("module stats and pipeline build", func(t *testing.T) {
		flags := newFlags(t, map[string]bool{"module": true, "stats": true, "pipeline": true})
		w := buildWorld(t, flags)

		on, err := w.IsEnabled("statistics")
		require.NoError(t, err)
		assert.True(t, on)

		on, err = w.IsEnabled(addon.Timer)
		require.NoError(t, err)
		assert.False(t, on)
	})

	t.Run("stats without module is a dependency error", func(t *testing.T) {
		flags := newFlags(t, map[string]bool{"module": false, "stats": true})
		w, err := world.Build(flags)
		assert.Nil(t, w)

		var depErr *addon.DependencyError
		require.ErrorAs(t, err, &depErr)
		assert.True(t, depErr.Missing(addon.Module))
	})

	t.Run("nil flags", func(t *testing.T) {
		w, err := world.Build(nil)
		assert.Nil(t, w)
		assert.ErrorIs(t, err, &addon.ConfigurationError{Kind: addon.KindNoFlags})
	})

	t.Run("presets build", func(t *testing.T) {
		for _, p := range []addon.Preset{addon.PresetNone, addon.PresetCustom, addon.PresetFull} {
			w, err := world.Build(presetFlags(t, p),
				world.WithLogOutput(io.Discard), world.WithHTTPAddr("127.0.0.1:0"))
			require.NoError(t, err, p)
			require.NoError(t, w.Close(), p)
		}
	})

	t.Run("unknown addon through the handle", func(t *testing.T) {
		w := buildWorld(t, presetFlags(t, addon.PresetNone))
		_, err := w.IsEnabled("physics")
		assert.ErrorIs(t, err, &addon.ConfigurationError{Kind: addon.KindUnknownAddon})
	})
}

func TestBuildPreflight(t *testing.T) {
	t.Run("timer without a clock", func(t *testing.T) {
		flags := newFlags(t, map[string]bool{"module": true, "pipeline": true, "timer": true})
		w, err := world.Build(flags)
		assert.Nil(t, w)
		assert.ErrorIs(t, err, &addon.ConfigurationError{Kind: addon.KindMissingOSAPI})
	})

	t.Run("supplied clock replaces os_api", func(t *testing.T) {
		flags := newFlags(t, map[string]bool{"module": true, "pipeline": true, "timer": true})
		w := buildWorld(t, flags, world.WithOSAPI(newFakeOS()))
		_, err := w.Every("@every 1s", func(*ecs.UpdateFrame) {})
		assert.NoError(t, err)
	})

	t.Run("pipeline without a clock needs an explicit delta", func(t *testing.T) {
		flags := newFlags(t, map[string]bool{"module": true, "pipeline": true})
		w := buildWorld(t, flags)

		_, err := w.Progress(0)
		var disabled *world.SubsystemDisabledError
		require.ErrorAs(t, err, &disabled)
		assert.Equal(t, addon.OSAPI, disabled.Addon)

		running, err := w.Progress(0.016)
		require.NoError(t, err)
		assert.True(t, running)
	})

	t.Run("alert on unknown metric", func(t *testing.T) {
		w, err := world.Build(presetFlags(t, addon.PresetFull),
			world.WithLogOutput(io.Discard),
			world.WithHTTPAddr("127.0.0.1:0"),
			world.WithAlertRules(world.AlertRule{Name: "bogus", Metric: "warp_factor", Op: world.Above}))
		assert.Nil(t, w)
		assert.ErrorIs(t, err, &addon.ConfigurationError{Kind: addon.KindUnknownMetric})
	})

	t.Run("duplicate alert names", func(t *testing.T) {
		w, err := world.Build(presetFlags(t, addon.PresetFull),
			world.WithLogOutput(io.Discard),
			world.WithHTTPAddr("127.0.0.1:0"),
			world.WithAlertRules(
				world.AlertRule{Name: "busy", Metric: "entities", Op: world.Above, Threshold: 100},
				world.AlertRule{Name: "busy", Metric: "entities", Op: world.Below, Threshold: 1},
			))
		assert.Nil(t, w)
		assert.ErrorIs(t, err, world.ErrDuplicateAlert)
	})

	t.Run("modules without the module addon", func(t *testing.T) {
		imported := false
		w, err := world.Build(presetFlags(t, addon.PresetNone),
			world.WithLogOutput(io.Discard),
			world.WithModules(world.NewModule("physics", func(*world.World) error {
				imported = true
				return nil
			})))
		assert.Nil(t, w)
		var disabled *world.SubsystemDisabledError
		require.ErrorAs(t, err, &disabled)
		assert.Equal(t, addon.Module, disabled.Addon)
		assert.Equal(t, "WithModules", disabled.Op)
		assert.False(t, imported)
	})

	t.Run("alert rules are ignored without the alerts addon", func(t *testing.T) {
		buildWorld(t, presetFlags(t, addon.PresetCustom),
			world.WithAlertRules(world.AlertRule{Name: "bogus", Metric: "warp_factor", Op: world.Above}))
	})
}

func TestBuildRollback(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	logFile := filepath.Join(t.TempDir(), "world.log")
	w, err := world.Build(presetFlags(t, addon.PresetFull),
		world.WithLogFile(logFile),
		world.WithHTTPAddr(busy.Addr().String()))
	require.Error(t, err)
	assert.Nil(t, w)

	var opErr *net.OpError
	assert.ErrorAs(t, err, &opErr)

	_, statErr := os.Stat(logFile)
	assert.NoError(t, statErr, "log file was opened before the listener failed")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "world ready")
	assert.Zero(t, openDescriptors(t, logFile), "rollback closes the log file")
}

// openDescriptors counts this process's descriptors open on path.
func openDescriptors(t *testing.T, path string) int {
	t.Helper()
	entries, err := os.ReadDir("/proc/self/fd")
	if err != nil {
		t.Skip("no /proc/self/fd on this platform")
	}
	want, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	n := 0
	for _, e := range entries {
		target, err := os.Readlink(filepath.Join("/proc/self/fd", e.Name()))
		if err == nil && target == want {
			n++
		}
	}
	return n
}

func TestLogFileClosedOnClose(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "world.log")
	w, err := world.Build(newFlags(t, map[string]bool{"log": true}), world.WithLogFile(logFile))
	require.NoError(t, err)
	assert.Equal(t, 1, openDescriptors(t, logFile))

	require.NoError(t, w.Close())
	assert.Zero(t, openDescriptors(t, logFile))
}

func TestModuleImportFailureFailsBuild(t *testing.T) {
	boom := errors.New("boom")
	w, err := world.Build(presetFlags(t, addon.PresetCustom),
		world.WithLogOutput(io.Discard),
		world.WithModules(world.NewModule("broken", func(*world.World) error { return boom })))
	assert.Nil(t, w)
	assert.ErrorIs(t, err, boom)
}

func TestDisabledOperations(t *testing.T) {
	w := buildWorld(t, presetFlags(t, addon.PresetNone))
	mod := world.NewModule("noop", func(*world.World) error { return nil })

	cases := []struct {
		addon addon.ID
		call  func() error
	}{
		{addon.Log, func() error { _, err := w.Log(); return err }},
		{addon.Module, func() error { return w.Import(mod) }},
		{addon.Module, func() error { _, err := w.Modules(); return err }},
		{addon.System, func() error { return w.RegisterSystem(&spawner{}) }},
		{addon.System, func() error { return w.RunSystem("spawner", 0.1) }},
		{addon.System, func() error { _, err := w.Systems(); return err }},
		{addon.Pipeline, func() error { _, err := w.Progress(0.1); return err }},
		{addon.Pipeline, func() error { return w.Quit() }},
		{addon.Pipeline, func() error { _, err := w.Frame(); return err }},
		{addon.Timer, func() error { _, err := w.Every("@every 1s", func(*ecs.UpdateFrame) {}); return err }},
		{addon.Timer, func() error { return w.CancelTimer(1) }},
		{addon.Timer, func() error { _, err := w.Timers(); return err }},
		{addon.Stats, func() error { _, err := w.Stats(); return err }},
		{addon.Metrics, func() error { _, err := w.MetricsRegistry(); return err }},
		{addon.Alerts, func() error { _, err := w.Alerts(); return err }},
		{addon.Doc, func() error { return w.SetDoc(nil, world.Description{}) }},
		{addon.Doc, func() error { _, _, err := w.Doc(nil); return err }},
		{addon.Doc, func() error { _, err := w.DocCount(); return err }},
		{addon.Units, func() error { _, err := w.Units(); return err }},
		{addon.App, func() error { return w.RunApp(t.Context(), world.AppDesc{Frames: 1}) }},
		{addon.HTTP, func() error { _, err := w.HTTPAddr(); return err }},
		{addon.OSAPI, func() error { _, err := w.Now(); return err }},
	}

	for _, tc := range cases {
		err := tc.call()
		require.ErrorIs(t, err, world.ErrDisabled, tc.addon)

		var disabled *world.SubsystemDisabledError
		require.ErrorAs(t, err, &disabled)
		assert.Equal(t, tc.addon, disabled.Addon)
	}
}

func TestIntervalNeedsTimer(t *testing.T) {
	flags := newFlags(t, map[string]bool{"module": true, "system": true, "pipeline": true})
	w := buildWorld(t, flags)

	err := w.RegisterSystem(&spawner{}, world.Interval(time.Second))
	var disabled *world.SubsystemDisabledError
	require.ErrorAs(t, err, &disabled)
	assert.Equal(t, addon.Timer, disabled.Addon)

	assert.NoError(t, w.RegisterSystem(&spawner{}))
}

func TestTeardown(t *testing.T) {
	w, err := world.Build(presetFlags(t, addon.PresetFull),
		world.WithLogOutput(io.Discard),
		world.WithHTTPAddr("127.0.0.1:0"),
		world.WithOSAPI(newFakeOS()))
	require.NoError(t, err)

	addr, err := w.HTTPAddr()
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, dialErr := net.DialTimeout("tcp", addr, time.Second)
	assert.Error(t, dialErr, "listener is closed")

	calls := map[string]func() error{
		"IsEnabled":       func() error { _, err := w.IsEnabled(addon.Stats); return err },
		"Flags":           func() error { _, err := w.Flags(); return err },
		"Storage":         func() error { _, err := w.Storage(); return err },
		"Registry":        func() error { _, err := w.Registry(); return err },
		"Log":             func() error { _, err := w.Log(); return err },
		"Import":          func() error { return w.Import(world.NewModule("m", func(*world.World) error { return nil })) },
		"Modules":         func() error { _, err := w.Modules(); return err },
		"RegisterSystem":  func() error { return w.RegisterSystem(&spawner{}) },
		"RunSystem":       func() error { return w.RunSystem("spawner", 0.1) },
		"Systems":         func() error { _, err := w.Systems(); return err },
		"Progress":        func() error { _, err := w.Progress(0.1); return err },
		"Quit":            w.Quit,
		"Frame":           func() error { _, err := w.Frame(); return err },
		"RunApp":          func() error { return w.RunApp(t.Context(), world.AppDesc{Frames: 1}) },
		"Now":             func() error { _, err := w.Now(); return err },
		"Every":           func() error { _, err := w.Every("@every 1s", func(*ecs.UpdateFrame) {}); return err },
		"CancelTimer":     func() error { return w.CancelTimer(1) },
		"Timers":          func() error { _, err := w.Timers(); return err },
		"Stats":           func() error { _, err := w.Stats(); return err },
		"MetricsRegistry": func() error { _, err := w.MetricsRegistry(); return err },
		"Alerts":          func() error { _, err := w.Alerts(); return err },
		"SetDoc":          func() error { return w.SetDoc(nil, world.Description{}) },
		"Doc":             func() error { _, _, err := w.Doc(nil); return err },
		"DocCount":        func() error { _, err := w.DocCount(); return err },
		"Units":           func() error { _, err := w.Units(); return err },
		"HTTPAddr":        func() error { _, err := w.HTTPAddr(); return err },
		"Close":           w.Close,
	}
	for op, call := range calls {
		err := call()
		require.ErrorIs(t, err, world.ErrTornDown, op)

		var torn *world.UseAfterTeardownError
		require.ErrorAs(t, err, &torn)
		assert.Equal(t, op, torn.Op)
	}
}

func TestModules(t *testing.T) {
	w := buildWorld(t, presetFlags(t, addon.PresetCustom))

	imports := 0
	physics := world.NewModule("physics", func(w *world.World) error {
		imports++
		reg, err := w.Registry()
		if err != nil {
			return err
		}
		ecs.RegisterComponent[Position](reg)
		ecs.RegisterComponent[Velocity](reg)
		return nil
	})
	game := world.NewModule("game", func(w *world.World) error {
		return w.Import(physics)
	})

	require.NoError(t, w.Import(game))
	require.NoError(t, w.Import(physics))
	assert.Equal(t, 1, imports)

	names, err := w.Modules()
	require.NoError(t, err)
	assert.Equal(t, []string{"physics", "game"}, names)

	t.Run("cycle", func(t *testing.T) {
		var a, b world.Module
		a = world.NewModule("a", func(w *world.World) error { return w.Import(b) })
		b = world.NewModule("b", func(w *world.World) error { return w.Import(a) })

		err := w.Import(a)
		assert.ErrorIs(t, err, world.ErrImportCycle)
		assert.Contains(t, err.Error(), "a -> b -> a")

		names, err := w.Modules()
		require.NoError(t, err)
		assert.NotContains(t, names, "a")
	})
}

func TestLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "world.log")
	flags := newFlags(t, map[string]bool{"log": true})
	w, err := world.Build(flags, world.WithLogFile(logFile))
	require.NoError(t, err)

	log, err := w.Log()
	require.NoError(t, err)
	log.WithField("answer", 42).Info("hello")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "world ready")
	assert.Contains(t, string(data), "answer=42")
	assert.Contains(t, string(data), "world teardown")
}
