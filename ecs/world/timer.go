package world

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/plus3/ecsrt/ecs"
	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrUnknownTimer is returned by CancelTimer for ids it does not know.
var ErrUnknownTimer = errors.New("world: unknown timer")

// TimerID identifies a scheduled timer.
type TimerID uint64

// TimerFunc is called from the OnLoad phase of the frame in which its
// schedule comes due. Commands queued on frame apply at the end of OnLoad.
type TimerFunc func(frame *ecs.UpdateFrame)

// TimerInfo describes a scheduled timer.
type TimerInfo struct {
	ID    TimerID
	Spec  string
	Next  time.Time
	Fired int
}

type timer struct {
	id       TimerID
	spec     string
	schedule cron.Schedule
	next     time.Time
	fired    int
	fn       TimerFunc
}

type timerSet struct {
	os     OSAPI
	timers map[TimerID]*timer
	nextID TimerID
}

const timerSystemName = "timers"

// timerSystem fires due timers. It runs first in OnLoad.
type timerSystem struct {
	set *timerSet
}

func (s *timerSystem) Execute(frame *ecs.UpdateFrame) {
	s.set.fire(s.set.os.Now(), frame)
}

func (w *World) initTimers() error {
	if !enabled(w.flags, addon.Timer) {
		return nil
	}
	w.timers = &timerSet{os: w.os, timers: make(map[TimerID]*timer)}
	w.pipeline.phases[OnLoad].Register(&timerSystem{set: w.timers}, ecs.WithName(timerSystemName))
	w.pipeline.systems[timerSystemName] = OnLoad
	w.onClose("timers", func() error {
		w.timers.timers = nil
		return nil
	})
	return nil
}

// fire runs every timer due at now, in id order. A timer that fell several
// periods behind fires once and is rescheduled after now.
func (t *timerSet) fire(now time.Time, frame *ecs.UpdateFrame) {
	var due []*timer
	for _, tm := range t.timers {
		if !tm.next.After(now) {
			due = append(due, tm)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].id < due[j].id })
	for _, tm := range due {
		tm.fired++
		tm.next = tm.schedule.Next(now)
		tm.fn(frame)
	}
}

// Every schedules fn with a standard cron spec ("*/5 * * * *", "@hourly",
// "@every 2s"). Schedules are evaluated against the world's clock at the
// start of each frame.
func (w *World) Every(spec string, fn TimerFunc) (TimerID, error) {
	if err := w.gate("Every", addon.Timer); err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, errors.New("world: nil timer func")
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return 0, fmt.Errorf("world: timer spec %q: %w", spec, err)
	}

	t := w.timers
	t.nextID++
	tm := &timer{
		id:       t.nextID,
		spec:     spec,
		schedule: schedule,
		next:     schedule.Next(w.os.Now()),
		fn:       fn,
	}
	t.timers[tm.id] = tm
	w.log.WithFields(logrus.Fields{"timer": tm.id, "spec": spec, "next": tm.next}).Debug("timer scheduled")
	return tm.id, nil
}

// CancelTimer removes a timer.
func (w *World) CancelTimer(id TimerID) error {
	if err := w.gate("CancelTimer", addon.Timer); err != nil {
		return err
	}
	if _, ok := w.timers.timers[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTimer, id)
	}
	delete(w.timers.timers, id)
	return nil
}

// Timers lists scheduled timers in id order.
func (w *World) Timers() ([]TimerInfo, error) {
	if err := w.gate("Timers", addon.Timer); err != nil {
		return nil, err
	}
	out := make([]TimerInfo, 0, len(w.timers.timers))
	for _, tm := range w.timers.timers {
		out = append(out, TimerInfo{ID: tm.id, Spec: tm.spec, Next: tm.next, Fired: tm.fired})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
