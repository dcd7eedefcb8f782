package ecs

import (
	"reflect"
	"strings"
	"time"
)

// SchedulerStats provides statistics about scheduler execution.
type SchedulerStats struct {
	SystemCount     int
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system.
type SystemStats struct {
	Name           string
	ExecutionCount int64
	SkipCount      int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

// Gate decides, once per pass, whether a system runs. Skipped passes are
// counted but not timed.
type Gate func(frame *UpdateFrame) bool

// RegisterOption customises a registration.
type RegisterOption func(*registration)

// WithName overrides the name derived from the system's type.
func WithName(name string) RegisterOption {
	return func(r *registration) { r.name = name }
}

// WithGate attaches a gate to the system.
func WithGate(gate Gate) RegisterOption {
	return func(r *registration) { r.gate = gate }
}

type executor interface {
	Execute()
}

type registration struct {
	system  System
	name    string
	gate    Gate
	queries []executor

	executions int64
	skips      int64
	min        time.Duration
	max        time.Duration
	total      time.Duration
	last       time.Duration
}

// Scheduler runs registered systems in registration order and flushes their
// shared command buffer after each pass.
type Scheduler struct {
	storage *Storage
	systems []*registration
}

// NewScheduler creates a scheduler bound to storage.
func NewScheduler(storage *Storage) *Scheduler {
	return &Scheduler{storage: storage}
}

// Register wires the system's Query and Singleton fields and appends it.
func (s *Scheduler) Register(system System, opts ...RegisterOption) {
	r := &registration{
		system: system,
		name:   SystemName(system),
		min:    time.Duration(1<<63 - 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.queries = s.bindFields(system)
	s.systems = append(s.systems, r)
}

// SystemName is the default registration name: the system's type name. A
// nil system has none.
func SystemName(system System) string {
	t := reflect.TypeOf(system)
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// bindFields calls Init on every exported Query and Singleton field and
// returns the queries so they can be executed before each run.
func (s *Scheduler) bindFields(system System) []executor {
	v := reflect.ValueOf(system)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	var queries []executor
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() || field.Kind() != reflect.Struct {
			continue
		}

		typeName := field.Type().Name()
		isQuery := strings.HasPrefix(typeName, "Query[")
		if !isQuery && !strings.HasPrefix(typeName, "Singleton[") {
			continue
		}

		addr := field.Addr()
		initFn := addr.MethodByName("Init")
		if !initFn.IsValid() {
			panic("Init method not found on field: " + v.Type().Field(i).Name)
		}
		initFn.Call([]reflect.Value{reflect.ValueOf(s.storage)})

		if isQuery {
			if q, ok := addr.Interface().(executor); ok {
				queries = append(queries, q)
			}
		}
	}
	return queries
}

// Len returns the number of registered systems.
func (s *Scheduler) Len() int {
	return len(s.systems)
}

// Names returns system names in execution order.
func (s *Scheduler) Names() []string {
	names := make([]string, len(s.systems))
	for i, r := range s.systems {
		names[i] = r.name
	}
	return names
}

func (s *Scheduler) run(r *registration, frame *UpdateFrame) {
	if r.gate != nil && !r.gate(frame) {
		r.skips++
		return
	}

	for _, q := range r.queries {
		q.Execute()
	}

	start := time.Now()
	r.system.Execute(frame)
	d := time.Since(start)

	r.executions++
	r.last = d
	r.total += d
	r.min = min(r.min, d)
	r.max = max(r.max, d)
}

// Once runs every system once with the given delta time and then flushes
// the command buffer.
func (s *Scheduler) Once(dt float64) {
	frame := newUpdateFrame(dt, s.storage)
	for _, r := range s.systems {
		s.run(r, frame)
	}
	frame.Commands.Flush(s.storage)
}

// RunNamed runs only the system registered under name, ignoring its gate,
// and flushes its commands. It reports whether such a system exists.
func (s *Scheduler) RunNamed(name string, dt float64) bool {
	for _, r := range s.systems {
		if r.name != name {
			continue
		}
		frame := newUpdateFrame(dt, s.storage)
		gate := r.gate
		r.gate = nil
		s.run(r, frame)
		r.gate = gate
		frame.Commands.Flush(s.storage)
		return true
	}
	return false
}

// GetStats returns statistics about system execution.
func (s *Scheduler) GetStats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount: len(s.systems),
		Systems:     make([]SystemStats, len(s.systems)),
	}

	for i, r := range s.systems {
		var avg, lo time.Duration
		if r.executions > 0 {
			avg = r.total / time.Duration(r.executions)
			lo = r.min
		}
		stats.Systems[i] = SystemStats{
			Name:           r.name,
			ExecutionCount: r.executions,
			SkipCount:      r.skips,
			MinDuration:    lo,
			MaxDuration:    r.max,
			AvgDuration:    avg,
			LastDuration:   r.last,
			TotalDuration:  r.total,
		}
		stats.TotalExecutions += r.executions
	}
	return stats
}
