package world

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/sirupsen/logrus"
)

// ErrDuplicateAlert is returned by Build when two alert rules share a name.
var ErrDuplicateAlert = errors.New("world: duplicate alert rule")

// Op compares a metric against a rule's threshold.
type Op string

const (
	Above Op = "above"
	Below Op = "below"
)

// ParseOp accepts "above", "below", ">" and "<".
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "above", ">":
		return Above, nil
	case "below", "<":
		return Below, nil
	}
	return "", fmt.Errorf("world: unknown alert operator %q", s)
}

// AlertRule raises an alert while Metric (see MetricNames) is beyond
// Threshold. Thresholds are in the metric's base unit.
type AlertRule struct {
	Name      string
	Metric    string
	Op        Op
	Threshold float64
	Severity  string
}

func (r AlertRule) validate() error {
	if r.Name == "" {
		return fmt.Errorf("world: alert on %q has no name", r.Metric)
	}
	if _, ok := metricValue(&WorldStats{}, r.Metric); !ok {
		return &addon.ConfigurationError{
			Kind:   addon.KindUnknownMetric,
			Addon:  string(addon.Alerts),
			Detail: fmt.Sprintf("alert %q refers to %q", r.Name, r.Metric),
		}
	}
	if r.Op != Above && r.Op != Below {
		return fmt.Errorf("world: alert %q: unknown operator %q", r.Name, r.Op)
	}
	return nil
}

func (r AlertRule) firing(v float64) bool {
	if r.Op == Above {
		return v > r.Threshold
	}
	return v < r.Threshold
}

// ActiveAlert is a rule that is currently firing.
type ActiveAlert struct {
	Rule  AlertRule
	Value float64
	Since uint64
}

type alertSet struct {
	rules  []AlertRule
	active map[string]*ActiveAlert
}

func (w *World) initAlerts() error {
	if !enabled(w.flags, addon.Alerts) {
		return nil
	}
	w.alerts = &alertSet{
		rules:  append([]AlertRule(nil), w.opts.alertRules...),
		active: make(map[string]*ActiveAlert),
	}
	return nil
}

// evaluate checks every rule against snap and logs transitions.
func (a *alertSet) evaluate(snap *WorldStats, log *logrus.Entry) {
	for _, r := range a.rules {
		v, _ := metricValue(snap, r.Metric)
		fields := logrus.Fields{"alert": r.Name, "metric": r.Metric, "value": v, "threshold": r.Threshold}
		cur, on := a.active[r.Name]
		switch {
		case r.firing(v) && !on:
			a.active[r.Name] = &ActiveAlert{Rule: r, Value: v, Since: snap.Frame}
			log.WithFields(fields).WithField("severity", r.Severity).Warn("alert raised")
		case r.firing(v):
			cur.Value = v
		case on:
			delete(a.active, r.Name)
			log.WithFields(fields).Info("alert cleared")
		}
	}
}

// Alerts lists firing alerts by name.
func (w *World) Alerts() ([]ActiveAlert, error) {
	if err := w.gate("Alerts", addon.Alerts); err != nil {
		return nil, err
	}
	out := make([]ActiveAlert, 0, len(w.alerts.active))
	for _, a := range w.alerts.active {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rule.Name < out[j].Rule.Name })
	return out, nil
}
