// Package units is the builtin unit catalog. Metrics use it to convert raw
// readings into base units and to pick exported metric name suffixes.
package units

import (
	"fmt"
	"sort"
)

// Quantity is the physical dimension of a unit.
type Quantity string

const (
	Duration   Quantity = "duration"
	Data       Quantity = "data"
	Percentage Quantity = "percentage"
	Frequency  Quantity = "frequency"
	Amount     Quantity = "amount"
)

// Unit is a named scale of a quantity. Factor converts a value in this unit
// into the quantity's base unit.
type Unit struct {
	Name     string
	Symbol   string
	Quantity Quantity
	Factor   float64
}

var (
	Seconds      = Unit{Name: "seconds", Symbol: "s", Quantity: Duration, Factor: 1}
	Milliseconds = Unit{Name: "milliseconds", Symbol: "ms", Quantity: Duration, Factor: 1e-3}
	Microseconds = Unit{Name: "microseconds", Symbol: "us", Quantity: Duration, Factor: 1e-6}
	Nanoseconds  = Unit{Name: "nanoseconds", Symbol: "ns", Quantity: Duration, Factor: 1e-9}

	Bytes     = Unit{Name: "bytes", Symbol: "B", Quantity: Data, Factor: 1}
	KiloBytes = Unit{Name: "kibibytes", Symbol: "KiB", Quantity: Data, Factor: 1024}
	MegaBytes = Unit{Name: "mebibytes", Symbol: "MiB", Quantity: Data, Factor: 1024 * 1024}

	Ratio   = Unit{Name: "ratio", Symbol: "", Quantity: Percentage, Factor: 1}
	Percent = Unit{Name: "percent", Symbol: "%", Quantity: Percentage, Factor: 0.01}

	Hertz = Unit{Name: "hertz", Symbol: "Hz", Quantity: Frequency, Factor: 1}

	Count = Unit{Name: "count", Symbol: "", Quantity: Amount, Factor: 1}
)

// Base returns the base unit of q.
func Base(q Quantity) Unit {
	switch q {
	case Duration:
		return Seconds
	case Data:
		return Bytes
	case Percentage:
		return Ratio
	case Frequency:
		return Hertz
	default:
		return Count
	}
}

// Convert rescales v from one unit to another of the same quantity.
func Convert(v float64, from, to Unit) (float64, error) {
	if from.Quantity != to.Quantity {
		return 0, fmt.Errorf("units: cannot convert %s (%s) to %s (%s)", from.Name, from.Quantity, to.Name, to.Quantity)
	}
	return v * from.Factor / to.Factor, nil
}

// ToBase converts v to the base unit of u's quantity.
func (u Unit) ToBase(v float64) float64 {
	return v * u.Factor
}

// Suffix is the Prometheus name suffix for values of u once converted to
// base units. Plain counts have none.
func (u Unit) Suffix() string {
	if u.Quantity == Amount {
		return ""
	}
	return Base(u.Quantity).Name
}

func (u Unit) String() string {
	if u.Symbol == "" {
		return u.Name
	}
	return u.Symbol
}

// Catalog is a name and symbol index over units.
type Catalog struct {
	byName map[string]Unit
}

// NewCatalog returns a catalog holding every builtin unit.
func NewCatalog() *Catalog {
	c := &Catalog{byName: make(map[string]Unit)}
	for _, u := range []Unit{
		Seconds, Milliseconds, Microseconds, Nanoseconds,
		Bytes, KiloBytes, MegaBytes,
		Ratio, Percent, Hertz, Count,
	} {
		c.Add(u)
	}
	return c
}

// Add registers u under its name and symbol. Later additions win.
func (c *Catalog) Add(u Unit) {
	c.byName[u.Name] = u
	if u.Symbol != "" {
		c.byName[u.Symbol] = u
	}
}

// Lookup finds a unit by name or symbol.
func (c *Catalog) Lookup(name string) (Unit, bool) {
	u, ok := c.byName[name]
	return u, ok
}

// All returns every unit once, sorted by quantity then factor.
func (c *Catalog) All() []Unit {
	seen := make(map[string]bool)
	var out []Unit
	for _, u := range c.byName {
		if seen[u.Name] {
			continue
		}
		seen[u.Name] = true
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity < out[j].Quantity
		}
		return out[i].Factor < out[j].Factor
	})
	return out
}
