package units_test

import (
	"testing"

	"github.com/plus3/ecsrt/ecs/units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	v, err := units.Convert(1500, units.Milliseconds, units.Seconds)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, v, 1e-12)

	v, err = units.Convert(2, units.MegaBytes, units.KiloBytes)
	require.NoError(t, err)
	assert.InDelta(t, 2048, v, 1e-9)

	v, err = units.Convert(25, units.Percent, units.Ratio)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v, 1e-12)

	_, err = units.Convert(1, units.Seconds, units.Bytes)
	assert.Error(t, err)
}

func TestSuffix(t *testing.T) {
	assert.Equal(t, "seconds", units.Nanoseconds.Suffix())
	assert.Equal(t, "bytes", units.KiloBytes.Suffix())
	assert.Equal(t, "ratio", units.Percent.Suffix())
	assert.Equal(t, "hertz", units.Hertz.Suffix())
	assert.Equal(t, "", units.Count.Suffix())
}

func TestCatalog(t *testing.T) {
	c := units.NewCatalog()

	for _, name := range []string{"ms", "milliseconds", "KiB", "Hz", "count", "%"} {
		_, ok := c.Lookup(name)
		assert.True(t, ok, name)
	}
	_, ok := c.Lookup("furlongs")
	assert.False(t, ok)

	all := c.All()
	assert.Len(t, all, 11)
	for i := 1; i < len(all); i++ {
		if all[i-1].Quantity == all[i].Quantity {
			assert.LessOrEqual(t, all[i-1].Factor, all[i].Factor)
		}
	}

	c.Add(units.Unit{Name: "frames", Quantity: units.Amount, Factor: 1})
	u, ok := c.Lookup("frames")
	require.True(t, ok)
	assert.Equal(t, units.Count.Suffix(), u.Suffix())
	assert.Len(t, c.All(), 12)
}

func TestString(t *testing.T) {
	assert.Equal(t, "ms", units.Milliseconds.String())
	assert.Equal(t, "count", units.Count.String())
}
