package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekStart(t *testing.T) {
	cases := map[string]string{
		"2026-10-12": "2026-10-12", // Monday
		"2026-10-16": "2026-10-12", // Friday
		"2026-10-18": "2026-10-12", // Sunday
		"2026-10-19": "2026-10-19",
	}
	for in, want := range cases {
		d, err := ParseDate(in)
		require.NoError(t, err)
		assert.Equal(t, want, WeekKey(d.Add(15*time.Hour)), in)
	}
}

func TestSetZone(t *testing.T) {
	prev := Shop
	defer func() { Shop = prev }()

	SetZone("Africa/Lagos")
	assert.Equal(t, "Africa/Lagos", Shop.String())

	SetZone("Not/AZone")
	assert.Equal(t, "Africa/Lagos", Shop.String())

	// 23:30 UTC on Sunday is already Monday in Lagos.
	ts := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-10-19", WeekKey(ts))
}
