package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayBoundaries(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 2, 14, 15, 30, 45, 123, time.UTC)

	assert.Equal(t, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), DayOf(at))
	assert.Equal(t, time.Date(2026, 2, 14, 23, 59, 59, 0, time.UTC), EndOfDay(at))
	assert.Equal(t, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), NextDay(at))
}

func TestNextDayCrossesMonthEnd(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), NextDay(at))
}

func TestOnOrBeforeDay(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	assert.True(t, OnOrBeforeDay(time.Date(2026, 2, 13, 23, 59, 59, 0, time.UTC), day))
	assert.True(t, OnOrBeforeDay(time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC), day))
	assert.True(t, OnOrBeforeDay(time.Date(2026, 2, 14, 23, 59, 59, 0, time.UTC), day))
	assert.False(t, OnOrBeforeDay(time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), day))
}
