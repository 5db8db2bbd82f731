package month

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDay(t *testing.T) {
	ts := time.Date(2024, 3, 15, 23, 59, 12, 400, time.UTC)
	assert.Equal(t, date(2024, 3, 15), Day(ts))
}

func TestEnd(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		want  time.Time
	}{
		{name: "mid month", start: date(2024, 1, 15), want: date(2024, 2, 15)},
		{name: "rolls over year", start: date(2024, 12, 10), want: date(2025, 1, 10)},
		{name: "day does not exist in next month", start: date(2024, 1, 31), want: date(2024, 3, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, End(tt.start))
		})
	}
}

func TestContains(t *testing.T) {
	start := date(2024, 1, 15)
	end := date(2024, 2, 15)

	assert.True(t, Contains(start, end, start))
	assert.True(t, Contains(start, end, end))
	assert.True(t, Contains(start, end, date(2024, 2, 1)))
	assert.False(t, Contains(start, end, date(2024, 1, 14)))
	assert.False(t, Contains(start, end, date(2024, 2, 16)))
}
