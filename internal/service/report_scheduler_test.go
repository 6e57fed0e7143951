package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyReportSpec(t *testing.T) {
	spec, err := dailyReportSpec("08:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 8 * * *", spec)

	_, err = dailyReportSpec("25:00")
	assert.Error(t, err)
	_, err = dailyReportSpec("8am")
	assert.Error(t, err)
}

func TestReportScheduler_Registration(t *testing.T) {
	s := NewReportScheduler(time.UTC, func() {})

	require.NoError(t, s.ScheduleAt("07:15"))
	assert.Error(t, s.ScheduleAt("not-a-time"))

	require.NoError(t, s.ScheduleEvery(5*time.Hour))
	assert.Error(t, s.ScheduleEvery(0))
	assert.Error(t, s.ScheduleEvery(-time.Minute))
}
