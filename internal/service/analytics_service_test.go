package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-scheduler/internal/model"
	"study-scheduler/internal/repository"
	"study-scheduler/internal/testutil"
)

func TestAnalyticsSummary(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	taskRepo := repository.NewTaskRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	eventRepo := repository.NewEventRepository(db)
	svc := NewAnalyticsService(taskRepo, subjectRepo, eventRepo)

	today, err := time.Parse(dateLayout, "2024-02-10")
	require.NoError(t, err)

	math, err := subjectRepo.GetOrCreate(ctx, 1, "Math")
	require.NoError(t, err)
	physics, err := subjectRepo.GetOrCreate(ctx, 1, "Physics")
	require.NoError(t, err)

	require.NoError(t, taskRepo.Create(ctx, &model.Task{UserID: 1, Topic: "a", Status: model.StatusDone, EstimatedMinutes: 30, Deadline: "2024-02-01"}))
	require.NoError(t, taskRepo.Create(ctx, &model.Task{UserID: 1, Topic: "b", Status: model.StatusPending, EstimatedMinutes: 30, Deadline: "2024-02-20"}))
	require.NoError(t, taskRepo.Create(ctx, &model.Task{UserID: 1, Topic: "c", Status: model.StatusMissed, EstimatedMinutes: 30, Deadline: "2024-02-05"}))

	seed := func(date string, minutes int, outcome string, subjectID uint) {
		require.NoError(t, eventRepo.Create(ctx, &model.SessionEvent{
			UserID: 1, TaskID: 1, SubjectID: subjectID,
			EstimatedMinutes: 30, Difficulty: model.DifficultyMedium,
			Outcome: outcome, Minutes: minutes, ScheduledDate: date,
		}))
	}
	seed("2024-02-10", 40, model.OutcomeDone, math.ID)
	seed("2024-02-09", 20, model.OutcomeDone, math.ID)
	seed("2024-02-09", 10, model.OutcomeDone, physics.ID)
	seed("2024-02-07", 60, model.OutcomeDone, math.ID) // gap on the 8th ends the streak
	seed("2024-02-10", 90, model.OutcomeMissed, math.ID)
	seed("2024-01-01", 120, model.OutcomeDone, physics.ID) // outside the 7-day window

	summary, err := svc.Summary(ctx, 1, today)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalTasks)
	assert.Equal(t, 1, summary.DoneTasks)
	assert.Equal(t, 2, summary.PendingTasks)
	assert.InDelta(t, 33.3, summary.CompletionPercent, 0.001)

	require.Len(t, summary.Last7Days, 7)
	assert.Equal(t, "2024-02-04", summary.Last7Days[0].Date)
	assert.Equal(t, "2024-02-10", summary.Last7Days[6].Date)
	assert.Equal(t, 40, summary.Last7Days[6].Minutes)
	assert.Equal(t, 30, summary.Last7Days[5].Minutes)
	assert.Equal(t, 0, summary.Last7Days[4].Minutes)
	assert.Equal(t, 130, summary.WeeklyMinutes)

	assert.Equal(t, 2, summary.StreakDays)

	// All-time done minutes by subject: Physics 130 beats Math 120, and the
	// missed session counts for neither.
	require.Len(t, summary.TopSubjects, 2)
	assert.Equal(t, "Physics", summary.TopSubjects[0].SubjectName)
	assert.Equal(t, 130, summary.TopSubjects[0].Minutes)
	assert.Equal(t, "Math", summary.TopSubjects[1].SubjectName)
	assert.Equal(t, 120, summary.TopSubjects[1].Minutes)
}

func TestAnalyticsSummary_TopSubjectsUnknownAndScoped(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	subjectRepo := repository.NewSubjectRepository(db)
	eventRepo := repository.NewEventRepository(db)
	svc := NewAnalyticsService(repository.NewTaskRepository(db), subjectRepo, eventRepo)

	today, err := time.Parse(dateLayout, "2024-02-10")
	require.NoError(t, err)

	chemistry, err := subjectRepo.GetOrCreate(ctx, 2, "Chemistry")
	require.NoError(t, err)

	// Subject 99 never existed; Chemistry belongs to another user. Both still
	// rank, but only under "Unknown".
	require.NoError(t, eventRepo.Create(ctx, &model.SessionEvent{
		UserID: 1, TaskID: 1, SubjectID: 99,
		EstimatedMinutes: 30, Difficulty: model.DifficultyMedium,
		Outcome: model.OutcomeDone, Minutes: 50, ScheduledDate: "2024-02-01",
	}))
	require.NoError(t, eventRepo.Create(ctx, &model.SessionEvent{
		UserID: 1, TaskID: 2, SubjectID: chemistry.ID,
		EstimatedMinutes: 30, Difficulty: model.DifficultyMedium,
		Outcome: model.OutcomeDone, Minutes: 20, ScheduledDate: "2024-02-02",
	}))

	summary, err := svc.Summary(ctx, 1, today)
	require.NoError(t, err)

	require.Len(t, summary.TopSubjects, 2)
	assert.Equal(t, "Unknown", summary.TopSubjects[0].SubjectName)
	assert.Equal(t, 50, summary.TopSubjects[0].Minutes)
	assert.Equal(t, "Unknown", summary.TopSubjects[1].SubjectName)
	assert.Equal(t, 20, summary.TopSubjects[1].Minutes)
}

func TestAnalyticsSummary_Empty(t *testing.T) {
	db := testutil.NewTestDB(t)
	svc := NewAnalyticsService(repository.NewTaskRepository(db), repository.NewSubjectRepository(db), repository.NewEventRepository(db))

	today, err := time.Parse(dateLayout, "2024-02-10")
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background(), 1, today)
	require.NoError(t, err)
	assert.Zero(t, summary.TotalTasks)
	assert.Zero(t, summary.CompletionPercent)
	assert.Zero(t, summary.WeeklyMinutes)
	assert.Zero(t, summary.StreakDays)
	assert.Len(t, summary.Last7Days, 7)
	assert.Empty(t, summary.TopSubjects)
}
