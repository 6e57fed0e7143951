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

type taskEnv struct {
	svc              *TaskService
	scheduler        *SchedulerService
	eventRepo        *repository.EventRepository
	notificationRepo *repository.NotificationRepository
	user             *model.User
}

func newTaskEnv(t *testing.T) taskEnv {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	eventRepo := repository.NewEventRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	scheduler := NewSchedulerService(taskRepo, eventRepo, scheduleRepo)
	svc := NewTaskService(taskRepo, subjectRepo, eventRepo, notificationRepo, scheduler, 120)

	user, err := userRepo.UpsertFromTelegram(ctx, 1001, "Ada", "", "ada")
	require.NoError(t, err)

	return taskEnv{
		svc:              svc,
		scheduler:        scheduler,
		eventRepo:        eventRepo,
		notificationRepo: notificationRepo,
		user:             user,
	}
}

func (e taskEnv) createTask(t *testing.T, input TaskInput) *model.Task {
	t.Helper()
	task, err := e.svc.CreateTask(context.Background(), e.user, input)
	require.NoError(t, err)
	return task
}

func TestCreateTask_Defaults(t *testing.T) {
	env := newTaskEnv(t)

	task := env.createTask(t, TaskInput{Subject: "Math", Topic: "Limits", EstimatedMinutes: 45, Deadline: "2026-10-01"})
	assert.Equal(t, model.StatusPending, task.Status)
	assert.Equal(t, model.DifficultyMedium, task.Difficulty)
	assert.NotZero(t, task.SubjectID)
	assert.Zero(t, task.MissedCount)
}

func TestCreateTask_Validation(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input TaskInput
	}{
		{"missing subject", TaskInput{Topic: "T", EstimatedMinutes: 30, Deadline: "2026-10-01"}},
		{"missing topic", TaskInput{Subject: "S", EstimatedMinutes: 30, Deadline: "2026-10-01"}},
		{"bad difficulty", TaskInput{Subject: "S", Topic: "T", Difficulty: "impossible", EstimatedMinutes: 30, Deadline: "2026-10-01"}},
		{"zero estimate", TaskInput{Subject: "S", Topic: "T", EstimatedMinutes: 0, Deadline: "2026-10-01"}},
		{"bad deadline", TaskInput{Subject: "S", Topic: "T", EstimatedMinutes: 30, Deadline: "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateTask(ctx, env.user, tt.input)
			assert.Error(t, err)
		})
	}
}

func TestRecordOutcome_Done(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	now := time.Now()

	task := env.createTask(t, TaskInput{Subject: "Math", Topic: "Limits", Difficulty: model.DifficultyHigh, EstimatedMinutes: 60, Deadline: "2026-10-01"})

	minutes := 45
	updated, schedule, err := env.svc.RecordOutcome(ctx, env.user, OutcomeInput{TaskID: task.ID, Outcome: model.OutcomeDone, Minutes: &minutes}, now)
	require.NoError(t, err)

	assert.Equal(t, model.StatusDone, updated.Status)
	assert.Zero(t, updated.MissedCount)

	events, err := env.eventRepo.ListCompleted(ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 45, events[0].Minutes)
	assert.Equal(t, 60, events[0].EstimatedMinutes)
	assert.Equal(t, now.Format(dateLayout), events[0].ScheduledDate)

	// No previous schedule: regeneration used the configured default budget.
	require.NotNil(t, schedule)
	assert.Equal(t, 120, schedule.DailyStudyMinutes)
	assert.Equal(t, now.Format(dateLayout), schedule.StartDate)
	// The done task is no longer schedulable.
	assert.Empty(t, schedule.Days)

	alerts, err := env.notificationRepo.ListUnread(ctx, env.user.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestRecordOutcome_Missed(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	now := time.Now()

	task := env.createTask(t, TaskInput{Subject: "Math", Topic: "Integrals", Difficulty: model.DifficultyHigh, EstimatedMinutes: 60, Deadline: "2026-10-01"})

	updated, schedule, err := env.svc.RecordOutcome(ctx, env.user, OutcomeInput{TaskID: task.ID, Outcome: model.OutcomeMissed}, now)
	require.NoError(t, err)

	assert.Equal(t, model.StatusMissed, updated.Status)
	assert.Equal(t, 1, updated.MissedCount)
	require.NotNil(t, updated.LastMissedAt)

	// Missed tasks stay schedulable, so the regenerated plan contains it.
	require.NotEmpty(t, schedule.Days)
	require.NotEmpty(t, schedule.Days[0].Items)
	assert.Equal(t, task.ID, schedule.Days[0].Items[0].TaskID)
	assert.Equal(t, model.StatusMissed, schedule.Days[0].Items[0].SourceStatus)

	alerts, err := env.notificationRepo.ListUnread(ctx, env.user.ID, 10)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, model.NotificationMissedAlert, alerts[0].Type)
	assert.Contains(t, alerts[0].Body, "Integrals")
}

func TestRecordOutcome_UsesLatestNominalBudget(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	now := time.Now()

	task := env.createTask(t, TaskInput{Subject: "Math", Topic: "Series", EstimatedMinutes: 30, Deadline: "2026-10-01"})

	_, err := env.scheduler.Generate(ctx, env.user.ID, now.Format(dateLayout), 90)
	require.NoError(t, err)

	_, schedule, err := env.svc.RecordOutcome(ctx, env.user, OutcomeInput{TaskID: task.ID, Outcome: model.OutcomeMissed}, now)
	require.NoError(t, err)
	assert.Equal(t, 90, schedule.DailyStudyMinutes)
}

func TestRecordOutcome_EventDateFallsBackToEstimateAndToday(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	now := time.Now()

	task := env.createTask(t, TaskInput{Subject: "Math", Topic: "Proofs", EstimatedMinutes: 50, Deadline: "2026-10-01"})

	_, _, err := env.svc.RecordOutcome(ctx, env.user, OutcomeInput{TaskID: task.ID, Outcome: model.OutcomeDone}, now)
	require.NoError(t, err)

	events, err := env.eventRepo.ListCompleted(ctx, env.user.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 50, events[0].Minutes)
	assert.Equal(t, now.Format(dateLayout), events[0].ScheduledDate)
}

func TestRecordOutcome_Invalid(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()
	now := time.Now()

	task := env.createTask(t, TaskInput{Subject: "Math", Topic: "Sets", EstimatedMinutes: 30, Deadline: "2026-10-01"})

	_, _, err := env.svc.RecordOutcome(ctx, env.user, OutcomeInput{TaskID: task.ID, Outcome: "skipped"}, now)
	assert.Error(t, err)

	_, _, err = env.svc.RecordOutcome(ctx, env.user, OutcomeInput{TaskID: task.ID, Outcome: model.OutcomeDone, ScheduledDate: "yesterday"}, now)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, _, err = env.svc.RecordOutcome(ctx, env.user, OutcomeInput{TaskID: 9999, Outcome: model.OutcomeDone}, now)
	assert.Error(t, err)
}
