package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"study-scheduler/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestUserRepository_Upsert(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.UpsertFromTelegram(ctx, 42, "Ada", "Lovelace", "ada")
	require.NoError(t, err)

	updated, err := repo.UpsertFromTelegram(ctx, 42, "Ada", "L.", "ada_l")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	fetched, err := repo.FindByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "L.", fetched.LastName)
	assert.Equal(t, "ada_l", fetched.Username)
}

func TestUserRepository_ListForDailyReports(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepository(db)
	taskRepo := NewTaskRepository(db)
	ctx := context.Background()

	active, err := userRepo.UpsertFromTelegram(ctx, 1, "Active", "", "active")
	require.NoError(t, err)
	_, err = userRepo.UpsertFromTelegram(ctx, 2, "Idle", "", "idle")
	require.NoError(t, err)

	require.NoError(t, taskRepo.Create(ctx, &model.Task{
		UserID: active.ID, Topic: "Algebra", Status: model.StatusPending,
		Deadline: "2024-02-01", EstimatedMinutes: 30,
	}))

	// Only users with at least one task receive reports.
	recipients, err := userRepo.ListForDailyReports(ctx)
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	assert.Equal(t, active.ID, recipients[0].ID)
}

func TestSubjectRepository_GetOrCreate(t *testing.T) {
	repo := NewSubjectRepository(newTestDB(t))
	ctx := context.Background()

	first, err := repo.GetOrCreate(ctx, 1, "Math")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := repo.GetOrCreate(ctx, 1, "Math")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := repo.GetOrCreate(ctx, 2, "Math")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)

	subjects, err := repo.ListByUser(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, subjects, 1)

	_, err = repo.GetOrCreate(ctx, 1, "")
	assert.Error(t, err)
}

func TestSubjectRepository_GetByID(t *testing.T) {
	repo := NewSubjectRepository(newTestDB(t))
	ctx := context.Background()

	created, err := repo.GetOrCreate(ctx, 1, "History")
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "History", found.Name)

	// Scoped to the owning user.
	_, err = repo.GetByID(ctx, 2, created.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTaskRepository_ListSchedulable(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 1, Topic: "pending", Status: model.StatusPending, Deadline: "2024-02-01", EstimatedMinutes: 30}))
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 1, Topic: "missed", Status: model.StatusMissed, Deadline: "2024-01-01", EstimatedMinutes: 30}))
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 1, Topic: "done", Status: model.StatusDone, Deadline: "2024-01-15", EstimatedMinutes: 30}))
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 2, Topic: "other user", Status: model.StatusPending, Deadline: "2024-01-02", EstimatedMinutes: 30}))

	tasks, err := repo.ListSchedulable(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "missed", tasks[0].Topic)
	assert.Equal(t, "pending", tasks[1].Topic)
}

func TestTaskRepository_CountByStatus(t *testing.T) {
	repo := NewTaskRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 1, Topic: "a", Status: model.StatusDone, EstimatedMinutes: 10}))
	require.NoError(t, repo.Create(ctx, &model.Task{UserID: 1, Topic: "b", Status: model.StatusPending, EstimatedMinutes: 10}))

	total, err := repo.CountByUser(ctx, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	done, err := repo.CountByStatus(ctx, 1, model.StatusDone)
	require.NoError(t, err)
	assert.EqualValues(t, 1, done)
}

func TestEventRepository_Queries(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	seed := func(outcome, date string, minutes int) {
		require.NoError(t, repo.Create(ctx, &model.SessionEvent{
			UserID: 1, TaskID: 1, SubjectID: 1,
			EstimatedMinutes: 30, Difficulty: model.DifficultyMedium,
			Outcome: outcome, Minutes: minutes, ScheduledDate: date,
		}))
	}
	seed(model.OutcomeDone, "2024-01-05", 30)
	seed(model.OutcomeDone, "2024-01-10", 40)
	seed(model.OutcomeMissed, "2024-01-07", 0)

	completed, err := repo.ListCompleted(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, completed, 2)

	ranged, err := repo.ListCompletedBetween(ctx, 1, "2024-01-06", "2024-01-10")
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "2024-01-10", ranged[0].ScheduledDate)
}

func TestEventRepository_SumDoneMinutesBySubject(t *testing.T) {
	repo := NewEventRepository(newTestDB(t))
	ctx := context.Background()

	seed := func(subjectID uint, outcome string, minutes int) {
		require.NoError(t, repo.Create(ctx, &model.SessionEvent{
			UserID: 1, TaskID: 1, SubjectID: subjectID,
			EstimatedMinutes: 30, Difficulty: model.DifficultyMedium,
			Outcome: outcome, Minutes: minutes, ScheduledDate: "2024-01-05",
		}))
	}
	seed(1, model.OutcomeDone, 30)
	seed(1, model.OutcomeDone, 20)
	seed(2, model.OutcomeDone, 90)
	seed(2, model.OutcomeMissed, 500) // missed sessions never count
	require.NoError(t, repo.Create(ctx, &model.SessionEvent{
		UserID: 2, TaskID: 9, SubjectID: 3,
		EstimatedMinutes: 30, Difficulty: model.DifficultyMedium,
		Outcome: model.OutcomeDone, Minutes: 60, ScheduledDate: "2024-01-05",
	}))

	rows, err := repo.SumDoneMinutesBySubject(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, uint(2), rows[0].SubjectID)
	assert.Equal(t, 90, rows[0].Minutes)
	assert.Equal(t, uint(1), rows[1].SubjectID)
	assert.Equal(t, 50, rows[1].Minutes)

	limited, err := repo.SumDoneMinutesBySubject(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, uint(2), limited[0].SubjectID)
}

func TestScheduleRepository_Latest(t *testing.T) {
	repo := NewScheduleRepository(newTestDB(t))
	ctx := context.Background()

	latest, err := repo.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, latest)

	first := model.Schedule{UserID: 1, StartDate: "2024-01-10", DailyStudyMinutes: 60, EffectiveDailyStudyMinutes: 60, Days: []byte("[]")}
	require.NoError(t, repo.Insert(ctx, &first))
	second := model.Schedule{UserID: 1, StartDate: "2024-01-11", DailyStudyMinutes: 90, EffectiveDailyStudyMinutes: 90, Days: []byte("[]")}
	require.NoError(t, repo.Insert(ctx, &second))

	latest, err = repo.Latest(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, second.ID, latest.ID)
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	repo := NewNotificationRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Notification{UserID: 1, Type: model.NotificationMissedAlert, Body: "one"}))
	require.NoError(t, repo.Create(ctx, &model.Notification{UserID: 1, Type: model.NotificationMissedAlert, Body: "two"}))
	require.NoError(t, repo.Create(ctx, &model.Notification{UserID: 2, Type: model.NotificationMissedAlert, Body: "other"}))

	unread, err := repo.ListUnread(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	require.NoError(t, repo.MarkAllRead(ctx, 1))

	unread, err = repo.ListUnread(ctx, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)

	otherUnread, err := repo.ListUnread(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, otherUnread, 1)
}
