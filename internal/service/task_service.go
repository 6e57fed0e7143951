package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"study-scheduler/internal/model"
	"study-scheduler/internal/repository"
)

// TaskInput represents data required to create a study task.
type TaskInput struct {
	Subject          string
	Topic            string
	Difficulty       string
	EstimatedMinutes int
	Deadline         string // YYYY-MM-DD
}

// OutcomeInput records how a planned session went.
type OutcomeInput struct {
	TaskID        uint
	Outcome       string // done | missed
	Minutes       *int   // actual minutes; nil falls back to the task's estimate
	ScheduledDate string // YYYY-MM-DD; empty means today
}

// TaskService wraps task lifecycle logic: creation, outcome recording and the
// automatic schedule regeneration that follows every recorded outcome.
type TaskService struct {
	taskRepo            *repository.TaskRepository
	subjectRepo         *repository.SubjectRepository
	eventRepo           *repository.EventRepository
	notificationRepo    *repository.NotificationRepository
	scheduler           *SchedulerService
	defaultDailyMinutes int
}

func NewTaskService(
	taskRepo *repository.TaskRepository,
	subjectRepo *repository.SubjectRepository,
	eventRepo *repository.EventRepository,
	notificationRepo *repository.NotificationRepository,
	scheduler *SchedulerService,
	defaultDailyMinutes int,
) *TaskService {
	return &TaskService{
		taskRepo:            taskRepo,
		subjectRepo:         subjectRepo,
		eventRepo:           eventRepo,
		notificationRepo:    notificationRepo,
		scheduler:           scheduler,
		defaultDailyMinutes: defaultDailyMinutes,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if strings.TrimSpace(input.Topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}

	difficulty := strings.ToLower(strings.TrimSpace(input.Difficulty))
	if difficulty == "" {
		difficulty = model.DifficultyMedium
	}
	if !model.ValidDifficulty(difficulty) {
		return nil, fmt.Errorf("difficulty must be low, medium, or high")
	}

	if input.EstimatedMinutes <= 0 {
		return nil, fmt.Errorf("estimated minutes must be positive")
	}
	if _, err := time.Parse(dateLayout, input.Deadline); err != nil {
		return nil, fmt.Errorf("deadline must be a YYYY-MM-DD date")
	}

	subject, err := s.subjectRepo.GetOrCreate(ctx, user.ID, strings.TrimSpace(input.Subject))
	if err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:           user.ID,
		SubjectID:        subject.ID,
		Topic:            strings.TrimSpace(input.Topic),
		Difficulty:       difficulty,
		EstimatedMinutes: input.EstimatedMinutes,
		Deadline:         input.Deadline,
		Status:           model.StatusPending,
	}
	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskService) ListSchedulable(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListSchedulable(ctx, user.ID)
}

func (s *TaskService) ListByStatus(ctx context.Context, user *model.User, status string) ([]model.Task, error) {
	if status != "" && !model.ValidStatus(status) {
		return nil, fmt.Errorf("status must be pending, done, or missed")
	}
	return s.taskRepo.ListByUser(ctx, user.ID, strings.ToLower(status))
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// DeleteTask removes a task completely. History events referring to it stay.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID uint) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}

// RecordOutcome updates the task's status, appends an immutable session event,
// raises a missed alert when applicable, then regenerates the schedule from
// today using the latest schedule's nominal budget (or the configured default).
// Returns the updated task and the freshly generated schedule.
func (s *TaskService) RecordOutcome(ctx context.Context, user *model.User, input OutcomeInput, now time.Time) (*model.Task, *model.ScheduleResult, error) {
	outcome := strings.ToLower(strings.TrimSpace(input.Outcome))
	if outcome != model.OutcomeDone && outcome != model.OutcomeMissed {
		return nil, nil, fmt.Errorf("outcome must be done or missed")
	}

	scheduledDate := input.ScheduledDate
	if scheduledDate == "" {
		scheduledDate = now.Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, scheduledDate); err != nil {
		return nil, nil, ErrInvalidDate
	}

	task, err := s.taskRepo.FindByID(ctx, user.ID, input.TaskID)
	if err != nil {
		return nil, nil, err
	}

	if outcome == model.OutcomeDone {
		task.Status = model.StatusDone
	} else {
		task.Status = model.StatusMissed
		task.MissedCount++
		missedAt := now
		task.LastMissedAt = &missedAt
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, nil, err
	}

	minutes := task.EstimatedMinutes
	if input.Minutes != nil {
		minutes = *input.Minutes
	}
	if minutes < 0 {
		minutes = 0
	}

	if outcome == model.OutcomeMissed {
		notification := model.Notification{
			UserID:        user.ID,
			Type:          model.NotificationMissedAlert,
			Title:         "Missed task",
			Body:          fmt.Sprintf("You missed %q on %s.", task.Topic, scheduledDate),
			TaskID:        task.ID,
			ScheduledDate: scheduledDate,
		}
		if err := s.notificationRepo.Create(ctx, &notification); err != nil {
			return nil, nil, err
		}
	}

	event := model.SessionEvent{
		UserID:           user.ID,
		TaskID:           task.ID,
		SubjectID:        task.SubjectID,
		EstimatedMinutes: task.EstimatedMinutes,
		Difficulty:       task.Difficulty,
		Outcome:          outcome,
		Minutes:          minutes,
		ScheduledDate:    scheduledDate,
	}
	if err := s.eventRepo.Create(ctx, &event); err != nil {
		return nil, nil, err
	}

	dailyMinutes := s.defaultDailyMinutes
	latest, err := s.scheduler.Latest(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	if latest != nil && latest.DailyStudyMinutes > 0 {
		dailyMinutes = latest.DailyStudyMinutes
	}

	schedule, err := s.scheduler.Generate(ctx, user.ID, now.Format(dateLayout), dailyMinutes)
	if err != nil {
		return nil, nil, err
	}
	return task, schedule, nil
}
