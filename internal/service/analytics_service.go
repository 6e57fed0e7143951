package service

import (
	"context"
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"study-scheduler/internal/model"
	"study-scheduler/internal/repository"
)

const (
	// streakLookbackDays bounds how far back the streak computation goes.
	streakLookbackDays = 60
	// topSubjectsLimit caps the per-subject minutes ranking.
	topSubjectsLimit = 10
)

// DayMinutes is the studied minutes of a single calendar day.
type DayMinutes struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

// SubjectMinutes ranks a subject by its all-time studied minutes.
type SubjectMinutes struct {
	SubjectID   uint   `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	Minutes     int    `json:"minutes"`
}

// AnalyticsSummary aggregates a user's progress for the dashboard-style view.
type AnalyticsSummary struct {
	TotalTasks        int              `json:"totalTasks"`
	DoneTasks         int              `json:"doneTasks"`
	PendingTasks      int              `json:"pendingTasks"`
	CompletionPercent float64          `json:"completionPercent"`
	Last7Days         []DayMinutes     `json:"last7Days"`
	WeeklyMinutes     int              `json:"weeklyMinutes"`
	StreakDays        int              `json:"streakDays"`
	TopSubjects       []SubjectMinutes `json:"topSubjects"`
}

// AnalyticsService computes progress aggregates from tasks and session history.
type AnalyticsService struct {
	taskRepo    *repository.TaskRepository
	subjectRepo *repository.SubjectRepository
	eventRepo   *repository.EventRepository
}

func NewAnalyticsService(taskRepo *repository.TaskRepository, subjectRepo *repository.SubjectRepository, eventRepo *repository.EventRepository) *AnalyticsService {
	return &AnalyticsService{taskRepo: taskRepo, subjectRepo: subjectRepo, eventRepo: eventRepo}
}

// Summary reports task completion, the studied minutes of the last seven days,
// the current study streak ending today, and the most-studied subjects.
func (s *AnalyticsService) Summary(ctx context.Context, userID uint, today time.Time) (*AnalyticsSummary, error) {
	total, err := s.taskRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	done, err := s.taskRepo.CountByStatus(ctx, userID, model.StatusDone)
	if err != nil {
		return nil, err
	}

	completion := 0.0
	if total > 0 {
		completion = math.Round(float64(done)/float64(total)*1000) / 10
	}

	from := today.AddDate(0, 0, -(streakLookbackDays - 1))
	events, err := s.eventRepo.ListCompletedBetween(ctx, userID, from.Format(dateLayout), today.Format(dateLayout))
	if err != nil {
		return nil, err
	}

	minutesByDay := make(map[string]int)
	for _, e := range events {
		minutesByDay[e.ScheduledDate] += e.Minutes
	}

	last7 := make([]DayMinutes, 0, 7)
	weekly := 0
	for i := 6; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format(dateLayout)
		minutes := minutesByDay[day]
		last7 = append(last7, DayMinutes{Date: day, Minutes: minutes})
		weekly += minutes
	}

	streak := 0
	for i := 0; i < streakLookbackDays; i++ {
		day := today.AddDate(0, 0, -i).Format(dateLayout)
		if minutesByDay[day] <= 0 {
			break
		}
		streak++
	}

	topSubjects, err := s.topSubjects(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &AnalyticsSummary{
		TotalTasks:        int(total),
		DoneTasks:         int(done),
		PendingTasks:      int(total - done),
		CompletionPercent: completion,
		Last7Days:         last7,
		WeeklyMinutes:     weekly,
		StreakDays:        streak,
		TopSubjects:       topSubjects,
	}, nil
}

// topSubjects ranks subjects by all-time done minutes. Events whose subject
// has since disappeared still count, under the name "Unknown".
func (s *AnalyticsService) topSubjects(ctx context.Context, userID uint) ([]SubjectMinutes, error) {
	rows, err := s.eventRepo.SumDoneMinutesBySubject(ctx, userID, topSubjectsLimit)
	if err != nil {
		return nil, err
	}

	top := make([]SubjectMinutes, 0, len(rows))
	for _, row := range rows {
		name := "Unknown"
		subject, err := s.subjectRepo.GetByID(ctx, userID, row.SubjectID)
		switch {
		case err == nil:
			name = subject.Name
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
		top = append(top, SubjectMinutes{SubjectID: row.SubjectID, SubjectName: name, Minutes: row.Minutes})
	}
	return top, nil
}
