package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"study-scheduler/internal/model"
	"study-scheduler/internal/repository"
)

const (
	dateLayout        = "2006-01-02"
	farFutureDeadline = "9999-12-31"

	nearDeadlineDays = 7
	maxScheduleDays  = 365

	missedCountThreshold     = 2
	capacityReductionFactor  = 0.8
	minEffectiveDailyMinutes = 30
)

// Caller-correctable validation failures. Nothing is written when these occur.
var (
	ErrInvalidBudget = errors.New("dailyStudyMinutes must be positive")
	ErrInvalidDate   = errors.New("startDate must be a valid YYYY-MM-DD date")
)

// SchedulerService turns a user's open tasks into a stored day-by-day plan.
// Each generation is a stateless computation over data read at call start.
type SchedulerService struct {
	taskRepo     *repository.TaskRepository
	eventRepo    *repository.EventRepository
	scheduleRepo *repository.ScheduleRepository
}

func NewSchedulerService(taskRepo *repository.TaskRepository, eventRepo *repository.EventRepository, scheduleRepo *repository.ScheduleRepository) *SchedulerService {
	return &SchedulerService{taskRepo: taskRepo, eventRepo: eventRepo, scheduleRepo: scheduleRepo}
}

// taskPlan is the per-task duration decision for one generation run.
type taskPlan struct {
	minutes int
	source  string
	explain string
}

// Generate builds and stores a new schedule starting at startDate with the
// given nominal daily budget. Tasks are ordered by deadline, difficulty,
// deadline proximity and miss count, then packed greedily into successive
// days; tasks split across day boundaries when they do not fit.
func (s *SchedulerService) Generate(ctx context.Context, userID uint, startDate string, dailyMinutes int) (*model.ScheduleResult, error) {
	if dailyMinutes <= 0 {
		return nil, ErrInvalidBudget
	}
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	tasks, err := s.taskRepo.ListSchedulable(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	events, err := s.eventRepo.ListCompleted(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	prioritizeTasks(tasks, start)

	durationModel := FitDurationModel(events)
	plans := make(map[uint]taskPlan, len(tasks))
	maxMissed := 0
	for _, t := range tasks {
		if pred, explain, ok := durationModel.Predict(t); ok {
			plans[t.ID] = taskPlan{minutes: pred, source: model.MinutesSourcePrediction, explain: explain}
		} else {
			minutes := t.EstimatedMinutes
			if minutes < 1 {
				minutes = 1
			}
			plans[t.ID] = taskPlan{minutes: minutes, source: model.MinutesSourceEstimated}
		}
		if t.MissedCount > maxMissed {
			maxMissed = t.MissedCount
		}
	}

	effective := effectiveDailyMinutes(dailyMinutes, maxMissed)
	days := allocateDays(tasks, plans, start, effective)

	rawDays, err := json.Marshal(days)
	if err != nil {
		return nil, fmt.Errorf("encode days: %w", err)
	}

	schedule := model.Schedule{
		UserID:                     userID,
		StartDate:                  startDate,
		DailyStudyMinutes:          dailyMinutes,
		EffectiveDailyStudyMinutes: effective,
		Days:                       rawDays,
	}
	if err := s.scheduleRepo.Insert(ctx, &schedule); err != nil {
		return nil, err
	}

	return &model.ScheduleResult{
		ID:                         schedule.ID,
		StartDate:                  startDate,
		DailyStudyMinutes:          dailyMinutes,
		EffectiveDailyStudyMinutes: effective,
		Days:                       days,
		CreatedAt:                  schedule.CreatedAt,
	}, nil
}

// Latest returns the user's most recently generated schedule, or nil when none
// exists yet.
func (s *SchedulerService) Latest(ctx context.Context, userID uint) (*model.ScheduleResult, error) {
	schedule, err := s.scheduleRepo.Latest(ctx, userID)
	if err != nil || schedule == nil {
		return nil, err
	}

	var days []model.ScheduleDay
	if len(schedule.Days) > 0 {
		if err := json.Unmarshal(schedule.Days, &days); err != nil {
			return nil, fmt.Errorf("decode days: %w", err)
		}
	}

	return &model.ScheduleResult{
		ID:                         schedule.ID,
		StartDate:                  schedule.StartDate,
		DailyStudyMinutes:          schedule.DailyStudyMinutes,
		EffectiveDailyStudyMinutes: schedule.EffectiveDailyStudyMinutes,
		Days:                       days,
		CreatedAt:                  schedule.CreatedAt,
	}, nil
}

// prioritizeTasks orders tasks in place: deadline ascending (missing deadlines
// sort far-future), difficulty descending, near-deadline boost descending,
// missed count descending. Ties keep their incoming order.
func prioritizeTasks(tasks []model.Task, start time.Time) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]

		da, db := sortableDeadline(a.Deadline), sortableDeadline(b.Deadline)
		if da != db {
			return da < db
		}

		ra, rb := model.DifficultyRank(a.Difficulty), model.DifficultyRank(b.Difficulty)
		if ra != rb {
			return ra > rb
		}

		ba, bb := nearDeadlineBoost(da, start), nearDeadlineBoost(db, start)
		if ba != bb {
			return ba > bb
		}

		if a.MissedCount != b.MissedCount {
			return a.MissedCount > b.MissedCount
		}
		return false
	})
}

func sortableDeadline(deadline string) string {
	if deadline == "" {
		return farFutureDeadline
	}
	return deadline
}

// nearDeadlineBoost is 1 when the deadline falls within nearDeadlineDays of the
// schedule start, 0 otherwise. Unparseable deadlines never get the boost.
func nearDeadlineBoost(deadline string, start time.Time) int {
	d, err := time.Parse(dateLayout, deadline)
	if err != nil {
		return 0
	}
	daysLeft := int(d.Sub(start) / (24 * time.Hour))
	if daysLeft <= nearDeadlineDays {
		return 1
	}
	return 0
}

// effectiveDailyMinutes applies the adaptive capacity rule: two or more misses
// on any task reduce the nominal budget by 20%, floored at a working minimum.
func effectiveDailyMinutes(nominal, maxMissed int) int {
	if maxMissed < missedCountThreshold {
		return nominal
	}
	reduced := int(math.Round(float64(nominal) * capacityReductionFactor))
	if reduced < minEffectiveDailyMinutes {
		reduced = minEffectiveDailyMinutes
	}
	return reduced
}

// allocateDays packs the prioritized tasks into successive days under the
// effective budget. Allocation stops once every task is exhausted, or at
// maxScheduleDays as a termination guard.
func allocateDays(tasks []model.Task, plans map[uint]taskPlan, start time.Time, effective int) []model.ScheduleDay {
	remaining := make(map[uint]int, len(tasks))
	for _, t := range tasks {
		remaining[t.ID] = plans[t.ID].minutes
	}

	days := []model.ScheduleDay{}
	for dayIndex := 0; dayIndex < maxScheduleDays; dayIndex++ {
		anyLeft := false
		for _, rem := range remaining {
			if rem > 0 {
				anyLeft = true
				break
			}
		}
		if !anyLeft {
			break
		}

		capacity := effective
		items := []model.ScheduleItem{}
		for _, t := range tasks {
			if capacity <= 0 {
				break
			}
			rem := remaining[t.ID]
			if rem <= 0 {
				continue
			}

			allocate := rem
			if allocate > capacity {
				allocate = capacity
			}
			remaining[t.ID] = rem - allocate
			capacity -= allocate

			plan := plans[t.ID]
			items = append(items, model.ScheduleItem{
				TaskID:        t.ID,
				SubjectID:     t.SubjectID,
				Topic:         t.Topic,
				Difficulty:    normalizedDifficulty(t.Difficulty),
				Deadline:      t.Deadline,
				Minutes:       allocate,
				IsPartial:     allocate < rem,
				SourceStatus:  t.Status,
				MissedCount:   t.MissedCount,
				MinutesSource: plan.source,
				MLExplain:     plan.explain,
			})
		}

		days = append(days, model.ScheduleDay{
			Date:           start.AddDate(0, 0, dayIndex).Format(dateLayout),
			PlannedMinutes: effective - capacity,
			Items:          items,
		})
	}

	return days
}

func normalizedDifficulty(difficulty string) string {
	if !model.ValidDifficulty(difficulty) {
		return model.DifficultyMedium
	}
	return strings.ToLower(difficulty)
}
