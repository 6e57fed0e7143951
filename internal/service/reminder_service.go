package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"study-scheduler/internal/model"
	"study-scheduler/internal/repository"
)

const reportAlertLimit = 10

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	scheduler        *SchedulerService
	notificationRepo *repository.NotificationRepository
}

func NewReminderService(scheduler *SchedulerService, notificationRepo *repository.NotificationRepository) *ReminderService {
	return &ReminderService{scheduler: scheduler, notificationRepo: notificationRepo}
}

// DailySummary composes today's planned sessions from the latest schedule plus
// any unread alerts. Alerts included in the summary are marked read.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	today := now.Format(dateLayout)

	var builder strings.Builder
	builder.WriteString("📚 <b>Daily study report</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", today))

	latest, err := s.scheduler.Latest(ctx, user.ID)
	if err != nil {
		return "", err
	}

	day := findDay(latest, today)
	if day == nil || len(day.Items) == 0 {
		builder.WriteString("Nothing planned for today. Use /schedule to generate a plan.\n")
	} else {
		builder.WriteString("🔥 <b>Planned today</b>\n")
		for _, item := range day.Items {
			builder.WriteString(formatPlannedItem(item))
		}
		builder.WriteString(fmt.Sprintf("\n⏱ Total: %d min\n", day.PlannedMinutes))
	}

	alerts, err := s.notificationRepo.ListUnread(ctx, user.ID, reportAlertLimit)
	if err != nil {
		return "", err
	}
	if len(alerts) > 0 {
		builder.WriteString("\n🔔 <b>Alerts</b>\n")
		for _, alert := range alerts {
			builder.WriteString(fmt.Sprintf("• %s\n", html.EscapeString(alert.Body)))
		}
		if err := s.notificationRepo.MarkAllRead(ctx, user.ID); err != nil {
			return "", err
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func findDay(schedule *model.ScheduleResult, date string) *model.ScheduleDay {
	if schedule == nil {
		return nil
	}
	for i := range schedule.Days {
		if schedule.Days[i].Date == date {
			return &schedule.Days[i]
		}
	}
	return nil
}

func formatPlannedItem(item model.ScheduleItem) string {
	var sb strings.Builder

	icon := "🟢"
	switch item.Difficulty {
	case model.DifficultyHigh:
		icon = "🔴"
	case model.DifficultyMedium:
		icon = "🟡"
	}

	sb.WriteString(fmt.Sprintf("%s %s — %d min", icon, html.EscapeString(strings.TrimSpace(item.Topic)), item.Minutes))
	if item.IsPartial {
		sb.WriteString(" (continues later)")
	}
	if item.Deadline != "" {
		sb.WriteString(fmt.Sprintf("\n   ⏰ due %s", item.Deadline))
	}
	sb.WriteByte('\n')
	return sb.String()
}
