package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ReportScheduler runs the daily report delivery on a cron schedule. It owns a
// single job: either at a fixed wall-clock time or at a fixed interval.
type ReportScheduler struct {
	cron *cron.Cron
	job  func()
}

func NewReportScheduler(loc *time.Location, job func()) *ReportScheduler {
	return &ReportScheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
		job:  job,
	}
}

// ScheduleAt registers the report job daily at the given HH:MM local time.
func (s *ReportScheduler) ScheduleAt(timeStr string) error {
	spec, err := dailyReportSpec(timeStr)
	if err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(spec, s.job); err != nil {
		return fmt.Errorf("register daily report job: %w", err)
	}
	return nil
}

// ScheduleEvery registers the report job at a fixed interval instead.
func (s *ReportScheduler) ScheduleEvery(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("report interval must be positive, got %s", interval)
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), s.job); err != nil {
		return fmt.Errorf("register report job: %w", err)
	}
	return nil
}

func (s *ReportScheduler) Start() {
	s.cron.Start()
}

func (s *ReportScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// dailyReportSpec converts an HH:MM time into a six-field cron spec
// (second minute hour dom month dow).
func dailyReportSpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid report time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in report time %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in report time %q", timeStr)
	}
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
