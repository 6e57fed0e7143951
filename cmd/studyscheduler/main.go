package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"study-scheduler/internal/bot"
	"study-scheduler/internal/config"
	"study-scheduler/internal/repository"
	"study-scheduler/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	eventRepo := repository.NewEventRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	schedulerSvc := service.NewSchedulerService(taskRepo, eventRepo, scheduleRepo)
	mlSvc := service.NewMLService(eventRepo)
	taskSvc := service.NewTaskService(taskRepo, subjectRepo, eventRepo, notificationRepo, schedulerSvc, cfg.DefaultDailyMinutes)
	analyticsSvc := service.NewAnalyticsService(taskRepo, subjectRepo, eventRepo)
	reminderSvc := service.NewReminderService(schedulerSvc, notificationRepo)

	telegramBot, err := bot.New(cfg.TelegramToken, userRepo, subjectRepo, taskSvc, schedulerSvc, mlSvc, analyticsSvc, reminderSvc, &cfg)
	if err != nil {
		log.Fatalf("bot: %v", err)
	}

	reports := service.NewReportScheduler(time.Local, func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := telegramBot.SendDailyReports(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("report: %v", err)
		}
	})

	scheduled := false
	if cfg.ReportTime != "" {
		if err := reports.ScheduleAt(cfg.ReportTime); err != nil {
			log.Fatalf("schedule daily reports: %v", err)
		}
		scheduled = true
	} else if cfg.ReportInterval > 0 {
		if err := reports.ScheduleEvery(cfg.ReportInterval); err != nil {
			log.Fatalf("schedule reports: %v", err)
		}
		scheduled = true
	}
	if scheduled {
		reports.Start()
		defer reports.Stop()
	}

	log.Println("Study scheduler bot started.")
	if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("bot stopped with error: %v", err)
	}
	log.Println("Shutdown complete.")
}
