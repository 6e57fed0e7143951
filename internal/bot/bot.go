package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-scheduler/internal/config"
	"study-scheduler/internal/model"
	"study-scheduler/internal/repository"
	"study-scheduler/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageSubject
	stageTopic
	stageDifficulty
	stageMinutes
	stageDeadline
)

const (
	cbDonePrefix   = "done:"
	cbMissedPrefix = "missed:"
)

const (
	btnCancelDialog = "⏪ Cancel input"
	btnLow          = "low"
	btnMedium       = "medium"
	btnHigh         = "high"

	iconPending = "🟢"
	iconMissed  = "⚠️"

	dateLayout       = "2006-01-02"
	scheduleDaysForm = 7 // days shown per schedule message
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
}

// Bot aggregates Telegram API with the scheduling services.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	subjectRepo   *repository.SubjectRepository
	taskSvc       *service.TaskService
	scheduler     *service.SchedulerService
	mlSvc         *service.MLService
	analyticsSvc  *service.AnalyticsService
	reminderSvc   *service.ReminderService
	config        *config.Config
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(
	token string,
	userRepo *repository.UserRepository,
	subjectRepo *repository.SubjectRepository,
	taskSvc *service.TaskService,
	scheduler *service.SchedulerService,
	mlSvc *service.MLService,
	analyticsSvc *service.AnalyticsService,
	reminderSvc *service.ReminderService,
	cfg *config.Config,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		subjectRepo:   subjectRepo,
		taskSvc:       taskSvc,
		scheduler:     scheduler,
		mlSvc:         mlSvc,
		analyticsSvc:  analyticsSvc,
		reminderSvc:   reminderSvc,
		config:        cfg,
		conversations: make(map[int64]*conversationState),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

// SendDailyReports delivers the reminder summary to every user who has
// study tasks on file.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.userRepo.ListForDailyReports(ctx)
	if err != nil {
		return fmt.Errorf("list report recipients: %w", err)
	}

	now := time.Now()
	for _, user := range users {
		text, err := b.reminderSvc.DailySummary(ctx, user, now)
		if err != nil {
			log.Printf("daily summary for %d: %v", user.TelegramID, err)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			log.Printf("send report to %d: %v", user.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && strings.TrimSpace(msg.Text) == btnCancelDialog {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task creation cancelled.")
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I didn't get that. Try /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "subjects":
		return b.handleSubjects(ctx, msg)
	case "done":
		return b.handleOutcome(ctx, msg, model.OutcomeDone)
	case "missed":
		return b.handleOutcome(ctx, msg, model.OutcomeMissed)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "schedule":
		return b.handleGenerateSchedule(ctx, msg)
	case "plan":
		return b.handleLatestSchedule(ctx, msg)
	case "patterns":
		return b.handlePatterns(ctx, msg)
	case "progress":
		return b.handleProgress(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Task creation cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}

	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n<b>I build adaptive study plans that learn from your track record.</b>\n\nCommands:\n"+
			"• /newtask — add a study task\n"+
			"• /tasks — list open tasks\n"+
			"• /schedule &lt;minutes&gt; [start] — generate a day-by-day plan\n"+
			"• /plan — show the latest plan\n"+
			"• /done &lt;id&gt; [minutes] — record a completed session\n"+
			"• /missed &lt;id&gt; — record a missed session\n"+
			"• /patterns — your productivity patterns\n"+
			"• /progress — completion stats and streak\n"+
			"• /report — today's study report\n"+
			"• /help — hints",
		escape(name),
	)

	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Hints</b>\n" +
		"• /newtask — add a task step by step (subject, topic, difficulty, minutes, deadline)\n" +
		"• /tasks — open tasks with one-tap done/missed buttons\n" +
		"• /subjects — your subjects\n" +
		"• /schedule 120 — plan 120 minutes per day starting today\n" +
		"• /schedule 120 2026-09-15 — plan starting at a given date\n" +
		"• /plan — latest generated plan\n" +
		"• /done 3 45 — task 3 done, took 45 minutes\n" +
		"• /missed 3 — task 3 missed (the plan regenerates automatically)\n" +
		"• /delete 3 — remove task 3 entirely\n" +
		"• /patterns — clustered productivity insights\n" +
		"• /progress — completion percent, weekly minutes, streak, top subjects\n" +
		"• /cancel — abort the current input"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageSubject})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New study task.\n<b>Step 1:</b> which subject is it for?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageSubject:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Subject can't be empty. Which subject?", cancelKeyboard())
		}
		state.input.Subject = text
		state.stage = stageTopic
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ <b>Step 2:</b> what topic will you study?", cancelKeyboard())
	case stageTopic:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Topic can't be empty. What topic?", cancelKeyboard())
		}
		state.input.Topic = text
		state.stage = stageDifficulty
		return b.sendWithReplyMarkup(msg.Chat.ID, "📊 <b>Step 3:</b> how hard is it?", difficultyKeyboard())
	case stageDifficulty:
		lower := strings.ToLower(text)
		if !model.ValidDifficulty(lower) {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick low, medium, or high.", difficultyKeyboard())
		}
		state.input.Difficulty = lower
		state.stage = stageMinutes
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏱ <b>Step 4:</b> how many minutes do you estimate?", cancelKeyboard())
	case stageMinutes:
		minutes, err := strconv.Atoi(text)
		if err != nil || minutes <= 0 {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Minutes must be a positive number, e.g. 45.", cancelKeyboard())
		}
		state.input.EstimatedMinutes = minutes
		state.stage = stageDeadline
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ <b>Step 5:</b> deadline in the form <code>2026-09-30</code>?", cancelKeyboard())
	case stageDeadline:
		if _, err := time.Parse(dateLayout, text); err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I can't parse that date. Use the form <code>2026-09-30</code>.", cancelKeyboard())
		}
		state.input.Deadline = text
		err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return nil
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Couldn't create the task: %s", escape(err.Error())), tgbotapi.NewRemoveKeyboard(true))
	}

	text := fmt.Sprintf(
		"✅ Task #%d created.\n📘 %s — %s\n📊 %s · ⏱ %d min · ⏰ %s\n\nGenerate a fresh plan with /schedule.",
		task.ID, escape(input.Subject), escape(task.Topic), task.Difficulty, task.EstimatedMinutes, task.Deadline,
	)
	return b.sendWithReplyMarkup(chatID, text, tgbotapi.NewRemoveKeyboard(true))
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	tasks, err := b.taskSvc.ListSchedulable(ctx, user)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "No open tasks. Add one with /newtask.")
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Open tasks</b>\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for _, task := range tasks {
		builder.WriteString(formatTaskLine(task))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ #%d done", task.ID), fmt.Sprintf("%s%d", cbDonePrefix, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("⚠️ #%d missed", task.ID), fmt.Sprintf("%s%d", cbMissedPrefix, task.ID)),
		))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err = b.api.Send(reply)
	return err
}

func (b *Bot) handleSubjects(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	subjects, err := b.subjectRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(subjects) == 0 {
		return b.sendText(msg.Chat.ID, "No subjects yet. They are created together with tasks via /newtask.")
	}

	var builder strings.Builder
	builder.WriteString("📂 <b>Subjects</b>\n")
	for _, subject := range subjects {
		builder.WriteString(fmt.Sprintf("• %s\n", escape(subject.Name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleOutcome(ctx context.Context, msg *tgbotapi.Message, outcome string) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Usage: /%s &lt;task id&gt;", outcome))
	}
	taskID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Task id must be a number, see /tasks.")
	}

	input := service.OutcomeInput{TaskID: uint(taskID), Outcome: outcome}
	if outcome == model.OutcomeDone && len(args) > 1 {
		if minutes, err := strconv.Atoi(args[1]); err == nil && minutes >= 0 {
			input.Minutes = &minutes
		}
	}

	return b.recordOutcome(ctx, user, msg.Chat.ID, input)
}

func (b *Bot) recordOutcome(ctx context.Context, user *model.User, chatID int64, input service.OutcomeInput) error {
	task, schedule, err := b.taskSvc.RecordOutcome(ctx, user, input, time.Now())
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Couldn't record the outcome: %s", escape(err.Error())))
	}

	var builder strings.Builder
	if task.Status == model.StatusDone {
		builder.WriteString(fmt.Sprintf("✅ Task #%d (%s) marked done.\n", task.ID, escape(task.Topic)))
	} else {
		builder.WriteString(fmt.Sprintf("⚠️ Task #%d (%s) marked missed (missed %d time(s)).\n", task.ID, escape(task.Topic), task.MissedCount))
	}
	builder.WriteString("\n♻️ Plan regenerated:\n")
	builder.WriteString(formatScheduleResult(schedule))
	return b.sendText(chatID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	arg := strings.TrimSpace(msg.CommandArguments())
	taskID, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return b.sendText(msg.Chat.ID, "Usage: /delete &lt;task id&gt;")
	}

	if err := b.taskSvc.DeleteTask(ctx, user, uint(taskID)); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't delete the task: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 Task #%d deleted.", taskID))
}

func (b *Bot) handleGenerateSchedule(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		return b.sendText(msg.Chat.ID, "Usage: /schedule &lt;minutes per day&gt; [YYYY-MM-DD]")
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil {
		return b.sendText(msg.Chat.ID, "Minutes must be a number, e.g. /schedule 120")
	}

	startDate := time.Now().Format(dateLayout)
	if len(args) > 1 {
		startDate = args[1]
	}

	schedule, err := b.scheduler.Generate(ctx, user.ID, startDate, minutes)
	switch {
	case errors.Is(err, service.ErrInvalidBudget):
		return b.sendText(msg.Chat.ID, "Daily minutes must be positive.")
	case errors.Is(err, service.ErrInvalidDate):
		return b.sendText(msg.Chat.ID, "Start date must look like <code>2026-09-15</code>.")
	case err != nil:
		return err
	}

	return b.sendText(msg.Chat.ID, formatScheduleResult(schedule))
}

func (b *Bot) handleLatestSchedule(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	schedule, err := b.scheduler.Latest(ctx, user.ID)
	if err != nil {
		return err
	}
	if schedule == nil {
		return b.sendText(msg.Chat.ID, "No plan yet. Generate one with /schedule &lt;minutes&gt;.")
	}
	return b.sendText(msg.Chat.ID, formatScheduleResult(schedule))
}

func (b *Bot) handlePatterns(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	patterns, err := b.mlSvc.Patterns(ctx, user.ID)
	if err != nil {
		return err
	}

	if !patterns.Ready {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🧠 %s (so far: %d)", escape(patterns.Explain), patterns.SampleCount))
	}

	var builder strings.Builder
	builder.WriteString("🧠 <b>Productivity patterns</b>\n")
	for _, cluster := range patterns.Clusters {
		builder.WriteString(fmt.Sprintf("• %s\n", escape(cluster.Label)))
	}
	builder.WriteString(fmt.Sprintf("\n%s", escape(patterns.Explain)))
	return b.sendText(msg.Chat.ID, builder.String())
}

func (b *Bot) handleProgress(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	summary, err := b.analyticsSvc.Summary(ctx, user.ID, time.Now())
	if err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteString("📈 <b>Progress</b>\n")
	builder.WriteString(fmt.Sprintf("• Tasks: %d total, %d done, %d open\n", summary.TotalTasks, summary.DoneTasks, summary.PendingTasks))
	builder.WriteString(fmt.Sprintf("• Completion: %.1f%%\n", summary.CompletionPercent))
	builder.WriteString(fmt.Sprintf("• Studied this week: %d min\n", summary.WeeklyMinutes))
	builder.WriteString(fmt.Sprintf("• Streak: %d day(s)\n", summary.StreakDays))
	builder.WriteString("\n🗓 Last 7 days:\n")
	for _, day := range summary.Last7Days {
		builder.WriteString(fmt.Sprintf("   %s — %d min\n", day.Date, day.Minutes))
	}
	if len(summary.TopSubjects) > 0 {
		builder.WriteString("\n🏆 Top subjects:\n")
		for _, subject := range summary.TopSubjects {
			builder.WriteString(fmt.Sprintf("   %s — %d min\n", escape(subject.SubjectName), subject.Minutes))
		}
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminderSvc.DailySummary(ctx, *user, time.Now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Couldn't build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil {
		return nil
	}

	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Printf("answer callback: %v", err)
		}
	}()

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		return err
	}

	data := cb.Data
	var outcome string
	var rawID string
	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		outcome = model.OutcomeDone
		rawID = strings.TrimPrefix(data, cbDonePrefix)
	case strings.HasPrefix(data, cbMissedPrefix):
		outcome = model.OutcomeMissed
		rawID = strings.TrimPrefix(data, cbMissedPrefix)
	default:
		return nil
	}

	taskID, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return nil
	}

	chatID := cb.From.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}
	return b.recordOutcome(ctx, user, chatID, service.OutcomeInput{TaskID: uint(taskID), Outcome: outcome})
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	return keyboard
}

func difficultyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnLow),
			tgbotapi.NewKeyboardButton(btnMedium),
			tgbotapi.NewKeyboardButton(btnHigh),
		),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)),
	)
	keyboard.OneTimeKeyboard = true
	keyboard.ResizeKeyboard = true
	return keyboard
}

func formatTaskLine(task model.Task) string {
	icon := iconPending
	if task.Status == model.StatusMissed {
		icon = iconMissed
	}
	line := fmt.Sprintf("%s #%d %s · %s · ⏱ %d min · ⏰ %s", icon, task.ID, escape(task.Topic), task.Difficulty, task.EstimatedMinutes, task.Deadline)
	if task.MissedCount > 0 {
		line += fmt.Sprintf(" · missed ×%d", task.MissedCount)
	}
	return line + "\n"
}

func formatScheduleResult(schedule *model.ScheduleResult) string {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📅 <b>Plan from %s</b>\n", schedule.StartDate))
	if schedule.EffectiveDailyStudyMinutes != schedule.DailyStudyMinutes {
		builder.WriteString(fmt.Sprintf("⏱ %d min/day requested, adjusted to %d min/day after repeated misses\n", schedule.DailyStudyMinutes, schedule.EffectiveDailyStudyMinutes))
	} else {
		builder.WriteString(fmt.Sprintf("⏱ %d min/day\n", schedule.DailyStudyMinutes))
	}

	if len(schedule.Days) == 0 {
		builder.WriteString("\nNothing to plan — no open tasks. 🎉")
		return builder.String()
	}

	shown := len(schedule.Days)
	if shown > scheduleDaysForm {
		shown = scheduleDaysForm
	}
	for _, day := range schedule.Days[:shown] {
		builder.WriteString(fmt.Sprintf("\n🗓 <b>%s</b> (%d min)\n", day.Date, day.PlannedMinutes))
		for _, item := range day.Items {
			marker := ""
			if item.IsPartial {
				marker = " ⏳"
			}
			source := ""
			if item.MinutesSource == model.MinutesSourcePrediction {
				source = " 🤖"
			}
			builder.WriteString(fmt.Sprintf("• %s — %d min%s%s\n", escape(item.Topic), item.Minutes, marker, source))
		}
	}
	if len(schedule.Days) > shown {
		builder.WriteString(fmt.Sprintf("\n… and %d more day(s).", len(schedule.Days)-shown))
	}
	return strings.TrimSpace(builder.String())
}

func escape(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
