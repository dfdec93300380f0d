package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/example/codequiz/internal/database"
	"github.com/example/codequiz/internal/selection"
	"github.com/example/codequiz/internal/service"
	"github.com/example/codequiz/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// QuizService is the part of the quiz service the bot drives
type QuizService interface {
	GenerateExam(ctx context.Context, req service.ExamRequest) (*selection.ExamResult, error)
	OrderTraining(ctx context.Context, req service.TrainingRequest) (*selection.TrainingResult, error)
	RecordAttempt(ctx context.Context, req service.AttemptRequest) (*service.AttemptResult, error)
	Dashboard(ctx context.Context, scope models.UserScope) (*service.DashboardResult, error)
	RecordExamResult(ctx context.Context, req service.ExamResultRequest) (*service.ExamOutcome, error)
}

// UserStore persists bot users and their reminder settings
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	UpdateNotificationSettings(ctx context.Context, id int64, enabled bool, hour int) error
}

// OverviewSource reports instance-wide counters for administrators
type OverviewSource interface {
	Overview(ctx context.Context) (*database.Overview, error)
}

// ReminderChecker sends a reminder to one user on demand
type ReminderChecker interface {
	RunManualCheck(ctx context.Context, userID int64) error
}

// sender is the subset of the Telegram API the bot calls
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot application
type Bot struct {
	botAPI    *tgbotapi.BotAPI
	api       sender
	quiz      QuizService
	users     UserStore
	overview  OverviewSource
	reminders ReminderChecker
	sessions  *sessionStore
	admins    map[int64]bool
	config    Config
	log       *logrus.Entry
	now       func() time.Time
	afterFunc func(d time.Duration, f func()) stopper
}

// New authorizes against the Telegram API and creates the bot
func New(cfg Config, quiz QuizService, users UserStore, overview OverviewSource, log *logrus.Entry) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram bot token is not set")
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to create bot: %w", err)
	}
	log.WithField("account", botAPI.Self.UserName).Info("authorized on telegram")

	b := newBot(botAPI, cfg, quiz, users, overview, log)
	b.botAPI = botAPI
	return b, nil
}

func newBot(api sender, cfg Config, quiz QuizService, users UserStore, overview OverviewSource, log *logrus.Entry) *Bot {
	b := &Bot{
		api:      api,
		quiz:     quiz,
		users:    users,
		overview: overview,
		sessions: newSessionStore(),
		admins:   make(map[int64]bool, len(cfg.AdminUserIDs)),
		config:   cfg,
		log:      log,
		now:      time.Now,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
	for _, id := range cfg.AdminUserIDs {
		b.admins[id] = true
	}
	return b
}

// SetReminderChecker enables the on-demand reminder command
func (b *Bot) SetReminderChecker(rc ReminderChecker) {
	b.reminders = rc
}

// Start handles updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	if b.botAPI == nil {
		return errors.New("bot is not connected")
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.botAPI.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.botAPI.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.HandleCommand(ctx, update.Message)
	case update.Message != nil:
		err = b.sendText(update.Message.Chat.ID, "Je n'ai pas compris. Utilisez /help pour la liste des commandes.")
	case update.CallbackQuery != nil:
		err = b.HandleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.log.WithError(err).WithField("update_id", update.UpdateID).Error("failed to handle update")
	}
}

// isAdmin checks if a user is an admin
func (b *Bot) isAdmin(userID int64) bool {
	return b.admins[userID]
}

// SendReminders implements the scheduler.Notifier interface
func (b *Bot) SendReminders(userID int64, count int) error {
	// private chats share the user's ID
	msg := tgbotapi.NewMessage(userID, reminderText(count))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: "🎯 Réviser maintenant", CallbackData: callbackTrain}}})
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send reminder: %w", err)
	}
	return nil
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) error {
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendMessage(tgbotapi.NewMessage(chatID, text))
}
