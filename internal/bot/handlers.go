package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/codequiz/internal/database"
	"github.com/example/codequiz/internal/service"
	"github.com/example/codequiz/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Constants for callback data
const (
	callbackExam      = "start_exam"
	callbackTrain     = "start_training"
	callbackStats     = "show_stats"
	callbackStop      = "stop_session"
	callbackMainMenu  = "main_menu"
	callbackAnswerPfx = "answer:"
)

func answerCallback(questionID int64, letter string) string {
	return fmt.Sprintf("%s%d:%s", callbackAnswerPfx, questionID, letter)
}

// parseAnswerCallback extracts the question ID and letter of an answer button
func parseAnswerCallback(data string) (int64, string, bool) {
	rest := strings.TrimPrefix(data, callbackAnswerPfx)
	if rest == data {
		return 0, "", false
	}
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 || parts[1] == "" {
		return 0, "", false
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", false
	}
	return id, parts[1], true
}

// HandleCommand handles bot commands
func (b *Bot) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.Chat == nil {
		return errors.New("invalid message: required fields are missing")
	}

	var err error
	switch message.Command() {
	case "start":
		err = b.handleStart(ctx, message)
	case "help":
		err = b.handleHelp(message)
	case "exam":
		err = b.startExam(ctx, message.From.ID, message.Chat.ID)
	case "train":
		err = b.startTraining(ctx, message.From.ID, message.Chat.ID)
	case "stop":
		err = b.stopSession(message.From.ID, message.Chat.ID)
	case "stats":
		err = b.handleStats(ctx, message.From.ID, message.Chat.ID)
	case "notify":
		err = b.handleNotifyCommand(ctx, message)
	case "time":
		err = b.handleTimeCommand(ctx, message)
	case "rappel":
		err = b.handleReminderCommand(ctx, message)
	case "admin_stats":
		err = b.handleAdminStats(ctx, message)
	default:
		err = b.sendText(message.Chat.ID, "Commande inconnue. Utilisez /help pour la liste des commandes.")
	}
	return err
}

func (b *Bot) handleStart(ctx context.Context, message *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, message.From); err != nil {
		return err
	}

	text := fmt.Sprintf("Bonjour %s ! 👋\n\n"+
		"Je vous aide à préparer l'examen du code de la route.\n"+
		"Les questions que vous ratez reviennent plus souvent, celles que vous maîtrisez s'espacent.",
		message.From.FirstName)
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) error {
	text := "Commandes disponibles :\n\n" +
		fmt.Sprintf("/exam - examen blanc de %d questions\n", b.config.ExamSize) +
		"/train - entraînement sur les questions prioritaires\n" +
		"/stop - arrêter la session en cours\n" +
		"/stats - vos statistiques et trophées\n" +
		"/notify on|off - activer ou désactiver les rappels\n" +
		"/time <heure> - heure des rappels (0-23, UTC)\n" +
		"/rappel - vérifier tout de suite les questions à réviser"
	if b.isAdmin(message.From.ID) {
		text += "\n/admin_stats - statistiques système"
	}
	return b.sendText(message.Chat.ID, text)
}

// MainMenuButtons returns the buttons for the main menu
func (b *Bot) MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "📝 Examen blanc", CallbackData: callbackExam},
			{Text: "🎯 Entraînement", CallbackData: callbackTrain},
		},
		{
			{Text: "📊 Statistiques", CallbackData: callbackStats},
		},
	}
}

// ensureUser registers a Telegram user, keeping existing settings
func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	user := &models.User{
		ID:                  from.ID,
		Username:            from.UserName,
		FirstName:           from.FirstName,
		IsAdmin:             b.isAdmin(from.ID),
		NotificationEnabled: true,
		NotificationHour:    b.config.DefaultNotificationHour,
	}
	if err := b.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

func (b *Bot) startExam(ctx context.Context, userID, chatID int64) error {
	res, err := b.quiz.GenerateExam(ctx, service.ExamRequest{
		Scope: models.Identified(userID),
		Count: b.config.ExamSize,
	})
	if err != nil {
		return fmt.Errorf("failed to generate exam: %w", err)
	}
	if len(res.Questions) == 0 {
		return b.sendText(chatID, "Aucune question disponible pour le moment.")
	}

	now := b.now()
	sess := &quizSession{
		Mode:      modeExam,
		Questions: res.Questions,
		StartedAt: now,
		Deadline:  now.Add(b.config.ExamDuration),
	}
	sess.mu.Lock()
	b.openSession(userID, sess)
	sess.timer = b.afterFunc(b.config.ExamDuration, func() { b.expireExam(userID, chatID, sess) })
	sess.mu.Unlock()

	intro := fmt.Sprintf("📝 Examen blanc : %d questions, %d minutes. Bonne chance !",
		len(res.Questions), int(b.config.ExamDuration.Minutes()))
	if err := b.sendText(chatID, intro); err != nil {
		return err
	}
	return b.sendQuestion(chatID, sess)
}

func (b *Bot) startTraining(ctx context.Context, userID, chatID int64) error {
	sess := &quizSession{Mode: modeTraining, StartedAt: b.now()}
	q, ok, err := b.nextTrainingQuestion(ctx, userID, 0)
	if err != nil {
		return err
	}
	if !ok {
		return b.sendText(chatID, "Aucune question disponible pour le moment.")
	}
	sess.Questions = []models.Question{q}
	b.openSession(userID, sess)
	return b.sendQuestion(chatID, sess)
}

// nextTrainingQuestion returns the highest priority question other than skip
func (b *Bot) nextTrainingQuestion(ctx context.Context, userID, skip int64) (models.Question, bool, error) {
	res, err := b.quiz.OrderTraining(ctx, service.TrainingRequest{Scope: models.Identified(userID)})
	if err != nil {
		return models.Question{}, false, fmt.Errorf("failed to order training: %w", err)
	}
	for _, sq := range res.Questions {
		if sq.ID != skip {
			return sq.Question, true, nil
		}
	}
	return models.Question{}, false, nil
}

func (b *Bot) sendQuestion(chatID int64, sess *quizSession) error {
	q, ok := sess.CurrentQuestion()
	if !ok {
		return nil
	}
	total := 0
	if sess.Mode == modeExam {
		total = len(sess.Questions)
	}
	text := formatQuestion(q, sess.Current+1, total)
	keyboard := createKeyboard(answerButtons(q))

	if strings.HasPrefix(q.Image, "http://") || strings.HasPrefix(q.Image, "https://") {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(q.Image))
		photo.Caption = text
		photo.ReplyMarkup = keyboard
		return b.sendMessage(photo)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return b.sendMessage(msg)
}

// openSession makes sess current and closes the session it replaces
func (b *Bot) openSession(userID int64, sess *quizSession) {
	prev := b.sessions.set(userID, sess)
	if prev == nil || prev == sess {
		return
	}
	prev.mu.Lock()
	prev.close()
	prev.mu.Unlock()
}

// expireExam closes an exam whose deadline passed without a final answer
func (b *Bot) expireExam(userID, chatID int64, sess *quizSession) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.done || !b.sessions.is(userID, sess) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := b.finishExam(ctx, userID, chatID, sess, true); err != nil {
		b.log.WithError(err).WithField("user_id", userID).Error("failed to close expired exam")
	}
}

func (b *Bot) stopSession(userID, chatID int64) error {
	sess, ok := b.sessions.get(userID)
	if !ok {
		return b.sendText(chatID, "Aucune session en cours.")
	}
	b.sessions.remove(userID, sess)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.close()
	text := fmt.Sprintf("Session arrêtée : %d bonnes réponses sur %d.", sess.Correct, sess.Answered)
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// HandleCallback handles callback queries from buttons
func (b *Bot) HandleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.From == nil || callback.Message == nil || callback.Message.Chat == nil {
		return errors.New("invalid callback: required fields are missing")
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.log.WithError(err).Debug("failed to acknowledge callback")
	}

	userID := callback.From.ID
	chatID := callback.Message.Chat.ID

	switch callback.Data {
	case callbackMainMenu:
		msg := tgbotapi.NewMessage(chatID, "Menu principal :")
		msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
		return b.sendMessage(msg)
	case callbackExam:
		return b.startExam(ctx, userID, chatID)
	case callbackTrain:
		return b.startTraining(ctx, userID, chatID)
	case callbackStats:
		return b.handleStats(ctx, userID, chatID)
	case callbackStop:
		return b.stopSession(userID, chatID)
	}

	if questionID, letter, ok := parseAnswerCallback(callback.Data); ok {
		return b.handleAnswer(ctx, userID, chatID, questionID, letter)
	}
	b.log.WithField("data", callback.Data).Warn("unknown callback data")
	return nil
}

// handleAnswer records an answer of the current session and moves on
func (b *Bot) handleAnswer(ctx context.Context, userID, chatID, questionID int64, letter string) error {
	sess, ok := b.sessions.get(userID)
	if !ok {
		return b.sendText(chatID, "Cette session est terminée. Utilisez /exam ou /train pour recommencer.")
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.done {
		return nil
	}

	q, ok := sess.CurrentQuestion()
	if !ok || q.ID != questionID {
		// stale button of an earlier question
		return nil
	}

	if sess.Mode == modeExam && sess.Expired(b.now()) {
		return b.finishExam(ctx, userID, chatID, sess, true)
	}

	res, err := b.quiz.RecordAttempt(ctx, service.AttemptRequest{
		Scope:      models.Identified(userID),
		QuestionID: questionID,
		Choice:     letter,
	})
	if errors.Is(err, service.ErrQuestionNotFound) {
		b.log.WithField("question_id", questionID).Warn("answered question no longer exists")
		sess.Current++
		return b.advance(ctx, userID, chatID, sess)
	}
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}

	sess.Answered++
	if res.Attempt.Correct {
		sess.Correct++
	}
	sess.Current++

	if sess.Mode == modeTraining {
		if err := b.sendText(chatID, formatFeedback(res)); err != nil {
			return err
		}
	}
	return b.advance(ctx, userID, chatID, sess)
}

// advance sends the next question or closes the session
func (b *Bot) advance(ctx context.Context, userID, chatID int64, sess *quizSession) error {
	if sess.Mode == modeTraining {
		var last int64
		if n := len(sess.Questions); n > 0 {
			last = sess.Questions[n-1].ID
		}
		next, ok, err := b.nextTrainingQuestion(ctx, userID, last)
		if err != nil {
			return err
		}
		if !ok {
			sess.close()
			b.sessions.remove(userID, sess)
			return b.sendText(chatID, "Plus de questions disponibles.")
		}
		sess.Questions = append(sess.Questions, next)
		return b.sendQuestion(chatID, sess)
	}

	if sess.Current >= len(sess.Questions) {
		return b.finishExam(ctx, userID, chatID, sess, false)
	}
	return b.sendQuestion(chatID, sess)
}

// finishExam stores the exam result; unanswered questions count as wrong
func (b *Bot) finishExam(ctx context.Context, userID, chatID int64, sess *quizSession, timedOut bool) error {
	sess.close()
	b.sessions.remove(userID, sess)

	out, err := b.quiz.RecordExamResult(ctx, service.ExamResultRequest{
		Scope:           models.Identified(userID),
		Total:           len(sess.Questions),
		Correct:         sess.Correct,
		DurationSeconds: int(b.now().Sub(sess.StartedAt).Seconds()),
	})
	if err != nil {
		return fmt.Errorf("failed to store exam result: %w", err)
	}

	msg := tgbotapi.NewMessage(chatID, formatExamOutcome(out, timedOut))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

func (b *Bot) handleStats(ctx context.Context, userID, chatID int64) error {
	d, err := b.quiz.Dashboard(ctx, models.Identified(userID))
	if err != nil {
		return fmt.Errorf("failed to get dashboard: %w", err)
	}
	msg := tgbotapi.NewMessage(chatID, formatDashboard(d))
	msg.ReplyMarkup = createKeyboard(b.MainMenuButtons())
	return b.sendMessage(msg)
}

// updateNotifications changes reminder settings, registering the user if needed
func (b *Bot) updateNotifications(ctx context.Context, from *tgbotapi.User, change func(*models.User)) (*models.User, error) {
	user, err := b.users.GetByID(ctx, from.ID)
	if errors.Is(err, database.ErrNotFound) {
		user, err = b.ensureUser(ctx, from)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	change(user)
	if err := b.users.UpdateNotificationSettings(ctx, user.ID, user.NotificationEnabled, user.NotificationHour); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (b *Bot) handleNotifyCommand(ctx context.Context, message *tgbotapi.Message) error {
	var enabled bool
	switch strings.ToLower(strings.TrimSpace(message.CommandArguments())) {
	case "on":
		enabled = true
	case "off":
		enabled = false
	default:
		return b.sendText(message.Chat.ID, "Veuillez indiquer on ou off : /notify <on|off>")
	}

	user, err := b.updateNotifications(ctx, message.From, func(u *models.User) { u.NotificationEnabled = enabled })
	if err != nil {
		return err
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("✅ Rappels %s", boolToEnabledString(user.NotificationEnabled)))
}

func (b *Bot) handleTimeCommand(ctx context.Context, message *tgbotapi.Message) error {
	args := strings.TrimSpace(message.CommandArguments())
	if args == "" {
		return b.sendText(message.Chat.ID, "Veuillez indiquer une heure (0-23) : /time <heure>")
	}
	hour, err := strconv.Atoi(args)
	if err != nil || hour < 0 || hour > 23 {
		return b.sendText(message.Chat.ID, "Veuillez indiquer une heure valide (0-23)")
	}

	if _, err := b.updateNotifications(ctx, message.From, func(u *models.User) { u.NotificationHour = hour }); err != nil {
		return err
	}
	return b.sendText(message.Chat.ID, fmt.Sprintf("✅ Rappels programmés à %d:00 (UTC)", hour))
}

func (b *Bot) handleReminderCommand(ctx context.Context, message *tgbotapi.Message) error {
	if b.reminders == nil {
		return b.sendText(message.Chat.ID, "Les rappels ne sont pas activés sur ce serveur.")
	}
	if err := b.reminders.RunManualCheck(ctx, message.From.ID); err != nil {
		return fmt.Errorf("failed to check reminders: %w", err)
	}
	return nil
}

func (b *Bot) handleAdminStats(ctx context.Context, message *tgbotapi.Message) error {
	if !b.isAdmin(message.From.ID) {
		return b.sendText(message.Chat.ID, "Cette commande est réservée aux administrateurs.")
	}
	o, err := b.overview.Overview(ctx)
	if err != nil {
		return fmt.Errorf("failed to get overview: %w", err)
	}
	b.log.WithFields(logrus.Fields{"admin": message.From.ID}).Info("admin stats requested")
	return b.sendText(message.Chat.ID, formatOverview(o)+"\n\nHeure serveur : "+b.now().UTC().Format(time.DateTime))
}
