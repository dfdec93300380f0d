package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/codequiz/internal/api"
	"github.com/example/codequiz/internal/bot"
	"github.com/example/codequiz/internal/cache"
	"github.com/example/codequiz/internal/config"
	"github.com/example/codequiz/internal/database"
	"github.com/example/codequiz/internal/excel"
	"github.com/example/codequiz/internal/logger"
	"github.com/example/codequiz/internal/metrics"
	"github.com/example/codequiz/internal/scheduler"
	"github.com/example/codequiz/internal/selection"
	"github.com/example/codequiz/internal/service"
	"github.com/example/codequiz/internal/spaced_repetition"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logrus.WithError(err).Fatal("codequiz stopped")
	}
}

// run wires the application and blocks until it is interrupted
func run(args []string) error {
	flags := flag.NewFlagSet("codequiz", flag.ContinueOnError)
	envFile := flags.String("env", ".env", "optional env file")
	importFile := flags.String("import", "", "import questions from an .xlsx or .csv file and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New("codequiz", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, database.Config{Type: cfg.DBType, Path: cfg.DBPath, URL: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	store := database.NewStore(db)
	defer store.Close()

	m := metrics.New()

	var questionCache *cache.QuestionCache
	if cfg.CacheEnabled() {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("question cache disabled")
		} else {
			defer client.Close()
			questionCache = cache.NewQuestionCache(client, store, cfg.RedisTTL, log.WithField("component", "cache"), m)
		}
	}

	importer := excel.NewImporter(store.Questions, log.WithField("component", "import"))
	if *importFile != "" {
		if err := importQuestions(ctx, importer, questionCache, *importFile, log); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		return nil
	}
	if cfg.QuestionsFile != "" {
		n, err := store.Questions.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count questions: %w", err)
		}
		if n == 0 {
			if err := importQuestions(ctx, importer, questionCache, cfg.QuestionsFile, log); err != nil {
				return fmt.Errorf("failed to seed question bank: %w", err)
			}
		}
	}

	selector := selection.NewSelector(selection.DefaultWeights(), cfg.RandomSeed)
	quiz := service.NewQuizService(store, selector, spaced_repetition.NewSM2(), service.Config{
		ExamPassRatio: cfg.ExamPassRatio,
		AvoidRecentN:  cfg.AvoidRecentN,
	}, log.WithField("component", "quiz"), m)
	if questionCache != nil {
		quiz.WithQuestionSource(questionCache)
	}

	server := api.NewServer(quiz, log.WithField("component", "http"), m)
	go func() {
		if err := server.Listen(cfg.HTTPAddr); err != nil {
			log.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	if cfg.BotEnabled() {
		startBot(ctx, cfg, quiz, store, m, log)
	}

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	return nil
}

// startBot runs the Telegram bot and its reminder scheduler until ctx ends
func startBot(ctx context.Context, cfg *config.Config, quiz *service.QuizService, store *database.Store, m *metrics.Metrics, log *logrus.Entry) {
	botCfg := bot.DefaultConfig()
	botCfg.Token = cfg.TelegramBotToken
	botCfg.AdminUserIDs = cfg.AdminUserIDs
	botCfg.ExamSize = cfg.ExamSize
	window := scheduler.Window{StartHour: cfg.NotificationStartHour, EndHour: cfg.NotificationEndHour}
	if !window.Contains(botCfg.DefaultNotificationHour) {
		botCfg.DefaultNotificationHour = window.StartHour
	}

	b, err := bot.New(botCfg, quiz, store.Users, store.Statistics, log.WithField("component", "bot"))
	if err != nil {
		log.WithError(err).Error("telegram bot disabled")
		return
	}

	if cfg.EnableScheduler {
		sched := scheduler.New(b, store.Users, store.Statistics, window, log.WithField("component", "scheduler"), m)
		if err := sched.Start(); err != nil {
			log.WithError(err).Error("reminder scheduler disabled")
		} else {
			b.SetReminderChecker(sched)
			go func() {
				<-ctx.Done()
				sched.Stop()
			}()
		}
	}

	go func() {
		if err := b.Start(ctx); err != nil {
			log.WithError(err).Error("bot stopped")
		}
	}()
}

func importQuestions(ctx context.Context, importer *excel.Importer, questionCache *cache.QuestionCache, path string, log *logrus.Entry) error {
	importCfg := excel.DefaultImportConfig()
	importCfg.FilePath = path
	res, err := importer.ImportQuestions(ctx, importCfg)
	if err != nil {
		return err
	}
	for _, msg := range res.Errors {
		log.WithField("file", path).Warn(msg)
	}
	if questionCache != nil {
		if err := questionCache.Invalidate(ctx); err != nil {
			log.WithError(err).Warn("failed to invalidate question cache")
		}
	}
	return nil
}
