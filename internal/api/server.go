package api

import (
	"context"
	"sort"

	"github.com/example/codequiz/internal/metrics"
	"github.com/example/codequiz/internal/selection"
	"github.com/example/codequiz/internal/service"
	"github.com/example/codequiz/internal/statistics"
	"github.com/example/codequiz/pkg/models"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
)

// QuizService is the part of the quiz service the HTTP API exposes
type QuizService interface {
	GenerateExam(ctx context.Context, req service.ExamRequest) (*selection.ExamResult, error)
	OrderTraining(ctx context.Context, req service.TrainingRequest) (*selection.TrainingResult, error)
	RecordAttempt(ctx context.Context, req service.AttemptRequest) (*service.AttemptResult, error)
	GlobalMetrics(ctx context.Context, scope models.UserScope) (*statistics.Global, error)
	Dashboard(ctx context.Context, scope models.UserScope) (*service.DashboardResult, error)
	RecordExamResult(ctx context.Context, req service.ExamResultRequest) (*service.ExamOutcome, error)
}

// Server is the HTTP transport of the quiz service
type Server struct {
	app     *fiber.App
	svc     QuizService
	log     *logrus.Entry
	metrics *metrics.Metrics
}

// NewServer creates the fiber app with every route registered
func NewServer(svc QuizService, log *logrus.Entry, m *metrics.Metrics) *Server {
	s := &Server{svc: svc, log: log, metrics: m}

	s.app = fiber.New(fiber.Config{
		AppName:               "codequiz",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New())
	s.app.Use(requestid.New())
	s.app.Use(s.accessLog())

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	api := s.app.Group("/api")
	api.Post("/questions/select", s.selectQuestions)
	api.Post("/attempts", s.recordAttempt)
	api.Get("/metrics", s.globalMetrics)
	api.Get("/progress", s.progress)
	api.Post("/exams/results", s.recordExamResult)

	routes := s.app.GetRoutes(true)
	sort.Slice(routes, func(i, j int) bool {
		return routes[i].Path < routes[j].Path
	})
	for _, route := range routes {
		s.log.WithFields(logrus.Fields{"method": route.Method, "path": route.Path}).Debug("route registered")
	}
}

// App exposes the fiber app, mainly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown
func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("HTTP API listening")
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
