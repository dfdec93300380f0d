package api

import (
	"encoding/json"

	"github.com/example/codequiz/internal/selection"
	"github.com/example/codequiz/internal/service"
	"github.com/gofiber/fiber/v2"
)

const (
	modeExam     = "exam"
	modeTraining = "training"
)

type selectRequest struct {
	Mode         string                    `json:"mode"`
	Count        int                       `json:"count"`
	Filters      selection.Filters         `json:"filters"`
	Weights      selection.WeightOverrides `json:"weights"`
	UserID       userIDParam               `json:"userId"`
	AvoidRecentN *int                      `json:"avoidRecentN"`
}

type attemptRequest struct {
	QuestionID int64       `json:"questionId"`
	Choice     string      `json:"choix"`
	Correct    *bool       `json:"correct"`
	UserID     userIDParam `json:"userId"`
}

type examResultRequest struct {
	SessionID       string      `json:"sessionId"`
	Total           int         `json:"total"`
	Correct         int         `json:"correct"`
	DurationSeconds int         `json:"durationSeconds"`
	UserID          userIDParam `json:"userId"`
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := json.Unmarshal(c.Body(), out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid JSON body")
	}
	return nil
}

// selectQuestions serves both exam generation and training ordering
func (s *Server) selectQuestions(c *fiber.Ctx) error {
	var req selectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	scope, err := req.UserID.scope()
	if err != nil {
		return err
	}

	switch req.Mode {
	case modeExam:
		res, err := s.svc.GenerateExam(c.UserContext(), service.ExamRequest{
			Scope:        scope,
			Count:        req.Count,
			Filters:      req.Filters,
			Weights:      req.Weights,
			AvoidRecentN: req.AvoidRecentN,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	case modeTraining:
		res, err := s.svc.OrderTraining(c.UserContext(), service.TrainingRequest{
			Scope:   scope,
			Filters: req.Filters,
			Weights: req.Weights,
		})
		if err != nil {
			return err
		}
		return c.JSON(res)
	default:
		return &selection.ValidationError{Field: "mode", Message: "must be exam or training"}
	}
}

func (s *Server) recordAttempt(c *fiber.Ctx) error {
	var req attemptRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	scope, err := req.UserID.scope()
	if err != nil {
		return err
	}

	res, err := s.svc.RecordAttempt(c.UserContext(), service.AttemptRequest{
		Scope:      scope,
		QuestionID: req.QuestionID,
		Choice:     req.Choice,
		Correct:    req.Correct,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (s *Server) globalMetrics(c *fiber.Ctx) error {
	scope, err := queryScope(c)
	if err != nil {
		return err
	}
	res, err := s.svc.GlobalMetrics(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) progress(c *fiber.Ctx) error {
	scope, err := queryScope(c)
	if err != nil {
		return err
	}
	res, err := s.svc.Dashboard(c.UserContext(), scope)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (s *Server) recordExamResult(c *fiber.Ctx) error {
	var req examResultRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	scope, err := req.UserID.scope()
	if err != nil {
		return err
	}

	res, err := s.svc.RecordExamResult(c.UserContext(), service.ExamResultRequest{
		Scope:           scope,
		SessionID:       req.SessionID,
		Total:           req.Total,
		Correct:         req.Correct,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}
