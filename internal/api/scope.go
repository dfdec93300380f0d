package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/example/codequiz/pkg/models"
	"github.com/gofiber/fiber/v2"
)

// userIDParam is the optional userId of a request body: a string of
// digits, a number or null
type userIDParam struct {
	raw string
}

func (p *userIDParam) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		p.raw = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &p.raw)
	}
	p.raw = string(data)
	return nil
}

// parseScope resolves a raw userId into a user scope.
// An empty value is the anonymous scope.
func parseScope(raw string) (models.UserScope, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return models.Anonymous(), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return models.UserScope{}, fiber.NewError(fiber.StatusBadRequest, "userId must be a positive integer")
	}
	return models.Identified(id), nil
}

func (p userIDParam) scope() (models.UserScope, error) {
	return parseScope(p.raw)
}

// queryScope reads the userId query parameter
func queryScope(c *fiber.Ctx) (models.UserScope, error) {
	return parseScope(c.Query("userId"))
}
