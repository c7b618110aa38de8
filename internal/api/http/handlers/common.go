package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/hey-coffee/maintenance-service/internal/domain"
	"github.com/hey-coffee/maintenance-service/internal/events"
	"github.com/hey-coffee/maintenance-service/internal/service"
)

// Actor identity comes from trusted gateway headers; this service does not
// authenticate callers itself.
const (
	headerActorID   = "X-Actor-Id"
	headerActorType = "X-Actor-Type"
)

func actorFromHeaders(c *fiber.Ctx) events.Actor {
	id := strings.TrimSpace(c.Get(headerActorID))
	actorType := domain.ActorType(strings.ToUpper(strings.TrimSpace(c.Get(headerActorType))))
	switch actorType {
	case domain.ActorTypeTechnician:
		if id != "" {
			return service.TechnicianActor(id)
		}
	case domain.ActorTypeStaff:
		if id != "" {
			return service.StaffActor(id)
		}
	}
	if id != "" {
		return service.StaffActor(id)
	}
	return service.SystemActor()
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

// evaluationTime resolves the instant a time-sensitive endpoint evaluates
// at: the at query param when present, otherwise the wall clock.
func evaluationTime(c *fiber.Ctx) time.Time {
	if at := parseTime(c.Query("at")); at != nil {
		return *at
	}
	return time.Now()
}
