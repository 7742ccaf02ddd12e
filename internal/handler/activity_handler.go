package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/dto"
	"github.com/noah-isme/student-records-api/internal/service"
	"github.com/noah-isme/student-records-api/internal/utils"
)

// ActivityHandler exposes the audit log.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches audit log endpoints to the router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return respondError(c, h.logger, err)
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return respondError(c, h.logger, err)
	}

	var since *time.Time
	if raw := strings.TrimSpace(c.Query("since")); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return respondError(c, h.logger, apperrors.Validation("since must be an RFC3339 timestamp",
				apperrors.FieldError{Field: "since", Message: "must be an RFC3339 timestamp"}))
		}
		since = &parsed
	}

	result, err := h.service.List(withRequestContext(c), dto.ActivityListRequest{
		Page:       page,
		PageSize:   pageSize,
		EntityType: c.Query("entity_type"),
		EntityKey:  c.Query("entity_key"),
		Action:     c.Query("action"),
		Since:      since,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "activity retrieved", result)
}
