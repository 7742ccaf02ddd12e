package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-records-api/internal/service"
	"github.com/noah-isme/student-records-api/internal/utils"
)

// HeaderTranscriptPartial marks a transcript containing unresolved entries.
const HeaderTranscriptPartial = "X-Transcript-Partial"

// TranscriptHandler serves student transcripts.
type TranscriptHandler struct {
	service service.TranscriptService
	logger  zerolog.Logger
}

// NewTranscriptHandler constructs the handler.
func NewTranscriptHandler(service service.TranscriptService, logger zerolog.Logger) *TranscriptHandler {
	return &TranscriptHandler{
		service: service,
		logger:  logger.With().Str("component", "transcript_handler").Logger(),
	}
}

// Get handles GET .../:id/transcript?student=&sort=.
func (h *TranscriptHandler) Get(c *fiber.Ctx) error {
	resolution, err := service.ParseStudentResolution(c.Query("student"))
	if err != nil {
		return respondError(c, h.logger, err)
	}
	sortBy, err := service.ParseTranscriptSort(c.Query("sort"))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	entries, err := h.service.GetTranscript(withRequestContext(c), c.Params("id"), service.TranscriptOptions{
		Student: resolution,
		SortBy:  sortBy,
	})
	if err != nil {
		return respondError(c, h.logger, err)
	}

	message := "transcript retrieved"
	for _, entry := range entries {
		if !entry.Resolved() {
			c.Set(HeaderTranscriptPartial, "true")
			message = "transcript retrieved with unresolved entries"
			break
		}
	}

	return utils.SendSuccess(c, message, entries)
}
