package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-records-api/internal/apperrors"
	"github.com/noah-isme/student-records-api/internal/middleware"
	"github.com/noah-isme/student-records-api/internal/utils"
)

// retryAfterSeconds is advertised to clients when storage is unavailable.
const retryAfterSeconds = "5"

// Error codes carried in the response error body.
const (
	codeValidation           = "validation_error"
	codeNotFound             = "not_found"
	codeConstraintViolation  = "constraint_violation"
	codeReferentialIntegrity = "referential_integrity"
	codeUnavailable          = "unavailable"
	codeInternal             = "internal_error"
)

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, apperrors.Validation("invalid identifier", apperrors.FieldError{Field: name, Message: "must be a positive integer"})
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, apperrors.Validation("invalid query parameter", apperrors.FieldError{Field: key, Message: "must be an integer"})
	}
	return parsed, nil
}

func parseBody(c *fiber.Ctx, payload interface{}) error {
	if err := c.BodyParser(payload); err != nil {
		return apperrors.Validation("invalid request body: " + err.Error())
	}
	return nil
}

func withRequestContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// respondError maps the apperrors taxonomy onto HTTP status codes.
func respondError(c *fiber.Ctx, base zerolog.Logger, err error) error {
	logger := requestLogger(base, c)

	if errors.Is(err, apperrors.ErrUnavailable) {
		logger.Warn().Err(err).Str("path", c.Path()).Msg("storage unavailable")
		c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
		return utils.SendErrorWithDetail(c, fiber.StatusServiceUnavailable, "storage temporarily unavailable, retry later", &utils.ErrorBody{Code: codeUnavailable})
	}

	appErr, ok := apperrors.As(err)
	if !ok {
		logger.Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
		return utils.SendErrorWithDetail(c, fiber.StatusInternalServerError, "internal server error", &utils.ErrorBody{Code: codeInternal})
	}

	body := &utils.ErrorBody{
		Entity: appErr.Entity,
		Key:    appErr.Key,
		Field:  appErr.Field,
	}

	var status int
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		status = fiber.StatusBadRequest
		body.Code = codeValidation
		if len(appErr.Fields) > 0 {
			body.Details = appErr.Fields
		}
	case errors.Is(err, apperrors.ErrNotFound):
		status = fiber.StatusNotFound
		body.Code = codeNotFound
	case errors.Is(err, apperrors.ErrReferentialIntegrity):
		status = fiber.StatusConflict
		body.Code = codeReferentialIntegrity
	case errors.Is(err, apperrors.ErrConstraintViolation):
		status = fiber.StatusUnprocessableEntity
		if appErr.Constraint == apperrors.ConstraintUnique {
			status = fiber.StatusConflict
		}
		body.Code = codeConstraintViolation
		if appErr.Constraint != "" {
			body.Details = fiber.Map{"constraint": appErr.Constraint}
		}
	default:
		logger.Error().Err(err).Str("path", c.Path()).Msg("unclassified application error")
		return utils.SendErrorWithDetail(c, fiber.StatusInternalServerError, "internal server error", &utils.ErrorBody{Code: codeInternal})
	}

	logger.Debug().Err(err).Int("status", status).Msg("request rejected")
	return utils.SendErrorWithDetail(c, status, appErr.Error(), body)
}
