// Package handlers exposes the services over HTTP. Every response body is an
// Envelope; errors are rendered by ErrorHandler.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/lucas-ioliveira/ordering-system/internal/apperrors"
	"github.com/lucas-ioliveira/ordering-system/internal/repositories"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

// Envelope is the body of every response.
type Envelope struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// Unwrap lets errors.Is match apperrors.ErrValidation.
func (e *ValidationError) Unwrap() error { return apperrors.ErrValidation }

func respond(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(Envelope{Message: message, Data: data})
}

// ErrorHandler renders errors returned by handlers and middleware.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return respond(c, fiber.StatusBadRequest, apperrors.ErrValidation.Message(), validationErr.Fields)
		}

		if appErr, ok := apperrors.As(err); ok {
			if appErr.HTTPCode() >= fiber.StatusInternalServerError {
				logger.ErrorContext(c.UserContext(), "request failed",
					"method", c.Method(), "path", c.Path(), "error", err)
			}
			return respond(c, appErr.HTTPCode(), appErr.Message(), nil)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return respond(c, fiberErr.Code, fiberErr.Message, nil)
		}

		logger.ErrorContext(c.UserContext(), "unhandled error",
			"method", c.Method(), "path", c.Path(), "error", err)
		return respond(c, fiber.StatusInternalServerError, apperrors.ErrInternal.Message(), nil)
	}
}

// requestValidator parses and validates request bodies.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	return &requestValidator{validate: validator.New()}
}

// bind parses the body into dst and validates its tags.
func (v *requestValidator) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return &ValidationError{Fields: map[string]string{"body": "Invalid request body"}}
	}
	return v.check(dst)
}

func (v *requestValidator) check(dst interface{}) error {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return apperrors.ErrValidation.WithCause(err)
	}
	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		fields[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return &ValidationError{Fields: fields}
}

// paramID parses a positive numeric path parameter.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, &ValidationError{Fields: map[string]string{name: fmt.Sprintf("Field '%s' must be a positive integer", name)}}
	}
	return uint(id), nil
}

// pageQuery reads offset and limit from the query string.
func pageQuery(c *fiber.Ctx) (repositories.Page, error) {
	page := repositories.Page{Offset: 0, Limit: defaultLimit}
	fields := map[string]string{}

	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			fields["offset"] = "Field 'offset' must be a non-negative integer"
		}
		page.Offset = offset
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			fields["limit"] = fmt.Sprintf("Field 'limit' must be between 1 and %d", maxLimit)
		}
		page.Limit = limit
	}

	if len(fields) > 0 {
		return repositories.Page{}, &ValidationError{Fields: fields}
	}
	return page, nil
}
