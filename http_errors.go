package auth

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// ErrorResponse is the JSON body of every error reply
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ErrorHandler resolves handler and middleware errors into JSON responses.
// Authentication failures are reported generically.
func ErrorHandler(logger Logger) fiber.ErrorHandler {
	logger = resolveLogger(logger)

	return func(c *fiber.Ctx, err error) error {
		status, body := ResolveError(err)

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
		} else {
			logger.Debug("request rejected",
				"path", c.Path(),
				"status", status,
				"error", err,
			)
		}

		return c.Status(status).JSON(body)
	}
}

// ResolveError maps an error to its status code and response body. The
// status is derived from the error category.
func ResolveError(err error) (int, ErrorResponse) {
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		return ferr.Code, ErrorResponse{Error: ferr.Message}
	}

	rich := ToRichError(err)

	switch rich.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		fields := rich.ValidationMap()
		if len(fields) == 0 {
			return fiber.StatusBadRequest, ErrorResponse{Error: rich.Message}
		}
		return fiber.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Fields: fields,
		}
	case goerrors.CategoryAuth:
		if HasTextCode(rich, TextCodeUnauthenticated) {
			return fiber.StatusUnauthorized, ErrorResponse{Error: ErrUnauthenticated.Message}
		}
		return fiber.StatusUnauthorized, ErrorResponse{Error: ErrInvalidCredentials.Message}
	case goerrors.CategoryNotFound:
		// unknown identities must look like any other credential failure
		if IsIdentityNotFoundError(rich) {
			return fiber.StatusUnauthorized, ErrorResponse{Error: ErrInvalidCredentials.Message}
		}
		return fiber.StatusNotFound, ErrorResponse{Error: rich.Message}
	case goerrors.CategoryConflict:
		return fiber.StatusConflict, ErrorResponse{Error: ErrIdentityExists.Message}
	case goerrors.CategoryExternal:
		return fiber.StatusServiceUnavailable, ErrorResponse{Error: rich.Message}
	}

	return fiber.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}

// ToRichError converts any error into a categorized error. Ozzo validation
// errors become validation errors keyed by field.
func ToRichError(err error) *goerrors.Error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return goerrors.NewValidationFromMap("validation failed", FormatValidationErrorToMap(verrs)).
			WithTextCode(TextCodeInvalidRequestInput).
			WithCode(goerrors.CodeBadRequest)
	}

	return goerrors.MapToError(err, nil)
}

// FormatValidationErrorToMap flattens ozzo validation errors by field
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		if err != nil {
			out["payload"] = err.Error()
		}
		return out
	}

	for field, ferr := range verrs {
		if ferr != nil {
			out[field] = ferr.Error()
		}
	}

	return out
}
