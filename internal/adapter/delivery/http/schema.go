package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
)

// linkRequest represents the structure for a request to create a link.
type linkRequest struct {
	TargetURL string `json:"targetUrl" validate:"required"`
	Code      string `json:"code"`
}

// linkResponse represents the structure for a response containing link information.
type linkResponse struct {
	Code          string     `json:"code"`
	TargetURL     string     `json:"targetUrl"`
	TotalClicks   int64      `json:"totalClicks"`
	LastClickedAt *time.Time `json:"lastClickedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toLinkResponse(link *entity.Link) linkResponse {
	return linkResponse{
		Code:          link.Code,
		TargetURL:     link.TargetURL,
		TotalClicks:   link.TotalClicks,
		LastClickedAt: link.LastClickedAt,
		CreatedAt:     link.CreatedAt,
		UpdatedAt:     link.UpdatedAt,
	}
}

func toLinkResponses(links []*entity.Link) []linkResponse {
	resp := make([]linkResponse, 0, len(links))
	for _, link := range links {
		resp = append(resp, toLinkResponse(link))
	}
	return resp
}

// healthResponse reports the liveness of the service and its store.
type healthResponse struct {
	OK        bool      `json:"ok"`
	Version   string    `json:"version"`
	Uptime    float64   `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details"`
}

const (
	msgEmptyRequestBody   = "Empty request body"
	msgInvalidRequestBody = "Invalid request body"
	msgInvalidURL         = "Invalid URL"
	msgInvalidCode        = "Custom code invalid. Use 6-8 [A-Za-z0-9]"
	msgReservedCode       = "Custom code is reserved"
	msgCodeExists         = "Code already exists"
	msgNotFound           = "Not found"
	msgInvalidQRSize      = "Invalid size. Use 64-1024"
	msgInternalError      = "Internal server error"

	msgUnsupportedContentType = "Content-Type must be application/json"
)

// statusForKind maps an error kind to its HTTP status code.
func statusForKind(kind entity.Kind) int {
	switch kind {
	case entity.KindValidation:
		return http.StatusBadRequest
	case entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// messageForError returns the message shown to clients for err.
// Internal errors never leak their text.
func messageForError(err error) string {
	switch {
	case errors.Is(err, entity.ErrInvalidTargetURL):
		return msgInvalidURL
	case errors.Is(err, entity.ErrInvalidCode):
		return msgInvalidCode
	case errors.Is(err, entity.ErrReservedCode):
		return msgReservedCode
	case errors.Is(err, entity.ErrCodeExists):
		return msgCodeExists
	case errors.Is(err, entity.ErrLinkNotFound):
		return msgNotFound
	default:
		return msgInternalError
	}
}

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}
