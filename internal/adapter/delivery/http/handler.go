package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/link-shortener/internal/entity"
	"github.com/vadimbarashkov/link-shortener/internal/shortcode"
)

type linkUseCase interface {
	CreateLink(ctx context.Context, targetURL, code string) (*entity.Link, error)
	ListLinks(ctx context.Context) ([]*entity.Link, error)
	GetLink(ctx context.Context, code string) (*entity.Link, error)
	DeleteLink(ctx context.Context, code string) error
	ResolveCode(ctx context.Context, code string) (*entity.Link, error)
}

type linkHandler struct {
	useCase  linkUseCase
	validate *validator.Validate
	baseURL  string
}

func newLinkHandler(useCase linkUseCase, validate *validator.Validate, baseURL string) *linkHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &linkHandler{
		useCase:  useCase,
		validate: validate,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// renderError answers with the status and message matching the kind of err.
// Internal errors are attached to the request log entry.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	kind := entity.KindOf(err)
	if kind == entity.KindInternal {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
	}

	render.Status(r, statusForKind(kind))
	render.JSON(w, r, errorResponse{Error: messageForError(err)})
}

func (h *linkHandler) createLink(w http.ResponseWriter, r *http.Request) {
	var req linkRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorResponse{Error: msgEmptyRequestBody})
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{Error: msgInvalidRequestBody})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, errorResponse{
			Error:   msgInvalidURL,
			Details: getValidationErrors(err),
		})
		return
	}

	link, err := h.useCase.CreateLink(r.Context(), req.TargetURL, req.Code)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toLinkResponse(link))
}

func (h *linkHandler) listLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.useCase.ListLinks(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponses(links))
}

func (h *linkHandler) getLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	link, err := h.useCase.GetLink(r.Context(), code)
	if err != nil {
		renderError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLinkResponse(link))
}

func (h *linkHandler) deleteLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if err := h.useCase.DeleteLink(r.Context(), code); err != nil {
		renderError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// redirect sends the client to the target URL of the code and counts the click.
// Codes that cannot exist are answered without touching the store.
func (h *linkHandler) redirect(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	if !shortcode.IsValid(code) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: msgNotFound})
		return
	}

	link, err := h.useCase.ResolveCode(r.Context(), code)
	if err != nil {
		renderError(w, r, err)
		return
	}

	http.Redirect(w, r, link.TargetURL, http.StatusFound)
}

// shortURL returns the public URL of code. Without a configured base URL
// it is derived from the request.
func (h *linkHandler) shortURL(r *http.Request, code string) string {
	base := h.baseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	return base + "/" + code
}
