package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
)

// getQRCode renders a PNG QR code pointing to the short URL of the link.
// Rendering does not count as a click.
func (h *linkHandler) getQRCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorResponse{Error: msgInvalidQRSize})
			return
		}
		size = n
	}

	link, err := h.useCase.GetLink(r.Context(), code)
	if err != nil {
		renderError(w, r, err)
		return
	}

	png, err := qrcode.Encode(h.shortURL(r, link.Code), qrcode.Medium, size)
	if err != nil {
		renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
