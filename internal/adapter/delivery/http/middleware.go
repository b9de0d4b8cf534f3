package http

import (
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// requireJSON rejects requests carrying a non-JSON body with 400 and the
// usual error body. Requests without a body pass through so that handlers
// can report them as empty.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || !strings.EqualFold(mediaType, "application/json") {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, errorResponse{Error: msgUnsupportedContentType})
			return
		}

		next.ServeHTTP(w, r)
	})
}
