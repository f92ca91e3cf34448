package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/cube-drafter/internal/api/response"
	"github.com/ramonehamilton/cube-drafter/internal/app"
	"github.com/ramonehamilton/cube-drafter/internal/cube"
)

// ImageHandler serves composed pile images for encoded card tokens.
type ImageHandler struct {
	app *app.App
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(a *app.App) *ImageHandler {
	return &ImageHandler{app: a}
}

// Get composes (or returns the memoized) image for the token in the
// path. A "cmc" query flag switches the layout to mana value piles.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "token")
	if key == "" {
		response.BadRequest(w, errors.New("image token is required"))
		return
	}
	if r.URL.Query().Has("cmc") {
		key += "?cmc"
	}

	img, err := h.app.Image(r.Context(), key)
	if err != nil {
		var decode *cube.DecodeError
		if errors.As(err, &decode) {
			response.BadRequest(w, err)
			return
		}
		response.InternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(img)
}
