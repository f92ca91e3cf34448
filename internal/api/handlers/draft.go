// Package handlers implements the HTTP handlers over the draft
// application context.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/cube-drafter/internal/api/response"
	"github.com/ramonehamilton/cube-drafter/internal/app"
	"github.com/ramonehamilton/cube-drafter/internal/cube"
	"github.com/ramonehamilton/cube-drafter/internal/draft"
)

// DraftHandler handles draft-related API requests.
type DraftHandler struct {
	app *app.App
}

// NewDraftHandler creates a new DraftHandler.
func NewDraftHandler(a *app.App) *DraftHandler {
	return &DraftHandler{app: a}
}

// writeDraftError maps the engine's expected failure kinds onto HTTP
// statuses; anything unrecognized is a server fault.
func writeDraftError(w http.ResponseWriter, err error) {
	var (
		notFound    *cube.NotFoundError
		ambiguous   *cube.AmbiguousError
		decode      *cube.DecodeError
		invalidSeat *draft.InvalidSeatError
		noPack      *draft.NoPackError
		sameCard    *draft.SameCardError
	)

	switch {
	case errors.As(err, &notFound), errors.As(err, &invalidSeat):
		response.NotFound(w, err)
	case errors.As(err, &ambiguous), errors.As(err, &decode),
		errors.As(err, &noPack), errors.As(err, &sameCard):
		response.BadRequest(w, err)
	default:
		response.InternalError(w, err)
	}
}

func seatParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "seat")
	seat, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("seat must be a number")
	}
	return seat, nil
}

// GetSeatToShow selects the seat most in need of attention and returns
// its view.
func (h *DraftHandler) GetSeatToShow(w http.ResponseWriter, r *http.Request) {
	seat, err := h.app.SeatToShow(r.Context())
	if err != nil {
		writeDraftError(w, err)
		return
	}

	view, err := h.app.SeatView(seat)
	if err != nil {
		writeDraftError(w, err)
		return
	}
	response.Success(w, view)
}

// GetSeat returns a single seat's view.
func (h *DraftHandler) GetSeat(w http.ResponseWriter, r *http.Request) {
	seat, err := seatParam(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	view, err := h.app.SeatView(seat)
	if err != nil {
		writeDraftError(w, err)
		return
	}
	response.Success(w, view)
}

// PickRequest is the JSON body for a pick.
type PickRequest struct {
	Query     string `json:"query"`
	Sideboard bool   `json:"sideboard"`
}

// Pick picks a card from the seat's current pack.
func (h *DraftHandler) Pick(w http.ResponseWriter, r *http.Request) {
	seat, err := seatParam(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	var req PickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.Query == "" {
		response.BadRequest(w, errors.New("query is required"))
		return
	}

	if _, err := h.app.Pick(r.Context(), seat, req.Query, req.Sideboard); err != nil {
		writeDraftError(w, err)
		return
	}

	view, err := h.app.SeatView(seat)
	if err != nil {
		writeDraftError(w, err)
		return
	}
	response.Success(w, view)
}

// SwapRequest is the JSON body for a deck/sideboard swap.
type SwapRequest struct {
	Query string `json:"query"`
}

// Swap moves a card between the seat's deck and sideboard.
func (h *DraftHandler) Swap(w http.ResponseWriter, r *http.Request) {
	seat, err := seatParam(r)
	if err != nil {
		response.BadRequest(w, err)
		return
	}

	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.Query == "" {
		response.BadRequest(w, errors.New("query is required"))
		return
	}

	if _, err := h.app.Swap(r.Context(), seat, req.Query); err != nil {
		writeDraftError(w, err)
		return
	}

	view, err := h.app.SeatView(seat)
	if err != nil {
		writeDraftError(w, err)
		return
	}
	response.Success(w, view)
}

// FixRequest is the JSON body for a card substitution.
type FixRequest struct {
	Card1 string `json:"card1"`
	Card2 string `json:"card2"`
}

// Fix swaps two cards everywhere they appear in the draft.
func (h *DraftHandler) Fix(w http.ResponseWriter, r *http.Request) {
	var req FixRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if req.Card1 == "" || req.Card2 == "" {
		response.BadRequest(w, errors.New("card1 and card2 are required"))
		return
	}

	if err := h.app.FixCards(r.Context(), req.Card1, req.Card2); err != nil {
		writeDraftError(w, err)
		return
	}
	response.NoContent(w)
}

// Status returns the draft-wide status view.
func (h *DraftHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.app.Status())
}

// Reload refetches the cube list and replaces the draft context.
func (h *DraftHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Load(r.Context()); err != nil {
		response.InternalError(w, err)
		return
	}
	response.Success(w, h.app.Status())
}
