package profiles

import (
	"context"
	"errors"
	"net/http"

	"lv-markup/internal/httputil"
	"lv-markup/internal/markup"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AdminStore is what the admin handler needs from the profile store.
type AdminStore interface {
	List(ctx context.Context) ([]markup.Profile, error)
	Profile(ctx context.Context, profileID string) (markup.Profile, bool, error)
	Create(ctx context.Context, name string) (markup.Profile, error)
	SetDisabled(ctx context.Context, profileID string, disabled bool) error
	SetInstrument(ctx context.Context, profileID, instrumentID string, m markup.InstrumentMarkup) error
	RemoveInstrument(ctx context.Context, profileID, instrumentID string) error
	AssignGroup(ctx context.Context, groupID, profileID string) error
	UnassignGroup(ctx context.Context, groupID string) error
	Groups(ctx context.Context) ([]Group, error)
}

type Handler struct {
	store AdminStore
}

func NewHandler(store AdminStore) *Handler {
	return &Handler{store: store}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.List(r.Context())
	if err != nil {
		h.internalError(w, "list profiles", err)
		return
	}
	if items == nil {
		items = []markup.Profile{}
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok, err := h.store.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.internalError(w, "get profile", err)
		return
	}
	if !ok {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: ErrNotFound.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	p, err := h.store.Create(r.Context(), req.Name)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) SetDisabled(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Disabled bool `json:"disabled"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	h.writeResult(w, h.store.SetDisabled(r.Context(), chi.URLParam(r, "id"), req.Disabled))
}

func (h *Handler) SetInstrument(w http.ResponseWriter, r *http.Request) {
	var req markup.InstrumentMarkup
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	h.writeResult(w, h.store.SetInstrument(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "instrument"), req))
}

func (h *Handler) RemoveInstrument(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.store.RemoveInstrument(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "instrument")))
}

func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.store.Groups(r.Context())
	if err != nil {
		h.internalError(w, "list groups", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, groups)
}

func (h *Handler) AssignGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileID string `json:"markup_profile_id"`
	}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
		return
	}
	h.writeResult(w, h.store.AssignGroup(r.Context(), chi.URLParam(r, "group"), req.ProfileID))
}

func (h *Handler) UnassignGroup(w http.ResponseWriter, r *http.Request) {
	h.writeResult(w, h.store.UnassignGroup(r.Context(), chi.URLParam(r, "group")))
}

func (h *Handler) writeResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrGroupNotFound):
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{Error: err.Error()})
	default:
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: err.Error()})
	}
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	log.Error().Err(err).Str("op", op).Msg("markup profile store")
	httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: "internal error"})
}
