package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

type profileView struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    roster.Category `json:"category"`
	Traits      traits.Vector   `json:"traits"`
	Description string          `json:"description,omitempty"`
}

func newProfileView(p roster.Profile) profileView {
	return profileView{
		ID:          p.ID,
		Name:        p.Name,
		Category:    p.Category,
		Traits:      p.Traits,
		Description: p.Description,
	}
}

func linkedView(p roster.Profile, ok bool) *profileView {
	if !ok {
		return nil
	}
	v := newProfileView(p)
	return &v
}

type ProfilesHandler struct {
	roster *roster.Roster
}

func NewProfilesHandler(r *roster.Roster) *ProfilesHandler {
	return &ProfilesHandler{roster: r}
}

// List returns the visible roster in order.
// GET /api/v1/profiles
func (h *ProfilesHandler) List(w http.ResponseWriter, r *http.Request) {
	visible := h.roster.Visible()
	out := make([]profileView, 0, len(visible))
	for _, p := range visible {
		out = append(out, newProfileView(p))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":  h.roster.Version(),
		"profiles": out,
	})
}

// Get returns one profile with its affinity and opposition resolved. Hidden
// profiles are reachable by id so a hidden match can still be shown.
// GET /api/v1/profiles/{id}
func (h *ProfilesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := h.roster.ByID(id)
	if !ok {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile":    newProfileView(p),
		"affinity":   linkedView(h.roster.Affinity(id)),
		"opposition": linkedView(h.roster.Opposition(id)),
	})
}
