package api

import (
	"net/http"
)

type ExplainHandler struct {
	match *MatchHandler
}

func NewExplainHandler(m *MatchHandler) *ExplainHandler {
	return &ExplainHandler{match: m}
}

// Explain returns the match together with every candidate's breakdown and
// the eligibility verdicts behind it. It is diagnostic only: nothing is
// published or counted as a completed match.
// POST /api/v1/scoring/explain
func (h *ExplainHandler) Explain(w http.ResponseWriter, r *http.Request) {
	ev, err := h.match.decode(w, r)
	if err != nil {
		h.match.fail(w, err)
		return
	}

	resp, err := h.match.evaluate(ev, true)
	if err != nil {
		h.match.fail(w, err)
		return
	}
	verdicts, err := h.match.engine.Verdicts(ev.answers)
	if err != nil {
		h.match.fail(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"match":    resp,
		"verdicts": verdicts,
	})
}
