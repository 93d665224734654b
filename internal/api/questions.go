package api

import (
	"net/http"

	"github.com/MikeSquared-Agency/Kindred/internal/quiz"
)

type choiceView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

type questionView struct {
	ID        string       `json:"id"`
	Text      string       `json:"text"`
	Spotlight bool         `json:"spotlight,omitempty"`
	Choices   []choiceView `json:"choices"`
}

type QuestionsHandler struct {
	bank *quiz.Bank
}

func NewQuestionsHandler(b *quiz.Bank) *QuestionsHandler {
	return &QuestionsHandler{bank: b}
}

// List returns the question bank without trait weights or boost targets.
// GET /api/v1/questions
func (h *QuestionsHandler) List(w http.ResponseWriter, r *http.Request) {
	qs := h.bank.Questions()
	out := make([]questionView, 0, len(qs))
	for _, q := range qs {
		v := questionView{ID: q.ID, Text: q.Text, Spotlight: q.Spotlight}
		for i, c := range q.Choices {
			v.Choices = append(v.Choices, choiceView{Index: i, Text: c.Text})
		}
		out = append(out, v)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version":   h.bank.Version(),
		"questions": out,
	})
}
