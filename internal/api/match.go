package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Kindred/internal/hermes"
	"github.com/MikeSquared-Agency/Kindred/internal/quiz"
	"github.com/MikeSquared-Agency/Kindred/internal/scoring"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

const maxBodyBytes = 64 << 10

var errBadRequest = errors.New("bad request")

// matchRequest carries either quiz choice indices or raw contributions.
// An empty "answers" array is a valid zero-answer evaluation; omitting both
// fields is not.
type matchRequest struct {
	Choices []int                 `json:"choices,omitempty"`
	Answers []traits.Contribution `json:"answers,omitempty"`
}

// evaluation is a decoded, validated request.
type evaluation struct {
	answers   []traits.Contribution
	spotlight string
	source    string
}

type matchResponse struct {
	EvaluationID    string               `json:"evaluation_id"`
	RosterVersion   string               `json:"roster_version"`
	Result          *scoring.MatchResult `json:"result"`
	Profile         profileView          `json:"profile"`
	Affinity        *profileView         `json:"affinity,omitempty"`
	Opposition      *profileView         `json:"opposition,omitempty"`
	Tier            string               `json:"tier"`
	TierTitle       string               `json:"tier_title"`
	SpotlightAnswer string               `json:"spotlight_answer,omitempty"`
}

type MatchHandler struct {
	engine  *scoring.Engine
	bank    *quiz.Bank
	hermes  hermes.Client
	metrics *Metrics
	logger  *slog.Logger
}

func NewMatchHandler(e *scoring.Engine, b *quiz.Bank, h hermes.Client, m *Metrics, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{engine: e, bank: b, hermes: h, metrics: m, logger: logger}
}

func (h *MatchHandler) decode(w http.ResponseWriter, r *http.Request) (evaluation, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req matchRequest
	if err := dec.Decode(&req); err != nil {
		return evaluation{}, fmt.Errorf("%w: invalid body: %v", errBadRequest, err)
	}

	switch {
	case req.Choices != nil && req.Answers != nil:
		return evaluation{}, fmt.Errorf("%w: provide choices or answers, not both", errBadRequest)
	case req.Choices != nil:
		sheet, err := h.bank.Resolve(req.Choices)
		if err != nil {
			return evaluation{}, err
		}
		return evaluation{answers: sheet.Answers, spotlight: sheet.Spotlight, source: "quiz"}, nil
	case req.Answers != nil:
		return evaluation{answers: req.Answers, source: "answers"}, nil
	default:
		return evaluation{}, fmt.Errorf("%w: choices or answers required", errBadRequest)
	}
}

// fail maps request defects to 400 and everything else to 500.
func (h *MatchHandler) fail(w http.ResponseWriter, err error) {
	reason := ""
	switch {
	case errors.Is(err, errBadRequest):
		reason = "invalid_body"
	case errors.Is(err, quiz.ErrIncompleteSheet):
		reason = "incomplete_sheet"
	case errors.Is(err, quiz.ErrInvalidChoice):
		reason = "invalid_choice"
	case errors.Is(err, scoring.ErrInvalidAnswer):
		reason = "invalid_answer"
	}
	if reason != "" {
		h.metrics.reject(reason)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.Error("evaluation failed", "error", err)
	writeError(w, http.StatusInternalServerError, "evaluation failed")
}

// Match scores an answer sheet and returns the best-fitting profile.
// POST /api/v1/match
func (h *MatchHandler) Match(w http.ResponseWriter, r *http.Request) {
	ev, err := h.decode(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	resp, err := h.evaluate(ev, false)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.complete(resp, ev)
	writeJSON(w, http.StatusOK, resp)
}

// Tier classifies an answer sheet without matching.
// POST /api/v1/tier
func (h *MatchHandler) Tier(w http.ResponseWriter, r *http.Request) {
	ev, err := h.decode(w, r)
	if err != nil {
		h.fail(w, err)
		return
	}

	raw, err := h.engine.ComputeAggregateScores(ev.answers)
	if err != nil {
		h.fail(w, err)
		return
	}
	tier := h.engine.Tiers().Classify(raw)
	h.metrics.observeTier(tier.Name)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tier":      tier.Name,
		"rank":      tier.Rank,
		"aggregate": raw,
	})
}

func (h *MatchHandler) evaluate(ev evaluation, withCandidates bool) (*matchResponse, error) {
	res, err := h.engine.FindBestMatch(ev.answers)
	if err != nil {
		return nil, err
	}
	tier, err := h.engine.DetermineTier(ev.answers)
	if err != nil {
		return nil, err
	}

	rst := h.engine.Roster()
	profile, ok := rst.ByID(res.ProfileID)
	if !ok {
		return nil, fmt.Errorf("matched profile %q missing from roster", res.ProfileID)
	}

	if !withCandidates {
		trimmed := *res
		trimmed.Candidates = nil
		res = &trimmed
	}

	resp := &matchResponse{
		EvaluationID:    uuid.NewString(),
		RosterVersion:   rst.Version(),
		Result:          res,
		Profile:         newProfileView(profile),
		Affinity:        linkedView(rst.Affinity(profile.ID)),
		Opposition:      linkedView(rst.Opposition(profile.ID)),
		Tier:            tier.Name,
		TierTitle:       tier.Title(profile.Category),
		SpotlightAnswer: ev.spotlight,
	}

	return resp, nil
}

// complete records a finished match: metrics, the hermes event and the log
// line. Only /match completes an evaluation.
func (h *MatchHandler) complete(resp *matchResponse, ev evaluation) {
	h.metrics.observeMatch(resp.Result.ProfileID, resp.Tier, resp.Result.ScorePercent)
	h.publish(resp, ev.source)
	h.logger.Info("match completed",
		"evaluation_id", resp.EvaluationID,
		"profile", resp.Result.ProfileID,
		"score_percent", resp.Result.ScorePercent,
		"tier", resp.Tier,
		"answers", len(ev.answers),
		"source", ev.source,
	)
}

func (h *MatchHandler) publish(resp *matchResponse, source string) {
	if h.hermes == nil {
		return
	}
	event := hermes.MatchCompletedEvent{
		EvaluationID:  resp.EvaluationID,
		ProfileID:     resp.Result.ProfileID,
		ScorePercent:  resp.Result.ScorePercent,
		Tier:          resp.Tier,
		RosterVersion: resp.RosterVersion,
		Source:        source,
		Timestamp:     time.Now().UTC(),
	}
	if err := h.hermes.Publish(hermes.SubjectMatchCompleted(resp.EvaluationID), event); err != nil {
		h.logger.Warn("failed to publish match event", "evaluation_id", resp.EvaluationID, "error", err)
	}
}
