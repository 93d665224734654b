package quiz

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/scoring"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

func repeat(n, idx int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = idx
	}
	return out
}

func TestDefaultBankIsValid(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 15, b.Len())

	r, err := roster.Default()
	require.NoError(t, err)
	require.NoError(t, b.Validate(r, config.DefaultScoring().PerAnswerMax))

	spotlights := 0
	for _, q := range b.Questions() {
		assert.Len(t, q.Choices, 4, q.ID)
		if q.Spotlight {
			spotlights++
			for _, c := range q.Choices {
				assert.NotEmpty(t, c.Contribution.Boost, q.ID)
			}
		}
	}
	assert.Equal(t, 1, spotlights)
}

func TestValidateRejectsOversizedChoice(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)
	r, err := roster.Default()
	require.NoError(t, err)

	err = b.Validate(r, 6)
	assert.True(t, errors.Is(err, traits.ErrValueOutOfRange), "got %v", err)
}

func TestValidateRejectsUnknownBoost(t *testing.T) {
	b, err := Parse([]byte(`
questions:
  - id: a
    text: pick
    choices:
      - {text: one, traits: {passion: 2}, boost: [yuta]}
      - {text: two, traits: {humor: 2}}
`))
	require.NoError(t, err)
	r, err := roster.Default()
	require.NoError(t, err)

	err = b.Validate(r, 8)
	assert.True(t, errors.Is(err, roster.ErrUnknownProfile), "got %v", err)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty", "questions: []", ErrEmptyBank},
		{"duplicate id", `
questions:
  - {id: a, text: x, choices: [{text: one}, {text: two}]}
  - {id: a, text: y, choices: [{text: one}, {text: two}]}
`, ErrDuplicateQuestion},
		{"single choice", `
questions:
  - {id: a, text: x, choices: [{text: one}]}
`, ErrInvalidQuestion},
		{"two spotlights", `
questions:
  - {id: a, text: x, spotlight: true, choices: [{text: one}, {text: two}]}
  - {id: b, text: y, spotlight: true, choices: [{text: one}, {text: two}]}
`, ErrInvalidQuestion},
		{"unknown trait", `
questions:
  - {id: a, text: x, choices: [{text: one, traits: {charisma: 3}}, {text: two}]}
`, traits.ErrUnknownTrait},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestResolve(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)

	sheet, err := b.Resolve(repeat(b.Len(), 3))
	require.NoError(t, err)
	assert.Len(t, sheet.Answers, 15)
	assert.Equal(t, "Someone funny who makes me laugh.", sheet.Spotlight)
	assert.Contains(t, sheet.Answers[7].Boost, "takaba")

	t.Run("wrong count", func(t *testing.T) {
		_, err := b.Resolve([]int{0, 1})
		assert.True(t, errors.Is(err, ErrIncompleteSheet))
	})

	t.Run("index out of range", func(t *testing.T) {
		choices := repeat(b.Len(), 0)
		choices[4] = 4
		_, err := b.Resolve(choices)
		assert.True(t, errors.Is(err, ErrInvalidChoice))

		choices[4] = -1
		_, err = b.Resolve(choices)
		assert.True(t, errors.Is(err, ErrInvalidChoice))
	})
}

func TestLoad(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 15, b.Len())

	path := filepath.Join(t.TempDir(), "questions.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: test
questions:
  - {id: a, text: x, choices: [{text: one, traits: {passion: 4}}, {text: two}]}
`), 0o644))
	b, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", b.Version())
	assert.Equal(t, 1, b.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFullQuizEvaluation(t *testing.T) {
	b, err := Default()
	require.NoError(t, err)
	r, err := roster.Default()
	require.NoError(t, err)
	e, err := scoring.NewEngine(r, config.DefaultScoring(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	tests := []struct {
		name    string
		choice  int
		profile string
		percent int
		top     traits.Trait
	}{
		{"always first choice", 0, "itadori", 89, traits.Passion},
		{"always second choice", 1, "naoya", 93, traits.Rationality},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := b.Resolve(repeat(b.Len(), tt.choice))
			require.NoError(t, err)

			res, err := e.FindBestMatch(sheet.Answers)
			require.NoError(t, err)
			assert.Equal(t, tt.profile, res.ProfileID)
			assert.Equal(t, tt.percent, res.ScorePercent)
			assert.Equal(t, tt.top, res.TopTraits[0].Trait)

			tier, err := e.DetermineTier(sheet.Answers)
			require.NoError(t, err)
			assert.Equal(t, "Special Grade", tier.Name)
		})
	}
}
