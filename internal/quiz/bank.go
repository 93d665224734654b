package quiz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Kindred/internal/roster"
	"github.com/MikeSquared-Agency/Kindred/internal/traits"
)

var (
	ErrEmptyBank         = errors.New("question bank is empty")
	ErrDuplicateQuestion = errors.New("duplicate question id")
	ErrInvalidQuestion   = errors.New("invalid question")
	ErrInvalidChoice     = errors.New("invalid choice")
	ErrIncompleteSheet   = errors.New("answer sheet does not match question bank")
)

//go:embed questions.yaml
var defaultBank []byte

// Choice is one selectable answer and what picking it contributes.
type Choice struct {
	Text         string              `yaml:"text"`
	Contribution traits.Contribution `yaml:",inline"`
}

type Question struct {
	ID        string   `yaml:"id"`
	Text      string   `yaml:"text"`
	Spotlight bool     `yaml:"spotlight,omitempty"`
	Choices   []Choice `yaml:"choices"`
}

// Bank is an ordered, read-only question list.
type Bank struct {
	version   string
	questions []Question
}

type document struct {
	Version   string     `yaml:"version"`
	Questions []Question `yaml:"questions"`
}

// Parse decodes a YAML question bank and checks its shape. Trait ranges and
// boost targets need the scoring config and roster; see Validate.
func Parse(data []byte) (*Bank, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(doc.Questions) == 0 {
		return nil, ErrEmptyBank
	}

	seen := make(map[string]bool, len(doc.Questions))
	spotlights := 0
	for i, q := range doc.Questions {
		if q.ID == "" {
			return nil, fmt.Errorf("%w: question at position %d has no id", ErrInvalidQuestion, i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateQuestion, q.ID)
		}
		seen[q.ID] = true
		if len(q.Choices) < 2 {
			return nil, fmt.Errorf("%w: %s has %d choices", ErrInvalidQuestion, q.ID, len(q.Choices))
		}
		if q.Spotlight {
			spotlights++
		}
	}
	if spotlights > 1 {
		return nil, fmt.Errorf("%w: %d spotlight questions, at most one allowed", ErrInvalidQuestion, spotlights)
	}

	return &Bank{version: doc.Version, questions: doc.Questions}, nil
}

// Default returns the embedded question bank.
func Default() (*Bank, error) {
	return Parse(defaultBank)
}

// Load reads a bank from path, or returns the embedded bank when path is empty.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Validate checks every choice against the per-answer maximum and the roster.
func (b *Bank) Validate(r *roster.Roster, perAnswerMax float64) error {
	for _, q := range b.questions {
		for i, c := range q.Choices {
			if c.Text == "" {
				return fmt.Errorf("%w: %s choice %d has no text", ErrInvalidQuestion, q.ID, i)
			}
			if err := c.Contribution.Validate(perAnswerMax); err != nil {
				return fmt.Errorf("question %s choice %d: %w", q.ID, i, err)
			}
			for _, id := range c.Contribution.Boost {
				if !r.Has(id) {
					return fmt.Errorf("question %s choice %d: %w: boost target %q", q.ID, i, roster.ErrUnknownProfile, id)
				}
			}
		}
	}
	return nil
}

func (b *Bank) Version() string { return b.version }

func (b *Bank) Len() int { return len(b.questions) }

// Questions returns a copy of the questions in order.
func (b *Bank) Questions() []Question {
	out := make([]Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// Sheet is a resolved set of answers, ready for scoring.
type Sheet struct {
	Choices   []int
	Answers   []traits.Contribution
	Spotlight string
}

// Resolve maps one choice index per question, in bank order, to contributions.
func (b *Bank) Resolve(choices []int) (Sheet, error) {
	if len(choices) != len(b.questions) {
		return Sheet{}, fmt.Errorf("%w: got %d choices for %d questions", ErrIncompleteSheet, len(choices), len(b.questions))
	}

	sheet := Sheet{
		Choices: append([]int(nil), choices...),
		Answers: make([]traits.Contribution, 0, len(choices)),
	}
	for i, idx := range choices {
		q := b.questions[i]
		if idx < 0 || idx >= len(q.Choices) {
			return Sheet{}, fmt.Errorf("%w: question %s has no choice %d", ErrInvalidChoice, q.ID, idx)
		}
		c := q.Choices[idx]
		sheet.Answers = append(sheet.Answers, c.Contribution)
		if q.Spotlight {
			sheet.Spotlight = c.Text
		}
	}
	return sheet, nil
}
