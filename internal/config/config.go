package config

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Roster   RosterConfig   `yaml:"roster"`
	Quiz     QuizConfig     `yaml:"quiz"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int     `yaml:"port"`
	MetricsPort  int     `yaml:"metrics_port"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	RateBurst    int     `yaml:"rate_burst"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// RosterConfig selects where profiles come from. Source is "file" or
// "postgres"; an empty Path means the embedded default roster.
type RosterConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
}

type QuizConfig struct {
	Path string `yaml:"path"`
}

type ScoringConfig struct {
	Blend BlendConfig `yaml:"blend"`
	// PerAnswerMax is the largest value a single choice may contribute to one
	// trait. Normalization divides by answers × PerAnswerMax.
	PerAnswerMax float64           `yaml:"per_answer_max"`
	BoostPerHit  float64           `yaml:"boost_per_hit"`
	TopTraits    int               `yaml:"top_traits"`
	Eligibility  []EligibilityRule `yaml:"eligibility"`
	Tiers        []TierDef         `yaml:"tiers"`
}

type BlendConfig struct {
	Cosine    float64 `yaml:"cosine"`
	Euclidean float64 `yaml:"euclidean"`
}

// EligibilityRule gates one conditionally special profile.
type EligibilityRule struct {
	Profile           string   `yaml:"profile"`
	Shape             string   `yaml:"shape"` // "dual_dominance" or "primary_dominance"
	Traits            []string `yaml:"traits"`
	Primary           string   `yaml:"primary,omitempty"`
	TopK              int      `yaml:"top_k"`
	ThresholdFraction float64  `yaml:"threshold_fraction,omitempty"`
	Gate              string   `yaml:"gate"` // "penalize" or "exclude"
	Penalty           float64  `yaml:"penalty,omitempty"`
	Bonus             float64  `yaml:"bonus"`
}

// TierDef is one row of the tier cascade, most exclusive first.
type TierDef struct {
	Name     string  `yaml:"name"`
	MinPeak  float64 `yaml:"min_peak"`
	MinTotal float64 `yaml:"min_total"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultScoring returns the tuned scoring parameters.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		Blend: BlendConfig{
			Cosine:    0.6,
			Euclidean: 0.4,
		},
		PerAnswerMax: 8,
		BoostPerHit:  0.08,
		TopTraits:    3,
		Eligibility: []EligibilityRule{
			{
				Profile:           "naoya",
				Shape:             "dual_dominance",
				Traits:            []string{"pride", "rationality"},
				TopK:              3,
				ThresholdFraction: 0.7,
				Gate:              "penalize",
				Penalty:           0.7,
				Bonus:             0.12,
			},
			{
				Profile: "takaba",
				Shape:   "primary_dominance",
				Traits:  []string{"humor", "obsession"},
				Primary: "humor",
				TopK:    3,
				Gate:    "exclude",
				Bonus:   0.15,
			},
		},
		Tiers: []TierDef{
			{Name: "Special Grade", MinPeak: 35, MinTotal: 110},
			{Name: "Grade 1", MinPeak: 28, MinTotal: 90},
			{Name: "Semi-Grade 1", MinPeak: 22, MinTotal: 75},
			{Name: "Grade 2", MinPeak: 16, MinTotal: 60},
			{Name: "Grade 3", MinPeak: 12, MinTotal: 0},
			{Name: "Grade 4", MinPeak: 0, MinTotal: 0},
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8700,
			MetricsPort:  8701,
			RateLimitRPS: 2,
			RateBurst:    10,
		},
		Roster: RosterConfig{
			Source: "file",
		},
		Scoring: DefaultScoring(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the parts of the config that are pure numbers. Rules and
// tiers are checked again against the roster when the engine is built.
func (c *Config) Validate() error {
	switch c.Roster.Source {
	case "file", "postgres":
	default:
		return fmt.Errorf("roster source %q: must be file or postgres", c.Roster.Source)
	}
	if c.Roster.Source == "postgres" && c.Database.URL == "" {
		return fmt.Errorf("roster source postgres requires database.url")
	}
	return c.Scoring.Validate()
}

func (s ScoringConfig) Validate() error {
	if s.Blend.Cosine < 0 || s.Blend.Euclidean < 0 {
		return fmt.Errorf("negative blend weight: cosine=%f euclidean=%f", s.Blend.Cosine, s.Blend.Euclidean)
	}
	if sum := s.Blend.Cosine + s.Blend.Euclidean; math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("blend weights sum to %.4f, must sum to 1.0", sum)
	}
	if s.PerAnswerMax <= 0 {
		return fmt.Errorf("per_answer_max must be positive, got %f", s.PerAnswerMax)
	}
	if s.BoostPerHit < 0 {
		return fmt.Errorf("boost_per_hit must not be negative, got %f", s.BoostPerHit)
	}
	if s.TopTraits <= 0 {
		return fmt.Errorf("top_traits must be positive, got %d", s.TopTraits)
	}
	if len(s.Tiers) == 0 {
		return fmt.Errorf("at least one tier is required")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KINDRED_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("KINDRED_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("KINDRED_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Server.RateLimitRPS = f
		}
	}
	if v := os.Getenv("KINDRED_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("KINDRED_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("KINDRED_ROSTER_SOURCE"); v != "" {
		cfg.Roster.Source = v
	}
	if v := os.Getenv("KINDRED_ROSTER_PATH"); v != "" {
		cfg.Roster.Path = v
	}
	if v := os.Getenv("KINDRED_QUESTIONS_PATH"); v != "" {
		cfg.Quiz.Path = v
	}
	if v := os.Getenv("KINDRED_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("KINDRED_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
