package hermes

import "time"

// MatchCompletedEvent announces a finished evaluation. Answers are never
// included.
type MatchCompletedEvent struct {
	EvaluationID  string    `json:"evaluation_id"`
	ProfileID     string    `json:"profile_id"`
	ScorePercent  int       `json:"score_percent"`
	Tier          string    `json:"tier"`
	RosterVersion string    `json:"roster_version"`
	Source        string    `json:"source,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

type RosterLoadedEvent struct {
	Version   string    `json:"version"`
	Profiles  int       `json:"profiles"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}
