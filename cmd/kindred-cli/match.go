package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Kindred/internal/app"
	"github.com/MikeSquared-Agency/Kindred/internal/quiz"
	"github.com/MikeSquared-Agency/Kindred/internal/scoring"
)

var errNoChoices = errors.New("no choices given")

var (
	matchChoices string
	matchJSON    bool
	matchExplain bool
)

var matchCmd = &cobra.Command{
	Use:     "match",
	Short:   "Score a comma separated list of choice indices, one per question",
	Example: "  " + cliName + " match --choices 0,1,2,0,0,1,3,0,2,1,0,0,1,2,3",
	RunE: func(cmd *cobra.Command, _ []string) error {
		choices, err := parseChoices(matchChoices)
		if err != nil {
			return err
		}

		a, _, err := buildApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		sheet, err := a.Bank.Resolve(choices)
		if err != nil {
			return err
		}
		return report(cmd.OutOrStdout(), a, sheet, matchJSON, matchExplain)
	},
}

func init() {
	matchCmd.Flags().StringVarP(&matchChoices, "choices", "c", "", "choice index per question, comma separated")
	matchCmd.Flags().BoolVarP(&matchJSON, "json", "j", false, "print the result as JSON")
	matchCmd.Flags().BoolVar(&matchExplain, "explain", false, "include every candidate's breakdown")
	rootCmd.AddCommand(matchCmd)
}

func parseChoices(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errNoChoices
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("choice %d: %q is not a number", i+1, p)
		}
		out = append(out, n)
	}
	return out, nil
}

func formatChoices(choices []int) string {
	parts := make([]string, len(choices))
	for i, c := range choices {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

type matchReport struct {
	Result          *scoring.MatchResult `json:"result"`
	ProfileName     string               `json:"profile_name"`
	Tier            string               `json:"tier"`
	TierTitle       string               `json:"tier_title"`
	Affinity        string               `json:"affinity,omitempty"`
	Opposition      string               `json:"opposition,omitempty"`
	SpotlightAnswer string               `json:"spotlight_answer,omitempty"`
	Choices         string               `json:"choices"`
}

func report(w io.Writer, a *app.App, sheet quiz.Sheet, asJSON, explain bool) error {
	res, err := a.Engine.FindBestMatch(sheet.Answers)
	if err != nil {
		return err
	}
	tier, err := a.Engine.DetermineTier(sheet.Answers)
	if err != nil {
		return err
	}
	if !explain {
		trimmed := *res
		trimmed.Candidates = nil
		res = &trimmed
	}

	r := a.Engine.Roster()
	profile, _ := r.ByID(res.ProfileID)
	rep := matchReport{
		Result:          res,
		ProfileName:     profile.Name,
		Tier:            tier.Name,
		TierTitle:       tier.Title(profile.Category),
		SpotlightAnswer: sheet.Spotlight,
		Choices:         formatChoices(sheet.Choices),
	}
	if p, ok := r.Affinity(profile.ID); ok {
		rep.Affinity = p.Name
	}
	if p, ok := r.Opposition(profile.ID); ok {
		rep.Opposition = p.Name
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(w, "Profile:    %s (%s)\n", rep.ProfileName, res.ProfileID)
	fmt.Fprintf(w, "Score:      %d%%\n", res.ScorePercent)
	fmt.Fprintf(w, "Tier:       %s\n", rep.TierTitle)
	for i, t := range res.TopTraits {
		fmt.Fprintf(w, "Trait %d:    %s (%.1f)\n", i+1, t.Label, t.Value)
	}
	if rep.Affinity != "" {
		fmt.Fprintf(w, "Affinity:   %s\n", rep.Affinity)
	}
	if rep.Opposition != "" {
		fmt.Fprintf(w, "Opposition: %s\n", rep.Opposition)
	}
	if rep.SpotlightAnswer != "" {
		fmt.Fprintf(w, "Spotlight:  %s\n", rep.SpotlightAnswer)
	}
	if explain {
		fmt.Fprintln(w)
		for _, c := range res.Candidates {
			status := "ok"
			switch {
			case c.Skipped:
				status = "skipped"
			case c.Gated && !c.Eligible:
				status = "penalized"
			case c.Gated:
				status = "eligible"
			}
			fmt.Fprintf(w, "  %-12s %.4f  sim=%.4f boosts=%d %s\n", c.ProfileID, c.FinalScore, c.Similarity.Blended, c.Boosts, status)
		}
	}
	fmt.Fprintf(w, "Choices:    %s\n", rep.Choices)
	return nil
}
