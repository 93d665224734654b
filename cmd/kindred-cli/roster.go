package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Kindred/internal/roster"
)

var rosterJSON bool

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "List the selectable profiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, _, err := buildApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		r := a.Engine.Roster()
		profiles := r.Visible()

		if rosterJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(struct {
				Version  string           `json:"version"`
				Profiles []roster.Profile `json:"profiles"`
			}{r.Version(), profiles})
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tTOP TRAITS")
		for _, p := range profiles {
			top := p.Traits.Top(3)
			labels := make([]string, len(top))
			for i, t := range top {
				labels[i] = t.Label
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, strings.Join(labels, ", "))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nroster %s: %d of %d profiles listed\n", r.Version(), len(profiles), r.Len())
		return nil
	},
}

func init() {
	rosterCmd.Flags().BoolVarP(&rosterJSON, "json", "j", false, "print the roster as JSON")
	rootCmd.AddCommand(rosterCmd)
}
