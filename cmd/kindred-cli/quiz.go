package main

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var errQuizAborted = errors.New("quiz aborted")

var quizJSON bool

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Answer the questions interactively and show the matching profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, logger, err := buildApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		questions := a.Bank.Questions()
		choices := make([]int, 0, len(questions))
		for i, q := range questions {
			items := make([]string, len(q.Choices))
			for j, c := range q.Choices {
				items[j] = c.Text
			}

			prompt := promptui.Select{
				Label: fmt.Sprintf("[%d/%d] %s", i+1, len(questions), q.Text),
				Items: items,
				Size:  len(items),
			}
			idx, _, err := prompt.Run()
			if err != nil {
				if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
					return errQuizAborted
				}
				return err
			}
			logger.Debug("answered", "question", q.ID, "choice", idx)
			choices = append(choices, idx)
		}

		sheet, err := a.Bank.Resolve(choices)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return report(cmd.OutOrStdout(), a, sheet, quizJSON, false)
	},
}

func init() {
	quizCmd.Flags().BoolVarP(&quizJSON, "json", "j", false, "print the result as JSON")
	rootCmd.AddCommand(quizCmd)
}
