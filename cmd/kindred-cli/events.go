package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/Kindred/internal/config"
	"github.com/MikeSquared-Agency/Kindred/internal/hermes"
)

var eventsURL string

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow match and roster events published on hermes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		url := eventsURL
		if url == "" {
			url = cfg.Hermes.URL
		}
		if url == "" {
			return fmt.Errorf("no hermes URL: set --hermes-url or hermes.url in the config")
		}
		logger := config.NewLogger(cfg.Logging, cmd.ErrOrStderr())

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hc, err := hermes.NewNATSClient(ctx, url, logger)
		if err != nil {
			return err
		}
		defer hc.Close()

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		handler := func(subject string, data []byte) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintln(out, formatEvent(subject, data))
		}
		for _, subject := range []string{hermes.SubjectMatchCompletedAll, hermes.SubjectRosterLoaded} {
			if err := hc.Subscribe(subject, handler); err != nil {
				return fmt.Errorf("subscribe %s: %w", subject, err)
			}
		}
		logger.Info("following events", "url", url)

		<-ctx.Done()
		return nil
	},
}

func init() {
	eventsCmd.Flags().StringVar(&eventsURL, "hermes-url", "", "NATS URL, overrides hermes.url")
	rootCmd.AddCommand(eventsCmd)
}

// formatEvent renders one event as a single line. Payloads that do not
// decode are printed raw.
func formatEvent(subject string, data []byte) string {
	if subject == hermes.SubjectRosterLoaded {
		var ev hermes.RosterLoadedEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return fmt.Sprintf("%s %s", subject, data)
		}
		return fmt.Sprintf("%s roster=%s profiles=%d source=%s",
			ev.Timestamp.Format("15:04:05"), ev.Version, ev.Profiles, ev.Source)
	}

	var ev hermes.MatchCompletedEvent
	if err := json.Unmarshal(data, &ev); err != nil || ev.EvaluationID == "" {
		return fmt.Sprintf("%s %s", subject, data)
	}
	return fmt.Sprintf("%s match=%s profile=%s score=%d%% tier=%q via=%s",
		ev.Timestamp.Format("15:04:05"), ev.EvaluationID, ev.ProfileID, ev.ScorePercent, ev.Tier, ev.Source)
}
