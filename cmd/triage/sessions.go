package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/processtriage/triage/internal/session"
)

// sessionSummary is the listing shape for `triage sessions` with no
// positional id: every session's id plus its outcome, if one exists.
type sessionSummary struct {
	ID      session.ID       `json:"id"`
	HasPlan bool             `json:"has_plan"`
	Outcome *session.Outcome `json:"outcome,omitempty"`
}

// newSessionsCmd implements `triage sessions [id] [--cleanup]` (spec §4.H
// "Session ... Lifecycle"): lists every session, shows one session's
// outcome, or prunes sessions older than --keep.
func newSessionsCmd(flags *globalFlags) *cobra.Command {
	var cleanup bool
	var keep int
	cmd := &cobra.Command{
		Use:   "sessions [id]",
		Short: "List sessions, show one session's outcome, or clean up old ones",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			root := a.cfg.Paths.SessionsDir()

			if cleanup {
				removed, err := cleanupSessions(root, keep)
				if err != nil {
					return err
				}
				return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
					"removed": removed,
					"kept":    keep,
				})
			}

			if len(args) == 1 {
				dir := session.Open(root, session.ID(args[0]))
				summary, err := loadSessionSummary(*dir)
				if err != nil {
					return err
				}
				return renderOutput(cmd.OutOrStdout(), *flags, summary)
			}

			ids, err := session.List(root)
			if err != nil {
				return fmt.Errorf("listing sessions: %w", err)
			}
			summaries := make([]sessionSummary, 0, len(ids))
			for _, id := range ids {
				summary, err := loadSessionSummary(*session.Open(root, id))
				if err != nil {
					return err
				}
				summaries = append(summaries, summary)
			}
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"sessions": summaries,
			})
		},
	}
	cmd.Flags().BoolVar(&cleanup, "cleanup", false, "remove sessions beyond --keep, oldest first")
	cmd.Flags().IntVar(&keep, "keep", 20, "number of most recent sessions to retain when --cleanup is set")
	return cmd
}

func loadSessionSummary(dir session.Dir) (sessionSummary, error) {
	summary := sessionSummary{ID: dir.ID}
	if _, err := os.Stat(dir.Path() + "/plan.json"); err == nil {
		summary.HasPlan = true
	}
	raw, err := os.ReadFile(dir.OutcomePath())
	if err != nil {
		if os.IsNotExist(err) {
			return summary, nil
		}
		return summary, fmt.Errorf("reading outcome for session %s: %w", dir.ID, err)
	}
	var outcome session.Outcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return summary, fmt.Errorf("parsing outcome for session %s: %w", dir.ID, err)
	}
	summary.Outcome = &outcome
	return summary, nil
}

// cleanupSessions removes every session directory but the keep most
// recent (session.List already returns ids in chronological order).
func cleanupSessions(root string, keep int) (int, error) {
	ids, err := session.List(root)
	if err != nil {
		return 0, fmt.Errorf("listing sessions: %w", err)
	}
	if keep < 0 {
		keep = 0
	}
	if len(ids) <= keep {
		return 0, nil
	}
	toRemove := ids[:len(ids)-keep]
	removed := 0
	for _, id := range toRemove {
		dir := session.Open(root, id)
		if err := os.RemoveAll(dir.Path()); err != nil {
			return removed, fmt.Errorf("removing session %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}
