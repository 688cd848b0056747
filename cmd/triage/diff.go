package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/processtriage/triage/internal/session"
)

// newDiffCmd implements `triage diff` (spec §4.H "Diff"): compares two
// sessions' t0 snapshots and reports per-process Added/Removed/Changed
// deltas.
func newDiffCmd(flags *globalFlags) *cobra.Command {
	var compareID, baseID string
	var useLast bool
	var changedOnly bool
	var category string
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Diff two sessions' snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			root := a.cfg.Paths.SessionsDir()
			compare, err := resolveSessionID(root, compareID)
			if err != nil {
				return err
			}

			var base session.ID
			switch {
			case baseID != "":
				base = session.ID(baseID)
			case useLast:
				base, err = previousSessionID(root, compare)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("diff requires either --base <session-id> or --last")
			}

			baseSnap, err := session.Open(root, base).LoadSnapshot()
			if err != nil {
				return fmt.Errorf("loading base session %s: %w", base, err)
			}
			compareSnap, err := session.Open(root, compare).LoadSnapshot()
			if err != nil {
				return fmt.Errorf("loading compare session %s: %w", compare, err)
			}

			entries := session.Diff(baseSnap, compareSnap)
			filtered := make([]session.DeltaEntry, 0, len(entries))
			for _, e := range entries {
				if changedOnly && e.Kind != session.DeltaChanged {
					continue
				}
				if category != "" && !containsString(e.FieldsChanged, category) {
					continue
				}
				filtered = append(filtered, e)
			}

			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"base":    base,
				"compare": compare,
				"entries": filtered,
			})
		},
	}
	cmd.Flags().StringVar(&compareID, "session", "", "session to compare (default: most recent)")
	cmd.Flags().StringVar(&baseID, "base", "", "explicit base session id (required unless --last is given)")
	cmd.Flags().BoolVar(&useLast, "last", false, "use the session immediately preceding --session as the base")
	cmd.Flags().BoolVar(&changedOnly, "changed-only", false, "show only entries with Kind=Changed")
	cmd.Flags().StringVar(&category, "category", "", "show only entries whose changed fields include this field name")
	return cmd
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
