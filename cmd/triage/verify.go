package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/processtriage/triage/internal/audit"
	"github.com/processtriage/triage/internal/session"
)

// newVerifyCmd implements `triage verify`: confirms a session's audit
// log hash chain is intact (spec §4.K "Audit logger ... tamper-evident").
func newVerifyCmd(flags *globalFlags) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a session's audit log hash chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			id, err := resolveSessionID(a.cfg.Paths.SessionsDir(), sessionID)
			if err != nil {
				return err
			}
			dir := session.Open(a.cfg.Paths.SessionsDir(), id)
			path := dir.Path() + "/audit.jsonl"

			if _, err := os.Stat(path); os.IsNotExist(err) {
				return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
					"session_id": id,
					"entries":    0,
					"intact":     true,
					"note":       "no audit log present; session never ran `triage apply`",
				})
			}

			n, verr := audit.VerifyChain(path)
			result := map[string]interface{}{
				"session_id": id,
				"entries":    n,
				"intact":     verr == nil,
			}
			if verr != nil {
				result["error"] = verr.Error()
			}
			if err := renderOutput(cmd.OutOrStdout(), *flags, result); err != nil {
				return err
			}
			if verr != nil {
				return fmt.Errorf("audit chain verification failed: %w", verr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session id (default: most recent)")
	return cmd
}
