// Command triage is the process-triage CLI (spec §6 "CLI surface"):
// snapshot/plan/apply/verify over a session, plus session/diff/shadow/
// telemetry/config/agent introspection subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/processtriage/triage/internal/errkind"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "triage: "+err.Error())
		os.Exit(errkind.Of(err).ExitCode())
	}
}
