package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the full cobra command tree (spec §6 "CLI surface").
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "triage",
		Short: "Operator-facing process triage: classify, decide, and remediate runaway processes.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configDir, "config", "", "configuration directory (overrides PROCESS_TRIAGE_CONFIG)")
	pf.StringVar(&flags.dataDir, "data", "", "data directory (overrides PROCESS_TRIAGE_DATA)")
	pf.StringVar(&flags.format, "format", "json", "output format: json or toon")
	pf.BoolVar(&flags.compact, "compact", false, "emit compact (non-indented) output")
	pf.StringSliceVar(&flags.fields, "fields", nil, "restrict output to these top-level fields")
	pf.IntVar(&flags.maxTokens, "max-tokens", 0, "truncate output to approximately this many tokens (0 = unlimited)")
	pf.BoolVar(&flags.estimateTokens, "estimate-tokens", false, "print an estimated token count before output")
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newSnapshotCmd(flags),
		newPlanCmd(flags),
		newApplyCmd(flags),
		newVerifyCmd(flags),
		newSessionsCmd(flags),
		newDiffCmd(flags),
		newShadowCmd(flags),
		newTelemetryCmd(flags),
		newConfigCmd(flags),
		newAgentCmd(flags),
	)
	return root
}
