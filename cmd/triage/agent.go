package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/processtriage/triage/internal/capability"
	"github.com/processtriage/triage/internal/decision"
	"github.com/processtriage/triage/internal/model"
)

// newAgentCmd implements `triage agent capabilities` (spec §4.J
// "Capability gate"): prints what this host actually supports, and
// optionally whether a specific (action, pid) pair would currently be
// feasible.
func newAgentCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect what this host's capability gate currently reports",
	}
	cmd.AddCommand(newAgentCapabilitiesCmd(flags))
	return cmd
}

func newAgentCapabilitiesCmd(flags *globalFlags) *cobra.Command {
	var checkAction string
	var checkPID int32
	var cgroupPath string
	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Detect and print host capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			now := time.Now()
			cache, err := a.capabilityCache(now.Unix())
			if err != nil {
				return fmt.Errorf("opening capability cache: %w", err)
			}
			defer cache.Close()
			caps, ok := cache.Get()
			if !ok {
				caps = capability.Detect(now.Unix())
			}

			result := map[string]interface{}{"capabilities": caps}

			if checkAction != "" {
				kind := decision.ActionKind(checkAction)
				rec := model.ProcessRecord{PID: checkPID, CgroupPath: cgroupPath}
				feasibility := capability.Feasibility(caps, rec)
				result["check"] = map[string]interface{}{
					"action":   checkAction,
					"pid":      checkPID,
					"feasible": feasibility.Feasible(kind),
				}
			}

			return renderOutput(cmd.OutOrStdout(), *flags, result)
		},
	}
	cmd.Flags().StringVar(&checkAction, "check-action", "", "action kind to check feasibility for (e.g. kill, renice, cgroup_adjust)")
	cmd.Flags().Int32Var(&checkPID, "check-pid", 0, "pid to check feasibility against, used with --check-action")
	cmd.Flags().StringVar(&cgroupPath, "cgroup-path", "", "cgroup path to assume for the checked pid, used with --check-action=cgroup_adjust")
	return cmd
}
