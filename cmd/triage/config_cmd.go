package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/processtriage/triage/internal/config"
)

// Only one named preset exists: "default", the built-in config.DefaultPriors
// / config.DefaultPolicy pair every other config is loaded as an overlay
// onto. A future preset library would extend this map.
var presets = map[string]bool{"default": true}

// newConfigCmd implements `triage config {list-presets|show-preset|
// diff-preset|export-preset|validate}` (spec §3 "Priors & Policy model").
func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect, validate, and export priors/policy configuration",
	}
	cmd.AddCommand(
		newConfigListPresetsCmd(flags),
		newConfigShowPresetCmd(flags),
		newConfigDiffPresetCmd(flags),
		newConfigExportPresetCmd(flags),
		newConfigValidateCmd(flags),
	)
	return cmd
}

func newConfigListPresetsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list-presets",
		Short: "List known configuration presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, 0, len(presets))
			for name := range presets {
				names = append(names, name)
			}
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{"presets": names})
		},
	}
}

func resolvePreset(name string) (*config.Priors, *config.Policy, error) {
	if !presets[name] {
		return nil, nil, fmt.Errorf("unknown preset %q", name)
	}
	return config.DefaultPriors(), config.DefaultPolicy(), nil
}

func newConfigShowPresetCmd(flags *globalFlags) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "show-preset",
		Short: "Print a preset's priors and policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			priors, policy, err := resolvePreset(name)
			if err != nil {
				return err
			}
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"preset": name,
				"priors": priors,
				"policy": policy,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "preset name")
	return cmd
}

func newConfigDiffPresetCmd(flags *globalFlags) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "diff-preset",
		Short: "Diff the currently loaded config against a preset",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			_, presetPolicy, err := resolvePreset(name)
			if err != nil {
				return err
			}
			presetRaw, err := yaml.Marshal(presetPolicy)
			if err != nil {
				return fmt.Errorf("marshaling preset policy: %w", err)
			}
			loadedRaw, err := yaml.Marshal(a.cfg.Policy)
			if err != nil {
				return fmt.Errorf("marshaling loaded policy: %w", err)
			}
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"preset":        name,
				"differs":       string(presetRaw) != string(loadedRaw),
				"preset_policy": presetPolicy,
				"loaded_policy": a.cfg.Policy,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "preset name")
	return cmd
}

func newConfigExportPresetCmd(flags *globalFlags) *cobra.Command {
	var name, out string
	cmd := &cobra.Command{
		Use:   "export-preset",
		Short: "Write a preset's priors and policy as YAML files",
		RunE: func(cmd *cobra.Command, args []string) error {
			priors, policy, err := resolvePreset(name)
			if err != nil {
				return err
			}
			if out == "" {
				out = "."
			}
			if err := os.MkdirAll(out, 0o755); err != nil {
				return fmt.Errorf("creating export directory: %w", err)
			}
			priorsRaw, err := yaml.Marshal(priors)
			if err != nil {
				return fmt.Errorf("marshaling priors: %w", err)
			}
			policyRaw, err := yaml.Marshal(policy)
			if err != nil {
				return fmt.Errorf("marshaling policy: %w", err)
			}
			if err := os.WriteFile(out+"/priors.yaml", priorsRaw, 0o644); err != nil {
				return fmt.Errorf("writing priors.yaml: %w", err)
			}
			if err := os.WriteFile(out+"/policy.yaml", policyRaw, 0o644); err != nil {
				return fmt.Errorf("writing policy.yaml: %w", err)
			}
			return renderOutput(cmd.OutOrStdout(), *flags, map[string]interface{}{
				"preset": name,
				"dir":    out,
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "default", "preset name")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default: current directory)")
	return cmd
}

func newConfigValidateCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the currently loaded priors and policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*flags)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			result := map[string]interface{}{"valid": true}
			if err := config.ValidatePriors(a.cfg.Priors); err != nil {
				result["valid"] = false
				result["priors_error"] = err.Error()
			}
			if err := config.ValidatePolicy(a.cfg.Policy); err != nil {
				result["valid"] = false
				result["policy_error"] = err.Error()
			}
			return renderOutput(cmd.OutOrStdout(), *flags, result)
		},
	}
	return cmd
}
