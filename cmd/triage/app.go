package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/processtriage/triage/internal/alphainvest"
	"github.com/processtriage/triage/internal/capability"
	"github.com/processtriage/triage/internal/collect"
	"github.com/processtriage/triage/internal/config"
	"github.com/processtriage/triage/internal/logging"
	"github.com/processtriage/triage/internal/policy"
)

// globalFlags mirrors the persistent flags spec §6 pins for every
// subcommand ("--format {json,toon}", "--compact", "--fields",
// "--max-tokens", "--estimate-tokens", "--config <dir>").
type globalFlags struct {
	configDir      string
	dataDir        string
	format         string
	compact        bool
	fields         []string
	maxTokens      int
	estimateTokens bool
	logLevel       string
}

// app bundles everything a subcommand needs: resolved config, a logger,
// and lazily-opened handles to the capability cache and policy enforcer.
// Each subcommand's RunE builds its own app with newApp.
type app struct {
	flags globalFlags
	log   *zap.Logger
	cfg   *config.Bundle
}

func newApp(flags globalFlags) (*app, error) {
	log, err := logging.Build(flags.logLevel, logging.Format(flags.format))
	if err != nil {
		// Build fails only on an unparsable log level; an output format
		// such as "toon" is not an error and selects the JSON encoder.
		log, err = logging.Build(flags.logLevel, logging.FormatJSON)
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
	}

	bundle, err := config.Load(flags.configDir, flags.dataDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := bundle.Paths.EnsureDataDirs(); err != nil {
		return nil, fmt.Errorf("preparing data directories: %w", err)
	}

	return &app{flags: flags, log: log, cfg: bundle}, nil
}

// capabilityCache opens (and, if stale, refreshes) the host capability
// cache at the resolved data dir (spec §4.J, §3 "Capabilities").
func (a *app) capabilityCache(now int64) (*capability.Cache, error) {
	path := a.cfg.Paths.CapabilityDir() + "/capabilities.db"
	cache, err := capability.OpenCache(path, capability.DefaultTTL, timeFromUnix(now))
	if err != nil {
		return nil, err
	}
	if _, ok := cache.Get(); !ok {
		if _, err := cache.Refresh(timeFromUnix(now)); err != nil {
			cache.Close()
			return nil, err
		}
	}
	return cache, nil
}

// enforcer builds a fresh policy.Enforcer plus the alpha-investing policy
// and store it needs, rooted at the resolved data dir. The caller is
// responsible for persisting alpha via store.Save after use.
func (a *app) enforcer() (*policy.Enforcer, *alphainvest.Policy, *alphainvest.Store, error) {
	store := alphainvest.NewStore(a.cfg.Paths.DataDir + "/alpha_investing.json")
	alpha, err := store.LoadWithBootCheck(
		a.cfg.Policy.AlphaInvesting.InitialWealth, a.cfg.Policy.AlphaInvesting.Gamma,
		collect.BootEpoch(), a.cfg.Policy.AlphaInvesting.ResetOnReboot,
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading alpha-investing state: %w", err)
	}
	enf, err := policy.NewEnforcer(a.cfg.Policy, alpha)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("building policy enforcer: %w", err)
	}
	return enf, alpha, store, nil
}
