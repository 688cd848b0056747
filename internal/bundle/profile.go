// Package bundle produces and reads .ptb export archives (spec §6
// "Core → Bundle (produced)"): a ZIP-framed container of a manifest,
// the non-empty telemetry table files the export profile selects, the
// session event log, and an optional passphrase-encrypted payload.
package bundle

// Profile selects how much of a session is exported. Spec §6 names
// three profiles; this repository treats them as a filter over which
// telemetry tables are included, not a separate code path per profile.
// The session event log is exported whole under every profile.
type Profile string

const (
	// ProfileMinimal exports only the decision/outcome tables: enough
	// to audit what happened, nothing that could reconstruct raw
	// process evidence.
	ProfileMinimal Profile = "Minimal"

	// ProfileSafe adds proc_inference and signature_matches: classification
	// results without the raw per-sample evidence.
	ProfileSafe Profile = "Safe"

	// ProfileForensic exports every table, unredacted.
	ProfileForensic Profile = "Forensic"
)

// Valid reports whether p is one of the three declared profiles.
func (p Profile) Valid() bool {
	switch p {
	case ProfileMinimal, ProfileSafe, ProfileForensic:
		return true
	default:
		return false
	}
}

// tableNames returns the subset of telemetry.AllTables a profile exports.
// Expressed here (rather than in package telemetry) because the
// redaction policy is a bundle-export concern, not a storage concern.
func (p Profile) tableNames() []string {
	switch p {
	case ProfileMinimal:
		return []string{"runs", "outcomes", "audit"}
	case ProfileSafe:
		return []string{"runs", "outcomes", "audit", "proc_inference", "signature_matches"}
	case ProfileForensic:
		return []string{"runs", "proc_samples", "proc_features", "proc_inference", "outcomes", "audit", "signature_matches"}
	default:
		return nil
	}
}
