package telemetry

import "time"

// BundleSchemaVersion pins the seven tables' row shapes (spec §6 "schema
// evolution is additive-only and versioned by BUNDLE_SCHEMA_VERSION").
// Bump only when adding a nullable field; never remove or repurpose one.
const BundleSchemaVersion = 1

// Table names the seven pinned tables (spec §6 "Core → Telemetry").
type Table string

const (
	TableRuns             Table = "runs"
	TableProcSamples      Table = "proc_samples"
	TableProcFeatures     Table = "proc_features"
	TableProcInference    Table = "proc_inference"
	TableOutcomes         Table = "outcomes"
	TableAudit            Table = "audit"
	TableSignatureMatches Table = "signature_matches"
)

// AllTables lists every pinned table, in a stable order, for callers that
// need to enumerate the full bundle.
var AllTables = []Table{
	TableRuns, TableProcSamples, TableProcFeatures, TableProcInference,
	TableOutcomes, TableAudit, TableSignatureMatches,
}

// RunRow is one row of the runs table: one per CLI invocation that opens
// a session.
type RunRow struct {
	SchemaVersion int       `json:"schema_version"`
	SessionID     string    `json:"session_id"`
	Command       string    `json:"command"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at,omitempty"`
}

// ProcSampleRow is one row of proc_samples: the raw collector output for
// one process at one collected_at timestamp.
type ProcSampleRow struct {
	SchemaVersion    int       `json:"schema_version"`
	SessionID        string    `json:"session_id"`
	CollectedAt      time.Time `json:"collected_at"`
	PID              int32     `json:"pid"`
	StartIDBootEpoch int64     `json:"start_id_boot_epoch"`
	CPUUsageEWMA     float64   `json:"cpu_usage_ewma"`
	RSSBytes         uint64    `json:"rss_bytes"`
	IOReadBps        uint64    `json:"io_read_bps"`
	IOWriteBps       uint64    `json:"io_write_bps"`
	State            string    `json:"state"`
	SupervisorLevel  string    `json:"supervisor_level"`
}

// ProcFeatureRow is one row of proc_features: one named evidence term
// derived for one process (spec §3 "Evidence").
type ProcFeatureRow struct {
	SchemaVersion int     `json:"schema_version"`
	SessionID     string  `json:"session_id"`
	PID           int32   `json:"pid"`
	Feature       string  `json:"feature"`
	Value         float64 `json:"value"`
}

// ProcInferenceRow is one row of proc_inference: the posterior
// classification outcome for one process.
type ProcInferenceRow struct {
	SchemaVersion int     `json:"schema_version"`
	SessionID     string  `json:"session_id"`
	PID           int32   `json:"pid"`
	Class         string  `json:"class"`
	Confidence    string  `json:"confidence"`
	Margin        float64 `json:"margin"`
}

// OutcomeRow is one row of outcomes: the terminal state of one executed
// plan step.
type OutcomeRow struct {
	SchemaVersion int    `json:"schema_version"`
	SessionID     string `json:"session_id"`
	PID           int32  `json:"pid"`
	ActionKind    string `json:"action_kind"`
	State         string `json:"state"`
	FailureKind   string `json:"failure_kind,omitempty"`
}

// AuditRow is one row of audit: a flattened view of one audit.Entry,
// kept alongside the hash-chained audit.jsonl for analytics convenience.
type AuditRow struct {
	SchemaVersion int       `json:"schema_version"`
	SessionID     string    `json:"session_id"`
	Kind          string    `json:"kind"`
	Timestamp     time.Time `json:"timestamp"`
	EntryHash     string    `json:"entry_hash"`
	ParentHash    string    `json:"parent_hash"`
}

// SignatureMatchRow is one row of signature_matches: a protected-pattern
// match recorded by the policy enforcer (spec §4.G check 1).
type SignatureMatchRow struct {
	SchemaVersion int    `json:"schema_version"`
	SessionID     string `json:"session_id"`
	PID           int32  `json:"pid"`
	Pattern       string `json:"pattern"`
	PatternKind   string `json:"pattern_kind"`
}
