package config

import "math"

// CurrentSchemaVersion is the schema version stamped into priors.yaml,
// policy.yaml, and session config snapshots.
const CurrentSchemaVersion = "1"

// logf is a small convenience wrapper used when writing literal prior
// weights as probabilities in DefaultPriors() rather than raw nats.
func logf(p float64) float64 { return math.Log(p) }
