package bundle

import "time"

// ManifestSchemaVersion pins the manifest.json shape. Tracks
// telemetry.BundleSchemaVersion but is independent: a bundle can widen
// its own envelope (new manifest field) without the table schemas
// changing, and vice versa.
const ManifestSchemaVersion = 1

// Manifest is the bundle's manifest.json: the one file a reader opens
// first, before trusting anything else in the archive.
type Manifest struct {
	SchemaVersion int       `json:"schema_version"`
	BundleID      string    `json:"bundle_id"`
	SessionID     string    `json:"session_id"`
	Profile       Profile   `json:"profile"`
	CreatedAt     time.Time `json:"created_at"`

	// Encrypted is true if the payload files below are AES-256-GCM
	// sealed under a passphrase-derived key (see crypt.go).
	Encrypted bool `json:"encrypted"`

	// Files maps each archived file name to its SHA-256 checksum
	// (hex-encoded) of the plaintext content, computed before
	// encryption if Encrypted is set. A reader re-verifies every
	// entry on open.
	Files map[string]string `json:"files"`
}
