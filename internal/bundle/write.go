package bundle

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/processtriage/triage/internal/errkind"
	"github.com/processtriage/triage/internal/telemetry"
)

// payloadFileName is the single archive member holding the (possibly
// encrypted) concatenated payload when Write is called with a
// passphrase. Unencrypted bundles instead store each file individually,
// so an unencrypted .ptb can be inspected with any ZIP tool.
const payloadFileName = "payload.bin"

// Source names the on-disk inputs Write assembles into a bundle.
type Source struct {
	SessionID    string
	EventsPath   string // session.Dir.EventsPath()
	TelemetryDir string // directory passed to telemetry.NewWriter
	Profile      Profile
	Passphrase   string // empty disables encryption
	CreatedAt    time.Time
}

// Write assembles a .ptb archive at destPath from src.
func Write(destPath string, src Source) (*Manifest, error) {
	if !src.Profile.Valid() {
		return nil, errkind.New(errkind.InvalidArguments, "unknown bundle export profile: "+string(src.Profile))
	}

	files, err := collectFiles(src)
	if err != nil {
		return nil, err
	}

	bundleID := uuid.NewString()
	manifest := &Manifest{
		SchemaVersion: ManifestSchemaVersion,
		BundleID:      bundleID,
		SessionID:     src.SessionID,
		Profile:       src.Profile,
		CreatedAt:     src.CreatedAt,
		Encrypted:     src.Passphrase != "",
		Files:         make(map[string]string, len(files)),
	}
	for name, content := range files {
		sum := sha256.Sum256(content)
		manifest.Files[name] = hex.EncodeToString(sum[:])
	}

	out, err := os.Create(destPath)
	if err != nil {
		return nil, errkind.Wrap(errkind.Internal, "create bundle file", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	manifestBytes, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, errkind.Wrap(errkind.Internal, "marshal bundle manifest", err)
	}
	if err := writeZipEntry(zw, "manifest.json", manifestBytes); err != nil {
		return nil, err
	}

	if src.Passphrase == "" {
		for name, content := range files {
			if err := writeZipEntry(zw, name, content); err != nil {
				return nil, err
			}
		}
	} else {
		payload, err := packPayload(files)
		if err != nil {
			return nil, err
		}
		sealed, err := seal(src.Passphrase, payload)
		if err != nil {
			return nil, err
		}
		if err := writeZipEntry(zw, payloadFileName, sealed); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errkind.Wrap(errkind.Internal, "close bundle archive", err)
	}
	return manifest, nil
}

// collectFiles reads every file a profile exports into memory: session
// event log plus the profile's telemetry tables. Bundle sizes are bounded
// by session length, so this is not expected to be large enough to
// warrant streaming.
func collectFiles(src Source) (map[string][]byte, error) {
	files := make(map[string][]byte)

	events, err := os.ReadFile(src.EventsPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, errkind.Wrap(errkind.Internal, "read session event log", err)
	}
	if err == nil {
		files["session.jsonl"] = events
	}

	for _, name := range src.Profile.tableNames() {
		var buf bytes.Buffer
		readErr := telemetry.ReadRows(src.TelemetryDir, telemetry.Table(name), func(line []byte) error {
			buf.Write(line)
			buf.WriteByte('\n')
			return nil
		})
		if readErr != nil {
			return nil, errkind.Wrap(errkind.Internal, "read telemetry table "+name, readErr)
		}
		if buf.Len() > 0 {
			files[name+".ndjson"] = buf.Bytes()
		}
	}
	return files, nil
}

// packPayload concatenates files into a single deterministic byte stream
// (one JSON object per file, {name, base64 content}, sorted by name) for
// encryption as one AEAD-sealed blob rather than one per file.
func packPayload(files map[string][]byte) ([]byte, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sortStrings(names)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, name := range names {
		if err := enc.Encode(payloadEntry{Name: name, Content: files[name]}); err != nil {
			return nil, errkind.Wrap(errkind.Internal, "encode bundle payload entry", err)
		}
	}
	return buf.Bytes(), nil
}

type payloadEntry struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

func unpackPayload(data []byte) (map[string][]byte, error) {
	files := make(map[string][]byte)
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		var entry payloadEntry
		if err := dec.Decode(&entry); err == io.EOF {
			break
		} else if err != nil {
			return nil, errkind.Wrap(errkind.BundleCorrupt, "decode bundle payload entry", err)
		}
		files[entry.Name] = entry.Content
	}
	return files, nil
}

func writeZipEntry(zw *zip.Writer, name string, content []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return errkind.Wrap(errkind.Internal, "create zip entry "+name, err)
	}
	if _, err := w.Write(content); err != nil {
		return errkind.Wrap(errkind.Internal, "write zip entry "+name, err)
	}
	return nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
