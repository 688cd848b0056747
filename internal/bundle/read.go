package bundle

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/processtriage/triage/internal/errkind"
)

// Bundle is a fully read and checksum-verified .ptb archive.
type Bundle struct {
	Manifest Manifest
	Files    map[string][]byte
}

// Read opens destPath, verifies its manifest checksums, and decrypts the
// payload if one is present. passphrase is ignored for unencrypted
// bundles.
func Read(destPath string, passphrase string) (*Bundle, error) {
	zr, err := zip.OpenReader(destPath)
	if err != nil {
		return nil, errkind.Wrap(errkind.BundleCorrupt, "open bundle archive", err)
	}
	defer zr.Close()

	raw := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, errkind.Wrap(errkind.BundleCorrupt, "open bundle entry "+f.Name, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errkind.Wrap(errkind.BundleCorrupt, "read bundle entry "+f.Name, err)
		}
		raw[f.Name] = content
	}

	manifestBytes, ok := raw["manifest.json"]
	if !ok {
		return nil, errkind.New(errkind.BundleCorrupt, "bundle missing manifest.json")
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, errkind.Wrap(errkind.BundleCorrupt, "unmarshal bundle manifest", err)
	}

	var files map[string][]byte
	if manifest.Encrypted {
		sealed, ok := raw[payloadFileName]
		if !ok {
			return nil, errkind.New(errkind.BundleCorrupt, "encrypted bundle missing payload")
		}
		plaintext, err := open(passphrase, sealed)
		if err != nil {
			return nil, err
		}
		files, err = unpackPayload(plaintext)
		if err != nil {
			return nil, err
		}
	} else {
		files = make(map[string][]byte, len(raw))
		for name, content := range raw {
			if name == "manifest.json" {
				continue
			}
			files[name] = content
		}
	}

	for name, wantSum := range manifest.Files {
		content, ok := files[name]
		if !ok {
			return nil, errkind.New(errkind.BundleCorrupt, "manifest references missing file "+name)
		}
		gotSum := sha256.Sum256(content)
		if hex.EncodeToString(gotSum[:]) != wantSum {
			return nil, errkind.New(errkind.BundleCorrupt, "checksum mismatch for "+name)
		}
	}

	return &Bundle{Manifest: manifest, Files: files}, nil
}
