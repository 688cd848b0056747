package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// VerifyChain reads every entry in path and confirms the hash chain is
// intact: each entry's ParentHash must equal the previous entry's
// EntryHash, and each entry's EntryHash must match a fresh recomputation
// from its own content. Returns the number of entries verified, or the
// first error encountered.
func VerifyChain(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var prevHash string
	n := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return n, fmt.Errorf("entry %d: invalid JSON: %w", n, err)
		}
		if e.ParentHash != prevHash {
			return n, fmt.Errorf("entry %d: parent hash mismatch: got %q, want %q", n, e.ParentHash, prevHash)
		}
		want := computeHash(Entry{Kind: e.Kind, Timestamp: e.Timestamp, Payload: e.Payload, ParentHash: e.ParentHash})
		if want != e.EntryHash {
			return n, fmt.Errorf("entry %d: content hash mismatch: chain is broken or tampered", n)
		}
		prevHash = e.EntryHash
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("reading audit log: %w", err)
	}
	return n, nil
}
