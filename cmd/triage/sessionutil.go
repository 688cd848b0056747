package main

import (
	"fmt"

	"github.com/processtriage/triage/internal/session"
)

// resolveSessionID returns explicitID if set, else the most recent session
// under root. Session IDs are lexicographically sortable (session.NewID),
// so "most recent" is simply the last entry of session.List's sorted
// output.
func resolveSessionID(root, explicitID string) (session.ID, error) {
	if explicitID != "" {
		return session.ID(explicitID), nil
	}
	ids, err := session.List(root)
	if err != nil {
		return "", fmt.Errorf("listing sessions: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("no sessions found under %s", root)
	}
	return ids[len(ids)-1], nil
}

// previousSessionID returns the session immediately preceding id in
// lexicographic (chronological) order, or an error if id is the first
// session or not found.
func previousSessionID(root string, id session.ID) (session.ID, error) {
	ids, err := session.List(root)
	if err != nil {
		return "", fmt.Errorf("listing sessions: %w", err)
	}
	for i, cur := range ids {
		if cur == id {
			if i == 0 {
				return "", fmt.Errorf("session %s has no prior session to compare against", id)
			}
			return ids[i-1], nil
		}
	}
	return "", fmt.Errorf("session %s not found", id)
}
