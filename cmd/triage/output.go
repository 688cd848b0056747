package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
)

func timeFromUnix(sec int64) time.Time { return time.Unix(sec, 0) }

// renderOutput writes v to w in the format named by flags.format ("json"
// or "toon"), applying --fields projection and --compact when set.
//
// "toon" (terse object-oriented notation) is this repository's
// token-economical alternative to JSON for agent consumers (spec §6
// "--format {json,toon}", "--max-tokens", "--estimate-tokens") — a flat
// key=value-per-line rendering with no braces or quoting overhead. It is
// not a standard on the wire; it is a local convention recognized only by
// this CLI's own formatter.
func renderOutput(w io.Writer, flags globalFlags, v interface{}) error {
	projected, err := projectFields(v, flags.fields)
	if err != nil {
		return err
	}

	var out []byte
	switch flags.format {
	case "toon":
		out = renderTOON(projected)
	default:
		if flags.compact {
			out, err = json.Marshal(projected)
		} else {
			out, err = json.MarshalIndent(projected, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("marshaling output: %w", err)
		}
		out = append(out, '\n')
	}

	if flags.maxTokens > 0 {
		out = truncateToTokenBudget(out, flags.maxTokens)
	}
	if flags.estimateTokens {
		fmt.Fprintf(w, "# estimated_tokens=%d\n", estimateTokens(out))
	}

	_, err = w.Write(out)
	return err
}

// projectFields round-trips v through JSON to get a generic map/slice,
// then keeps only the requested top-level fields when fields is non-empty.
// A projection is applied only to a top-level object; slices and scalars
// pass through unchanged, since "--fields" names object keys.
func projectFields(v interface{}, fields []string) (interface{}, error) {
	if len(fields) == 0 {
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling for field projection: %w", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return v, nil // not a top-level object; projection does not apply
	}
	want := make(map[string]bool, len(fields))
	for _, f := range fields {
		want[f] = true
	}
	out := make(map[string]interface{}, len(fields))
	for k, val := range m {
		if want[k] {
			out[k] = val
		}
	}
	return out, nil
}

// renderTOON flattens v into sorted "key=value" lines. Nested structures
// are addressed with dotted paths (e.g. "impact.severity=High").
func renderTOON(v interface{}) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte(fmt.Sprintf("error=%v\n", err))
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return []byte(fmt.Sprintf("error=%v\n", err))
	}

	lines := make(map[string]string)
	flattenTOON("", generic, lines)

	keys := make([]string, 0, len(lines))
	for k := range lines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(lines[k])
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

func flattenTOON(prefix string, v interface{}, out map[string]string) {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenTOON(key, val, out)
		}
	case []interface{}:
		for i, val := range t {
			key := fmt.Sprintf("%s.%d", prefix, i)
			flattenTOON(key, val, out)
		}
	case nil:
		out[prefix] = "null"
	default:
		out[prefix] = fmt.Sprintf("%v", t)
	}
}

// truncateToTokenBudget trims out to roughly budget tokens (estimated at
// 4 bytes/token, a common rough heuristic) by dropping whole trailing
// lines rather than cutting mid-line.
func truncateToTokenBudget(out []byte, budget int) []byte {
	if estimateTokens(out) <= budget {
		return out
	}
	maxBytes := budget * 4
	if maxBytes >= len(out) {
		return out
	}
	truncated := out[:maxBytes]
	if idx := strings.LastIndexByte(string(truncated), '\n'); idx > 0 {
		truncated = truncated[:idx+1]
	}
	return append(truncated, []byte("# truncated to fit --max-tokens\n")...)
}

func estimateTokens(out []byte) int {
	return (len(out) + 3) / 4
}
