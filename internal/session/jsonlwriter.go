package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// wireEvent is the on-disk shape of an Event: newline-framed JSON, one
// object per line (spec §4.H "JsonlWriter serializes events to disk with
// newline framing; each line is valid JSON").
type wireEvent struct {
	Kind      EventKind              `json:"kind"`
	Timestamp string                 `json:"timestamp"`
	Sequence  uint64                 `json:"sequence"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// JsonlWriter appends Events to events.jsonl, flushing explicitly at
// Close so the file is crash-consistent via append-only writes (spec
// §4.H).
type JsonlWriter struct {
	f *os.File
	w *bufio.Writer
}

// NewJsonlWriter opens path for append, creating it if absent.
func NewJsonlWriter(path string) (*JsonlWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening jsonl writer: %w", err)
	}
	return &JsonlWriter{f: f, w: bufio.NewWriter(f)}, nil
}

// Write appends one event as a newline-terminated JSON line.
func (w *JsonlWriter) Write(ev Event) error {
	we := wireEvent{Kind: ev.Kind, Timestamp: ev.Timestamp.Format("2006-01-02T15:04:05.000000000Z07:00"), Sequence: ev.Sequence, Payload: ev.Payload}
	data, err := json.Marshal(we)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Close flushes buffered writes, fsyncs, and closes the file (spec §4.H
// "explicit flush at session close").
func (w *JsonlWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flushing jsonl writer: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("syncing jsonl writer: %w", err)
	}
	return w.f.Close()
}

// Drain reads every event from ch and writes it until ch is closed,
// intended to run in its own goroutine as one of the EventBus's
// subscribers.
func (w *JsonlWriter) Drain(ch <-chan Event) error {
	for ev := range ch {
		if err := w.Write(ev); err != nil {
			return err
		}
	}
	return nil
}
