package telemetry

import (
	"bufio"
	"fmt"
	"os"
)

// ReadRows streams table's raw NDJSON lines back to the caller via fn,
// stopping at the first error fn returns. Used by internal/bundle to
// pack table files without re-deriving their schema, and by `triage
// telemetry status` to count rows per table.
//
// Missing files are not an error: a table nothing ever wrote to simply
// yields zero rows.
func ReadRows(dir string, table Table, fn func(line []byte) error) error {
	w := &Writer{dir: dir}
	f, err := os.Open(w.Path(table))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", table, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		if err := fn(line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// CountRows returns the number of NDJSON lines currently written to
// table, without unmarshaling them.
func CountRows(dir string, table Table) (int, error) {
	n := 0
	err := ReadRows(dir, table, func([]byte) error {
		n++
		return nil
	})
	return n, err
}
