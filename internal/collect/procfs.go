package collect

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/processtriage/triage/internal/model"
)

// clockTicksPerSec is Linux's USER_HZ, the unit /proc/<pid>/stat reports
// utime/stime in. 100 is the near-universal value on every mainstream
// distribution's default kernel config; a host running a nonstandard
// HZ would need this made configurable, but no pack repo carries a
// sysconf binding to read it at runtime.
const clockTicksPerSec = 100

type statFields struct {
	ppid    int32
	state   model.ProcessState
	utime   uint64
	stime   uint64
	comm    string
}

// readStat parses /proc/<pid>/stat. The comm field is surrounded by
// parentheses and may itself contain spaces or parens, so it is
// extracted by locating the innermost-safe last ')' rather than naive
// whitespace splitting.
func readStat(pid int32) (statFields, error) {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return statFields{}, err
	}
	line := string(raw)
	open := strings.IndexByte(line, '(')
	closeParen := strings.LastIndexByte(line, ')')
	if open < 0 || closeParen < 0 || closeParen < open {
		return statFields{}, fmt.Errorf("malformed stat line for pid %d", pid)
	}
	comm := line[open+1 : closeParen]
	rest := strings.Fields(line[closeParen+2:])
	// rest[0]=state, rest[1]=ppid, ... rest[11]=utime, rest[12]=stime
	// (fields 3, 4, 14, 15 of the canonical 1-indexed stat(5) layout,
	// after state and ppid have already been consumed here).
	if len(rest) < 13 {
		return statFields{}, fmt.Errorf("truncated stat line for pid %d", pid)
	}
	ppid64, err := strconv.ParseInt(rest[1], 10, 32)
	if err != nil {
		return statFields{}, fmt.Errorf("parsing ppid: %w", err)
	}
	utime, err := strconv.ParseUint(rest[11], 10, 64)
	if err != nil {
		return statFields{}, fmt.Errorf("parsing utime: %w", err)
	}
	stime, err := strconv.ParseUint(rest[12], 10, 64)
	if err != nil {
		return statFields{}, fmt.Errorf("parsing stime: %w", err)
	}
	return statFields{
		ppid:  int32(ppid64),
		state: stateFromCode(rest[0]),
		utime: utime,
		stime: stime,
		comm:  comm,
	}, nil
}

func stateFromCode(code string) model.ProcessState {
	if len(code) == 0 {
		return model.StateSleeping
	}
	switch code[0] {
	case 'R':
		return model.StateRunning
	case 'S':
		return model.StateSleeping
	case 'D':
		return model.StateDisk
	case 'Z':
		return model.StateZombie
	case 'T', 't':
		return model.StateStopped
	case 'X', 'x':
		return model.StateKernel
	default:
		return model.StateSleeping
	}
}

// readRSSBytes parses VmRSS out of /proc/<pid>/status, converting from
// the reported kB to bytes.
func readRSSBytes(pid int32) (uint64, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "VmRSS:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed VmRSS line for pid %d", pid)
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parsing VmRSS: %w", err)
		}
		return kb * 1024, nil
	}
	return 0, nil
}

type ioCounters struct {
	readBytes  uint64
	writeBytes uint64
}

// readIOCounters parses the cumulative byte counters from
// /proc/<pid>/io. Unprivileged readers may lack permission for another
// user's process; a permission error yields zero counters rather than
// failing the whole scan, since io accounting is best-effort.
func readIOCounters(pid int32) ioCounters {
	f, err := os.Open(fmt.Sprintf("/proc/%d/io", pid))
	if err != nil {
		return ioCounters{}
	}
	defer f.Close()

	var c ioCounters
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "read_bytes:":
			c.readBytes = v
		case "write_bytes:":
			c.writeBytes = v
		}
	}
	return c
}

// readCgroupPath returns the v2 unified cgroup path (the line whose
// hierarchy-id field is 0), or "" if cgroupfs isn't mounted or the
// process has none.
func readCgroupPath(pid int32) string {
	f, err := os.Open(fmt.Sprintf("/proc/%d/cgroup", pid))
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 3)
		if len(parts) != 3 {
			continue
		}
		if parts[0] == "0" {
			return parts[2]
		}
	}
	return ""
}

// readCmdline reads the NUL-separated argv from /proc/<pid>/cmdline.
// Falls back to the empty slice for kernel threads, which have no
// cmdline.
func readCmdline(pid int32) []string {
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil || len(raw) == 0 {
		return nil
	}
	parts := strings.Split(strings.TrimRight(string(raw), "\x00"), "\x00")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func listPIDs() ([]int32, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("reading /proc: %w", err)
	}
	var pids []int32
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.ParseInt(e.Name(), 10, 32)
		if err != nil {
			continue
		}
		pids = append(pids, int32(pid))
	}
	return pids, nil
}
