package collect

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/processtriage/triage/internal/model"
)

var (
	bootEpochOnce sync.Once
	bootEpochVal  int64
)

// bootEpoch reads /proc/stat's btime (boot time, unix seconds) once per
// process lifetime and caches it; every ProcessRecord from this
// collector instance shares the same boot epoch, which is what makes
// StartID stable across scans within one run (spec §3 "start_id is
// globally unique within a collector boot").
// BootEpoch exposes the cached boot epoch to callers outside this
// package, namely the alpha-investing store's reboot check (spec §9 Open
// Question (b)).
func BootEpoch() int64 { return bootEpoch() }

func bootEpoch() int64 {
	bootEpochOnce.Do(func() {
		f, err := os.Open("/proc/stat")
		if err != nil {
			return
		}
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "btime ") {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) != 2 {
				continue
			}
			if v, err := strconv.ParseInt(fields[1], 10, 64); err == nil {
				bootEpochVal = v
			}
		}
	})
	return bootEpochVal
}

var criticalSupervisorNames = map[string]bool{
	"systemd": true,
	"init":    true,
	"kubelet": true,
	"dockerd": true,
	"containerd": true,
}

// classifySupervisor heuristically assigns a SupervisorLevel. pid 1 and
// the well-known host supervisor daemons are Critical; anything running
// inside a container cgroup is System; anything with a nonzero parent pid
// is User; an orphan with no recognizable supervisor is None.
func classifySupervisor(pid, ppid int32, command, cgroupPath string) model.SupervisorLevel {
	if pid == 1 || criticalSupervisorNames[command] {
		return model.SupervisorCritical
	}
	if cgroupPath != "" && (strings.Contains(cgroupPath, "kubepods") || strings.Contains(cgroupPath, "docker") || strings.Contains(cgroupPath, "containerd")) {
		return model.SupervisorSystem
	}
	if ppid > 0 {
		return model.SupervisorUser
	}
	return model.SupervisorNone
}
