// Package limits caps the monitor's own CPU and memory through a cgroup.
package limits

import (
	"NetSpike/internal/config"
	"fmt"
	"os"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

// cpuPeriod is the CFS scheduling period in microseconds.
const cpuPeriod uint64 = 100000

// CgroupPath is the cgroup the monitor moves itself into.
var CgroupPath = fmt.Sprintf("/netspike/%d", os.Getpid())

// Resources translates the configured core and megabyte caps into cgroup
// resources. It returns nil when neither limit is set.
func Resources(cfg config.LimitsConfig) (*specs.LinuxResources, error) {
	if cfg.CPUCores < 0 || cfg.MemoryMB < 0 {
		return nil, fmt.Errorf("limits must not be negative: cpu_cores=%v memory_mb=%d", cfg.CPUCores, cfg.MemoryMB)
	}
	if cfg.CPUCores == 0 && cfg.MemoryMB == 0 {
		return nil, nil
	}

	res := &specs.LinuxResources{}
	if cfg.CPUCores > 0 {
		period := cpuPeriod
		quota := int64(cfg.CPUCores * float64(cpuPeriod))
		res.CPU = &specs.LinuxCPU{Quota: &quota, Period: &period}
	}
	if cfg.MemoryMB > 0 {
		limit := int64(cfg.MemoryMB) * 1024 * 1024
		res.Memory = &specs.LinuxMemory{Limit: &limit}
	}
	return res, nil
}
