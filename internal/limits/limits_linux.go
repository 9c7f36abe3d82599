//go:build linux

package limits

import (
	"NetSpike/internal/config"
	"fmt"
	"log"

	"github.com/containerd/cgroups"
)

// Apply moves pid into a fresh v1 cgroup limited by cfg. The returned func
// deletes the cgroup and must be called on shutdown. Nothing is created when
// no limit is configured.
func Apply(pid int, cfg config.LimitsConfig) (func(), error) {
	res, err := Resources(cfg)
	if err != nil || res == nil {
		return func() {}, err
	}

	control, err := cgroups.New(cgroups.V1, cgroups.StaticPath(CgroupPath), res)
	if err != nil {
		return func() {}, fmt.Errorf("failed to create cgroup %s: %w", CgroupPath, err)
	}
	if err := control.Add(cgroups.Process{Pid: pid}); err != nil {
		control.Delete()
		return func() {}, fmt.Errorf("failed to add pid %d to cgroup %s: %w", pid, CgroupPath, err)
	}
	log.Printf("Limited pid %d to %.2f cores and %d MB via cgroup %s", pid, cfg.CPUCores, cfg.MemoryMB, CgroupPath)

	return func() {
		if err := control.Delete(); err != nil {
			log.Printf("Failed to delete cgroup %s: %v", CgroupPath, err)
		}
	}, nil
}
