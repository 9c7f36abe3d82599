//go:build !linux

package limits

import (
	"NetSpike/internal/config"
	"log"
)

// Apply validates cfg and logs that limits are unsupported off Linux.
func Apply(pid int, cfg config.LimitsConfig) (func(), error) {
	res, err := Resources(cfg)
	if err == nil && res != nil {
		log.Printf("Resource limits are only supported on Linux; pid %d runs unlimited", pid)
	}
	return func() {}, err
}
