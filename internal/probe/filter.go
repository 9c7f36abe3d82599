package probe

import (
	"NetSpike/internal/config"
	"NetSpike/internal/model"
	"strings"
)

// NoiseFilter drops discovery and multicast chatter by protocol label or
// destination address.
type NoiseFilter struct {
	labels map[string]struct{}
	dests  []string
}

// NewNoiseFilter builds a filter from config lists.
func NewNoiseFilter(cfg config.FilterConfig) *NoiseFilter {
	f := &NoiseFilter{labels: make(map[string]struct{}, len(cfg.DropLabels))}
	for _, l := range cfg.DropLabels {
		f.labels[l] = struct{}{}
	}
	for _, d := range cfg.DropDestinations {
		if d != "" {
			f.dests = append(f.dests, strings.ToLower(d))
		}
	}
	return f
}

// Drop reports whether rec is noise.
func (f *NoiseFilter) Drop(rec *model.PacketRecord) bool {
	if _, ok := f.labels[rec.Protocol]; ok {
		return true
	}
	dest := strings.ToLower(rec.Dest)
	for _, d := range f.dests {
		if strings.Contains(dest, d) {
			return true
		}
	}
	return false
}
