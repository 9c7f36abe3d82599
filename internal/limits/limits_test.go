package limits

import (
	"NetSpike/internal/config"
	"testing"
)

func TestResources(t *testing.T) {
	res, err := Resources(config.LimitsConfig{})
	if err != nil || res != nil {
		t.Fatalf("Expected no resources without limits, got %v, %v", res, err)
	}

	res, err = Resources(config.LimitsConfig{CPUCores: 0.5, MemoryMB: 256})
	if err != nil {
		t.Fatalf("Resources failed: %v", err)
	}
	if *res.CPU.Period != 100000 || *res.CPU.Quota != 50000 {
		t.Errorf("Expected 50000/100000 CPU quota, got %d/%d", *res.CPU.Quota, *res.CPU.Period)
	}
	if *res.Memory.Limit != 256<<20 {
		t.Errorf("Expected a 256 MB memory limit, got %d", *res.Memory.Limit)
	}

	res, _ = Resources(config.LimitsConfig{MemoryMB: 64})
	if res.CPU != nil {
		t.Errorf("Expected no CPU limit when only memory is capped")
	}

	if _, err := Resources(config.LimitsConfig{CPUCores: -1}); err == nil {
		t.Errorf("Expected negative limits to be rejected")
	}
}

func TestApply_NoLimits(t *testing.T) {
	free, err := Apply(1, config.LimitsConfig{})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	free()
}
