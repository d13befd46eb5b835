package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brg2/OpenEVT/core/model"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(paths) == 0 {
		t.Fatal("no scenario files found")
	}
	for _, path := range paths {
		sc, err := Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", path, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("does-not-exist.yaml"); err == nil {
		t.Error("expected error for a missing file")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("phases: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected a parse error for malformed YAML")
	}

	empty := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(empty, []byte("name: hollow\nphases: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(empty); err == nil {
		t.Error("expected an error for a scenario without phases")
	}
}

func TestCycleFromPhases(t *testing.T) {
	sc := Scenario{
		Name: "steps",
		Phases: []PhaseDef{
			{DurationS: 10, Accelerator: 0.5},
			{DurationS: 5, Accelerator: 0.2, GradePct: 3},
		},
	}
	c := sc.Cycle()
	if err := c.Validate(); err != nil {
		t.Fatalf("cycle invalid: %v", err)
	}
	if got := c.Duration(); got != 15 {
		t.Fatalf("duration = %v, want 15", got)
	}
	if in := c.At(4); in.Accelerator != 0.5 || in.GradePct != 0 {
		t.Errorf("At(4) = %+v, want accelerator 0.5 grade 0", in)
	}
	if in := c.At(12); in.Accelerator != 0.2 || in.GradePct != 3 {
		t.Errorf("At(12) = %+v, want accelerator 0.2 grade 3", in)
	}
}

func TestPowertrainOverrides(t *testing.T) {
	base := model.DefaultConfig()
	cfg := PowertrainDef{ControlMode: "direct", MassKg: 2500, SoCInitial: 0.7}.Apply(base)
	if cfg.ControlMode != model.ControlDirect {
		t.Errorf("control mode = %q, want direct", cfg.ControlMode)
	}
	if cfg.Vehicle.MassKg != 2500 {
		t.Errorf("mass = %v, want 2500", cfg.Vehicle.MassKg)
	}
	if cfg.Battery.SoCInitial != 0.7 {
		t.Errorf("initial SOC = %v, want 0.7", cfg.Battery.SoCInitial)
	}
	if cfg.Battery.CapacityKwh != base.Battery.CapacityKwh {
		t.Errorf("capacity changed to %v", cfg.Battery.CapacityKwh)
	}
}
