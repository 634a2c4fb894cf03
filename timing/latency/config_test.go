package latency

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sarchlab/tomasulosim/insts"
)

func TestDefaultMatchesSpecConstants(t *testing.T) {
	cfg := Default()
	cases := map[insts.Op]int{
		insts.OpLD:    3,
		insts.OpSD:    3,
		insts.OpADDD:  2,
		insts.OpSUBD:  2,
		insts.OpMULTD: 10,
		insts.OpDIVD:  40,
	}
	for op, want := range cases {
		if got := cfg.LatencyFor(op); got != want {
			t.Errorf("LatencyFor(%v) = %d, want %d", op, got, want)
		}
	}
	if cfg.LatencyFor(insts.OpInvalid) != -1 {
		t.Errorf("LatencyFor(OpInvalid) = %d, want -1", cfg.LatencyFor(insts.OpInvalid))
	}
	if cfg.DefaultRegisterValue != 2 {
		t.Errorf("DefaultRegisterValue = %v, want 2", cfg.DefaultRegisterValue)
	}
}

func TestValidateRejectsZero(t *testing.T) {
	cfg := Default()
	cfg.MultStations = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected Validate to reject a zero station count")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.MultLatency = 20

	dir := t.TempDir()
	path := filepath.Join(dir, "latency.json")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.MultLatency != 20 {
		t.Errorf("loaded MultLatency = %d, want 20", loaded.MultLatency)
	}
	if loaded.LoadLatency != Default().LoadLatency {
		t.Errorf("loaded LoadLatency = %d, want %d (unchanged field should round-trip)", loaded.LoadLatency, Default().LoadLatency)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(os.TempDir(), "does-not-exist.json")); err == nil {
		t.Fatalf("expected an error loading a missing config file")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.MultLatency = 999
	if cfg.MultLatency == 999 {
		t.Errorf("mutating the clone affected the original")
	}
}
