package crossing_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fujiwara/crossing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crossing.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, "lights:\n  - id: 3\n")
	cfg, err := crossing.LoadConfig(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Responder.Addr != crossing.DefaultListenAddr {
		t.Errorf("addr %q, want default %q", cfg.Responder.Addr, crossing.DefaultListenAddr)
	}
	if len(cfg.Lights) != 1 {
		t.Fatalf("expected 1 light, got %d", len(cfg.Lights))
	}
	lc := cfg.Lights[0]
	if lc.ID != 3 {
		t.Errorf("id %d, want 3", lc.ID)
	}
	if lc.CycleMin != crossing.DefaultCycleMin {
		t.Errorf("cycle_min %s, want default %s", lc.CycleMin, crossing.DefaultCycleMin)
	}
	if lc.CycleMax != crossing.DefaultCycleMax {
		t.Errorf("cycle_max %s, want default %s", lc.CycleMax, crossing.DefaultCycleMax)
	}
	if lc.Tick != crossing.DefaultTick {
		t.Errorf("tick %s, want default %s", lc.Tick, crossing.DefaultTick)
	}
}

func TestLoadConfigNoLights(t *testing.T) {
	path := writeConfig(t, "responder:\n  addr: \"127.0.0.1:18080\"\n")
	cfg, err := crossing.LoadConfig(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Responder.Addr != "127.0.0.1:18080" {
		t.Errorf("addr %q, want 127.0.0.1:18080", cfg.Responder.Addr)
	}
	if len(cfg.Lights) != 1 || cfg.Lights[0].ID != 1 {
		t.Fatalf("expected a single default light with id 1, got %+v", cfg.Lights)
	}
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
responder:
  addr: "127.0.0.1:18080"
lights:
  - id: 1
    cycle_min: 250ms
    cycle_max: 400ms
    tick: 5ms
  - id: 2
hook:
  on_green:
    run: "echo green"
    timeout: 2s
`)
	cfg, err := crossing.LoadConfig(context.Background(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.Lights) != 2 {
		t.Fatalf("expected 2 lights, got %d", len(cfg.Lights))
	}
	if cfg.Lights[0].CycleMin != 250*time.Millisecond {
		t.Errorf("cycle_min %s, want 250ms", cfg.Lights[0].CycleMin)
	}
	if cfg.Lights[0].CycleMax != 400*time.Millisecond {
		t.Errorf("cycle_max %s, want 400ms", cfg.Lights[0].CycleMax)
	}
	if cfg.Lights[0].Tick != 5*time.Millisecond {
		t.Errorf("tick %s, want 5ms", cfg.Lights[0].Tick)
	}
	if cfg.Lights[1].CycleMin != crossing.DefaultCycleMin {
		t.Errorf("light 2 cycle_min %s, want default", cfg.Lights[1].CycleMin)
	}
	if cfg.Hook == nil || cfg.Hook.OnGreen == nil {
		t.Fatal("hook was not loaded")
	}
	if cfg.Hook.OnGreen.Run != "echo green" {
		t.Errorf("hook run %q, want %q", cfg.Hook.OnGreen.Run, "echo green")
	}
	if cfg.Hook.OnGreen.Timeout != 2*time.Second {
		t.Errorf("hook timeout %s, want 2s", cfg.Hook.OnGreen.Timeout)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "duplicate ids",
			body: "lights:\n  - id: 1\n  - id: 1\n",
			want: "duplicate id",
		},
		{
			name: "min exceeds max",
			body: "lights:\n  - id: 1\n    cycle_min: 5s\n    cycle_max: 1s\n",
			want: "exceeds cycle_max",
		},
		{
			name: "negative tick",
			body: "lights:\n  - id: 1\n    tick: -1s\n",
			want: "tick must be positive",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.body)
			_, err := crossing.LoadConfig(context.Background(), path)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfigBadScheme(t *testing.T) {
	_, err := crossing.LoadConfig(context.Background(), "ftp://example.com/crossing.yaml")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "scheme must be") {
		t.Errorf("error %q does not mention the allowed schemes", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := crossing.LoadConfig(context.Background(), filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected an error")
	}
}
