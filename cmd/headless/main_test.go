package main

import (
	"testing"

	"github.com/lao-tseu-is-alive/go-worldtree/internal/arena"
	"google.golang.org/protobuf/types/known/structpb"
)

func statusOf(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	return s
}

func opOf(cmd *structpb.Struct) string {
	if cmd == nil {
		return ""
	}
	return cmd.GetFields()["op"].GetStringValue()
}

func TestBotNextCommand(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		wantOp string
	}{
		{"takes the first offer", map[string]any{"mode": "seed-selection", "offers": []any{"life"}}, arena.OpChoose},
		{"waits without offers", map[string]any{"mode": "seed-selection", "offers": []any{}}, ""},
		{"grafts on the root", map[string]any{"mode": "fusion", "player": 1}, arena.OpFuse},
		{"lets the battle run", map[string]any{"mode": "battle"}, ""},
		{"restarts after a loss", map[string]any{"mode": "lose"}, arena.OpRestart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b bot
			if got := opOf(b.nextCommand(statusOf(t, tt.fields))); got != tt.wantOp {
				t.Errorf("got op %q, want %q", got, tt.wantOp)
			}
		})
	}
}

func TestBotSkipsStuckFusion(t *testing.T) {
	var b bot
	fusion := statusOf(t, map[string]any{"mode": "fusion", "player": 1})
	for i := 0; i < fusionPatience; i++ {
		if op := opOf(b.nextCommand(fusion)); op != arena.OpFuse {
			t.Fatalf("attempt %d: got %q, want fuse", i, op)
		}
	}
	if op := opOf(b.nextCommand(fusion)); op != arena.OpSkip {
		t.Fatalf("got %q after %d attempts, want skip", op, fusionPatience)
	}
	if op := opOf(b.nextCommand(fusion)); op != arena.OpFuse {
		t.Errorf("patience should reset after a skip, got %q", op)
	}
}

func TestRunConfigCopiesPhysics(t *testing.T) {
	cfg := arena.DefaultConfig()
	c := runConfig(cfg, 7)
	c.Physics.MoveSpeed = 1
	if cfg.Physics.MoveSpeed == 1 {
		t.Error("runs must not share physics tuning")
	}
	if c.RandomSeed != 7 || cfg.RandomSeed != 0 {
		t.Errorf("seed not applied to the copy only: copy %d, original %d", c.RandomSeed, cfg.RandomSeed)
	}
}
