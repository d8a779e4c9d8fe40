package hexbattle

import (
	"encoding/json"
	"os"
	"testing"

	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/hexgrid"
	"cloudy-sword/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// Карта 4x3: (1,1) - дыра, (3,1) - вода.
const fixture = `{
	"turn": 0,
	"players": ["7", 9],
	"map": {"cols": 4, "rows": 3, "terrain": [[1,1,1,1],[1,0,1,3],[1,1,1,1]]},
	"units": [
		{"id": 1, "name": "Knight", "controller": 0, "pos": {"x": 0, "y": 0},
		 "health": 10, "hp": 10, "mana": 5, "mn": 5, "steps": 2, "speed": 2,
		 "abilities": [{"name": "Slash", "range": 1, "damage": 3}, {"name": "Fireball", "range": 2, "cost": 5, "damage": 4}]},
		{"id": 2, "name": "Archer", "controller": 1, "pos": {"x": 1, "y": 0},
		 "health": 3, "hp": 3, "steps": 0, "speed": 3,
		 "abilities": [{"name": "Shoot", "range": 3, "damage": 1}]}
	]
}`

func frame(body string) api.Frame {
	return api.NewFrame(api.TagFullSync.String(), []byte(body), api.JSONCodec{})
}

func loaded(t *testing.T) *Engine {
	t.Helper()
	e := New()
	if err := e.Load(frame(fixture)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e
}

func cell(x, y int) hexgrid.Cell { return hexgrid.Cell{X: x, Y: y} }

func TestEngine_LoadAndQueries(t *testing.T) {
	e := loaded(t)

	if cols, rows := e.Extent(); cols != 4 || rows != 3 {
		t.Errorf("Extent() = %d,%d", cols, rows)
	}

	tests := []struct {
		c    hexgrid.Cell
		want bool
	}{
		{cell(0, 0), true},
		{cell(1, 1), false}, // дыра
		{cell(3, 1), true},  // вода - часть поля
		{cell(4, 0), false},
		{hexgrid.None, false},
	}
	for _, tt := range tests {
		if got := e.OnGrid(tt.c); got != tt.want {
			t.Errorf("OnGrid(%v) = %v, want %v", tt.c, got, tt.want)
		}
	}

	u, ok := e.UnitAt(cell(0, 0))
	if !ok || u.Name != "Knight" || len(u.Abilities) != 2 || u.Abilities[1] != "Fireball" {
		t.Errorf("UnitAt(0,0) = %+v, %v", u, ok)
	}
	if id, ok := e.Player(1); !ok || id != "9" {
		t.Errorf("Player(1) = %q, %v", id, ok)
	}
}

func TestEngine_LoadRejectsBrokenMap(t *testing.T) {
	e := New()
	err := e.Load(frame(`{"map": {"cols": 2, "rows": 2, "terrain": [[1,1]]}}`))
	if err == nil {
		t.Fatal("expected error for short terrain")
	}
	if e.OnGrid(cell(0, 0)) {
		t.Error("failed load must not leave state")
	}
}

func TestEngine_ValidMove(t *testing.T) {
	e := loaded(t)

	tests := []struct {
		name   string
		action api.Action
		player int
		want   bool
	}{
		{"free cell", api.MoveAction(cell(0, 0), hexgrid.DownRight), 0, true},
		{"occupied", api.MoveAction(cell(0, 0), hexgrid.Right), 0, false},
		{"off map", api.MoveAction(cell(0, 0), hexgrid.DownLeft), 0, false},
		{"not your turn", api.MoveAction(cell(0, 0), hexgrid.DownRight), 1, false},
		{"spectator", api.MoveAction(cell(0, 0), hexgrid.DownRight), -1, false},
		{"enemy unit", api.MoveAction(cell(1, 0), hexgrid.Right), 0, false},
		{"empty subject", api.MoveAction(cell(2, 2), hexgrid.Left), 0, false},
		{"not a hex dir", api.MoveAction(cell(0, 0), cell(1, 1)), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.ValidAction(tt.action, tt.player); got != tt.want {
				t.Errorf("ValidAction = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_MoveSpendsSteps(t *testing.T) {
	e := loaded(t)

	if err := e.DoAction(api.MoveAction(cell(0, 0), hexgrid.DownRight)); err != nil {
		t.Fatal(err)
	}
	if err := e.DoAction(api.MoveAction(cell(0, 1), hexgrid.DownRight)); err != nil {
		t.Fatal(err)
	}

	if e.ValidAction(api.MoveAction(cell(0, 2), hexgrid.Right), 0) {
		t.Error("unit has no steps left")
	}
	if _, ok := e.UnitAt(cell(0, 0)); ok {
		t.Error("unit still at origin")
	}
}

func TestEngine_AbilityAndTargetCache(t *testing.T) {
	e := loaded(t)

	if !e.ValidTarget(cell(0, 0), cell(2, 0), 1) {
		t.Fatal("Fireball in range 2 should be valid")
	}
	if e.ValidTarget(cell(0, 0), cell(2, 0), 0) {
		t.Error("Slash has range 1")
	}
	if e.ValidTarget(cell(0, 0), cell(1, 1), 0) {
		t.Error("hole is not a target")
	}

	// Кеш держит старый ответ, пока его не сбросят.
	e.state.Units[0].Mana = 0
	if !e.ValidTarget(cell(0, 0), cell(2, 0), 1) {
		t.Error("cached overlay expected")
	}
	e.ClearCache()
	if e.ValidTarget(cell(0, 0), cell(2, 0), 1) {
		t.Error("no mana after cache reset")
	}
}

func TestEngine_AbilityKillsTarget(t *testing.T) {
	e := loaded(t)

	a := api.AbilityAction(cell(0, 0), 1, cell(1, 0))
	if !e.ValidAction(a, 0) {
		t.Fatal("Fireball on archer should be valid")
	}
	if err := e.DoAction(a); err != nil {
		t.Fatal(err)
	}

	if _, ok := e.UnitAt(cell(1, 0)); ok {
		t.Error("archer should be removed")
	}
	if u, _ := e.UnitAt(cell(0, 0)); u.Mana != 0 {
		t.Errorf("mana = %d, want 0", u.Mana)
	}
}

func TestEngine_EndTurnRestoresSteps(t *testing.T) {
	e := loaded(t)

	if !e.ValidAction(api.EndTurnAction(), 0) {
		t.Fatal("end turn is always legal on own turn")
	}
	if err := e.DoAction(api.EndTurnAction()); err != nil {
		t.Fatal(err)
	}
	if e.state.Turn != 1 {
		t.Errorf("turn = %d, want 1", e.state.Turn)
	}
	if e.state.Units[1].Steps != 3 {
		t.Errorf("archer steps = %d, want 3", e.state.Units[1].Steps)
	}
	if e.ValidAction(api.EndTurnAction(), 0) {
		t.Error("player 0 no longer has the turn")
	}
}

func TestEngine_UpdatePatch(t *testing.T) {
	e := loaded(t)

	patch := `{"turn": 1, "units": [{"id": 2, "name": "Archer", "controller": 1, "pos": {"x": 2, "y": 2}, "health": 3, "hp": 3}], "removed": [1]}`
	if err := e.Update(frame(patch)); err != nil {
		t.Fatal(err)
	}

	if _, ok := e.UnitAt(cell(0, 0)); ok {
		t.Error("knight should be removed")
	}
	if _, ok := e.UnitAt(cell(2, 2)); !ok {
		t.Error("archer should be moved by patch")
	}
	if e.state.Turn != 1 {
		t.Errorf("turn = %d", e.state.Turn)
	}
}

func TestEngine_SnapshotRoundTrip(t *testing.T) {
	e := loaded(t)

	data, err := e.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if len(s.Units) != 2 || s.Map.Cols != 4 {
		t.Errorf("snapshot lost data: %+v", s)
	}
}
