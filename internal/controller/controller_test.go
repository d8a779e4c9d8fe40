package controller

import (
	"os"
	"sync"
	"testing"
	"time"

	"cloudy-sword/internal/hexbattle"
	"cloudy-sword/internal/ui"
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/hexgrid"
	"cloudy-sword/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// Поле 5x5 без дыр. Рыцарь игрока 0 в центре, лучник игрока 1 справа от него.
const battleFixture = `{
	"turn": 0,
	"players": ["7", "9"],
	"map": {"cols": 5, "rows": 5, "terrain": [[1,1,1,1,1],[1,1,1,1,1],[1,1,1,1,1],[1,1,1,1,1],[1,1,1,1,1]]},
	"units": [
		{"id": 1, "name": "Knight", "controller": 0, "pos": {"x": 2, "y": 2},
		 "health": 10, "hp": 10, "mana": 5, "mn": 5, "steps": 3, "speed": 3,
		 "abilities": [{"name": "Slash", "range": 1, "damage": 3}, {"name": "Warcry", "range": 0}]},
		{"id": 2, "name": "Archer", "controller": 1, "pos": {"x": 3, "y": 2},
		 "health": 3, "hp": 3, "steps": 3, "speed": 3,
		 "abilities": [{"name": "Shoot", "range": 3, "damage": 1}]}
	]
}`

type sentMsg struct {
	Channel string
	Payload any
}

// recordingOutbox запоминает все исходящие сообщения.
type recordingOutbox struct {
	mu   sync.Mutex
	sent []sentMsg
}

func (o *recordingOutbox) Send(channel string, payload any) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, sentMsg{channel, payload})
	return nil
}

func (o *recordingOutbox) all() []sentMsg {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]sentMsg(nil), o.sent...)
}

func (o *recordingOutbox) on(channel string) []any {
	var out []any
	for _, m := range o.all() {
		if m.Channel == channel {
			out = append(out, m.Payload)
		}
	}
	return out
}

func (o *recordingOutbox) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = nil
}

func frame(tag, body string) api.Frame {
	var raw []byte
	if body != "" {
		raw = []byte(body)
	}
	return api.NewFrame(tag, raw, api.JSONCodec{})
}

func cell(x, y int) hexgrid.Cell { return hexgrid.Cell{X: x, Y: y} }

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func newTestController(t *testing.T) (*Controller, *recordingOutbox, *fakeClock) {
	t.Helper()
	out := &recordingOutbox{}
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := New(hexbattle.New(), out, Options{Clock: clock.Now})
	return c, out, clock
}

// inBattle проводит контроллер через подключение и вход в игру 5
// от лица клиента "7", играющего за игрока 0.
func inBattle(t *testing.T) (*Controller, *recordingOutbox) {
	t.Helper()
	c, out, _ := newTestController(t)

	c.HandleFrame(api.LocalFrame(api.TagConnect))
	c.HandleFrame(frame("clientid", `7`))
	c.HandleFrame(frame("clientlist", `{"full": true, "clients": {"7": "alice", "9": "bob"}}`))
	c.HandleFrame(frame("gamelist", `{"5": {"currentPlayers": 1, "maxPlayers": 2, "mapSizeDescriptor": "5x5"}}`))
	c.JoinGame("5")
	c.HandleFrame(frame("gsfull", battleFixture))
	c.HandleFrame(frame("playingas", `{"id": 0}`))

	require.Equal(t, ui.ModeInBattle, c.Mode())
	out.reset()
	return c, out
}

// screenOf - центр клетки в координатах устройства при текущей камере.
func screenOf(c *Controller, target hexgrid.Cell) (float64, float64) {
	cam := c.Camera()
	return hexgrid.GridToScreen(target, cam.View())
}

func clickAt(c *Controller, x, y float64) {
	c.HandleInput(PointerDown{X: x, Y: y})
	c.HandleInput(PointerUp{X: x, Y: y})
}

func TestEndToEnd_ConnectJoinFullSync(t *testing.T) {
	c, out, _ := newTestController(t)

	c.HandleFrame(api.LocalFrame(api.TagConnecting))
	c.HandleFrame(api.LocalFrame(api.TagConnect))
	c.HandleFrame(frame("clientid", `7`))
	c.HandleFrame(frame("gamelist", `{"games": {"5": {"currentPlayers": 1, "maxPlayers": 2, "mapSizeDescriptor": "5x5"}}}`))

	assert.Equal(t, api.ClientID("7"), c.Session().ClientID)
	require.Equal(t, []string{"Game 5: 1/2 players; Map: 5x5"}, c.LobbyLines())

	// Клик по первой строке лобби
	clickAt(c, 100, 30)
	require.Equal(t, []any{api.JoinRequest{GameID: "5"}}, out.on(api.OutJoinGame))
	assert.Equal(t, ui.ModeLobby, c.Mode(), "mode waits for acknowledgement")

	c.HandleFrame(frame("gsfull", battleFixture))

	assert.Equal(t, ui.ModeInBattle, c.Mode())
	assert.Equal(t, ui.Cleared(), c.Selection())
	assert.Empty(t, c.PendingJoin())

	reference := hexbattle.New()
	require.NoError(t, reference.Load(frame("gsfull", battleFixture)))
	want, err := reference.Snapshot()
	require.NoError(t, err)
	got, err := c.Mirror().Snapshot()
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))

	assert.Equal(t, []string{"Connecting to server...", "Connected"}, c.Log().Lines())
}

func TestDragThreshold(t *testing.T) {
	t.Run("within threshold is a click", func(t *testing.T) {
		c, _ := inBattle(t)
		x, y := screenOf(c, cell(1, 1))

		c.HandleInput(PointerDown{X: x, Y: y})
		c.HandleInput(PointerMove{X: x + 30, Y: y})
		c.HandleInput(PointerUp{X: x + 30, Y: y})

		assert.Equal(t, cell(1, 1), c.Selection().Cell)
		assert.Equal(t, float64(200), c.Camera().OffsetX)
	})

	t.Run("beyond threshold pans", func(t *testing.T) {
		c, _ := inBattle(t)
		x, y := screenOf(c, cell(1, 1))

		c.HandleInput(PointerDown{X: x, Y: y})
		c.HandleInput(PointerMove{X: x + 31, Y: y})
		c.HandleInput(PointerUp{X: x + 31, Y: y})

		assert.False(t, c.Selection().HasCell(), "click suppressed")
		assert.Equal(t, float64(200-31), c.Camera().OffsetX)
	})
}

func TestWheelZoomStaysClamped(t *testing.T) {
	c, _ := inBattle(t)
	for i := 0; i < 50; i++ {
		c.HandleInput(Wheel{Delta: 120})
	}
	assert.InDelta(t, 2.0, c.Camera().Scale, 1e-9)
	for i := 0; i < 50; i++ {
		c.HandleInput(Wheel{Delta: -3})
	}
	assert.InDelta(t, 0.2, c.Camera().Scale, 1e-9)
}

func TestLobbyGating(t *testing.T) {
	c, out, _ := newTestController(t)
	c.HandleFrame(frame("gsfull", battleFixture))
	c.HandleFrame(frame("playingas", `{"id": 0}`))
	require.Equal(t, ui.ModeLobby, c.Mode())
	before := c.Mirror().Revision()

	c.ClickCell(cell(2, 2))
	for _, k := range "wedzxat123l" {
		c.HandleInput(KeyPress{Key: k})
	}
	c.HandleInput(Wheel{Delta: 1})
	c.HandleInput(CursorKey{Dir: hexgrid.Right})

	assert.Equal(t, before, c.Mirror().Revision(), "no mirror mutations")
	assert.Empty(t, out.all(), "no outbound traffic")
	assert.Equal(t, ui.Cleared(), c.Selection())
	assert.Equal(t, 1.0, c.Camera().Scale)
}

func TestRejectedActionsAreSilent(t *testing.T) {
	tests := []struct {
		name      string
		playingAs int
		selected  hexgrid.Cell
		key       rune
	}{
		{"spectator", -1, cell(2, 2), 'd'},
		{"into enemy", 0, cell(2, 2), 'd'},
		{"enemy unit", 0, cell(3, 2), 'a'},
		{"no selection", 0, hexgrid.None, 'x'},
		{"not our turn", 1, cell(3, 2), 'd'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out := inBattle(t)
			c.session.PlayingAs = tt.playingAs
			if !tt.selected.IsNone() {
				c.ClickCell(tt.selected)
			}
			before, err := c.Mirror().Snapshot()
			require.NoError(t, err)
			revision := c.Mirror().Revision()
			logBefore := c.Log().Len()

			for i := 0; i < 3; i++ {
				c.HandleInput(KeyPress{Key: tt.key})
			}

			after, err := c.Mirror().Snapshot()
			require.NoError(t, err)
			assert.JSONEq(t, string(before), string(after), "mirror unchanged")
			assert.Equal(t, revision, c.Mirror().Revision())
			assert.Empty(t, out.all())
			assert.Equal(t, logBefore, c.Log().Len(), "rejection is silent")
		})
	}
}

func TestMoveAppliesAndRepointsSelection(t *testing.T) {
	c, out := inBattle(t)
	c.ClickCell(cell(2, 2))
	before := c.Mirror().Revision()

	c.HandleInput(KeyPress{Key: 'x'})

	assert.Equal(t, cell(2, 3), c.Selection().Cell)
	assert.Equal(t, before+1, c.Mirror().Revision())
	require.Equal(t, []any{api.MoveAction(cell(2, 2), hexgrid.DownRight)}, out.on(api.OutAction))

	u, ok := c.Mirror().UnitAt(cell(2, 3))
	require.True(t, ok)
	assert.Equal(t, 2, u.Steps)
}

func TestAbilityTargeting(t *testing.T) {
	t.Run("valid target", func(t *testing.T) {
		c, out := inBattle(t)
		c.ClickCell(cell(2, 2))
		c.HandleInput(KeyPress{Key: '1'})
		require.Equal(t, 0, c.Selection().PendingAbility)
		assert.Contains(t, c.StatusLines(), "Casting: Slash")

		x, y := screenOf(c, cell(3, 2))
		clickAt(c, x, y)

		assert.Equal(t, []any{api.AbilityAction(cell(2, 2), 0, cell(3, 2))}, out.on(api.OutAction))
		assert.False(t, c.Selection().HasPendingAbility())
		_, alive := c.Mirror().UnitAt(cell(3, 2))
		assert.False(t, alive, "archer should fall to optimistic apply")
	})

	t.Run("invalid target consumes the attempt", func(t *testing.T) {
		c, out := inBattle(t)
		c.ClickCell(cell(2, 2))
		c.HandleInput(KeyPress{Key: '1'})

		c.ClickCell(cell(0, 0))

		assert.Empty(t, out.all())
		assert.False(t, c.Selection().HasPendingAbility())
		assert.Equal(t, "Invalid target.", lastLine(c))
		assert.Equal(t, cell(2, 2), c.Selection().Cell)
	})

	t.Run("slot must exist on own unit", func(t *testing.T) {
		c, _ := inBattle(t)
		c.ClickCell(cell(2, 2))
		c.HandleInput(KeyPress{Key: '3'})
		assert.False(t, c.Selection().HasPendingAbility(), "knight has two abilities")

		c.ClickCell(cell(3, 2))
		c.HandleInput(KeyPress{Key: '1'})
		assert.False(t, c.Selection().HasPendingAbility(), "archer is not ours")
	})
}

func TestPendingAbilityFollowsItsCaster(t *testing.T) {
	t.Run("cursor away drops the ability", func(t *testing.T) {
		c, out := inBattle(t)
		c.ClickCell(cell(2, 2))
		c.HandleInput(KeyPress{Key: '1'})

		c.HandleInput(CursorKey{Dir: hexgrid.Right})

		assert.Equal(t, cell(3, 2), c.Selection().Cell)
		assert.False(t, c.Selection().HasPendingAbility())
		assert.NotContains(t, c.StatusLines(), "Casting: Shoot")
		for _, bc := range c.Snapshot(0).Board.Cells {
			assert.False(t, bc.Target, "no overlay for %v", bc.Cell)
		}

		c.ClickCell(cell(2, 2))
		assert.Empty(t, out.all())
	})

	t.Run("move keeps the ability", func(t *testing.T) {
		c, out := inBattle(t)
		c.ClickCell(cell(2, 2))
		c.HandleInput(KeyPress{Key: '1'})

		c.HandleInput(KeyPress{Key: 'x'})

		require.Len(t, out.on(api.OutAction), 1)
		assert.Equal(t, ui.Selection{Cell: cell(2, 3), PendingAbility: 0}, c.Selection())
	})

	t.Run("caster removed by the server", func(t *testing.T) {
		c, _ := inBattle(t)
		c.ClickCell(cell(2, 2))
		c.HandleInput(KeyPress{Key: '1'})

		c.HandleFrame(frame("gsupdate", `{"seq": 1, "removed": [1]}`))

		assert.Equal(t, cell(2, 2), c.Selection().Cell)
		assert.False(t, c.Selection().HasPendingAbility())
	})

	t.Run("role change", func(t *testing.T) {
		c, _ := inBattle(t)
		c.ClickCell(cell(2, 2))
		c.HandleInput(KeyPress{Key: '1'})

		c.HandleFrame(frame("playingas", `{"id": 1}`))

		assert.False(t, c.Selection().HasPendingAbility())
	})

	t.Run("target click without own caster", func(t *testing.T) {
		c, out := inBattle(t)
		c.ClickCell(cell(3, 2))
		c.ui.BeginAbility(0)

		c.ClickCell(cell(2, 2))

		assert.Empty(t, out.all())
		assert.Equal(t, "Invalid target.", lastLine(c))
		assert.False(t, c.Selection().HasPendingAbility())
	})
}

func TestClickOffGridClearsSelection(t *testing.T) {
	c, _ := inBattle(t)
	c.ClickCell(cell(2, 2))
	c.ClickCell(cell(9, 9))
	assert.False(t, c.Selection().HasCell())
}

func TestEndTurnAndLeave(t *testing.T) {
	c, out := inBattle(t)

	c.HandleInput(KeyPress{Key: 't'})
	assert.Equal(t, []any{api.EndTurnAction()}, out.on(api.OutAction))
	assert.Equal(t, 1, c.Mirror().Turn())

	c.HandleInput(KeyPress{Key: 'l'})
	assert.Equal(t, ui.ModeLobby, c.Mode())
	assert.Len(t, out.on(api.OutLeaveGame), 1)

	// Повторный выход из лобби - недопустимый переход, в сеть ничего не уходит.
	c.HandleInput(KeyPress{Key: 'l'})
	assert.Len(t, out.on(api.OutLeaveGame), 1)
}

func TestChatFocusSwallowsKeys(t *testing.T) {
	c, out := inBattle(t)
	c.ClickCell(cell(2, 2))

	c.HandleInput(FocusChat{})
	c.HandleInput(KeyPress{Key: 'x'})
	assert.Empty(t, out.all())

	c.HandleInput(ChatLine{Text: "gg"})
	assert.False(t, c.ChatFocused())
	assert.Equal(t, []any{api.ChatRequest{Message: "gg"}}, out.on(api.OutChat))
	assert.Equal(t, "alice: gg", lastLine(c))
}

func TestMoveCursor(t *testing.T) {
	c, out := inBattle(t)

	c.HandleInput(CursorKey{Dir: hexgrid.Right})
	assert.Equal(t, cell(2, 2), c.Selection().Cell, "first press lands in the map centre")

	for i := 0; i < 5; i++ {
		c.HandleInput(CursorKey{Dir: hexgrid.Right})
	}
	assert.Equal(t, cell(4, 2), c.Selection().Cell, "cursor stops at the edge")
	assert.Empty(t, out.all())
}

func TestRosterAndUnitPanels(t *testing.T) {
	c, _ := inBattle(t)
	c.ClickCell(cell(3, 2))

	assert.Equal(t, []string{"alice (You)", "bob (Player 2)", "You are Player 1"}, c.RosterLines())
	assert.Equal(t, []string{
		"Archer",
		"Controller: 2",
		"Health: 3/3",
		"Mana: 0/0",
		"Steps: 3/3",
		"1 - Shoot",
	}, c.UnitLines())
	assert.Equal(t, []string{"Turn: 1"}, c.StatusLines())

	c.HandleFrame(frame("playingas", `{"id": -1}`))
	assert.Equal(t, "You are spectating", c.RosterLines()[2])
}

func TestBoardOverlay(t *testing.T) {
	c, _, _ := newTestController(t)
	assert.Nil(t, c.Snapshot(0).Board, "no board in lobby")

	c, _ = inBattle(t)
	board := c.Snapshot(0).Board
	require.NotNil(t, board)
	assert.Equal(t, 5, board.Cols)
	require.Len(t, board.Cells, 25)

	byCell := map[hexgrid.Cell]BoardCell{}
	for _, bc := range board.Cells {
		byCell[bc.Cell] = bc
	}
	assert.Equal(t, BoardCell{Cell: cell(2, 2), Unit: "Knight", Own: true}, byCell[cell(2, 2)])
	assert.Equal(t, BoardCell{Cell: cell(3, 2), Unit: "Archer"}, byCell[cell(3, 2)])

	c.ClickCell(cell(2, 2))
	c.HandleInput(KeyPress{Key: '1'})
	targets := 0
	for _, bc := range c.Snapshot(0).Board.Cells {
		if bc.Target {
			targets++
		}
	}
	assert.Equal(t, 7, targets, "slash reaches the knight's cell and its six neighbours")
}

func TestLobbyRowAt(t *testing.T) {
	tests := []struct {
		x, y float64
		rows int
		want int
	}{
		{0, 10, 3, 0},
		{399, 49.9, 3, 0},
		{100, 55, 3, -1}, // промежуток между строками
		{100, 60, 3, 1},
		{100, 110, 3, 2},
		{100, 160, 3, -1}, // строк всего три
		{400, 30, 3, -1},
		{-1, 30, 3, -1},
		{100, 5, 3, -1},
	}
	for _, tt := range tests {
		if got := LobbyRowAt(tt.x, tt.y, tt.rows); got != tt.want {
			t.Errorf("LobbyRowAt(%v, %v) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func lastLine(c *Controller) string {
	lines := c.Log().Lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
