package controller

import (
	"fmt"

	"cloudy-sword/internal/chat"
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/hexgrid"
)

// View - снимок всего, что нужно отрисовать или отдать в отладку.
// Строится в горутине контроллера и дальше живет сам по себе.
type View struct {
	Mode           string       `json:"mode"`
	ClientID       api.ClientID `json:"clientId"`
	DisplayName    string       `json:"displayName"`
	PlayingAs      int          `json:"playingAs"`
	Selected       hexgrid.Cell `json:"selected"`
	PendingAbility int          `json:"pendingAbility"`
	PendingJoin    string       `json:"pendingJoin,omitempty"`
	ReplyTarget    string       `json:"replyTarget,omitempty"`
	ChatFocused    bool         `json:"chatFocused"`
	Camera         CameraView   `json:"camera"`

	MirrorLoaded   bool   `json:"mirrorLoaded"`
	MirrorRevision uint64 `json:"mirrorRevision"`
	MirrorLastSeq  int64  `json:"mirrorLastSeq"`

	Lobby  []string     `json:"lobby"`
	Roster []string     `json:"roster"`
	Unit   []string     `json:"unit,omitempty"`
	Status []string     `json:"status,omitempty"`
	Board  *Board       `json:"board,omitempty"`
	Log    []chat.Entry `json:"log"`
}

// Board - клетки поля для текстового отображения. Есть только в бою.
type Board struct {
	Cols  int         `json:"cols"`
	Rows  int         `json:"rows"`
	Cells []BoardCell `json:"cells"`
}

// BoardCell - одна клетка на сетке.
type BoardCell struct {
	Cell   hexgrid.Cell `json:"cell"`
	Unit   string       `json:"unit,omitempty"`
	Own    bool         `json:"own,omitempty"`
	Target bool         `json:"target,omitempty"` // подсветка цели для ожидающей способности
}

// CameraView - параметры камеры без состояния жеста.
type CameraView struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Scale   float64 `json:"scale"`
}

// Snapshot собирает View. logTail ограничивает число строк журнала (<= 0 - весь).
func (c *Controller) Snapshot(logTail int) View {
	sel := c.ui.Selection()
	entries := c.log.Entries()
	if logTail > 0 {
		entries = c.log.Tail(logTail)
	}

	return View{
		Mode:           c.ui.Mode().String(),
		ClientID:       c.session.ClientID,
		DisplayName:    c.DisplayName(),
		PlayingAs:      c.session.PlayingAs,
		Selected:       sel.Cell,
		PendingAbility: sel.PendingAbility,
		PendingJoin:    c.pendingJoin,
		ReplyTarget:    c.chat.ReplyTarget(),
		ChatFocused:    c.chatFocused,
		Camera: CameraView{
			OffsetX: c.camera.OffsetX,
			OffsetY: c.camera.OffsetY,
			Scale:   c.camera.Scale,
		},
		MirrorLoaded:   c.mirror.Loaded(),
		MirrorRevision: c.mirror.Revision(),
		MirrorLastSeq:  c.mirror.LastSeq(),
		Lobby:          c.LobbyLines(),
		Roster:         c.RosterLines(),
		Unit:           c.UnitLines(),
		Status:         c.StatusLines(),
		Board:          c.board(),
		Log:            entries,
	}
}

// RosterLines - список клиентов комнаты с пометками "(You)" и "(Player N)".
// В бою добавляется строка о собственной роли.
func (c *Controller) RosterLines() []string {
	entries := c.roster.Entries()
	out := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		line := e.Name
		switch {
		case e.ID == c.session.ClientID:
			line += " (You)"
		case c.ui.InBattle():
			if idx := c.mirror.PlayerIndex(e.ID); idx >= 0 {
				line += fmt.Sprintf(" (Player %d)", idx+1)
			}
		}
		out = append(out, line)
	}

	if c.ui.InBattle() {
		if c.session.PlayingAs != Spectating {
			out = append(out, fmt.Sprintf("You are Player %d", c.session.PlayingAs+1))
		} else {
			out = append(out, "You are spectating")
		}
	}
	return out
}

// UnitLines - панель выбранного юнита; пусто, если юнита нет.
func (c *Controller) UnitLines() []string {
	if !c.ui.InBattle() {
		return nil
	}
	u, ok := c.mirror.UnitAt(c.ui.Selection().Cell)
	if !ok {
		return nil
	}
	out := []string{
		u.Name,
		fmt.Sprintf("Controller: %d", u.Controller+1),
		fmt.Sprintf("Health: %d/%d", u.Health, u.MaxHealth),
		fmt.Sprintf("Mana: %d/%d", u.Mana, u.MaxMana),
		fmt.Sprintf("Steps: %d/%d", u.Steps, u.Speed),
	}
	for i, name := range u.Abilities {
		out = append(out, fmt.Sprintf("%d - %s", i+1, name))
	}
	return out
}

// StatusLines - номер хода и способность, ожидающая цели.
func (c *Controller) StatusLines() []string {
	if !c.ui.InBattle() || !c.mirror.Loaded() {
		return nil
	}
	out := []string{fmt.Sprintf("Turn: %d", c.mirror.Turn()+1)}

	sel := c.ui.Selection()
	if sel.HasPendingAbility() {
		if u, ok := c.mirror.UnitAt(sel.Cell); ok && u.HasAbility(sel.PendingAbility) {
			out = append(out, "Casting: "+u.Abilities[sel.PendingAbility])
		}
	}
	return out
}

func (c *Controller) board() *Board {
	if !c.ui.InBattle() || !c.mirror.Loaded() {
		return nil
	}
	cols, rows := c.mirror.Extent()
	sel := c.ui.Selection()
	b := &Board{Cols: cols, Rows: rows}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			cell := hexgrid.Cell{X: x, Y: y}
			if !c.mirror.OnGrid(cell) {
				continue
			}
			bc := BoardCell{Cell: cell}
			if u, ok := c.mirror.UnitAt(cell); ok {
				bc.Unit = u.Name
				bc.Own = c.session.PlayingAs != Spectating && u.Controller == c.session.PlayingAs
			}
			if sel.HasPendingAbility() {
				bc.Target = c.mirror.ValidTarget(sel.Cell, cell, sel.PendingAbility)
			}
			b.Cells = append(b.Cells, bc)
		}
	}
	return b
}
