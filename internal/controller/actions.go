package controller

import (
	"cloudy-sword/internal/chat"
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/hexgrid"
	"cloudy-sword/pkg/logger"

	"github.com/sirupsen/logrus"
)

// ClickCell - клик по клетке поля.
// Без ожидающей способности выбирает клетку (или снимает выбор вне поля),
// с ожидающей - пытается применить способность по клетке.
func (c *Controller) ClickCell(cell hexgrid.Cell) {
	if !c.ui.InBattle() {
		return
	}
	defer c.mirror.ClearCache()

	sel := c.ui.Selection()
	if !sel.HasPendingAbility() {
		if c.mirror.OnGrid(cell) {
			c.ui.Select(cell)
		} else {
			c.ui.ClearSelection()
		}
		return
	}

	// Попытка расходуется при любом исходе.
	ability := c.ui.ConsumeAbility()
	if !c.ownUnitAt(sel.Cell) || !c.mirror.ValidTarget(sel.Cell, cell, ability) {
		c.log.Append(chat.KindError, "Invalid target.")
		return
	}
	c.submit(api.AbilityAction(sel.Cell, ability, cell))
}

// MoveKey - шаг выбранного юнита в направлении dir.
func (c *Controller) MoveKey(dir hexgrid.Cell) {
	if !c.ui.InBattle() {
		return
	}
	c.submit(api.MoveAction(c.ui.Selection().Cell, dir))
}

// AbilityKey - клавиша способности n (1..9).
// Принимается, только если в выбранной клетке свой юнит, у которого есть такой слот.
func (c *Controller) AbilityKey(n int) {
	if !c.ui.InBattle() || n < 1 || n > 9 {
		return
	}
	index := n - 1

	unit, ok := c.mirror.UnitAt(c.ui.Selection().Cell)
	if !ok || unit.Controller != c.session.PlayingAs || !unit.HasAbility(index) {
		return
	}
	c.ui.BeginAbility(index)
	c.mirror.ClearCache()
}

// ownUnitAt - стоит ли в клетке юнит локального игрока.
func (c *Controller) ownUnitAt(cell hexgrid.Cell) bool {
	if c.session.PlayingAs == Spectating {
		return false
	}
	unit, ok := c.mirror.UnitAt(cell)
	return ok && unit.Controller == c.session.PlayingAs
}

// dropStaleAbility снимает ожидающую способность, если заклинателя
// в выбранной клетке больше нет (сервер его убрал или передал другому).
func (c *Controller) dropStaleAbility() {
	sel := c.ui.Selection()
	if sel.HasPendingAbility() && !c.ownUnitAt(sel.Cell) {
		c.ui.DropAbility()
		c.mirror.ClearCache()
	}
}

// EndTurn - завершение хода.
func (c *Controller) EndTurn() {
	if !c.ui.InBattle() {
		return
	}
	c.submit(api.EndTurnAction())
}

// LeaveGame - выход в лобби с уведомлением сервера.
func (c *Controller) LeaveGame() {
	if err := c.ui.ReturnToLobby(); err != nil {
		return
	}
	c.send(api.OutLeaveGame, nil)
}

// MoveCursor сдвигает выделение без действия. Без выделения курсор
// встает в центр карты; за край и в дыры не уходит.
// Ожидающая способность при этом сбрасывается (через Select).
func (c *Controller) MoveCursor(dir hexgrid.Cell) {
	if !c.ui.InBattle() {
		return
	}
	sel := c.ui.Selection()
	if !sel.HasCell() {
		cols, rows := c.mirror.Extent()
		center := hexgrid.Cell{X: cols / 2, Y: rows / 2}
		if c.mirror.OnGrid(center) {
			c.ui.Select(center)
		}
		return
	}
	if next := sel.Cell.Shift(dir); c.mirror.OnGrid(next) {
		c.ui.Select(next)
	}
}

// submit - общий хвост конвейера: проверка, оптимистичное применение, отправка.
// Отклоненное действие не меняет зеркало и не уходит в сеть.
func (c *Controller) submit(a api.Action) bool {
	log := logger.Component("pipeline").WithFields(logrus.Fields{
		"action":     a.String(),
		"playing_as": c.session.PlayingAs,
	})

	if !c.mirror.Validate(a, c.session.PlayingAs) {
		log.Debug("Action rejected locally.")
		return false
	}
	if err := c.mirror.Apply(a); err != nil {
		log.WithError(err).Warn("Validated action failed to apply.")
		return false
	}

	if dest, ok := a.Destination(); ok {
		c.ui.Follow(dest)
	}

	c.send(api.OutAction, a)
	log.Debug("Action sent.")
	return true
}
