package controller

import (
	"cloudy-sword/pkg/hexgrid"
)

// Input - закрытое объединение событий ввода. Координаты - в единицах устройства.
type Input interface{ isInput() }

type PointerDown struct{ X, Y float64 }
type PointerMove struct{ X, Y float64 }
type PointerUp struct{ X, Y float64 }

// Wheel - прокрутка; значим только знак.
type Wheel struct{ Delta float64 }

// KeyPress - символьная клавиша.
type KeyPress struct{ Key rune }

// CursorKey - стрелки: сдвиг выделения без действия.
type CursorKey struct{ Dir hexgrid.Cell }

// FocusChat - Enter: ввод переходит в строку чата.
type FocusChat struct{}

// ChatLine - введенная строка чата; возвращает фокус полю.
type ChatLine struct{ Text string }

// BlurChat - ввод строки отменен.
type BlurChat struct{}

func (PointerDown) isInput() {}
func (PointerMove) isInput() {}
func (PointerUp) isInput()   {}
func (Wheel) isInput()       {}
func (KeyPress) isInput()    {}
func (CursorKey) isInput()   {}
func (FocusChat) isInput()   {}
func (ChatLine) isInput()    {}
func (BlurChat) isInput()    {}

// keyDirections - раскладка шести направлений.
var keyDirections = map[rune]hexgrid.Cell{
	'w': hexgrid.UpLeft,
	'e': hexgrid.UpRight,
	'a': hexgrid.Left,
	'd': hexgrid.Right,
	'z': hexgrid.DownLeft,
	'x': hexgrid.DownRight,
}

const (
	keyEndTurn = 't'
	keyLeave   = 'l'
)

// HandleInput применяет событие ввода.
func (c *Controller) HandleInput(in Input) {
	switch ev := in.(type) {
	case PointerDown:
		c.camera.BeginDrag(ev.X, ev.Y)

	case PointerMove:
		// Панорама только на поле боя.
		if c.ui.InBattle() {
			c.camera.UpdateDrag(ev.X, ev.Y)
		}

	case PointerUp:
		if c.camera.EndDrag() {
			c.click(ev.X, ev.Y)
		}

	case Wheel:
		if c.ui.InBattle() {
			c.camera.Zoom(ev.Delta)
		}

	case KeyPress:
		if c.chatFocused {
			return
		}
		c.keyPress(ev.Key)

	case CursorKey:
		if !c.chatFocused {
			c.MoveCursor(ev.Dir)
		}

	case FocusChat:
		c.chatFocused = true

	case ChatLine:
		c.chatFocused = false
		c.chat.Submit(ev.Text, c.DisplayName())

	case BlurChat:
		c.chatFocused = false
	}
}

func (c *Controller) click(px, py float64) {
	if !c.ui.InBattle() {
		c.ClickLobby(px, py)
		return
	}
	c.ClickCell(hexgrid.ScreenToGrid(px, py, c.camera.View()))
}

func (c *Controller) keyPress(key rune) {
	if dir, ok := keyDirections[key]; ok {
		c.MoveKey(dir)
		return
	}
	switch {
	case key == keyEndTurn:
		c.EndTurn()
	case key == keyLeave:
		c.LeaveGame()
	case key >= '1' && key <= '9':
		c.AbilityKey(int(key - '0'))
	}
}
