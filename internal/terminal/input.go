package terminal

import (
	"math"

	"cloudy-sword/internal/controller"
	"cloudy-sword/pkg/hexgrid"

	"github.com/gdamore/tcell/v2"
)

// Максимальная длина строки чата
const maxDraft = 200

// Стрелки двигают курсор по гексам.
var arrowDirections = map[tcell.Key]hexgrid.Cell{
	tcell.KeyUp:    hexgrid.UpLeft,
	tcell.KeyDown:  hexgrid.DownRight,
	tcell.KeyLeft:  hexgrid.Left,
	tcell.KeyRight: hexgrid.Right,
}

// Translator переводит события терминала в события контроллера.
// Одна ячейка терминала - cellW x cellH единиц устройства; указатель
// ставится в центр ячейки.
type Translator struct {
	cellW, cellH int
	down         bool

	editing bool
	draft   []rune
}

func NewTranslator(cellW, cellH int) *Translator {
	return &Translator{cellW: cellW, cellH: cellH}
}

// Editing - открыта ли строка чата.
func (t *Translator) Editing() bool { return t.editing }

// Draft - набираемая строка.
func (t *Translator) Draft() string { return string(t.draft) }

// Device - центр ячейки терминала в единицах устройства.
func (t *Translator) Device(col, row int) (float64, float64) {
	return float64(col*t.cellW + t.cellW/2), float64(row*t.cellH + t.cellH/2)
}

// Cell - ячейка терминала, в которую попадает точка устройства.
func (t *Translator) Cell(px, py float64) (int, int) {
	return floorDiv(px, t.cellW), floorDiv(py, t.cellH)
}

// Translate возвращает события для контроллера. quit - пользователь просит выход.
func (t *Translator) Translate(ev tcell.Event) (out []controller.Input, quit bool) {
	switch ev := ev.(type) {
	case *tcell.EventMouse:
		return t.mouse(ev), false
	case *tcell.EventKey:
		return t.key(ev)
	}
	return nil, false
}

func (t *Translator) mouse(ev *tcell.EventMouse) []controller.Input {
	col, row := ev.Position()
	px, py := t.Device(col, row)
	btn := ev.Buttons()

	switch {
	case btn&tcell.WheelUp != 0:
		return []controller.Input{controller.Wheel{Delta: 1}}
	case btn&tcell.WheelDown != 0:
		return []controller.Input{controller.Wheel{Delta: -1}}
	}

	pressed := btn&tcell.Button1 != 0
	switch {
	case pressed && !t.down:
		t.down = true
		return []controller.Input{controller.PointerDown{X: px, Y: py}}
	case pressed:
		return []controller.Input{controller.PointerMove{X: px, Y: py}}
	case t.down:
		t.down = false
		return []controller.Input{controller.PointerUp{X: px, Y: py}}
	}
	return nil
}

func (t *Translator) key(ev *tcell.EventKey) ([]controller.Input, bool) {
	if ev.Key() == tcell.KeyCtrlC {
		return nil, true
	}

	if t.editing {
		switch ev.Key() {
		case tcell.KeyEnter:
			line := string(t.draft)
			t.editing, t.draft = false, nil
			return []controller.Input{controller.ChatLine{Text: line}}, false
		case tcell.KeyEscape:
			t.editing, t.draft = false, nil
			return []controller.Input{controller.BlurChat{}}, false
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(t.draft) > 0 {
				t.draft = t.draft[:len(t.draft)-1]
			}
		case tcell.KeyRune:
			if len(t.draft) < maxDraft {
				t.draft = append(t.draft, ev.Rune())
			}
		}
		return nil, false
	}

	switch ev.Key() {
	case tcell.KeyEnter:
		t.editing = true
		return []controller.Input{controller.FocusChat{}}, false
	case tcell.KeyRune:
		return []controller.Input{controller.KeyPress{Key: ev.Rune()}}, false
	}
	if dir, ok := arrowDirections[ev.Key()]; ok {
		return []controller.Input{controller.CursorKey{Dir: dir}}, false
	}
	return nil, false
}

func floorDiv(v float64, size int) int {
	return int(math.Floor(v / float64(size)))
}
