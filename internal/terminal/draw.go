package terminal

import (
	"unicode"

	"cloudy-sword/internal/controller"
	"cloudy-sword/internal/ui"
	"cloudy-sword/pkg/hexgrid"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// Раскладка экрана
const (
	panelWidth = 32 // правая колонка: юнит, статус, комната
	logHeight  = 8  // строк журнала над строкой ввода
)

var (
	styleText    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleDim     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	stylePrompt  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleLobby   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
	styleOwn     = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleEnemy   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleSection = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
)

var logStyles = map[string]tcell.Style{
	"info":    tcell.StyleDefault.Foreground(tcell.ColorAqua),
	"chat":    styleText,
	"whisper": tcell.StyleDefault.Foreground(tcell.ColorFuchsia),
	"error":   tcell.StyleDefault.Foreground(tcell.ColorRed),
	"system":  styleDim,
}

var lobbyMode = ui.ModeLobby.String()

const (
	hintLobby  = "[click] join game  [Enter] chat  [Ctrl-C] quit"
	hintBattle = "[w e a d z x] move  [1-9] ability  [t] end turn  [l] lobby  [Enter] chat"
)

// Draw перерисовывает экран по снимку контроллера.
func Draw(scr tcell.Screen, v controller.View, tr *Translator) {
	scr.Clear()
	w, h := scr.Size()

	mainW := max(w-panelWidth, 0)
	mainH := max(h-logHeight-1, 0)

	if v.Mode == lobbyMode {
		drawLobby(scr, v, tr, mainW, mainH)
	} else {
		drawBoard(scr, v, tr, mainW, mainH)
	}
	drawPanel(scr, v, mainW, w, mainH)
	drawLog(scr, v, w, mainH, h-1)
	drawPrompt(scr, v, tr, w, h-1)

	scr.Show()
}

// Строки лобби стоят там же, где их ищет попадание мыши.
func drawLobby(scr tcell.Screen, v controller.View, tr *Translator, maxW, maxH int) {
	rowW := min(controller.LobbyRowWidth/tr.cellW, maxW)
	for k, line := range v.Lobby {
		top := float64(controller.LobbyRowTop + k*controller.LobbyRowPitch)
		_, row := tr.Cell(0, top+controller.LobbyRowHeight/2)
		if row >= maxH {
			break
		}
		fill(scr, 0, row, rowW, styleLobby)
		putText(scr, 0, row, rowW, line, styleLobby)
	}
	if len(v.Lobby) == 0 && maxH > 0 {
		putText(scr, 0, 0, maxW, "No games yet.", styleDim)
	}
}

// drawBoard ставит по глифу в центр каждой клетки.
func drawBoard(scr tcell.Screen, v controller.View, tr *Translator, maxW, maxH int) {
	if v.Board == nil {
		putText(scr, 0, 0, maxW, "Waiting for the game state...", styleDim)
		return
	}
	cam := hexgrid.View{OffsetX: v.Camera.OffsetX, OffsetY: v.Camera.OffsetY, Scale: v.Camera.Scale}

	for _, bc := range v.Board.Cells {
		col, row := tr.Cell(hexgrid.GridToScreen(bc.Cell, cam))
		if col < 0 || row < 0 || col >= maxW || row >= maxH {
			continue
		}

		glyph, style := '·', styleDim
		if bc.Unit != "" {
			glyph = []rune(bc.Unit)[0]
			style = styleEnemy
			if bc.Own {
				glyph, style = unicode.ToUpper(glyph), styleOwn
			} else {
				glyph = unicode.ToLower(glyph)
			}
		}
		if bc.Target {
			style = style.Background(tcell.ColorNavy)
		}
		if bc.Cell == v.Selected {
			style = style.Reverse(true)
		}
		scr.SetContent(col, row, glyph, nil, style)
	}
}

func drawPanel(scr tcell.Screen, v controller.View, x, w, maxH int) {
	width := w - x
	y := 0
	section := func(title string, lines []string) {
		if len(lines) == 0 || y >= maxH {
			return
		}
		putText(scr, x, y, width, title, styleSection)
		y++
		for _, line := range lines {
			if y >= maxH {
				return
			}
			putText(scr, x, y, width, line, styleText)
			y++
		}
		y++
	}

	section("Unit", v.Unit)
	section("Status", v.Status)
	section("Room", v.Roster)
}

func drawLog(scr tcell.Screen, v controller.View, w, top, bottom int) {
	entries := v.Log
	if n := bottom - top; len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	for i, e := range entries {
		style, ok := logStyles[e.KindName]
		if !ok {
			style = styleText
		}
		putText(scr, 0, top+i, w, e.Text, style)
	}
}

func drawPrompt(scr tcell.Screen, v controller.View, tr *Translator, w, y int) {
	switch {
	case tr.Editing():
		putText(scr, 0, y, w, "> "+tr.Draft()+"_", stylePrompt)
	case v.Mode == lobbyMode:
		putText(scr, 0, y, w, hintLobby, styleDim)
	default:
		putText(scr, 0, y, w, hintBattle, styleDim)
	}
}

// putText пишет строку, учитывая ширину символов, и обрезает ее по width колонок.
func putText(scr tcell.Screen, x, y, width int, s string, st tcell.Style) {
	if width <= 0 {
		return
	}
	s = runewidth.Truncate(s, width, "…")
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if rw == 0 {
			continue
		}
		scr.SetContent(x, y, r, nil, st)
		x += rw
	}
}

func fill(scr tcell.Screen, x, y, width int, st tcell.Style) {
	for i := 0; i < width; i++ {
		scr.SetContent(x+i, y, ' ', nil, st)
	}
}
