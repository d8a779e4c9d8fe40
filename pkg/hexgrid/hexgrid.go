package hexgrid

import (
	"fmt"
	"math"
)

// HexHeight - высота гекса в пикселях мира (от вершины до вершины).
const HexHeight = 200.0

// Производные размеры "pointy-top" гекса.
var (
	hexRadius = HexHeight / 2
	hexWidth  = math.Sqrt(3) * hexRadius
)

// Cell - координата клетки в осевой (axial) системе.
// X - колонка (q), Y - ряд (r).
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// None - сентинел "клетка не выбрана / вне диапазона".
var None = Cell{X: -1, Y: -1}

// IsNone сообщает, является ли клетка сентинелом.
func (c Cell) IsNone() bool {
	return c == None
}

// InBounds проверяет, что клетка лежит внутри прямоугольника cols x rows.
func (c Cell) InBounds(cols, rows int) bool {
	return c.X >= 0 && c.X < cols && c.Y >= 0 && c.Y < rows
}

// Shift возвращает соседнюю клетку со смещением (не меняя текущую).
func (c Cell) Shift(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

func (c Cell) String() string {
	if c.IsNone() {
		return "(none)"
	}
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Шесть направлений соседства в осевых координатах.
var (
	UpLeft    = Cell{X: 0, Y: -1}
	UpRight   = Cell{X: 1, Y: -1}
	Left      = Cell{X: -1, Y: 0}
	Right     = Cell{X: 1, Y: 0}
	DownLeft  = Cell{X: -1, Y: 1}
	DownRight = Cell{X: 0, Y: 1}
)

// Directions - все шесть направлений, по часовой стрелке от UpRight.
var Directions = []Cell{UpRight, Right, DownRight, DownLeft, Left, UpLeft}

// IsDirection сообщает, является ли d одним из шести единичных смещений.
func IsDirection(d Cell) bool {
	for _, dir := range Directions {
		if d == dir {
			return true
		}
	}
	return false
}

// Distance - гексагональное расстояние между двумя клетками.
func Distance(a, b Cell) int {
	dq := a.X - b.X
	dr := a.Y - b.Y
	return (abs(dq) + abs(dr) + abs(dq+dr)) / 2
}

// View - параметры камеры, нужные для пересчёта координат.
type View struct {
	OffsetX float64
	OffsetY float64
	Scale   float64
}

// ScreenToGrid переводит координаты устройства в клетку.
// Для некорректных входных данных возвращает None, без паники.
// Проверка границ карты - на вызывающей стороне (Cell.InBounds).
func ScreenToGrid(px, py float64, v View) Cell {
	if !finite(px) || !finite(py) || !finite(v.OffsetX) || !finite(v.OffsetY) || !finite(v.Scale) || v.Scale <= 0 {
		return None
	}

	wx := (px + v.OffsetX) / v.Scale
	wy := (py + v.OffsetY) / v.Scale

	// Обратное преобразование pointy-top: пиксель -> дробные осевые координаты
	q := (math.Sqrt(3)/3*wx - wy/3) / hexRadius
	r := (2.0 / 3.0 * wy) / hexRadius

	return cubeRound(q, r)
}

// GridToScreen возвращает координаты устройства центра клетки.
func GridToScreen(c Cell, v View) (float64, float64) {
	wx, wy := Center(c)
	return wx*v.Scale - v.OffsetX, wy*v.Scale - v.OffsetY
}

// Center - центр клетки в пикселях мира.
func Center(c Cell) (float64, float64) {
	x := hexWidth * (float64(c.X) + float64(c.Y)/2)
	y := hexRadius * 1.5 * float64(c.Y)
	return x, y
}

// cubeRound округляет дробные осевые координаты до ближайшей клетки.
func cubeRound(q, r float64) Cell {
	s := -q - r

	rq := math.Round(q)
	rr := math.Round(r)
	rs := math.Round(s)

	dq := math.Abs(rq - q)
	dr := math.Abs(rr - r)
	ds := math.Abs(rs - s)

	// Исправляем координату с наибольшей ошибкой округления
	if dq > dr && dq > ds {
		rq = -rr - rs
	} else if dr > ds {
		rr = -rq - rs
	}

	if rq > math.MaxInt32 || rq < math.MinInt32 || rr > math.MaxInt32 || rr < math.MinInt32 {
		return None
	}
	return Cell{X: int(rq), Y: int(rr)}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
