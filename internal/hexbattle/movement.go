package hexbattle

import (
	"cloudy-sword/pkg/hexgrid"
)

// MovementResult - результат вычисления шага
type MovementResult struct {
	Dest      hexgrid.Cell
	HasMoved  bool
	BlockedBy *Unit // Если в клетке уже стоит юнит
	Blocked   bool  // Вне карты или непроходимый рельеф
}

// CalculateMove вычисляет шаг юнита в направлении dir. Не меняет состояние!
func CalculateMove(u *Unit, dir hexgrid.Cell, s *State) MovementResult {
	dest := u.Pos.Shift(dir)
	res := MovementResult{Dest: dest}

	// 1. Только шесть соседей
	if !hexgrid.IsDirection(dir) {
		res.Blocked = true
		return res
	}

	// 2. Границы и рельеф
	if !s.Map.At(dest).Passable() {
		res.Blocked = true
		return res
	}

	// 3. Коллизия с юнитами
	if other := s.unitAt(dest); other != nil && other.ID != u.ID {
		res.BlockedBy = other
		return res
	}

	res.HasMoved = true
	return res
}
