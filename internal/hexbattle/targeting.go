package hexbattle

import (
	"cloudy-sword/pkg/hexgrid"
)

// ValidationResult - результат проверки цели
type ValidationResult struct {
	Target  *Unit // может быть nil: способность по пустой клетке
	Valid   bool
	Message string
}

// ValidateTarget проверяет, может ли caster применить способность ability по клетке target.
func ValidateTarget(caster *Unit, ability int, target hexgrid.Cell, s *State) ValidationResult {
	// 1. Слот способности
	if ability < 0 || ability >= len(caster.Abilities) {
		return ValidationResult{Message: "No such ability."}
	}
	ab := caster.Abilities[ability]

	// 2. Цель на поле
	if s.Map.At(target) == TerrainEmpty {
		return ValidationResult{Message: "Target is off the map."}
	}

	// 3. Дистанция
	if hexgrid.Distance(caster.Pos, target) > ab.Range {
		return ValidationResult{Message: "Target is out of range."}
	}

	// 4. Мана
	if caster.Mana < ab.Cost {
		return ValidationResult{Message: "Not enough mana."}
	}

	return ValidationResult{Target: s.unitAt(target), Valid: true}
}

// targetingKey - ключ кеша подсветки.
type targetingKey struct {
	unit    int
	ability int
}

// Targets перечисляет все допустимые цели способности.
// Используется для подсветки, результат кешируется движком.
// Обход ограничен картой, поэтому стоимость не зависит от дальности.
func Targets(caster *Unit, ability int, s *State) map[hexgrid.Cell]bool {
	out := make(map[hexgrid.Cell]bool)
	if ability < 0 || ability >= len(caster.Abilities) {
		return out
	}
	r := max(caster.Abilities[ability].Range, 0)
	x0, x1 := max(caster.Pos.X-r, 0), min(caster.Pos.X+r, s.Map.Cols-1)
	y0, y1 := max(caster.Pos.Y-r, 0), min(caster.Pos.Y+r, s.Map.Rows-1)
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			c := hexgrid.Cell{X: x, Y: y}
			if ValidateTarget(caster, ability, c, s).Valid {
				out[c] = true
			}
		}
	}
	return out
}
