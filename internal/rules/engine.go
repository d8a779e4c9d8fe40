// Package rules описывает контракт движка правил, который зеркалирует
// состояние боя на клиенте. Сам движок клиенту не принадлежит: контроллер
// только спрашивает его о законности и применяет действия.
package rules

import (
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/hexgrid"
)

// Unit - то, что интерфейсу нужно знать о юните в клетке.
type Unit struct {
	ID         int
	Name       string
	Controller int // индекс игрока в бою
	Pos        hexgrid.Cell
	Health     int
	MaxHealth  int
	Mana       int
	MaxMana    int
	Steps      int
	Speed      int
	Abilities  []string
}

// HasAbility сообщает, есть ли у юнита слот index.
func (u Unit) HasAbility(index int) bool {
	return index >= 0 && index < len(u.Abilities)
}

// Engine - внешний движок правил.
type Engine interface {
	// Load заменяет состояние снимком целиком.
	Load(snapshot api.Frame) error
	// Update накладывает частичный патч.
	Update(patch api.Frame) error

	// ValidAction проверяет законность действия от лица игрока player.
	ValidAction(a api.Action, player int) bool
	// DoAction применяет действие без проверки.
	DoAction(a api.Action) error

	OnGrid(c hexgrid.Cell) bool
	Extent() (cols, rows int)
	UnitAt(c hexgrid.Cell) (Unit, bool)
	// ValidTarget - может ли юнит в клетке caster применить способность ability по target.
	ValidTarget(caster, target hexgrid.Cell, ability int) bool
	// ClearCache сбрасывает закешированную подсветку целей.
	ClearCache()

	// Player возвращает clientId игрока с индексом index.
	Player(index int) (api.ClientID, bool)
	// Turn - индекс игрока, который сейчас ходит.
	Turn() int

	// Snapshot сериализует текущее состояние (для отладки).
	Snapshot() ([]byte, error)
}
