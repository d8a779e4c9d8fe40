package api

import (
	"errors"
	"fmt"

	"cloudy-sword/pkg/hexgrid"
)

// ActionType - тип игрового действия
type ActionType string

const (
	ActionMove    ActionType = "move"
	ActionAbility ActionType = "ability"
	ActionEndTurn ActionType = "end"
)

// Action - запись действия {type, subject, parameters}.
// Субъект хода - клетка Tile (а не юнит), субъект способности - Unit.
type Action struct {
	Type ActionType `json:"type"`

	// move
	Tile *hexgrid.Cell `json:"tile,omitempty"`
	Dir  *hexgrid.Cell `json:"dir,omitempty"`

	// ability
	Unit    *hexgrid.Cell `json:"unit,omitempty"`
	Ability *int          `json:"ability,omitempty"`
	Target  *hexgrid.Cell `json:"target,omitempty"`
}

// MoveAction - шаг из клетки tile в направлении dir.
func MoveAction(tile, dir hexgrid.Cell) Action {
	return Action{Type: ActionMove, Tile: &tile, Dir: &dir}
}

// AbilityAction - применение способности юнитом в клетке unit по цели target.
func AbilityAction(unit hexgrid.Cell, ability int, target hexgrid.Cell) Action {
	return Action{Type: ActionAbility, Unit: &unit, Ability: &ability, Target: &target}
}

// EndTurnAction - завершение хода.
func EndTurnAction() Action {
	return Action{Type: ActionEndTurn}
}

// Subject возвращает клетку, к которой относится действие (None для end).
func (a Action) Subject() hexgrid.Cell {
	switch a.Type {
	case ActionMove:
		if a.Tile != nil {
			return *a.Tile
		}
	case ActionAbility:
		if a.Unit != nil {
			return *a.Unit
		}
	}
	return hexgrid.None
}

// Destination - клетка, в которую ведет ход.
func (a Action) Destination() (hexgrid.Cell, bool) {
	if a.Type != ActionMove || a.Tile == nil || a.Dir == nil {
		return hexgrid.None, false
	}
	return a.Tile.Shift(*a.Dir), true
}

// AbilityIndex возвращает индекс способности или -1.
func (a Action) AbilityIndex() int {
	if a.Ability == nil {
		return -1
	}
	return *a.Ability
}

func (a Action) String() string {
	switch a.Type {
	case ActionMove:
		dest, _ := a.Destination()
		return fmt.Sprintf("move %v -> %v", a.Subject(), dest)
	case ActionAbility:
		return fmt.Sprintf("ability #%d %v -> %v", a.AbilityIndex(), a.Subject(), derefCell(a.Target))
	default:
		return string(a.Type)
	}
}

// Validate проверяет форму записи (не законность хода - это дело движка правил).
func (a Action) Validate() error {
	switch a.Type {
	case ActionMove:
		if a.Tile == nil || a.Dir == nil {
			return errors.New("move requires tile and dir")
		}
		if !hexgrid.IsDirection(*a.Dir) {
			return fmt.Errorf("move dir %v is not a hex direction", *a.Dir)
		}
	case ActionAbility:
		if a.Unit == nil || a.Target == nil || a.Ability == nil {
			return errors.New("ability requires unit, ability and target")
		}
		if *a.Ability < 0 {
			return errors.New("ability index cannot be negative")
		}
	case ActionEndTurn:
	default:
		return fmt.Errorf("unknown action type %q", a.Type)
	}
	return nil
}

func derefCell(c *hexgrid.Cell) hexgrid.Cell {
	if c == nil {
		return hexgrid.None
	}
	return *c
}
