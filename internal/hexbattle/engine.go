// Package hexbattle - эталонный движок правил для пошагового боя на гексах.
// Реализует rules.Engine поверх снимка, который присылает сервер.
package hexbattle

import (
	"encoding/json"
	"errors"
	"fmt"

	"cloudy-sword/internal/rules"
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/hexgrid"
	"cloudy-sword/pkg/logger"

	"github.com/sirupsen/logrus"
)

var errNoUnit = errors.New("no unit at subject cell")

// Engine хранит состояние боя и кеш подсветки целей.
type Engine struct {
	state   *State
	targets map[targetingKey]map[hexgrid.Cell]bool
}

var _ rules.Engine = (*Engine)(nil)

func New() *Engine {
	return &Engine{targets: make(map[targetingKey]map[hexgrid.Cell]bool)}
}

func (e *Engine) Load(snapshot api.Frame) error {
	var s State
	if err := snapshot.Decode(&s); err != nil {
		return fmt.Errorf("decode battle state: %w", err)
	}
	if err := s.check(); err != nil {
		return fmt.Errorf("invalid battle state: %w", err)
	}
	e.state = &s
	e.ClearCache()
	return nil
}

func (e *Engine) Update(patch api.Frame) error {
	if e.state == nil {
		return errors.New("no battle state")
	}
	var p Patch
	if err := patch.Decode(&p); err != nil {
		return fmt.Errorf("decode battle patch: %w", err)
	}
	e.state.apply(p)
	e.ClearCache()
	return nil
}

func (e *Engine) ValidAction(a api.Action, player int) bool {
	s := e.state
	if s == nil || a.Validate() != nil {
		return false
	}
	// Ходит только тот, чей сейчас ход. Зритель (-1) не ходит никогда.
	if player < 0 || player != s.Turn {
		return false
	}

	switch a.Type {
	case api.ActionMove:
		u := s.unitAt(*a.Tile)
		if u == nil || u.Controller != player || u.Steps <= 0 {
			return false
		}
		return CalculateMove(u, *a.Dir, s).HasMoved

	case api.ActionAbility:
		u := s.unitAt(*a.Unit)
		if u == nil || u.Controller != player {
			return false
		}
		return ValidateTarget(u, *a.Ability, *a.Target, s).Valid

	case api.ActionEndTurn:
		return true
	}
	return false
}

func (e *Engine) DoAction(a api.Action) error {
	s := e.state
	if s == nil {
		return errors.New("no battle state")
	}
	if err := a.Validate(); err != nil {
		return err
	}
	defer e.ClearCache()

	log := logger.Component("hexbattle").WithField("action", a.String())

	switch a.Type {
	case api.ActionMove:
		u := s.unitAt(*a.Tile)
		if u == nil {
			return errNoUnit
		}
		u.Pos = u.Pos.Shift(*a.Dir)
		if u.Steps > 0 {
			u.Steps--
		}

	case api.ActionAbility:
		u := s.unitAt(*a.Unit)
		if u == nil {
			return errNoUnit
		}
		if !u.hasAbility(*a.Ability) {
			return fmt.Errorf("unit %d has no ability %d", u.ID, *a.Ability)
		}
		ab := u.Abilities[*a.Ability]
		u.Mana -= ab.Cost
		if u.Mana < 0 {
			u.Mana = 0
		}
		if target := s.unitAt(*a.Target); target != nil && ab.Damage != 0 {
			target.Health -= ab.Damage
			if target.Health > target.MaxHealth && target.MaxHealth > 0 {
				target.Health = target.MaxHealth
			}
			if target.Health <= 0 {
				log.WithField("unit_id", target.ID).Debug("Unit destroyed.")
				s.removeUnit(target.ID)
			}
		}

	case api.ActionEndTurn:
		e.endTurn()
	}

	log.WithFields(logrus.Fields{"turn": s.Turn}).Debug("Action applied.")
	return nil
}

// endTurn передает ход следующему игроку и восстанавливает его юнитам шаги.
func (e *Engine) endTurn() {
	s := e.state
	if len(s.Players) == 0 {
		return
	}
	s.Turn = (s.Turn + 1) % len(s.Players)
	for _, u := range s.Units {
		if u.Controller == s.Turn {
			u.Steps = u.Speed
		}
	}
}

func (e *Engine) OnGrid(c hexgrid.Cell) bool {
	return e.state != nil && e.state.Map.At(c) != TerrainEmpty
}

func (e *Engine) Extent() (cols, rows int) {
	if e.state == nil {
		return 0, 0
	}
	return e.state.Map.Cols, e.state.Map.Rows
}

func (e *Engine) UnitAt(c hexgrid.Cell) (rules.Unit, bool) {
	if e.state == nil {
		return rules.Unit{}, false
	}
	u := e.state.unitAt(c)
	if u == nil {
		return rules.Unit{}, false
	}
	return rules.Unit{
		ID:         u.ID,
		Name:       u.Name,
		Controller: u.Controller,
		Pos:        u.Pos,
		Health:     u.Health,
		MaxHealth:  u.MaxHealth,
		Mana:       u.Mana,
		MaxMana:    u.MaxMana,
		Steps:      u.Steps,
		Speed:      u.Speed,
		Abilities:  u.abilityNames(),
	}, true
}

// ValidTarget отвечает по кешу подсветки; кеш строится при первом запросе
// и живет до ClearCache или любого изменения состояния.
func (e *Engine) ValidTarget(caster, target hexgrid.Cell, ability int) bool {
	if e.state == nil {
		return false
	}
	u := e.state.unitAt(caster)
	if u == nil {
		return false
	}
	key := targetingKey{unit: u.ID, ability: ability}
	set, ok := e.targets[key]
	if !ok {
		set = Targets(u, ability, e.state)
		e.targets[key] = set
	}
	return set[target]
}

func (e *Engine) ClearCache() {
	clear(e.targets)
}

func (e *Engine) Player(index int) (api.ClientID, bool) {
	if e.state == nil || index < 0 || index >= len(e.state.Players) {
		return api.NoClient, false
	}
	return e.state.Players[index], true
}

func (e *Engine) Turn() int {
	if e.state == nil {
		return 0
	}
	return e.state.Turn
}

func (e *Engine) Snapshot() ([]byte, error) {
	if e.state == nil {
		return nil, errors.New("no battle state")
	}
	return json.Marshal(e.state)
}

func (u *Unit) hasAbility(i int) bool {
	return i >= 0 && i < len(u.Abilities)
}
