package hexbattle

import (
	"fmt"

	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/hexgrid"
)

// Terrain - тип клетки карты.
type Terrain int

const (
	TerrainEmpty Terrain = iota // дыра в карте, не часть поля
	TerrainPlain
	TerrainForest
	TerrainWater
)

// Passable сообщает, можно ли встать на клетку.
func (t Terrain) Passable() bool {
	return t == TerrainPlain || t == TerrainForest
}

// Ability - способность юнита.
type Ability struct {
	Name   string `json:"name"`
	Range  int    `json:"range"`
	Cost   int    `json:"cost,omitempty"`
	Damage int    `json:"damage,omitempty"`
}

// Unit - юнит на поле.
type Unit struct {
	ID         int          `json:"id"`
	Name       string       `json:"name"`
	Controller int          `json:"controller"`
	Pos        hexgrid.Cell `json:"pos"`
	Health     int          `json:"health"`
	MaxHealth  int          `json:"hp"`
	Mana       int          `json:"mana"`
	MaxMana    int          `json:"mn"`
	Steps      int          `json:"steps"`
	Speed      int          `json:"speed"`
	Abilities  []Ability    `json:"abilities"`
}

func (u *Unit) abilityNames() []string {
	names := make([]string, len(u.Abilities))
	for i, a := range u.Abilities {
		names[i] = a.Name
	}
	return names
}

// Map - размеры и рельеф. Terrain[y][x].
type Map struct {
	Cols    int         `json:"cols"`
	Rows    int         `json:"rows"`
	Terrain [][]Terrain `json:"terrain"`
}

// At возвращает рельеф клетки или TerrainEmpty вне карты.
func (m *Map) At(c hexgrid.Cell) Terrain {
	if !c.InBounds(m.Cols, m.Rows) {
		return TerrainEmpty
	}
	return m.Terrain[c.Y][c.X]
}

// State - полный снимок боя, как его присылает сервер.
type State struct {
	Turn    int            `json:"turn"`
	Players []api.ClientID `json:"players"`
	Map     Map            `json:"map"`
	Units   []*Unit        `json:"units"`
}

// Patch - частичное обновление. Отсутствующие поля не меняются,
// юниты заменяются по id, Removed удаляет.
type Patch struct {
	Turn    *int           `json:"turn,omitempty"`
	Players []api.ClientID `json:"players,omitempty"`
	Units   []*Unit        `json:"units,omitempty"`
	Removed []int          `json:"removed,omitempty"`
}

func (s *State) check() error {
	if s.Map.Cols <= 0 || s.Map.Rows <= 0 {
		return fmt.Errorf("map extent %dx%d", s.Map.Cols, s.Map.Rows)
	}
	if len(s.Map.Terrain) != s.Map.Rows {
		return fmt.Errorf("terrain has %d rows, want %d", len(s.Map.Terrain), s.Map.Rows)
	}
	for y, row := range s.Map.Terrain {
		if len(row) != s.Map.Cols {
			return fmt.Errorf("terrain row %d has %d cols, want %d", y, len(row), s.Map.Cols)
		}
	}
	for _, u := range s.Units {
		if u == nil {
			return fmt.Errorf("null unit")
		}
	}
	return nil
}

func (s *State) unitAt(c hexgrid.Cell) *Unit {
	for _, u := range s.Units {
		if u.Pos == c {
			return u
		}
	}
	return nil
}

func (s *State) unitByID(id int) (int, *Unit) {
	for i, u := range s.Units {
		if u.ID == id {
			return i, u
		}
	}
	return -1, nil
}

func (s *State) removeUnit(id int) {
	if i, _ := s.unitByID(id); i >= 0 {
		s.Units = append(s.Units[:i], s.Units[i+1:]...)
	}
}

func (s *State) apply(p Patch) {
	if p.Turn != nil {
		s.Turn = *p.Turn
	}
	if p.Players != nil {
		s.Players = p.Players
	}
	for _, u := range p.Units {
		if u == nil {
			continue
		}
		if i, _ := s.unitByID(u.ID); i >= 0 {
			s.Units[i] = u
		} else {
			s.Units = append(s.Units, u)
		}
	}
	for _, id := range p.Removed {
		s.removeUnit(id)
	}
}
