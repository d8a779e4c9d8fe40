package ui

import (
	"errors"

	"cloudy-sword/pkg/hexgrid"
)

// Mode - режим интерфейса
type Mode uint8

const (
	ModeLobby Mode = iota
	ModeInBattle
)

func (m Mode) String() string {
	switch m {
	case ModeLobby:
		return "LOBBY"
	case ModeInBattle:
		return "IN_BATTLE"
	default:
		return "UNKNOWN"
	}
}

// NoAbility - сентинел "способность не выбрана".
const NoAbility = -1

// ErrIllegalTransition возвращается при попытке перехода, которого нет в таблице.
var ErrIllegalTransition = errors.New("illegal ui transition")

// Selection - выбранная клетка и ожидающая цели способность.
// PendingAbility имеет смысл только пока в Cell стоит юнит локального игрока.
type Selection struct {
	Cell           hexgrid.Cell
	PendingAbility int
}

// Cleared возвращает пустое выделение.
func Cleared() Selection {
	return Selection{Cell: hexgrid.None, PendingAbility: NoAbility}
}

// HasCell сообщает, выбрана ли клетка.
func (s Selection) HasCell() bool {
	return !s.Cell.IsNone()
}

// HasPendingAbility сообщает, ждет ли способность клика по цели.
func (s Selection) HasPendingAbility() bool {
	return s.PendingAbility != NoAbility
}

// State - чистое состояние взаимодействия. Не содержит флагов отрисовки.
type State struct {
	mode      Mode
	selection Selection
}

// NewState создает состояние в режиме лобби.
func NewState() *State {
	return &State{mode: ModeLobby, selection: Cleared()}
}

func (s *State) Mode() Mode           { return s.mode }
func (s *State) InBattle() bool       { return s.mode == ModeInBattle }
func (s *State) Selection() Selection { return s.selection }

// EnterBattle: Lobby -> InBattle по подтверждению входа в игру.
func (s *State) EnterBattle() error {
	if s.mode != ModeLobby {
		return ErrIllegalTransition
	}
	s.mode = ModeInBattle
	s.selection = Cleared()
	return nil
}

// ReturnToLobby: InBattle -> Lobby (выход игрока или кик с сервера).
func (s *State) ReturnToLobby() error {
	if s.mode != ModeInBattle {
		return ErrIllegalTransition
	}
	s.mode = ModeLobby
	s.selection = Cleared()
	return nil
}

// ResetToLobby безусловно возвращает в лобби (при новом подключении).
// Выделение сбрасывается только если режим действительно менялся.
func (s *State) ResetToLobby() {
	if s.mode == ModeInBattle {
		_ = s.ReturnToLobby()
	}
}

// Select выбирает клетку. Ожидающая способность сбрасывается: она относилась
// к юниту в прежней клетке.
func (s *State) Select(c hexgrid.Cell) {
	s.selection = Selection{Cell: c, PendingAbility: NoAbility}
}

// Follow переводит выделение вслед за юнитом, который сам сменил клетку.
// Ожидающая способность остается за ним.
func (s *State) Follow(c hexgrid.Cell) {
	s.selection.Cell = c
}

// DropAbility снимает ожидающую способность, не трогая клетку.
func (s *State) DropAbility() {
	s.selection.PendingAbility = NoAbility
}

// ClearSelection сбрасывает выбор клетки и способности.
func (s *State) ClearSelection() {
	s.selection = Cleared()
}

// BeginAbility переводит клики в режим выбора цели.
func (s *State) BeginAbility(index int) {
	s.selection.PendingAbility = index
}

// ConsumeAbility снимает флаг способности и возвращает её индекс.
// Попытка расходуется даже при неудачном выборе цели.
func (s *State) ConsumeAbility() int {
	idx := s.selection.PendingAbility
	s.selection.PendingAbility = NoAbility
	return idx
}
