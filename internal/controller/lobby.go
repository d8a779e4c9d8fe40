package controller

import (
	"fmt"

	"cloudy-sword/internal/chat"
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"
)

// Геометрия строк лобби в единицах устройства.
const (
	LobbyRowWidth  = 400.0
	LobbyRowTop    = 10.0
	LobbyRowHeight = 40.0
	LobbyRowPitch  = 50.0
)

// LobbyRowAt возвращает индекс строки каталога под точкой или -1.
// Строка k занимает x in [0, 400), y in [10+50k, 50+50k).
func LobbyRowAt(px, py float64, rows int) int {
	if px < 0 || px >= LobbyRowWidth || py < LobbyRowTop {
		return -1
	}
	k := int((py - LobbyRowTop) / LobbyRowPitch)
	if k >= rows || py-LobbyRowTop-float64(k)*LobbyRowPitch >= LobbyRowHeight {
		return -1
	}
	return k
}

// ClickLobby - клик в лобби: вход в игру из строки под курсором.
// Режим не меняется до подтверждения сервером.
func (c *Controller) ClickLobby(px, py float64) {
	if c.ui.InBattle() {
		return
	}
	games := c.catalog.Games()
	k := LobbyRowAt(px, py, len(games))
	if k < 0 {
		return
	}
	c.JoinGame(games[k].ID)
}

// JoinGame просит сервер добавить нас в игру.
func (c *Controller) JoinGame(gameID string) {
	if c.ui.InBattle() {
		return
	}
	if _, ok := c.catalog.Get(gameID); !ok {
		c.log.Append(chat.KindError, fmt.Sprintf("No game %s in the list.", gameID))
		return
	}
	if !c.send(api.OutJoinGame, api.JoinRequest{GameID: gameID}) {
		return
	}
	c.pendingJoin = gameID
	logger.Component("lobby").WithField("game_id", gameID).Info("Join requested.")
}

// LobbyLines - строки каталога в том порядке, в котором они проверяются кликом.
func (c *Controller) LobbyLines() []string {
	games := c.catalog.Games()
	out := make([]string, len(games))
	for i, g := range games {
		out[i] = fmt.Sprintf("Game %s: %d/%d players; Map: %s",
			g.ID, g.CurrentPlayers, g.MaxPlayers, g.MapSizeDescriptor)
	}
	return out
}
