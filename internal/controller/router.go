package controller

import (
	"errors"
	"fmt"

	"cloudy-sword/internal/chat"
	"cloudy-sword/internal/mirror"
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"

	"github.com/sirupsen/logrus"
)

// HandleFrame разбирает входящий кадр и применяет его эффект.
// Неизвестные теги и битые сообщения пропускаются: протокол не может уронить клиент.
func (c *Controller) HandleFrame(f api.Frame) {
	msg, err := api.Decode(f)
	if err != nil {
		log := logger.Component("router").WithFields(logrus.Fields{
			"tag":   f.Tag,
			"error": err,
		})
		if errors.Is(err, api.ErrUnknownTag) {
			log.Debug("Frame with unknown tag ignored.")
		} else {
			log.Warn("Malformed frame dropped.")
		}
		return
	}
	c.Dispatch(msg)
}

// Dispatch применяет уже разобранное сообщение.
func (c *Controller) Dispatch(msg api.Message) {
	switch m := msg.(type) {
	case api.Connecting:
		c.log.Append(chat.KindSystem, "Connecting to server...")

	case api.Connected:
		c.onConnected()

	case api.Disconnected:
		// Режим и выделение не трогаем: после переподключения придет полный снимок.
		c.log.Append(chat.KindSystem, "Disconnected from the server.")

	case api.LatencyReply:
		if c.session.probeSent.IsZero() {
			return
		}
		rtt := c.now().Sub(c.session.probeSent)
		c.log.Append(chat.KindInfo, fmt.Sprintf("Ping: %dms.", rtt.Milliseconds()))

	case api.FullSync:
		c.onFullSync(m)

	case api.DeltaUpdate:
		if err := c.mirror.ApplyDelta(m); err != nil {
			c.logMirrorError("gsupdate", err)
		}
		c.dropStaleAbility()

	case api.ActionBroadcast:
		c.onActionBroadcast(m.Action)
		c.dropStaleAbility()

	case api.CatalogUpdate:
		c.catalog.Apply(m)

	case api.AssignedIdentity:
		c.session.ClientID = m.ID

	case api.RosterUpdate:
		for _, ch := range c.roster.Apply(m) {
			if ch.Joined {
				c.log.Append(chat.KindSystem, ch.Name+" has joined the room")
			} else {
				c.log.Append(chat.KindSystem, ch.Name+" has left the room")
			}
		}

	case api.RemovedFromRoom:
		logger.Component("router").WithField("mode", c.ui.Mode().String()).Info("Removed from room by server.")
		c.pendingJoin = ""
		c.ui.ResetToLobby()

	case api.PrivilegedRelay:
		c.send(m.Channel, m.Message)

	case api.AssignedRole:
		c.session.PlayingAs = m.ID
		c.dropStaleAbility()

	case api.SystemMessage:
		c.log.Append(chat.KindSystem, m.Text)

	case api.DirectChat:
		c.chat.Receive(m, c.DisplayName())

	default:
		logger.Component("router").Warnf("Unhandled message type %T.", msg)
	}
}

func (c *Controller) onConnected() {
	c.log.Append(chat.KindSystem, "Connected")
	c.session = newSession()
	c.pendingJoin = ""
	c.ui.ResetToLobby()

	c.session.probeSent = c.now()
	c.send(api.OutPing, nil)

	switch {
	case c.displayName == "":
	case chat.ValidName(c.displayName):
		c.send(api.OutChangeName, c.displayName)
	default:
		logger.Component("router").WithField("name", c.displayName).Warn("Configured display name is invalid, rename skipped.")
	}
}

// onFullSync заменяет зеркало. Если мы ждали входа в игру, снимок и есть подтверждение.
func (c *Controller) onFullSync(m api.FullSync) {
	if err := c.mirror.LoadFull(m.Snapshot); err != nil {
		c.logMirrorError("gsfull", err)
		return
	}
	c.dropStaleAbility()
	if c.pendingJoin == "" {
		return
	}

	logger.Component("router").WithField("game_id", c.pendingJoin).Info("Joined game.")
	c.pendingJoin = ""
	if err := c.ui.EnterBattle(); err != nil {
		c.ui.ClearSelection()
	}
}

// onActionBroadcast применяет чужое действие без проверки: сервер уже решил.
func (c *Controller) onActionBroadcast(a api.Action) {
	narration := ""
	if a.Type == api.ActionAbility {
		narration = c.narrateAbility(a)
	}

	if err := c.mirror.Apply(a); err != nil {
		c.logMirrorError("action", err)
		return
	}
	if narration != "" {
		c.log.Append(chat.KindInfo, narration)
	}
}

// narrateAbility строит строку "<Your|Name's> <unit> used the ability <ability>."
// Юнит берется до применения: цель может погибнуть, а заклинатель - нет.
func (c *Controller) narrateAbility(a api.Action) string {
	unit, ok := c.mirror.UnitAt(a.Subject())
	if !ok || !unit.HasAbility(a.AbilityIndex()) {
		return ""
	}

	owner := "Your"
	if unit.Controller != c.session.PlayingAs {
		owner = fmt.Sprintf("Player %d's", unit.Controller+1)
		if id, ok := c.mirror.Player(unit.Controller); ok {
			if name, ok := c.roster.Name(id); ok {
				owner = name + "'s"
			}
		}
	}
	return fmt.Sprintf("%s %s used the ability %s.", owner, unit.Name, unit.Abilities[a.AbilityIndex()])
}

func (c *Controller) logMirrorError(tag string, err error) {
	log := logger.Component("router").WithFields(logrus.Fields{
		"tag":   tag,
		"error": err,
	})
	if errors.Is(err, mirror.ErrNoState) {
		log.Debug("No battle state yet, message ignored.")
		return
	}
	log.Warn("Failed to update battle state.")
}
