// Package controller - клиентский контроллер взаимодействия и синхронизации.
// Принимает ввод пользователя и сообщения сервера, держит зеркало боя,
// список клиентов, каталог игр и журнал сообщений.
//
// Контроллер однопоточный: все методы вызываются из одной горутины (Loop).
package controller

import (
	"time"

	"cloudy-sword/internal/camera"
	"cloudy-sword/internal/chat"
	"cloudy-sword/internal/mirror"
	"cloudy-sword/internal/roster"
	"cloudy-sword/internal/rules"
	"cloudy-sword/internal/ui"
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Spectating - PlayingAs зрителя.
const Spectating = -1

// Outbox - исходящая сторона соединения. Send не блокирует.
type Outbox interface {
	Send(channel string, payload any) error
}

// Session - данные текущего подключения.
type Session struct {
	ClientID  api.ClientID
	PlayingAs int
	probeSent time.Time
}

func newSession() Session {
	return Session{PlayingAs: Spectating}
}

// Options - необязательные параметры контроллера.
type Options struct {
	// DisplayName отправляется на сервер после каждого подключения.
	DisplayName string
	// Clock подменяется в тестах.
	Clock func() time.Time
}

// Controller - единственный владелец состояния клиента.
type Controller struct {
	session Session
	ui      *ui.State
	camera  *camera.Camera
	mirror  *mirror.Mirror
	roster  *roster.Roster
	catalog *roster.Catalog
	log     *chat.Log
	chat    *chat.Processor
	out     Outbox

	displayName string
	now         func() time.Time

	pendingJoin string // gameId, пока ждем подтверждения входа
	chatFocused bool
}

func New(engine rules.Engine, out Outbox, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	c := &Controller{
		session:     newSession(),
		ui:          ui.NewState(),
		camera:      camera.New(),
		mirror:      mirror.New(engine),
		roster:      roster.New(),
		catalog:     roster.NewCatalog(),
		log:         chat.NewLog(),
		out:         out,
		displayName: opts.DisplayName,
		now:         opts.Clock,
	}
	c.chat = chat.NewProcessor(c.log, out, c.roster)
	return c
}

// --- Доступ на чтение (для тестов, терминала и отладки) ---

func (c *Controller) Session() Session         { return c.session }
func (c *Controller) Mode() ui.Mode            { return c.ui.Mode() }
func (c *Controller) Selection() ui.Selection  { return c.ui.Selection() }
func (c *Controller) Camera() camera.Camera    { return *c.camera }
func (c *Controller) Mirror() *mirror.Mirror   { return c.mirror }
func (c *Controller) Roster() *roster.Roster   { return c.roster }
func (c *Controller) Catalog() *roster.Catalog { return c.catalog }
func (c *Controller) Log() *chat.Log           { return c.log }
func (c *Controller) ReplyTarget() string      { return c.chat.ReplyTarget() }
func (c *Controller) ChatFocused() bool        { return c.chatFocused }
func (c *Controller) PendingJoin() string      { return c.pendingJoin }

// DisplayName - имя локального пользователя по списку клиентов.
func (c *Controller) DisplayName() string {
	if name, ok := c.roster.Name(c.session.ClientID); ok {
		return name
	}
	if c.session.ClientID != api.NoClient {
		return c.session.ClientID.String()
	}
	return "me"
}

// send отправляет сообщение. Ошибка только логируется: сеть не может уронить контроллер.
func (c *Controller) send(channel string, payload any) bool {
	if err := c.out.Send(channel, payload); err != nil {
		logger.Component("controller").WithFields(logrus.Fields{
			"channel": channel,
			"error":   err,
		}).Warn("Failed to enqueue outbound message.")
		return false
	}
	return true
}
