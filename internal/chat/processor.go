// Package chat разбирает строки, введенные пользователем, на чат и
// slash-команды и ведет журнал сообщений.
package chat

import (
	"fmt"
	"regexp"
	"strings"

	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"

	"github.com/sirupsen/logrus"
)

const (
	// ExemptName - короткое имя, которому разрешен /name в обход ограничения длины.
	ExemptName = "Sam"
	// ConsoleIdentity - служебный адресат, которого нет в списке клиентов.
	ConsoleIdentity = "console"

	minNameLen = 4
)

var nameRe = regexp.MustCompile(`^[-a-zA-Z0-9]+$`)

var helpLines = []string{
	"+=+=+=+=+Help+=+=+=+=+",
	"/clear - Clears the chat window",
	"/name [name] - Changes your display name",
	"/msg [user] [message] - Private Message someone",
	"/r [message] - Reply to a last messaged person",
}

// Outbox - исходящая сторона соединения.
type Outbox interface {
	Send(channel string, payload any) error
}

// Directory отвечает, существует ли клиент с таким именем.
type Directory interface {
	FindByName(name string) (api.ClientID, bool)
}

// Processor - обработчик строк чата. Хранит ReplyTarget.
type Processor struct {
	log         *Log
	out         Outbox
	dir         Directory
	replyTarget string
}

func NewProcessor(log *Log, out Outbox, dir Directory) *Processor {
	return &Processor{log: log, out: out, dir: dir}
}

// ReplyTarget - последний собеседник в личной переписке ("" - нет).
func (p *Processor) ReplyTarget() string {
	return p.replyTarget
}

// Submit обрабатывает строку, введенную локальным пользователем me.
func (p *Processor) Submit(line, me string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if !strings.HasPrefix(line, "/") {
		p.send(api.ChatRequest{Message: line})
		p.log.Append(KindChat, fmt.Sprintf("%s: %s", me, line))
		return
	}

	args := strings.Fields(line)
	switch args[0] {
	case "/help":
		for _, l := range helpLines {
			p.log.Append(KindInfo, l)
		}

	case "/clear":
		p.log.Clear()
		p.log.Append(KindInfo, "Chat cleared")

	case "/name":
		// Невалидное имя молча отбрасывается.
		if len(args) > 1 && ValidName(args[1]) {
			p.sendOn(api.OutChangeName, args[1])
		}

	case "/msg":
		if len(args) < 2 {
			p.log.Append(KindError, "/msg [user] [message]")
			return
		}
		target := args[1]
		if _, ok := p.dir.FindByName(target); !ok && target != ConsoleIdentity {
			p.log.Append(KindError, "User not found.")
			return
		}
		p.replyTarget = target
		p.whisper(me, target, strings.Join(args[2:], " "))

	case "/r":
		if len(args) < 2 {
			p.log.Append(KindError, "/r [message]")
			return
		}
		if p.replyTarget == "" {
			p.log.Append(KindError, "You have no one whom you can reply to.")
			return
		}
		p.whisper(me, p.replyTarget, strings.Join(args[1:], " "))

	default:
		p.log.Append(KindError, "Unknown command. Type /help for help.")
	}
}

// Receive отображает входящий чат. Отправитель становится ReplyTarget.
func (p *Processor) Receive(msg api.DirectChat, me string) {
	p.replyTarget = msg.From
	if msg.Directed() {
		p.log.Append(KindWhisper, fmt.Sprintf("[%s → %s] %s", msg.From, me, msg.Message))
		return
	}
	p.log.Append(KindChat, fmt.Sprintf("%s: %s", msg.From, msg.Message))
}

func (p *Processor) whisper(me, target, text string) {
	p.send(api.ChatRequest{To: target, Message: text})
	p.log.Append(KindWhisper, fmt.Sprintf("[%s → %s] %s", me, target, text))
}

func (p *Processor) send(req api.ChatRequest) {
	p.sendOn(api.OutChat, req)
}

func (p *Processor) sendOn(channel string, payload any) {
	if err := p.out.Send(channel, payload); err != nil {
		logger.Component("chat").WithFields(logrus.Fields{
			"channel": channel,
			"error":   err,
		}).Warn("Outbound chat dropped.")
	}
}

// ValidName - правило для отображаемого имени: латиница, цифры и дефис,
// не короче minNameLen символов (кроме ExemptName).
func ValidName(name string) bool {
	if !nameRe.MatchString(name) {
		return false
	}
	return len(name) >= minNameLen || name == ExemptName
}
