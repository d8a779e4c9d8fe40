package chat

import (
	"time"

	"cloudy-sword/pkg/logger"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Kind - категория строки лога
type Kind uint8

const (
	KindInfo Kind = iota
	KindChat
	KindWhisper
	KindError
	KindSystem
)

var kindNames = map[Kind]string{
	KindInfo:    "info",
	KindChat:    "chat",
	KindWhisper: "whisper",
	KindError:   "error",
	KindSystem:  "system",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Entry - одна строка лога сообщений.
type Entry struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"-"`
	KindName  string    `json:"kind"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Log - упорядоченный журнал строк, видимых пользователю.
// Только добавление; единственное исключение - Clear по команде /clear.
type Log struct {
	entries []Entry
	now     func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append добавляет строку и дублирует ее в отладочный лог.
func (l *Log) Append(kind Kind, text string) Entry {
	e := Entry{
		ID:        uuid.New(),
		Kind:      kind,
		KindName:  kind.String(),
		Text:      text,
		Timestamp: l.now(),
	}
	l.entries = append(l.entries, e)

	logger.Component("chat_log").WithFields(logrus.Fields{
		"kind":     e.KindName,
		"entry_id": e.ID.String(),
	}).Debug(text)

	return e
}

// Clear очищает журнал.
func (l *Log) Clear() {
	l.entries = nil
}

// Entries возвращает копию журнала.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Tail - последние n строк.
func (l *Log) Tail(n int) []Entry {
	if n <= 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, n)
	copy(out, l.entries[len(l.entries)-n:])
	return out
}

// Lines - только тексты, в порядке добавления.
func (l *Log) Lines() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Text
	}
	return out
}

func (l *Log) Len() int {
	return len(l.entries)
}
