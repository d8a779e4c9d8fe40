package controller

import (
	"context"
	"encoding/json"

	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Query - запрос на чтение состояния из чужой горутины.
// Ответ приходит в Reply; канал должен иметь буфер хотя бы 1.
type Query interface{ isQuery() }

// GetView - снимок для отрисовки и отладки.
type GetView struct {
	LogTail int
	Reply   chan View
}

// GetMirror - сериализованное зеркало боя.
type GetMirror struct {
	Reply chan MirrorDump
}

// MirrorDump - ответ на GetMirror.
type MirrorDump struct {
	Loaded   bool            `json:"loaded"`
	Revision uint64          `json:"revision"`
	LastSeq  int64           `json:"lastSeq"`
	State    json.RawMessage `json:"state,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func (GetView) isQuery()   {}
func (GetMirror) isQuery() {}

// ViewLogTail - сколько строк журнала уходит подписчику обновлений.
const ViewLogTail = 200

// Loop - единственная горутина, которая трогает контроллер.
// Принимает кадры из транспорта, события ввода и запросы отладки по очереди,
// каждое обрабатывается до конца.
type Loop struct {
	ctrl    *Controller
	frames  <-chan api.Frame
	inputs  chan Input
	queries chan Query
	updates chan View
}

func NewLoop(ctrl *Controller, frames <-chan api.Frame) *Loop {
	return &Loop{
		ctrl:    ctrl,
		frames:  frames,
		inputs:  make(chan Input, 64),
		queries: make(chan Query, 16),
		updates: make(chan View, 1),
	}
}

// Inputs - канал для адаптера ввода.
func (l *Loop) Inputs() chan<- Input { return l.inputs }

// Updates - свежий View после каждого обработанного события.
// Буфер 1: медленный читатель получает только последнее состояние.
func (l *Loop) Updates() <-chan View { return l.updates }

// Ask отправляет запрос в цикл, уважая отмену контекста.
func (l *Loop) Ask(ctx context.Context, q Query) error {
	select {
	case l.queries <- q:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run обрабатывает события до отмены ctx.
func (l *Loop) Run(ctx context.Context) error {
	log := logger.Component("loop")
	log.Info("Controller loop started.")
	defer log.Info("Controller loop stopped.")

	frames := l.frames
	l.publish()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case f, ok := <-frames:
			if !ok {
				// Транспорт закрылся; продолжаем обслуживать ввод.
				frames = nil
				continue
			}
			l.safely("frame", f.Tag, func() { l.ctrl.HandleFrame(f) })
			l.publish()

		case in := <-l.inputs:
			l.safely("input", "", func() { l.ctrl.HandleInput(in) })
			l.publish()

		case q := <-l.queries:
			l.answer(q)
		}
	}
}

func (l *Loop) answer(q Query) {
	switch msg := q.(type) {
	case GetView:
		msg.Reply <- l.ctrl.Snapshot(msg.LogTail)

	case GetMirror:
		m := l.ctrl.mirror
		dump := MirrorDump{Loaded: m.Loaded(), Revision: m.Revision(), LastSeq: m.LastSeq()}
		if state, err := m.Snapshot(); err != nil {
			dump.Error = err.Error()
		} else {
			dump.State = state
		}
		msg.Reply <- dump
	}
}

// publish кладет свежий View, вытесняя непрочитанный.
func (l *Loop) publish() {
	v := l.ctrl.Snapshot(ViewLogTail)
	select {
	case <-l.updates:
	default:
	}
	select {
	case l.updates <- v:
	default:
	}
}

// safely не дает панике в обработчике остановить цикл.
func (l *Loop) safely(kind, tag string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Component("loop").WithFields(logrus.Fields{
				"kind":  kind,
				"tag":   tag,
				"panic": r,
			}).Error("Handler panicked, event dropped.")
		}
	}()
	fn()
}
