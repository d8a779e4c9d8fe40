// Package terminal - текстовый интерфейс клиента на tcell: переводит мышь и
// клавиатуру в события контроллера и рисует присланные им снимки.
package terminal

import (
	"context"
	"errors"

	"cloudy-sword/internal/controller"
	"cloudy-sword/pkg/logger"

	"github.com/gdamore/tcell/v2"
)

// ErrQuit - пользователь закрыл интерфейс.
var ErrQuit = errors.New("quit requested")

// UI владеет экраном. Экран должен быть уже инициализирован (Init).
type UI struct {
	screen  tcell.Screen
	tr      *Translator
	inputs  chan<- controller.Input
	updates <-chan controller.View
	view    controller.View
}

func New(screen tcell.Screen, cellW, cellH int, inputs chan<- controller.Input, updates <-chan controller.View) *UI {
	return &UI{
		screen:  screen,
		tr:      NewTranslator(cellW, cellH),
		inputs:  inputs,
		updates: updates,
	}
}

// Run читает события экрана до выхода пользователя или отмены ctx.
// Экран закрывается (Fini) при возврате.
func (u *UI) Run(ctx context.Context) error {
	log := logger.Component("terminal")
	u.screen.EnableMouse()
	defer u.screen.Fini()

	// Асинхронное чтение событий, как у сессий ssh-сервера
	events := make(chan tcell.Event, 32)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := u.screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	Draw(u.screen, u.view, u.tr)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case v := <-u.updates:
			u.view = v
			Draw(u.screen, u.view, u.tr)

		case ev, ok := <-events:
			if !ok {
				return ErrQuit
			}
			if _, resized := ev.(*tcell.EventResize); resized {
				u.screen.Sync()
				Draw(u.screen, u.view, u.tr)
				continue
			}

			inputs, quit := u.tr.Translate(ev)
			if quit {
				log.Info("Quit requested from the terminal")
				return ErrQuit
			}
			for _, in := range inputs {
				select {
				case u.inputs <- in:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			// Строка ввода меняется без участия контроллера.
			Draw(u.screen, u.view, u.tr)
		}
	}
}
