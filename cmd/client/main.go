package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"cloudy-sword/internal/config"
	"cloudy-sword/internal/controller"
	"cloudy-sword/internal/debug"
	"cloudy-sword/internal/hexbattle"
	"cloudy-sword/internal/recording"
	"cloudy-sword/internal/terminal"
	"cloudy-sword/internal/transport"
	"cloudy-sword/internal/version"
	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. Конфигурация
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logger.Log.Fatal("Invalid configuration: ", err)
	}

	// Терминал занят интерфейсом, логи уходят в файл
	if err := logger.InitFile(cfg.LogFile); err != nil {
		logger.InitWithOutput(os.Stderr)
		logger.Log.Fatal("Cannot open log file: ", err)
	}

	build := version.Current()
	logger.Log.WithFields(build.Fields()).Info("Starting cloudy-sword client")
	logger.Log.WithFields(logrus.Fields{
		"server": cfg.ServerURL,
		"codec":  cfg.Codec,
		"debug":  cfg.DebugAddr,
	}).Info("Configuration loaded")

	codec, err := api.NewCodec(cfg.Codec)
	if err != nil {
		logger.Log.Fatal(err)
	}

	// Graceful Shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	// 2. Источник кадров: сервер или запись сессии
	var (
		out      controller.Outbox
		frames   <-chan api.Frame
		recorder *recording.Recorder
	)
	if cfg.Replay != "" {
		logger.Log.Info("Mode: Replay")
		session, err := recording.Load(cfg.Replay)
		if err != nil {
			logger.Log.Fatal("Failed to load recording: ", err)
		}
		replayed := make(chan api.Frame, 64)
		g.Go(func() error { return session.Play(gctx, replayed, cfg.ReplaySpeed) })
		out, frames = recording.Discard{}, replayed
	} else {
		conn := transport.New(transport.Options{
			URL:            cfg.ServerURL,
			Codec:          codec,
			ReconnectDelay: cfg.ReconnectDelay,
		})
		g.Go(func() error { return conn.Run(gctx) })
		out, frames = conn, conn.Frames()

		if cfg.RecordDir != "" {
			recorder = recording.NewRecorder(codec.Name(), nil)
			frames = recorder.Tee(gctx, frames)
		}
	}

	// 3. Цикл контроллера и терминал
	ctrl := controller.New(hexbattle.New(), out, controller.Options{DisplayName: cfg.DisplayName})
	loop := controller.NewLoop(ctrl, frames)

	screen, err := tcell.NewScreen()
	if err != nil {
		logger.Log.Fatal("Failed to create screen: ", err)
	}
	if err := screen.Init(); err != nil {
		logger.Log.Fatal("Failed to init screen: ", err)
	}
	ui := terminal.New(screen, cfg.CellWidth, cfg.CellHeight, loop.Inputs(), loop.Updates())

	g.Go(func() error { return loop.Run(gctx) })
	g.Go(func() error { return ui.Run(gctx) })
	if cfg.DebugAddr != "" {
		g.Go(func() error { return debug.New(cfg.DebugAddr, loop).Run(gctx) })
	}

	err = g.Wait()
	if recorder != nil {
		if _, saveErr := recorder.Save(cfg.RecordDir); saveErr != nil {
			logger.Log.WithError(saveErr).Error("Failed to save recording")
		}
	}
	switch {
	case err == nil, errors.Is(err, terminal.ErrQuit), errors.Is(err, context.Canceled):
		logger.Log.Info("Done.")
	default:
		logger.Log.Fatal("Client stopped: ", err)
	}
}
