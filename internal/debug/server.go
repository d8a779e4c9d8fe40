// Package debug - HTTP-окно во внутреннее состояние клиента.
// Все чтения идут запросами в цикл контроллера, поэтому состояние
// никогда не читается из чужой горутины.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cloudy-sword/internal/controller"
	"cloudy-sword/internal/version"
	"cloudy-sword/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Сколько ждем ответа от цикла контроллера
const queryTimeout = 2 * time.Second

// Asker - то, что умеет controller.Loop.
type Asker interface {
	Ask(ctx context.Context, q controller.Query) error
}

// Server предоставляет доступ к состоянию контроллера
type Server struct {
	Addr  string
	loop  Asker
	build version.Info
}

func New(addr string, loop Asker) *Server {
	return &Server{Addr: addr, loop: loop, build: version.Current()}
}

// Handler собирает роутер.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/debug", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/log", s.handleLog)
		r.Get("/mirror", s.handleMirror)
	})
	return r
}

// Run слушает Addr до отмены ctx.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Component("debug").WithError(err).Warn("Debug server shutdown failed")
		}
	}()

	logger.Component("debug").Infof("Debug server listening on %s", s.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.build)
}

// /debug/state?log=N - View с последними N строками журнала
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	tail := controller.ViewLogTail
	if raw := r.URL.Query().Get("log"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "log must be a non-negative integer", http.StatusBadRequest)
			return
		}
		tail = n
	}

	view, ok := s.view(w, r, tail)
	if ok {
		writeJSON(w, view)
	}
}

// /debug/log - весь журнал сообщений
func (s *Server) handleLog(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r, 0)
	if ok {
		writeJSON(w, view.Log)
	}
}

// /debug/mirror - сериализованное зеркало боя
func (s *Server) handleMirror(w http.ResponseWriter, r *http.Request) {
	reply := make(chan controller.MirrorDump, 1)
	dump, ok := ask(w, r, s.loop, controller.GetMirror{Reply: reply}, reply)
	if ok {
		writeJSON(w, dump)
	}
}

func (s *Server) view(w http.ResponseWriter, r *http.Request, tail int) (controller.View, bool) {
	reply := make(chan controller.View, 1)
	return ask(w, r, s.loop, controller.GetView{LogTail: tail, Reply: reply}, reply)
}

// ask отправляет запрос в цикл и ждет ответ не дольше queryTimeout.
func ask[T any](w http.ResponseWriter, r *http.Request, loop Asker, q controller.Query, reply <-chan T) (T, bool) {
	var zero T
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	if err := loop.Ask(ctx, q); err != nil {
		http.Error(w, "controller unavailable", http.StatusServiceUnavailable)
		return zero, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-ctx.Done():
		http.Error(w, "controller did not answer", http.StatusGatewayTimeout)
		return zero, false
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Component("debug").WithError(err).Warn("Failed to encode response")
	}
}
