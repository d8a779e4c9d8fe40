// Package config собирает настройки клиента: .env, переменные CLOUDY_*, затем флаги.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"cloudy-sword/internal/chat"
	"cloudy-sword/pkg/api"

	"github.com/joho/godotenv"
)

// Префикс переменных окружения
const envPrefix = "CLOUDY_"

// Config - настройки запуска клиента.
type Config struct {
	ServerURL      string
	Codec          string
	DisplayName    string
	DebugAddr      string // пусто - отладочный HTTP выключен
	ReconnectDelay time.Duration
	CellWidth      int // ширина ячейки терминала в единицах устройства
	CellHeight     int
	LogFile        string

	RecordDir   string  // пусто - сессия не записывается
	Replay      string  // файл записи: проиграть вместо подключения
	ReplaySpeed float64 // множитель скорости проигрывания
}

// Default создает конфиг по умолчанию
func Default() Config {
	return Config{
		ServerURL:      "ws://localhost:5000/ws",
		Codec:          api.CodecJSON,
		ReconnectDelay: 2 * time.Second,
		CellWidth:      10,
		CellHeight:     20,
		LogFile:        "cloudy-client.log",
		ReplaySpeed:    1,
	}
}

// Load читает .env из рабочей директории (если есть), окружение и флаги args.
// Флаги важнее окружения, окружение важнее значений по умолчанию.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if err := cfg.fromEnv(); err != nil {
		return Config{}, err
	}

	fset := flag.NewFlagSet("cloudy-client", flag.ContinueOnError)
	fset.StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "WebSocket URL of the game server")
	fset.StringVar(&cfg.Codec, "codec", cfg.Codec, "Wire codec: json or msgpack")
	fset.StringVar(&cfg.DisplayName, "name", cfg.DisplayName, "Display name sent after connecting")
	fset.StringVar(&cfg.DebugAddr, "debug-addr", cfg.DebugAddr, "Address for the debug HTTP server (empty to disable)")
	fset.DurationVar(&cfg.ReconnectDelay, "reconnect", cfg.ReconnectDelay, "Delay before reconnecting")
	fset.IntVar(&cfg.CellWidth, "cell-width", cfg.CellWidth, "Device units per terminal column")
	fset.IntVar(&cfg.CellHeight, "cell-height", cfg.CellHeight, "Device units per terminal row")
	fset.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file (the terminal is taken by the UI)")
	fset.StringVar(&cfg.RecordDir, "record", cfg.RecordDir, "Directory to save a recording of inbound frames")
	fset.StringVar(&cfg.Replay, "replay", cfg.Replay, "Path to a .csrc recording to replay instead of connecting")
	fset.Float64Var(&cfg.ReplaySpeed, "replay-speed", cfg.ReplaySpeed, "Replay speed multiplier")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() error {
	strs := map[string]*string{
		"SERVER_URL": &c.ServerURL,
		"CODEC":      &c.Codec,
		"NAME":       &c.DisplayName,
		"DEBUG_ADDR": &c.DebugAddr,
		"LOG_FILE":   &c.LogFile,
		"RECORD_DIR": &c.RecordDir,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"CELL_WIDTH":  &c.CellWidth,
		"CELL_HEIGHT": &c.CellHeight,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv(envPrefix + "RECONNECT_DELAY"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sRECONNECT_DELAY: %w", envPrefix, err)
		}
		c.ReconnectDelay = d
	}
	return nil
}

// Validate проверяет значения после всех источников.
func (c Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server url %q: scheme must be ws or wss", c.ServerURL)
	}
	if u.Host == "" {
		return fmt.Errorf("server url %q: missing host", c.ServerURL)
	}
	if _, err := api.NewCodec(c.Codec); err != nil {
		return err
	}
	if c.ReconnectDelay <= 0 {
		return fmt.Errorf("reconnect delay must be positive, got %s", c.ReconnectDelay)
	}
	if c.ReplaySpeed <= 0 {
		return fmt.Errorf("replay speed must be positive, got %g", c.ReplaySpeed)
	}
	if c.CellWidth <= 0 || c.CellHeight <= 0 {
		return fmt.Errorf("cell size must be positive, got %dx%d", c.CellWidth, c.CellHeight)
	}
	if c.LogFile == "" {
		return errors.New("log file must be set: the terminal is taken by the UI")
	}
	if c.DisplayName != "" && !chat.ValidName(c.DisplayName) {
		return fmt.Errorf("display name %q: letters, digits and '-' only, at least 4 characters", c.DisplayName)
	}
	return nil
}
