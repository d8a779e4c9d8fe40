// Package transport держит websocket-соединение с игровым сервером.
// Входящие конверты превращаются в api.Frame и идут в один FIFO-канал,
// исходящие кодируются сразу и ставятся в очередь писателя.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Настройки WebSocket
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // полный снимок боя бывает крупным

	handshakeTimeout  = 5 * time.Second
	maxReconnectDelay = 30 * time.Second

	frameBuffer = 256
	sendBuffer  = 256
)

var (
	ErrClosed     = errors.New("transport closed")
	ErrBufferFull = errors.New("send buffer full")
)

// Options - параметры клиента.
type Options struct {
	URL            string
	Codec          api.Codec
	ReconnectDelay time.Duration
}

// Client - посредник между websocket и циклом контроллера.
type Client struct {
	url    string
	codec  api.Codec
	delay  time.Duration
	dialer websocket.Dialer

	frames chan api.Frame
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

func New(opts Options) *Client {
	codec := opts.Codec
	if codec == nil {
		codec = api.JSONCodec{}
	}
	delay := opts.ReconnectDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Client{
		url:   opts.URL,
		codec: codec,
		delay: delay,
		dialer: websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
		frames: make(chan api.Frame, frameBuffer),
		send:   make(chan []byte, sendBuffer),
	}
}

// Frames - входящие кадры в порядке получения. Закрывается, когда Run завершился.
func (c *Client) Frames() <-chan api.Frame { return c.frames }

// Send кодирует сообщение и ставит его в очередь писателя. Никогда не блокирует:
// при переполненной очереди сообщение отбрасывается.
// Пока соединения нет, очередь копится и уходит после переподключения.
func (c *Client) Send(channel string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	data, err := c.codec.EncodeFrame(channel, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", channel, err)
	}

	select {
	case c.send <- data:
		return nil
	default:
		logger.Component("transport").WithField("channel", channel).Warn("Send buffer full, message dropped.")
		return ErrBufferFull
	}
}

// Run подключается и переподключается до отмены ctx.
// Переходы соединения отдаются в Frames как connecting/connect/disconnect.
func (c *Client) Run(ctx context.Context) error {
	log := logger.Component("transport").WithFields(logrus.Fields{
		"url":   c.url,
		"codec": c.codec.Name(),
	})
	defer c.shutdown()

	delay := c.delay
	for {
		if !c.emit(ctx, api.LocalFrame(api.TagConnecting)) {
			return ctx.Err()
		}

		conn, resp, err := c.dialer.DialContext(ctx, c.url, nil)
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithError(err).WithField("retry_in", delay).Warn("Dial failed")
			if !sleep(ctx, delay) {
				return ctx.Err()
			}
			delay = min(delay*2, maxReconnectDelay)
			continue
		}

		delay = c.delay
		log.Info("Connected to server")
		if !c.emit(ctx, api.LocalFrame(api.TagConnect)) {
			_ = conn.Close()
			return ctx.Err()
		}

		err = c.session(ctx, conn)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Info("Connection lost")
		if !c.emit(ctx, api.LocalFrame(api.TagDisconnect)) {
			return ctx.Err()
		}
		if !sleep(ctx, delay) {
			return ctx.Err()
		}
	}
}

// session обслуживает одно соединение: читатель и писатель до первой ошибки.
func (c *Client) session(ctx context.Context, conn *websocket.Conn) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.readPump(gctx, conn) })
	g.Go(func() error { return c.writePump(ctx, gctx, conn) })
	return g.Wait()
}

// readPump читает конверты с сервера
func (c *Client) readPump(ctx context.Context, conn *websocket.Conn) error {
	log := logger.Component("transport")

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.WithError(err).Warn("failed to set read deadline")
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.WithError(err).Warn("failed to set pong read deadline")
		}
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("WS read error")
			}
			return err
		}
		// Любое сообщение от сервера подтверждает, что соединение живо.
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.WithError(err).Warn("failed to set read deadline")
		}

		f, err := c.codec.DecodeFrame(data)
		if err != nil {
			log.WithError(err).Debug("Dropping malformed envelope")
			continue
		}
		if !c.emit(ctx, f) {
			return ctx.Err()
		}
	}
}

// writePump отправляет очередь на сервер + Ping.
// parent - контекст процесса: при его отмене серверу уходит close-фрейм.
func (c *Client) writePump(parent, ctx context.Context, conn *websocket.Conn) error {
	log := logger.Component("transport")
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		if err := conn.Close(); err != nil {
			log.WithError(err).Debug("failed to close websocket connection in writePump")
		}
	}()

	msgType := websocket.TextMessage
	if c.codec.Name() == api.CodecMsgpack {
		msgType = websocket.BinaryMessage
	}

	for {
		select {
		case <-ctx.Done():
			if parent.Err() != nil {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
				if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
					log.WithError(err).Debug("write close message failed")
				}
			}
			return nil

		case data := <-c.send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.WithError(err).Warn("failed to set write deadline")
			}
			if err := conn.WriteMessage(msgType, data); err != nil {
				log.WithError(err).Debug("write message failed")
				return err
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.WithError(err).Debug("ping failed")
				return err
			}
		}
	}
}

// emit кладет кадр в очередь, уважая отмену. false - ctx отменен.
func (c *Client) emit(ctx context.Context, f api.Frame) bool {
	select {
	case c.frames <- f:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.frames)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
