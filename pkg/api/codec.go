package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// Имена поддерживаемых кодеков
const (
	CodecJSON    = "json"
	CodecMsgpack = "msgpack"
)

// msgpackNil - закодированный nil в msgpack
const msgpackNil = 0xc0

var (
	ErrUnknownCodec = errors.New("unknown codec")
	ErrEmptyPayload = errors.New("empty payload")
)

// Codec упаковывает сообщения в конверт {tag, data} и обратно.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	EncodeFrame(tag string, payload any) ([]byte, error)
	DecodeFrame(data []byte) (Frame, error)
}

// NewCodec возвращает кодек по имени из конфига.
func NewCodec(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", CodecJSON:
		return JSONCodec{}, nil
	case CodecMsgpack:
		return MsgpackCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
}

// Frame - один принятый конверт. Тело декодируется лениво, когда
// маршрутизатор уже знает, какую схему ожидать.
type Frame struct {
	Tag   string
	Body  []byte
	codec Codec
}

// NewFrame собирает кадр вручную (тесты, синтетические события).
func NewFrame(tag string, body []byte, codec Codec) Frame {
	return Frame{Tag: tag, Body: body, codec: codec}
}

// LocalFrame - событие транспорта без тела (connecting/connect/disconnect).
func LocalFrame(tag Tag) Frame {
	return Frame{Tag: tag.String()}
}

// Empty сообщает, что тело отсутствует.
func (f Frame) Empty() bool {
	switch {
	case len(f.Body) == 0:
		return true
	case string(f.Body) == "null":
		return true
	case len(f.Body) == 1 && f.Body[0] == msgpackNil:
		return true
	}
	return false
}

// Decode распаковывает тело кадра в v.
func (f Frame) Decode(v any) error {
	if f.Empty() {
		return ErrEmptyPayload
	}
	if f.codec == nil {
		return fmt.Errorf("frame %q has no codec", f.Tag)
	}
	return f.codec.Unmarshal(f.Body, v)
}

// --- JSON ---

type jsonEnvelope struct {
	Tag  string          `json:"tag"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JSONCodec - кодек по умолчанию.
type JSONCodec struct{}

func (JSONCodec) Name() string { return CodecJSON }

func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (c JSONCodec) EncodeFrame(tag string, payload any) ([]byte, error) {
	env := jsonEnvelope{Tag: tag}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", tag, err)
		}
		env.Data = raw
	}
	return json.Marshal(env)
}

func (c JSONCodec) DecodeFrame(data []byte) (Frame, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Frame{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Tag == "" {
		return Frame{}, errors.New("invalid envelope: missing tag")
	}
	return Frame{Tag: env.Tag, Body: env.Data, codec: c}, nil
}

// --- MessagePack ---

type msgpackEnvelope struct {
	Tag  string             `json:"tag"`
	Data msgpack.RawMessage `json:"data,omitempty"`
}

// MsgpackCodec использует те же json-теги, что и JSON, поэтому
// структуры протокола описаны один раз.
type MsgpackCodec struct{}

func (MsgpackCodec) Name() string { return CodecMsgpack }

func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}

func (c MsgpackCodec) EncodeFrame(tag string, payload any) ([]byte, error) {
	env := msgpackEnvelope{Tag: tag}
	if payload != nil {
		raw, err := c.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", tag, err)
		}
		env.Data = raw
	}
	return c.Marshal(env)
}

func (c MsgpackCodec) DecodeFrame(data []byte) (Frame, error) {
	var env msgpackEnvelope
	if err := c.Unmarshal(data, &env); err != nil {
		return Frame{}, fmt.Errorf("invalid envelope: %w", err)
	}
	if env.Tag == "" {
		return Frame{}, errors.New("invalid envelope: missing tag")
	}
	return Frame{Tag: env.Tag, Body: []byte(env.Data), codec: c}, nil
}
