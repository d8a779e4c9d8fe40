package recording

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"
)

// Паузы длиннее этой при проигрывании сокращаются.
const maxGap = 2 * time.Second

// Load читает запись из файла.
func Load(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return readBinary(bufio.NewReader(f))
}

func readBinary(r io.Reader) (*Session, error) {
	// 1. Заголовок целиком
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicHeader {
		return nil, fmt.Errorf("invalid magic")
	}
	if header.Version != Version1 {
		return nil, fmt.Errorf("unsupported version: %d (expected %d)", header.Version, Version1)
	}
	if header.FrameCount < 0 {
		return nil, fmt.Errorf("negative frame count: %d", header.FrameCount)
	}

	s := &Session{
		Codec:   string(bytes.TrimRight(header.Codec[:], "\x00")),
		Started: time.UnixMilli(header.Started),
		Frames:  make([]Entry, 0, header.FrameCount),
	}

	// 2. Кадры
	for i := 0; i < int(header.FrameCount); i++ {
		var fh FrameHeader
		if err := binary.Read(r, binary.LittleEndian, &fh); err != nil {
			return nil, fmt.Errorf("frame %d header: %w", i, err)
		}
		if fh.BodyLen > maxBodyLen {
			return nil, fmt.Errorf("frame %d: body too long: %d", i, fh.BodyLen)
		}

		tag := make([]byte, fh.TagLen)
		if _, err := io.ReadFull(r, tag); err != nil {
			return nil, fmt.Errorf("frame %d tag: %w", i, err)
		}
		e := Entry{Offset: time.Duration(fh.OffsetMs) * time.Millisecond, Tag: string(tag)}
		if fh.BodyLen > 0 {
			e.Body = make([]byte, fh.BodyLen)
			if _, err := io.ReadFull(r, e.Body); err != nil {
				return nil, fmt.Errorf("frame %d body: %w", i, err)
			}
		}
		s.Frames = append(s.Frames, e)
	}
	return s, nil
}

// Play отдает кадры в out с исходными паузами, деленными на speed.
// out закрывается по окончании.
func (s *Session) Play(ctx context.Context, out chan<- api.Frame, speed float64) error {
	defer close(out)

	codec, err := api.NewCodec(s.Codec)
	if err != nil {
		return err
	}
	if speed <= 0 {
		speed = 1
	}
	log := logger.Component("recording")
	log.WithField("frames", len(s.Frames)).Info("Replaying session")

	var prev time.Duration
	for _, e := range s.Frames {
		wait := min(time.Duration(float64(e.Offset-prev)/speed), maxGap)
		prev = e.Offset
		if wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			}
		}

		select {
		case out <- api.NewFrame(e.Tag, e.Body, codec):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	log.Info("Replay finished")
	return nil
}

// Discard - исходящая сторона для режима проигрывания: сервера нет,
// сообщения только пишутся в лог.
type Discard struct{}

func (Discard) Send(channel string, payload any) error {
	logger.Component("recording").WithField("channel", channel).Debugf("Replay mode, outbound dropped: %v", payload)
	return nil
}
