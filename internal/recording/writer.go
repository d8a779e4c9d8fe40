package recording

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"
)

// Recorder копит кадры в памяти; файл пишется один раз, при Save.
type Recorder struct {
	mu      sync.Mutex
	session Session
	now     func() time.Time
}

func NewRecorder(codec string, now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		session: Session{Codec: codec, Started: now()},
		now:     now,
	}
}

// Record добавляет кадр.
func (r *Recorder) Record(f api.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session.Frames = append(r.session.Frames, Entry{
		Offset: r.now().Sub(r.session.Started),
		Tag:    f.Tag,
		Body:   append([]byte(nil), f.Body...),
	})
}

// Len - число записанных кадров.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.session.Frames)
}

// Tee пропускает кадры из in дальше, записывая каждый.
// Выходной канал закрывается вместе с in или при отмене ctx.
func (r *Recorder) Tee(ctx context.Context, in <-chan api.Frame) <-chan api.Frame {
	out := make(chan api.Frame, cap(in))
	go func() {
		defer close(out)
		for f := range in {
			r.Record(f)
			select {
			case out <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Save пишет запись в dir и возвращает путь к файлу.
func (r *Recorder) Save(dir string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("session_%d%s", r.session.Started.UnixMilli(), FileExt)
	path := filepath.Join(dir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := writeBinary(w, &r.session); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	logger.Component("recording").WithField("frames", len(r.session.Frames)).Infof("Session saved to %s", path)
	return path, nil
}

func writeBinary(w io.Writer, s *Session) error {
	if len(s.Codec) > 8 {
		return fmt.Errorf("codec name too long: %q", s.Codec)
	}

	// 1. Заголовок файла
	header := FileHeader{
		Version:    Version1,
		Started:    s.Started.UnixMilli(),
		FrameCount: int32(len(s.Frames)),
	}
	copy(header.Magic[:], MagicHeader)
	copy(header.Codec[:], s.Codec)

	if err := binary.Write(w, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// 2. Кадры
	for i, e := range s.Frames {
		if len(e.Tag) > maxTagLen {
			return fmt.Errorf("frame %d: tag too long: %d", i, len(e.Tag))
		}
		if len(e.Body) > maxBodyLen {
			return fmt.Errorf("frame %d: body too long: %d", i, len(e.Body))
		}

		fh := FrameHeader{
			OffsetMs: uint32(e.Offset.Milliseconds()),
			TagLen:   uint8(len(e.Tag)),
			BodyLen:  uint32(len(e.Body)),
		}
		if err := binary.Write(w, binary.LittleEndian, &fh); err != nil {
			return err
		}
		if _, err := io.WriteString(w, e.Tag); err != nil {
			return err
		}
		if len(e.Body) > 0 {
			if _, err := w.Write(e.Body); err != nil {
				return err
			}
		}
	}
	return nil
}
