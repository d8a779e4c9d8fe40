// Package recording пишет входящие кадры сессии в файл и проигрывает их обратно.
// Запись нужна, чтобы воспроизвести рассинхрон зеркала без сервера.
package recording

import "time"

const (
	MagicHeader string = `CSRC` // 4 байта
	Version1    uint32 = 1

	FileExt = ".csrc"

	maxTagLen  = 255
	maxBodyLen = 1 << 20
)

// FileHeader - заголовок файла целиком, для binary.Write: только массивы и числа.
type FileHeader struct {
	Magic      [4]byte // 4 байта
	Version    uint32  // 4 байта
	Started    int64   // 8 байт, unix ms
	Codec      [8]byte // имя кодека тел кадров, дополнено нулями
	FrameCount int32   // 4 байта
}

// FrameHeader - заголовок каждого кадра.
type FrameHeader struct {
	OffsetMs uint32 // от начала записи
	TagLen   uint8
	BodyLen  uint32
}

// Entry - один записанный кадр.
type Entry struct {
	Offset time.Duration `json:"offset"`
	Tag    string        `json:"tag"`
	Body   []byte        `json:"body,omitempty"`
}

// Session - полная запись соединения.
type Session struct {
	Codec   string    `json:"codec"`
	Started time.Time `json:"started"`
	Frames  []Entry   `json:"frames"`
}
