package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"cloudy-sword/internal/recording"
	"cloudy-sword/pkg/api"
)

func main() {
	run(os.Args[1:], os.Stdout)
}

func run(args []string, w io.Writer) {
	if len(args) < 1 {
		printHelp(w)
		return
	}

	switch args[0] {
	case "builddate":
		fmt.Fprintln(w, time.Now().UTC().Format("2006-01-02"))
	case "info":
		if s := load(args, w); s != nil {
			info(w, s)
		}
	case "dump":
		if s := load(args, w); s != nil {
			dump(w, s)
		}
	default:
		printHelp(w)
	}
}

func load(args []string, w io.Writer) *recording.Session {
	if len(args) < 2 {
		fmt.Fprintf(w, "Usage: csrc %s <file.csrc>\n", args[0])
		return nil
	}
	s, err := recording.Load(args[1])
	if err != nil {
		fmt.Fprintf(w, "Invalid recording: %v\n", err)
		return nil
	}
	return s
}

func info(w io.Writer, s *recording.Session) {
	var length time.Duration
	if n := len(s.Frames); n > 0 {
		length = s.Frames[n-1].Offset
	}
	fmt.Fprintf(w, "codec:   %s\n", s.Codec)
	fmt.Fprintf(w, "started: %s\n", s.Started.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "frames:  %d\n", len(s.Frames))
	fmt.Fprintf(w, "length:  %s\n", length)
}

// dump печатает кадры по одному JSON-объекту на строку; тела msgpack
// перекодируются в JSON, чтобы их можно было читать.
func dump(w io.Writer, s *recording.Session) {
	codec, err := api.NewCodec(s.Codec)
	if err != nil {
		fmt.Fprintf(w, "Invalid recording: %v\n", err)
		return
	}
	enc := json.NewEncoder(w)
	for _, e := range s.Frames {
		line := struct {
			Offset int64  `json:"offsetMs"`
			Tag    string `json:"tag"`
			Data   any    `json:"data,omitempty"`
		}{Offset: e.Offset.Milliseconds(), Tag: e.Tag}

		if f := api.NewFrame(e.Tag, e.Body, codec); !f.Empty() {
			var data any
			if err := f.Decode(&data); err != nil {
				data = fmt.Sprintf("<undecodable: %v>", err)
			}
			line.Data = data
		}
		_ = enc.Encode(line)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, `csrc - просмотр записей сессии клиента
Commands:
  builddate          - сегодняшняя дата для -ldflags version.BuildDate
  info <file.csrc>   - заголовок записи
  dump <file.csrc>   - кадры построчно в JSON`)
}
