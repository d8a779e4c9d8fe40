package recording

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cloudy-sword/pkg/api"
	"cloudy-sword/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(250 * time.Millisecond)
	return t
}

func jsonFrame(tag, body string) api.Frame {
	return api.NewFrame(tag, []byte(body), api.JSONCodec{})
}

func TestRecorder_SaveAndLoad(t *testing.T) {
	clock := &stepClock{now: time.UnixMilli(1_700_000_000_000)}
	rec := NewRecorder(api.CodecJSON, clock.Now)

	rec.Record(api.LocalFrame(api.TagConnect))
	rec.Record(jsonFrame("clientid", `7`))
	rec.Record(jsonFrame("message", `"hello"`))
	require.Equal(t, 3, rec.Len())

	dir := t.TempDir()
	path, err := rec.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "session_1700000000000.csrc"), path)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, api.CodecJSON, s.Codec)
	assert.Equal(t, int64(1_700_000_000_000), s.Started.UnixMilli())
	require.Len(t, s.Frames, 3)

	assert.Equal(t, Entry{Offset: 250 * time.Millisecond, Tag: "connect"}, s.Frames[0])
	assert.Equal(t, "clientid", s.Frames[1].Tag)
	assert.Equal(t, []byte(`"hello"`), s.Frames[2].Body)
	assert.Equal(t, 750*time.Millisecond, s.Frames[2].Offset)
}

func TestReadBinary_Rejects(t *testing.T) {
	var good bytes.Buffer
	require.NoError(t, writeBinary(&good, &Session{Codec: "json", Frames: []Entry{{Tag: "kick"}}}))

	tests := []struct {
		name string
		data []byte
		msg  string
	}{
		{"empty", nil, "header"},
		{"bad magic", append([]byte("XXXX"), good.Bytes()[4:]...), "invalid magic"},
		{"truncated frame", good.Bytes()[:good.Len()-2], "frame 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readBinary(bytes.NewReader(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestWriteBinary_Limits(t *testing.T) {
	err := writeBinary(&bytes.Buffer{}, &Session{Codec: "json", Frames: []Entry{{Tag: strings.Repeat("t", 256)}}})
	assert.ErrorContains(t, err, "tag too long")

	err = writeBinary(&bytes.Buffer{}, &Session{Codec: "protobuf3"})
	assert.ErrorContains(t, err, "codec name too long")
}

func TestRecorder_Tee(t *testing.T) {
	rec := NewRecorder(api.CodecJSON, nil)
	in := make(chan api.Frame, 2)
	out := rec.Tee(context.Background(), in)

	in <- jsonFrame("message", `"a"`)
	in <- jsonFrame("message", `"b"`)
	close(in)

	var tags []string
	for f := range out {
		tags = append(tags, string(f.Body))
	}
	assert.Equal(t, []string{`"a"`, `"b"`}, tags)
	assert.Equal(t, 2, rec.Len())
}

func TestSession_PlayDecodes(t *testing.T) {
	s := &Session{Codec: api.CodecJSON, Frames: []Entry{
		{Offset: 0, Tag: "connect"},
		{Offset: 10 * time.Millisecond, Tag: "clientid", Body: []byte(`7`)},
	}}

	out := make(chan api.Frame, 4)
	require.NoError(t, s.Play(context.Background(), out, 100))

	var msgs []api.Message
	for f := range out {
		msg, err := api.Decode(f)
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}
	assert.Equal(t, []api.Message{api.Connected{}, api.AssignedIdentity{ID: "7"}}, msgs)
}

func TestSession_PlayCancelled(t *testing.T) {
	s := &Session{Codec: api.CodecJSON, Frames: []Entry{
		{Offset: time.Second, Tag: "kick"},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan api.Frame, 1)
	assert.ErrorIs(t, s.Play(ctx, out, 1), context.Canceled)
	_, open := <-out
	assert.False(t, open)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Send(api.OutPing, nil))
}
