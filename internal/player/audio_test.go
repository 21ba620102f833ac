package player

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// silence is a seekable stream of n silent samples.
type silence struct {
	n, pos int
	closed bool
}

func (s *silence) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= s.n {
		return 0, false
	}
	n := min(len(samples), s.n-s.pos)
	for i := range n {
		samples[i] = [2]float64{}
	}
	s.pos += n
	return n, true
}

func (s *silence) Err() error { return nil }
func (s *silence) Len() int { return s.n }
func (s *silence) Position() int { return s.pos }

func (s *silence) Seek(p int) error {
	s.pos = p
	return nil
}

func (s *silence) Close() error {
	s.closed = true
	return nil
}

func silenceDecoder(n int) Decoder {
	return func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		_, _ = io.Copy(io.Discard, rc)
		rc.Close()
		return &silence{n: n}, beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}, nil
	}
}

// fakeOutput stands in for the speaker; drain pulls samples on demand.
type fakeOutput struct {
	mu      sync.Mutex
	lock    sync.Mutex
	streams []beep.Streamer
	cleared int
}

func (o *fakeOutput) Init(format beep.Format) (beep.SampleRate, error) {
	return format.SampleRate, nil
}

func (o *fakeOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streams = append(o.streams, s)
}

func (o *fakeOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.streams = nil
	o.cleared++
}

func (o *fakeOutput) Lock() { o.lock.Lock() }
func (o *fakeOutput) Unlock() { o.lock.Unlock() }

func (o *fakeOutput) drain(t *testing.T) {
	t.Helper()
	o.mu.Lock()
	require.NotEmpty(t, o.streams, "nothing playing")
	s := o.streams[len(o.streams)-1]
	o.mu.Unlock()

	buf := make([][2]float64, 512)
	for range 1000 {
		o.Lock()
		_, ok := s.Stream(buf)
		o.Unlock()
		if !ok {
			return
		}
	}
	t.Fatal("stream did not end")
}

func nextEvent(t *testing.T, b *AudioBackend) Event {
	t.Helper()
	select {
	case e := <-b.Events():
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func audioServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.mp3" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ID3 fake audio"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAudioBackend_Lifecycle(t *testing.T) {
	srv := audioServer(t)
	out := &fakeOutput{}
	b := NewAudioBackend(WithOutput(out), WithDecoder(silenceDecoder(2048)))

	media := srv.URL + "/clip.mp3"
	require.NoError(t, b.Open(media))

	e := nextEvent(t, b)
	assert.Equal(t, EventReady, e.Kind)
	assert.Equal(t, media, e.Media)
	assert.Equal(t, Paused, b.State())

	require.NoError(t, b.Play())
	assert.Equal(t, EventPlaying, nextEvent(t, b).Kind)
	assert.Equal(t, Playing, b.State())

	require.NoError(t, b.Pause())
	assert.Equal(t, EventPaused, nextEvent(t, b).Kind)

	require.NoError(t, b.Play())
	assert.Equal(t, EventPlaying, nextEvent(t, b).Kind)

	out.drain(t)
	e = nextEvent(t, b)
	assert.Equal(t, EventEnded, e.Kind)
	assert.Equal(t, media, e.Media)
	assert.Equal(t, Stopped, b.State())
}

func TestAudioBackend_FetchError(t *testing.T) {
	srv := audioServer(t)
	b := NewAudioBackend(WithOutput(&fakeOutput{}), WithDecoder(silenceDecoder(16)))

	require.NoError(t, b.Open(srv.URL+"/missing.mp3"))

	e := nextEvent(t, b)
	assert.Equal(t, EventError, e.Kind)
	assert.Error(t, e.Err)
}

func TestAudioBackend_DetachStopsPlayback(t *testing.T) {
	srv := audioServer(t)
	out := &fakeOutput{}
	b := NewAudioBackend(WithOutput(out), WithDecoder(silenceDecoder(2048)))

	require.NoError(t, b.Open(srv.URL+"/clip.mp3"))
	require.Equal(t, EventReady, nextEvent(t, b).Kind)

	require.NoError(t, b.Detach())

	assert.Equal(t, Stopped, b.State())
	assert.Equal(t, 1, out.cleared)
	// Play after detach is ignored.
	require.NoError(t, b.Play())
	select {
	case e := <-b.Events():
		t.Errorf("unexpected event after detach: %v", e.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestAudioBackend_VolumeAppliesToLoadedStream(t *testing.T) {
	srv := audioServer(t)
	b := NewAudioBackend(WithOutput(&fakeOutput{}), WithDecoder(silenceDecoder(16)))

	require.NoError(t, b.SetVolume(50))
	require.NoError(t, b.Mute())
	require.NoError(t, b.Open(srv.URL+"/clip.mp3"))
	require.Equal(t, EventReady, nextEvent(t, b).Kind)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.InDelta(t, -1.0, b.volume.Volume, 1e-9)
	assert.True(t, b.volume.Silent)
}

func TestLevelToVolume(t *testing.T) {
	tests := []struct {
		level int
		want  float64
	}{
		{100, 0},
		{50, -1},
		{25, -2},
		{0, -10},
		{-5, -10},
		{150, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, levelToVolume(tt.level), 1e-9, "level %d", tt.level)
	}
}

func TestClampVolume(t *testing.T) {
	assert.Equal(t, 0, ClampVolume(-1))
	assert.Equal(t, 42, ClampVolume(42))
	assert.Equal(t, 100, ClampVolume(101))
}
