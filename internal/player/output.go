package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is the audio device the local backend plays through.
type Output interface {
	// Init prepares the device for format and returns the device sample rate.
	Init(format beep.Format) (beep.SampleRate, error)
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// speakerOutput is the process-wide beep speaker. It is initialized once,
// at the sample rate of the first stream played.
type speakerOutput struct {
	mu          sync.Mutex
	initialized bool
	sampleRate  beep.SampleRate
}

var defaultOutput = &speakerOutput{}

func (o *speakerOutput) Init(format beep.Format) (beep.SampleRate, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.initialized {
		if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
			return 0, err
		}
		o.sampleRate = format.SampleRate
		o.initialized = true
	}
	return o.sampleRate, nil
}

func (o *speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (o *speakerOutput) Clear() { speaker.Clear() }
func (o *speakerOutput) Lock() { speaker.Lock() }
func (o *speakerOutput) Unlock() { speaker.Unlock() }
