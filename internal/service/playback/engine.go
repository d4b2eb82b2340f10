package playback

import (
	"log"
	"sync"
)

// Output is the audio device one clip at a time is rendered through. Start
// configures the device for the clip's format, Write delivers PCM frames,
// Close ends the active render. The device itself is reused across plays.
type Output interface {
	Start(sampleRate, channels int) error
	Write(pcm []byte) (int, error)
	Close() error
}

// writeChunk keeps Write calls small so Stop interrupts promptly.
const writeChunk = 4800

// Engine decodes received audio payloads and plays them through an Output.
// States: Stopped -> Decoding -> Playing -> Stopped (natural end), or
// Playing -> Stopped on explicit Stop. At most one playback is active.
type Engine struct {
	out Output

	mu      sync.Mutex
	playing bool
	stop    chan struct{}
	done    chan struct{}
	onEnded func()
}

// NewEngine builds an engine around a reusable output device.
func NewEngine(out Output) *Engine {
	return &Engine{out: out}
}

// OnEnded registers the natural-completion notification. It fires only when
// a clip plays to its end, never on explicit Stop.
func (e *Engine) OnEnded(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onEnded = fn
}

// IsPlaying reports whether a clip is currently rendering.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Play decodes the payload and starts playback, stopping any clip already
// playing first. The prior render has fully released the device before the
// new clip's render session opens. A decode failure leaves the engine
// Stopped.
func (e *Engine) Play(payload []byte, mimeType string) error {
	e.Stop()

	clip, err := Decode(payload, mimeType)
	if err != nil {
		return err
	}

	if err := e.out.Start(clip.SampleRate, clip.Channels); err != nil {
		return err
	}

	e.mu.Lock()
	e.playing = true
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	stop, done := e.stop, e.done
	e.mu.Unlock()

	go e.render(clip, stop, done)
	return nil
}

// Stop halts playback and waits until the render goroutine has released the
// device. Safe to call when already stopped.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.playing {
		e.playing = false
		close(e.stop)
	}
	done := e.done
	e.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (e *Engine) render(clip Clip, stop, done chan struct{}) {
	// finish releases the device and then signals exit; callers waiting on
	// done therefore never observe a half-open render session.
	finish := func() {
		if err := e.out.Close(); err != nil {
			log.Printf("[playback] closing output: %v", err)
		}
		close(done)
	}

	pcm := clip.PCM
	for len(pcm) > 0 {
		select {
		case <-stop:
			finish()
			return
		default:
		}

		n := writeChunk
		if n > len(pcm) {
			n = len(pcm)
		}
		if _, err := e.out.Write(pcm[:n]); err != nil {
			log.Printf("[playback] writing frames: %v", err)
			e.mu.Lock()
			if e.stop == stop {
				e.playing = false
			}
			e.mu.Unlock()
			finish()
			return
		}
		pcm = pcm[n:]
	}

	// Natural end: the only implicit way playing becomes false. A render
	// superseded by a newer Play must not touch the newer clip's state.
	e.mu.Lock()
	ended := e.stop == stop && e.playing
	if ended {
		e.playing = false
	}
	fn := e.onEnded
	e.mu.Unlock()

	// The device is released before the notification fires, so the callback
	// may start the next clip without racing this render's teardown.
	finish()
	if ended && fn != nil {
		fn()
	}
}
