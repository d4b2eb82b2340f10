package capture

import (
	"bytes"
	"context"
	"sync"

	"github.com/zhouzirui/flash-studio/backend/internal/model/chat"
)

// Source is an audio input device producing encoded chunks. Open acquires
// the device and starts delivery; Close releases it, after which the chunk
// channel is closed by the implementation.
type Source interface {
	Open(ctx context.Context) (<-chan []byte, error)
	Close() error
}

// Recorder buffers encoded chunks from a Source into one audio attachment.
// Only one recording may be active at a time; Start while recording and Stop
// while idle are state-guarded no-ops.
type Recorder struct {
	source   Source
	mimeType string

	mu        sync.Mutex
	recording bool
	buf       bytes.Buffer
	drained   chan struct{}
}

// NewRecorder wires a recorder to its input device. mimeType tags the
// finalized attachment (for example audio/webm).
func NewRecorder(source Source, mimeType string) *Recorder {
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	return &Recorder{source: source, mimeType: mimeType}
}

// IsRecording reports whether a recording is active. Input is expected to be
// disabled while this is true.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Start acquires the input device and begins buffering chunks. No-op when a
// recording is already active. A device acquisition failure leaves the
// recorder idle with nothing half-initialized. The lock is held across the
// acquisition so concurrent Starts cannot both open the device.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording {
		return nil
	}

	chunks, err := r.source.Open(ctx)
	if err != nil {
		return err
	}

	r.recording = true
	r.buf.Reset()
	r.drained = make(chan struct{})
	drained := r.drained

	go func() {
		defer close(drained)
		for chunk := range chunks {
			r.mu.Lock()
			r.buf.Write(chunk)
			r.mu.Unlock()
		}
	}()

	return nil
}

// Stop finalizes the buffered chunks into one audio attachment and releases
// the input device. Returns false when no recording was active.
func (r *Recorder) Stop() (chat.Attachment, bool) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return chat.Attachment{}, false
	}
	r.recording = false
	drained := r.drained
	r.mu.Unlock()

	// Releasing the device closes the chunk channel; wait for the tail.
	_ = r.source.Close()
	<-drained

	r.mu.Lock()
	defer r.mu.Unlock()
	data := append([]byte(nil), r.buf.Bytes()...)
	r.buf.Reset()

	return chat.Attachment{
		Data:     data,
		MIMEType: r.mimeType,
		Kind:     chat.MediaAudio,
	}, true
}
