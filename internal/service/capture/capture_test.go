package capture_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/zhouzirui/flash-studio/backend/internal/model/chat"
	"github.com/zhouzirui/flash-studio/backend/internal/service/capture"
)

func TestFromFileClassifiesImage(t *testing.T) {
	att, err := capture.FromFile("photo.png", "image/png", []byte{0x89, 0x50})
	if err != nil {
		t.Fatalf("FromFile err: %v", err)
	}
	if att.Kind != chat.MediaImage {
		t.Fatalf("expected image kind, got %s", att.Kind)
	}
	if att.MIMEType != "image/png" {
		t.Fatalf("unexpected mime: %s", att.MIMEType)
	}
}

func TestFromFileClassifiesAudio(t *testing.T) {
	att, err := capture.FromFile("clip.webm", "audio/webm", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("FromFile err: %v", err)
	}
	if att.Kind != chat.MediaAudio {
		t.Fatalf("expected audio kind, got %s", att.Kind)
	}
}

func TestFromFileInfersMIMEFromExtension(t *testing.T) {
	att, err := capture.FromFile("photo.png", "", []byte{1})
	if err != nil {
		t.Fatalf("FromFile err: %v", err)
	}
	if att.MIMEType != "image/png" {
		t.Fatalf("expected inferred image/png, got %s", att.MIMEType)
	}
}

func TestFromFileRejectsEmptyPayload(t *testing.T) {
	if _, err := capture.FromFile("empty.png", "image/png", nil); !errors.Is(err, capture.ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

type fakeSource struct {
	mu      sync.Mutex
	ch      chan []byte
	openErr error
	opens   int
}

func (s *fakeSource) Open(context.Context) (<-chan []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return nil, s.openErr
	}
	s.opens++
	s.ch = make(chan []byte, 8)
	return s.ch, nil
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ch != nil {
		close(s.ch)
		s.ch = nil
	}
	return nil
}

func (s *fakeSource) feed(chunk []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ch <- chunk
}

func (s *fakeSource) openCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func TestRecorderRoundTrip(t *testing.T) {
	source := &fakeSource{}
	recorder := capture.NewRecorder(source, "audio/webm")

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	if !recorder.IsRecording() {
		t.Fatal("recorder should be recording")
	}

	source.feed([]byte("abc"))
	source.feed([]byte("def"))

	att, ok := recorder.Stop()
	if !ok {
		t.Fatal("Stop should finalize an active recording")
	}
	if att.Kind != chat.MediaAudio {
		t.Fatalf("expected audio kind, got %s", att.Kind)
	}
	if !bytes.Equal(att.Data, []byte("abcdef")) {
		t.Fatalf("unexpected payload: %q", att.Data)
	}
	if recorder.IsRecording() {
		t.Fatal("recorder should be idle after stop")
	}
}

func TestRecorderStartWhileRecordingIsNoOp(t *testing.T) {
	source := &fakeSource{}
	recorder := capture.NewRecorder(source, "audio/webm")

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("Start err: %v", err)
	}
	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("second Start err: %v", err)
	}
	if source.opens != 1 {
		t.Fatalf("device acquired %d times, want 1", source.opens)
	}
	recorder.Stop()
}

func TestRecorderConcurrentStartAcquiresDeviceOnce(t *testing.T) {
	source := &fakeSource{}
	recorder := capture.NewRecorder(source, "audio/webm")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := recorder.Start(context.Background()); err != nil {
				t.Errorf("Start err: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := source.openCount(); got != 1 {
		t.Fatalf("device acquired %d times, want 1", got)
	}
	recorder.Stop()
}

func TestRecorderStopWhileIdleIsNoOp(t *testing.T) {
	recorder := capture.NewRecorder(&fakeSource{}, "audio/webm")
	if _, ok := recorder.Stop(); ok {
		t.Fatal("Stop on idle recorder should report no recording")
	}
}

func TestRecorderPermissionDenied(t *testing.T) {
	source := &fakeSource{openErr: capture.ErrPermissionDenied}
	recorder := capture.NewRecorder(source, "audio/webm")

	err := recorder.Start(context.Background())
	if !errors.Is(err, capture.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if recorder.IsRecording() {
		t.Fatal("denied recorder must stay idle")
	}
}
