package conversation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/flash-studio/backend/internal/model/chat"
	"github.com/zhouzirui/flash-studio/backend/internal/model/persona"
	"github.com/zhouzirui/flash-studio/backend/internal/service/ai"
	"github.com/zhouzirui/flash-studio/backend/internal/service/conversation"
)

type fakeAssistant struct {
	mu        sync.Mutex
	fragments []string
	streamErr error
	recvErr   error
	gate      chan struct{}
	lastParts []schema.ChatMessagePart
}

func (f *fakeAssistant) CreateSession(instruction string) (*ai.Session, error) {
	return ai.NewSession(instruction, 10), nil
}

func (f *fakeAssistant) StreamMessage(_ context.Context, _ *ai.Session, parts []schema.ChatMessagePart) (*schema.StreamReader[*schema.Message], error) {
	f.mu.Lock()
	f.lastParts = parts
	streamErr := f.streamErr
	fragments := append([]string(nil), f.fragments...)
	recvErr := f.recvErr
	gate := f.gate
	f.mu.Unlock()

	if streamErr != nil {
		return nil, streamErr
	}

	reader, writer := schema.Pipe[*schema.Message](len(fragments) + 1)
	go func() {
		defer writer.Close()
		for _, fragment := range fragments {
			if gate != nil {
				<-gate
			}
			writer.Send(schema.AssistantMessage(fragment, nil), nil)
		}
		if recvErr != nil {
			writer.Send(nil, recvErr)
		}
	}()
	return reader, nil
}

func (f *fakeAssistant) parts() []schema.ChatMessagePart {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastParts
}

func testPersona() persona.Persona {
	return persona.Seed()[0]
}

func waitForState(t *testing.T, ctrl *conversation.Controller, want conversation.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ctrl.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("controller never reached state %v", want)
}

func TestNewControllerAppendsGreeting(t *testing.T) {
	ctrl, err := conversation.NewController(&fakeAssistant{}, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	entries := ctrl.Transcript()
	if len(entries) != 1 {
		t.Fatalf("expected single greeting entry, got %d", len(entries))
	}
	if entries[0].Role != chat.RoleModel {
		t.Fatalf("greeting role: got %s", entries[0].Role)
	}
	if !strings.Contains(entries[0].Content, testPersona().Name) {
		t.Fatalf("greeting does not name persona: %q", entries[0].Content)
	}
}

func TestSendFoldsFragmentsInOrder(t *testing.T) {
	assistant := &fakeAssistant{fragments: []string{"Hi", " there!"}}
	ctrl, err := conversation.NewController(assistant, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	var deltas []string
	reply, err := ctrl.Send(context.Background(), "Hello", func(delta string) {
		deltas = append(deltas, delta)
	})
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if reply != "Hi there!" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(deltas) != 2 || deltas[0] != "Hi" || deltas[1] != " there!" {
		t.Fatalf("unexpected delta order: %v", deltas)
	}

	entries := ctrl.Transcript()
	if len(entries) != 3 {
		t.Fatalf("expected greeting+user+model, got %d entries", len(entries))
	}
	if entries[1].Role != chat.RoleUser || entries[1].Content != "Hello" {
		t.Fatalf("unexpected user entry: %+v", entries[1])
	}
	if entries[2].Role != chat.RoleModel || entries[2].Content != "Hi there!" {
		t.Fatalf("unexpected model entry: %+v", entries[2])
	}
	if ctrl.State() != conversation.StateIdle {
		t.Fatalf("controller not idle after send")
	}
}

func TestSendWithZeroFragmentsLeavesEmptyContent(t *testing.T) {
	ctrl, err := conversation.NewController(&fakeAssistant{}, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	reply, err := ctrl.Send(context.Background(), "anyone there?", nil)
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if reply != "" {
		t.Fatalf("expected empty reply, got %q", reply)
	}

	entries := ctrl.Transcript()
	last := entries[len(entries)-1]
	if last.Role != chat.RoleModel || last.Content != "" {
		t.Fatalf("placeholder should stay empty, got %+v", last)
	}
}

func TestSendRejectsEmptyInput(t *testing.T) {
	ctrl, err := conversation.NewController(&fakeAssistant{}, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	before := len(ctrl.Transcript())
	if _, err := ctrl.Send(context.Background(), "   ", nil); !errors.Is(err, conversation.ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if got := len(ctrl.Transcript()); got != before {
		t.Fatalf("transcript mutated on rejected send: %d -> %d", before, got)
	}
}

func TestSendRejectsWhileBusy(t *testing.T) {
	assistant := &fakeAssistant{fragments: []string{"slow"}, gate: make(chan struct{})}
	ctrl, err := conversation.NewController(assistant, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, sendErr := ctrl.Send(context.Background(), "first", nil)
		done <- sendErr
	}()

	waitForState(t, ctrl, conversation.StateAwaitingFirstByte)
	before := len(ctrl.Transcript())

	if _, err := ctrl.Send(context.Background(), "second", nil); !errors.Is(err, conversation.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if got := len(ctrl.Transcript()); got != before {
		t.Fatalf("concurrent send mutated transcript: %d -> %d", before, got)
	}

	close(assistant.gate)
	if err := <-done; err != nil {
		t.Fatalf("first send err: %v", err)
	}
}

func TestPersonaSwitchDiscardsStaleFragments(t *testing.T) {
	assistant := &fakeAssistant{fragments: []string{"stale fragment"}, gate: make(chan struct{})}
	ctrl, err := conversation.NewController(assistant, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, sendErr := ctrl.Send(context.Background(), "first", nil)
		done <- sendErr
	}()

	waitForState(t, ctrl, conversation.StateAwaitingFirstByte)

	next := persona.Seed()[1]
	if err := ctrl.SwitchPersona(next); err != nil {
		t.Fatalf("SwitchPersona err: %v", err)
	}

	close(assistant.gate)
	if err := <-done; !errors.Is(err, conversation.ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}

	for _, entry := range ctrl.Transcript() {
		if strings.Contains(entry.Content, "stale fragment") {
			t.Fatalf("stale fragment applied to post-switch transcript: %+v", entry)
		}
	}
	if got := len(ctrl.Transcript()); got != 1 {
		t.Fatalf("expected reset transcript with greeting only, got %d entries", got)
	}
	if ctrl.Persona().ID != next.ID {
		t.Fatalf("persona not switched")
	}
}

func TestSendErrorAppendsFallback(t *testing.T) {
	assistant := &fakeAssistant{recvErr: errors.New("upstream exploded")}
	ctrl, err := conversation.NewController(assistant, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	if _, err := ctrl.Send(context.Background(), "boom", nil); err == nil {
		t.Fatal("expected error from failed stream")
	}

	entries := ctrl.Transcript()
	// greeting, user, empty placeholder, fallback
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[2].Content != "" {
		t.Fatalf("placeholder should be left as-is, got %q", entries[2].Content)
	}
	if entries[3].Content != conversation.FallbackReply {
		t.Fatalf("expected fallback entry, got %q", entries[3].Content)
	}
	if ctrl.State() != conversation.StateIdle {
		t.Fatal("controller should return to idle after failure")
	}
}

func TestAttachmentOnlySendCarriesWhitespacePart(t *testing.T) {
	assistant := &fakeAssistant{fragments: []string{"ok"}}
	ctrl, err := conversation.NewController(assistant, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	ctrl.Attach(chat.Attachment{
		Data:     []byte{0x89, 0x50},
		MIMEType: "image/png",
		Kind:     chat.MediaImage,
	})

	if _, err := ctrl.Send(context.Background(), "", nil); err != nil {
		t.Fatalf("Send err: %v", err)
	}

	parts := assistant.parts()
	if len(parts) != 2 {
		t.Fatalf("expected text+binary parts, got %d", len(parts))
	}
	if parts[0].Type != schema.ChatMessagePartTypeText || strings.TrimSpace(parts[0].Text) != "" || parts[0].Text == "" {
		t.Fatalf("expected whitespace text part, got %+v", parts[0])
	}
	if parts[1].Type != schema.ChatMessagePartTypeImageURL {
		t.Fatalf("expected image part, got %+v", parts[1])
	}

	if _, ok := ctrl.PendingAttachment(); ok {
		t.Fatal("pending attachment should be cleared after send")
	}

	entries := ctrl.Transcript()
	if entries[1].Attachment == nil || entries[1].Attachment.Kind != chat.MediaImage {
		t.Fatalf("user entry lost its attachment snapshot: %+v", entries[1])
	}
}

func TestDiscardAttachment(t *testing.T) {
	ctrl, err := conversation.NewController(&fakeAssistant{}, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	ctrl.Attach(chat.Attachment{Data: []byte("x"), MIMEType: "audio/webm", Kind: chat.MediaAudio})
	ctrl.DiscardAttachment()
	if _, ok := ctrl.PendingAttachment(); ok {
		t.Fatal("attachment should be discarded")
	}
}

func TestPersonaSwitchClearsPendingAttachment(t *testing.T) {
	ctrl, err := conversation.NewController(&fakeAssistant{}, testPersona())
	if err != nil {
		t.Fatalf("NewController err: %v", err)
	}

	ctrl.Attach(chat.Attachment{Data: []byte("x"), MIMEType: "image/png", Kind: chat.MediaImage})
	if err := ctrl.SwitchPersona(persona.Seed()[1]); err != nil {
		t.Fatalf("SwitchPersona err: %v", err)
	}
	if _, ok := ctrl.PendingAttachment(); ok {
		t.Fatal("pending attachment must not survive a persona switch")
	}
}
