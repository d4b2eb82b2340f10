package conversation_test

import (
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/flash-studio/backend/internal/model/chat"
	"github.com/zhouzirui/flash-studio/backend/internal/service/conversation"
)

func TestBuildPartsTextOnly(t *testing.T) {
	parts := conversation.BuildParts("hello", nil)
	if len(parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(parts))
	}
	if parts[0].Type != schema.ChatMessagePartTypeText || parts[0].Text != "hello" {
		t.Fatalf("unexpected part: %+v", parts[0])
	}
}

func TestBuildPartsNeverEmpty(t *testing.T) {
	parts := conversation.BuildParts("", nil)
	if len(parts) != 1 {
		t.Fatalf("expected substituted part, got %d parts", len(parts))
	}
	if parts[0].Text == "" {
		t.Fatal("substituted text part must be non-empty")
	}
}

func TestBuildPartsImageAttachment(t *testing.T) {
	att := &chat.Attachment{Data: []byte{1, 2}, MIMEType: "image/png", Kind: chat.MediaImage}
	parts := conversation.BuildParts("look", att)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[1].Type != schema.ChatMessagePartTypeImageURL || parts[1].ImageURL == nil {
		t.Fatalf("expected image part, got %+v", parts[1])
	}
	if parts[1].ImageURL.MIMEType != "image/png" {
		t.Fatalf("mime not carried: %+v", parts[1].ImageURL)
	}
}

func TestBuildPartsAudioAttachment(t *testing.T) {
	att := &chat.Attachment{Data: []byte{1, 2}, MIMEType: "audio/webm", Kind: chat.MediaAudio}
	parts := conversation.BuildParts("", att)
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Type != schema.ChatMessagePartTypeText {
		t.Fatalf("expected leading text part, got %+v", parts[0])
	}
	if parts[1].Type != schema.ChatMessagePartTypeAudioURL || parts[1].AudioURL == nil {
		t.Fatalf("expected audio part, got %+v", parts[1])
	}
}
