package ai_test

import (
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/flash-studio/backend/internal/service/ai"
)

func TestSessionRecordKeepsTurns(t *testing.T) {
	sess := ai.NewSession("be helpful", 10)

	parts := []schema.ChatMessagePart{{Type: schema.ChatMessagePartTypeText, Text: "hi"}}
	sess.Record(parts, "hello back")

	if got := sess.HistoryLen(); got != 2 {
		t.Fatalf("expected user+assistant in history, got %d", got)
	}
}

func TestSessionHistoryTrimsToLimit(t *testing.T) {
	sess := ai.NewSession("be helpful", 4)

	parts := []schema.ChatMessagePart{{Type: schema.ChatMessagePartTypeText, Text: "hi"}}
	for i := 0; i < 5; i++ {
		sess.Record(parts, "reply")
	}

	if got := sess.HistoryLen(); got != 4 {
		t.Fatalf("history should be trimmed to 4, got %d", got)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	a := ai.NewSession("one", 10)
	b := ai.NewSession("two", 10)

	if a.ID == b.ID {
		t.Fatal("handles must be unique")
	}

	a.Record([]schema.ChatMessagePart{{Type: schema.ChatMessagePartTypeText, Text: "x"}}, "y")
	if b.HistoryLen() != 0 {
		t.Fatal("history must not leak across handles")
	}
}
