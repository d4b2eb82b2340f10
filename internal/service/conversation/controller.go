package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/zhouzirui/flash-studio/backend/internal/model/chat"
	"github.com/zhouzirui/flash-studio/backend/internal/model/persona"
	aiservice "github.com/zhouzirui/flash-studio/backend/internal/service/ai"
)

// FallbackReply is appended as a fresh model entry when a send fails.
const FallbackReply = "Sorry, I encountered an error. Please try again."

var (
	ErrBusy         = errors.New("a send is already in flight for this conversation")
	ErrEmptyMessage = errors.New("message needs text or an attachment")
	ErrNoSession    = errors.New("no backend session handle")
	// ErrSuperseded reports that a persona switch invalidated the send while
	// its reply was still streaming. The transcript was already reset; the
	// caller should end its stream quietly.
	ErrSuperseded = errors.New("send superseded by persona switch")
)

// State is the per-conversation send lifecycle.
type State int

const (
	StateIdle State = iota
	StateAwaitingFirstByte
	StateStreaming
)

// Assistant is the slice of the generative adapter the controller needs.
type Assistant interface {
	CreateSession(instruction string) (*aiservice.Session, error)
	StreamMessage(ctx context.Context, sess *aiservice.Session, parts []schema.ChatMessagePart) (*schema.StreamReader[*schema.Message], error)
}

// Controller owns one conversation: the ordered transcript, the backend
// session handle, the pending attachment and the streaming state. All
// mutations go through the controller; readers only ever see copies.
type Controller struct {
	id        string
	createdAt time.Time
	assistant Assistant

	mu      sync.Mutex
	persona persona.Persona
	handle  *aiservice.Session
	entries []chat.Message
	pending *chat.Attachment
	state   State
	// epoch tags every in-flight stream with the persona generation it was
	// started against. Fragments from a previous epoch are discarded instead
	// of mutating the post-switch transcript.
	epoch uint64
}

// NewController builds a conversation bound to the initial persona, including
// the synthetic greeting entry.
func NewController(assistant Assistant, p persona.Persona) (*Controller, error) {
	c := &Controller{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		assistant: assistant,
	}
	if err := c.SwitchPersona(p); err != nil {
		return nil, err
	}
	return c, nil
}

// ID returns the stable conversation identifier.
func (c *Controller) ID() string { return c.id }

// Session reports registry metadata for the conversation.
func (c *Controller) Session() chat.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return chat.Session{ID: c.id, PersonaID: c.persona.ID, CreatedAt: c.createdAt}
}

// Persona returns the currently active persona.
func (c *Controller) Persona() persona.Persona {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persona
}

// State reports the current send lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Transcript returns a copy of the ordered transcript.
func (c *Controller) Transcript() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make([]chat.Message, len(c.entries))
	copy(copied, c.entries)
	return copied
}

// SwitchPersona discards the current handle, allocates a fresh backend
// session and resets the transcript to a single greeting naming the persona.
// Unconditional: it may run while a prior stream is in flight, in which case
// that stream's remaining fragments are dropped via the epoch tag.
func (c *Controller) SwitchPersona(p persona.Persona) error {
	handle, err := c.assistant.CreateSession(p.Instruction)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	c.persona = p
	c.pending = nil
	c.state = StateIdle

	if err != nil {
		c.handle = nil
		c.entries = nil
		return err
	}

	c.handle = handle
	c.entries = []chat.Message{{
		ID:        uuid.NewString(),
		Role:      chat.RoleModel,
		Content:   greetingFor(p),
		CreatedAt: time.Now().UTC(),
	}}
	return nil
}

// Attach stages a captured attachment for the next send, replacing any
// previously staged one.
func (c *Controller) Attach(att chat.Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot := att
	c.pending = &snapshot
}

// PendingAttachment returns a copy of the staged attachment, if any.
func (c *Controller) PendingAttachment() (chat.Attachment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return chat.Attachment{}, false
	}
	return *c.pending, true
}

// DiscardAttachment drops the staged attachment without sending it.
func (c *Controller) DiscardAttachment() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// Send submits the composed user input and folds the streamed reply into the
// transcript. emit, when non-nil, observes each applied fragment in order.
// At most one send may be outstanding per conversation.
func (c *Controller) Send(ctx context.Context, text string, emit func(delta string)) (string, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return "", ErrBusy
	}
	if c.handle == nil {
		c.mu.Unlock()
		return "", ErrNoSession
	}
	if strings.TrimSpace(text) == "" && c.pending == nil {
		c.mu.Unlock()
		return "", ErrEmptyMessage
	}

	attachment := c.pending
	c.pending = nil

	userEntry := chat.Message{
		ID:         uuid.NewString(),
		Role:       chat.RoleUser,
		Content:    text,
		Attachment: attachment,
		CreatedAt:  time.Now().UTC(),
	}
	placeholder := chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleModel,
		Content:   "",
		CreatedAt: time.Now().UTC(),
	}
	c.entries = append(c.entries, userEntry, placeholder)

	epoch := c.epoch
	handle := c.handle
	parts := BuildParts(text, attachment)
	c.state = StateAwaitingFirstByte
	c.mu.Unlock()

	stream, err := c.assistant.StreamMessage(ctx, handle, parts)
	if err != nil {
		c.failSend(epoch, err)
		return "", err
	}
	defer stream.Close()

	var full strings.Builder
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			c.failSend(epoch, recvErr)
			return "", fmt.Errorf("receiving reply stream: %w", recvErr)
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}

		if !c.applyFragment(epoch, placeholder.ID, chunk.Content) {
			// A persona switch invalidated the target entry; stop consuming.
			return "", ErrSuperseded
		}
		full.WriteString(chunk.Content)
		if emit != nil {
			emit(chunk.Content)
		}
	}

	reply := full.String()

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return "", ErrSuperseded
	}
	c.state = StateIdle
	c.mu.Unlock()

	handle.Record(parts, reply)
	return reply, nil
}

// applyFragment appends one fragment to the placeholder entry. It refuses the
// mutation when the epoch moved on or the entry no longer exists, which is
// how stale streams are cancelled.
func (c *Controller) applyFragment(epoch uint64, entryID, fragment string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		return false
	}
	for i := range c.entries {
		if c.entries[i].ID == entryID {
			c.entries[i].Content += fragment
			c.state = StateStreaming
			return true
		}
	}
	return false
}

// failSend appends the fixed fallback entry and returns the conversation to
// idle. The placeholder stays however the stream last left it.
func (c *Controller) failSend(epoch uint64, cause error) {
	log.Printf("[conversation] send failed, id=%s: %v", c.id, cause)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	c.entries = append(c.entries, chat.Message{
		ID:        uuid.NewString(),
		Role:      chat.RoleModel,
		Content:   FallbackReply,
		CreatedAt: time.Now().UTC(),
	})
	c.state = StateIdle
}

func greetingFor(p persona.Persona) string {
	return fmt.Sprintf("Hello! I'm %s. %s. What would you like to talk about?", p.Name, p.Description)
}
