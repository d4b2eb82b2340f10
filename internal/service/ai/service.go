package ai

import (
	"context"
	"fmt"
	"log"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"github.com/zhouzirui/flash-studio/backend/internal/config"
)

// Service wraps the external generative API behind three operations: stateful
// streaming chat, single-shot image synthesis, and single-shot speech
// synthesis.
type Service struct {
	chatModel model.ChatModel
	media     *openai.Client
	cfg       config.AIConfig
	mediaCfg  config.MediaConfig
}

// NewService creates the adapter. The chat model requires Ark credentials;
// the media client is optional and image/speech calls fail with
// ErrMissingCredential when it is absent.
func NewService(ctx context.Context, cfg config.AIConfig, mediaCfg config.MediaConfig) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}

	var media *openai.Client
	if mediaCfg.Enabled() {
		media, err = mediaCfg.NewMediaClient()
		if err != nil {
			return nil, fmt.Errorf("failed to create media client: %w", err)
		}
	} else {
		log.Println("[ai] media credential missing, image/speech generation disabled")
	}

	return &Service{
		chatModel: chatModel,
		media:     media,
		cfg:       cfg,
		mediaCfg:  mediaCfg,
	}, nil
}

// StreamingEnabled 指示是否开启 SSE 流式输出。
func (s *Service) StreamingEnabled() bool {
	return s.cfg.StreamResponse
}

// CreateSession allocates a conversation handle bound to the supplied system
// instruction. Synchronous; no network call happens until the first message.
func (s *Service) CreateSession(instruction string) (*Session, error) {
	if s == nil || s.chatModel == nil {
		return nil, ErrMissingCredential
	}
	return NewSession(instruction, s.cfg.HistoryLimit), nil
}

// StreamMessage sends one composed multimodal request on the handle and
// returns a lazy, finite, non-restartable fragment stream. The caller owns
// closing the reader and concatenates fragments in arrival order.
func (s *Service) StreamMessage(ctx context.Context, sess *Session, parts []schema.ChatMessagePart) (*schema.StreamReader[*schema.Message], error) {
	if s == nil || s.chatModel == nil {
		return nil, ErrMissingCredential
	}
	if sess == nil {
		return nil, fmt.Errorf("%w: nil session handle", ErrGeneration)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: request contains no parts", ErrGeneration)
	}

	stream, err := s.chatModel.Stream(ctx, sess.prompt(parts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return stream, nil
}
