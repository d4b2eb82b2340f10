package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"

	openai "github.com/sashabaranov/go-openai"
)

// GenerateImage synthesizes one image for the prompt. Single request/response,
// no streaming. Returns the decoded payload and its MIME type.
func (s *Service) GenerateImage(ctx context.Context, prompt string) ([]byte, string, error) {
	if s == nil || s.media == nil {
		return nil, "", ErrMissingCredential
	}

	resp, err := s.media.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          s.mediaCfg.ImageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return nil, "", fmt.Errorf("%w: no inline image data in response", ErrGeneration)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return nil, "", fmt.Errorf("%w: malformed image payload: %v", ErrGeneration, err)
	}

	log.Printf("[ai] generated image, prompt_len=%d, bytes=%d", len(prompt), len(data))
	return data, "image/png", nil
}

// GenerateSpeech synthesizes one speech clip for text with the selected
// voice. Returns the raw encoded audio payload.
func (s *Service) GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error) {
	if s == nil || s.media == nil {
		return nil, ErrMissingCredential
	}

	resp, err := s.media.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.mediaCfg.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voiceID),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: reading audio payload: %v", ErrGeneration, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no audio payload in response", ErrGeneration)
	}

	log.Printf("[ai] synthesized speech, voice=%s, bytes=%d", voiceID, len(data))
	return data, nil
}
