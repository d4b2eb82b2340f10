package conversation

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/flash-studio/backend/internal/model/chat"
)

// BuildParts composes the ordered request parts for one send. The upstream
// API rejects requests with no text segment, so an attachment-only or empty
// send still carries a single whitespace text part. Pure function.
func BuildParts(text string, attachment *chat.Attachment) []schema.ChatMessagePart {
	content := text
	if strings.TrimSpace(content) == "" {
		content = " "
	}

	parts := []schema.ChatMessagePart{
		{Type: schema.ChatMessagePartTypeText, Text: content},
	}

	if attachment != nil {
		switch attachment.Kind {
		case chat.MediaAudio:
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeAudioURL,
				AudioURL: &schema.ChatMessageAudioURL{
					URL:      attachment.DataURL(),
					MIMEType: attachment.MIMEType,
				},
			})
		default:
			parts = append(parts, schema.ChatMessagePart{
				Type: schema.ChatMessagePartTypeImageURL,
				ImageURL: &schema.ChatMessageImageURL{
					URL:      attachment.DataURL(),
					MIMEType: attachment.MIMEType,
				},
			})
		}
	}

	return parts
}
