package chat

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// MediaKind classifies a binary payload for rendering and request composition.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
)

// Attachment is a single binary media payload bound to one message.
// Data marshals as base64, matching the wire form the frontend consumes.
type Attachment struct {
	Data     []byte    `json:"data"`
	MIMEType string    `json:"mimeType"`
	Kind     MediaKind `json:"kind"`
}

// ClassifyMedia maps a MIME type onto a media kind. Anything that is not
// audio is treated as an image, mirroring how attachments are rendered.
func ClassifyMedia(mimeType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mimeType)), "audio/") {
		return MediaAudio
	}
	return MediaImage
}

// DataURL renders the attachment in data URI form for inline display.
func (a Attachment) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", a.MIMEType, base64.StdEncoding.EncodeToString(a.Data))
}
