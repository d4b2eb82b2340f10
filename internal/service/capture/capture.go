package capture

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"

	"github.com/zhouzirui/flash-studio/backend/internal/model/chat"
)

var (
	// ErrPermissionDenied indicates the platform refused access to the audio
	// input device. The recorder stays idle; nothing is retained.
	ErrPermissionDenied = errors.New("audio input permission denied")

	ErrEmptyPayload = errors.New("attachment payload is empty")
)

// FromFile turns a fully read user-selected file into an attachment. The
// media kind follows the MIME prefix: audio/* is audio, everything else is
// treated as an image. When mimeType is empty it is inferred from the file
// name extension.
func FromFile(name, mimeType string, data []byte) (chat.Attachment, error) {
	if len(data) == 0 {
		return chat.Attachment{}, ErrEmptyPayload
	}

	resolved := strings.TrimSpace(mimeType)
	if resolved == "" {
		resolved = mime.TypeByExtension(filepath.Ext(name))
	}
	if resolved == "" {
		resolved = "application/octet-stream"
	}

	return chat.Attachment{
		Data:     append([]byte(nil), data...),
		MIMEType: resolved,
		Kind:     chat.ClassifyMedia(resolved),
	}, nil
}
