package client

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"bandchat/feed"
)

// ReadAttachment loads the file at path into an AttachmentInput. The
// content type comes from the extension, or is sniffed when unknown.
func ReadAttachment(path, caption string) (feed.AttachmentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return feed.AttachmentInput{}, fmt.Errorf("read attachment: %w", err)
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return feed.AttachmentInput{
		Name:        filepath.Base(path),
		ContentType: ct,
		Content:     bytes.NewReader(data),
		Caption:     caption,
	}, nil
}
