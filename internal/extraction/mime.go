package extraction

import (
	"path/filepath"
	"strings"
)

var extensionMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// MimeTypeForFile maps a file name's extension to its MIME type. The second
// return is false for extensions outside the allow-list, in which case the
// opaque binary type is returned.
func MimeTypeForFile(name string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if mime, ok := extensionMimeTypes[ext]; ok {
		return mime, true
	}
	return "application/octet-stream", false
}
