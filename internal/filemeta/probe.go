package filemeta

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/ledongthuc/pdf"
)

// Resolution inspects raw file bytes and returns a short description of the
// document's dimensions: "WxH" for images, "N pages" for PDFs. Unknown or
// undecodable formats return an empty string; probing never fails a scan.
func Resolution(data []byte, mimeType string) string {
	switch mimeType {
	case "application/pdf":
		return pdfPages(data)
	case "image/jpeg", "image/png", "image/gif":
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return ""
		}
		return fmt.Sprintf("%dx%d", cfg.Width, cfg.Height)
	default:
		// webp has no stdlib decoder; skip rather than pull in another dep.
		return ""
	}
}

func pdfPages(data []byte) string {
	defer func() {
		// The pdf package panics on some malformed files.
		_ = recover()
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	n := r.NumPage()
	if n <= 0 {
		return ""
	}
	if n == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}
