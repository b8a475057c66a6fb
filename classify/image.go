package classify

import (
	"encoding/base64"
	"strings"
)

// decodeImage accepts raw base64 or a data: URL and returns the bytes plus
// a MIME type, preferring the data URL's own declaration over sniffing.
func decodeImage(s string) (Image, error) {
	s = strings.TrimSpace(s)

	var hintMIME string
	if strings.HasPrefix(strings.ToLower(s), "data:") {
		// data:<mime>;base64,<payload>
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hintMIME = meta[:semi]
			} else {
				hintMIME = meta
			}
			s = s[idx+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// URL-safe alphabet shows up in the wild.
		if urlData, urlErr := base64.URLEncoding.DecodeString(s); urlErr == nil {
			data = urlData
		} else {
			return Image{}, err
		}
	}

	mime := hintMIME
	if mime == "" {
		mime = sniffMIME(data)
	}
	return Image{Data: data, MIME: mime}, nil
}

func sniffMIME(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFF && b[1] == 0xD8 {
		return "image/jpeg"
	}
	if len(b) >= 8 &&
		b[0] == 0x89 && b[1] == 0x50 && b[2] == 0x4E && b[3] == 0x47 &&
		b[4] == 0x0D && b[5] == 0x0A && b[6] == 0x1A && b[7] == 0x0A {
		return "image/png"
	}
	if len(b) >= 12 && string(b[0:4]) == "RIFF" && string(b[8:12]) == "WEBP" {
		return "image/webp"
	}
	return "image/jpeg"
}
