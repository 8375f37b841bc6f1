// Package dataurl converts between bytes and "data:<mime>;base64,<payload>" strings,
// the form in which images and files are kept inside user documents.
package dataurl

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

var ErrInvalid = errors.New("dataurl: not a base64 data url")

// Decode accepts a data URL or bare base64. The mime type is sniffed when the
// URL does not carry one.
func Decode(s string) (mime string, data []byte, err error) {
	s = strings.TrimSpace(s)
	payload := s
	if strings.HasPrefix(s, "data:") {
		head, body, ok := strings.Cut(s[len("data:"):], ",")
		if !ok || !strings.HasSuffix(head, ";base64") {
			return "", nil, ErrInvalid
		}
		mime = strings.TrimSuffix(head, ";base64")
		payload = body
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrInvalid
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return mime, data, nil
}

func Encode(mime string, data []byte) string {
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsImage reports whether the mime type is a raster image we can embed.
func IsImage(mime string) bool {
	switch mime {
	case "image/png", "image/jpeg", "image/jpg":
		return true
	}
	return false
}
