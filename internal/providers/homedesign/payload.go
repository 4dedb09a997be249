package homedesign

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MaxImageBytes is the largest decoded image payload the provider accepts.
const MaxImageBytes = 10 * 1024 * 1024

var (
	// ErrBadBase64 indicates the image string claims to be base64 but is not.
	ErrBadBase64 = errors.New("homedesign: image is not valid base64")
	// ErrImageTooLarge indicates the decoded payload exceeds MaxImageBytes.
	// It is surfaced before any network transmission.
	ErrImageTooLarge = errors.New("homedesign: image too large")
)

// DecodeImagePayload normalizes a data-URL or bare base64 string into the
// binary image payload. The data-URL prefix and all whitespace are stripped
// before decoding, so re-encoding the result always round-trips.
func DecodeImagePayload(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrBadBase64)
	}
	if strings.HasPrefix(s, "data:") {
		_, rest, found := strings.Cut(s, ",")
		if !found {
			return nil, fmt.Errorf("%w: malformed data url", ErrBadBase64)
		}
		s = rest
	}
	s = stripWhitespace(s)

	// Base64 inflates by 4/3; reject clearly oversized payloads before
	// decoding. Borderline cases are caught again after decoding.
	if len(s) > base64.StdEncoding.EncodedLen(MaxImageBytes) {
		return nil, fmt.Errorf("%w: %.2fMB exceeds %dMB limit",
			ErrImageTooLarge, float64(len(s))*0.75/1024/1024, MaxImageBytes/1024/1024)
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if data, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
			return checkSize(data)
		}
		return nil, fmt.Errorf("%w: %v", ErrBadBase64, err)
	}
	return checkSize(data)
}

func checkSize(data []byte) ([]byte, error) {
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: %.2fMB exceeds %dMB limit",
			ErrImageTooLarge, float64(len(data))/1024/1024, MaxImageBytes/1024/1024)
	}
	return data, nil
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
