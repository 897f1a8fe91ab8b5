// Package decode turns scanned payloads into raw submission maps.
package decode

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"scouthub/internal/domain"
)

// MaxPayloadBytes bounds a decoded (and decompressed) payload.
const MaxPayloadBytes = 1 << 20

var encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodePayload accepts a JSON object, base64-encoded JSON, or base64-encoded
// gzip of JSON and returns the object.
func DecodePayload(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrValidation("empty payload")
	}
	if strings.HasPrefix(text, "{") {
		return decodeJSON([]byte(text))
	}

	raw, err := decodeBase64(text)
	if err != nil {
		return nil, domain.ErrValidation("payload is neither JSON nor base64")
	}
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		if raw, err = gunzip(raw); err != nil {
			return nil, domain.ErrValidation("payload is not valid gzip: %v", err)
		}
	}
	return decodeJSON(raw)
}

func decodeBase64(text string) ([]byte, error) {
	text = strings.Join(strings.Fields(text), "")
	for _, enc := range encodings {
		if b, err := enc.DecodeString(text); err == nil {
			return b, nil
		}
	}
	return nil, errors.New("not base64")
}

func gunzip(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, MaxPayloadBytes+1))
	if err != nil {
		return nil, err
	}
	if len(out) > MaxPayloadBytes {
		return nil, fmt.Errorf("decompressed payload exceeds %d bytes", MaxPayloadBytes)
	}
	return out, nil
}

func decodeJSON(b []byte) (map[string]any, error) {
	if len(b) > MaxPayloadBytes {
		return nil, domain.ErrValidation("payload exceeds %d bytes", MaxPayloadBytes)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, domain.ErrValidation("payload is not a JSON object: %v", err)
	}
	if out == nil {
		return nil, domain.ErrValidation("payload is not a JSON object")
	}
	return out, nil
}
