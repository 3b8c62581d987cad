package share

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// fragmentKey prefixes the token inside a link fragment.
const fragmentKey = "share="

// Encode serializes p as JSON and returns it base64url encoded without
// padding. Struct fields keep declaration order and map keys are sorted, so
// equal payloads give equal tokens.
func Encode(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode share payload: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// Decode parses a token. It also accepts a "share=<token>" fragment or a
// full link, percent-encoded input, and the standard base64 alphabet.
func Decode(in string) (Payload, error) {
	token, err := Token(in)
	if err != nil {
		return Payload{}, err
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Payload{}, unreadable(ErrMalformedToken, err.Error())
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, unreadable(ErrMalformedToken, err.Error())
	}
	if err := check(p); err != nil {
		return Payload{}, err
	}
	return p, nil
}

// Link appends the token to base as a share fragment. Any fragment already
// on base is replaced.
func Link(base, token string) string {
	base, _, _ = strings.Cut(base, "#")
	return base + "#" + fragmentKey + token
}

// Token extracts the canonical token from a token, fragment or link without
// decoding it.
func Token(in string) (string, error) {
	s := strings.TrimSpace(in)
	if i := strings.LastIndex(s, fragmentKey); i >= 0 {
		s = s[i+len(fragmentKey):]
		s, _, _ = strings.Cut(s, "&")
	}
	if strings.Contains(s, "%") {
		unescaped, err := url.PathUnescape(s)
		if err != nil {
			return "", unreadable(ErrMalformedToken, err.Error())
		}
		s = unescaped
	}
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	s = strings.TrimRight(s, "=")
	if s == "" {
		return "", unreadable(ErrMalformedToken, "empty token")
	}
	return s, nil
}

func check(p Payload) error {
	switch {
	case p.V != Version:
		return unreadable(ErrUnsupportedVersion, fmt.Sprintf("v=%d", p.V))
	case strings.TrimSpace(p.TestKey) == "":
		return unreadable(ErrInvalidPayload, "missing testKey")
	case utf8.RuneCountInString(p.Nickname) > MaxNickname:
		return unreadable(ErrInvalidPayload, "nickname too long")
	}
	if _, err := time.Parse(time.RFC3339Nano, p.TS); err != nil {
		return unreadable(ErrInvalidPayload, "bad ts: "+err.Error())
	}
	return nil
}
