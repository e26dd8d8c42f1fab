// Package codec implements URI-component percent-encoding.
//
// Encode escapes every byte outside the unreserved set
// A-Z a-z 0-9 - _ . ! ~ * ' ( ) as %XX (upper-case hex of the UTF-8 bytes).
// Decode reverses it and rejects escapes that are truncated, not hex, or that
// decode to invalid UTF-8.
package codec

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "urldeco/internal/errors"
)

// Fallback messages shown in place of a result when a conversion fails.
const (
	DecodeFallback = "Invalid URL-encoded string"
	EncodeFallback = "Invalid input"
)

var (
	// ErrMalformedEncoding reports an invalid percent-escape in Decode input.
	ErrMalformedEncoding = errors.New("malformed percent-encoding")
	// ErrMalformedInput reports Encode input that is not valid UTF-8.
	ErrMalformedInput = errors.New("input is not valid UTF-8")
)

const upperHex = "0123456789ABCDEF"

// Encode percent-encodes s using the URI component rule set.
func Encode(s string) (string, error) {
	if !utf8.ValidString(s) {
		return "", apperrors.New(apperrors.CodeMalformedInput, "encode: invalid UTF-8 input", ErrMalformedInput)
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0F])
	}
	return b.String(), nil
}

// Decode reverses Encode. Characters that are not part of an escape are
// copied through unchanged.
func Decode(s string) (string, error) {
	if strings.IndexByte(s, '%') < 0 {
		if !utf8.ValidString(s) {
			return "", malformed("input is not valid UTF-8")
		}
		return s, nil
	}

	buf := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '%' {
			buf = append(buf, c)
			continue
		}
		if i+2 >= len(s) {
			return "", malformed(fmt.Sprintf("truncated escape at offset %d", i))
		}
		hi, ok1 := unhex(s[i+1])
		lo, ok2 := unhex(s[i+2])
		if !ok1 || !ok2 {
			return "", malformed(fmt.Sprintf("invalid escape %q at offset %d", s[i:i+3], i))
		}
		buf = append(buf, hi<<4|lo)
		i += 2
	}

	if !utf8.Valid(buf) {
		return "", malformed("escapes decode to invalid UTF-8")
	}
	return string(buf), nil
}

// DecodeOrFallback returns the decoded string or DecodeFallback.
func DecodeOrFallback(s string) string {
	out, err := Decode(s)
	if err != nil {
		return DecodeFallback
	}
	return out
}

// EncodeOrFallback returns the encoded string or EncodeFallback.
func EncodeOrFallback(s string) string {
	out, err := Encode(s)
	if err != nil {
		return EncodeFallback
	}
	return out
}

func malformed(msg string) error {
	return apperrors.New(apperrors.CodeMalformedInput, "decode: "+msg, ErrMalformedEncoding)
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
