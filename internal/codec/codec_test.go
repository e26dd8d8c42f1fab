package codec

import (
	"errors"
	"testing"

	apperrors "urldeco/internal/errors"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"hello", "hello"},
		{"a b/c?d", "a%20b%2Fc%3Fd"},
		{"-_.!~*'()", "-_.!~*'()"},
		{"#$&+,:;=@[]", "%23%24%26%2B%2C%3A%3B%3D%40%5B%5D"},
		{"100%", "100%25"},
		{"é", "%C3%A9"},
		{"日本", "%E6%97%A5%E6%9C%AC"},
		{"😀", "%F0%9F%98%80"},
	}
	for _, tt := range tests {
		got, err := Encode(tt.in)
		if err != nil {
			t.Errorf("Encode(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Encode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeInvalidUTF8(t *testing.T) {
	_, err := Encode("ok\xffbad")
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("Encode(invalid) error = %v, want ErrMalformedInput", err)
	}
	if !apperrors.IsCode(err, apperrors.CodeMalformedInput) {
		t.Fatalf("expected code %s, got %s", apperrors.CodeMalformedInput, apperrors.CodeOf(err))
	}
	if got := EncodeOrFallback("\xff"); got != EncodeFallback {
		t.Fatalf("EncodeOrFallback(invalid) = %q, want %q", got, EncodeFallback)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello%20world", "hello world"},
		{"a%20b%2Fc%3Fd", "a b/c?d"},
		{"a+b", "a+b"},
		{"%c3%a9", "é"},
		{"%E6%97%A5%E6%9C%AC", "日本"},
		{"plain é", "plain é"},
		{"", ""},
	}
	for _, tt := range tests {
		got, err := Decode(tt.in)
		if err != nil {
			t.Errorf("Decode(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Decode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecodeMalformed(t *testing.T) {
	inputs := []string{
		"100% done",
		"trailing%",
		"trailing%4",
		"%zz",
		"%C3",       // lead byte without continuation
		"%C3%28",    // bad continuation
		"%ED%A0%80", // encoded surrogate half
		"%C0%AF",    // overlong
	}
	for _, in := range inputs {
		_, err := Decode(in)
		if !errors.Is(err, ErrMalformedEncoding) {
			t.Errorf("Decode(%q) error = %v, want ErrMalformedEncoding", in, err)
		}
		if got := DecodeOrFallback(in); got != DecodeFallback {
			t.Errorf("DecodeOrFallback(%q) = %q, want fallback", in, got)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"hello world",
		"https://example.com/path?q=a b&x=1#frag",
		"100% done",
		"tab\tnewline\n",
		"ünïcödé ✓ 日本語 😀",
		"'quoted' (parens) *star* ~tilde~",
	}
	for _, in := range inputs {
		enc, err := Encode(in)
		if err != nil {
			t.Fatalf("Encode(%q) error: %v", in, err)
		}
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(Encode(%q)) error: %v", in, err)
		}
		if dec != in {
			t.Errorf("round trip %q -> %q -> %q", in, enc, dec)
		}
	}
}

func TestRoundTripAllRunesInBMPSample(t *testing.T) {
	for r := rune(0x20); r < 0x3000; r += 7 {
		if r >= 0xD800 && r <= 0xDFFF {
			continue
		}
		s := string(r)
		enc, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode(%U) error: %v", r, err)
		}
		if dec := DecodeOrFallback(enc); dec != s {
			t.Fatalf("round trip %U: got %q", r, dec)
		}
	}
}
