package util

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeBase64Plain(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	b, hint, err := DecodeBase64MaybeDataURL(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(b, raw) {
		t.Errorf("decoded %v", b)
	}
	if hint != "" {
		t.Errorf("hint = %q, want empty", hint)
	}
}

func TestDecodeBase64DataURL(t *testing.T) {
	raw := []byte("frame-bytes")
	s := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)
	b, hint, err := DecodeBase64MaybeDataURL(s)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(b, raw) {
		t.Errorf("decoded %q", b)
	}
	if hint != "image/png" {
		t.Errorf("hint = %q", hint)
	}
}

func TestDecodeBase64Invalid(t *testing.T) {
	if _, _, err := DecodeBase64MaybeDataURL("!!!"); err == nil {
		t.Error("expected error")
	}
}

func TestPickMIME(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46, 0x49, 0x46, 0x00, 0x01}
	if got := PickMIME("image/webp", "image/png", jpeg); got != "image/webp" {
		t.Errorf("explicit: %q", got)
	}
	if got := PickMIME("", "image/png", jpeg); got != "image/png" {
		t.Errorf("hint: %q", got)
	}
	if got := PickMIME("", "", jpeg); got != "image/jpeg" {
		t.Errorf("sniff: %q", got)
	}
	if got := PickMIME("", "", []byte("plain text")); got != "image/jpeg" {
		t.Errorf("fallback: %q", got)
	}
}
