package token

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := Payload{
		AccountID: "acct-1",
		Email:     "alice@example.com",
		Role:      "user",
		IssuedAt:  1700000000000,
	}

	tok, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	out, err := Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out != in {
		t.Errorf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestEncodeRequiresAccountID(t *testing.T) {
	if _, err := Encode(Payload{Email: "alice@example.com"}); err == nil {
		t.Error("expected error for payload without account id")
	}
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	for _, tok := range []string{
		"",
		"not base64!!!",
		base64.RawURLEncoding.EncodeToString([]byte("not json")),
		base64.RawURLEncoding.EncodeToString([]byte(`{"email":"a@b.c"}`)),
	} {
		if _, err := Decode(tok); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q): got %v, want ErrMalformed", tok, err)
		}
	}
}
