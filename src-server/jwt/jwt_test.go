package jwt_test

import (
	"testing"
	"time"

	"advisordesk/src-server/jwt"
)

func TestRoundTrip(t *testing.T) {
	token, err := jwt.Encode(jwt.NewPayload("u1", "a@b.c", time.Hour), "s3cret")
	if err != nil {
		t.Fatal(err)
	}

	payload, err := jwt.Decode(token, "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if payload.UserID != "u1" || payload.Email != "a@b.c" {
		t.Errorf("got %#v", payload)
	}

	if _, err := jwt.Decode(token, "other"); err == nil {
		t.Error("wrong secret accepted")
	}
}

func TestExpired(t *testing.T) {
	token, err := jwt.Encode(jwt.NewPayload("u1", "a@b.c", -time.Minute), "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := jwt.Decode(token, "s3cret"); err == nil {
		t.Error("expired token accepted")
	}
}

func TestGarbage(t *testing.T) {
	for _, token := range []string{"", "a.b", "a.b.c"} {
		if _, err := jwt.Decode(token, "s3cret"); err == nil {
			t.Errorf("%q accepted", token)
		}
	}
}
