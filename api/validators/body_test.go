package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/cleanmatch/cleanmatch-backend/pkg/errors"
)

type sampleBody struct {
	Name   string `json:"name" validate:"required"`
	Rating int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

func TestDecodeJSONBodyMissingRequired(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"rating":3}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != MissingFieldsMessage {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["name"] != "is required" {
		t.Fatalf("expected name detail keyed by json tag, got %#v", typed.Details())
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"a","bogus":true}`))
	var body sampleBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestDecodeJSONBodyRangeMessage(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"a","rating":9}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Message() != "validation failed" {
		t.Fatalf("expected generic validation message, got %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/?limit=5", nil)
	got, err := ParseQueryInt(req, "limit", 20, 1, 20)
	if err != nil || got != 5 {
		t.Fatalf("expected 5, got %d (%v)", got, err)
	}

	req = httptest.NewRequest("GET", "/", nil)
	if got, _ := ParseQueryInt(req, "limit", 20, 1, 20); got != 20 {
		t.Fatalf("expected default 20, got %d", got)
	}

	req = httptest.NewRequest("GET", "/?limit=50", nil)
	if _, err := ParseQueryInt(req, "limit", 20, 1, 20); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	if got := SanitizeString("  hello  ", 0); got != "hello" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := SanitizeString("abcdef", 3); got != "abc" {
		t.Fatalf("expected truncation, got %q", got)
	}
	// "é" is two bytes; a cut at byte 2 would split it.
	if got := SanitizeString("aé", 2); got != "a" {
		t.Fatalf("expected cut before the multi-byte rune, got %q", got)
	}
}
