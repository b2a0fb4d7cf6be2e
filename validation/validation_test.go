package validation

import (
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/kbukum/shoplist/errors"
)

func TestValidatorRequired(t *testing.T) {
	if New().Required("name", "Ann").HasErrors() {
		t.Error("expected no errors for valid input")
	}
	if !New().Required("name", "").HasErrors() {
		t.Error("expected error for empty value")
	}
	if !New().Required("name", "   ").HasErrors() {
		t.Error("expected error for whitespace-only value")
	}
}

func TestValidatorUUIDs(t *testing.T) {
	if New().RequiredUUID("id", uuid.NewString()).HasErrors() {
		t.Error("expected valid UUID to pass")
	}
	for _, in := range []string{"", "not-a-uuid", uuid.Nil.String()} {
		if !New().RequiredUUID("id", in).HasErrors() {
			t.Errorf("expected %q to fail", in)
		}
	}
	if !New().NotNilUUID("owner_id", uuid.Nil).HasErrors() {
		t.Error("expected nil UUID to fail")
	}
	if New().NotNilUUID("owner_id", uuid.New()).HasErrors() {
		t.Error("expected random UUID to pass")
	}
}

func TestValidatorEmail(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
	}{
		{"ann@example.com", true},
		{"", true},
		{"ann", false},
		{"Ann <ann@example.com>", false},
	}
	for _, tc := range tests {
		got := !New().Email("email", tc.in).HasErrors()
		if got != tc.valid {
			t.Errorf("Email(%q) valid = %v, want %v", tc.in, got, tc.valid)
		}
	}
}

func TestValidatorAbsoluteURL(t *testing.T) {
	if New().AbsoluteURL("redirect_uri", "https://app.example.com/cb").HasErrors() {
		t.Error("expected https URL to pass")
	}
	for _, in := range []string{"/cb", "ftp://example.com/cb", "::"} {
		if !New().AbsoluteURL("redirect_uri", in).HasErrors() {
			t.Errorf("expected %q to fail", in)
		}
	}
}

func TestValidatorLengthAndOneOf(t *testing.T) {
	v := New().
		MinLength("password", "abc", 8).
		MaxLength("name", "abcdef", 3).
		OneOf("visibility", "SECRET", []string{"PUBLIC", "PRIVATE"})
	if len(v.Errors()) != 3 {
		t.Fatalf("expected 3 errors, got %v", v.Errors())
	}
}

func TestValidateBuildsAppError(t *testing.T) {
	v := New().Required("name", "").Custom(false, "email", "taken")
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected error")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("unexpected code %s", appErr.Code)
	}
	if appErr.HTTPStatus != http.StatusBadRequest {
		t.Errorf("unexpected status %d", appErr.HTTPStatus)
	}
	if appErr.Message != "name: is required; email: taken" {
		t.Errorf("unexpected message %q", appErr.Message)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected field details, got %v", appErr.Details)
	}
}

func TestErrIsUntypedNil(t *testing.T) {
	if err := New().Required("name", "ok").Err(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestParseUUID(t *testing.T) {
	id := uuid.New()
	got, err := ParseUUID("id", id.String())
	if err != nil || got != id {
		t.Fatalf("ParseUUID = %v, %v", got, err)
	}
	if _, err := ParseUUID("id", ""); !errors.HasCode(err, errors.ErrCodeMissingField) {
		t.Errorf("expected MISSING_FIELD, got %v", err)
	}
	if _, err := ParseUUID("id", "nope"); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

type signupRequest struct {
	DisplayName string `json:"name" validate:"required,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Nickname    string `validate:"omitempty,max=3"`
}

func TestStruct(t *testing.T) {
	ok := signupRequest{DisplayName: "Ann", Email: "ann@example.com", Password: "correct horse"}
	if err := Struct(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := signupRequest{Email: "nope", Password: "short", Nickname: "toolong"}
	err := Struct(bad)
	appErr, isApp := errors.AsAppError(err)
	if !isApp {
		t.Fatalf("expected AppError, got %v", err)
	}
	fields := appErr.Details["fields"].([]FieldError)
	names := map[string]string{}
	for _, f := range fields {
		names[f.Field] = f.Message
	}
	if names["name"] != "is required" {
		t.Errorf("expected json tag name for DisplayName, got %v", names)
	}
	if names["email"] != "must be a valid email address" {
		t.Errorf("unexpected email message: %v", names)
	}
	if names["password"] != "must be at least 8 characters" {
		t.Errorf("unexpected password message: %v", names)
	}
	if _, ok := names["nickname"]; !ok {
		t.Errorf("expected snake_case fallback name, got %v", names)
	}
}
