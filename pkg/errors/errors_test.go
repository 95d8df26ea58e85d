package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidListing, "entry %d: missing name", 3)

	if err.Code != ErrCodeInvalidListing {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeInvalidListing)
	}
	if err.Message != "entry 3: missing name" {
		t.Errorf("Message = %q", err.Message)
	}
	if !strings.Contains(err.Error(), "INVALID_LISTING") {
		t.Errorf("Error() should contain code, got %q", err.Error())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := Wrap(ErrCodeNetwork, cause, "fetch %s", "owner/repo")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeRepoNotFound, "repo missing")

	if !Is(err, ErrCodeRepoNotFound) {
		t.Error("Is should match the error's code")
	}
	if Is(err, ErrCodeNetwork) {
		t.Error("Is should not match a different code")
	}
	if Is(stderrors.New("plain"), ErrCodeNetwork) {
		t.Error("Is should not match plain errors")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeTimeout, "slow")); got != ErrCodeTimeout {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeTimeout)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode on plain error = %q, want empty", got)
	}

	// Code survives wrapping with fmt-style wrappers.
	wrapped := Wrap(ErrCodeRateLimited, New(ErrCodeNetwork, "inner"), "outer")
	if got := GetCode(wrapped); got != ErrCodeRateLimited {
		t.Errorf("GetCode on wrapped = %q, want %q", got, ErrCodeRateLimited)
	}
}

func TestGetCodeSelfCoded(t *testing.T) {
	// RateLimitedError carries its own code without being an *Error, even
	// when buried in a plain wrapper chain.
	err := fmt.Errorf("request /repos/a/b: %w", &RateLimitedError{RetryAfter: 5})

	if got := GetCode(err); got != ErrCodeRateLimited {
		t.Errorf("GetCode = %q, want %q", got, ErrCodeRateLimited)
	}
	if !Is(err, ErrCodeRateLimited) {
		t.Error("Is should match the self-reported code")
	}
	if Is(err, ErrCodeNetwork) {
		t.Error("Is should not match a different code")
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeMissingField, "required field 'author' is missing")
	if got := UserMessage(err); got != "required field 'author' is missing" {
		t.Errorf("UserMessage = %q", got)
	}

	plain := stderrors.New("boom")
	if got := UserMessage(plain); got != "boom" {
		t.Errorf("UserMessage on plain = %q", got)
	}
}

func TestRateLimitedError(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 30}
	if !strings.Contains(err.Error(), "30") {
		t.Errorf("Error() should mention retry delay, got %q", err.Error())
	}
	if err.Code() != ErrCodeRateLimited {
		t.Errorf("Code = %q, want %q", err.Code(), ErrCodeRateLimited)
	}

	noDelay := &RateLimitedError{}
	if noDelay.Error() != "rate limited" {
		t.Errorf("Error() without delay = %q", noDelay.Error())
	}
}

func TestValidateRepoRef(t *testing.T) {
	tests := []struct {
		ref     string
		wantErr bool
	}{
		{"Vector35/debugger", false},
		{"0x1F9F1/binja-msvc", false},
		{"owner/repo.name", false},
		{"owner/repo_name", false},
		{"", true},
		{"noslash", true},
		{"too/many/parts", true},
		{"owner/", true},
		{"/repo", true},
		{"owner/../etc", true},
		{"owner /repo", true},
		{"owner\\repo", true},
	}

	for _, tt := range tests {
		err := ValidateRepoRef(tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateRepoRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
		}
	}
}

func TestValidateSubdir(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"", false},
		{"plugin", false},
		{"nested/dir", false},
		{"/absolute", true},
		{"up/../and/over", true},
		{"win\\path", true},
	}

	for _, tt := range tests {
		err := ValidateSubdir(tt.path)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateSubdir(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
}
