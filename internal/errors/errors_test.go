package errors

import (
	"fmt"
	"testing"
)

func TestBridgeError_Error(t *testing.T) {
	err := &BridgeError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "notification not found: 01H",
	}

	expected := "NOT_FOUND: notification not found: 01H"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("points must be positive")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "points must be positive" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewUnauthenticated(t *testing.T) {
	err := NewUnauthenticated()
	if err.Code != ErrUnauthenticated || err.Status != 401 {
		t.Errorf("got %q/%d, want UNAUTHENTICATED/401", err.Code, err.Status)
	}
}

func TestNewInvalidCredential(t *testing.T) {
	err := NewInvalidCredential("Invalid admin password. Please try again.")
	if err.Code != ErrInvalidCredential || err.Status != 403 {
		t.Errorf("got %q/%d, want INVALID_CREDENTIAL/403", err.Code, err.Status)
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("notification", "abc")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Status != 404 {
		t.Errorf("Status = %d, want 404", err.Status)
	}
	if err.Details["identifier"] != "abc" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "abc")
	}
	if err.Message != "notification not found: abc" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewValidationFailed(t *testing.T) {
	msgs := []string{"Full Name is required", "Email Address is required"}
	err := NewValidationFailed(msgs)

	if err.Status != 422 {
		t.Errorf("Status = %d, want 422", err.Status)
	}
	got := Messages(err)
	if len(got) != 2 || got[0] != msgs[0] || got[1] != msgs[1] {
		t.Errorf("Messages() = %v, want %v", got, msgs)
	}
	want := "please fix the following: Full Name is required, Email Address is required"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}
}

func TestMessages_OtherErrors(t *testing.T) {
	if Messages(NewInternal(nil)) != nil {
		t.Error("Messages() on INTERNAL should be nil")
	}
	if Messages(fmt.Errorf("plain")) != nil {
		t.Error("Messages() on plain error should be nil")
	}
}

func TestNewUpstreamRejected(t *testing.T) {
	err := NewUpstreamRejected(409, "")
	if err.Status != 409 {
		t.Errorf("Status = %d, want 409", err.Status)
	}
	if err.Message != "backend responded with status 409" {
		t.Errorf("Message = %q", err.Message)
	}

	err = NewUpstreamRejected(401, "Invalid credentials")
	if err.Message != "Invalid credentials" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewUpstreamUnavailable(t *testing.T) {
	err := NewUpstreamUnavailable(fmt.Errorf("connection refused"))
	if err.Status != 502 {
		t.Errorf("Status = %d, want 502", err.Status)
	}
	if err.Message != "backend unavailable: connection refused" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(fmt.Errorf("database connection failed"))
	if err.Status != 500 {
		t.Errorf("Status = %d, want 500", err.Status)
	}
	if err.Message != "database connection failed" {
		t.Errorf("Message = %q", err.Message)
	}

	if NewInternal(nil).Message != "internal error" {
		t.Errorf("NewInternal(nil).Message = %q", NewInternal(nil).Message)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{"matching code", NewNotFound("notification", "x"), ErrNotFound, true},
		{"different code", NewNotFound("notification", "x"), ErrInvalidRequest, false},
		{"wrapped", fmt.Errorf("load: %w", NewNotFound("notification", "x")), ErrNotFound, true},
		{"non-BridgeError", fmt.Errorf("regular error"), ErrNotFound, false},
		{"nil error", nil, ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}
