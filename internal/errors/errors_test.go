package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without cause",
			err: &AppError{
				Code:    ErrCodeNotFound,
				Message: "resource not found",
			},
			want: "resource not found",
		},
		{
			name: "error with cause",
			err: &AppError{
				Code:    ErrCodeServerError,
				Message: "backend request failed",
				Cause:   errors.New("status 503"),
			},
			want: "backend request failed: status 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:    ErrCodeUnknown,
		Message: "wrapped error",
		Cause:   cause,
	}

	if unwrapped := err.Unwrap(); !errors.Is(unwrapped, cause) {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause through AppError")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"invalid credentials", InvalidCredentials("bad login"), ErrCodeInvalidCredentials},
		{"session expired", SessionExpired("session expired"), ErrCodeSessionExpired},
		{"forbidden", Forbidden("no access"), ErrCodeForbidden},
		{"not found", NotFound("missing"), ErrCodeNotFound},
		{"invalid input", InvalidInput("bad payload"), ErrCodeInvalidInput},
		{"server error", ServerError("backend down"), ErrCodeServerError},
		{"unknown", Unknown("network issue"), ErrCodeUnknown},
		{"internal", Internal("oops"), ErrCodeInternal},
		{"conflict", Conflict("duplicate"), ErrCodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestInvalidInputField(t *testing.T) {
	err := InvalidInputField("email", "This field is required.")
	if err.Field != "email" {
		t.Errorf("Field = %v, want email", err.Field)
	}
	if err.Code != ErrCodeInvalidInput {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidInput)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("401 from backend")
	err := Wrap(cause, ErrCodeSessionExpired, "Your session has expired. Please sign in again.")
	if err.Code != ErrCodeSessionExpired {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeSessionExpired)
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match cause")
	}

	if Wrap(nil, ErrCodeInternal, "ignored") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapf(t *testing.T) {
	cause := errors.New("dial tcp refused")
	err := Wrapf(cause, ErrCodeUnknown, "request to %s failed", "/auth/me")
	if err.Message != "request to /auth/me failed" {
		t.Errorf("Message = %v", err.Message)
	}
	if Wrapf(nil, ErrCodeUnknown, "ignored") != nil {
		t.Error("Wrapf(nil) should return nil")
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		pred func(error) bool
		err  error
		want bool
	}{
		{"IsSessionExpired on session expired", IsSessionExpired, SessionExpired("x"), true},
		{"IsSessionExpired on forbidden", IsSessionExpired, Forbidden("x"), false},
		{"IsForbidden", IsForbidden, Forbidden("x"), true},
		{"IsNotFound", IsNotFound, NotFound("x"), true},
		{"IsInvalidCredentials", IsInvalidCredentials, InvalidCredentials("x"), true},
		{"IsInvalidInput", IsInvalidInput, InvalidInput("x"), true},
		{"IsConflict", IsConflict, Conflict("x"), true},
		{"IsInternal", IsInternal, Internal("x"), true},
		{"plain error", IsSessionExpired, errors.New("x"), false},
		{"nil error", IsNotFound, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredicates_WrappedErrors(t *testing.T) {
	inner := SessionExpired("expired")
	outer := fmt.Errorf("during retry: %w", inner)
	if !IsSessionExpired(outer) {
		t.Error("IsSessionExpired should see through fmt.Errorf wrapping")
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(Forbidden("x")); got != ErrCodeForbidden {
		t.Errorf("GetCode = %v, want %v", got, ErrCodeForbidden)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode = %v, want empty", got)
	}
}

func TestGetField(t *testing.T) {
	if got := GetField(InvalidInputField("country", "invalid")); got != "country" {
		t.Errorf("GetField = %v, want country", got)
	}
	if got := GetField(errors.New("plain")); got != "" {
		t.Errorf("GetField = %v, want empty", got)
	}
}
