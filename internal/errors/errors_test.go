package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestLemonError_Error(t *testing.T) {
	err := &LemonError{
		Code:    ErrNotFound,
		Status:  404,
		Message: "entry not found",
	}

	expected := "NOT_FOUND: entry not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("categories must not be empty")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Status != 400 {
		t.Errorf("Status = %d, want 400", err.Status)
	}
	if err.Message != "categories must not be empty" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("firstName")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Details["identifier"] != "firstName" {
		t.Errorf("Details[identifier] = %v, want %q", err.Details["identifier"], "firstName")
	}
}

func TestNewStorageUnavailable(t *testing.T) {
	cause := stderrors.New("disk I/O error")
	err := NewStorageUnavailable(cause)

	if err.Code != ErrStorageUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorageUnavailable)
	}
	if err.Status != 503 {
		t.Errorf("Status = %d, want 503", err.Status)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected cause to be reachable through Unwrap")
	}
}

func TestNewStorageWrite(t *testing.T) {
	t.Run("with index", func(t *testing.T) {
		err := NewStorageWrite(3, stderrors.New("name is required"))
		if err.Code != ErrStorageWrite {
			t.Errorf("Code = %q, want %q", err.Code, ErrStorageWrite)
		}
		if err.Details["index"] != 3 {
			t.Errorf("Details[index] = %v, want 3", err.Details["index"])
		}
	})

	t.Run("without index", func(t *testing.T) {
		err := NewStorageWrite(-1, stderrors.New("commit failed"))
		if err.Details != nil {
			t.Errorf("Details = %v, want nil", err.Details)
		}
	})
}

func TestNewQueryFailed(t *testing.T) {
	err := NewQueryFailed(stderrors.New("database is locked"))

	if err.Code != ErrQueryFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrQueryFailed)
	}
	if err.Status != 500 {
		t.Errorf("Status = %d, want 500", err.Status)
	}
}

func TestNewBootstrapFailed(t *testing.T) {
	cause := NewStorageWrite(0, stderrors.New("price is required"))
	err := NewBootstrapFailed("insert", cause)

	if err.Code != ErrBootstrapFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrBootstrapFailed)
	}
	if err.Details["step"] != "insert" {
		t.Errorf("Details[step] = %v, want insert", err.Details["step"])
	}
	if !Is(err, ErrStorageWrite) {
		t.Error("expected storage write cause to match through the chain")
	}
}

func TestNewInternal(t *testing.T) {
	err := NewInternal(stderrors.New("boom"))
	if err.Message != "boom" {
		t.Errorf("Message = %q, want boom", err.Message)
	}

	err = NewInternal(nil)
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want %q", err.Message, "internal error")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"nil error", nil, ErrInternal, false},
		{"plain error", stderrors.New("x"), ErrInternal, false},
		{"direct match", NewQueryFailed(nil), ErrQueryFailed, true},
		{"direct mismatch", NewQueryFailed(nil), ErrNotFound, false},
		{"wrapped with fmt", fmt.Errorf("ctx: %w", NewNotFound("a")), ErrNotFound, true},
		{"cause chain", NewBootstrapFailed("scan", NewStorageUnavailable(nil)), ErrStorageUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAs(t *testing.T) {
	if _, ok := As(stderrors.New("x")); ok {
		t.Error("As() matched a plain error")
	}
	lErr, ok := As(fmt.Errorf("wrap: %w", NewInvalidRequest("bad")))
	if !ok {
		t.Fatal("As() did not match a wrapped LemonError")
	}
	if lErr.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", lErr.Code, ErrInvalidRequest)
	}
}
