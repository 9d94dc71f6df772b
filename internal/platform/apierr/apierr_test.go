package apierr

import (
	"fmt"
	"net/http"
	"testing"
)

func TestValidation(t *testing.T) {
	err := Validation("invalid_user_id", "Invalid user id")
	if err.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", err.Status)
	}
	if err.Error() != "Invalid user id" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestAsUnwrapsWrapped(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", New(http.StatusNotFound, "not_found", nil))
	ae, ok := As(wrapped)
	if !ok {
		t.Fatal("expected *Error in chain")
	}
	if ae.Status != http.StatusNotFound || ae.Error() != "not_found" {
		t.Fatalf("got %+v", ae)
	}
	if _, ok := As(fmt.Errorf("plain")); ok {
		t.Fatal("plain error must not match")
	}
}
