package ctxutil

import (
	"context"
	"testing"
)

func TestUserFromContext(t *testing.T) {
	ctx := context.Background()
	if got := UserFromContext(ctx); got != "" {
		t.Errorf("UserFromContext(empty) = %q, want empty", got)
	}

	ctx = WithUser(ctx, "gio")
	if got := UserFromContext(ctx); got != "gio" {
		t.Errorf("UserFromContext = %q, want %q", got, "gio")
	}
}
