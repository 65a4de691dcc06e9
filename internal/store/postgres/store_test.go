package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/store"
)

func TestOpen_skipIfNoDatabaseURL(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping postgres test")
	}
	st, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = st.Close() }()
	ctx := context.Background()
	key := "careagent-test-" + t.Name()
	defer func() { _ = st.DeleteSlot(ctx, key) }()

	if _, err := st.GetSlot(ctx, key); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("GetSlot before put: %v", err)
	}
	if err := st.PutSlot(ctx, key, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("PutSlot: %v", err)
	}
	got, err := st.GetSlot(ctx, key)
	if err != nil || string(got) != `{"ok":true}` {
		t.Fatalf("GetSlot: %q, %v", got, err)
	}
	slots, err := st.ListSlots(ctx)
	if err != nil || len(slots) == 0 {
		t.Fatalf("ListSlots: %v, %v", slots, err)
	}
}

func TestOpen_requiresDSN(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Open(""); err == nil {
		t.Fatal("expected error without DSN")
	}
}
