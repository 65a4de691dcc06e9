package capabilities

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestRegistry_RegisterGet(t *testing.T) {
	reg := NewRegistry()
	c := SlackWebhook{WebhookURL: "https://example.com"}
	reg.Register("slack", c)
	got := reg.Get("slack")
	if got != c {
		t.Fatalf("Get(slack): got %+v", got)
	}
	if reg.Get("nonexistent") != nil {
		t.Fatal("Get(nonexistent) should be nil")
	}
}

func TestFromSettings(t *testing.T) {
	if got := FromSettings(nil, "").Names(); !reflect.DeepEqual(got, []string{"log"}) {
		t.Fatalf("without slack: %v", got)
	}
	if got := FromSettings(nil, "https://hooks.example.test").Names(); !reflect.DeepEqual(got, []string{"log", "slack"}) {
		t.Fatalf("with slack: %v", got)
	}
}

func TestSlackWebhook_Notify_mockHTTP(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: %s", r.Method)
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := SlackWebhook{WebhookURL: srv.URL, Username: "careagent", Client: srv.Client()}
	if err := c.Notify(context.Background(), "hello"); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if payload["text"] != "hello" || payload["username"] != "careagent" {
		t.Fatalf("payload: %v", payload)
	}
}

func TestSlackWebhook_Notify_non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	err := SlackWebhook{WebhookURL: srv.URL}.Notify(context.Background(), "x")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}

func TestSlackWebhook_Notify_emptyURL(t *testing.T) {
	c := SlackWebhook{}
	if err := c.Notify(context.Background(), "msg"); err == nil {
		t.Fatal("expected error when webhook URL empty")
	}
}

type failing struct{}

func (failing) Name() string                         { return "failing" }
func (failing) Notify(context.Context, string) error { return errors.New("boom") }

type counting struct{ n *int }

func (c counting) Name() string { return "counting" }

func (c counting) Notify(context.Context, string) error {
	*c.n++
	return nil
}

func TestRegistry_Notify_fansOut(t *testing.T) {
	reg := NewRegistry()
	n := 0
	reg.Register("counting", counting{n: &n})
	reg.Register("failing", failing{})
	reg.Register("log", LogNotifier{})
	err := reg.Notify(context.Background(), "critical")
	if n != 1 {
		t.Fatalf("counting notifier called %d times", n)
	}
	if err == nil || !strings.Contains(err.Error(), "failing: boom") {
		t.Fatalf("expected joined error, got %v", err)
	}
}

func TestRegistry_NotifyOne_notFound(t *testing.T) {
	if err := NewRegistry().NotifyOne(context.Background(), "pager", "x"); err == nil {
		t.Fatal("expected error")
	}
}
