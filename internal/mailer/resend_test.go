package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientSend(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("key-123", "ABNP <noreply@example.com>", srv.URL, srv.Client())
	err := c.Send(context.Background(), Message{
		To:      "user@example.com",
		Subject: "Hello",
		HTML:    "<p>hi</p>",
	})
	if err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer key-123" {
		t.Fatalf("unexpected auth header: %q", auth)
	}
	if len(got.To) != 1 || got.To[0] != "user@example.com" {
		t.Fatalf("unexpected recipients: %v", got.To)
	}
	if got.From != "ABNP <noreply@example.com>" || got.Subject != "Hello" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestClientSend_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid to address"}`))
	}))
	defer srv.Close()

	c := NewClient("key", "from@example.com", srv.URL, srv.Client())
	err := c.Send(context.Background(), Message{To: "bad", Subject: "x", HTML: "y"})
	if err == nil {
		t.Fatal("want error on non-2xx status")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Fatalf("want status in error, got %v", err)
	}
}

func TestRenderCampaign_EscapesContent(t *testing.T) {
	html, err := RenderCampaign("News", "<script>alert(1)</script> line1\nline2")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatal("content must be escaped")
	}
	if !strings.Contains(html, "News") {
		t.Fatal("subject missing from body")
	}
}

func TestRenderWelcome(t *testing.T) {
	html, err := RenderWelcome("a@example.com", "Ana", "tmp-123", "moderator")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Ana", "a@example.com", "tmp-123", "Moderador"} {
		if !strings.Contains(html, want) {
			t.Fatalf("welcome email missing %q", want)
		}
	}
}

func TestRoleName_Unknown(t *testing.T) {
	if got := RoleName("auditor"); got != "auditor" {
		t.Fatalf("unknown role must pass through, got %q", got)
	}
}
