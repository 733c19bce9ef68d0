package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBrevoSendEmail(t *testing.T) {
	t.Parallel()

	var got brevoEmail
	var gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/smtp/email" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAPIKey = r.Header.Get("api-key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<test@smtp-relay.mailin.fr>"}`))
	}))
	defer server.Close()

	provider := NewBrevoProviderWithBaseURL("xkeysib-test", "orders@example.com", server.URL)
	err := provider.SendEmail(context.Background(), &Email{
		To:      "maria@example.com",
		ReplyTo: "jean@example.com",
		Subject: "Order Confirmation",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAPIKey != "xkeysib-test" {
		t.Fatalf("api-key header = %q", gotAPIKey)
	}
	if got.Sender.Email != "orders@example.com" {
		t.Fatalf("sender = %q", got.Sender.Email)
	}
	if len(got.To) != 1 || got.To[0].Email != "maria@example.com" {
		t.Fatalf("recipients = %+v", got.To)
	}
	if got.ReplyTo == nil || got.ReplyTo.Email != "jean@example.com" {
		t.Fatalf("replyTo = %+v", got.ReplyTo)
	}
	if got.Subject != "Order Confirmation" || got.HTMLContent == "" || got.TextContent == "" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestBrevoSendEmailAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized","message":"Key not found"}`))
	}))
	defer server.Close()

	provider := NewBrevoProviderWithBaseURL("bad-key", "orders@example.com", server.URL)
	err := provider.SendEmail(context.Background(), &Email{
		To:      "maria@example.com",
		Subject: "Hello",
		Text:    "body",
	})
	if err == nil {
		t.Fatal("expected error for unauthorized response")
	}
}

func TestBrevoSendEmailRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	provider := NewBrevoProvider("key", "orders@example.com")
	err := provider.SendEmail(context.Background(), &Email{
		To:      "maria@example.com",
		Subject: "Hello",
	})
	if err == nil {
		t.Fatal("expected error for empty body")
	}
}

func TestBrevoValidateAPIKey(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/account" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("api-key") == "good-key" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"email":"owner@example.com"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	good := NewBrevoProviderWithBaseURL("good-key", "orders@example.com", server.URL)
	if err := good.ValidateAPIKey(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := NewBrevoProviderWithBaseURL("bad-key", "orders@example.com", server.URL)
	if err := bad.ValidateAPIKey(context.Background()); err == nil {
		t.Fatal("expected error for invalid key")
	}
}
