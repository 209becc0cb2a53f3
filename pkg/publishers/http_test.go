package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adda-Baaj/taja-digest/internal/domain"
	"github.com/Adda-Baaj/taja-digest/internal/secrets"
)

type mapSecrets map[string]string

func (m mapSecrets) Get(_ context.Context, name string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", errors.New("parameter not found")
	}
	return v, nil
}

func testEvent() Event {
	return NewEvent(domain.KindFallback, domain.TextMessage("No new articles"), time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
}

func TestHTTPPublisherPostsMessageFromSecretURL(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	cfg := sanitizePublisherConfig(PublisherConfig{
		ID:   "slack",
		Type: TypeHTTP,
		HTTP: &HTTPPublisherConfig{URLParameter: "/digest/webhook"},
	})
	pub, err := newHTTPPublisher(context.Background(), cfg, Deps{Secrets: mapSecrets{"/digest/webhook": srv.URL}})
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got["text"] != "No new articles" {
		t.Fatalf("payload = %v", got)
	}
	if _, ok := got["blocks"]; ok {
		t.Fatalf("fallback payload must not carry blocks: %v", got)
	}
}

func TestHTTPPublisherNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := sanitizePublisherConfig(PublisherConfig{ID: "slack", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: srv.URL}})
	pub, err := newHTTPPublisher(context.Background(), cfg, Deps{})
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}
	if err := pub.Publish(context.Background(), testEvent()); err == nil {
		t.Fatal("expected error for 400")
	}
}

func TestHTTPPublisherSecretFailure(t *testing.T) {
	cfg := sanitizePublisherConfig(PublisherConfig{ID: "slack", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URLParameter: "/missing"}})
	pub, err := newHTTPPublisher(context.Background(), cfg, Deps{Secrets: mapSecrets{}})
	if err != nil {
		t.Fatalf("newHTTPPublisher: %v", err)
	}
	if err := pub.Publish(context.Background(), testEvent()); err == nil {
		t.Fatal("expected secret error")
	}
}

func TestHTTPPublisherRequiresSecretSource(t *testing.T) {
	cfg := sanitizePublisherConfig(PublisherConfig{ID: "slack", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URLParameter: "/p"}})
	if _, err := newHTTPPublisher(context.Background(), cfg, Deps{}); err == nil {
		t.Fatal("expected error without secret source")
	}
	var _ secrets.Source = mapSecrets{}
}
