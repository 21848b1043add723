package embedding

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"book-rag-be/pkg/rag"
)

func TestOllamaGenerateDeadlineExceededIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"embedding":[0.1,0.2]}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, "some text", RoleQuery)
	var timeout *rag.TimeoutError
	if !errors.As(err, &timeout) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
	if rag.IsRetryable(err) {
		t.Fatal("a spent deadline must not be classified as retryable")
	}
}

func TestOllamaGenerateConnectionFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	p := NewOllamaProvider(srv.URL, "")

	_, err := p.Generate(context.Background(), "some text", RoleQuery)
	var unavailable *rag.ProviderUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("expected ProviderUnavailableError, got %v", err)
	}
	if !rag.IsRetryable(err) {
		t.Fatal("a connection failure must stay retryable")
	}
}
