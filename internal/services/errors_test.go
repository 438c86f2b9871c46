package services_test

import (
	"errors"
	"fmt"
	"testing"

	"ludex/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrAuth, "igdb", "token", "refresh failed", base)
	if !errors.Is(err, services.ErrAuth) {
		t.Fatalf("expected ErrAuth marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "rawg", "search", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient default, got %v", err)
	}
}

func TestIsAuthMatchesStatusText(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{services.ErrAuth, true},
		{errors.New("igdb: request failed (401 Unauthorized)"), true},
		{errors.New("invalid API key supplied"), true},
		{errors.New("connection reset by peer"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := services.IsAuth(tc.err); got != tc.want {
			t.Fatalf("IsAuth(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestIsRateLimitedMatches429(t *testing.T) {
	if !services.IsRateLimited(errors.New("rawg: search failed (429 Too Many Requests)")) {
		t.Fatal("expected 429 to classify as rate limited")
	}
	if services.IsRateLimited(errors.New("503 service unavailable")) {
		t.Fatal("expected 503 not to classify as rate limited")
	}
}

func TestIsRetriableExcludesAuthAndRateLimit(t *testing.T) {
	if services.IsRetriable(fmt.Errorf("wrapped: %w", services.ErrAuth)) {
		t.Fatal("auth errors must not be retriable")
	}
	if services.IsRetriable(services.ErrRateLimited) {
		t.Fatal("rate limit errors must not be retriable")
	}
	if !services.IsRetriable(errors.New("dial tcp: connection refused")) {
		t.Fatal("connection errors should be retriable")
	}
	if !services.IsRetriable(errors.New("rawg: search failed (503 Service Unavailable)")) {
		t.Fatal("server errors should be retriable")
	}
}
