package devauth

import (
	"context"
	"testing"
)

func TestSender_RecordsLatestLink(t *testing.T) {
	s := NewSender(Config{})
	ctx := context.Background()

	if err := s.SendLink(ctx, "dev@example.com", "http://localhost/auth/callback?oobCode=1"); err != nil {
		t.Fatalf("SendLink error: %v", err)
	}
	if err := s.SendLink(ctx, "dev@example.com", "http://localhost/auth/callback?oobCode=2"); err != nil {
		t.Fatalf("SendLink error: %v", err)
	}
	link, ok := s.Latest("dev@example.com")
	if !ok || link != "http://localhost/auth/callback?oobCode=2" {
		t.Fatalf("unexpected latest link: %q (ok=%v)", link, ok)
	}
	if _, ok := s.Latest("other@example.com"); ok {
		t.Fatal("did not expect a link for other@example.com")
	}
}

func TestSender_AllowedDomains(t *testing.T) {
	s := NewSender(Config{AllowedDomains: []string{" Example.com "}})
	ctx := context.Background()

	if err := s.SendLink(ctx, "dev@example.com", "l"); err != nil {
		t.Fatalf("expected allowed domain to pass: %v", err)
	}
	if err := s.SendLink(ctx, "dev@elsewhere.org", "l"); err != ErrDomainNotAllowed {
		t.Fatalf("expected ErrDomainNotAllowed, got %v", err)
	}
}
