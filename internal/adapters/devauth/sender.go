// Package devauth provides a link sender for local development that logs
// sign-in links instead of mailing them and keeps the latest link per inbox.
package devauth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/boycepro/folio/internal/ports"
)

var _ ports.LinkSender = (*Sender)(nil)

// Config controls the dev sender.
type Config struct {
	// AllowedDomains restricts delivery to these email domains when non-empty.
	AllowedDomains []string
	Logger         *slog.Logger
}

// Sender implements ports.LinkSender for development.
type Sender struct {
	allowed map[string]bool
	logger  *slog.Logger

	mu     sync.Mutex
	outbox map[string]string
}

// NewSender constructs a dev sender from Config.
func NewSender(cfg Config) *Sender {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]bool, len(cfg.AllowedDomains))
	for _, d := range cfg.AllowedDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			allowed[d] = true
		}
	}
	return &Sender{
		allowed: allowed,
		logger:  logger.With("component", "devauth"),
		outbox:  map[string]string{},
	}
}

// ErrDomainNotAllowed is returned for inboxes outside AllowedDomains.
var ErrDomainNotAllowed = errors.New("dev auth: email domain not allowed")

// SendLink logs link and stores it as the latest link for email.
func (s *Sender) SendLink(ctx context.Context, email, link string) error {
	if len(s.allowed) > 0 {
		at := strings.LastIndex(email, "@")
		if at < 0 || !s.allowed[email[at+1:]] {
			return ErrDomainNotAllowed
		}
	}
	s.mu.Lock()
	s.outbox[email] = link
	s.mu.Unlock()
	s.logger.InfoContext(ctx, "dev sign-in link", "email", email, "link", link)
	return nil
}

// Latest returns the most recent link sent to email.
func (s *Sender) Latest(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.outbox[email]
	return link, ok
}
