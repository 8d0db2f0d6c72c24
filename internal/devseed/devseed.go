// Package devseed loads development accounts and starter page text.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/domain/model"
	"github.com/boycepro/folio/internal/ports"
)

// Services bundles the stores the seed writes to.
type Services struct {
	Identities ports.IdentityStore
	Roles      ports.RoleStore
	Content    ports.ContentStore
	Now        func() time.Time
}

type accountSeed struct {
	Email string
	Role  domainauth.Role
}

type sectionSeed struct {
	PageID  string
	Key     string
	Content string
}

func defaultAccounts() []accountSeed {
	return []accountSeed{
		{Email: "admin@folio.test", Role: domainauth.RoleAdmin},
		{Email: "pro@folio.test", Role: domainauth.RolePro},
		{Email: "free@folio.test", Role: domainauth.RoleFree},
	}
}

func defaultSections() []sectionSeed {
	return []sectionSeed{
		{PageID: "home", Key: "intro", Content: "<p>Practical notes on shipping small software businesses.</p>"},
		{PageID: "guides", Key: "intro", Content: "<p>Step-by-step guides. Pro guides need a Pro plan.</p>"},
		{PageID: "blog", Key: "intro", Content: "<p>Essays and build logs.</p>"},
	}
}

// Run seeds accounts and sections. Existing sections are left alone so the
// seed can run against a database that admins have already edited.
func Run(ctx context.Context, svcs Services, logger *slog.Logger) error {
	if svcs.Identities == nil || svcs.Roles == nil || svcs.Content == nil {
		return errors.New("devseed: identity, role and content stores are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if svcs.Now == nil {
		svcs.Now = time.Now
	}

	failures := seedAccounts(ctx, svcs, logger)
	failures += seedSections(ctx, svcs.Content, logger)
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

func seedAccounts(ctx context.Context, svcs Services, logger *slog.Logger) int {
	failures := 0
	for _, seed := range defaultAccounts() {
		rec, err := svcs.Identities.RecordSignIn(ctx, seed.Email, svcs.Now())
		if err != nil {
			logger.ErrorContext(ctx, "seed account failed", "email", seed.Email, "error", err)
			failures++
			continue
		}
		if err := svcs.Identities.SetClaims(ctx, rec.ID, map[string]any{"role": seed.Role.String()}); err != nil {
			logger.ErrorContext(ctx, "seed claims failed", "email", seed.Email, "error", err)
			failures++
			continue
		}
		if err := svcs.Roles.SetRole(ctx, rec.ID, seed.Email, seed.Role); err != nil {
			logger.ErrorContext(ctx, "seed role failed", "email", seed.Email, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "seeded account", "email", seed.Email, "role", seed.Role.String())
	}
	return failures
}

func seedSections(ctx context.Context, store ports.ContentStore, logger *slog.Logger) int {
	failures := 0
	for _, seed := range defaultSections() {
		_, err := store.SaveSection(ctx, model.SaveSectionRequest{
			PageID:          seed.PageID,
			Key:             seed.Key,
			Content:         seed.Content,
			RichText:        true,
			ExpectedVersion: 0,
			UpdatedBy:       "devseed",
		})
		switch {
		case err == nil:
			logger.InfoContext(ctx, "seeded section", "page_id", seed.PageID, "section_key", seed.Key)
		case errors.Is(err, domainauth.ErrVersionConflict):
			logger.DebugContext(ctx, "section exists, skipping", "page_id", seed.PageID, "section_key", seed.Key)
		default:
			logger.ErrorContext(ctx, "seed section failed", "page_id", seed.PageID, "section_key", seed.Key, "error", err)
			failures++
		}
	}
	return failures
}
