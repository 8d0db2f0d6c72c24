package gate

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/session"
)

var (
	loading   = session.Snapshot{State: session.StateLoading, Loading: true}
	anonymous = session.Snapshot{State: session.StateAnonymous}
)

func signedIn(role domainauth.Role) session.Snapshot {
	return session.Snapshot{
		State:    session.StateAuthenticated,
		Identity: &domainauth.Identity{ID: "uid", Email: "u@x.io"},
		Role:     role,
	}
}

func TestTierGate_Decide(t *testing.T) {
	tests := []struct {
		name string
		tier domainauth.Tier
		snap session.Snapshot
		want Decision
	}{
		{"loading free", domainauth.TierFree, loading, DecisionLoading},
		{"loading pro", domainauth.TierPro, loading, DecisionLoading},
		{"uninitialized", domainauth.TierFree, session.Snapshot{}, DecisionLoading},
		{"anonymous free", domainauth.TierFree, anonymous, DecisionGranted},
		{"anonymous pro", domainauth.TierPro, anonymous, DecisionSignUp},
		{"free user free", domainauth.TierFree, signedIn(domainauth.RoleFree), DecisionGranted},
		{"free user pro", domainauth.TierPro, signedIn(domainauth.RoleFree), DecisionUpgrade},
		{"pro user pro", domainauth.TierPro, signedIn(domainauth.RolePro), DecisionGranted},
		{"admin pro", domainauth.TierPro, signedIn(domainauth.RoleAdmin), DecisionGranted},
		{"timed out anonymous", domainauth.TierPro, session.Snapshot{State: session.StateAnonymous, TimedOut: true}, DecisionSignUp},
		{"unknown tier signed in", domainauth.Tier("gold"), signedIn(domainauth.RoleAdmin), DecisionUpgrade},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierGate{Tier: tt.tier}.Decide(tt.snap))
		})
	}
}

func TestRoleGuard_Decide(t *testing.T) {
	tests := []struct {
		name  string
		guard RoleGuard
		snap  session.Snapshot
		want  Decision
	}{
		{"loading", RoleGuard{Required: domainauth.RoleAdmin}, loading, DecisionLoading},
		{"anonymous", RoleGuard{Required: domainauth.RoleFree}, anonymous, DecisionSignIn},
		{"anonymous with fallback", RoleGuard{Required: domainauth.RoleAdmin, HasFallback: true}, anonymous, DecisionFallback},
		{"free needs pro", RoleGuard{Required: domainauth.RolePro}, signedIn(domainauth.RoleFree), DecisionUpgrade},
		{"free needs pro with fallback", RoleGuard{Required: domainauth.RolePro, HasFallback: true}, signedIn(domainauth.RoleFree), DecisionFallback},
		{"pro needs pro", RoleGuard{Required: domainauth.RolePro}, signedIn(domainauth.RolePro), DecisionGranted},
		{"admin needs admin", RoleGuard{Required: domainauth.RoleAdmin}, signedIn(domainauth.RoleAdmin), DecisionGranted},
		{"pro needs admin", RoleGuard{Required: domainauth.RoleAdmin}, signedIn(domainauth.RolePro), DecisionUpgrade},
		{"admin needs free", RoleGuard{Required: domainauth.RoleFree}, signedIn(domainauth.RoleAdmin), DecisionGranted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.guard.Decide(tt.snap))
		})
	}
}

func TestPrompts(t *testing.T) {
	tier := TierGate{Tier: domainauth.TierPro}
	assert.Equal(t, "Sign Up Free", tier.Prompt(DecisionSignUp).Action)
	assert.Equal(t, SignInPath, tier.Prompt(DecisionSignUp).Href)
	assert.Equal(t, "Premium Content", tier.Prompt(DecisionUpgrade).Title)
	assert.Equal(t, "Upgrade to Pro", tier.Prompt(DecisionUpgrade).Action)
	assert.Equal(t, Prompt{}, tier.Prompt(DecisionGranted))

	guard := RoleGuard{Required: domainauth.RoleAdmin}
	assert.Equal(t, "Sign In Required", guard.Prompt(DecisionSignIn).Title)
	up := guard.Prompt(DecisionUpgrade)
	assert.Equal(t, "Upgrade Required", up.Title)
	assert.Equal(t, "You need admin access to view this content.", up.Message)
	assert.Empty(t, up.Action, "no upgrade button for admin-only content")

	pro := RoleGuard{Required: domainauth.RolePro}.Prompt(DecisionUpgrade)
	assert.Contains(t, pro.Message, "Pro access")
	assert.Equal(t, "Upgrade to Pro", pro.Action)
}

func TestEvaluate_DropsHiddenContent(t *testing.T) {
	c := Content{Body: "<p>full</p>", Preview: "<p>teaser</p>", Fallback: "<p>other</p>"}

	v := Evaluate(TierGate{Tier: domainauth.TierPro}, anonymous, c)
	assert.Equal(t, DecisionSignUp, v.Decision)
	assert.Empty(t, v.Content.Body)
	assert.Equal(t, template.HTML("<p>teaser</p>"), v.Content.Preview)

	v = Evaluate(TierGate{Tier: domainauth.TierPro}, loading, c)
	assert.Equal(t, Content{}, v.Content)

	v = Evaluate(RoleGuard{Required: domainauth.RoleAdmin, HasFallback: true}, signedIn(domainauth.RolePro), c)
	assert.Equal(t, Content{Fallback: "<p>other</p>"}, v.Content)
}

func TestRenderer(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	c := Content{Body: "<article>secret body</article>", Preview: "<p>teaser</p>"}
	pro := TierGate{Tier: domainauth.TierPro}

	render := func(s session.Snapshot) string {
		out, err := r.HTML(Evaluate(pro, s, c))
		require.NoError(t, err)
		return string(out)
	}

	out := render(loading)
	assert.Contains(t, out, `aria-busy="true"`)
	assert.NotContains(t, out, "secret body")
	assert.NotContains(t, out, "Sign Up Free", "no prompt while loading")

	out = render(anonymous)
	assert.Contains(t, out, "<p>teaser</p>")
	assert.Contains(t, out, "Continue Reading")
	assert.Contains(t, out, `href="/auth"`)
	assert.NotContains(t, out, "secret body")

	out = render(signedIn(domainauth.RoleFree))
	assert.Contains(t, out, "Premium Content")
	assert.Contains(t, out, `<button type="button" class="button">Upgrade to Pro</button>`)

	out = render(signedIn(domainauth.RoleAdmin))
	assert.Equal(t, "<article>secret body</article>", strings.TrimSpace(out))
}
