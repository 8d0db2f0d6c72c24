// Package gate decides what a session may see of gated content. TierGate
// guards by content tier, RoleGuard by minimum role.
package gate

import (
	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/session"
)

// Decision is the outcome of evaluating a gate against a session snapshot.
type Decision int

const (
	// DecisionLoading renders a placeholder until identity and role are known.
	DecisionLoading Decision = iota
	DecisionGranted
	// DecisionSignUp shows the preview with a sign-up call to action.
	DecisionSignUp
	// DecisionUpgrade shows the preview (or notice) with an upgrade call to action.
	DecisionUpgrade
	// DecisionSignIn asks an anonymous visitor to sign in.
	DecisionSignIn
	// DecisionFallback renders caller-supplied fallback content.
	DecisionFallback
)

var decisionNames = [...]string{"loading", "granted", "sign_up", "upgrade", "sign_in", "fallback"}

func (d Decision) String() string {
	if int(d) < len(decisionNames) {
		return decisionNames[d]
	}
	return "unknown"
}

// Prompt is the call to action shown in place of gated content.
type Prompt struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	// Action is the button label; empty means no button.
	Action string `json:"action,omitempty"`
	// Href is the action target; empty renders an inert button.
	Href string `json:"href,omitempty"`
}

// Gate is implemented by TierGate and RoleGuard.
type Gate interface {
	Decide(s session.Snapshot) Decision
	Prompt(d Decision) Prompt
}

// SignInPath is where sign-in and sign-up prompts lead.
const SignInPath = "/auth"

func settling(s session.Snapshot) bool {
	return s.Loading || s.State == session.StateUninitialized || s.State == session.StateLoading
}

// effectiveRole is the role a snapshot grants; anonymous sessions hold none.
func effectiveRole(s session.Snapshot) domainauth.Role {
	if !s.SignedIn() {
		return domainauth.RoleNone
	}
	return s.Role
}

// TierGate shows content of Tier to roles that may access it.
type TierGate struct {
	Tier domainauth.Tier
}

func (g TierGate) Decide(s session.Snapshot) Decision {
	if settling(s) {
		return DecisionLoading
	}
	if domainauth.CanAccessTier(effectiveRole(s), g.Tier) {
		return DecisionGranted
	}
	if !s.SignedIn() {
		return DecisionSignUp
	}
	return DecisionUpgrade
}

func (g TierGate) Prompt(d Decision) Prompt {
	switch d {
	case DecisionSignUp:
		return Prompt{
			Title:   "Continue Reading",
			Message: "Sign up to read the full article",
			Action:  "Sign Up Free",
			Href:    SignInPath,
		}
	case DecisionUpgrade:
		return Prompt{
			Title:   "Premium Content",
			Message: "Upgrade to Pro to access this content",
			Action:  "Upgrade to Pro",
		}
	default:
		return Prompt{}
	}
}

// RoleGuard shows content to sessions holding at least Required. With
// HasFallback set, denied sessions get the fallback instead of a prompt.
type RoleGuard struct {
	Required    domainauth.Role
	HasFallback bool
}

func (g RoleGuard) Decide(s session.Snapshot) Decision {
	if settling(s) {
		return DecisionLoading
	}
	if s.SignedIn() && domainauth.HasRoleAccess(s.Role, g.Required) {
		return DecisionGranted
	}
	if g.HasFallback {
		return DecisionFallback
	}
	if !s.SignedIn() {
		return DecisionSignIn
	}
	return DecisionUpgrade
}

func (g RoleGuard) Prompt(d Decision) Prompt {
	switch d {
	case DecisionSignIn:
		return Prompt{
			Title:   "Sign In Required",
			Message: "You need to be signed in to access this content.",
			Action:  "Sign In",
			Href:    SignInPath,
		}
	case DecisionUpgrade:
		p := Prompt{
			Title:   "Upgrade Required",
			Message: "You need " + accessLabel(g.Required) + " to view this content.",
		}
		if g.Required == domainauth.RolePro {
			p.Action = "Upgrade to Pro"
		}
		return p
	default:
		return Prompt{}
	}
}

func accessLabel(r domainauth.Role) string {
	if r == domainauth.RolePro {
		return "Pro access"
	}
	return r.String() + " access"
}
