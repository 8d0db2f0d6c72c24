// Package auth contains simple hand-written test doubles for the sign-in ports.
// They are safe for concurrent use and need no codegen.
package auth

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	domainauth "github.com/boycepro/folio/internal/domain/auth"
	"github.com/boycepro/folio/internal/domain/model"
	"github.com/boycepro/folio/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.IdentityAdmin    = (*MockIdentityProvider)(nil)
	_ ports.AuthStateStore   = (*MemoryAuthStateStore)(nil)
	_ ports.TicketStore      = (*MemoryTicketStore)(nil)
	_ ports.RoleStore        = (*MemoryRoleStore)(nil)
	_ ports.IdentityStore    = (*MemoryIdentityStore)(nil)
	_ ports.LinkSender       = (*CapturingLinkSender)(nil)
	_ ports.LinkLedger       = (*MemoryLinkLedger)(nil)
	_ ports.ContentStore     = (*MemoryContentStore)(nil)
)

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

func (notFoundError) Is(target error) bool { return target == ports.ErrNotFound }

// ErrNotFound is returned by the doubles when an entity is not present.
var ErrNotFound error = notFoundError{}

// MockIdentityProvider simulates the magic-link backend. Links look like
// "<callback>?mode=signIn&oobCode=<email>" and can be redeemed once.
// Any Func field overrides the default behavior.
type MockIdentityProvider struct {
	SendFunc    func(ctx context.Context, in ports.SendLinkInput) error
	SignInFunc  func(ctx context.Context, email, link string) (domainauth.Identity, error)
	RefreshFunc func(ctx context.Context, id domainauth.Identity) (domainauth.Identity, error)
	RevokeFunc  func(ctx context.Context, identityID string) error

	Now func() time.Time

	mu       sync.Mutex
	sent     []ports.SendLinkInput
	links    []string
	consumed map[string]bool
	users    map[string]domainauth.Identity
	claims   map[string]map[string]any
	revoked  map[string]bool
	calls    map[string]int
}

// NewMockIdentityProvider creates a provider with no users.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		consumed: map[string]bool{},
		users:    map[string]domainauth.Identity{},
		claims:   map[string]map[string]any{},
		revoked:  map[string]bool{},
		calls:    map[string]int{},
	}
}

func (m *MockIdentityProvider) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}

func (m *MockIdentityProvider) record(op string) {
	m.mu.Lock()
	m.calls[op]++
	m.mu.Unlock()
}

// Calls returns how often op was invoked.
func (m *MockIdentityProvider) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// AddUser registers an account so admin lookups and refreshes succeed.
func (m *MockIdentityProvider) AddUser(id domainauth.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id.Email] = id
}

// Claims returns the custom claims set for identityID.
func (m *MockIdentityProvider) Claims(identityID string) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claims[identityID]
}

// SentLinks returns every link issued so far.
func (m *MockIdentityProvider) SentLinks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.links...)
}

// LastLink returns the most recently issued link, or "".
func (m *MockIdentityProvider) LastLink() string {
	links := m.SentLinks()
	if len(links) == 0 {
		return ""
	}
	return links[len(links)-1]
}

func (m *MockIdentityProvider) SendSignInLink(ctx context.Context, in ports.SendLinkInput) error {
	m.record("send")
	if m.SendFunc != nil {
		return m.SendFunc(ctx, in)
	}
	u, err := url.Parse(in.CallbackURL)
	if err != nil {
		return err
	}
	q := u.Query()
	q.Set("mode", "signIn")
	q.Set("oobCode", in.Email)
	u.RawQuery = q.Encode()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, in)
	m.links = append(m.links, u.String())
	return nil
}

func (m *MockIdentityProvider) IsSignInLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	q := u.Query()
	return q.Get("mode") == "signIn" && q.Get("oobCode") != ""
}

func (m *MockIdentityProvider) SignInWithLink(ctx context.Context, email, link string) (domainauth.Identity, error) {
	m.record("signin")
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, link)
	}
	if !m.IsSignInLink(link) {
		return domainauth.Identity{}, domainauth.ErrNotSignInLink
	}
	u, _ := url.Parse(link)
	code := u.Query().Get("oobCode")
	if !strings.EqualFold(code, email) {
		return domainauth.Identity{}, domainauth.ErrEmailMismatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumed[link] {
		return domainauth.Identity{}, domainauth.ErrLinkConsumed
	}
	m.consumed[link] = true

	id, ok := m.users[email]
	if !ok {
		id = domainauth.Identity{ID: "uid-" + email, Email: email}
	}
	id.EmailVerified = true
	id.SignedInAt = m.now()
	m.users[email] = id
	delete(m.revoked, id.ID)
	return id, nil
}

func (m *MockIdentityProvider) Refresh(ctx context.Context, id domainauth.Identity) (domainauth.Identity, error) {
	m.record("refresh")
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.revoked[id.ID] {
		return domainauth.Identity{}, domainauth.ErrSessionRevoked
	}
	return id, nil
}

func (m *MockIdentityProvider) Revoke(ctx context.Context, identityID string) error {
	m.record("revoke")
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, identityID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[identityID] = true
	return nil
}

func (m *MockIdentityProvider) GetUserByEmail(_ context.Context, email string) (domainauth.Identity, error) {
	m.record("get_user")
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.users[email]
	if !ok {
		return domainauth.Identity{}, domainauth.ErrUnknownUser
	}
	return id, nil
}

func (m *MockIdentityProvider) SetCustomClaims(_ context.Context, identityID string, claims map[string]any) error {
	m.record("set_claims")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[identityID] = claims
	return nil
}

// MemoryAuthStateStore is an in-memory ports.AuthStateStore.
type MemoryAuthStateStore struct {
	mu     sync.Mutex
	states map[string]domainauth.Identity
	// GetErr, when set, is returned by Get.
	GetErr error
}

// NewMemoryAuthStateStore creates an empty store.
func NewMemoryAuthStateStore() *MemoryAuthStateStore {
	return &MemoryAuthStateStore{states: map[string]domainauth.Identity{}}
}

func (m *MemoryAuthStateStore) Save(_ context.Context, browserID string, id domainauth.Identity) error {
	if browserID == "" {
		return errors.New("browser ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[browserID] = id
	return nil
}

func (m *MemoryAuthStateStore) Get(_ context.Context, browserID string) (domainauth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return domainauth.Identity{}, m.GetErr
	}
	id, ok := m.states[browserID]
	if !ok {
		return domainauth.Identity{}, ErrNotFound
	}
	return id, nil
}

func (m *MemoryAuthStateStore) Delete(_ context.Context, browserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, browserID)
	return nil
}

// MemoryTicketStore is an in-memory ports.TicketStore.
type MemoryTicketStore struct {
	mu     sync.Mutex
	ticket *domainauth.PendingTicket
}

func (m *MemoryTicketStore) Load() (domainauth.PendingTicket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticket == nil {
		return domainauth.PendingTicket{}, false
	}
	return *m.ticket, true
}

func (m *MemoryTicketStore) Store(t domainauth.PendingTicket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticket = &t
}

func (m *MemoryTicketStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticket = nil
}

// MemoryRoleStore is an in-memory ports.RoleStore with error injection.
type MemoryRoleStore struct {
	mu      sync.Mutex
	records map[string]domainauth.RoleRecord

	GetErr       error
	ProvisionErr error
	// Delay, when set, is slept before every read so tests can interleave lookups.
	Delay func(id string) time.Duration

	GetCalls       int
	ProvisionCalls int
}

// NewMemoryRoleStore creates an empty role store.
func NewMemoryRoleStore() *MemoryRoleStore {
	return &MemoryRoleStore{records: map[string]domainauth.RoleRecord{}}
}

func (m *MemoryRoleStore) wait(ctx context.Context, id string) error {
	if m.Delay == nil {
		return nil
	}
	select {
	case <-time.After(m.Delay(id)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *MemoryRoleStore) GetRole(ctx context.Context, id string) (domainauth.RoleRecord, error) {
	if err := m.wait(ctx, id); err != nil {
		return domainauth.RoleRecord{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetCalls++
	if m.GetErr != nil {
		return domainauth.RoleRecord{}, m.GetErr
	}
	rec, ok := m.records[id]
	if !ok {
		return domainauth.RoleRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryRoleStore) ProvisionDefaultRole(_ context.Context, id, email string) (domainauth.RoleRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProvisionCalls++
	if m.ProvisionErr != nil {
		return domainauth.RoleRecord{}, m.ProvisionErr
	}
	if rec, ok := m.records[id]; ok {
		return rec, nil
	}
	now := time.Now().UTC()
	rec := domainauth.RoleRecord{ID: id, Email: email, Role: domainauth.RoleFree, CreatedAt: now, UpdatedAt: now}
	m.records[id] = rec
	return rec, nil
}

func (m *MemoryRoleStore) SetRole(_ context.Context, id, email string, role domainauth.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	rec, ok := m.records[id]
	if !ok {
		rec.CreatedAt = now
	}
	rec.ID, rec.Email, rec.Role, rec.UpdatedAt = id, email, role, now
	m.records[id] = rec
	return nil
}

// Count returns how many records exist.
func (m *MemoryRoleStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// MemoryIdentityStore is an in-memory ports.IdentityStore.
type MemoryIdentityStore struct {
	mu     sync.Mutex
	byID   map[string]*ports.IdentityRecord
	nextID int
}

// NewMemoryIdentityStore creates an empty identity store.
func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{byID: map[string]*ports.IdentityRecord{}}
}

func (m *MemoryIdentityStore) findEmail(email string) *ports.IdentityRecord {
	for _, rec := range m.byID {
		if rec.Email == email {
			return rec
		}
	}
	return nil
}

func (m *MemoryIdentityStore) RecordSignIn(_ context.Context, email string, at time.Time) (ports.IdentityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.findEmail(email)
	if rec == nil {
		m.nextID++
		rec = &ports.IdentityRecord{
			ID:        "00000000-0000-4000-8000-" + leftPad(m.nextID),
			Email:     email,
			Claims:    map[string]any{},
			CreatedAt: at,
		}
		m.byID[rec.ID] = rec
	}
	t := at
	rec.LastSignInAt = &t
	return *rec, nil
}

func (m *MemoryIdentityStore) GetByID(_ context.Context, id string) (ports.IdentityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return ports.IdentityRecord{}, ErrNotFound
	}
	return *rec, nil
}

func (m *MemoryIdentityStore) GetByEmail(_ context.Context, email string) (ports.IdentityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.findEmail(email)
	if rec == nil {
		return ports.IdentityRecord{}, ErrNotFound
	}
	return *rec, nil
}

func (m *MemoryIdentityStore) SetClaims(_ context.Context, id string, claims map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.Claims = claims
	return nil
}

func (m *MemoryIdentityStore) RevokeTokens(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return ErrNotFound
	}
	rec.TokensValidAfter = at
	return nil
}

func leftPad(n int) string {
	s := "000000000000"
	digits := []byte(s)
	for i := len(digits) - 1; i >= 0 && n > 0; i-- {
		digits[i] = byte('0' + n%10)
		n /= 10
	}
	return string(digits)
}

// CapturingLinkSender records delivered links instead of sending mail.
type CapturingLinkSender struct {
	mu    sync.Mutex
	Err   error
	Links map[string][]string
}

func (c *CapturingLinkSender) SendLink(_ context.Context, email, link string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	if c.Links == nil {
		c.Links = map[string][]string{}
	}
	c.Links[email] = append(c.Links[email], link)
	return nil
}

// Last returns the most recent link delivered to email.
func (c *CapturingLinkSender) Last(email string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	links := c.Links[email]
	if len(links) == 0 {
		return ""
	}
	return links[len(links)-1]
}

// MemoryLinkLedger is an in-memory ports.LinkLedger.
type MemoryLinkLedger struct {
	mu   sync.Mutex
	used map[string]bool
}

func (l *MemoryLinkLedger) Consume(_ context.Context, id string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.used == nil {
		l.used = map[string]bool{}
	}
	if l.used[id] {
		return false, nil
	}
	l.used[id] = true
	return true, nil
}

// MemoryContentStore is an in-memory ports.ContentStore with version checks.
type MemoryContentStore struct {
	mu       sync.Mutex
	sections map[string]model.Section
	SaveErr  error
}

// NewMemoryContentStore creates an empty content store.
func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{sections: map[string]model.Section{}}
}

func (m *MemoryContentStore) GetPage(_ context.Context, pageID string) (model.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	page := model.Page{ID: pageID, Sections: map[string]model.Section{}}
	for _, s := range m.sections {
		if s.PageID == pageID {
			page.Sections[s.Key] = s
		}
	}
	return page, nil
}

func (m *MemoryContentStore) GetSection(_ context.Context, pageID, key string) (model.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sections[pageID+"/"+key]
	if !ok {
		return model.Section{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryContentStore) SaveSection(_ context.Context, req model.SaveSectionRequest) (model.Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return model.Section{}, m.SaveErr
	}
	key := req.PageID + "/" + req.Key
	cur, exists := m.sections[key]
	if (req.ExpectedVersion == 0 && exists) || (req.ExpectedVersion != 0 && cur.Version != req.ExpectedVersion) {
		return model.Section{}, domainauth.ErrVersionConflict
	}
	s := model.Section{
		PageID:    req.PageID,
		Key:       req.Key,
		Content:   req.Content,
		RichText:  req.RichText,
		Version:   cur.Version + 1,
		UpdatedBy: req.UpdatedBy,
		UpdatedAt: time.Now().UTC(),
	}
	m.sections[key] = s
	return s, nil
}
