package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/conversation"
	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/domain/user"
	"github.com/simnova/sharethrift/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fixedClock() domain.Clock {
	return func() time.Time { return t0 }
}

func member(id string) passport.Passport {
	return passport.ForPrincipal(passport.Principal{ID: id, Permissions: passport.MemberPermissions()})
}

func admin(id string) passport.Passport {
	return passport.ForPrincipal(passport.Principal{ID: id, Permissions: passport.AdminPermissions()})
}

// checkVersion mirrors the optimistic-concurrency filter of the Mongo
// repositories: stored must equal the aggregate's version, or be absent for a
// new aggregate.
func checkVersion(stored int64, exists bool, version int64) error {
	if (!exists && version != 0) || (exists && stored != version) {
		return domain.ConcurrencyError("aggregate was modified concurrently")
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory stub repositories. They store references and rehydrate on every
// Get, the same way the real repositories do.
// ---------------------------------------------------------------------------

type stubListingRepo struct {
	mu        sync.Mutex
	items     map[string]listing.Reference
	conflicts int   // number of Saves that fail with a concurrency error
	saveErr   error // if set, Save returns this error
	saves     int
}

func newStubListingRepo() *stubListingRepo {
	return &stubListingRepo{items: make(map[string]listing.Reference)}
}

func (r *stubListingRepo) Get(_ context.Context, id string, p passport.Passport) (*listing.ItemListing, error) {
	r.mu.Lock()
	ref, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return nil, domain.NotFoundError("listing not found")
	}
	return listing.FromReference(ref, p, fixedClock())
}

func (r *stubListingRepo) Save(_ context.Context, l *listing.ItemListing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.conflicts > 0 {
		r.conflicts--
		return domain.ConcurrencyError("aggregate was modified concurrently")
	}
	stored, ok := r.items[l.ID()]
	if err := checkVersion(stored.Version, ok, l.Version()); err != nil {
		return err
	}
	l.MarkPersisted(l.Version() + 1)
	r.items[l.ID()] = l.Reference()
	return nil
}

func (r *stubListingRepo) List(_ context.Context, f ports.ListingFilter) ([]listing.Reference, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []listing.Reference
	for _, ref := range r.items {
		if f.SharerID != "" && ref.SharerID != f.SharerID {
			continue
		}
		if f.State != "" && string(ref.State) != f.State {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(ref.Title), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, ref)
	}
	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// seed stores a published listing owned by sharerID and returns its id.
func (r *stubListingRepo) seed(sharerID string) string {
	l, err := listing.NewInstance(passport.System(), listing.Draft{
		SharerID:           sharerID,
		Title:              "Cordless drill",
		Description:        "18V with two batteries",
		Category:           "Tools",
		Location:           "Springfield",
		SharingPeriodStart: t0.Add(24 * time.Hour),
		SharingPeriodEnd:   t0.Add(30 * 24 * time.Hour),
	}, fixedClock())
	if err != nil {
		panic(err)
	}
	if err := r.Save(context.Background(), l); err != nil {
		panic(err)
	}
	return l.ID()
}

type stubReservationRepo struct {
	mu    sync.Mutex
	items map[string]reservation.Reference
}

func newStubReservationRepo() *stubReservationRepo {
	return &stubReservationRepo{items: make(map[string]reservation.Reference)}
}

func (r *stubReservationRepo) Get(_ context.Context, id string, p passport.Passport) (*reservation.ReservationRequest, error) {
	r.mu.Lock()
	ref, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return nil, domain.NotFoundError("reservation request not found")
	}
	return reservation.FromReference(ref, p, reservation.Policy{}, fixedClock())
}

func (r *stubReservationRepo) Save(_ context.Context, rr *reservation.ReservationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[rr.ID()]
	if err := checkVersion(stored.Version, ok, rr.Version()); err != nil {
		return err
	}
	rr.MarkPersisted(rr.Version() + 1)
	r.items[rr.ID()] = rr.Reference()
	return nil
}

func (r *stubReservationRepo) ListByListing(_ context.Context, listingID string) ([]reservation.Reference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []reservation.Reference
	for _, ref := range r.items {
		if ref.ListingID == listingID {
			out = append(out, ref)
		}
	}
	return out, nil
}

type stubConversationRepo struct {
	mu    sync.Mutex
	items map[string]conversation.Reference
}

func newStubConversationRepo() *stubConversationRepo {
	return &stubConversationRepo{items: make(map[string]conversation.Reference)}
}

func (r *stubConversationRepo) Get(_ context.Context, id string, p passport.Passport) (*conversation.Conversation, error) {
	r.mu.Lock()
	ref, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return nil, domain.NotFoundError("conversation not found")
	}
	return conversation.FromReference(ref, p, fixedClock())
}

func (r *stubConversationRepo) Save(_ context.Context, c *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[c.ID()]
	if err := checkVersion(stored.Version, ok, c.Version()); err != nil {
		return err
	}
	c.MarkPersisted(c.Version() + 1)
	r.items[c.ID()] = c.Reference()
	return nil
}

type stubUserRepo struct {
	mu      sync.Mutex
	items   map[string]user.Reference
	saveErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{items: make(map[string]user.Reference)}
}

func (r *stubUserRepo) Get(_ context.Context, id string, p passport.Passport) (*user.PersonalUser, error) {
	r.mu.Lock()
	ref, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return nil, domain.NotFoundError("user not found")
	}
	return user.FromReference(ref, p, fixedClock())
}

func (r *stubUserRepo) Save(_ context.Context, u *user.PersonalUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	stored, ok := r.items[u.ID()]
	if err := checkVersion(stored.Version, ok, u.Version()); err != nil {
		return err
	}
	u.MarkPersisted(u.Version() + 1)
	r.items[u.ID()] = u.Reference()
	return nil
}

// seed stores an active user with the given role and returns its id.
func (r *stubUserRepo) seed(email, roleID string) string {
	u, err := user.NewInstance(passport.System(), user.Draft{
		Email:     email,
		FirstName: "Ada",
		LastName:  "Lovelace",
		RoleID:    roleID,
	}, fixedClock())
	if err != nil {
		panic(err)
	}
	if err := r.Save(context.Background(), u); err != nil {
		panic(err)
	}
	return u.ID()
}

type stubRoleRepo struct {
	mu    sync.Mutex
	items map[string]user.RoleReference
}

func newStubRoleRepo() *stubRoleRepo {
	return &stubRoleRepo{items: make(map[string]user.RoleReference)}
}

func (r *stubRoleRepo) Get(_ context.Context, id string, p passport.Passport) (*user.Role, error) {
	r.mu.Lock()
	ref, ok := r.items[id]
	r.mu.Unlock()
	if !ok {
		return nil, domain.NotFoundError("role not found")
	}
	return user.RoleFromReference(ref, p, fixedClock())
}

func (r *stubRoleRepo) GetDefault(ctx context.Context, p passport.Passport) (*user.Role, error) {
	r.mu.Lock()
	var id string
	for _, ref := range r.items {
		if ref.IsDefault {
			id = ref.ID
			break
		}
	}
	r.mu.Unlock()
	if id == "" {
		return nil, domain.NotFoundError("default role not found")
	}
	return r.Get(ctx, id, p)
}

func (r *stubRoleRepo) Save(_ context.Context, role *user.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[role.ID()]
	if err := checkVersion(stored.Version, ok, role.Version()); err != nil {
		return err
	}
	role.MarkPersisted(role.Version() + 1)
	r.items[role.ID()] = role.Reference()
	return nil
}

func (r *stubRoleRepo) seed(name string, perms passport.Permissions, isDefault bool) string {
	role, err := user.NewRole(passport.System(), user.RoleDraft{Name: name, Permissions: perms, IsDefault: isDefault}, fixedClock())
	if err != nil {
		panic(err)
	}
	if err := r.Save(context.Background(), role); err != nil {
		panic(err)
	}
	return role.ID()
}

type stubCredentialRepo struct {
	mu      sync.Mutex
	byEmail map[string]ports.Credential
}

func newStubCredentialRepo() *stubCredentialRepo {
	return &stubCredentialRepo{byEmail: make(map[string]ports.Credential)}
}

func (r *stubCredentialRepo) FindByEmail(_ context.Context, email string) (*ports.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byEmail[email]
	if !ok {
		return nil, domain.NotFoundError("credential not found")
	}
	return &c, nil
}

func (r *stubCredentialRepo) Create(_ context.Context, c *ports.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byEmail[c.Email]; ok {
		return domain.ErrUserExists
	}
	r.byEmail[c.Email] = *c
	return nil
}

func (r *stubCredentialRepo) UpdateEmail(_ context.Context, userID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if taken, ok := r.byEmail[email]; ok && taken.UserID != userID {
		return domain.ErrUserExists
	}
	for old, c := range r.byEmail {
		if c.UserID == userID {
			delete(r.byEmail, old)
			c.Email = email
			r.byEmail[email] = c
			return nil
		}
	}
	return domain.NotFoundError("credential not found")
}

func (r *stubCredentialRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, c := range r.byEmail {
		if c.UserID == userID {
			delete(r.byEmail, email)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Event plumbing stubs
// ---------------------------------------------------------------------------

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *stubPublisher) Publish(_ context.Context, events []domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
}

func (p *stubPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name)
	}
	return out
}

func (p *stubPublisher) last() domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type stubDedup struct {
	seen     map[string]bool
	checkErr error
}

func newStubDedup() *stubDedup {
	return &stubDedup{seen: make(map[string]bool)}
}

func dedupKey(ev domain.Event) string {
	return ev.Name + ":" + ev.AggregateID
}

func (d *stubDedup) IsDuplicate(_ context.Context, ev domain.Event) (bool, error) {
	if d.checkErr != nil {
		return false, d.checkErr
	}
	return d.seen[dedupKey(ev)], nil
}

func (d *stubDedup) Mark(_ context.Context, ev domain.Event) error {
	d.seen[dedupKey(ev)] = true
	return nil
}

type stubEventLog struct {
	appended []domain.Event
	err      error
}

func (l *stubEventLog) Append(_ context.Context, ev domain.Event) error {
	if l.err != nil {
		return l.err
	}
	l.appended = append(l.appended, ev)
	return nil
}
