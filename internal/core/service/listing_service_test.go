package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/ports"
)

func newListingSvc() (*ListingService, *stubListingRepo, *stubPublisher) {
	repo := newStubListingRepo()
	pub := &stubPublisher{}
	return NewListingService(repo, pub, fixedClock(), zerolog.Nop()), repo, pub
}

func validCreateInput() ports.CreateListingInput {
	return ports.CreateListingInput{
		Title:              "Camping tent",
		Description:        "Sleeps four",
		Category:           "Outdoors",
		Location:           "Shelbyville",
		SharingPeriodStart: t0.Add(24 * time.Hour),
		SharingPeriodEnd:   t0.Add(14 * 24 * time.Hour),
		Images:             []string{"https://img.example.com/tent.jpg"},
	}
}

func TestListingCreate_SharerIsCaller(t *testing.T) {
	svc, repo, pub := newListingSvc()

	ref, err := svc.Create(context.Background(), member("alice"), validCreateInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.SharerID != "alice" {
		t.Errorf("expected sharer alice, got %q", ref.SharerID)
	}
	if ref.State != listing.StatePublished {
		t.Errorf("expected state Published, got %s", ref.State)
	}
	if ref.Version != 1 {
		t.Errorf("expected version 1 after first save, got %d", ref.Version)
	}
	if _, ok := repo.items[ref.ID]; !ok {
		t.Error("listing was not saved")
	}
	if got := pub.names(); len(got) != 1 || got[0] != listing.EventCreated {
		t.Errorf("expected one %s event, got %v", listing.EventCreated, got)
	}
}

func TestListingCreate_GuestDenied(t *testing.T) {
	svc, repo, pub := newListingSvc()

	_, err := svc.Create(context.Background(), passport.Guest(), validCreateInput())
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if len(repo.items) != 0 || len(pub.events) != 0 {
		t.Error("nothing should be saved or published on a denied create")
	}
}

func TestListingCreate_InvalidDraft(t *testing.T) {
	svc, _, _ := newListingSvc()
	in := validCreateInput()
	in.Title = "   "

	_, err := svc.Create(context.Background(), member("alice"), in)
	if !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestListingGet_PausedHiddenFromGuests(t *testing.T) {
	svc, repo, _ := newListingSvc()
	id := repo.seed("alice")
	if _, err := svc.Pause(context.Background(), member("alice"), id); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if _, err := svc.Get(context.Background(), passport.Guest(), id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a guest, got %v", err)
	}
	ref, err := svc.Get(context.Background(), member("alice"), id)
	if err != nil {
		t.Fatalf("owner should see their paused listing: %v", err)
	}
	if ref.State != listing.StatePaused {
		t.Errorf("expected Paused, got %s", ref.State)
	}
}

func TestListingList_OthersOnlySeePublished(t *testing.T) {
	svc, repo, _ := newListingSvc()
	repo.seed("alice")
	paused := repo.seed("alice")
	if _, err := svc.Pause(context.Background(), member("alice"), paused); err != nil {
		t.Fatalf("pause: %v", err)
	}

	page, err := svc.List(context.Background(), member("bob"), ports.ListingFilter{SharerID: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Total != 1 {
		t.Errorf("expected 1 published listing for bob, got %d", page.Total)
	}

	own, err := svc.List(context.Background(), member("alice"), ports.ListingFilter{SharerID: "alice"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if own.Total != 2 {
		t.Errorf("expected alice to see both of her listings, got %d", own.Total)
	}
}

func TestListingList_PaginationBounds(t *testing.T) {
	svc, repo, _ := newListingSvc()
	for i := 0; i < 5; i++ {
		repo.seed("alice")
	}

	page, err := svc.List(context.Background(), passport.Guest(), ports.ListingFilter{Page: 0, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Page != 1 || page.Limit != 2 {
		t.Errorf("expected page 1 limit 2, got page %d limit %d", page.Page, page.Limit)
	}
	if page.TotalPages != 3 {
		t.Errorf("expected 3 pages, got %d", page.TotalPages)
	}
	if len(page.Items) != 2 {
		t.Errorf("expected 2 items, got %d", len(page.Items))
	}

	capped, _ := svc.List(context.Background(), passport.Guest(), ports.ListingFilter{Limit: 1000})
	if capped.Limit != maxPageLimit {
		t.Errorf("expected limit capped at %d, got %d", maxPageLimit, capped.Limit)
	}
}

func TestListingUpdate_AppliesFields(t *testing.T) {
	svc, repo, _ := newListingSvc()
	id := repo.seed("alice")
	title := "Hammer drill"

	ref, err := svc.Update(context.Background(), member("alice"), id, ports.UpdateListingInput{Title: &title})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Title != title {
		t.Errorf("expected title %q, got %q", title, ref.Title)
	}
	if ref.Version != 2 {
		t.Errorf("expected version 2, got %d", ref.Version)
	}
}

func TestListingUpdate_OtherMemberDenied(t *testing.T) {
	svc, repo, _ := newListingSvc()
	id := repo.seed("alice")
	title := "Mine now"

	_, err := svc.Update(context.Background(), member("bob"), id, ports.UpdateListingInput{Title: &title})
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if repo.items[id].Title != "Cordless drill" {
		t.Error("denied update must not be persisted")
	}
}

func TestListingUpdate_HalfPeriodRejected(t *testing.T) {
	svc, repo, _ := newListingSvc()
	id := repo.seed("alice")
	start := t0.Add(48 * time.Hour)

	_, err := svc.Update(context.Background(), member("alice"), id, ports.UpdateListingInput{SharingPeriodStart: &start})
	if !errors.Is(err, domain.ErrInvariantViolation) {
		t.Fatalf("expected ErrInvariantViolation, got %v", err)
	}
}

func TestListingCancel_Terminal(t *testing.T) {
	svc, repo, _ := newListingSvc()
	id := repo.seed("alice")
	ctx := context.Background()

	if _, err := svc.Cancel(ctx, member("alice"), id); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	_, err := svc.Publish(ctx, member("alice"), id)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Message != "Cannot publish a listing in state Cancelled" {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestListingReport_OwnerCannotReport(t *testing.T) {
	svc, repo, _ := newListingSvc()
	id := repo.seed("alice")
	ctx := context.Background()

	if _, err := svc.Report(ctx, member("alice"), id); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("expected owner report to be denied, got %v", err)
	}
	ref, err := svc.Report(ctx, member("bob"), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.ReportCount != 1 {
		t.Errorf("expected report count 1, got %d", ref.ReportCount)
	}
}

func TestListingMutate_ConcurrentSave(t *testing.T) {
	svc, repo, pub := newListingSvc()
	id := repo.seed("alice")
	repo.conflicts = 1

	_, err := svc.Pause(context.Background(), member("alice"), id)
	if !errors.Is(err, domain.ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}
	if len(pub.events) != 0 {
		t.Error("events must not be published when the save fails")
	}
}
