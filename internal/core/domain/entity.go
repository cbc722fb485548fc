package domain

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is stamped on every aggregate created by this build.
const SchemaVersion = "1.0.0"

// Clock returns the current instant. Aggregates take one so tests can pin time.
type Clock func() time.Time

// Now returns c, or time.Now when c is nil.
func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// Base holds the identity and bookkeeping fields shared by every aggregate root.
// Version counts persisted revisions and is used by repositories for
// optimistic-concurrency checks.
type Base struct {
	ID            string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SchemaVersion string
	Version       int64
}

// NewBase stamps a fresh identity, timestamps and schema version.
func NewBase(now time.Time) Base {
	return Base{
		ID:            uuid.NewString(),
		CreatedAt:     now,
		UpdatedAt:     now,
		SchemaVersion: SchemaVersion,
	}
}

// Touch advances UpdatedAt. UpdatedAt is strictly increasing even when the
// clock does not move between two mutations.
func (b *Base) Touch(now time.Time) {
	if !now.After(b.UpdatedAt) {
		now = b.UpdatedAt.Add(time.Nanosecond)
	}
	b.UpdatedAt = now
}

// Validate checks the fields a rehydrated aggregate must carry.
func (b Base) Validate() error {
	if b.ID == "" {
		return InvariantError("id is required")
	}
	if b.CreatedAt.IsZero() {
		return InvariantError("createdAt is required")
	}
	if b.UpdatedAt.Before(b.CreatedAt) {
		return InvariantError("updatedAt cannot precede createdAt")
	}
	return nil
}
