// Package conversation holds the Conversation aggregate: the link between a
// listing, its sharer, a prospective reserver and the external messaging
// channel they talk on. It has no state machine. Its participant references
// can only be changed by a principal allowed to manage conversations.
package conversation

import (
	"fmt"
	"time"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
)

const (
	EventCreated = "conversation.created"
	EventUpdated = "conversation.updated"
)

// Draft carries the fields of a conversation under construction.
type Draft struct {
	SharerID                string
	ReserverID              string
	ListingID               string
	MessagingConversationID string
}

type Conversation struct {
	base                    domain.Base
	sharerID                string
	reserverID              string
	listingID               string
	messagingConversationID string
	lastActivityAt          time.Time

	visa   passport.Visa
	clock  domain.Clock
	events domain.Events
}

// Reference is an immutable projection of a Conversation.
type Reference struct {
	ID                      string
	SharerID                string
	ReserverID              string
	ListingID               string
	MessagingConversationID string
	LastActivityAt          time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
	SchemaVersion           string
	Version                 int64
}

// NewInstance creates a conversation after checking the create capability.
func NewInstance(p passport.Passport, d Draft, clock domain.Clock) (*Conversation, error) {
	visa := p.ForConversation(passport.ConversationSubject{SharerID: d.SharerID, ReserverID: d.ReserverID})
	if !visa.HasCapability(passport.CanCreateConversation) {
		return nil, domain.PermissionError("You do not have permission to create this conversation")
	}
	c, err := d.Build(p, clock)
	if err != nil {
		return nil, err
	}
	c.events.Record(EventCreated, c.base.ID, c.base.CreatedAt, map[string]string{
		"listing_id":  c.listingID,
		"sharer_id":   c.sharerID,
		"reserver_id": c.reserverID,
	})
	return c, nil
}

// Build validates the draft. The messaging conversation id may be empty: the
// channel is usually opened after the conversation exists.
func (d Draft) Build(p passport.Passport, clock domain.Clock) (*Conversation, error) {
	if d.SharerID == "" {
		return nil, domain.InvariantError("sharer is required")
	}
	if d.ReserverID == "" {
		return nil, domain.InvariantError("reserver is required")
	}
	if d.ListingID == "" {
		return nil, domain.InvariantError("listing is required")
	}
	if d.SharerID == d.ReserverID {
		return nil, domain.InvariantError("sharer and reserver must be different users")
	}
	now := clock.Now()
	c := &Conversation{
		base:                    domain.NewBase(now),
		sharerID:                d.SharerID,
		reserverID:              d.ReserverID,
		listingID:               d.ListingID,
		messagingConversationID: d.MessagingConversationID,
		lastActivityAt:          now,
		clock:                   clock,
	}
	c.visa = p.ForConversation(passport.ConversationSubject{SharerID: c.sharerID, ReserverID: c.reserverID})
	return c, nil
}

// FromReference rehydrates a persisted conversation.
func FromReference(ref Reference, p passport.Passport, clock domain.Clock) (*Conversation, error) {
	base := domain.Base{
		ID:            ref.ID,
		CreatedAt:     ref.CreatedAt,
		UpdatedAt:     ref.UpdatedAt,
		SchemaVersion: ref.SchemaVersion,
		Version:       ref.Version,
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	c, err := Draft{
		SharerID:                ref.SharerID,
		ReserverID:              ref.ReserverID,
		ListingID:               ref.ListingID,
		MessagingConversationID: ref.MessagingConversationID,
	}.Build(p, clock)
	if err != nil {
		return nil, err
	}
	c.base = base
	c.lastActivityAt = ref.LastActivityAt
	return c, nil
}

// change applies a manage-gated reference update. field names the reference
// in messages and events.
func (c *Conversation) change(field, value string, apply func(string) error) error {
	if !c.visa.HasCapability(passport.CanManageConversation) {
		return domain.PermissionError(fmt.Sprintf("You do not have permission to change the %s of this conversation", field))
	}
	if value == "" {
		return domain.InvariantError(field + " is required")
	}
	if err := apply(value); err != nil {
		return err
	}
	c.base.Touch(c.clock.Now())
	c.events.Record(EventUpdated, c.base.ID, c.base.UpdatedAt, map[string]string{"field": field})
	return nil
}

func (c *Conversation) SetSharer(id string) error {
	return c.change("sharer", id, func(v string) error {
		if v == c.reserverID {
			return domain.InvariantError("sharer and reserver must be different users")
		}
		c.sharerID = v
		return nil
	})
}

func (c *Conversation) SetReserver(id string) error {
	return c.change("reserver", id, func(v string) error {
		if v == c.sharerID {
			return domain.InvariantError("sharer and reserver must be different users")
		}
		c.reserverID = v
		return nil
	})
}

func (c *Conversation) SetListing(id string) error {
	return c.change("listing", id, func(v string) error {
		c.listingID = v
		return nil
	})
}

func (c *Conversation) SetMessagingConversationID(id string) error {
	return c.change("messaging conversation id", id, func(v string) error {
		c.messagingConversationID = v
		return nil
	})
}

// UpdateLastActivity stamps the conversation as active now. Participants and
// managers may do this.
func (c *Conversation) UpdateLastActivity() error {
	if !passport.AnyOf(c.visa, passport.CanManageConversation, passport.CanViewConversation) {
		return domain.PermissionError("You do not have permission to update the activity of this conversation")
	}
	c.base.Touch(c.clock.Now())
	c.lastActivityAt = c.base.UpdatedAt
	return nil
}

func (c *Conversation) ID() string { return c.base.ID }
func (c *Conversation) SharerID() string { return c.sharerID }
func (c *Conversation) ReserverID() string { return c.reserverID }
func (c *Conversation) ListingID() string { return c.listingID }
func (c *Conversation) MessagingConversationID() string { return c.messagingConversationID }
func (c *Conversation) LastActivityAt() time.Time { return c.lastActivityAt }
func (c *Conversation) CreatedAt() time.Time { return c.base.CreatedAt }
func (c *Conversation) UpdatedAt() time.Time { return c.base.UpdatedAt }
func (c *Conversation) Version() int64 { return c.base.Version }
func (c *Conversation) MarkPersisted(version int64) { c.base.Version = version }
func (c *Conversation) PendingEvents() []domain.Event { return c.events.Pending() }
func (c *Conversation) ClearEvents() { c.events.Clear() }

// Reference returns an immutable projection of the current state.
func (c *Conversation) Reference() Reference {
	return Reference{
		ID:                      c.base.ID,
		SharerID:                c.sharerID,
		ReserverID:              c.reserverID,
		ListingID:               c.listingID,
		MessagingConversationID: c.messagingConversationID,
		LastActivityAt:          c.lastActivityAt,
		CreatedAt:               c.base.CreatedAt,
		UpdatedAt:               c.base.UpdatedAt,
		SchemaVersion:           c.base.SchemaVersion,
		Version:                 c.base.Version,
	}
}
