package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/conversation"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/ports"
)

const collectionConversations = "conversations"

type ConversationRepository struct {
	col   *mongo.Collection
	clock domain.Clock
}

var _ ports.ConversationRepository = (*ConversationRepository)(nil)

func NewConversationRepository(db *mongo.Database, clock domain.Clock) *ConversationRepository {
	return &ConversationRepository{col: db.Collection(collectionConversations), clock: clock}
}

type conversationDoc struct {
	ID                      string    `bson:"_id"`
	SharerID                string    `bson:"sharer_id"`
	ReserverID              string    `bson:"reserver_id"`
	ListingID               string    `bson:"listing_id"`
	MessagingConversationID string    `bson:"messaging_conversation_id,omitempty"`
	LastActivityAt          time.Time `bson:"last_activity_at"`
	CreatedAt               time.Time `bson:"created_at"`
	UpdatedAt               time.Time `bson:"updated_at"`
	SchemaVersion           string    `bson:"schema_version"`
	Version                 int64     `bson:"version"`
}

func (r *ConversationRepository) Get(ctx context.Context, id string, p passport.Passport) (*conversation.Conversation, error) {
	var d conversationDoc
	if err := findByID(ctx, r.col, id, &d, "conversation"); err != nil {
		return nil, err
	}
	return conversation.FromReference(conversation.Reference{
		ID:                      d.ID,
		SharerID:                d.SharerID,
		ReserverID:              d.ReserverID,
		ListingID:               d.ListingID,
		MessagingConversationID: d.MessagingConversationID,
		LastActivityAt:          d.LastActivityAt.UTC(),
		CreatedAt:               d.CreatedAt.UTC(),
		UpdatedAt:               d.UpdatedAt.UTC(),
		SchemaVersion:           d.SchemaVersion,
		Version:                 d.Version,
	}, p, r.clock)
}

func (r *ConversationRepository) Save(ctx context.Context, c *conversation.Conversation) error {
	ref := c.Reference()
	doc := conversationDoc{
		ID:                      ref.ID,
		SharerID:                ref.SharerID,
		ReserverID:              ref.ReserverID,
		ListingID:               ref.ListingID,
		MessagingConversationID: ref.MessagingConversationID,
		LastActivityAt:          ref.LastActivityAt.UTC(),
		CreatedAt:               ref.CreatedAt.UTC(),
		UpdatedAt:               ref.UpdatedAt.UTC(),
		SchemaVersion:           ref.SchemaVersion,
		Version:                 ref.Version + 1,
	}
	if err := saveVersioned(ctx, r.col, ref.ID, ref.Version, doc, "conversation", nil); err != nil {
		return err
	}
	c.MarkPersisted(doc.Version)
	return nil
}

func (r *ConversationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}}},
		{Keys: bson.D{{Key: "sharer_id", Value: 1}}},
		{Keys: bson.D{{Key: "reserver_id", Value: 1}}},
	})
	return err
}
