package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/ports"
)

const collectionDomainEvents = "domain_events"

// EventLog implements ports.EventLog as an audit collection of processed
// domain events.
type EventLog struct {
	col   *mongo.Collection
	clock domain.Clock
}

var _ ports.EventLog = (*EventLog)(nil)

func NewEventLog(db *mongo.Database, clock domain.Clock) *EventLog {
	return &EventLog{col: db.Collection(collectionDomainEvents), clock: clock}
}

// Append writes one event to the audit collection.
func (l *EventLog) Append(ctx context.Context, ev domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"name":         ev.Name,
		"aggregate_id": ev.AggregateID,
		"occurred_at":  ev.OccurredAt.UTC(),
		"processed_at": l.clock.Now(),
	}
	if len(ev.Attributes) > 0 {
		doc["attributes"] = ev.Attributes
	}

	if _, err := l.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (l *EventLog) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := l.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "aggregate_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	return err
}
