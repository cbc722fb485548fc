package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/reservation"
	"github.com/simnova/sharethrift/internal/core/ports"
)

const collectionReservations = "reservation_requests"

// ReservationRepository stores reservation requests. Every request it loads is
// bound to the same lifecycle policy.
type ReservationRepository struct {
	col    *mongo.Collection
	policy reservation.Policy
	clock  domain.Clock
}

var _ ports.ReservationRequestRepository = (*ReservationRepository)(nil)

func NewReservationRepository(db *mongo.Database, policy reservation.Policy, clock domain.Clock) *ReservationRepository {
	return &ReservationRepository{col: db.Collection(collectionReservations), policy: policy, clock: clock}
}

type reservationDoc struct {
	ID                       string    `bson:"_id"`
	ListingID                string    `bson:"listing_id"`
	ListingSharerID          string    `bson:"listing_sharer_id"`
	ReserverID               string    `bson:"reserver_id"`
	PeriodStart              time.Time `bson:"period_start"`
	PeriodEnd                time.Time `bson:"period_end"`
	State                    string    `bson:"state"`
	CloseRequestedBySharer   bool      `bson:"close_requested_by_sharer"`
	CloseRequestedByReserver bool      `bson:"close_requested_by_reserver"`
	CreatedAt                time.Time `bson:"created_at"`
	UpdatedAt                time.Time `bson:"updated_at"`
	SchemaVersion            string    `bson:"schema_version"`
	Version                  int64     `bson:"version"`
}

func toReservationDoc(r reservation.Reference) reservationDoc {
	return reservationDoc{
		ID:                       r.ID,
		ListingID:                r.ListingID,
		ListingSharerID:          r.ListingSharerID,
		ReserverID:               r.ReserverID,
		PeriodStart:              r.ReservationPeriodStart.UTC(),
		PeriodEnd:                r.ReservationPeriodEnd.UTC(),
		State:                    string(r.State),
		CloseRequestedBySharer:   r.CloseRequestedBySharer,
		CloseRequestedByReserver: r.CloseRequestedByReserver,
		CreatedAt:                r.CreatedAt.UTC(),
		UpdatedAt:                r.UpdatedAt.UTC(),
		SchemaVersion:            r.SchemaVersion,
		Version:                  r.Version,
	}
}

func (d reservationDoc) reference() reservation.Reference {
	return reservation.Reference{
		ID:                       d.ID,
		ListingID:                d.ListingID,
		ListingSharerID:          d.ListingSharerID,
		ReserverID:               d.ReserverID,
		ReservationPeriodStart:   d.PeriodStart.UTC(),
		ReservationPeriodEnd:     d.PeriodEnd.UTC(),
		State:                    reservation.State(d.State),
		CloseRequestedBySharer:   d.CloseRequestedBySharer,
		CloseRequestedByReserver: d.CloseRequestedByReserver,
		CreatedAt:                d.CreatedAt.UTC(),
		UpdatedAt:                d.UpdatedAt.UTC(),
		SchemaVersion:            d.SchemaVersion,
		Version:                  d.Version,
	}
}

func (r *ReservationRepository) Get(ctx context.Context, id string, p passport.Passport) (*reservation.ReservationRequest, error) {
	var doc reservationDoc
	if err := findByID(ctx, r.col, id, &doc, "reservation request"); err != nil {
		return nil, err
	}
	return reservation.FromReference(doc.reference(), p, r.policy, r.clock)
}

func (r *ReservationRepository) Save(ctx context.Context, rr *reservation.ReservationRequest) error {
	ref := rr.Reference()
	doc := toReservationDoc(ref)
	doc.Version = ref.Version + 1
	if err := saveVersioned(ctx, r.col, ref.ID, ref.Version, doc, "reservation request", nil); err != nil {
		return err
	}
	rr.MarkPersisted(doc.Version)
	return nil
}

// ListByListing returns every request made against a listing, oldest first.
func (r *ReservationRepository) ListByListing(ctx context.Context, listingID string) ([]reservation.Reference, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"listing_id": listingID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find reservation requests: %w", err)
	}
	defer cur.Close(ctx)

	var docs []reservationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reservation requests: %w", err)
	}
	out := make([]reservation.Reference, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.reference())
	}
	return out, nil
}

func (r *ReservationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "reserver_id", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
