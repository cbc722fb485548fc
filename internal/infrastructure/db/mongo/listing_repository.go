package mongo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/listing"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/ports"
)

const collectionListings = "item_listings"

type ListingRepository struct {
	col   *mongo.Collection
	clock domain.Clock
}

var _ ports.ListingRepository = (*ListingRepository)(nil)

func NewListingRepository(db *mongo.Database, clock domain.Clock) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings), clock: clock}
}

type listingDoc struct {
	ID                 string    `bson:"_id"`
	SharerID           string    `bson:"sharer_id"`
	Title              string    `bson:"title"`
	Description        string    `bson:"description"`
	Category           string    `bson:"category"`
	Location           string    `bson:"location"`
	SharingPeriodStart time.Time `bson:"sharing_period_start"`
	SharingPeriodEnd   time.Time `bson:"sharing_period_end"`
	State              string    `bson:"state"`
	ReportCount        int       `bson:"report_count"`
	SharingHistory     []string  `bson:"sharing_history"`
	Images             []string  `bson:"images"`
	CreatedAt          time.Time `bson:"created_at"`
	UpdatedAt          time.Time `bson:"updated_at"`
	SchemaVersion      string    `bson:"schema_version"`
	Version            int64     `bson:"version"`
}

func toListingDoc(r listing.Reference) listingDoc {
	return listingDoc{
		ID:                 r.ID,
		SharerID:           r.SharerID,
		Title:              r.Title,
		Description:        r.Description,
		Category:           r.Category,
		Location:           r.Location,
		SharingPeriodStart: r.SharingPeriodStart.UTC(),
		SharingPeriodEnd:   r.SharingPeriodEnd.UTC(),
		State:              string(r.State),
		ReportCount:        r.ReportCount,
		SharingHistory:     r.SharingHistory,
		Images:             r.Images,
		CreatedAt:          r.CreatedAt.UTC(),
		UpdatedAt:          r.UpdatedAt.UTC(),
		SchemaVersion:      r.SchemaVersion,
		Version:            r.Version,
	}
}

func (d listingDoc) reference() listing.Reference {
	return listing.Reference{
		ID:                 d.ID,
		SharerID:           d.SharerID,
		Title:              d.Title,
		Description:        d.Description,
		Category:           d.Category,
		Location:           d.Location,
		SharingPeriodStart: d.SharingPeriodStart.UTC(),
		SharingPeriodEnd:   d.SharingPeriodEnd.UTC(),
		State:              listing.State(d.State),
		ReportCount:        d.ReportCount,
		SharingHistory:     d.SharingHistory,
		Images:             d.Images,
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
		SchemaVersion:      d.SchemaVersion,
		Version:            d.Version,
	}
}

// Get loads a listing and binds it to a visa minted from p.
func (r *ListingRepository) Get(ctx context.Context, id string, p passport.Passport) (*listing.ItemListing, error) {
	var doc listingDoc
	if err := findByID(ctx, r.col, id, &doc, "listing"); err != nil {
		return nil, err
	}
	return listing.FromReference(doc.reference(), p, r.clock)
}

// Save persists l if nobody else wrote it since it was loaded.
func (r *ListingRepository) Save(ctx context.Context, l *listing.ItemListing) error {
	ref := l.Reference()
	doc := toListingDoc(ref)
	doc.Version = ref.Version + 1
	if err := saveVersioned(ctx, r.col, ref.ID, ref.Version, doc, "listing", nil); err != nil {
		return err
	}
	l.MarkPersisted(doc.Version)
	return nil
}

// List returns one page of listings, newest first.
func (r *ListingRepository) List(ctx context.Context, f ports.ListingFilter) ([]listing.Reference, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listingFilter(f)

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find listings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []listingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode listings: %w", err)
	}

	out := make([]listing.Reference, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.reference())
	}
	return out, total, nil
}

func listingFilter(f ports.ListingFilter) bson.M {
	filter := bson.M{}
	if f.SharerID != "" {
		filter["sharer_id"] = f.SharerID
	}
	if f.State != "" {
		filter["state"] = f.State
	}
	if f.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"category": rx},
		}
	}
	return filter
}

// EnsureIndexes creates necessary indexes on the listings collection.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sharer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
