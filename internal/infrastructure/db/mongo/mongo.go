package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simnova/sharethrift/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// IndexedRepository is implemented by every repository that needs indexes.
type IndexedRepository interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the indexes of each repository in turn.
func EnsureIndexes(ctx context.Context, repos ...IndexedRepository) error {
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
	}
	return nil
}

// saveVersioned writes doc under optimistic concurrency. version is the
// revision the aggregate was loaded at (0 for a new aggregate); doc must
// already carry version+1. A lost race surfaces as domain.ErrConcurrentModification;
// a unique index violation other than the id surfaces as dupErr when given.
func saveVersioned(ctx context.Context, col *mongo.Collection, id string, version int64, doc any, kind string, dupErr error) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if version == 0 {
		if _, err := col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				if dupErr != nil && !duplicateID(err) {
					return dupErr
				}
				return domain.ConcurrencyError(fmt.Sprintf("%s %s already exists", kind, id))
			}
			return fmt.Errorf("insert %s: %w", kind, err)
		}
		return nil
	}

	res, err := col.ReplaceOne(ctx, bson.M{"_id": id, "version": version}, doc)
	if err != nil {
		if dupErr != nil && mongo.IsDuplicateKeyError(err) {
			return dupErr
		}
		return fmt.Errorf("replace %s: %w", kind, err)
	}
	if res.MatchedCount == 0 {
		return domain.ConcurrencyError(fmt.Sprintf("%s %s was modified concurrently", kind, id))
	}
	return nil
}

func duplicateID(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if strings.Contains(e.Message, "index: _id_") {
				return true
			}
		}
	}
	return false
}

// findByID decodes the document with the given id into out.
func findByID(ctx context.Context, col *mongo.Collection, id string, out any, kind string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NotFoundError(kind + " not found")
		}
		return fmt.Errorf("find %s: %w", kind, err)
	}
	return nil
}
