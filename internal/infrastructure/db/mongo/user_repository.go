package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/domain/passport"
	"github.com/simnova/sharethrift/internal/core/domain/user"
	"github.com/simnova/sharethrift/internal/core/ports"
)

const (
	collectionUsers = "personal_users"
	collectionRoles = "roles"
)

// ── Personal users ────────────────────────────────────────────────────────────

type UserRepository struct {
	col   *mongo.Collection
	clock domain.Clock
}

var _ ports.PersonalUserRepository = (*UserRepository)(nil)

func NewUserRepository(db *mongo.Database, clock domain.Clock) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers), clock: clock}
}

type userDoc struct {
	ID            string    `bson:"_id"`
	Email         string    `bson:"email"`
	FirstName     string    `bson:"first_name"`
	LastName      string    `bson:"last_name"`
	RoleID        string    `bson:"role_id"`
	State         string    `bson:"state"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
	SchemaVersion string    `bson:"schema_version"`
	Version       int64     `bson:"version"`
}

func (r *UserRepository) Get(ctx context.Context, id string, p passport.Passport) (*user.PersonalUser, error) {
	var d userDoc
	if err := findByID(ctx, r.col, id, &d, "user"); err != nil {
		return nil, err
	}
	return user.FromReference(user.Reference{
		ID:            d.ID,
		Email:         d.Email,
		FirstName:     d.FirstName,
		LastName:      d.LastName,
		RoleID:        d.RoleID,
		State:         user.AccountState(d.State),
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
		SchemaVersion: d.SchemaVersion,
		Version:       d.Version,
	}, p, r.clock)
}

func (r *UserRepository) Save(ctx context.Context, u *user.PersonalUser) error {
	ref := u.Reference()
	doc := userDoc{
		ID:            ref.ID,
		Email:         ref.Email,
		FirstName:     ref.FirstName,
		LastName:      ref.LastName,
		RoleID:        ref.RoleID,
		State:         string(ref.State),
		CreatedAt:     ref.CreatedAt.UTC(),
		UpdatedAt:     ref.UpdatedAt.UTC(),
		SchemaVersion: ref.SchemaVersion,
		Version:       ref.Version + 1,
	}
	if err := saveVersioned(ctx, r.col, ref.ID, ref.Version, doc, "user", domain.ErrUserExists); err != nil {
		return err
	}
	u.MarkPersisted(doc.Version)
	return nil
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// ── Roles ─────────────────────────────────────────────────────────────────────

type RoleRepository struct {
	col   *mongo.Collection
	clock domain.Clock
}

var _ ports.RoleRepository = (*RoleRepository)(nil)

func NewRoleRepository(db *mongo.Database, clock domain.Clock) *RoleRepository {
	return &RoleRepository{col: db.Collection(collectionRoles), clock: clock}
}

type roleDoc struct {
	ID            string               `bson:"_id"`
	Name          string               `bson:"name"`
	Permissions   passport.Permissions `bson:"permissions"`
	IsDefault     bool                 `bson:"is_default"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
	SchemaVersion string               `bson:"schema_version"`
	Version       int64                `bson:"version"`
}

func (r *RoleRepository) fromDoc(d roleDoc, p passport.Passport) (*user.Role, error) {
	return user.RoleFromReference(user.RoleReference{
		ID:            d.ID,
		Name:          d.Name,
		Permissions:   d.Permissions,
		IsDefault:     d.IsDefault,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
		SchemaVersion: d.SchemaVersion,
		Version:       d.Version,
	}, p, r.clock)
}

func (r *RoleRepository) Get(ctx context.Context, id string, p passport.Passport) (*user.Role, error) {
	var d roleDoc
	if err := findByID(ctx, r.col, id, &d, "role"); err != nil {
		return nil, err
	}
	return r.fromDoc(d, p)
}

// GetDefault returns the most recently created default role.
func (r *RoleRepository) GetDefault(ctx context.Context, p passport.Passport) (*user.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d roleDoc
	err := r.col.FindOne(ctx, bson.M{"is_default": true},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.NotFoundError("default role not found")
		}
		return nil, fmt.Errorf("find default role: %w", err)
	}
	return r.fromDoc(d, p)
}

func (r *RoleRepository) Save(ctx context.Context, role *user.Role) error {
	ref := role.Reference()
	doc := roleDoc{
		ID:            ref.ID,
		Name:          ref.Name,
		Permissions:   ref.Permissions,
		IsDefault:     ref.IsDefault,
		CreatedAt:     ref.CreatedAt.UTC(),
		UpdatedAt:     ref.UpdatedAt.UTC(),
		SchemaVersion: ref.SchemaVersion,
		Version:       ref.Version + 1,
	}
	if err := saveVersioned(ctx, r.col, ref.ID, ref.Version, doc, "role", nil); err != nil {
		return err
	}
	role.MarkPersisted(doc.Version)
	return nil
}

// EnsureDefaultRoles seeds a default member role and an admin role when no
// default role exists yet.
func (r *RoleRepository) EnsureDefaultRoles(ctx context.Context) error {
	_, err := r.GetDefault(ctx, passport.System())
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	seeds := []user.RoleDraft{
		{Name: "member", Permissions: passport.MemberPermissions(), IsDefault: true},
		{Name: "admin", Permissions: passport.AdminPermissions()},
	}
	for _, d := range seeds {
		role, err := user.NewRole(passport.System(), d, r.clock)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", d.Name, err)
		}
		if err := r.Save(ctx, role); err != nil {
			return fmt.Errorf("seed role %s: %w", d.Name, err)
		}
	}
	return nil
}

func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_default", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	})
	return err
}
