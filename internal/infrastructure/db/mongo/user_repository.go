package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quizdesk/exam-platform/internal/core/domain"
)

const (
	userCollection = "users"

	// queryTimeout bounds every storage call so a hung server surfaces as an
	// internal error, never as an authentication failure.
	queryTimeout = 5 * time.Second
)

// MongoUserRepository persists users with their embedded session list.
// Email matching is a case-sensitive exact comparison, mirrored by the
// unique index EnsureIndexes creates.
type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(userCollection)}
}

type mongoSession struct {
	Token     string `bson:"token"`
	ExpiresAt int64  `bson:"expires_at"`
	UserAgent string `bson:"user_agent"`
	CreatedAt int64  `bson:"created_at"`
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Name         string             `bson:"name"`
	Role         string             `bson:"role"`
	CreatedAt    int64              `bson:"created_at"`
	Sessions     []mongoSession     `bson:"sessions"`
}

// EnsureIndexes creates the unique email index. Uniqueness under concurrent
// registration is decided here, not in application code.
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "sessions.token", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	doc := mongoUser{
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Name:         user.Name,
		Role:         user.Role,
		CreatedAt:    user.CreatedAt.Unix(),
		Sessions:     toMongoSessions(user.Sessions),
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &domain.User{
		ID:           mu.ID.Hex(),
		Email:        mu.Email,
		PasswordHash: mu.PasswordHash,
		Name:         mu.Name,
		Role:         mu.Role,
		CreatedAt:    unixToTime(mu.CreatedAt),
		Sessions:     fromMongoSessions(mu.Sessions),
	}, nil
}

func (r *MongoUserRepository) AppendSession(ctx context.Context, email string, session domain.Session) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$push": bson.M{"sessions": toMongoSession(session)}},
	)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) RemoveSession(ctx context.Context, email, token string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	// $pull of an absent token matches the user and modifies nothing, which
	// gives logout its idempotence for free.
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$pull": bson.M{"sessions": bson.M{"token": token}}},
	)
	if err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *MongoUserRepository) HasSession(ctx context.Context, email, token string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"email": email, "sessions.token": token})
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n > 0, nil
}

func (r *MongoUserRepository) ListSessions(ctx context.Context, email string) ([]domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var mu mongoUser
	opts := options.FindOne().SetProjection(bson.M{"sessions": 1})
	if err := r.coll.FindOne(ctx, bson.M{"email": email}, opts).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return fromMongoSessions(mu.Sessions), nil
}

func (r *MongoUserRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"sessions.expires_at": bson.M{"$lt": now.Unix()}},
		bson.M{"$pull": bson.M{"sessions": bson.M{"expires_at": bson.M{"$lt": now.Unix()}}}},
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.ModifiedCount, nil
}

func toMongoSession(s domain.Session) mongoSession {
	return mongoSession{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt.Unix(),
		UserAgent: s.UserAgent,
		CreatedAt: s.CreatedAt.Unix(),
	}
}

func toMongoSessions(sessions []domain.Session) []mongoSession {
	out := make([]mongoSession, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toMongoSession(s))
	}
	return out
}

func fromMongoSessions(sessions []mongoSession) []domain.Session {
	out := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, domain.Session{
			Token:     s.Token,
			ExpiresAt: unixToTime(s.ExpiresAt),
			UserAgent: s.UserAgent,
			CreatedAt: unixToTime(s.CreatedAt),
		})
	}
	return out
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
