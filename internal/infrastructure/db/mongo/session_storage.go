package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/royavalet/valet-site/internal/core/domain"
)

const sessionCollection = "admin_sessions"

// SessionStorage stores one document per session. A TTL index on expiresAt
// lets the server reap expired sessions.
type SessionStorage struct {
	col        *mongo.Collection
	defaultTTL time.Duration
}

type sessionDoc struct {
	ID        string    `bson:"_id"`
	Token     string    `bson:"adminToken"`
	User      string    `bson:"adminUser"`
	ExpiresAt time.Time `bson:"expiresAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func NewSessionStorage(db *mongo.Database, defaultTTL time.Duration) *SessionStorage {
	return &SessionStorage{col: db.Collection(sessionCollection), defaultTTL: defaultTTL}
}

// EnsureIndexes creates the expiry index on the sessions collection.
func (s *SessionStorage) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	return err
}

func (s *SessionStorage) Get(ctx context.Context, sessionID string) (domain.SessionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc sessionDoc
	err := s.col.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.SessionRecord{}, domain.ErrSessionNotFound
		}
		return domain.SessionRecord{}, fmt.Errorf("%w: find: %v", domain.ErrSessionStorage, err)
	}
	// The TTL monitor runs about once a minute; hide documents it has not reaped yet.
	if !doc.ExpiresAt.IsZero() && time.Now().After(doc.ExpiresAt) {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return domain.SessionRecord{Token: doc.Token, User: doc.User, ExpiresAt: doc.ExpiresAt}, nil
}

// Put replaces the session document as a whole.
func (s *SessionStorage) Put(ctx context.Context, sessionID string, rec domain.SessionRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	if rec.Expired(now) {
		return domain.ErrSessionExpired
	}
	exp := rec.ExpiresAt
	if exp.IsZero() {
		exp = now.Add(s.defaultTTL)
	}
	doc := sessionDoc{
		ID:        sessionID,
		Token:     rec.Token,
		User:      rec.User,
		ExpiresAt: exp.UTC(),
		UpdatedAt: now,
	}

	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": sessionID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: replace: %v", domain.ErrSessionStorage, err)
	}
	return nil
}

func (s *SessionStorage) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("%w: delete: %v", domain.ErrSessionStorage, err)
	}
	return nil
}

func (s *SessionStorage) Ping(ctx context.Context) error {
	return s.col.Database().Client().Ping(ctx, readpref.Primary())
}
