package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hederavault/walletd/internal/core/domain"
	"github.com/hederavault/walletd/internal/core/ports"
)

const (
	collectionOnboardingEvents = "onboarding_events"
	// auditRetention bounds how long step transitions are kept.
	auditRetention = 90 * 24 * time.Hour
)

// AuditRepository appends onboarding step transitions to onboarding_events.
type AuditRepository struct {
	col *mongo.Collection
}

var _ ports.AuditLog = (*AuditRepository)(nil)

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionOnboardingEvents)}
}

// EnsureIndexes creates the lookup index on (user_id, at) and the TTL index
// that expires old entries.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("user_at"),
		},
		{
			Keys:    bson.D{{Key: "run_id", Value: 1}},
			Options: options.Index().SetName("run"),
		},
		{
			Keys:    bson.D{{Key: "at", Value: 1}},
			Options: options.Index().SetName("ttl_at").SetExpireAfterSeconds(int32(auditRetention / time.Second)),
		},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// Record inserts a single transition.
func (r *AuditRepository) Record(ctx context.Context, ev domain.OnboardingEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	ev.At = ev.At.UTC()

	if _, err := r.col.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("audit record: %w", err)
	}
	return nil
}

// Ping checks the underlying deployment; used by readiness checks.
func (r *AuditRepository) Ping(ctx context.Context) error {
	return r.col.Database().Client().Ping(ctx, nil)
}
