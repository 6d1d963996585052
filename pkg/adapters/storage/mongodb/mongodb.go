package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aescanero/lazymint/pkg/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// StatusStore implements ports.StatusStore on a MongoDB collection, one
// document per session keyed by session id.
type StatusStore struct {
	collection *mongo.Collection
	ttl        time.Duration
	logger     *zap.Logger
}

type payloadRecord struct {
	TokenAddress string `bson:"token_address"`
	TokenID      string `bson:"token_id"`
	Raw          []byte `bson:"raw,omitempty"`
}

type statusRecord struct {
	SessionID   string         `bson:"_id"`
	AttemptID   string         `bson:"attempt_id,omitempty"`
	Status      string         `bson:"status"`
	Payload     *payloadRecord `bson:"payload,omitempty"`
	Message     string         `bson:"message,omitempty"`
	ErrorKind   string         `bson:"error_kind,omitempty"`
	HasResult   bool           `bson:"has_result"`
	DisplayLink string         `bson:"display_link,omitempty"`
	SubmittedAt *time.Time     `bson:"submitted_at,omitempty"`
	UpdatedAt   time.Time      `bson:"updated_at"`
	CompletedAt *time.Time     `bson:"completed_at,omitempty"`
}

// NewStatusStore creates a status store on collection. A positive ttl expires
// cells that have not been updated for that long once InitSchema has run.
func NewStatusStore(collection *mongo.Collection, ttl time.Duration, logger *zap.Logger) *StatusStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusStore{
		collection: collection,
		ttl:        ttl,
		logger:     logger,
	}
}

// InitSchema creates the expiry index
func (s *StatusStore) InitSchema(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}

	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(s.ttl.Seconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to create expiry index: %w", err)
	}
	return nil
}

// Save upserts the session's status cell
func (s *StatusStore) Save(ctx context.Context, status *domain.Status) error {
	if status == nil || status.SessionID == "" {
		return fmt.Errorf("status must carry a session id")
	}

	rec := toRecord(status)
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": status.SessionID},
		rec,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}

	s.logger.Debug("status saved",
		zap.String("session_id", status.SessionID),
		zap.String("attempt_id", status.AttemptID),
		zap.String("status", string(status.Status)))

	return nil
}

// Get retrieves the session's status cell, idle if none is stored
func (s *StatusStore) Get(ctx context.Context, sessionID string) (*domain.Status, error) {
	var rec statusRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.NewIdleStatus(sessionID), nil
		}
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	return fromRecord(&rec), nil
}

// Delete removes the session's status cell
func (s *StatusStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": sessionID}); err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}

	s.logger.Debug("status deleted", zap.String("session_id", sessionID))
	return nil
}

// List returns all session IDs with a stored status, sorted
func (s *StatusStore) List(ctx context.Context) ([]string, error) {
	cursor, err := s.collection.Find(ctx, bson.D{},
		options.Find().
			SetProjection(bson.M{"_id": 1}).
			SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}

	var ids []struct {
		SessionID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &ids); err != nil {
		return nil, fmt.Errorf("failed to decode session ids: %w", err)
	}

	sessionIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		sessionIDs = append(sessionIDs, id.SessionID)
	}
	return sessionIDs, nil
}

func toRecord(status *domain.Status) *statusRecord {
	rec := &statusRecord{
		SessionID:   status.SessionID,
		AttemptID:   status.AttemptID,
		Status:      string(status.Status),
		DisplayLink: status.DisplayLink,
		SubmittedAt: status.SubmittedAt,
		UpdatedAt:   status.UpdatedAt,
		CompletedAt: status.CompletedAt,
	}

	if r := status.Result; r != nil {
		rec.HasResult = true
		rec.Message = r.Message
		rec.ErrorKind = string(r.ErrorKind)
		if r.Payload != nil {
			rec.Payload = &payloadRecord{
				TokenAddress: r.Payload.TokenAddress,
				TokenID:      r.Payload.TokenID,
				Raw:          r.Payload.Raw,
			}
		}
	}

	return rec
}

func fromRecord(rec *statusRecord) *domain.Status {
	status := &domain.Status{
		SessionID:   rec.SessionID,
		AttemptID:   rec.AttemptID,
		Status:      domain.SubmissionStatus(rec.Status),
		DisplayLink: rec.DisplayLink,
		SubmittedAt: rec.SubmittedAt,
		UpdatedAt:   rec.UpdatedAt,
		CompletedAt: rec.CompletedAt,
	}

	if rec.HasResult {
		status.Result = &domain.SubmissionResult{
			Message:   rec.Message,
			ErrorKind: domain.ErrorKind(rec.ErrorKind),
		}
		if p := rec.Payload; p != nil {
			status.Result.Payload = &domain.MintResult{
				TokenAddress: p.TokenAddress,
				TokenID:      p.TokenID,
				Raw:          p.Raw,
			}
		}
	}

	return status
}
