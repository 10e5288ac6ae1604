package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/intervuehq/intervue/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TurnRepository is the append-only transcript ledger. There is deliberately
// no update or delete: corrections are new turns.
type TurnRepository interface {
	Append(ctx context.Context, sessionID string, role models.TurnRole, text string) (*models.Turn, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error)
}

type turnRepo struct {
	col *mongo.Collection
}

func NewTurnRepo(db *mongo.Database) TurnRepository {
	return &turnRepo{col: db.Collection("interview_turns")}
}

// Append assigns the next sequence number and inserts the turn. Callers are
// serialized per session; the unique session_id+seq index catches anything
// that slips through.
func (r *turnRepo) Append(ctx context.Context, sessionID string, role models.TurnRole, text string) (*models.Turn, error) {
	seq, err := r.nextSeq(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	t := &models.Turn{
		SessionID: sessionID,
		Seq:       seq,
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
	}

	res, err := r.col.InsertOne(ctx, t)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid
	}
	return t, nil
}

func (r *turnRepo) nextSeq(ctx context.Context, sessionID string) (int64, error) {
	var last models.Turn
	err := r.col.FindOne(ctx,
		bson.M{"session_id": sessionID},
		options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}}),
	).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return last.Seq + 1, nil
}

func (r *turnRepo) ListBySession(ctx context.Context, sessionID string) ([]models.Turn, error) {
	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Turn
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
