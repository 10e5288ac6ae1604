package mongo

import (
	"context"
	"errors"

	"github.com/intervuehq/intervue/internal/models"
	"github.com/intervuehq/intervue/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReportRepository interface {
	Insert(ctx context.Context, r *models.Report) (string, error)
	GetByID(ctx context.Context, id string) (*models.Report, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Report, error)
	ListByUserIDs(ctx context.Context, userIDs []string) ([]models.Report, error)
	ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.Report, error)
}

type reportRepo struct {
	col *mongo.Collection
}

func NewReportRepo(db *mongo.Database) ReportRepository {
	return &reportRepo{col: db.Collection("interview_reports")}
}

func (r *reportRepo) Insert(ctx context.Context, rep *models.Report) (string, error) {
	res, err := r.col.InsertOne(ctx, rep)
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("unexpected inserted id type")
	}
	rep.ID = oid
	return oid.Hex(), nil
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*models.Report, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, utils.ErrNotFound
	}

	var rep models.Report
	err = r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&rep)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &rep, err
}

func (r *reportRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.Report, error) {
	var rep models.Report
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&rep)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &rep, err
}

func (r *reportRepo) ListByUserIDs(ctx context.Context, userIDs []string) ([]models.Report, error) {
	return r.list(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
}

func (r *reportRepo) ListBySessionIDs(ctx context.Context, sessionIDs []string) ([]models.Report, error) {
	return r.list(ctx, bson.M{"session_id": bson.M{"$in": sessionIDs}})
}

func (r *reportRepo) list(ctx context.Context, filter bson.M) ([]models.Report, error) {
	cur, err := r.col.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Report
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
