package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/goldquote/internal/domain/models"
)

// baseRateSnapshotID keys the single document holding the last good base rate.
const baseRateSnapshotID = "base_rate"

// SnapshotRepository defines storage for the last good base rate.
type SnapshotRepository interface {
	SaveSnapshot(ctx context.Context, snapshot models.RateSnapshot) error
	LatestSnapshot(ctx context.Context) (*models.RateSnapshot, error)
}

// MongoDBRepository implements SnapshotRepository for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "rate_snapshots",
	}, nil
}

// SaveSnapshot overwrites the stored base rate snapshot.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.RateSnapshot) error {
	snapshot.ID = baseRateSnapshotID

	collection := r.client.Database(r.dbName).Collection(r.collName)
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": baseRateSnapshotID}, snapshot, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert rate snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the stored snapshot, or nil when none was saved yet.
func (r *MongoDBRepository) LatestSnapshot(ctx context.Context) (*models.RateSnapshot, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	var snapshot models.RateSnapshot
	err := collection.FindOne(ctx, bson.M{"_id": baseRateSnapshotID}).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rate snapshot: %w", err)
	}
	return &snapshot, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
