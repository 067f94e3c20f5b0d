package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mamadbah2/bapokting/internal/domain/models"
)

const defaultListLimit = 20

// Repository defines the interface for report snapshot storage.
type Repository interface {
	SaveSnapshot(ctx context.Context, snapshot models.ReportSnapshot) error
	ListSnapshots(ctx context.Context, limit int) ([]models.ReportSnapshot, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
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

	if err := pingOrDisconnect(ctx, client); err != nil {
		return nil, err
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "report_snapshots",
	}, nil
}

// SaveSnapshot archives an aggregated report.
func (r *MongoDBRepository) SaveSnapshot(ctx context.Context, snapshot models.ReportSnapshot) error {
	_, err := r.collection().InsertOne(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("failed to insert report snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns the most recent snapshots, newest first.
func (r *MongoDBRepository) ListSnapshots(ctx context.Context, limit int) ([]models.ReportSnapshot, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.collection().Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query report snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	snapshots := []models.ReportSnapshot{}
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("failed to decode report snapshots: %w", err)
	}
	return snapshots, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

type pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
}

// pingOrDisconnect verifies the connection and releases the client pool when it is unusable.
func pingOrDisconnect(ctx context.Context, c pinger) error {
	err := c.Ping(ctx, nil)
	if err == nil {
		return nil
	}
	if derr := c.Disconnect(context.WithoutCancel(ctx)); derr != nil {
		return fmt.Errorf("failed to ping mongodb: %w (disconnect: %v)", err, derr)
	}
	return fmt.Errorf("failed to ping mongodb: %w", err)
}
