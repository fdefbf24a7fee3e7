package repository

import (
	"context"
	"fmt"

	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "Booking_events"

type EventRepository interface {
	// Save stores event once. Saving an event id that already exists is a no-op.
	Save(ctx context.Context, event *model.BookingEvent) error
	// Find returns events newest first. An empty bookingID matches every booking.
	Find(ctx context.Context, bookingID string, limit int, offset int64) ([]*model.BookingEvent, error)
	Count(ctx context.Context, bookingID string) (int64, error)
}

type mongoEventRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoEventRepository(cfg *config.Config) EventRepository {
	database := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoEventRepository{
		cfg:        cfg,
		collection: database.Collection(CollectionName),
	}
}

func (r *mongoEventRepository) Save(ctx context.Context, event *model.BookingEvent) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to save booking event: %w", err)
	}
	return nil
}

func filterFor(bookingID string) bson.M {
	if bookingID == "" {
		return bson.M{}
	}
	return bson.M{"booking_id": bookingID}
}

func (r *mongoEventRepository) Find(ctx context.Context, bookingID string, limit int, offset int64) ([]*model.BookingEvent, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filterFor(bookingID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*model.BookingEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode booking events: %w", err)
	}
	return events, nil
}

func (r *mongoEventRepository) Count(ctx context.Context, bookingID string) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, filterFor(bookingID))
	if err != nil {
		return 0, fmt.Errorf("failed to count booking events: %w", err)
	}
	return count, nil
}
