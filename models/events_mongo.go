package models

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoEventRepo struct {
	col *mongo.Collection
}

func NewMongoEventRepository(col *mongo.Collection) EventRepository {
	return &mongoEventRepo{col: col}
}

func opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

var sortByDate = options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

func (r *mongoEventRepo) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]Event, error) {
	cur, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Event{}
	for cur.Next(ctx) {
		var e Event
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, cur.Err()
}

// GetAll returns active events sorted ascending by date.
func (r *mongoEventRepo) GetAll() ([]Event, error) {
	ctx, cancel := opCtx()
	defer cancel()
	return r.find(ctx, bson.M{"isActive": true}, sortByDate)
}

func (r *mongoEventRepo) GetByID(id string) (Event, error) {
	ctx, cancel := opCtx()
	defer cancel()

	var e Event
	if err := r.col.FindOne(ctx, bson.M{"id": id}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Event{}, ErrEventNotFound
		}
		return Event{}, err
	}
	return e, nil
}

func (r *mongoEventRepo) GetByIDs(ids []string) ([]Event, error) {
	if len(ids) == 0 {
		return []Event{}, nil
	}
	ctx, cancel := opCtx()
	defer cancel()
	return r.find(ctx, bson.M{"id": bson.M{"$in": ids}}, sortByDate)
}

// FindBetween returns active events with date in [from, to], sorted ascending.
func (r *mongoEventRepo) FindBetween(from, to time.Time) ([]Event, error) {
	ctx, cancel := opCtx()
	defer cancel()
	return r.find(ctx, bson.M{
		"isActive": true,
		"date":     bson.M{"$gte": from, "$lte": to},
	}, sortByDate)
}

func (r *mongoEventRepo) FindUpcoming(after time.Time, limit int) ([]Event, error) {
	ctx, cancel := opCtx()
	defer cancel()
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}}).SetLimit(int64(limit))
	return r.find(ctx, bson.M{
		"isActive": true,
		"date":     bson.M{"$gte": after},
	}, opts)
}

func (r *mongoEventRepo) Create(e *Event) error {
	ctx, cancel := opCtx()
	defer cancel()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *mongoEventRepo) Update(e *Event) error {
	ctx, cancel := opCtx()
	defer cancel()
	e.UpdatedAt = time.Now().UTC()
	res, err := r.col.UpdateOne(ctx, bson.M{"id": e.ID}, bson.M{"$set": e})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *mongoEventRepo) Delete(id string) error {
	ctx, cancel := opCtx()
	defer cancel()
	res, err := r.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *mongoEventRepo) Counts() (int64, int64, error) {
	ctx, cancel := opCtx()
	defer cancel()

	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, err
	}
	active, err := r.col.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

func (r *mongoEventRepo) CountByCategory() (map[string]int64, error) {
	ctx, cancel := opCtx()
	defer cancel()

	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Category string `bson:"_id"`
			Count    int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Category] = row.Count
	}
	return out, cur.Err()
}
