package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/amankumarsingh77/go-webtoon-crawler/db/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrWebtoonNotFound = errors.New("webtoon not found")

type MongoRepo struct {
	webtooncol *mongo.Collection
}

func NewMongoRepo(webtooncol *mongo.Collection) *MongoRepo {
	return &MongoRepo{webtooncol: webtooncol}
}

// UpsertWebtoons replaces each webtoon keyed by platform and title.
func (m *MongoRepo) UpsertWebtoons(ctx context.Context, webtoons []models.Webtoon) (int, error) {
	if len(webtoons) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := primitive.NewDateTimeFromTime(time.Now())
	writes := make([]mongo.WriteModel, 0, len(webtoons))
	for _, w := range webtoons {
		w.LastUpdated = now
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"platform": w.Platform, "title": w.Title}).
			SetReplacement(w).
			SetUpsert(true))
	}

	res, err := m.webtooncol.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert webtoons: %w", err)
	}
	return int(res.UpsertedCount + res.ModifiedCount), nil
}

// GetWebtoonByTitle looks a title up on one platform. With an empty platform the
// same title may exist on several; the first platform in name order wins.
func (m *MongoRepo) GetWebtoonByTitle(ctx context.Context, title, platform string) (*models.Webtoon, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var webtoon models.Webtoon
	err := m.webtooncol.FindOne(ctx, TitleFilter(title, platform),
		options.FindOne().SetSort(bson.D{{Key: "platform", Value: 1}})).Decode(&webtoon)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrWebtoonNotFound, title)
	}
	if err != nil {
		return nil, err
	}
	return &webtoon, nil
}

func (m *MongoRepo) SearchWebtoons(ctx context.Context, query string) ([]models.Webtoon, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"$text": bson.M{"$search": query},
	}
	opt := options.Find().SetProjection(
		bson.M{
			"score": bson.M{
				"$meta": "textScore",
			},
		}).SetSort(
		bson.M{
			"score": bson.M{
				"$meta": "textScore",
			},
		})
	return m.find(ctx, filter, opt)
}

// TitleFilter matches a title, narrowed to one platform when platform is set.
func TitleFilter(title, platform string) bson.M {
	filter := bson.M{"title": title}
	if platform != "" {
		filter["platform"] = platform
	}
	return filter
}

// ListWebtoons returns every webtoon, or those airing on day when day is set.
func (m *MongoRepo) ListWebtoons(ctx context.Context, day string) ([]models.Webtoon, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{}
	if day != "" {
		filter["day"] = primitive.Regex{Pattern: regexp.QuoteMeta(day)}
	}
	return m.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "platform", Value: 1}, {Key: "seq_id", Value: 1}}))
}

func (m *MongoRepo) find(ctx context.Context, filter bson.M, opt *options.FindOptions) ([]models.Webtoon, error) {
	cursor, err := m.webtooncol.Find(ctx, filter, opt)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	webtoons := []models.Webtoon{}
	for cursor.Next(ctx) {
		var webtoon models.Webtoon
		if err = cursor.Decode(&webtoon); err != nil {
			return nil, err
		}
		webtoons = append(webtoons, webtoon)
	}
	return webtoons, cursor.Err()
}
