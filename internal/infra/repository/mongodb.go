package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spacetraveling/blog/internal/domain"
)

const (
	kindHome = "home"
	kindPost = "post"

	homeID = "home"
)

type homeDocument struct {
	ID          string            `bson:"_id"`
	Kind        string            `bson:"kind"`
	GeneratedAt time.Time         `bson:"generated_at"`
	Props       *domain.HomeProps `bson:"props"`
}

type postDocument struct {
	ID          string            `bson:"_id"`
	Kind        string            `bson:"kind"`
	UID         string            `bson:"uid"`
	GeneratedAt time.Time         `bson:"generated_at"`
	Props       *domain.PostProps `bson:"props"`
}

// MongoRepository is the static snapshot: one document per generated page.
type MongoRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

var _ domain.PageStore = (*MongoRepository)(nil)

func NewMongoRepository(client *mongo.Client, dbName, collectionName string) (*MongoRepository, error) {
	db := client.Database(dbName)
	repo := &MongoRepository{
		db:         db,
		collection: db.Collection(collectionName),
	}

	if err := repo.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return repo, nil
}

func (r *MongoRepository) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "kind", Value: 1},
				{Key: "uid", Value: 1},
			},
			Options: options.Index().SetName("kind_uid_idx"),
		},
		{
			Keys: bson.D{
				{Key: "generated_at", Value: -1},
			},
			Options: options.Index().SetName("generated_at_idx"),
		},
	}

	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)
	_, err := r.collection.Indexes().CreateMany(ctx, models, opts)
	return err
}

func postID(uid string) string {
	return kindPost + ":" + uid
}

func (r *MongoRepository) SaveHome(ctx context.Context, props *domain.HomeProps) error {
	doc := homeDocument{
		ID:          homeID,
		Kind:        kindHome,
		GeneratedAt: props.GeneratedAt,
		Props:       props,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": homeID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save home snapshot: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetHome(ctx context.Context) (*domain.HomeProps, error) {
	var doc homeDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": homeID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read home snapshot: %w", err)
	}
	return doc.Props, nil
}

func (r *MongoRepository) SavePost(ctx context.Context, props *domain.PostProps) error {
	uid := props.Post.UID
	doc := postDocument{
		ID:          postID(uid),
		Kind:        kindPost,
		UID:         uid,
		GeneratedAt: props.GeneratedAt,
		Props:       props,
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save post snapshot %q: %w", uid, err)
	}
	return nil
}

// SavePosts writes several post snapshots in one unordered bulk write.
func (r *MongoRepository) SavePosts(ctx context.Context, posts []*domain.PostProps) error {
	if len(posts) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(posts))
	for _, props := range posts {
		doc := postDocument{
			ID:          postID(props.Post.UID),
			Kind:        kindPost,
			UID:         props.Post.UID,
			GeneratedAt: props.GeneratedAt,
			Props:       props,
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": doc.ID}).
			SetReplacement(doc).
			SetUpsert(true))
	}

	opts := options.BulkWrite().SetOrdered(false)
	if _, err := r.collection.BulkWrite(ctx, models, opts); err != nil {
		return fmt.Errorf("failed to bulk save post snapshots: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetPost(ctx context.Context, uid string) (*domain.PostProps, error) {
	var doc postDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": postID(uid)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read post snapshot %q: %w", uid, err)
	}
	return doc.Props, nil
}

// DeleteStalePosts removes post snapshots whose uid is not in keep.
func (r *MongoRepository) DeleteStalePosts(ctx context.Context, keep []string) (int64, error) {
	if keep == nil {
		keep = []string{}
	}
	filter := bson.M{
		"kind": kindPost,
		"uid":  bson.M{"$nin": keep},
	}
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale posts: %w", err)
	}
	return res.DeletedCount, nil
}
