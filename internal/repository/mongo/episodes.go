package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"podstream/internal/domain"
)

type EpisodeRepository struct {
	collection *mongo.Collection
}

type episodeDoc struct {
	ID          primitive.ObjectID  `bson:"_id"`
	Title       string              `bson:"title"`
	Description string              `bson:"description"`
	Author      string              `bson:"author"`
	Category    string              `bson:"category"`
	AudioFileID primitive.ObjectID  `bson:"audioFileId"`
	ImageFileID *primitive.ObjectID `bson:"imageFileId,omitempty"`
	Duration    int64               `bson:"duration,omitempty"`
	FileSize    int64               `bson:"fileSize"`
	UploadedBy  primitive.ObjectID  `bson:"uploadedBy"`
	CreatedAt   int64               `bson:"createdAt"`
	UpdatedAt   int64               `bson:"updatedAt"`
}

func NewEpisodeRepository(client *mongo.Client, dbName, collectionName string) *EpisodeRepository {
	return &EpisodeRepository{collection: client.Database(dbName).Collection(collectionName)}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *EpisodeRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "uploadedBy", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *EpisodeRepository) Create(ctx context.Context, e domain.EpisodeRecord) error {
	doc, err := toEpisodeDoc(e)
	if err != nil {
		return err
	}
	_, err = r.collection.InsertOne(ctx, doc)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *EpisodeRepository) Get(ctx context.Context, id domain.EpisodeID) (domain.EpisodeRecord, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		// Malformed ids are folded into not-found; clients depend on the
		// single error shape for GET /api/podcast/:id.
		return domain.EpisodeRecord{}, domain.ErrNotFound
	}
	var doc episodeDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.EpisodeRecord{}, domain.ErrNotFound
		}
		return domain.EpisodeRecord{}, err
	}
	return fromEpisodeDoc(doc), nil
}

func (r *EpisodeRepository) List(ctx context.Context) ([]domain.EpisodeRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []episodeDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]domain.EpisodeRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromEpisodeDoc(doc))
	}
	return records, nil
}

func (r *EpisodeRepository) Delete(ctx context.Context, id domain.EpisodeID) error {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return domain.ErrNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *EpisodeRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

func toEpisodeDoc(e domain.EpisodeRecord) (episodeDoc, error) {
	oid, err := primitive.ObjectIDFromHex(string(e.ID))
	if err != nil {
		return episodeDoc{}, domain.ErrInvalidID
	}
	audioID, err := primitive.ObjectIDFromHex(string(e.AudioFileID))
	if err != nil {
		return episodeDoc{}, domain.ErrInvalidID
	}
	ownerID, err := primitive.ObjectIDFromHex(string(e.OwnerID))
	if err != nil {
		return episodeDoc{}, domain.ErrInvalidID
	}
	doc := episodeDoc{
		ID:          oid,
		Title:       e.Title,
		Description: e.Description,
		Author:      e.Author,
		Category:    e.Category,
		AudioFileID: audioID,
		Duration:    e.DurationSeconds,
		FileSize:    e.FileSizeBytes,
		UploadedBy:  ownerID,
		CreatedAt:   e.CreatedAt.Unix(),
		UpdatedAt:   e.UpdatedAt.Unix(),
	}
	if e.ImageFileID != "" {
		imageID, err := primitive.ObjectIDFromHex(string(e.ImageFileID))
		if err != nil {
			return episodeDoc{}, domain.ErrInvalidID
		}
		doc.ImageFileID = &imageID
	}
	return doc, nil
}

func fromEpisodeDoc(doc episodeDoc) domain.EpisodeRecord {
	record := domain.EpisodeRecord{
		ID:              domain.EpisodeID(doc.ID.Hex()),
		Title:           doc.Title,
		Description:     doc.Description,
		Author:          doc.Author,
		Category:        doc.Category,
		AudioFileID:     domain.BlobID(doc.AudioFileID.Hex()),
		DurationSeconds: doc.Duration,
		FileSizeBytes:   doc.FileSize,
		OwnerID:         domain.UserID(doc.UploadedBy.Hex()),
		CreatedAt:       timeFromUnix(doc.CreatedAt),
		UpdatedAt:       timeFromUnix(doc.UpdatedAt),
	}
	if doc.ImageFileID != nil {
		record.ImageFileID = domain.BlobID(doc.ImageFileID.Hex())
	}
	return record
}

func timeFromUnix(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// NewEpisodeID generates a fresh document id. Exposed so use cases can mint
// ids without importing the driver.
func NewEpisodeID() domain.EpisodeID {
	return domain.EpisodeID(primitive.NewObjectID().Hex())
}
