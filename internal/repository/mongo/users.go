package mongo

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"podstream/internal/domain"
)

type UserRepository struct {
	collection *mongo.Collection
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Email        string             `bson:"email"`
	Name         string             `bson:"name"`
	PasswordHash string             `bson:"passwordHash"`
	CreatedAt    int64              `bson:"createdAt"`
}

func NewUserRepository(client *mongo.Client, dbName, collectionName string) *UserRepository {
	return &UserRepository{collection: client.Database(dbName).Collection(collectionName)}
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *UserRepository) Create(ctx context.Context, u domain.UserRecord) error {
	doc, err := toUserDoc(u)
	if err != nil {
		return err
	}
	_, err = r.collection.InsertOne(ctx, doc)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	return err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (domain.UserRecord, error) {
	var doc userDoc
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.UserRecord{}, domain.ErrNotFound
		}
		return domain.UserRecord{}, err
	}
	return fromUserDoc(doc), nil
}

func (r *UserRepository) Get(ctx context.Context, id domain.UserID) (domain.UserRecord, error) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return domain.UserRecord{}, domain.ErrNotFound
	}
	var doc userDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.UserRecord{}, domain.ErrNotFound
		}
		return domain.UserRecord{}, err
	}
	return fromUserDoc(doc), nil
}

func (r *UserRepository) GetMany(ctx context.Context, ids []domain.UserID) ([]domain.UserRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	values := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(string(id))
		if err != nil {
			continue
		}
		values = append(values, oid)
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": values}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	records := make([]domain.UserRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, fromUserDoc(doc))
	}
	return records, nil
}

func toUserDoc(u domain.UserRecord) (userDoc, error) {
	oid, err := primitive.ObjectIDFromHex(string(u.ID))
	if err != nil {
		return userDoc{}, domain.ErrInvalidID
	}
	return userDoc{
		ID:           oid,
		Email:        strings.ToLower(strings.TrimSpace(u.Email)),
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.Unix(),
	}, nil
}

func fromUserDoc(doc userDoc) domain.UserRecord {
	return domain.UserRecord{
		ID:           domain.UserID(doc.ID.Hex()),
		Email:        doc.Email,
		Name:         doc.Name,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    timeFromUnix(doc.CreatedAt),
	}
}

// NewUserID generates a fresh account document id.
func NewUserID() domain.UserID {
	return domain.UserID(primitive.NewObjectID().Hex())
}
