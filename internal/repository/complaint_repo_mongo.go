package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/complaint-tracker/internal/model"
)

const complaintsCollection = "complaints"

type ownerDoc struct {
	Name  string `bson:"name"`
	Email string `bson:"email"`
}

type complaintDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Status      string             `bson:"status"`
	CreatedBy   primitive.ObjectID `bson:"createdBy"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
	Owner       *ownerDoc          `bson:"owner,omitempty"`
}

func (d complaintDoc) model() model.Complaint {
	c := model.Complaint{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Category:    model.Category(d.Category),
		Status:      model.Status(d.Status),
		CreatedBy:   d.CreatedBy.Hex(),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.Owner != nil {
		c.Owner = &model.Owner{Name: d.Owner.Name, Email: d.Owner.Email}
	}
	return c
}

// MongoComplaintRepo is the MongoDB complaint store.  Identifiers are
// ObjectID hex strings.
type MongoComplaintRepo struct {
	DB *mongo.Database
}

func NewMongoComplaintRepo(db *mongo.Database) *MongoComplaintRepo {
	return &MongoComplaintRepo{DB: db}
}

func (r *MongoComplaintRepo) coll() *mongo.Collection { return r.DB.Collection(complaintsCollection) }

// EnsureIndexes creates the index serving listMine.
func (r *MongoComplaintRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("owner_created"),
	})
	if err != nil {
		return fmt.Errorf("create complaints index: %w", err)
	}
	return nil
}

func (r *MongoComplaintRepo) ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func (r *MongoComplaintRepo) Create(ctx context.Context, c *model.Complaint) error {
	owner, err := primitive.ObjectIDFromHex(c.CreatedBy)
	if err != nil {
		return ErrInvalidID
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := complaintDoc{
		ID:          primitive.NewObjectID(),
		Title:       c.Title,
		Description: c.Description,
		Category:    string(c.Category),
		Status:      string(c.Status),
		CreatedBy:   owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := r.coll().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	c.ID = doc.ID.Hex()
	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (r *MongoComplaintRepo) GetByID(ctx context.Context, id string) (model.Complaint, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Complaint{}, ErrInvalidID
	}
	var doc complaintDoc
	if err := r.coll().FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Complaint{}, ErrNotFound
		}
		return model.Complaint{}, fmt.Errorf("find complaint: %w", err)
	}
	return doc.model(), nil
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// ListAll pages through complaints newest first and joins the owner's name
// and email from the users collection.
func (r *MongoComplaintRepo) ListAll(ctx context.Context, offset, limit int) ([]model.Complaint, int, error) {
	total, err := r.coll().CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: newestFirst}},
		{{Key: "$skip", Value: int64(offset)}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "createdBy"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$owner"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "owner.passwordHash", Value: 0},
		}}},
	}
	cur, err := r.coll().Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, fmt.Errorf("list complaints: %w", err)
	}
	out, err := decodeComplaints(ctx, cur)
	if err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

func (r *MongoComplaintRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Complaint, error) {
	owner, err := primitive.ObjectIDFromHex(ownerID)
	if err != nil {
		return []model.Complaint{}, nil
	}
	cur, err := r.coll().Find(ctx, bson.M{"createdBy": owner}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list owner complaints: %w", err)
	}
	return decodeComplaints(ctx, cur)
}

// UpdateStatus sets the status atomically and returns the document after
// the update.  Concurrent updates are last-write-wins.
func (r *MongoComplaintRepo) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Complaint, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return model.Complaint{}, ErrInvalidID
	}
	update := bson.M{"$set": bson.M{
		"status":    string(status),
		"updatedAt": time.Now().UTC().Truncate(time.Millisecond),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc complaintDoc
	if err := r.coll().FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Complaint{}, ErrNotFound
		}
		return model.Complaint{}, fmt.Errorf("update complaint status: %w", err)
	}
	return doc.model(), nil
}

func decodeComplaints(ctx context.Context, cur *mongo.Cursor) ([]model.Complaint, error) {
	defer cur.Close(ctx)
	out := []model.Complaint{}
	for cur.Next(ctx) {
		var doc complaintDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode complaint: %w", err)
		}
		out = append(out, doc.model())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate complaints: %w", err)
	}
	return out, nil
}
