package repository

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cfroster/internal/roster/model"
)

type MongoRepository struct {
	Students   *mongo.Collection
	SyncConfig *mongo.Collection
}

func NewMongoRepository(db *mongo.Database, studentsCollection, syncConfigCollection string) *MongoRepository {
	return &MongoRepository{
		Students:   db.Collection(studentsCollection),
		SyncConfig: db.Collection(syncConfigCollection),
	}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	// Handles are unique case-insensitively via the lowered shadow field.
	idxHandle := mongo.IndexModel{
		Keys:    bson.D{{Key: "handle_lower", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_handle_lower"),
	}
	idxSynced := mongo.IndexModel{
		Keys:    bson.D{{Key: "last_synced_at", Value: 1}},
		Options: options.Index().SetName("idx_last_synced_at"),
	}

	_, err := r.Students.Indexes().CreateMany(ctx, []mongo.IndexModel{idxHandle, idxSynced})
	if err != nil {
		return err
	}

	idxCreated := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("idx_config_created_at"),
	}
	_, err = r.SyncConfig.Indexes().CreateMany(ctx, []mongo.IndexModel{idxCreated})
	return err
}

func (r *MongoRepository) CreateStudent(ctx context.Context, s *model.Student) error {
	now := time.Now()
	s.CreatedAt = now
	s.Touch(now)

	_, err := r.Students.InsertOne(ctx, s)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *MongoRepository) GetStudentByHandle(ctx context.Context, handle string) (*model.Student, error) {
	filter := bson.M{"handle_lower": strings.ToLower(strings.TrimSpace(handle))}

	var s model.Student
	err := r.Students.FindOne(ctx, filter).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) ListStudents(ctx context.Context) ([]*model.Student, error) {
	opts := options.Find().SetSort(bson.D{{Key: "handle_lower", Value: 1}})
	cur, err := r.Students.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var students []*model.Student
	if err := cur.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (r *MongoRepository) ListStudentIdentities(ctx context.Context) ([]*model.StudentIdentity, error) {
	opts := options.Find().
		SetProjection(bson.M{"_id": 1, "handle": 1}).
		SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.Students.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []*model.StudentIdentity
	if err := cur.All(ctx, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *MongoRepository) UpdateStudent(ctx context.Context, s *model.Student) error {
	s.Clamp()
	s.Touch(time.Now())

	res, err := r.Students.ReplaceOne(ctx, bson.M{"_id": s.ID}, s)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) DeleteStudent(ctx context.Context, handle string) error {
	filter := bson.M{"handle_lower": strings.ToLower(strings.TrimSpace(handle))}
	res, err := r.Students.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ApplyProfile(ctx context.Context, id primitive.ObjectID, p *model.ProfileFields, syncedAt time.Time) error {
	p.Clamp()

	update := bson.M{
		"$set": bson.M{
			"handle":          p.Handle,
			"handle_lower":    strings.ToLower(p.Handle),
			"rank":            p.Rank,
			"max_rank":        p.MaxRank,
			"rating":          p.Rating,
			"max_rating":      p.MaxRating,
			"country":         p.Country,
			"city":            p.City,
			"organization":    p.Organization,
			"avatar":          p.Avatar,
			"title_photo":     p.TitlePhoto,
			"contribution":    p.Contribution,
			"friend_of_count": p.FriendOfCount,
			"last_online_at":  p.LastOnlineAt,
			"registered_at":   p.RegisteredAt,
			"last_synced_at":  syncedAt,
			"updated_at":      syncedAt,
		},
	}

	res, err := r.Students.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepository) TouchLastSynced(ctx context.Context, id primitive.ObjectID, syncedAt time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"last_synced_at": syncedAt,
			"updated_at":     syncedAt,
		},
	}
	_, err := r.Students.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *MongoRepository) FindReminderCandidates(ctx context.Context) ([]*model.Student, error) {
	filter := bson.M{
		"email":                                   bson.M{"$nin": bson.A{nil, ""}},
		"email_notifications.inactivity_reminders": true,
	}
	cur, err := r.Students.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var students []*model.Student
	if err := cur.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (r *MongoRepository) UpdateLastSubmission(ctx context.Context, id primitive.ObjectID, at *time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"inactivity.last_submission_at": at,
			"updated_at":                    time.Now(),
		},
	}
	_, err := r.Students.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

func (r *MongoRepository) MarkReminderSent(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"inactivity.last_reminder_at": at,
			"updated_at":                  at,
		},
		"$inc": bson.M{"inactivity.reminder_count": 1},
	}
	res, err := r.Students.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
