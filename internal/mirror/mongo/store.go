// ABOUTME: MongoDB mirror Store using the official driver.
// ABOUTME: One collection per kind with a unique (user_id, external_id) index for create dedupe.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/harperreed/lift/internal/mirror"
	"github.com/harperreed/lift/internal/remote"
)

const (
	defaultTimeout = 10 * time.Second

	workoutCollection  = "mirror_workouts"
	exerciseCollection = "mirror_exercises"
	setCollection      = "mirror_sets"
)

type workoutDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	UserID     string             `bson:"user_id"`
	ExternalID string             `bson:"external_id"`
	Name       string             `bson:"name"`
	StartTime  time.Time          `bson:"start_time"`
	Active     bool               `bson:"active"`
	IsTemplate bool               `bson:"is_template"`
}

type exerciseDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	UserID     string             `bson:"user_id"`
	ExternalID string             `bson:"external_id"`
	WorkoutID  string             `bson:"workout_id"`
	Type       string             `bson:"type"`
	Order      int                `bson:"order"`
}

type setDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	UserID     string             `bson:"user_id"`
	ExternalID string             `bson:"external_id"`
	ExerciseID string             `bson:"exercise_id"`
	Weight     *float64           `bson:"weight,omitempty"`
	Reps       *int               `bson:"reps,omitempty"`
	Completed  bool               `bson:"completed"`
}

// Store implements mirror.Store on MongoDB. Record ids are ObjectID hex
// strings, so sorting by _id lists sets in creation order.
type Store struct {
	client    *mongo.Client
	workouts  *mongo.Collection
	exercises *mongo.Collection
	sets      *mongo.Collection
}

var _ mirror.Store = (*Store)(nil)

// Open connects to uri, pings the primary and ensures indexes in database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = disconnect(client)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:    client,
		workouts:  db.Collection(workoutCollection),
		exercises: db.Collection(exerciseCollection),
		sets:      db.Collection(setCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = disconnect(client)
		return nil, err
	}
	return s, nil
}

func disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// Close disconnects the client.
func (s *Store) Close() error {
	return disconnect(s.client)
}

// Drop removes every mirror collection. Used by tests against scratch databases.
func (s *Store) Drop(ctx context.Context) error {
	for _, c := range []*mongo.Collection{s.workouts, s.exercises, s.sets} {
		if err := c.Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "external_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := s.workouts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique,
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "start_time", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create workout indexes: %w", err)
	}
	if _, err := s.exercises.Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique,
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "workout_id", Value: 1}, {Key: "order", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create exercise indexes: %w", err)
	}
	if _, err := s.sets.Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique,
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "exercise_id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("create set indexes: %w", err)
	}
	return nil
}

// ownedFilter matches id only when userID owns it. Malformed ids match nothing.
func ownedFilter(userID, id string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "user_id": userID}, true
}

func (s *Store) owns(ctx context.Context, c *mongo.Collection, userID, id string) error {
	filter, ok := ownedFilter(userID, id)
	if !ok {
		return mirror.ErrNotFound
	}
	n, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if n == 0 {
		return mirror.ErrNotFound
	}
	return nil
}

// existing returns the id already assigned to (userID, externalID) in c.
func existing(ctx context.Context, c *mongo.Collection, userID, externalID string) (string, bool, error) {
	var doc struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	err := c.FindOne(ctx, bson.M{"user_id": userID, "external_id": externalID},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return doc.ID.Hex(), true, nil
}

// insert stores doc, or returns the id of a concurrent create that won the
// unique index.
func insert(ctx context.Context, c *mongo.Collection, userID, externalID string, id primitive.ObjectID, doc any) (string, error) {
	if _, err := c.InsertOne(ctx, doc); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return "", err
		}
		winner, ok, ferr := existing(ctx, c, userID, externalID)
		if ferr != nil {
			return "", ferr
		}
		if !ok {
			return "", err
		}
		return winner, nil
	}
	return id.Hex(), nil
}

func update(ctx context.Context, c *mongo.Collection, userID, id string, set bson.M) error {
	filter, ok := ownedFilter(userID, id)
	if !ok {
		return mirror.ErrNotFound
	}
	if len(set) == 0 {
		n, err := c.CountDocuments(ctx, filter)
		if err != nil {
			return err
		}
		if n == 0 {
			return mirror.ErrNotFound
		}
		return nil
	}
	result, err := c.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mirror.ErrNotFound
	}
	return nil
}

func remove(ctx context.Context, c *mongo.Collection, userID, id string) error {
	filter, ok := ownedFilter(userID, id)
	if !ok {
		return mirror.ErrNotFound
	}
	result, err := c.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return mirror.ErrNotFound
	}
	return nil
}

func find[T any](ctx context.Context, c *mongo.Collection, filter bson.M, sort bson.D) ([]T, error) {
	cursor, err := c.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []T
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, cursor.Err()
}

func (s *Store) CreateWorkout(ctx context.Context, userID string, rec remote.WorkoutRecord) (string, error) {
	if id, ok, err := existing(ctx, s.workouts, userID, rec.ExternalID); err != nil || ok {
		return id, err
	}
	doc := workoutDoc{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		ExternalID: rec.ExternalID,
		Name:       rec.Name,
		StartTime:  rec.StartTime.UTC(),
		Active:     rec.Active,
		IsTemplate: rec.IsTemplate,
	}
	return insert(ctx, s.workouts, userID, rec.ExternalID, doc.ID, doc)
}

func (s *Store) UpdateWorkout(ctx context.Context, userID, id string, patch remote.WorkoutPatch) error {
	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.StartTime != nil {
		set["start_time"] = patch.StartTime.UTC()
	}
	if patch.Active != nil {
		set["active"] = *patch.Active
	}
	if patch.IsTemplate != nil {
		set["is_template"] = *patch.IsTemplate
	}
	return update(ctx, s.workouts, userID, id, set)
}

func (s *Store) DeleteWorkout(ctx context.Context, userID, id string) error {
	return remove(ctx, s.workouts, userID, id)
}

func (s *Store) ListWorkouts(ctx context.Context, userID string) ([]remote.Workout, error) {
	docs, err := find[workoutDoc](ctx, s.workouts, bson.M{"user_id": userID},
		bson.D{{Key: "start_time", Value: 1}, {Key: "_id", Value: 1}})
	if err != nil {
		return nil, err
	}
	workouts := make([]remote.Workout, 0, len(docs))
	for _, d := range docs {
		workouts = append(workouts, remote.Workout{
			ID: d.ID.Hex(),
			WorkoutRecord: remote.WorkoutRecord{
				ExternalID: d.ExternalID,
				Name:       d.Name,
				StartTime:  d.StartTime.UTC(),
				Active:     d.Active,
				IsTemplate: d.IsTemplate,
			},
		})
	}
	return workouts, nil
}

func (s *Store) CreateExercise(ctx context.Context, userID string, rec remote.ExerciseRecord) (string, error) {
	if id, ok, err := existing(ctx, s.exercises, userID, rec.ExternalID); err != nil || ok {
		return id, err
	}
	if err := s.owns(ctx, s.workouts, userID, rec.WorkoutID); err != nil {
		return "", err
	}
	doc := exerciseDoc{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		ExternalID: rec.ExternalID,
		WorkoutID:  rec.WorkoutID,
		Type:       rec.Type,
		Order:      rec.Order,
	}
	return insert(ctx, s.exercises, userID, rec.ExternalID, doc.ID, doc)
}

func (s *Store) UpdateExercise(ctx context.Context, userID, id string, patch remote.ExercisePatch) error {
	set := bson.M{}
	if patch.Type != nil {
		set["type"] = *patch.Type
	}
	if patch.Order != nil {
		set["order"] = *patch.Order
	}
	return update(ctx, s.exercises, userID, id, set)
}

func (s *Store) DeleteExercise(ctx context.Context, userID, id string) error {
	return remove(ctx, s.exercises, userID, id)
}

func (s *Store) ListExercises(ctx context.Context, userID, workoutID string) ([]remote.Exercise, error) {
	if err := s.owns(ctx, s.workouts, userID, workoutID); err != nil {
		return nil, err
	}
	docs, err := find[exerciseDoc](ctx, s.exercises, bson.M{"user_id": userID, "workout_id": workoutID},
		bson.D{{Key: "order", Value: 1}, {Key: "_id", Value: 1}})
	if err != nil {
		return nil, err
	}
	exercises := make([]remote.Exercise, 0, len(docs))
	for _, d := range docs {
		exercises = append(exercises, remote.Exercise{
			ID: d.ID.Hex(),
			ExerciseRecord: remote.ExerciseRecord{
				ExternalID: d.ExternalID,
				WorkoutID:  d.WorkoutID,
				Type:       d.Type,
				Order:      d.Order,
			},
		})
	}
	return exercises, nil
}

func (s *Store) CreateSet(ctx context.Context, userID string, rec remote.SetRecord) (string, error) {
	if id, ok, err := existing(ctx, s.sets, userID, rec.ExternalID); err != nil || ok {
		return id, err
	}
	if err := s.owns(ctx, s.exercises, userID, rec.ExerciseID); err != nil {
		return "", err
	}
	doc := setDoc{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		ExternalID: rec.ExternalID,
		ExerciseID: rec.ExerciseID,
		Weight:     rec.Weight,
		Reps:       rec.Reps,
		Completed:  rec.Completed,
	}
	return insert(ctx, s.sets, userID, rec.ExternalID, doc.ID, doc)
}

func (s *Store) UpdateSet(ctx context.Context, userID, id string, patch remote.SetPatch) error {
	set := bson.M{}
	if patch.Weight != nil {
		set["weight"] = *patch.Weight
	}
	if patch.Reps != nil {
		set["reps"] = *patch.Reps
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	return update(ctx, s.sets, userID, id, set)
}

func (s *Store) DeleteSet(ctx context.Context, userID, id string) error {
	return remove(ctx, s.sets, userID, id)
}

func (s *Store) ListSets(ctx context.Context, userID, exerciseID string) ([]remote.Set, error) {
	if err := s.owns(ctx, s.exercises, userID, exerciseID); err != nil {
		return nil, err
	}
	docs, err := find[setDoc](ctx, s.sets, bson.M{"user_id": userID, "exercise_id": exerciseID},
		bson.D{{Key: "_id", Value: 1}})
	if err != nil {
		return nil, err
	}
	sets := make([]remote.Set, 0, len(docs))
	for _, d := range docs {
		sets = append(sets, remote.Set{
			ID: d.ID.Hex(),
			SetRecord: remote.SetRecord{
				ExternalID: d.ExternalID,
				ExerciseID: d.ExerciseID,
				Weight:     d.Weight,
				Reps:       d.Reps,
				Completed:  d.Completed,
			},
		})
	}
	return sets, nil
}
