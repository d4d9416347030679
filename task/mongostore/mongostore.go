// Package mongostore durably indexes task records by id and session,
// grounded on features/run/mongo/{store.go,clients/mongo/client.go}: a
// thin Store delegating to a narrow Client interface, upsert-by-id via
// UpdateOne with $setOnInsert for the creation timestamp, and
// mongo.ErrNoDocuments mapped to the package's own not-found behavior.
// A task.Queue backend that cannot answer tasks.list against its own
// state (temporalqueue, nexusqueue) can be paired with this Store by the
// caller, who saves a record on submission and reads a session's tasks
// back with ListBySession; neither queue calls the Store itself.
package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/task"
)

const (
	defaultCollection = "mcpcore_tasks"
	defaultOpTimeout  = 5 * time.Second
)

// Options configures the Mongo-backed task store.
type Options struct {
	Client     *mongodriver.Client
	Database   string
	Collection string
	Timeout    time.Duration
}

// Store durably records task.Task metadata.
type Store struct {
	coll    *mongodriver.Collection
	timeout time.Duration
}

// New constructs a Store and ensures its indexes exist: a unique index on
// task id and a non-unique index on session id for List.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Client == nil {
		return nil, errors.New("mongostore: client is required")
	}
	if opts.Database == "" {
		return nil, errors.New("mongostore: database name is required")
	}
	collection := opts.Collection
	if collection == "" {
		collection = defaultCollection
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultOpTimeout
	}
	coll := opts.Client.Database(opts.Database).Collection(collection)

	ictx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	_, err := coll.Indexes().CreateMany(ictx, []mongodriver.IndexModel{
		{Keys: bson.D{{Key: "task_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "session_id", Value: 1}}},
	})
	if err != nil {
		return nil, err
	}

	return &Store{coll: coll, timeout: timeout}, nil
}

// Ping verifies connectivity, the same health-check shape
// features/run/mongo/clients/mongo/client.go exposes via health.Pinger.
func (s *Store) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// Save upserts t by its id, preserving the original CreatedAt on repeat
// saves of the same task (the submission-time write and any later
// state-transition writes share one document).
func (s *Store) Save(ctx context.Context, t task.Task) error {
	if t.ID == "" {
		return errors.New("mongostore: task id is required")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	doc := fromTask(t)
	filter := bson.M{"task_id": t.ID}
	// created_at is left out of $set: it would conflict with $setOnInsert
	// and overwrite the original timestamp on every later save.
	update := bson.M{
		"$set": bson.M{
			"kind":         doc.Kind,
			"target_key":   doc.TargetKey,
			"arguments":    doc.Arguments,
			"state":        doc.State,
			"ttl":          doc.TTL,
			"result_error": doc.ResultErr,
			"session_id":   doc.SessionID,
		},
		"$setOnInsert": bson.M{
			"created_at": doc.CreatedAt,
		},
	}
	_, err := s.coll.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	return err
}

// Load retrieves a task by id.
func (s *Store) Load(ctx context.Context, id string) (task.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	var doc taskDocument
	err := s.coll.FindOne(ctx, bson.M{"task_id": id}).Decode(&doc)
	if errors.Is(err, mongodriver.ErrNoDocuments) {
		return task.Task{}, task.ErrNotFound
	}
	if err != nil {
		return task.Task{}, err
	}
	return doc.toTask(), nil
}

// ListBySession returns every task recorded for a session, or every
// recorded task when sessionID is empty.
func (s *Store) ListBySession(ctx context.Context, sessionID string) ([]task.Task, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	filter := bson.M{}
	if sessionID != "" {
		filter["session_id"] = sessionID
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []task.Task
	for cur.Next(ctx) {
		var doc taskDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toTask())
	}
	return out, cur.Err()
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

type taskDocument struct {
	TaskID    string         `bson:"task_id"`
	Kind      string         `bson:"kind"`
	TargetKey string         `bson:"target_key"`
	Arguments map[string]any `bson:"arguments,omitempty"`
	State     string         `bson:"state"`
	CreatedAt time.Time      `bson:"created_at"`
	TTL       time.Duration  `bson:"ttl"`
	ResultErr string         `bson:"result_error,omitempty"`
	SessionID string         `bson:"session_id,omitempty"`
}

func fromTask(t task.Task) taskDocument {
	return taskDocument{
		TaskID:    t.ID,
		Kind:      string(t.Kind),
		TargetKey: string(t.TargetKey),
		Arguments: t.Arguments,
		State:     string(t.State),
		CreatedAt: t.CreatedAt.UTC(),
		TTL:       t.TTL,
		ResultErr: t.ResultErr,
		SessionID: t.SessionID,
	}
}

func (doc taskDocument) toTask() task.Task {
	return task.Task{
		ID:        doc.TaskID,
		Kind:      component.Kind(doc.Kind),
		TargetKey: component.Key(doc.TargetKey),
		Arguments: doc.Arguments,
		State:     task.State(doc.State),
		CreatedAt: doc.CreatedAt,
		TTL:       doc.TTL,
		ResultErr: doc.ResultErr,
		SessionID: doc.SessionID,
	}
}
