package gcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/imagetaskflow/internal/models"
	"github.com/Lllllllleong/imagetaskflow/internal/services"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// schemaCollection holds one marker document per provisioned task collection.
const schemaCollection = "_schema"

// NewFirestoreClient creates and returns a new Firestore client for the given
// project and database. It centralizes client creation for all functions.
func NewFirestoreClient(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreTaskStore keeps task records in a Firestore collection, one
// document per task keyed by TaskId.
type FirestoreTaskStore struct {
	client     *firestore.Client
	database   string
	collection string
	ensured    atomic.Bool
}

// NewFirestoreTaskStore returns a store over collection in the client's database.
func NewFirestoreTaskStore(client *firestore.Client, database, collection string) *FirestoreTaskStore {
	return &FirestoreTaskStore{
		client:     client,
		database:   database,
		collection: collection,
	}
}

// EnsureSchema records the collection in the schema marker collection,
// creating the marker only if it does not exist yet.
func (s *FirestoreTaskStore) EnsureSchema(ctx context.Context) error {
	if s.ensured.Load() {
		return nil
	}
	marker := map[string]interface{}{
		"database":     s.database,
		"collection":   s.collection,
		"partitionKey": "/id",
		"createdAt":    time.Now().UTC(),
	}
	_, err := s.client.Collection(schemaCollection).Doc(s.collection).Create(ctx, marker)
	switch {
	case err == nil:
		slog.Info("Created task collection.", "database", s.database, "collection", s.collection)
	case status.Code(err) == codes.AlreadyExists:
	default:
		return fmt.Errorf("failed to provision collection %s: %w", s.collection, err)
	}
	s.ensured.Store(true)
	return nil
}

func (s *FirestoreTaskStore) Create(ctx context.Context, task models.TaskState) error {
	_, err := s.client.Collection(s.collection).Doc(task.TaskId).Create(ctx, task)
	if status.Code(err) == codes.AlreadyExists {
		return fmt.Errorf("%w: %s", services.ErrTaskExists, task.TaskId)
	}
	if err != nil {
		return fmt.Errorf("failed to create task document: %w", err)
	}
	return nil
}

func (s *FirestoreTaskStore) ReadByID(ctx context.Context, id string) (models.TaskState, error) {
	snap, err := s.client.Collection(s.collection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return models.TaskState{}, fmt.Errorf("%w: %s", services.ErrTaskNotFound, id)
	}
	if err != nil {
		return models.TaskState{}, fmt.Errorf("failed to read task document: %w", err)
	}
	var task models.TaskState
	if err := snap.DataTo(&task); err != nil {
		return models.TaskState{}, fmt.Errorf("failed to decode task document %s: %w", id, err)
	}
	return task, nil
}

func (s *FirestoreTaskStore) QueryByID(ctx context.Context, id string) ([]models.TaskState, error) {
	it := s.client.Collection(s.collection).Where("id", "==", id).Documents(ctx)
	defer it.Stop()

	var tasks []models.TaskState
	for {
		snap, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query tasks: %w", err)
		}
		var task models.TaskState
		if err := snap.DataTo(&task); err != nil {
			return nil, fmt.Errorf("failed to decode task document %s: %w", snap.Ref.ID, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// UpdateResult sets State and ProcessedFilePath. Firestore rejects the update
// when the document does not exist.
func (s *FirestoreTaskStore) UpdateResult(ctx context.Context, id, state, processedFilePath string) error {
	updates := []firestore.Update{
		{Path: "State", Value: state},
		{Path: "ProcessedFilePath", Value: processedFilePath},
	}
	_, err := s.client.Collection(s.collection).Doc(id).Update(ctx, updates)
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: %s", services.ErrTaskNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update task document: %w", err)
	}
	return nil
}
