package feed

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/grpc/status"

	"github.com/example/inventory-backend/internal/db"
	"github.com/example/inventory-backend/internal/models"
)

// FirestoreSource listens to a product log collection.
type FirestoreSource struct {
	client     *firestore.Client
	collection string
	logger     *zap.Logger
}

// NewFirestoreSource creates a Source over collection.
func NewFirestoreSource(client *firestore.Client, collection string, logger *zap.Logger) *FirestoreSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirestoreSource{client: client, collection: collection, logger: logger}
}

// Open starts a snapshot listener on the newest limit documents.
func (s *FirestoreSource) Open(ctx context.Context, limit int) Stream {
	it := s.client.Collection(s.collection).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Snapshots(ctx)
	return &firestoreStream{it: it, logger: s.logger}
}

type firestoreStream struct {
	it     *firestore.QuerySnapshotIterator
	logger *zap.Logger
}

func (s *firestoreStream) Next() ([]models.ProductLogEntry, error) {
	snap, err := s.it.Next()
	if err != nil {
		return nil, fmt.Errorf("product log snapshot (%s): %w", status.Code(err), err)
	}

	docs, err := snap.Documents.GetAll()
	if err != nil {
		return nil, fmt.Errorf("read product log snapshot: %w", err)
	}

	entries := make([]models.ProductLogEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := db.DecodeProductLog(doc)
		if err != nil {
			s.logger.Warn("Skipping malformed product log document", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *firestoreStream) Stop() {
	s.it.Stop()
}
