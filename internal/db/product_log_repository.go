package db

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/status"

	"github.com/example/inventory-backend/internal/models"
)

// FirestoreProductLogRepository stores product events as documents of one
// Firestore collection. Documents are only ever appended.
type FirestoreProductLogRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreProductLogRepository creates a repository over collection.
func NewFirestoreProductLogRepository(client *firestore.Client, collection string) *FirestoreProductLogRepository {
	return &FirestoreProductLogRepository{client: client, collection: collection}
}

// Write appends event under a store-generated key.
func (r *FirestoreProductLogRepository) Write(ctx context.Context, event models.ProductEvent) error {
	if r.client == nil {
		return errors.New("firestore client not initialized")
	}
	if _, _, err := r.client.Collection(r.collection).Add(ctx, event); err != nil {
		return fmt.Errorf("append product event (%s): %w", status.Code(err), err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *FirestoreProductLogRepository) Recent(ctx context.Context, limit int) ([]models.ProductLogEntry, error) {
	if r.client == nil {
		return nil, errors.New("firestore client not initialized")
	}

	iter := r.client.Collection(r.collection).
		OrderBy("timestamp", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	entries := make([]models.ProductLogEntry, 0, limit)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read product events (%s): %w", status.Code(err), err)
		}
		entry, err := DecodeProductLog(doc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DecodeProductLog converts a stored document to an entry keyed by its ID.
func DecodeProductLog(doc *firestore.DocumentSnapshot) (models.ProductLogEntry, error) {
	var ev models.ProductEvent
	if err := doc.DataTo(&ev); err != nil {
		return models.ProductLogEntry{}, fmt.Errorf("decode product event %s: %w", doc.Ref.ID, err)
	}
	return models.ProductLogEntry{ID: doc.Ref.ID, ProductEvent: ev}, nil
}
