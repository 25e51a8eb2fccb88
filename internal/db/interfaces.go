package db

import (
	"context"

	"github.com/example/inventory-backend/internal/models"
)

// ProductRepository defines the relational product operations.
// Every method holds one pooled connection for its full duration.
type ProductRepository interface {
	Create(ctx context.Context, in models.NewProduct) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	// Update reads the row first; an empty patch returns it without writing.
	Update(ctx context.Context, id int64, patch models.ProductPatch) (*models.Product, error)
	// Delete returns the row as it was before deletion.
	Delete(ctx context.Context, id int64) (*models.Product, error)
}

// UserRepository defines the relational user mirror operations.
type UserRepository interface {
	Create(ctx context.Context, in models.NewUser) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
	// TouchLogin bumps updated_at and returns the refreshed row.
	TouchLogin(ctx context.Context, uid string) (*models.User, error)
	Update(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}

// ProductLogRepository appends product events to the real-time store.
type ProductLogRepository interface {
	Write(ctx context.Context, event models.ProductEvent) error
}
