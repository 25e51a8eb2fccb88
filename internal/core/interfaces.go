package core

import (
	"context"

	"github.com/example/inventory-backend/internal/models"
)

// ProductService defines product operations. Every successful mutation
// records exactly one product event; reads and no-op updates record none.
type ProductService interface {
	CreateProduct(ctx context.Context, in models.NewProduct, actor *models.Actor) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch, actor *models.Actor) (*models.Product, error)
	// DeleteProduct reports false, with no error, when the product does not exist.
	DeleteProduct(ctx context.Context, id int64, actor *models.Actor) (bool, error)
}

// AuthService defines the identity operations. Each one talks to the external
// identity provider first and the local user mirror second.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	VerifyToken(ctx context.Context, idToken string) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// AuditService turns product mutations into product events.
type AuditService interface {
	RecordProductEvent(action models.ProductAction, product *models.Product, actor *models.Actor) bool
}

// EventPublisher accepts events for asynchronous delivery.
type EventPublisher interface {
	Publish(event models.ProductEvent) bool
}

// IdentityProvider is the external identity service.
type IdentityProvider interface {
	CreateUser(ctx context.Context, email, password string, displayName *string) (*models.IdentityRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*models.IdentityRecord, error)
	CustomToken(ctx context.Context, uid string) (string, error)
	// VerifyIDToken returns the uid the token was issued to.
	VerifyIDToken(ctx context.Context, idToken string) (string, error)
	UpdateUser(ctx context.Context, uid string, displayName, photoURL *string) error
	DeleteUser(ctx context.Context, uid string) error
}
