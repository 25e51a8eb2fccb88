package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"github.com/example/inventory-backend/internal/core"
	"github.com/example/inventory-backend/internal/models"
)

// authClient is the part of *auth.Client the provider uses.
type authClient interface {
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	CustomToken(ctx context.Context, uid string) (string, error)
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
}

// IdentityProvider implements core.IdentityProvider on Firebase Authentication.
type IdentityProvider struct {
	client authClient
}

// NewIdentityProvider wraps a Firebase Auth client.
func NewIdentityProvider(client *auth.Client) *IdentityProvider {
	return &IdentityProvider{client: client}
}

// CreateUser creates an email/password account. An empty display name is not sent.
func (p *IdentityProvider) CreateUser(ctx context.Context, email, password string, displayName *string) (*models.IdentityRecord, error) {
	params := (&auth.UserToCreate{}).Email(email).Password(password)
	if displayName != nil && *displayName != "" {
		params = params.DisplayName(*displayName)
	}

	rec, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return nil, mapAuthError(err)
	}
	return toIdentityRecord(rec), nil
}

// GetUserByEmail looks up an account; a missing one maps to core.ErrIdentityNotFound.
func (p *IdentityProvider) GetUserByEmail(ctx context.Context, email string) (*models.IdentityRecord, error) {
	rec, err := p.client.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapAuthError(err)
	}
	return toIdentityRecord(rec), nil
}

// CustomToken mints a sign-in token for uid.
func (p *IdentityProvider) CustomToken(ctx context.Context, uid string) (string, error) {
	token, err := p.client.CustomToken(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("custom token: %w", err)
	}
	return token, nil
}

// VerifyIDToken checks an ID token and returns its uid.
func (p *IdentityProvider) VerifyIDToken(ctx context.Context, idToken string) (string, error) {
	token, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", fmt.Errorf("verify id token: %w", err)
	}
	return token.UID, nil
}

// UpdateUser changes only the attributes that are non-nil.
func (p *IdentityProvider) UpdateUser(ctx context.Context, uid string, displayName, photoURL *string) error {
	if displayName == nil && photoURL == nil {
		return nil
	}
	params := &auth.UserToUpdate{}
	if displayName != nil {
		params = params.DisplayName(*displayName)
	}
	if photoURL != nil {
		params = params.PhotoURL(*photoURL)
	}
	if _, err := p.client.UpdateUser(ctx, uid, params); err != nil {
		return mapAuthError(err)
	}
	return nil
}

// DeleteUser removes the account; a missing one maps to core.ErrIdentityNotFound.
func (p *IdentityProvider) DeleteUser(ctx context.Context, uid string) error {
	if err := p.client.DeleteUser(ctx, uid); err != nil {
		return mapAuthError(err)
	}
	return nil
}

func mapAuthError(err error) error {
	switch {
	case auth.IsEmailAlreadyExists(err):
		return fmt.Errorf("%w: %v", core.ErrEmailTaken, err)
	case auth.IsUserNotFound(err):
		return fmt.Errorf("%w: %v", core.ErrIdentityNotFound, err)
	default:
		return fmt.Errorf("firebase auth: %w", err)
	}
}

func toIdentityRecord(rec *auth.UserRecord) *models.IdentityRecord {
	out := &models.IdentityRecord{EmailVerified: rec.EmailVerified}
	if rec.UserInfo != nil {
		out.UID = rec.UID
		out.Email = rec.Email
		out.DisplayName = rec.DisplayName
		out.PhotoURL = rec.PhotoURL
	}
	return out
}

var _ core.IdentityProvider = (*IdentityProvider)(nil)
