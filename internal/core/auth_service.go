package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/inventory-backend/internal/db"
	"github.com/example/inventory-backend/internal/models"
)

const compensationTimeout = 10 * time.Second

// authService implements the AuthService interface.
type authService struct {
	identity IdentityProvider
	users    db.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(identity IdentityProvider, users db.UserRepository, logger *zap.Logger) AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{identity: identity, users: users, logger: logger, now: time.Now}
}

// Register creates the external account, mints a sign-in token and mirrors
// the identity locally. If the local write fails the external account is
// deleted again so that a retry can succeed.
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	record, err := s.identity.CreateUser(ctx, req.Email, req.Password, req.Username)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}

	token, err := s.identity.CustomToken(ctx, record.UID)
	if err != nil {
		s.compensate(ctx, record.UID)
		return nil, fmt.Errorf("mint token: %w", err)
	}

	in := models.NewUser{
		FirebaseUID: record.UID,
		Email:       record.Email,
		Username:    req.Username,
		Status:      models.UserStatusActive,
	}
	if in.Email == "" {
		in.Email = req.Email
	}
	if in.Username == nil && record.DisplayName != "" {
		name := record.DisplayName
		in.Username = &name
	}
	if record.PhotoURL != "" {
		photo := record.PhotoURL
		in.PhotoURL = &photo
	}
	if record.EmailVerified {
		verifiedAt := s.now().UTC()
		in.EmailVerifiedAt = &verifiedAt
	}

	user, err := s.users.Create(ctx, in)
	if err != nil {
		s.compensate(ctx, record.UID)
		return nil, fmt.Errorf("mirror identity: %w", err)
	}

	s.logger.Info("User registered", zap.Int64("user_id", user.ID))
	return &models.AuthResult{User: user, Token: token}, nil
}

// Login issues a token for an existing account. The password is not checked
// here; the client proves it when exchanging the token with the provider.
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	record, err := s.identity.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	token, err := s.identity.CustomToken(ctx, record.UID)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	user, err := s.users.TouchLogin(ctx, record.UID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: user exists in identity provider but not in database", ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	return &models.AuthResult{User: user, Token: token}, nil
}

// VerifyToken resolves a bearer token to the local user row.
func (s *authService) VerifyToken(ctx context.Context, idToken string) (*models.User, error) {
	uid, err := s.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	user, err := s.users.GetByFirebaseUID(ctx, uid)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("%w: no local user for verified identity", ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *authService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translateUserErr(err)
	}
	return user, nil
}

// UpdateProfile pushes display name and photo changes to the provider, then
// writes the local row. The lookup and the write are separate repository
// calls so that no pooled connection is held across the provider call; a
// row deleted in between surfaces as ErrUserNotFound.
func (s *authService) UpdateProfile(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, translateUserErr(err)
	}

	if patch.Username != nil || patch.PhotoURL != nil {
		if err := s.identity.UpdateUser(ctx, user.FirebaseUID, patch.Username, patch.PhotoURL); err != nil {
			return nil, fmt.Errorf("update identity: %w", err)
		}
	}

	updated, err := s.users.Update(ctx, id, patch)
	if err != nil {
		return nil, translateUserErr(err)
	}
	return updated, nil
}

// DeleteUser removes the external account, then the local row. An account
// already gone from the provider is not an error, so a failed local delete
// can be retried. As in UpdateProfile, no connection is held across the
// provider call.
func (s *authService) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return translateUserErr(err)
	}

	if err := s.identity.DeleteUser(ctx, user.FirebaseUID); err != nil && !errors.Is(err, ErrIdentityNotFound) {
		return fmt.Errorf("delete identity: %w", err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return translateUserErr(err)
	}

	s.logger.Info("User deleted", zap.Int64("user_id", id))
	return nil
}

func (s *authService) compensate(ctx context.Context, uid string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.identity.DeleteUser(ctx, uid); err != nil && !errors.Is(err, ErrIdentityNotFound) {
		s.logger.Error("Failed to roll back identity after registration error",
			zap.String("firebase_uid", uid),
			zap.Error(err),
		)
	}
}

func translateUserErr(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	return err
}
